package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesUUIDWhenAbsent(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if seen == "" {
		t.Fatal("no request ID in handler context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", seen, err)
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response %s = %q, context carried %q", RequestIDHeader, got, seen)
	}
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	const inbound = "gateway-7f3a1c"

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)
	req.Header.Set(RequestIDHeader, inbound)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if seen != inbound {
		t.Errorf("context request ID = %q, want inbound %q", seen, inbound)
	}
	if got := rr.Header().Get(RequestIDHeader); got != inbound {
		t.Errorf("response %s = %q, want inbound %q", RequestIDHeader, got, inbound)
	}
}

func TestRequestID_ReplacesOversizedInboundID(t *testing.T) {
	oversized := strings.Repeat("x", maxRequestIDLength+1)

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)
	req.Header.Set(RequestIDHeader, oversized)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if seen == oversized {
		t.Fatal("oversized inbound ID was reused")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("replacement ID %q is not a UUID: %v", seen, err)
	}
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("GetRequestID = %q on bare context, want empty", id)
	}
}
