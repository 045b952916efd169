// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header that carries the correlation ID. Gateways in
// front of the API may set it; otherwise one is generated here.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds inbound correlation IDs so a hostile client
// cannot bloat every log line and span of its request.
const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestID assigns each request a correlation ID, echoes it on the response,
// and stores it in the context for the logging and tracing layers. An inbound
// X-Request-ID is reused when it is reasonably sized; anything oversized is
// replaced with a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the correlation ID stored by RequestID, or "" when the
// middleware did not run.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
