package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func profilingTestHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func TestProfiling_DisabledPassesThrough(t *testing.T) {
	wrapped := Profiling(ProfilingConfig{
		Enabled:     false,
		Environment: "development",
	})(profilingTestHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Errorf("body = %q, want pass-through %q", body, "ok")
	}
}

func TestProfiling_ServesIndexInDevelopment(t *testing.T) {
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "development",
	})(profilingTestHandler("unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "pprof") {
		t.Errorf("index body %q does not look like a pprof page", body)
	}
}

func TestProfiling_RefusedInProduction(t *testing.T) {
	// Enabled flag alone must not win against a production environment.
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "production",
	})(profilingTestHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Errorf("body = %q, want pass-through %q", body, "ok")
	}
}

func TestProfiling_ServesRuntimeProfiles(t *testing.T) {
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "development",
	})(profilingTestHandler("unreachable"))

	for _, path := range []string{
		"/debug/pprof/heap",
		"/debug/pprof/goroutine",
		"/debug/pprof/profile?seconds=1",
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if rec.Body.String() == "unreachable" {
				t.Error("profile request fell through to the next handler")
			}
		})
	}
}

func TestProfiling_NonPprofRoutePassesThrough(t *testing.T) {
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "development",
	})(profilingTestHandler("normal route"))

	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "normal route" {
		t.Errorf("body = %q, want %q", body, "normal route")
	}
}

func TestProfiling_StatusPathFallsThrough(t *testing.T) {
	// The status route lives on the mux, not in the middleware, so it is
	// reachable whether or not profiling is enabled.
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "development",
	})(ProfilingStatus(ProfilingConfig{Enabled: true, Environment: "development"}))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/status", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json; charset=utf-8", ct)
	}
}

func TestProfilingStatus(t *testing.T) {
	tests := []struct {
		name       string
		cfg        ProfilingConfig
		wantStatus string
	}{
		{"disabled in production", ProfilingConfig{Enabled: false, Environment: "production"}, "disabled"},
		{"enabled in development", ProfilingConfig{Enabled: true, Environment: "development"}, "enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/status", nil)
			rec := httptest.NewRecorder()
			ProfilingStatus(tt.cfg).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}

			var got struct {
				ProfilingEnabled bool   `json:"profiling_enabled"`
				Environment      string `json:"environment"`
				Status           string `json:"status"`
				Prefix           string `json:"prefix"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decoding status body: %v", err)
			}
			if got.ProfilingEnabled != tt.cfg.Enabled {
				t.Errorf("profiling_enabled = %v, want %v", got.ProfilingEnabled, tt.cfg.Enabled)
			}
			if got.Environment != tt.cfg.Environment {
				t.Errorf("environment = %q, want %q", got.Environment, tt.cfg.Environment)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Prefix != "/debug/pprof" {
				t.Errorf("prefix = %q, want /debug/pprof", got.Prefix)
			}
		})
	}
}

func BenchmarkProfiling_PassThrough(b *testing.B) {
	wrapped := Profiling(ProfilingConfig{
		Enabled:     true,
		Environment: "development",
	})(profilingTestHandler("ok"))
	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
	}
}
