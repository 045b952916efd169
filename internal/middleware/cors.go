// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for CORS middleware.
//
// The recommendation API is a token-less read interface, so there is no
// credentials support: browsers are never told to attach cookies or auth
// headers to cross-origin calls.
type CORSConfig struct {
	AllowedOrigins []string // Explicit origin allowlist; empty disables CORS
	AllowedMethods []string // Methods advertised on preflight
	AllowedHeaders []string // Request headers advertised on preflight
	MaxAge         int      // Preflight cache duration in seconds
}

// corsPolicy is the precomputed form of CORSConfig, built once at middleware
// construction so per-request work is a map lookup and header writes.
type corsPolicy struct {
	origins map[string]struct{}
	methods string
	headers string
	maxAge  string
}

// CORS returns middleware that lets program-committee dashboards hosted on
// other origins call the recommendation endpoints. Origins must be listed
// explicitly; there is no wildcard support. With an empty allowlist the
// middleware is a no-op, which is the right mode when the API sits behind a
// same-origin frontend or a gateway that handles CORS itself.
//
// Requests from unlisted origins get 403 before reaching a handler. Preflight
// OPTIONS requests are answered directly with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := corsPolicy{
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods: strings.Join(cfg.AllowedMethods, ", "),
		headers: strings.Join(cfg.AllowedHeaders, ", "),
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			policy.origins[origin] = struct{}{}
		}
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(policy.origins) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request.
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := policy.origins[origin]; !ok {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			// The response depends on the Origin header, so caches must
			// key on it.
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)

			if r.Method == http.MethodOptions {
				policy.writePreflight(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p corsPolicy) writePreflight(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}
