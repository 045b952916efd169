// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the pprof middleware.
type ProfilingConfig struct {
	// Enabled exposes the /debug/pprof endpoints. Profiles leak memory
	// contents and internals, so this must stay off outside development.
	Enabled bool

	// Environment gates a hard refusal: "production"/"prod" never serve
	// profiles regardless of Enabled.
	Environment string
}

const pprofPrefix = "/debug/pprof"

// pprofStatusPath reports the profiling configuration and is safe to expose
// in any environment; the middleware lets it fall through to the mux where
// ProfilingStatus is registered.
const pprofStatusPath = pprofPrefix + "/status"

// Profiling serves the runtime pprof endpoints under /debug/pprof when
// enabled. Typical use while chasing a slow recommendation: capture a CPU
// profile with /debug/pprof/profile?seconds=10 during a burst of /recommend
// traffic, or /debug/pprof/heap after warming the centrality cache.
//
// Disabled (or in production), it is a pass-through.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}

		if config.Environment == "production" || config.Environment == "prod" {
			slog.Error("refusing to enable profiling in production",
				"environment", config.Environment)
			return next
		}

		slog.Warn("pprof endpoints enabled",
			"environment", config.Environment,
			"prefix", pprofPrefix)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, pprofPrefix) || r.URL.Path == pprofStatusPath {
				next.ServeHTTP(w, r)
				return
			}

			switch r.URL.Path {
			case pprofPrefix + "/cmdline":
				pprof.Cmdline(w, r)
			case pprofPrefix + "/profile":
				pprof.Profile(w, r)
			case pprofPrefix + "/symbol":
				pprof.Symbol(w, r)
			case pprofPrefix + "/trace":
				pprof.Trace(w, r)
			default:
				// Index also serves the named runtime profiles
				// (heap, goroutine, block, mutex, allocs).
				pprof.Index(w, r)
			}
		})
	}
}

// profilingStatus is the response body of the ProfilingStatus handler.
type profilingStatus struct {
	ProfilingEnabled bool   `json:"profiling_enabled"`
	Environment      string `json:"environment"`
	Status           string `json:"status"`
	Prefix           string `json:"prefix"`
}

// ProfilingStatus reports whether profiling is on and where. Registered at
// /debug/pprof/status in every environment so operators can confirm the
// endpoints are dark in production.
func ProfilingStatus(config ProfilingConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := profilingStatus{
			ProfilingEnabled: config.Enabled,
			Environment:      config.Environment,
			Status:           "disabled",
			Prefix:           pprofPrefix,
		}
		if config.Enabled {
			status.Status = "enabled"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("failed to write profiling status", "error", err)
		}
	}
}
