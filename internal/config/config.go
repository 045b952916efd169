// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the server runs on the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// Redis. Empty disables the Redis-backed rate limiter.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// Scoring
	CalibrationPath   string `koanf:"calibration_path"`
	TopicFilterPolicy string `koanf:"topic_filter_policy"`
	ScoringWorkers    int    `koanf:"scoring_workers"`

	// Centrality refresh job
	CentralityRefreshInterval time.Duration `koanf:"centrality_refresh_interval"`
	CentralityRefreshTimeout  time.Duration `koanf:"centrality_refresh_timeout"`

	// Rate limiting
	RecommendRateLimit  int           `koanf:"recommend_rate_limit"`
	RecommendRateWindow time.Duration `koanf:"recommend_rate_window"`

	// Tracing
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingEndpoint string `koanf:"tracing_endpoint"`

	// Profiling exposes /debug/pprof; refused outside development.
	ProfilingEnabled bool `koanf:"profiling_enabled"`

	// CORS. Empty disables cross-origin requests entirely.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Configuration validation errors.
var (
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidTopicFilterPolicy = errors.New("TOPIC_FILTER_POLICY must be \"soft\" or \"hard-fallback\"")
	ErrInvalidScoringWorkers    = errors.New("SCORING_WORKERS must be positive")
	ErrInvalidRefreshInterval   = errors.New("CENTRALITY_REFRESH_INTERVAL must be positive")
	ErrInvalidRateLimit         = errors.New("RECOMMEND_RATE_LIMIT must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort                      = 8080
	DefaultEnv                       = "development"
	DefaultTopicFilterPolicy         = "soft"
	DefaultScoringWorkers            = 8
	DefaultCentralityRefreshInterval = 15 * time.Minute
	DefaultCentralityRefreshTimeout  = 2 * time.Minute
	DefaultRecommendRateLimit        = 30
	DefaultRecommendRateWindow       = time.Minute
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try CONFREC_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"CONFREC_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	workers, workersErr := getEnvIntOrDefault("SCORING_WORKERS", k.Int("scoring_workers"), DefaultScoringWorkers)
	if workersErr != nil {
		loadErrs = append(loadErrs, workersErr)
	}

	rateLimit, rateLimitErr := getEnvIntOrDefault("RECOMMEND_RATE_LIMIT", k.Int("recommend_rate_limit"), DefaultRecommendRateLimit)
	if rateLimitErr != nil {
		loadErrs = append(loadErrs, rateLimitErr)
	}

	rateWindow, rateWindowErr := getEnvDurationOrDefault("RECOMMEND_RATE_WINDOW", k.Duration("recommend_rate_window"), DefaultRecommendRateWindow)
	if rateWindowErr != nil {
		loadErrs = append(loadErrs, rateWindowErr)
	}

	refreshInterval, refreshIntervalErr := getEnvDurationOrDefault("CENTRALITY_REFRESH_INTERVAL", k.Duration("centrality_refresh_interval"), DefaultCentralityRefreshInterval)
	if refreshIntervalErr != nil {
		loadErrs = append(loadErrs, refreshIntervalErr)
	}

	refreshTimeout, refreshTimeoutErr := getEnvDurationOrDefault("CENTRALITY_REFRESH_TIMEOUT", k.Duration("centrality_refresh_timeout"), DefaultCentralityRefreshTimeout)
	if refreshTimeoutErr != nil {
		loadErrs = append(loadErrs, refreshTimeoutErr)
	}

	// Parse feature flags from env with default
	tracingEnabled := getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled")
	profilingEnabled := getEnvBoolOrKoanf("PROFILING_ENABLED", k, "profiling_enabled")

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                      port,
		Env:                       getEnvOrDefaultMulti([]string{"CONFREC_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:               getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:                 getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:             getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		CalibrationPath:           getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		TopicFilterPolicy:         getEnvOrDefault("TOPIC_FILTER_POLICY", k.String("topic_filter_policy"), DefaultTopicFilterPolicy),
		ScoringWorkers:            workers,
		CentralityRefreshInterval: refreshInterval,
		CentralityRefreshTimeout:  refreshTimeout,
		RecommendRateLimit:        rateLimit,
		RecommendRateWindow:       rateWindow,
		TracingEnabled:            tracingEnabled,
		TracingEndpoint:           getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		ProfilingEnabled:          profilingEnabled,
		CORSAllowedOrigins:        getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvBoolOrKoanf returns the environment variable interpreted as a boolean
// if set, otherwise the koanf value. Unrecognized env values leave the koanf
// value in place.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	enabled := false
	if k.Exists(koanfKey) {
		enabled = k.Bool(koanfKey)
	}
	// Env var takes precedence over file config
	switch strings.ToLower(os.Getenv(envKey)) {
	case "true", "1", "yes", "on":
		enabled = true
	case "false", "0", "no", "off":
		enabled = false
	}
	return enabled
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns the environment variable split on commas if set,
// otherwise the koanf string slice.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: a zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault returns the environment variable as a duration if set,
// otherwise the koanf value, or default. Accepts Go duration strings ("30s", "15m").
func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all configuration values are usable.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.TopicFilterPolicy != "soft" && c.TopicFilterPolicy != "hard-fallback" {
		errs = append(errs, ErrInvalidTopicFilterPolicy)
	}
	if c.ScoringWorkers <= 0 {
		errs = append(errs, ErrInvalidScoringWorkers)
	}
	if c.CentralityRefreshInterval <= 0 {
		errs = append(errs, ErrInvalidRefreshInterval)
	}
	if c.RecommendRateLimit <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                        fmt.Sprintf("%d", c.Port),
		"env":                         c.Env,
		"database_url":                maskDatabaseURL(c.DatabaseURL),
		"redis_addr":                  orNotSet(c.RedisAddr),
		"redis_password":              maskSecret(c.RedisPassword),
		"calibration_path":            orNotSet(c.CalibrationPath),
		"topic_filter_policy":         c.TopicFilterPolicy,
		"scoring_workers":             fmt.Sprintf("%d", c.ScoringWorkers),
		"centrality_refresh_interval": c.CentralityRefreshInterval.String(),
		"centrality_refresh_timeout":  c.CentralityRefreshTimeout.String(),
		"recommend_rate_limit":        fmt.Sprintf("%d", c.RecommendRateLimit),
		"recommend_rate_window":       c.RecommendRateWindow.String(),
		"tracing_enabled":             fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_endpoint":            orNotSet(c.TracingEndpoint),
		"profiling_enabled":           fmt.Sprintf("%t", c.ProfilingEnabled),
		"cors_allowed_origins":        orNotSet(strings.Join(c.CORSAllowedOrigins, ",")),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
