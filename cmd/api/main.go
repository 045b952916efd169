// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/confrec/confrec/internal/api"
	"github.com/confrec/confrec/internal/centrality"
	"github.com/confrec/confrec/internal/config"
	"github.com/confrec/confrec/internal/db"
	"github.com/confrec/confrec/internal/health"
	"github.com/confrec/confrec/internal/jobs"
	"github.com/confrec/confrec/internal/middleware"
	"github.com/confrec/confrec/internal/ranking"
	"github.com/confrec/confrec/internal/store"
	"github.com/confrec/confrec/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Confrec API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, cfgErrs := config.Load(*configPath)
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", cfgErrs)
		os.Exit(1)
	}

	// Initialize logger
	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if len(cfgErrs) > 0 {
		for _, err := range cfgErrs {
			logger.Error("configuration error", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	// Distributed tracing (no-op provider when disabled)
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "confrec-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-grpc",
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(ctx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()

	// Store: Postgres when DATABASE_URL is set, otherwise in-memory.
	var (
		reader store.Reader
		dbConn *sql.DB
	)
	if cfg.DatabaseURL != "" {
		dbConn, err = db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		reader = store.NewPostgresStore(dbConn, logger)
		logger.Info("using postgres store")
	} else {
		reader = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using empty in-memory store")
	}

	// Optional Redis for rate limiting.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable at startup, rate limiting will fail open", "error", err)
		}
		cancel()
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}
	centralityMetrics := centrality.NewMetrics()
	if err := centralityMetrics.Register(registry); err != nil {
		logger.Error("failed to register centrality metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	// Centrality cache and background refresh
	cache := centrality.NewCache(logger, centralityMetrics)
	refreshJob := centrality.NewRefreshJob(centrality.RefreshJobConfig{
		Interval:   cfg.CentralityRefreshInterval,
		Timeout:    cfg.CentralityRefreshTimeout,
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, reader, cache)

	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	if err := refreshJob.Start(jobCtx); err != nil {
		logger.Error("failed to start centrality refresh job", "error", err)
		os.Exit(1)
	}
	defer refreshJob.Stop()
	// Warm the cache so early queries don't pay the first PageRank.
	refreshJob.RefreshNow(jobCtx)

	// Scoring weights, with optional calibration file override.
	weights, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	service := ranking.NewService(reader, cache, ranking.ServiceConfig{
		Weights:     weights,
		TopicPolicy: ranking.TopicPolicy(cfg.TopicFilterPolicy),
		Workers:     cfg.ScoringWorkers,
		Logger:      logger,
	})

	// Handlers
	recommendHandlers := api.NewRecommendHandlers(service)
	researcherHandlers := api.NewResearcherHandlers(reader)

	healthConfig := api.HealthHandlersConfig{Centrality: cache}
	if dbConn != nil {
		healthConfig.DBChecker = health.NewDBChecker(dbConn)
	}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	// Rate limiting on the recommendation endpoint.
	var rateLimitStore middleware.RateLimitStore
	if redisClient != nil {
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient,
			middleware.WithRateLimitMetrics(httpMetrics),
			middleware.WithRateLimitLogger(logger),
		)
	} else {
		rateLimitStore = middleware.NewInMemoryRateLimitStore()
	}
	rateLimit := middleware.RateLimiter(rateLimitStore, middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RecommendRateLimit,
		WindowDuration:    cfg.RecommendRateWindow,
	}, middleware.ClientKeyFunc(), httpMetrics)

	profilingCfg := middleware.ProfilingConfig{
		Enabled:     cfg.ProfilingEnabled,
		Environment: cfg.Env,
	}

	// Routes
	mux := http.NewServeMux()
	mux.Handle("/recommend", rateLimit(http.HandlerFunc(recommendHandlers.Recommend)))
	mux.HandleFunc("/researchers/", researcherHandlers.GetResearcher)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/status", middleware.ProfilingStatus(profilingCfg))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"confrec-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("confrec-api")(handler)
	handler = middleware.RequestID(handler)

	// No-op unless explicitly enabled, and refused outright in production.
	handler = middleware.Profiling(profilingCfg)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
