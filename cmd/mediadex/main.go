package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/compiler"
	"github.com/kailas-cloud/mediadex/internal/config"
	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/mediadex/internal/db/redis"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	logpkg "github.com/kailas-cloud/mediadex/internal/logger"
	"github.com/kailas-cloud/mediadex/internal/metrics"
	"github.com/kailas-cloud/mediadex/internal/repository"
	contentrepo "github.com/kailas-cloud/mediadex/internal/repository/content"
	"github.com/kailas-cloud/mediadex/internal/repository/schedule"
	topicrepo "github.com/kailas-cloud/mediadex/internal/repository/topic"
	"github.com/kailas-cloud/mediadex/internal/schema"
	chiTransport "github.com/kailas-cloud/mediadex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/mediadex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/mediadex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/mediadex/internal/usecase/search"
	topicuc "github.com/kailas-cloud/mediadex/internal/usecase/topic"
	"github.com/kailas-cloud/mediadex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mediadex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var raw db.Store
	switch cfg.Database.Driver {
	case config.DriverRedis:
		raw, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			DB:        cfg.Database.DB,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
	case config.DriverMemory:
		raw = memory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer raw.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := raw.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register indexing metrics explicitly (no init())
	metrics.RegisterIndexingMetrics()

	// Every store call below is bounded by the request timeout.
	store := repository.NewBounded(raw, cfg.Index.RequestTimeout())

	names := schema.NewScheduleNames(cfg.Index.SchedulePrefix)
	contents := contentrepo.New(store, cfg.Index.Content, logger)
	topics := topicrepo.New(store, cfg.Index.Topics)

	indexingSvc := indexinguc.New(contents, schedule.NewRegistry(store, names),
		document.NewBuilder(contents, names, logger), logger)
	searchSvc := searchuc.New(contents, compiler.New(attribute.Content, schema.Content(cfg.Index.Content))).
		WithDefaultLimit(cfg.Index.DefaultLimit)
	topicSvc := topicuc.New(topics, contents, compiler.New(attribute.Topics, schema.Topics(cfg.Index.Topics)), logger).
		WithDefaultLimit(cfg.Index.DefaultLimit)
	healthSvc := healthuc.New(store, store, cfg.Index.Content, cfg.Index.Topics)

	if err := indexingSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start indexing", zap.Error(err))
	}
	if err := topicSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start topic index", zap.Error(err))
	}

	// Create chi server
	server := chiTransport.NewServer(indexingSvc, searchSvc, topicSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys, cfg.Auth.ReadOnlyKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
			Code:    chiTransport.CodeNotFound,
			Message: "route not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
