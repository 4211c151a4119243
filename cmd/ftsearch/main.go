package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch"
	"github.com/kailas-cloud/ftsearch/internal/config"
	"github.com/kailas-cloud/ftsearch/internal/dataset"
	logpkg "github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/ftsearch/internal/transport/chi"
	"github.com/kailas-cloud/ftsearch/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

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

	build := version.Get()
	logger.Info("Starting ftsearch API server",
		zap.String("version", build.Version),
		zap.String("commit", build.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int("schema_fields", len(cfg.Schema.Fields)),
	)

	metrics.RegisterSearchMetrics()

	engine, err := ftsearch.New(schemaFields(cfg.Schema), engineOptions(cfg, logger)...)
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}
	defer engine.Close()
	logger.Info("Search engine ready", zap.String("language", engine.Language()))

	if cfg.Dataset.Path != "" {
		if err := loadDataset(context.Background(), engine, cfg.Dataset.Path, logger); err != nil {
			logger.Fatal("Failed to load dataset", zap.String("path", cfg.Dataset.Path), zap.Error(err))
		}
	}

	server := chiTransport.NewServer(engine, logger,
		chiTransport.WithMaxLimit(cfg.Search.MaxLimit),
		chiTransport.WithMaxBatchSize(cfg.Search.MaxBatchSize),
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuth(cfg.Auth.APIKeys))
	r.Use(metrics.NewHTTP(prometheus.DefaultRegisterer).Middleware)
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func schemaFields(s config.SchemaConfig) []ftsearch.Field {
	out := make([]ftsearch.Field, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = ftsearch.Field{Name: f.Name, Type: ftsearch.FieldType(f.Type)}
	}
	return out
}

func engineOptions(cfg config.Config, logger *zap.Logger) []ftsearch.Option {
	opts := []ftsearch.Option{
		ftsearch.WithLogger(logger),
		ftsearch.WithKeyPrefix(cfg.Storage.KeyPrefix),
		ftsearch.WithReadinessTimeout(time.Duration(cfg.Storage.ReadinessTimeout) * time.Second),
		ftsearch.WithPoolSize(cfg.Search.AsyncPoolSize),
		ftsearch.WithMaxBatchSize(cfg.Search.MaxBatchSize),
	}
	if cfg.Search.DefaultLanguage != "" {
		opts = append(opts, ftsearch.WithLanguage(cfg.Search.DefaultLanguage))
	}
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		opts = append(opts, ftsearch.WithRedis(cfg.Storage.Password, cfg.Storage.Addrs...))
	case config.DriverBadger:
		opts = append(opts, ftsearch.WithBadger(cfg.Storage.Path))
	default:
		opts = append(opts, ftsearch.WithMemory())
	}
	return opts
}

func loadDataset(ctx context.Context, engine *ftsearch.Engine, path string, logger *zap.Logger) error {
	start := time.Now()
	n, err := dataset.Load(ctx, path, dataset.DefaultBatchSize, func(ctx context.Context, docs []map[string]any) error {
		batch := make([]ftsearch.Document, len(docs))
		for i, d := range docs {
			batch[i] = d
		}
		_, err := engine.InsertMultiple(ctx, batch)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		zap.String("path", path),
		zap.Int("documents", n),
		zap.Duration("took", time.Since(start)),
	)
	return nil
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
