package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"society/admin-service/internal/config"
	"society/admin-service/internal/entities"
	"society/admin-service/internal/forms"
	"society/admin-service/internal/httpapi"
	"society/admin-service/internal/store"
	"society/admin-service/internal/store/memory"
	"society/admin-service/internal/store/postgres"
	"society/admin-service/internal/telemetry"
	"society/admin-service/internal/theme"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(config.Path(flag.CommandLine, os.Args[1:]))
	if err != nil {
		logger.Fatalw("config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.Tracing, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	catalog := store.DefaultCatalog()
	var dataStore store.Store
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warnw("using in-memory store, data is not persisted")
		dataStore = memory.NewStore(catalog)
	default:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			logger.Fatalw("db connect", "error", err)
		}
		defer pool.Close()
		dataStore = postgres.NewStore(pool, catalog)
	}

	var themeBackend theme.Backend = theme.NewMemoryBackend()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnw("redis ping failed, themes will load once it is reachable", "addr", cfg.Redis.Addr, "error", err)
		}
		themeBackend = theme.NewRedisBackend(client)
	}

	registry, err := entities.Default(forms.NewBinder(), cfg.Table.PageSize)
	if err != nil {
		logger.Fatalw("entities", "error", err)
	}

	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:     cfg.RateLimit.PerMinute,
		IPBurst:         cfg.RateLimit.Burst,
		TenantPerMinute: cfg.RateLimit.TenantPerMinute,
		TenantBurst:     cfg.RateLimit.TenantBurst,
	})
	go limiter.Run(ctx, 5*time.Minute)

	handler := httpapi.NewHandler(httpapi.Options{
		Store:          dataStore,
		Catalog:        catalog,
		Entities:       registry,
		Themes:         theme.NewStore(themeBackend, logger),
		Logger:         logger,
		Middlewares:    []func(http.Handler) http.Handler{httpapi.LoggingMiddleware(logger), limiter.Middleware},
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(handler.Routes(), cfg.Tracing.ServiceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Infow("admin-service listening", "addr", server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown error", "error", err)
	}
}
