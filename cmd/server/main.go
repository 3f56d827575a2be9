// Package main is the entry point for the Anthrilo reports API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"anthrilo/internal/domain/reports"
	"anthrilo/internal/infrastructure/cache"
	"anthrilo/internal/infrastructure/config"
	v1 "anthrilo/internal/infrastructure/http/v1"
	"anthrilo/internal/infrastructure/http/v1/handlers"
	"anthrilo/internal/infrastructure/metrics"
	"anthrilo/internal/infrastructure/storage/memory"
	"anthrilo/internal/infrastructure/storage/postgres"
	"anthrilo/internal/infrastructure/storage/postgres/report_repo"
	"anthrilo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.OutputPaths,
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting anthrilo reports server", "env", cfg.App.Env, "demo", cfg.IsDemo())

	settings, err := cfg.Reports.Settings()
	if err != nil {
		log.Fatalw("invalid report settings", "error", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// --- Store ---
	var (
		store  reports.Store
		checks = map[string]handlers.Pinger{}
		pool   *postgres.Pool
	)
	if cfg.IsDemo() {
		memStore, err := memory.LoadFile(cfg.App.DatasetPath)
		if err != nil {
			log.Fatalw("failed to load dataset", "path", cfg.App.DatasetPath, "error", err)
		}
		store = memStore
		checks["store"] = memStore
		log.Infow("in-memory dataset loaded", "path", cfg.App.DatasetPath)
	} else {
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		if cfg.Database.StatsInterval > 0 {
			go pool.LogStats(ctx, cfg.Database.StatsInterval)
		}
		if m != nil {
			m.RegisterPool(pool.Pool)
		}

		pgStore := report_repo.NewStore(postgres.NewTxManager(pool))
		store = pgStore
		checks["database"] = pgStore
	}

	var opts []reports.Option
	if m != nil {
		opts = append(opts, reports.WithObserver(m))
	}
	service := reports.NewService(store, settings, opts...)

	// --- Report cache ---
	var backend cache.Backend
	if cfg.Redis.URL != "" {
		redisBackend, err := cache.NewRedisBackend(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		backend = redisBackend
		checks["cache"] = redisBackend
		log.Info("redis report cache enabled")
	} else {
		backend = cache.NewMemoryBackend()
	}

	reportCache, err := cache.NewReportCache(backend, cfg.Redis.KeyPrefix, cfg.Reports.CacheTTL)
	if err != nil {
		log.Fatalw("failed to create report cache", "error", err)
	}
	defer func() { _ = reportCache.Close() }()

	if pool != nil {
		invalidator := cache.NewInvalidator(pool.Pool, reportCache)
		if m != nil {
			invalidator.OnInvalidation(m.CachePurged)
		}
		invalidator.Start(ctx)
		defer invalidator.Stop()
	}

	// --- Router ---
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Service:        service,
		Cache:          reportCache,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		HealthChecks:   checks,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
