// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"anthrilo/internal/infrastructure/http/v1/handlers"
	"anthrilo/internal/infrastructure/http/v1/middleware"
	"anthrilo/internal/infrastructure/metrics"
	"anthrilo/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Service generates reports
	Service handlers.ReportGenerator

	// Cache stores rendered JSON reports; nil disables caching
	Cache handlers.ReportCache

	// Metrics instruments requests and exposes the scrape endpoint; nil disables both
	Metrics *metrics.Metrics

	// MetricsPath is where the scrape endpoint is mounted
	MetricsPath string

	// HealthChecks are pinged by the readiness probe
	HealthChecks map[string]handlers.Pinger

	// RequestTimeout bounds each request; zero disables the limit
	RequestTimeout time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	registerReportRoutes(v1, cfg)

	router.NoRoute(middleware.NoRoute())

	return router
}

// registerReportRoutes registers the report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	var opts []handlers.ReportsOption
	if cfg.Cache != nil {
		opts = append(opts, handlers.WithCache(cfg.Cache))
	}
	if cfg.Metrics != nil {
		opts = append(opts, handlers.WithCacheRecorder(cfg.Metrics))
	}

	handler := handlers.NewReportsHandler(handlers.NewBaseHandler(), cfg.Service, opts...)
	handler.RegisterRoutes(rg.Group("/reports"))
}
