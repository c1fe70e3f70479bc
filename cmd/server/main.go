package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/orderstats/internal/bootstrap"
	"github.com/erp/orderstats/internal/infrastructure/config"
	"github.com/erp/orderstats/internal/infrastructure/logger"
	"github.com/erp/orderstats/internal/infrastructure/telemetry"
	"github.com/erp/orderstats/internal/interfaces/http/handler"
	"github.com/erp/orderstats/internal/interfaces/http/middleware"
	"github.com/erp/orderstats/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry must be up before any middleware captures the global providers
	tel, err := bootstrap.SetupTelemetry(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := tel.Logger(baseLog)
	defer func() {
		_ = logger.Sync(log)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting order stats server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("dataset_source", cfg.Dataset.Source),
	)

	// Open the customer source
	src, err := bootstrap.OpenSource(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open dataset source", zap.Error(err))
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Error("Error closing dataset source", zap.Error(err))
		}
	}()

	// Summary cache
	store, err := bootstrap.NewSummaryStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to create summary cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing summary cache", zap.Error(err))
		}
	}()

	statsService, err := bootstrap.NewStatsService(cfg.Stats, src, log, tel.Meter, store)
	if err != nil {
		log.Fatal("Failed to create stats service", zap.Error(err))
	}

	healthHandler := handler.NewHealthHandler(src.Name).
		AddCheck(src.Name, src.Ping)

	engine, err := newEngine(cfg, log, tel.Meter, handler.NewStatsHandler(statsService), healthHandler)
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newEngine assembles the gin engine, middleware chain and routes.
func newEngine(
	cfg *config.Config,
	log *zap.Logger,
	meter *telemetry.MeterProvider,
	statsHandler *handler.StatsHandler,
	healthHandler *handler.HealthHandler,
) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meter,
			Enabled:       cfg.Telemetry.Enabled,
		}),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	engine.GET("/health", healthHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(statsHandler.Routes())
	r.Setup()

	return engine, nil
}
