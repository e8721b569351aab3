package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmaintel/price-service/config"
	"github.com/farmaintel/price-service/internal/app"
	"github.com/farmaintel/price-service/internal/handlers"
	"github.com/farmaintel/price-service/internal/metrics"
	"github.com/farmaintel/price-service/internal/middleware"
	"github.com/farmaintel/price-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.InitLogger(cfg.Logging, os.Stdout)

	logger.Info().Msg("Starting price service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Telemetry.Environment,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	sess, err := app.NewSession(cfg, metrics.NewRecorder())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize session")
	}
	handlers.InitSession(sess)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure trusted proxies")
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware(cfg.Server.APIKey))
	api.Use(middleware.RateLimitMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	}))
	handlers.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}
