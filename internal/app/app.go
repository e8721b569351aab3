// Package app assembles the session and its collaborators from configuration
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/farmaintel/price-service/config"
	"github.com/farmaintel/price-service/internal/http/ratelimit"
	"github.com/farmaintel/price-service/internal/metrics"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/ratefetch"
	"github.com/farmaintel/price-service/internal/report"
	"github.com/farmaintel/price-service/internal/session"
	"github.com/farmaintel/price-service/internal/storage"
)

// InitLogger builds the logger described by cfg and installs it as the
// global zerolog logger
func InitLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if out == nil {
		out = os.Stdout
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", "price-service").Logger()
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger
}

// RateFetcher builds the exchange rate fetcher, or nil when fetching is
// disabled
func RateFetcher(cfg config.RateConfig) *ratefetch.Fetcher {
	if !cfg.Enabled {
		return nil
	}
	limits := ratelimit.DefaultConfig()
	if cfg.RequestsPerSecond > 0 {
		limits.RequestsPerSecond = cfg.RequestsPerSecond
	}
	if cfg.MaxRetries >= 0 {
		limits.MaxRetries = cfg.MaxRetries
	}
	if cfg.InitialBackoffMs > 0 {
		limits.InitialBackoffMs = cfg.InitialBackoffMs
	}
	if cfg.MaxBackoffMs > 0 {
		limits.MaxBackoffMs = cfg.MaxBackoffMs
	}
	return ratefetch.New(ratefetch.Config{
		URL:                cfg.URL,
		Timeout:            cfg.Timeout,
		Limits:             limits,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		UserAgent:          cfg.UserAgent,
	})
}

// NewOrchestrator wires the orchestrator described by cfg. rec may be nil.
func NewOrchestrator(cfg *config.Config, rec *metrics.Recorder) (*pipeline.Orchestrator, error) {
	opts := []pipeline.Option{
		pipeline.WithExporter(report.NewExporter(cfg.Export.Dir)),
	}
	if fetcher := RateFetcher(cfg.Rate); fetcher != nil {
		opts = append(opts, pipeline.WithRateSource(fetcher))
	}
	if cfg.Storage.Enabled {
		store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		opts = append(opts, pipeline.WithStorage(store))
	}
	if rec != nil {
		opts = append(opts, pipeline.WithMetrics(rec))
	}
	return pipeline.New(opts...), nil
}

// NewSession wires a session over a new orchestrator
func NewSession(cfg *config.Config, rec *metrics.Recorder) (*session.Session, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	runner, err := NewOrchestrator(cfg, rec)
	if err != nil {
		return nil, err
	}

	var rates pipeline.RateSource
	if fetcher := RateFetcher(cfg.Rate); fetcher != nil {
		rates = fetcher
	}
	return session.New(runner, rates, settings), nil
}
