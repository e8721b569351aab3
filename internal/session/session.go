// Package session keeps the state of one interactive user: the settings
// snapshot in effect and the result of the last processing run.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoData is returned by reads before any run completed
	ErrNoData = errors.New("no processed data, upload supplier files first")
	// ErrNoRateSource is returned by RefreshRate when fetching is disabled
	ErrNoRateSource = errors.New("exchange rate fetching is not configured")
)

// Session serializes runs and recalculations and swaps settings snapshots
// under its lock. Reads see either the previous or the next snapshot.
type Session struct {
	mu       sync.RWMutex
	runner   *pipeline.Orchestrator
	rates    pipeline.RateSource
	settings pipeline.Settings
	last     *pipeline.Result
}

// New creates a session starting from settings. rates may be nil.
func New(runner *pipeline.Orchestrator, rates pipeline.RateSource, settings pipeline.Settings) *Session {
	return &Session{
		runner:   runner,
		rates:    rates,
		settings: settings,
	}
}

// Settings returns the current snapshot
func (s *Session) Settings() pipeline.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Process runs a full pass over files with settings and makes its result
// current. A failed run leaves the previous result in place. The returned
// Result is a copy whose Settings and Summary later recalculations do not
// touch; its Engine is shared and must only be read through View.
func (s *Session) Process(ctx context.Context, files map[types.SupplierID]pipeline.Source, settings pipeline.Settings, l pipeline.Listener) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.runner.Run(ctx, files, settings, l)
	if err != nil {
		return nil, err
	}

	next := result.Settings
	next.FetchRate = false
	next.Export = false
	s.settings = next
	s.last = result
	detached := *result
	return &detached, nil
}

// Recalculate re-ranks the last run with a new margin and join strategy
// without parsing again
func (s *Session) Recalculate(marginPct float64, strategy engine.JoinStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return ErrNoData
	}
	next := s.settings.WithMargin(marginPct).WithJoinStrategy(strategy)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.last.Engine.Recalculate(marginPct, strategy); err != nil {
		return err
	}
	s.settings = next
	s.last.Settings = next
	s.last.Summary = s.last.Engine.Summary()
	return nil
}

// SetExchangeRate swaps in a snapshot with rate. It applies to the next run.
func (s *Session) SetExchangeRate(rate float64) (pipeline.Settings, error) {
	if rate <= 0 {
		return pipeline.Settings{}, fmt.Errorf("exchange rate must be positive, got %v", rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = s.settings.WithExchangeRate(rate)
	return s.settings, nil
}

// RefreshRate fetches the current exchange rate and swaps it in
func (s *Session) RefreshRate(ctx context.Context) (float64, error) {
	if s.rates == nil {
		return 0, ErrNoRateSource
	}
	rate, err := s.rates.FetchRate(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.SetExchangeRate(rate); err != nil {
		return 0, err
	}
	log.Info().Float64("rate", rate).Msg("Session exchange rate refreshed")
	return rate, nil
}

// View calls fn with the last result under the read lock. fn must not keep
// references to the engine after it returns.
func (s *Session) View(fn func(result *pipeline.Result) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return ErrNoData
	}
	return fn(s.last)
}

// HasData reports whether a run has completed
func (s *Session) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last != nil
}
