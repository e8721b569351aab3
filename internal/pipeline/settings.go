package pipeline

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/types"
)

const (
	DefaultExchangeRate = 1.0
	DefaultMarginPct    = 30.0
)

// Settings is the immutable configuration snapshot of one run. Changes
// produce a new value through the With methods.
type Settings struct {
	ExchangeRate float64             `json:"exchangeRate"`
	MarginPct    float64             `json:"marginPct"`
	JoinStrategy engine.JoinStrategy `json:"joinStrategy"`
	Anchor       types.SupplierID    `json:"anchor"`
	// FetchRate asks the rate source for a fresh exchange rate first
	FetchRate bool `json:"fetchRate"`
	// Export writes the XLSX report when an exporter is attached
	Export bool `json:"export"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		ExchangeRate: DefaultExchangeRate,
		MarginPct:    DefaultMarginPct,
		JoinStrategy: engine.JoinAnchorCentric,
		Anchor:       types.SupplierDroactiva,
	}
}

// WithExchangeRate returns a copy using rate
func (s Settings) WithExchangeRate(rate float64) Settings {
	s.ExchangeRate = rate
	return s
}

// WithMargin returns a copy using marginPct
func (s Settings) WithMargin(marginPct float64) Settings {
	s.MarginPct = marginPct
	return s
}

// WithJoinStrategy returns a copy using strategy
func (s Settings) WithJoinStrategy(strategy engine.JoinStrategy) Settings {
	s.JoinStrategy = strategy
	return s
}

// Validate checks the snapshot before a run
func (s Settings) Validate() error {
	if s.ExchangeRate < 0 {
		return fmt.Errorf("exchange rate must not be negative, got %v", s.ExchangeRate)
	}
	if s.MarginPct < 0 {
		return fmt.Errorf("margin must not be negative, got %v", s.MarginPct)
	}
	if _, err := engine.ParseJoinStrategy(string(s.JoinStrategy)); err != nil {
		return err
	}
	if s.Anchor != "" && !s.Anchor.Valid() {
		return fmt.Errorf("unknown anchor supplier %q", s.Anchor)
	}
	return nil
}
