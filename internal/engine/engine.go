// Package engine consolidates parsed supplier records into catalogs and
// computes rankings, margins and aggregate analytics over them.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// ErrNotParsed is returned when recalculating before any data was loaded
var ErrNotParsed = errors.New("engine: no parsed data loaded")

// State is the engine lifecycle stage
type State int

const (
	StateIdle State = iota
	StateParsed
	StateConsolidated
	StateAnalyzed
	StateSimulated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsed:
		return "parsed"
	case StateConsolidated:
		return "consolidated"
	case StateAnalyzed:
		return "analyzed"
	case StateSimulated:
		return "simulated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// JoinStrategy selects how the primary catalog is built
type JoinStrategy string

const (
	// JoinAnchorCentric keeps only barcodes listed by the anchor supplier
	JoinAnchorCentric JoinStrategy = "anchor"
	// JoinFullOuter keeps every barcode listed by any supplier
	JoinFullOuter JoinStrategy = "full"
)

// ParseJoinStrategy resolves a strategy name; "" means anchor-centric
func ParseJoinStrategy(value string) (JoinStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "anchor", "anchor-centric", "anchor_centric":
		return JoinAnchorCentric, nil
	case "full", "full-outer", "full_outer", "outer":
		return JoinFullOuter, nil
	default:
		return "", fmt.Errorf("unknown join strategy %q", value)
	}
}

// RawData is the parsed records of each supplier
type RawData map[types.SupplierID][]*types.SupplierRecord

// Suppliers returns the suppliers present, in declaration order
func (d RawData) Suppliers() []types.SupplierID {
	ids := make([]types.SupplierID, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if oi, oj := ids[i].Order(), ids[j].Order(); oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// RecordCount returns the total number of records
func (d RawData) RecordCount() int {
	n := 0
	for _, records := range d {
		n += len(records)
	}
	return n
}

// Option configures an Engine
type Option func(*Engine)

// WithAnchor sets the anchor supplier for anchor-centric joins
func WithAnchor(anchor types.SupplierID) Option {
	return func(e *Engine) {
		e.anchor = anchor
	}
}

// Engine holds one session's parsed data and the catalogs derived from it.
// It is not safe for concurrent use.
type Engine struct {
	anchor    types.SupplierID
	state     State
	raw       RawData
	strategy  JoinStrategy
	marginPct float64
	primary   *catalog.Catalog
	universal *catalog.Catalog
	summary   *Summary
}

// New creates an idle engine
func New(opts ...Option) *Engine {
	e := &Engine{
		anchor:    types.SupplierDroactiva,
		strategy:  JoinAnchorCentric,
		primary:   catalog.New(),
		universal: catalog.New(),
		summary:   &Summary{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadRaw retains parsed records for later recalculation
func (e *Engine) LoadRaw(data RawData) {
	e.raw = data
	e.state = StateParsed
	e.primary = catalog.New()
	e.universal = catalog.New()
	e.summary = &Summary{}
}

// Process loads data and runs consolidation, analysis and simulation once
func (e *Engine) Process(data RawData, marginPct float64, strategy JoinStrategy) error {
	e.LoadRaw(data)
	return e.Recalculate(marginPct, strategy)
}

// Recalculate rebuilds the catalogs from the retained raw data without
// parsing again
func (e *Engine) Recalculate(marginPct float64, strategy JoinStrategy) error {
	if e.state < StateParsed {
		return ErrNotParsed
	}
	if strategy == "" {
		strategy = JoinAnchorCentric
	}
	if strategy != JoinAnchorCentric && strategy != JoinFullOuter {
		return fmt.Errorf("unknown join strategy %q", strategy)
	}

	e.strategy = strategy
	e.marginPct = marginPct

	e.consolidate()
	e.state = StateConsolidated

	e.summary = e.analyze()
	e.state = StateAnalyzed

	e.simulate(marginPct)
	e.state = StateSimulated

	log.Debug().
		Str("strategy", string(strategy)).
		Str("anchor", string(e.anchor)).
		Int("primary", e.primary.Len()).
		Int("universal", e.universal.Len()).
		Float64("marginPct", marginPct).
		Msg("Engine recalculated")

	return nil
}

func (e *Engine) consolidate() {
	if e.strategy == JoinAnchorCentric {
		e.primary = joinAnchorCentric(e.raw, e.anchor)
	} else {
		e.primary = joinFullOuter(e.raw)
	}
	e.universal = joinFullOuter(e.raw)

	fallback := longestDescriptions(e.raw)
	for _, c := range []*catalog.Catalog{e.primary, e.universal} {
		for _, entry := range c.Entries() {
			entry.FillEmptyDescription(fallback[entry.Barcode()])
			entry.ComputeCompetitiveness()
		}
	}
}

func (e *Engine) simulate(marginPct float64) {
	for _, c := range []*catalog.Catalog{e.primary, e.universal} {
		for _, entry := range c.Entries() {
			entry.SimulateMargin(marginPct)
		}
	}
}

// longestDescriptions picks, per barcode, the longest valid description
// across every supplier's raw records
func longestDescriptions(raw RawData) map[string]string {
	out := make(map[string]string)
	for _, id := range raw.Suppliers() {
		for _, r := range raw[id] {
			if r == nil || !fields.IsValidDescription(r.Description) {
				continue
			}
			if utf8.RuneCountInString(r.Description) > utf8.RuneCountInString(out[r.Barcode]) {
				out[r.Barcode] = r.Description
			}
		}
	}
	return out
}

func (e *Engine) State() State                { return e.state }
func (e *Engine) Anchor() types.SupplierID    { return e.anchor }
func (e *Engine) Strategy() JoinStrategy      { return e.strategy }
func (e *Engine) MarginPct() float64          { return e.marginPct }
func (e *Engine) Raw() RawData                { return e.raw }
func (e *Engine) Catalog() *catalog.Catalog   { return e.primary }
func (e *Engine) Universal() *catalog.Catalog { return e.universal }
