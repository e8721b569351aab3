package engine

import (
	"github.com/farmaintel/price-service/internal/types"
)

// SupplierStats aggregates one supplier's records in the primary catalog
type SupplierStats struct {
	Supplier   types.SupplierID `json:"supplier"`
	Products   int              `json:"products"`
	Wins       int              `json:"wins"`
	Losses     int              `json:"losses"`
	TotalStock int              `json:"totalStock"`
	OfferCount int              `json:"offerCount"`
	// AvgNetPrice averages net prices above zero
	AvgNetPrice float64 `json:"avgNetPrice"`
	// AvgBasePrice and AvgOfferNetPrice average records priced on both
	AvgBasePrice     float64 `json:"avgBasePrice"`
	AvgOfferNetPrice float64 `json:"avgOfferNetPrice"`
	// AvgOfferPct averages the offer of discounted records only
	AvgOfferPct float64 `json:"avgOfferPct"`

	netSum      float64
	netN        float64
	baseSum     float64
	offerNetSum float64
	baseNetN    float64
	offerPctSum float64
}

// BaseVsNet is the average list and net price of a supplier
type BaseVsNet struct {
	AvgBase float64 `json:"avgBase"`
	AvgNet  float64 `json:"avgNet"`
}

// Summary is the aggregate view of the primary catalog
type Summary struct {
	TotalProducts      int              `json:"totalProducts"`
	ComparableProducts int              `json:"comparableProducts"`
	Suppliers          []SupplierStats  `json:"suppliers"`
	MostWins           types.SupplierID `json:"mostWins,omitempty"`
	MostLosses         types.SupplierID `json:"mostLosses,omitempty"`
	BestAvgDiscount    types.SupplierID `json:"bestAvgDiscount,omitempty"`
	WorstAvgDiscount   types.SupplierID `json:"worstAvgDiscount,omitempty"`
}

// Stats returns the stats of one supplier
func (s *Summary) Stats(id types.SupplierID) (SupplierStats, bool) {
	for _, st := range s.Suppliers {
		if st.Supplier == id {
			return st, true
		}
	}
	return SupplierStats{}, false
}

// analyze computes every aggregate in a single pass over the primary
// catalog
func (e *Engine) analyze() *Summary {
	ids := e.raw.Suppliers()
	stats := make(map[types.SupplierID]*SupplierStats, len(ids))
	for _, id := range ids {
		stats[id] = &SupplierStats{Supplier: id}
	}
	get := func(id types.SupplierID) *SupplierStats {
		st, ok := stats[id]
		if !ok {
			st = &SupplierStats{Supplier: id}
			stats[id] = st
			ids = append(ids, id)
		}
		return st
	}

	summary := &Summary{}
	for _, entry := range e.primary.Entries() {
		summary.TotalProducts++
		if entry.SupplierCount() >= 2 {
			summary.ComparableProducts++
		}
		if entry.HasWinner() {
			get(entry.Winner()).Wins++
		}
		if entry.HasLoser() {
			get(entry.Loser()).Losses++
		}
		for _, id := range entry.Suppliers() {
			accumulate(get(id), entry.Record(id))
		}
	}

	summary.Suppliers = make([]SupplierStats, 0, len(ids))
	for _, id := range ids {
		st := stats[id]
		finalize(st)
		summary.Suppliers = append(summary.Suppliers, *st)
	}

	summary.MostWins = pick(summary.Suppliers, func(st SupplierStats) (float64, bool) {
		return float64(st.Wins), st.Wins > 0
	}, true)
	summary.MostLosses = pick(summary.Suppliers, func(st SupplierStats) (float64, bool) {
		return float64(st.Losses), st.Losses > 0
	}, true)
	summary.BestAvgDiscount = pick(summary.Suppliers, func(st SupplierStats) (float64, bool) {
		return st.AvgOfferPct, st.OfferCount > 0
	}, true)
	summary.WorstAvgDiscount = pick(summary.Suppliers, func(st SupplierStats) (float64, bool) {
		return st.AvgOfferPct, st.OfferCount > 0
	}, false)

	return summary
}

func accumulate(st *SupplierStats, r *types.SupplierRecord) {
	st.Products++
	st.TotalStock += r.Stock
	if r.HasDiscount() {
		st.OfferCount++
		st.offerPctSum += r.OfferPct
	}
	if r.NetPrice > 0 {
		st.netSum += r.NetPrice
		st.netN++
	}
	if r.BasePrice > 0 && r.NetPrice > 0 {
		st.baseSum += r.BasePrice
		st.offerNetSum += r.NetPrice
		st.baseNetN++
	}
}

func finalize(st *SupplierStats) {
	if st.netN > 0 {
		st.AvgNetPrice = st.netSum / st.netN
	}
	if st.baseNetN > 0 {
		st.AvgBasePrice = st.baseSum / st.baseNetN
		st.AvgOfferNetPrice = st.offerNetSum / st.baseNetN
	}
	if st.OfferCount > 0 {
		st.AvgOfferPct = st.offerPctSum / float64(st.OfferCount)
	}
}

// pick returns the supplier with the highest (or lowest) eligible value;
// ties keep the earlier supplier
func pick(stats []SupplierStats, value func(SupplierStats) (float64, bool), highest bool) types.SupplierID {
	var best types.SupplierID
	var bestValue float64
	found := false
	for _, st := range stats {
		v, ok := value(st)
		if !ok {
			continue
		}
		if !found || (highest && v > bestValue) || (!highest && v < bestValue) {
			best, bestValue, found = st.Supplier, v, true
		}
	}
	return best
}

// Summary returns the aggregates computed by the last recalculation
func (e *Engine) Summary() *Summary {
	return e.summary
}

// AveragePriceBySupplier returns the average positive net price per supplier
func (e *Engine) AveragePriceBySupplier() map[types.SupplierID]float64 {
	out := make(map[types.SupplierID]float64)
	for _, st := range e.summary.Suppliers {
		if st.netN > 0 {
			out[st.Supplier] = st.AvgNetPrice
		}
	}
	return out
}

// WinCountBySupplier returns how many products each supplier is cheapest on
func (e *Engine) WinCountBySupplier() map[types.SupplierID]int {
	return e.countBy(func(st SupplierStats) int { return st.Wins })
}

// LossCountBySupplier returns how many products each supplier is most
// expensive on
func (e *Engine) LossCountBySupplier() map[types.SupplierID]int {
	return e.countBy(func(st SupplierStats) int { return st.Losses })
}

// TotalStockBySupplier sums units per supplier
func (e *Engine) TotalStockBySupplier() map[types.SupplierID]int {
	return e.countBy(func(st SupplierStats) int { return st.TotalStock })
}

// OfferCountBySupplier counts discounted products per supplier
func (e *Engine) OfferCountBySupplier() map[types.SupplierID]int {
	return e.countBy(func(st SupplierStats) int { return st.OfferCount })
}

// BaseVsNetBySupplier returns average list and net prices per supplier
func (e *Engine) BaseVsNetBySupplier() map[types.SupplierID]BaseVsNet {
	out := make(map[types.SupplierID]BaseVsNet)
	for _, st := range e.summary.Suppliers {
		if st.baseNetN > 0 {
			out[st.Supplier] = BaseVsNet{AvgBase: st.AvgBasePrice, AvgNet: st.AvgOfferNetPrice}
		}
	}
	return out
}

func (e *Engine) countBy(value func(SupplierStats) int) map[types.SupplierID]int {
	out := make(map[types.SupplierID]int, len(e.summary.Suppliers))
	for _, st := range e.summary.Suppliers {
		out[st.Supplier] = value(st)
	}
	return out
}

func (e *Engine) SupplierWithMostWins() types.SupplierID         { return e.summary.MostWins }
func (e *Engine) SupplierWithMostLosses() types.SupplierID       { return e.summary.MostLosses }
func (e *Engine) SupplierWithBestAvgDiscount() types.SupplierID  { return e.summary.BestAvgDiscount }
func (e *Engine) SupplierWithWorstAvgDiscount() types.SupplierID { return e.summary.WorstAvgDiscount }
func (e *Engine) TotalProducts() int                             { return e.summary.TotalProducts }
func (e *Engine) ComparableProducts() int                        { return e.summary.ComparableProducts }

// Executive is the headline view shown on dashboards and in the CLI
type Executive struct {
	Summary        *Summary                 `json:"summary"`
	GapTarget      types.SupplierID         `json:"gapTarget"`
	GapCount       int                      `json:"gapCount"`
	GapBySupplier  map[types.SupplierID]int `json:"gapBySupplier"`
	TopGapSupplier types.SupplierID         `json:"topGapSupplier,omitempty"`
}

// ExecutiveSummary combines the aggregates with gap analysis against target
func (e *Engine) ExecutiveSummary(target types.SupplierID) Executive {
	gaps := e.GapSummaryBySupplier(target)
	var top types.SupplierID
	topCount := 0
	for _, id := range sortedKeys(gaps) {
		if gaps[id] > topCount {
			top, topCount = id, gaps[id]
		}
	}
	return Executive{
		Summary:        e.summary,
		GapTarget:      target,
		GapCount:       len(e.GapProducts(target)),
		GapBySupplier:  gaps,
		TopGapSupplier: top,
	}
}
