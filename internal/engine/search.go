package engine

import (
	"sort"
	"strings"

	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/types"
)

// isGap reports whether target lacks stock of a product that another
// supplier has in stock
func isGap(entry *catalog.Entry, target types.SupplierID) bool {
	if entry.Has(target) && entry.StockFor(target) > 0 {
		return false
	}
	for _, id := range entry.Suppliers() {
		if id != target && entry.StockFor(id) > 0 {
			return true
		}
	}
	return false
}

// GapProducts returns universal catalog entries that target has no stock
// of while some other supplier does
func (e *Engine) GapProducts(target types.SupplierID) []*catalog.Entry {
	out := make([]*catalog.Entry, 0)
	for _, entry := range e.universal.Entries() {
		if isGap(entry, target) {
			out = append(out, entry)
		}
	}
	return out
}

// GapSummaryBySupplier counts, per other supplier, the gap products it has
// in stock
func (e *Engine) GapSummaryBySupplier(target types.SupplierID) map[types.SupplierID]int {
	out := make(map[types.SupplierID]int)
	for _, entry := range e.GapProducts(target) {
		for _, id := range entry.Suppliers() {
			if id != target && entry.StockFor(id) > 0 {
				out[id]++
			}
		}
	}
	return out
}

// GapUnits sums, per other supplier, the units it holds of gap products
func (e *Engine) GapUnits(target types.SupplierID) map[types.SupplierID]int {
	out := make(map[types.SupplierID]int)
	for _, entry := range e.GapProducts(target) {
		for _, id := range entry.Suppliers() {
			if id != target && entry.StockFor(id) > 0 {
				out[id] += entry.StockFor(id)
			}
		}
	}
	return out
}

// CheapestByMolecule searches the universal catalog for entries whose
// description contains every whitespace-separated token of keyword. Matches
// are ordered by ascending best price; unpriced entries come last.
func (e *Engine) CheapestByMolecule(keyword string) []*catalog.Entry {
	tokens := strings.Fields(fields.FoldHeader(keyword))
	out := make([]*catalog.Entry, 0)
	if len(tokens) == 0 {
		return out
	}

	for _, entry := range e.universal.Entries() {
		if matchesAll(fields.FoldHeader(entry.Description()), tokens) {
			out = append(out, entry)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].BestPrice(), out[j].BestPrice()
		switch {
		case pi <= 0:
			return false
		case pj <= 0:
			return true
		default:
			return pi < pj
		}
	})
	return out
}

func matchesAll(text string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[types.SupplierID]int) []types.SupplierID {
	ids := make([]types.SupplierID, 0, len(m))
	for id := range m {
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
