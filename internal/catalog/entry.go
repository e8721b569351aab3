package catalog

import (
	"encoding/json"
	"sort"
	"unicode/utf8"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/types"
)

// RankedPrice is one supplier's place in an entry's price ranking
type RankedPrice struct {
	Supplier types.SupplierID `json:"supplier"`
	NetPrice float64          `json:"netPrice"`
	Position int              `json:"position"`
}

// Entry is the consolidated view of one barcode across suppliers.
//
// The ranking and margin fields are derived from the per-supplier records
// and the last simulated margin. They are rewritten only by
// ComputeCompetitiveness and SimulateMargin.
type Entry struct {
	barcode          string
	description      string
	descFromPriority bool
	prices           map[types.SupplierID]*types.SupplierRecord

	ranked             []RankedPrice
	positions          map[types.SupplierID]int
	winner             types.SupplierID
	loser              types.SupplierID
	bestPrice          float64
	diffPct            float64
	marginPct          float64
	simulatedSalePrice float64
	simulatedMargin    float64
}

// NewEntry creates an empty entry for barcode
func NewEntry(barcode string) *Entry {
	return &Entry{
		barcode:   barcode,
		prices:    make(map[types.SupplierID]*types.SupplierRecord),
		positions: make(map[types.SupplierID]int),
	}
}

// Add attaches a supplier record, replacing any earlier record from the same
// supplier, and arbitrates the entry description:
//  1. a valid description from a priority supplier always wins
//  2. otherwise a valid description fills an invalid one
//  3. otherwise a strictly longer description replaces one that did not
//     come from a priority supplier
func (e *Entry) Add(r *types.SupplierRecord) {
	e.prices[r.Supplier] = r

	incoming := r.Description
	if !fields.IsValidDescription(incoming) {
		return
	}

	switch {
	case config.HasDescriptionPriority(r.Supplier):
		e.description = incoming
		e.descFromPriority = true
	case !fields.IsValidDescription(e.description):
		e.description = incoming
		e.descFromPriority = false
	case utf8.RuneCountInString(incoming) > utf8.RuneCountInString(e.description) && !e.descFromPriority:
		e.description = incoming
	}
}

// FillEmptyDescription adopts fallback when the current description is
// invalid
func (e *Entry) FillEmptyDescription(fallback string) {
	if !fields.IsValidDescription(e.description) && fields.IsValidDescription(fallback) {
		e.description = fallback
		e.descFromPriority = false
	}
}

// ComputeCompetitiveness ranks suppliers by ascending net price. Suppliers
// without a positive net price are not ranked. Equal prices keep supplier
// declaration order.
func (e *Entry) ComputeCompetitiveness() {
	e.ranked = e.ranked[:0]
	e.positions = make(map[types.SupplierID]int, len(e.prices))
	e.winner = ""
	e.loser = ""
	e.bestPrice = 0
	e.diffPct = 0

	for _, id := range e.Suppliers() {
		if net := e.prices[id].NetPrice; net > 0 {
			e.ranked = append(e.ranked, RankedPrice{Supplier: id, NetPrice: net})
		}
	}
	if len(e.ranked) == 0 {
		e.applyMargin()
		return
	}

	sort.SliceStable(e.ranked, func(i, j int) bool {
		return e.ranked[i].NetPrice < e.ranked[j].NetPrice
	})

	for i := range e.ranked {
		e.ranked[i].Position = i + 1
		e.positions[e.ranked[i].Supplier] = i + 1
	}

	e.bestPrice = e.ranked[0].NetPrice
	e.winner = e.ranked[0].Supplier
	if n := len(e.ranked); n >= 2 {
		e.loser = e.ranked[n-1].Supplier
		e.diffPct = (e.ranked[1].NetPrice - e.bestPrice) / e.bestPrice * 100
	}
	e.applyMargin()
}

// SimulateMargin prices the entry for resale at marginPct over the best
// price. Entries without a best price have no simulated sale.
func (e *Entry) SimulateMargin(marginPct float64) {
	e.marginPct = marginPct
	e.applyMargin()
}

func (e *Entry) applyMargin() {
	if e.bestPrice <= 0 {
		e.simulatedSalePrice = 0
		e.simulatedMargin = 0
		return
	}
	e.simulatedSalePrice = e.bestPrice * (1 + e.marginPct/100)
	e.simulatedMargin = e.simulatedSalePrice - e.bestPrice
}

// Suppliers returns the suppliers with a record, in declaration order
func (e *Entry) Suppliers() []types.SupplierID {
	ids := make([]types.SupplierID, 0, len(e.prices))
	for id := range e.prices {
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

func (e *Entry) Barcode() string     { return e.barcode }
func (e *Entry) Description() string { return e.description }

// Record returns the supplier's record, or nil
func (e *Entry) Record(s types.SupplierID) *types.SupplierRecord {
	return e.prices[s]
}

// Has reports whether the supplier has a record for this barcode
func (e *Entry) Has(s types.SupplierID) bool {
	_, ok := e.prices[s]
	return ok
}

func (e *Entry) BasePriceFor(s types.SupplierID) float64 {
	if r := e.prices[s]; r != nil {
		return r.BasePrice
	}
	return 0
}

func (e *Entry) OfferPctFor(s types.SupplierID) float64 {
	if r := e.prices[s]; r != nil {
		return r.OfferPct
	}
	return 0
}

func (e *Entry) NetPriceFor(s types.SupplierID) float64 {
	if r := e.prices[s]; r != nil {
		return r.NetPrice
	}
	return 0
}

func (e *Entry) StockFor(s types.SupplierID) int {
	if r := e.prices[s]; r != nil {
		return r.Stock
	}
	return 0
}

// PositionFor returns the 1-based rank of the supplier, or 0 when unranked
func (e *Entry) PositionFor(s types.SupplierID) int {
	return e.positions[s]
}

// SupplierCount counts suppliers offering a positive net price
func (e *Entry) SupplierCount() int {
	n := 0
	for _, r := range e.prices {
		if r.NetPrice > 0 {
			n++
		}
	}
	return n
}

// BestDiscountSupplier returns the supplier with the deepest offer, or ""
// when no supplier discounts this product
func (e *Entry) BestDiscountSupplier() types.SupplierID {
	var best types.SupplierID
	bestOffer := 0.0
	for _, id := range e.Suppliers() {
		if offer := e.prices[id].OfferPct; offer > bestOffer {
			bestOffer = offer
			best = id
		}
	}
	return best
}

// Ranked returns a copy of the price ranking
func (e *Entry) Ranked() []RankedPrice {
	out := make([]RankedPrice, len(e.ranked))
	copy(out, e.ranked)
	return out
}

func (e *Entry) BestPrice() float64          { return e.bestPrice }
func (e *Entry) Winner() types.SupplierID    { return e.winner }
func (e *Entry) Loser() types.SupplierID     { return e.loser }
func (e *Entry) DiffPct() float64            { return e.diffPct }
func (e *Entry) SimulatedSalePrice() float64 { return e.simulatedSalePrice }
func (e *Entry) SimulatedMargin() float64    { return e.simulatedMargin }

// HasWinner reports whether at least one supplier is ranked
func (e *Entry) HasWinner() bool { return e.winner != "" }

// HasLoser reports whether the entry has two or more ranked suppliers
func (e *Entry) HasLoser() bool { return e.loser != "" }

// EntryView is the serialized form of an Entry
type EntryView struct {
	Barcode            string                                     `json:"barcode"`
	Description        string                                     `json:"description"`
	Prices             map[types.SupplierID]*types.SupplierRecord `json:"prices"`
	Ranked             []RankedPrice                              `json:"ranked"`
	Winner             types.SupplierID                           `json:"winner,omitempty"`
	Loser              types.SupplierID                           `json:"loser,omitempty"`
	BestPrice          float64                                    `json:"bestPrice"`
	DiffPct            float64                                    `json:"diffPct"`
	SupplierCount      int                                        `json:"supplierCount"`
	SimulatedSalePrice float64                                    `json:"simulatedSalePrice"`
	SimulatedMargin    float64                                    `json:"simulatedMargin"`
}

// View returns a serializable snapshot of the entry
func (e *Entry) View() EntryView {
	prices := make(map[types.SupplierID]*types.SupplierRecord, len(e.prices))
	for id, r := range e.prices {
		prices[id] = r
	}
	return EntryView{
		Barcode:            e.barcode,
		Description:        e.description,
		Prices:             prices,
		Ranked:             e.Ranked(),
		Winner:             e.winner,
		Loser:              e.loser,
		BestPrice:          fields.Round2(e.bestPrice),
		DiffPct:            fields.Round2(e.diffPct),
		SupplierCount:      e.SupplierCount(),
		SimulatedSalePrice: fields.Round2(e.simulatedSalePrice),
		SimulatedMargin:    fields.Round2(e.simulatedMargin),
	}
}

// MarshalJSON encodes the entry through its view
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.View())
}
