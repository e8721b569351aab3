package header

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/farmaintel/price-service/internal/parsers/fields"
)

// Column field names shared by supplier schemas
const (
	FieldBarcode     = "barcode"
	FieldPrice       = "price"
	FieldNetPrice    = "netPrice"
	FieldDescription = "description"
	FieldStock       = "stock"
	FieldDiscount    = "discount"
	FieldVat         = "vat"
	FieldPromo       = "promo"
	FieldOffer       = "offer"
	FieldBaseOffer   = "baseOffer"
)

const (
	// InferenceRows is how many data rows below the header are sampled
	// when the price column has to be inferred
	InferenceRows     = 5
	minPlausiblePrice = 0.01
	maxPlausiblePrice = 999999
)

// ErrHeaderNotFound is wrapped by every header detection failure
var ErrHeaderNotFound = errors.New("header row not found")

// NotFoundError describes a failed header scan
type NotFoundError struct {
	Schema      string
	Keywords    []string
	ScannedRows int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: could not detect header row in first %d rows, expected columns with keywords: %s",
		e.Schema, e.ScannedRows, strings.Join(e.Keywords, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrHeaderNotFound
}

// Grid is read-only access to tabular content
type Grid interface {
	NumRows() int
	Width(row int) int
	Text(row, col int) string
	// Number returns the cell value when the cell holds a number
	Number(row, col int) (float64, bool)
}

// Matcher tests a folded (lower-case, accent-free) header cell
type Matcher func(folded string) bool

// Rule assigns a header cell to a field
type Rule struct {
	Field string
	Match Matcher
	// KeepFirst keeps the first matching column in a row; otherwise the
	// last one wins
	KeepFirst bool
}

// Schema is the set of rules used to locate a supplier's header row
type Schema struct {
	Name  string
	Rules []Rule
	// Required fields must all be found in the same row
	Required []string
	// InferPrice accepts a row holding only the barcode column and infers
	// the price column from the data below it
	InferPrice bool
	MaxRows    int
	// Keywords are quoted in the error when no header row is found
	Keywords []string
}

// Match is a located header row with resolved column indices
type Match struct {
	Row           int
	Columns       map[string]int
	PriceInferred bool
}

// Index returns the column for field, or -1 when it was not found
func (m *Match) Index(field string) int {
	if idx, ok := m.Columns[field]; ok {
		return idx
	}
	return -1
}

// Has reports whether field was resolved
func (m *Match) Has(field string) bool {
	_, ok := m.Columns[field]
	return ok
}

func (m *Match) claimed() map[int]bool {
	cols := make(map[int]bool, len(m.Columns))
	for _, idx := range m.Columns {
		cols[idx] = true
	}
	return cols
}

// Detect scans the first schema.MaxRows rows and returns the first one in
// which every required column is present. There is no scoring of
// candidates: the first satisfying row wins.
func Detect(g Grid, schema Schema) (*Match, error) {
	limit := schema.MaxRows
	if limit <= 0 || limit > g.NumRows() {
		limit = g.NumRows()
	}

	for r := 0; r < limit; r++ {
		cols := schema.scanRow(g, r)
		if schema.satisfied(cols) {
			return &Match{Row: r, Columns: cols}, nil
		}
		if _, ok := cols[FieldBarcode]; ok && schema.InferPrice {
			m := &Match{Row: r, Columns: cols}
			if idx := InferPriceColumn(g, r, m.claimed()); idx >= 0 {
				m.Columns[FieldPrice] = idx
				m.PriceInferred = true
			}
			return m, nil
		}
	}

	return nil, &NotFoundError{Schema: schema.Name, Keywords: schema.Keywords, ScannedRows: limit}
}

func (s Schema) scanRow(g Grid, r int) map[string]int {
	cols := make(map[string]int)
	for c := 0; c < g.Width(r); c++ {
		folded := fields.FoldHeader(g.Text(r, c))
		if folded == "" {
			continue
		}
		for _, rule := range s.Rules {
			if !rule.Match(folded) {
				continue
			}
			if _, seen := cols[rule.Field]; !seen || !rule.KeepFirst {
				cols[rule.Field] = c
			}
			break
		}
	}
	return cols
}

func (s Schema) satisfied(cols map[string]int) bool {
	for _, f := range s.Required {
		if _, ok := cols[f]; !ok {
			return false
		}
	}
	return len(s.Required) > 0
}

// InferPriceColumn looks at the rows just below the header for the first
// unclaimed column holding a plausible price.
func InferPriceColumn(g Grid, headerRow int, claimed map[int]bool) int {
	last := headerRow + InferenceRows
	if last >= g.NumRows() {
		last = g.NumRows() - 1
	}
	for r := headerRow + 1; r <= last; r++ {
		for c := 0; c < g.Width(r); c++ {
			if claimed[c] {
				continue
			}
			if v, ok := g.Number(r, c); ok && v > minPlausiblePrice && v < maxPlausiblePrice {
				return c
			}
		}
	}
	return -1
}

// Contains matches cells that contain every keyword
func Contains(keywords ...string) Matcher {
	return func(folded string) bool {
		for _, k := range keywords {
			if !strings.Contains(folded, k) {
				return false
			}
		}
		return true
	}
}

// Equals matches cells equal to one of the values after folding
func Equals(values ...string) Matcher {
	want := make([]string, len(values))
	for i, v := range values {
		want[i] = fields.FoldHeader(v)
	}
	return func(folded string) bool {
		for _, w := range want {
			if folded == w {
				return true
			}
		}
		return false
	}
}

// Any matches when at least one matcher does
func Any(matchers ...Matcher) Matcher {
	return func(folded string) bool {
		for _, m := range matchers {
			if m(folded) {
				return true
			}
		}
		return false
	}
}

// ContainsAny matches cells containing at least one keyword
func ContainsAny(keywords ...string) Matcher {
	return func(folded string) bool {
		for _, k := range keywords {
			if strings.Contains(folded, k) {
				return true
			}
		}
		return false
	}
}

// Describe lists resolved columns for logging
func (m *Match) Describe() string {
	names := make([]string, 0, len(m.Columns))
	for name := range m.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.Itoa(m.Columns[name])
	}
	return strings.Join(parts, " ")
}

// Rows is a Grid over plain string rows, as produced by the CSV reader
type Rows [][]string

func (r Rows) NumRows() int { return len(r) }

func (r Rows) Width(row int) int {
	if row < 0 || row >= len(r) {
		return 0
	}
	return len(r[row])
}

func (r Rows) Text(row, col int) string {
	if row < 0 || row >= len(r) || col < 0 || col >= len(r[row]) {
		return ""
	}
	return r[row][col]
}

func (r Rows) Number(row, col int) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Text(row, col)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
