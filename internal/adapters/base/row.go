package base

import (
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/parsers/header"
)

// Row is one data row seen through the resolved header columns
type Row struct {
	grid  header.Grid
	index int
	match *header.Match
}

// NewRow creates a row cursor; used by tests and custom adapters
func NewRow(g header.Grid, index int, m *header.Match) Row {
	return Row{grid: g, index: index, match: m}
}

// Number returns the 1-based row number in the source file
func (r Row) Number() int {
	return r.index + 1
}

// Has reports whether the field's column was resolved
func (r Row) Has(field string) bool {
	return r.match.Has(field)
}

// Text returns the raw cell for a field, or "" when the column is missing
func (r Row) Text(field string) string {
	idx := r.match.Index(field)
	if idx < 0 {
		return ""
	}
	return r.grid.Text(r.index, idx)
}

// Decimal returns a numeric cell as-is and parses text cells with
// locale-aware decimal rules
func (r Row) Decimal(field string) float64 {
	idx := r.match.Index(field)
	if idx < 0 {
		return 0
	}
	if v, ok := r.grid.Number(r.index, idx); ok {
		return v
	}
	return fields.ParseLocaleDecimal(r.grid.Text(r.index, idx))
}

// Percent parses a plain percentage column
func (r Row) Percent(field string) float64 {
	return fields.ParsePercentCell(r.Text(field))
}
