package types

// FileType represents supported file types
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypeZIP  FileType = "zip"
)

// SupplierRecord is one normalized row from one supplier price list.
// NetPrice is derived from BasePrice and OfferPct; call Recalc after
// changing either of them.
type SupplierRecord struct {
	Barcode     string     `json:"barcode"`
	Description string     `json:"description"`
	BasePrice   float64    `json:"basePrice"`
	OfferPct    float64    `json:"offerPct"`
	NetPrice    float64    `json:"netPrice"`
	Stock       int        `json:"stock"`
	Supplier    SupplierID `json:"supplier"`
	VatPct      float64    `json:"vatPct"`
	RowNumber   int        `json:"rowNumber"`
}

// NewSupplierRecord builds a record and derives its net price.
func NewSupplierRecord(supplier SupplierID, barcode, description string, basePrice, offerPct float64, stock int) *SupplierRecord {
	r := &SupplierRecord{
		Barcode:     barcode,
		Description: description,
		BasePrice:   basePrice,
		OfferPct:    offerPct,
		Stock:       stock,
		Supplier:    supplier,
	}
	r.Recalc()
	return r
}

// Recalc recomputes NetPrice from BasePrice and OfferPct.
func (r *SupplierRecord) Recalc() {
	r.NetPrice = r.BasePrice * (1 - r.OfferPct/100)
}

// HasStock reports whether the supplier has units available.
func (r *SupplierRecord) HasStock() bool {
	return r.Stock > 0
}

// HasDiscount reports whether the record carries a non-zero offer.
func (r *SupplierRecord) HasDiscount() bool {
	return r.OfferPct > 0
}

// SkipReason explains why a data row produced no record
type SkipReason string

const (
	SkipEmptyBarcode     SkipReason = "empty_barcode"
	SkipNonPositivePrice SkipReason = "non_positive_price"
	SkipMalformedRow     SkipReason = "malformed_row"
)

// SkippedRow records a dropped data row
type SkippedRow struct {
	RowNumber int        `json:"rowNumber"`
	Reason    SkipReason `json:"reason"`
	Detail    string     `json:"detail,omitempty"`
}

// RowOutcome is the result of extracting one data row: either a record or
// a skip with its reason.
type RowOutcome struct {
	Record *SupplierRecord
	Skip   *SkippedRow
}

// Parsed wraps a successfully extracted record.
func Parsed(r *SupplierRecord) RowOutcome {
	return RowOutcome{Record: r}
}

// Skipped wraps a dropped row.
func Skipped(rowNumber int, reason SkipReason, detail string) RowOutcome {
	return RowOutcome{Skip: &SkippedRow{RowNumber: rowNumber, Reason: reason, Detail: detail}}
}

// ParseWarning represents a non-fatal observation made while parsing
type ParseWarning struct {
	RowNumber *int    `json:"rowNumber,omitempty"`
	Field     *string `json:"field,omitempty"`
	Message   string  `json:"message"`
}

// ParseResult represents result of parsing one supplier file
type ParseResult struct {
	Supplier  SupplierID        `json:"supplier"`
	Records   []*SupplierRecord `json:"records"`
	Skipped   []SkippedRow      `json:"skipped,omitempty"`
	Warnings  []ParseWarning    `json:"warnings,omitempty"`
	HeaderRow int               `json:"headerRow"`
	TotalRows int               `json:"totalRows"`
	ValidRows int               `json:"validRows"`
}

// NewParseResult returns an empty result for the supplier
func NewParseResult(supplier SupplierID) *ParseResult {
	return &ParseResult{
		Supplier: supplier,
		Records:  make([]*SupplierRecord, 0),
		Skipped:  make([]SkippedRow, 0),
		Warnings: make([]ParseWarning, 0),
	}
}

// Add appends a row outcome and updates the counters
func (r *ParseResult) Add(outcome RowOutcome) {
	r.TotalRows++
	if outcome.Record != nil {
		r.Records = append(r.Records, outcome.Record)
		r.ValidRows++
		return
	}
	if outcome.Skip != nil {
		r.Skipped = append(r.Skipped, *outcome.Skip)
	}
}

// Warn records a parse warning
func (r *ParseResult) Warn(message string, field *string) {
	r.Warnings = append(r.Warnings, ParseWarning{Field: field, Message: message})
}

// SkipCounts tallies skipped rows by reason
func (r *ParseResult) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}
