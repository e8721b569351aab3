package base

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// SupplierParser is the contract for all supplier price list parsers.
// Parse fails only when the file cannot be read or its header row cannot
// be located; bad rows are skipped and reported in the result.
type SupplierParser interface {
	Supplier() types.SupplierID
	Name() string
	SupportedTypes() []types.FileType
	AcceptsFile(filename string) bool
	Parse(content []byte, filename string) (*types.ParseResult, error)
}

// PriceFunc reads the base price and offer percentage from a data row
type PriceFunc func(row Row) (basePrice, offerPct float64)

// BaseAdapterConfig contains configuration for base supplier adapter
type BaseAdapterConfig struct {
	Supplier             types.SupplierID
	Name                 string
	SupportedTypes       []types.FileType
	SupplierConfig       config.SupplierConfig
	FileExtensionPattern *regexp.Regexp
	Pricing              PriceFunc
	// DefaultStock is used when the file has no stock column
	DefaultStock int
}

// BaseSupplierAdapter provides common implementations for all supplier adapters
type BaseSupplierAdapter struct {
	supplier             types.SupplierID
	name                 string
	supportedTypes       []types.FileType
	config               config.SupplierConfig
	fileExtensionPattern *regexp.Regexp
	pricing              PriceFunc
	defaultStock         int
}

// NewBaseSupplierAdapter creates a new base supplier adapter
func NewBaseSupplierAdapter(cfg BaseAdapterConfig) (*BaseSupplierAdapter, error) {
	if len(cfg.SupportedTypes) == 0 {
		return nil, &AdapterError{Supplier: cfg.Name, Msg: "SupportedTypes cannot be empty"}
	}
	if cfg.Pricing == nil {
		return nil, &AdapterError{Supplier: cfg.Name, Msg: "Pricing function is required"}
	}

	fileExtensionPattern := cfg.FileExtensionPattern
	if fileExtensionPattern == nil {
		fileExtensionPattern = regexp.MustCompile(`(?i)\.(csv|xlsx)$`)
	}

	return &BaseSupplierAdapter{
		supplier:             cfg.Supplier,
		name:                 cfg.Name,
		supportedTypes:       cfg.SupportedTypes,
		config:               cfg.SupplierConfig,
		fileExtensionPattern: fileExtensionPattern,
		pricing:              cfg.Pricing,
		defaultStock:         cfg.DefaultStock,
	}, nil
}

// Supplier returns the supplier id
func (a *BaseSupplierAdapter) Supplier() types.SupplierID {
	return a.supplier
}

// Name returns the supplier display name
func (a *BaseSupplierAdapter) Name() string {
	return a.name
}

// SupportedTypes returns supported file types
func (a *BaseSupplierAdapter) SupportedTypes() []types.FileType {
	return a.supportedTypes
}

// Config returns the supplier configuration
func (a *BaseSupplierAdapter) Config() config.SupplierConfig {
	return a.config
}

// AcceptsFile reports whether filename has an extension this adapter reads
func (a *BaseSupplierAdapter) AcceptsFile(filename string) bool {
	return a.fileExtensionPattern.MatchString(filename)
}

// ExtractRecords walks every data row below the header match
func (a *BaseSupplierAdapter) ExtractRecords(g header.Grid, m *header.Match) *types.ParseResult {
	result := types.NewParseResult(a.supplier)
	result.HeaderRow = m.Row

	if m.PriceInferred {
		result.Warn(fmt.Sprintf("price column inferred from data at index %d", m.Index(header.FieldPrice)), types.StringPtr(header.FieldPrice))
	} else if !m.Has(header.FieldPrice) {
		result.Warn("price column not found; every row will be skipped", types.StringPtr(header.FieldPrice))
	}

	for r := m.Row + 1; r < g.NumRows(); r++ {
		if isBlankRow(g, r) {
			continue
		}
		result.Add(a.extractRow(Row{grid: g, index: r, match: m}))
	}

	log.Debug().
		Str("supplier", string(a.supplier)).
		Int("headerRow", m.Row).
		Str("columns", m.Describe()).
		Int("valid", result.ValidRows).
		Int("skipped", len(result.Skipped)).
		Msg("Extracted supplier records")

	return result
}

// extractRow builds a record from one row. Malformed cells may panic in
// supplier pricing code; the row is then skipped.
func (a *BaseSupplierAdapter) extractRow(row Row) (outcome types.RowOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = types.Skipped(row.Number(), types.SkipMalformedRow, fmt.Sprint(rec))
		}
	}()

	barcode := fields.CleanBarcode(row.Text(header.FieldBarcode))
	if barcode == "" {
		return types.Skipped(row.Number(), types.SkipEmptyBarcode, "")
	}

	basePrice, offerPct := a.pricing(row)
	if offerPct < 0 {
		offerPct = 0
	}

	stock := a.defaultStock
	if row.Has(header.FieldStock) {
		stock = fields.ParseStock(row.Text(header.FieldStock))
	}
	if stock < 0 {
		stock = 0
	}

	record := types.NewSupplierRecord(
		a.supplier,
		barcode,
		fields.CleanDescription(row.Text(header.FieldDescription)),
		basePrice,
		offerPct,
		stock,
	)
	if record.BasePrice <= 0 || record.NetPrice <= 0 {
		return types.Skipped(row.Number(), types.SkipNonPositivePrice, row.Text(header.FieldPrice))
	}

	record.VatPct = fields.ParseVat(row.Text(header.FieldVat))
	record.RowNumber = row.Number()
	return types.Parsed(record)
}

func isBlankRow(g header.Grid, r int) bool {
	for c := 0; c < g.Width(r); c++ {
		if strings.TrimSpace(g.Text(r, c)) != "" {
			return false
		}
	}
	return true
}

// AdapterError represents an adapter-specific error
type AdapterError struct {
	Supplier string
	Msg      string
}

func (e *AdapterError) Error() string {
	return e.Supplier + ": " + e.Msg
}
