package base

import (
	"fmt"
	"regexp"

	"github.com/farmaintel/price-service/internal/parsers/csv"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

// CsvAdapterConfig contains configuration for CSV-based supplier adapters
type CsvAdapterConfig struct {
	BaseAdapterConfig
	Schema header.Schema
}

// BaseCsvAdapter provides common CSV parsing logic
type BaseCsvAdapter struct {
	*BaseSupplierAdapter
	csvParser *csv.Parser
	schema    header.Schema
}

// NewBaseCsvAdapter creates a new base CSV adapter
func NewBaseCsvAdapter(cfg CsvAdapterConfig) (*BaseCsvAdapter, error) {
	if cfg.FileExtensionPattern == nil {
		cfg.FileExtensionPattern = regexp.MustCompile(`(?i)\.csv$`)
	}

	base, err := NewBaseSupplierAdapter(cfg.BaseAdapterConfig)
	if err != nil {
		return nil, err
	}

	if cfg.SupplierConfig.CSV == nil {
		return nil, &AdapterError{
			Supplier: cfg.Name,
			Msg:      "CSV adapter requires CSV configuration",
		}
	}

	csvConfig := cfg.SupplierConfig.CSV
	parserOptions := csv.CsvParserOptions{
		Delimiter: csvConfig.Delimiter,
		Encoding:  csvConfig.Encoding,
		QuoteChar: '"',
	}

	schema := cfg.Schema
	if schema.MaxRows == 0 {
		schema.MaxRows = cfg.SupplierConfig.HeaderScanRows
	}
	if schema.Name == "" {
		schema.Name = cfg.Name
	}

	return &BaseCsvAdapter{
		BaseSupplierAdapter: base,
		csvParser:           csv.NewParser(parserOptions),
		schema:              schema,
	}, nil
}

// Parse parses CSV content into supplier records
func (a *BaseCsvAdapter) Parse(content []byte, filename string) (*types.ParseResult, error) {
	rows, err := a.csvParser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", a.Name(), filename, err)
	}

	m, err := header.Detect(rows, a.schema)
	if err != nil {
		return nil, err
	}

	return a.ExtractRecords(rows, m), nil
}
