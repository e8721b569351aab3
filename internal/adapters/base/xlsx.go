package base

import (
	"fmt"
	"regexp"

	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/parsers/xlsx"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
)

// XlsxAdapterConfig contains configuration for XLSX-based supplier adapters
type XlsxAdapterConfig struct {
	BaseAdapterConfig
	Schema        header.Schema
	ParserOptions *xlsx.XlsxParserOptions
}

// BaseXlsxAdapter provides common XLSX parsing logic
type BaseXlsxAdapter struct {
	*BaseSupplierAdapter
	xlsxParser *xlsx.Parser
	schema     header.Schema
}

// NewBaseXlsxAdapter creates a new base XLSX adapter
func NewBaseXlsxAdapter(cfg XlsxAdapterConfig) (*BaseXlsxAdapter, error) {
	if cfg.FileExtensionPattern == nil {
		cfg.FileExtensionPattern = regexp.MustCompile(`(?i)\.xlsx?$`)
	}
	if cfg.DefaultStock == 0 {
		cfg.DefaultStock = 1
	}

	base, err := NewBaseSupplierAdapter(cfg.BaseAdapterConfig)
	if err != nil {
		return nil, err
	}

	options := xlsx.DefaultOptions()
	if cfg.ParserOptions != nil {
		options = *cfg.ParserOptions
	}

	schema := cfg.Schema
	if schema.MaxRows == 0 {
		schema.MaxRows = cfg.SupplierConfig.HeaderScanRows
	}
	if schema.Name == "" {
		schema.Name = cfg.Name
	}

	return &BaseXlsxAdapter{
		BaseSupplierAdapter: base,
		xlsxParser:          xlsx.NewParser(options),
		schema:              schema,
	}, nil
}

// Schema returns the header schema used to locate columns
func (a *BaseXlsxAdapter) Schema() header.Schema {
	return a.schema
}

// Parse parses workbook content into supplier records
func (a *BaseXlsxAdapter) Parse(content []byte, filename string) (*types.ParseResult, error) {
	sheet, err := a.xlsxParser.Open(content)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", a.Name(), filename, err)
	}
	defer func() {
		if cerr := sheet.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("file", filename).Msg("Failed to close workbook")
		}
	}()

	m, err := header.Detect(sheet, a.schema)
	if err != nil {
		return nil, err
	}

	return a.ExtractRecords(sheet, m), nil
}
