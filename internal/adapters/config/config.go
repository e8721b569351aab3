package config

import (
	"github.com/farmaintel/price-service/internal/parsers/csv"
	"github.com/farmaintel/price-service/internal/types"
)

// Currency is the currency a supplier quotes its prices in
type Currency string

const (
	CurrencyReference Currency = "USD"
	CurrencyLocal     Currency = "VES"
)

// CSVConfig contains CSV-specific configuration
type CSVConfig struct {
	Delimiter csv.CsvDelimiter `json:"delimiter"`
	Encoding  csv.CsvEncoding  `json:"encoding"`
	HasHeader bool             `json:"hasHeader"`
}

// SupplierConfig describes a supplier's price list
type SupplierConfig struct {
	ID              types.SupplierID `json:"id"`
	Name            string           `json:"name"`
	PrimaryFileType types.FileType   `json:"primaryFileType"`
	CSV             *CSVConfig       `json:"csv,omitempty"`
	Currency        Currency         `json:"currency"`
	// HeaderScanRows is how many leading rows may hold the header
	HeaderScanRows int `json:"headerScanRows"`
	// DescriptionPriority marks suppliers whose descriptions include the
	// brand or lab name
	DescriptionPriority bool `json:"descriptionPriority"`
}

var semicolonCSV = &CSVConfig{
	Delimiter: csv.DelimiterSemicolon,
	Encoding:  csv.EncodingUTF8,
	HasHeader: true,
}

// SupplierConfigs contains all supplier configurations
var SupplierConfigs = map[types.SupplierID]SupplierConfig{
	types.SupplierDroactiva: {
		ID:              types.SupplierDroactiva,
		Name:            "Droactiva",
		PrimaryFileType: types.FileTypeCSV,
		CSV:             semicolonCSV,
		Currency:        CurrencyReference,
		HeaderScanRows:  1,
	},
	types.SupplierDromarko: {
		ID:              types.SupplierDromarko,
		Name:            "Dromarko",
		PrimaryFileType: types.FileTypeCSV,
		CSV:             semicolonCSV,
		Currency:        CurrencyReference,
		HeaderScanRows:  1,
	},
	types.SupplierCobeca: {
		ID:                  types.SupplierCobeca,
		Name:                "Cobeca",
		PrimaryFileType:     types.FileTypeXLSX,
		Currency:            CurrencyReference,
		HeaderScanRows:      10,
		DescriptionPriority: true,
	},
	types.SupplierNena: {
		ID:              types.SupplierNena,
		Name:            "Nena",
		PrimaryFileType: types.FileTypeXLSX,
		Currency:        CurrencyLocal,
		HeaderScanRows:  15,
	},
	types.SupplierF24: {
		ID:                  types.SupplierF24,
		Name:                "F24",
		PrimaryFileType:     types.FileTypeXLSX,
		Currency:            CurrencyLocal,
		HeaderScanRows:      20,
		DescriptionPriority: true,
	},
	types.SupplierP365: {
		ID:              types.SupplierP365,
		Name:            "365",
		PrimaryFileType: types.FileTypeXLSX,
		Currency:        CurrencyReference,
		HeaderScanRows:  15,
	},
}

// GenericHeaderScanRows is the scan window used by the fallback parser
const GenericHeaderScanRows = 15

// GetSupplierConfig returns configuration for a specific supplier
func GetSupplierConfig(id types.SupplierID) (SupplierConfig, bool) {
	cfg, ok := SupplierConfigs[id]
	return cfg, ok
}

// Label returns the display label for a supplier, falling back to the id
func Label(id types.SupplierID) string {
	if cfg, ok := SupplierConfigs[id]; ok {
		return cfg.Name
	}
	return string(id)
}

// IsLocalCurrency reports whether the supplier quotes prices in local currency
func IsLocalCurrency(id types.SupplierID) bool {
	cfg, ok := SupplierConfigs[id]
	return ok && cfg.Currency == CurrencyLocal
}

// HasDescriptionPriority reports whether the supplier belongs to the
// description priority set
func HasDescriptionPriority(id types.SupplierID) bool {
	cfg, ok := SupplierConfigs[id]
	return ok && cfg.DescriptionPriority
}

// IsValidSupplierID checks if a string is a valid supplier ID
func IsValidSupplierID(value string) bool {
	_, err := types.ParseSupplierID(value)
	return err == nil
}
