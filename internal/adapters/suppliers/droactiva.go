package suppliers

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

// Exact column names shared by the CSV exports
const (
	colDescription = "DESCRIPCION"
	colBarcode     = "BARRA"
	colPriceUSD    = "PRECIO(USD)"
	colNetUSD      = "NETO(USD)"
	colStock       = "EXISTENCIA"
	colVat         = "IVA"
	colDiscount    = "DA(%)"
)

// droactivaSchema maps the Droactiva CSV header
var droactivaSchema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldDescription, Match: header.Equals(colDescription)},
		{Field: header.FieldBarcode, Match: header.Equals(colBarcode)},
		{Field: header.FieldPrice, Match: header.Equals(colPriceUSD)},
		{Field: header.FieldStock, Match: header.Equals(colStock)},
		{Field: header.FieldVat, Match: header.Equals(colVat)},
		{Field: header.FieldDiscount, Match: header.Equals(colDiscount)},
	},
	Required: []string{header.FieldBarcode, header.FieldPrice},
	Keywords: []string{colBarcode, colPriceUSD},
}

// DroactivaAdapter parses Droactiva semicolon CSV exports.
// Base price is PRECIO(USD) and the offer is DA(%).
type DroactivaAdapter struct {
	*base.BaseCsvAdapter
}

// NewDroactivaAdapter creates a new Droactiva adapter
func NewDroactivaAdapter() (*DroactivaAdapter, error) {
	supplierConfig := config.SupplierConfigs[types.SupplierDroactiva]

	adapterConfig := base.CsvAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       types.SupplierDroactiva,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeCSV},
			SupplierConfig: supplierConfig,
			Pricing:        droactivaPricing,
		},
		Schema: droactivaSchema,
	}

	baseAdapter, err := base.NewBaseCsvAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base CSV adapter: %w", err)
	}

	return &DroactivaAdapter{
		BaseCsvAdapter: baseAdapter,
	}, nil
}

func droactivaPricing(row base.Row) (float64, float64) {
	return row.Decimal(header.FieldPrice), row.Decimal(header.FieldDiscount)
}
