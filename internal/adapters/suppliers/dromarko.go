package suppliers

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

// dromarkoSchema maps the Dromarko CSV header:
// DESCRIPCION; MARCA; CODIGO; EXISTENCIA; IVA; PRECIO(USD); PRECIO; DA(%);
// ...; NETO(USD); NETO; BARRA; TASA; FECHVENC
var dromarkoSchema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldDescription, Match: header.Equals(colDescription)},
		{Field: header.FieldBarcode, Match: header.Equals(colBarcode)},
		{Field: header.FieldPrice, Match: header.Equals(colPriceUSD)},
		{Field: header.FieldNetPrice, Match: header.Equals(colNetUSD)},
		{Field: header.FieldStock, Match: header.Equals(colStock)},
		{Field: header.FieldVat, Match: header.Equals(colVat)},
		{Field: header.FieldDiscount, Match: header.Equals(colDiscount)},
	},
	Required: []string{header.FieldBarcode, header.FieldPrice},
	Keywords: []string{colBarcode, colPriceUSD, colNetUSD},
}

// DromarkoAdapter parses Dromarko semicolon CSV exports. The list carries
// both a list price and a net price; the effective discount is derived from
// the two and DA(%) is only used when no net price is given.
type DromarkoAdapter struct {
	*base.BaseCsvAdapter
}

// NewDromarkoAdapter creates a new Dromarko adapter
func NewDromarkoAdapter() (*DromarkoAdapter, error) {
	supplierConfig := config.SupplierConfigs[types.SupplierDromarko]

	adapterConfig := base.CsvAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       types.SupplierDromarko,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeCSV},
			SupplierConfig: supplierConfig,
			Pricing:        dromarkoPricing,
		},
		Schema: dromarkoSchema,
	}

	baseAdapter, err := base.NewBaseCsvAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base CSV adapter: %w", err)
	}

	return &DromarkoAdapter{
		BaseCsvAdapter: baseAdapter,
	}, nil
}

func dromarkoPricing(row base.Row) (float64, float64) {
	price := row.Decimal(header.FieldPrice)
	net := row.Decimal(header.FieldNetPrice)

	switch {
	case price > 0 && net > 0 && net <= price:
		return price, (1 - net/price) * 100
	case price <= 0 && net > 0:
		return net, 0
	default:
		return price, row.Decimal(header.FieldDiscount)
	}
}
