package suppliers

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

var (
	descriptionMatcher = header.ContainsAny("descripcion", "producto", "nombre", "articulo")
	stockMatcher       = header.ContainsAny("existencia", "stock", "exist", "cantidad", "disp")
)

// Nena exports change layout between sends and sometimes carry no price
// header at all.
var nenaSchema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldBarcode, Match: header.Any(header.ContainsAny("barra", "ean", "upc"), header.Equals("codigo", "cod"))},
		{Field: header.FieldPrice, Match: header.ContainsAny("precio", "neto", "monto", "valor", "pvp", "costo"), KeepFirst: true},
		{Field: header.FieldDiscount, Match: header.ContainsAny("descuento", "dcto", "promo", "oferta")},
		{Field: header.FieldDescription, Match: descriptionMatcher},
		{Field: header.FieldStock, Match: stockMatcher},
	},
	Required:   []string{header.FieldBarcode, header.FieldPrice},
	InferPrice: true,
	Keywords:   []string{"barra", "ean", "upc", "codigo"},
}

// NenaAdapter parses Nena XLSX price lists quoted in local currency. The
// discount, when present, is embedded in free text ("Dcto. nena del 7,00%").
type NenaAdapter struct {
	*base.BaseXlsxAdapter
}

// NewNenaAdapter creates a new Nena adapter
func NewNenaAdapter() (*NenaAdapter, error) {
	supplierConfig := config.SupplierConfigs[types.SupplierNena]

	adapterConfig := base.XlsxAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       types.SupplierNena,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeXLSX},
			SupplierConfig: supplierConfig,
			Pricing:        nenaPricing,
		},
		Schema: nenaSchema,
	}

	baseAdapter, err := base.NewBaseXlsxAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base XLSX adapter: %w", err)
	}

	return &NenaAdapter{
		BaseXlsxAdapter: baseAdapter,
	}, nil
}

func nenaPricing(row base.Row) (float64, float64) {
	return row.Decimal(header.FieldPrice), fields.ParsePercentText(row.Text(header.FieldDiscount))
}
