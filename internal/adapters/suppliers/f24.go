package suppliers

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

var f24Schema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldBarcode, Match: header.Any(header.ContainsAny("barra", "ean"), header.Equals("codigo", "cod"))},
		{Field: header.FieldPrice, Match: header.Contains("precio", "mayor", "bs")},
		{Field: header.FieldPromo, Match: header.Contains("promo", "%")},
		{Field: header.FieldOffer, Match: header.Contains("oferta", "%")},
		{Field: header.FieldBaseOffer, Match: header.Contains("da", "%")},
		{Field: header.FieldDescription, Match: descriptionMatcher},
		{Field: header.FieldStock, Match: stockMatcher},
	},
	Required:   []string{header.FieldBarcode, header.FieldPrice},
	InferPrice: true,
	Keywords:   []string{"barra", "ean", "codigo", "precio mayor bs"},
}

// F24Adapter parses F24 XLSX price lists quoted in local currency. The
// effective offer is the sum of the PROMO %, OFERTA % and DA % columns.
type F24Adapter struct {
	*base.BaseXlsxAdapter
}

// NewF24Adapter creates a new F24 adapter
func NewF24Adapter() (*F24Adapter, error) {
	supplierConfig := config.SupplierConfigs[types.SupplierF24]

	adapterConfig := base.XlsxAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       types.SupplierF24,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeXLSX},
			SupplierConfig: supplierConfig,
			Pricing:        f24Pricing,
		},
		Schema: f24Schema,
	}

	baseAdapter, err := base.NewBaseXlsxAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base XLSX adapter: %w", err)
	}

	return &F24Adapter{
		BaseXlsxAdapter: baseAdapter,
	}, nil
}

func f24Pricing(row base.Row) (float64, float64) {
	offer := row.Percent(header.FieldPromo) + row.Percent(header.FieldOffer) + row.Percent(header.FieldBaseOffer)
	return row.Decimal(header.FieldPrice), offer
}
