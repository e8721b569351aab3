package suppliers

import (
	"fmt"
	"strings"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

// genericPriceMatcher accepts a net price quoted in dollars, or a list
// price marked as dollars, final or reference
func genericPriceMatcher(folded string) bool {
	usd := strings.Contains(folded, "$") || strings.Contains(folded, "usd")
	if strings.Contains(folded, "neto") && usd {
		return true
	}
	return strings.Contains(folded, "precio") &&
		(usd || strings.Contains(folded, "final") || strings.Contains(folded, "referencial"))
}

var genericSchema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldBarcode, Match: header.ContainsAny("barra", "ean", "upc", "codigo_barra", "cod. barra", "cod barra")},
		{Field: header.FieldPrice, Match: genericPriceMatcher},
		{Field: header.FieldDescription, Match: descriptionMatcher},
		{Field: header.FieldStock, Match: header.ContainsAny("existencia", "stock", "disponible", "cantidad")},
	},
	Required: []string{header.FieldBarcode, header.FieldPrice},
	Keywords: []string{"barra", "ean", "upc", "precio $", "neto usd"},
}

// GenericAdapter parses any XLSX price list with recognizable barcode and
// dollar price headers. It serves 365 and is the fallback for suppliers
// without a dedicated adapter.
type GenericAdapter struct {
	*base.BaseXlsxAdapter
}

// NewGenericAdapter creates a generic adapter emitting records for supplier
func NewGenericAdapter(supplier types.SupplierID) (*GenericAdapter, error) {
	supplierConfig, ok := config.GetSupplierConfig(supplier)
	if !ok {
		return nil, fmt.Errorf("unknown supplier: %s", supplier)
	}
	supplierConfig.HeaderScanRows = config.GenericHeaderScanRows

	adapterConfig := base.XlsxAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       supplier,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeXLSX},
			SupplierConfig: supplierConfig,
			Pricing:        genericPricing,
		},
		Schema: genericSchema,
	}

	baseAdapter, err := base.NewBaseXlsxAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base XLSX adapter: %w", err)
	}

	return &GenericAdapter{
		BaseXlsxAdapter: baseAdapter,
	}, nil
}

func genericPricing(row base.Row) (float64, float64) {
	return row.Decimal(header.FieldPrice), 0
}
