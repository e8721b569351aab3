package suppliers

import (
	"fmt"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/farmaintel/price-service/internal/types"
)

// cobecaSchema locates the Cobeca header somewhere in the first rows of
// the workbook. The explicit final reference price column wins over any
// other "precio ... final" column, which only fills an empty slot.
var cobecaSchema = header.Schema{
	Rules: []header.Rule{
		{Field: header.FieldBarcode, Match: header.Any(header.Contains("codigo", "barra"), header.Contains("codigo_barra"))},
		{Field: header.FieldPrice, Match: header.ContainsAny("precio_referencial_final", "precio referencial final")},
		{Field: header.FieldPrice, Match: header.Contains("precio", "final"), KeepFirst: true},
		{Field: header.FieldStock, Match: header.ContainsAny("existencia", "exist")},
		{Field: header.FieldDescription, Match: header.ContainsAny("descripcion", "producto", "nombre")},
	},
	Required: []string{header.FieldBarcode, header.FieldPrice},
	Keywords: []string{"codigo barra", "precio_referencial_final"},
}

// CobecaAdapter parses Cobeca XLSX price lists. Prices are already net.
type CobecaAdapter struct {
	*base.BaseXlsxAdapter
}

// NewCobecaAdapter creates a new Cobeca adapter
func NewCobecaAdapter() (*CobecaAdapter, error) {
	supplierConfig := config.SupplierConfigs[types.SupplierCobeca]

	adapterConfig := base.XlsxAdapterConfig{
		BaseAdapterConfig: base.BaseAdapterConfig{
			Supplier:       types.SupplierCobeca,
			Name:           supplierConfig.Name,
			SupportedTypes: []types.FileType{types.FileTypeXLSX},
			SupplierConfig: supplierConfig,
			Pricing:        cobecaPricing,
		},
		Schema: cobecaSchema,
	}

	baseAdapter, err := base.NewBaseXlsxAdapter(adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create base XLSX adapter: %w", err)
	}

	return &CobecaAdapter{
		BaseXlsxAdapter: baseAdapter,
	}, nil
}

func cobecaPricing(row base.Row) (float64, float64) {
	return row.Decimal(header.FieldPrice), 0
}
