// Package presentation holds display attributes for suppliers. The core
// packages identify suppliers by id only and never import this package.
package presentation

import (
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/types"
)

// SupplierStyle is how a supplier is shown in reports and dashboards
type SupplierStyle struct {
	Label string `json:"label"`
	// Color is an RRGGBB hex string without the leading '#'
	Color string `json:"color"`
}

var supplierColors = map[types.SupplierID]string{
	types.SupplierDroactiva: "4285F4",
	types.SupplierDromarko:  "EA4335",
	types.SupplierCobeca:    "34A853",
	types.SupplierNena:      "FBBC04",
	types.SupplierF24:       "AB47BC",
	types.SupplierP365:      "FF7043",
}

const fallbackColor = "9E9E9E"

// Style returns the display style for a supplier
func Style(id types.SupplierID) SupplierStyle {
	color, ok := supplierColors[id]
	if !ok {
		color = fallbackColor
	}
	return SupplierStyle{Label: config.Label(id), Color: color}
}

// Color returns the supplier color prefixed with '#'
func Color(id types.SupplierID) string {
	return "#" + Style(id).Color
}

// Styles returns the styles of every supplier in declaration order
func Styles() []SupplierStyle {
	styles := make([]SupplierStyle, 0, len(types.SupplierIDs))
	for _, id := range types.SupplierIDs {
		styles = append(styles, Style(id))
	}
	return styles
}
