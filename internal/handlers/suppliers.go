package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/presentation"
	"github.com/farmaintel/price-service/internal/types"
)

// SupplierInfo describes a supplier for clients building upload forms
type SupplierInfo struct {
	ID              types.SupplierID `json:"id" jsonschema:"required"`
	Label           string           `json:"label" jsonschema:"required"`
	Color           string           `json:"color" jsonschema:"pattern=^#[0-9A-F]{6}$"`
	Currency        config.Currency  `json:"currency" jsonschema:"enum=USD,enum=VES"`
	PrimaryFileType types.FileType   `json:"primaryFileType"`
}

// ListSuppliers returns every supplier in declaration order
func ListSuppliers(c *gin.Context) {
	out := make([]SupplierInfo, 0, len(types.SupplierIDs))
	for _, id := range types.SupplierIDs {
		cfg, _ := config.GetSupplierConfig(id)
		out = append(out, SupplierInfo{
			ID:              id,
			Label:           presentation.Style(id).Label,
			Color:           presentation.Color(id),
			Currency:        cfg.Currency,
			PrimaryFileType: cfg.PrimaryFileType,
		})
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": out})
}
