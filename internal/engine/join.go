package engine

import (
	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/types"
)

// joinAnchorCentric seeds the catalog with the anchor's barcodes and then
// attaches other suppliers' records only to those barcodes
func joinAnchorCentric(raw RawData, anchor types.SupplierID) *catalog.Catalog {
	c := catalog.New()
	for _, r := range raw[anchor] {
		if r != nil && r.Barcode != "" {
			c.Attach(r)
		}
	}
	for _, id := range raw.Suppliers() {
		if id == anchor {
			continue
		}
		for _, r := range raw[id] {
			if r != nil && r.Barcode != "" {
				c.AttachExisting(r)
			}
		}
	}
	return c
}

// joinFullOuter attaches every record, visiting suppliers in declaration
// order
func joinFullOuter(raw RawData) *catalog.Catalog {
	c := catalog.New()
	for _, id := range raw.Suppliers() {
		for _, r := range raw[id] {
			if r != nil && r.Barcode != "" {
				c.Attach(r)
			}
		}
	}
	return c
}
