// Package catalog holds the per-barcode consolidated product model.
package catalog

import (
	"github.com/farmaintel/price-service/internal/types"
)

// Catalog is an insertion-ordered map from barcode to entry
type Catalog struct {
	order   []string
	entries map[string]*Entry
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Get returns the entry for barcode
func (c *Catalog) Get(barcode string) (*Entry, bool) {
	e, ok := c.entries[barcode]
	return e, ok
}

// Contains reports whether barcode has an entry
func (c *Catalog) Contains(barcode string) bool {
	_, ok := c.entries[barcode]
	return ok
}

// GetOrCreate returns the entry for barcode, creating it at the end of the
// order when missing
func (c *Catalog) GetOrCreate(barcode string) *Entry {
	if e, ok := c.entries[barcode]; ok {
		return e
	}
	e := NewEntry(barcode)
	c.entries[barcode] = e
	c.order = append(c.order, barcode)
	return e
}

// Attach adds r to its barcode's entry, creating the entry when missing
func (c *Catalog) Attach(r *types.SupplierRecord) *Entry {
	e := c.GetOrCreate(r.Barcode)
	e.Add(r)
	return e
}

// AttachExisting adds r only when its barcode already has an entry
func (c *Catalog) AttachExisting(r *types.SupplierRecord) bool {
	e, ok := c.entries[r.Barcode]
	if !ok {
		return false
	}
	e.Add(r)
	return true
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.order)
}

// Entries returns entries in insertion order
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.order))
	for i, bc := range c.order {
		out[i] = c.entries[bc]
	}
	return out
}

// Barcodes returns barcodes in insertion order
func (c *Catalog) Barcodes() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Page returns up to limit entries starting at offset; limit <= 0 means all
func (c *Catalog) Page(offset, limit int) []*Entry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.order) {
		return []*Entry{}
	}
	end := len(c.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*Entry, 0, end-offset)
	for _, bc := range c.order[offset:end] {
		out = append(out, c.entries[bc])
	}
	return out
}
