package types

import (
	"fmt"
	"strings"
)

// SupplierID identifies a supplier price list
type SupplierID string

const (
	SupplierDroactiva SupplierID = "droactiva"
	SupplierDromarko  SupplierID = "dromarko"
	SupplierCobeca    SupplierID = "cobeca"
	SupplierNena      SupplierID = "nena"
	SupplierF24       SupplierID = "f24"
	SupplierP365      SupplierID = "p365"
)

// SupplierIDs lists every supplier in declaration order. The order is the
// tie-break used whenever two suppliers compare equal.
var SupplierIDs = []SupplierID{
	SupplierDroactiva,
	SupplierDromarko,
	SupplierCobeca,
	SupplierNena,
	SupplierF24,
	SupplierP365,
}

var supplierOrder = func() map[SupplierID]int {
	m := make(map[SupplierID]int, len(SupplierIDs))
	for i, id := range SupplierIDs {
		m[id] = i
	}
	return m
}()

// Order returns the declaration index, or len(SupplierIDs) for unknown ids.
func (s SupplierID) Order() int {
	if idx, ok := supplierOrder[s]; ok {
		return idx
	}
	return len(SupplierIDs)
}

// Valid reports whether s is a known supplier
func (s SupplierID) Valid() bool {
	_, ok := supplierOrder[s]
	return ok
}

// ParseSupplierID resolves a case-insensitive supplier name. The display
// label "365" is accepted for p365.
func ParseSupplierID(value string) (SupplierID, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "365" {
		return SupplierP365, nil
	}
	id := SupplierID(v)
	if !id.Valid() {
		return "", fmt.Errorf("unknown supplier %q", value)
	}
	return id, nil
}
