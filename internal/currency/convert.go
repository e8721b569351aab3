// Package currency converts local-currency supplier prices to the
// reference currency.
package currency

import (
	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/types"
)

// MinUsableRate is the lowest rate applied to prices; anything at or below
// it means the rate has not been configured yet.
const MinUsableRate = 1.0

// IsUsable reports whether rate can be used for conversion
func IsUsable(rate float64) bool {
	return rate > MinUsableRate
}

// Convert divides the base price of every local-currency record by rate and
// recomputes its net price. It returns the number of records converted.
//
// Convert mutates records in place and must run exactly once per parsed
// record set; a second call divides again.
func Convert(records []*types.SupplierRecord, rate float64) int {
	if !IsUsable(rate) {
		return 0
	}

	converted := 0
	for _, r := range records {
		if r == nil || !config.IsLocalCurrency(r.Supplier) {
			continue
		}
		r.BasePrice = r.BasePrice / rate
		r.Recalc()
		converted++
	}
	return converted
}

// ConvertAll applies Convert to every supplier's records
func ConvertAll(data map[types.SupplierID][]*types.SupplierRecord, rate float64) int {
	total := 0
	for _, records := range data {
		total += Convert(records, rate)
	}
	return total
}
