package currency

import (
	"testing"

	"github.com/farmaintel/price-service/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	nena := types.NewSupplierRecord(types.SupplierNena, "1", "A", 3650, 10, 1)
	cobeca := types.NewSupplierRecord(types.SupplierCobeca, "1", "A", 10, 0, 1)

	n := Convert([]*types.SupplierRecord{nena, cobeca, nil}, 36.5)

	assert.Equal(t, 1, n)
	assert.InDelta(t, 100, nena.BasePrice, 1e-9)
	assert.InDelta(t, 90, nena.NetPrice, 1e-9)
	assert.InDelta(t, 10, cobeca.BasePrice, 1e-9)
}

func TestConvert_SkipsUnconfiguredRate(t *testing.T) {
	for _, rate := range []float64{0, 0.5, 1} {
		f24 := types.NewSupplierRecord(types.SupplierF24, "1", "A", 500, 0, 1)
		assert.Zero(t, Convert([]*types.SupplierRecord{f24}, rate))
		assert.InDelta(t, 500, f24.NetPrice, 1e-9)
	}
}

func TestConvertAll_NetPriceInvariant(t *testing.T) {
	data := map[types.SupplierID][]*types.SupplierRecord{
		types.SupplierF24:  {types.NewSupplierRecord(types.SupplierF24, "1", "A", 730, 12.5, 1)},
		types.SupplierNena: {types.NewSupplierRecord(types.SupplierNena, "2", "B", 365, 0, 1)},
	}

	assert.Equal(t, 2, ConvertAll(data, 36.5))
	for _, records := range data {
		for _, r := range records {
			assert.InDelta(t, r.BasePrice*(1-r.OfferPct/100), r.NetPrice, 1e-9)
		}
	}
}
