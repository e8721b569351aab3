package engine

import (
	"testing"

	"github.com/farmaintel/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyticsData() RawData {
	return RawData{
		types.SupplierDroactiva: {
			rec(types.SupplierDroactiva, "1", "ACETAMINOFEN 500MG", 10, 0, 5),
			rec(types.SupplierDroactiva, "2", "IBUPROFENO 400MG", 20, 10, 0),
			rec(types.SupplierDroactiva, "3", "DOLO NEUROBION", 30, 0, 2),
		},
		types.SupplierCobeca: {
			rec(types.SupplierCobeca, "1", "ATAMEL 500MG", 12, 0, 1),
			rec(types.SupplierCobeca, "2", "BRUFEN 400MG", 15, 0, 4),
			rec(types.SupplierCobeca, "4", "DOLO-NEUROBION FORTE", 0, 0, 9),
		},
		types.SupplierF24: {
			rec(types.SupplierF24, "1", "ATAMEL", 11, 20, 0),
			rec(types.SupplierF24, "5", "DOLORAL", 4, 0, 3),
		},
	}
}

func TestEngine_Summary(t *testing.T) {
	e := New()
	require.NoError(t, e.Process(analyticsData(), 30, JoinAnchorCentric))

	// 1: droactiva 10, cobeca 12, f24 8.8 -> f24 wins, cobeca loses
	// 2: droactiva 18, cobeca 15 -> cobeca wins, droactiva loses
	// 3: droactiva only
	assert.Equal(t, 3, e.TotalProducts())
	assert.Equal(t, 2, e.ComparableProducts())

	wins := e.WinCountBySupplier()
	assert.Equal(t, 1, wins[types.SupplierDroactiva])
	assert.Equal(t, 1, wins[types.SupplierCobeca])
	assert.Equal(t, 1, wins[types.SupplierF24])

	losses := e.LossCountBySupplier()
	assert.Equal(t, 1, losses[types.SupplierDroactiva])
	assert.Equal(t, 1, losses[types.SupplierCobeca])
	assert.Equal(t, 0, losses[types.SupplierF24])

	assert.Equal(t, types.SupplierDroactiva, e.SupplierWithMostWins())
	assert.Equal(t, types.SupplierDroactiva, e.SupplierWithMostLosses())

	stock := e.TotalStockBySupplier()
	assert.Equal(t, 7, stock[types.SupplierDroactiva])
	assert.Equal(t, 5, stock[types.SupplierCobeca])

	offers := e.OfferCountBySupplier()
	assert.Equal(t, 1, offers[types.SupplierDroactiva])
	assert.Equal(t, 1, offers[types.SupplierF24])
	assert.Equal(t, 0, offers[types.SupplierCobeca])
	assert.Equal(t, types.SupplierF24, e.SupplierWithBestAvgDiscount())
	assert.Equal(t, types.SupplierDroactiva, e.SupplierWithWorstAvgDiscount())

	avg := e.AveragePriceBySupplier()
	assert.InDelta(t, (10+18+30)/3.0, avg[types.SupplierDroactiva], 1e-9)
	assert.InDelta(t, 13.5, avg[types.SupplierCobeca], 1e-9)

	bvn := e.BaseVsNetBySupplier()
	assert.InDelta(t, 11, bvn[types.SupplierF24].AvgBase, 1e-9)
	assert.InDelta(t, 8.8, bvn[types.SupplierF24].AvgNet, 1e-9)

	st, ok := e.Summary().Stats(types.SupplierCobeca)
	require.True(t, ok)
	assert.Equal(t, 2, st.Products)
}

func TestEngine_SummaryEmpty(t *testing.T) {
	e := New()
	require.NoError(t, e.Process(RawData{}, 30, JoinFullOuter))

	assert.Zero(t, e.TotalProducts())
	assert.Equal(t, types.SupplierID(""), e.SupplierWithMostWins())
	assert.Empty(t, e.AveragePriceBySupplier())
}

func TestEngine_GapProducts(t *testing.T) {
	e := New()
	require.NoError(t, e.Process(analyticsData(), 30, JoinAnchorCentric))

	gaps := e.GapProducts(types.SupplierDroactiva)
	barcodes := make([]string, 0, len(gaps))
	for _, g := range gaps {
		barcodes = append(barcodes, g.Barcode())
	}
	// 2: droactiva has no stock, cobeca has 4
	// 4 and 5: only listed by other suppliers
	assert.Equal(t, []string{"2", "4", "5"}, barcodes)

	summary := e.GapSummaryBySupplier(types.SupplierDroactiva)
	assert.Equal(t, 2, summary[types.SupplierCobeca])
	assert.Equal(t, 1, summary[types.SupplierF24])
	assert.NotContains(t, summary, types.SupplierDroactiva)

	units := e.GapUnits(types.SupplierDroactiva)
	assert.Equal(t, 13, units[types.SupplierCobeca])
	assert.Equal(t, 3, units[types.SupplierF24])

	exec := e.ExecutiveSummary(types.SupplierDroactiva)
	assert.Equal(t, 3, exec.GapCount)
	assert.Equal(t, types.SupplierCobeca, exec.TopGapSupplier)
}

func TestEngine_CheapestByMolecule(t *testing.T) {
	e := New()
	require.NoError(t, e.Process(analyticsData(), 30, JoinAnchorCentric))

	results := e.CheapestByMolecule("dolo")
	barcodes := make([]string, 0, len(results))
	for _, r := range results {
		barcodes = append(barcodes, r.Barcode())
	}
	// 5 at 4, 3 at 30, 4 unpriced last
	assert.Equal(t, []string{"5", "3", "4"}, barcodes)

	results = e.CheapestByMolecule("  NEUROBION   dolo ")
	require.Len(t, results, 2)
	assert.Equal(t, "3", results[0].Barcode())

	assert.Empty(t, e.CheapestByMolecule("   "))
	assert.Empty(t, e.CheapestByMolecule("aspirina"))
}
