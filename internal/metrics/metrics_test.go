package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	m := NewRecorder()

	before := testutil.ToFloat64(rowsParsed.WithLabelValues("cobeca"))
	m.RecordParse("cobeca", 10*time.Millisecond, 3, map[string]int{"empty_barcode": 2})
	assert.Equal(t, before+3, testutil.ToFloat64(rowsParsed.WithLabelValues("cobeca")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(rowsSkipped.WithLabelValues("cobeca", "empty_barcode")), 2.0)

	m.RecordCatalog(10, 15, 7)
	assert.Equal(t, 15.0, testutil.ToFloat64(catalogProducts.WithLabelValues("universal")))

	m.RecordExchangeRate(51.32)
	assert.Equal(t, 51.32, testutil.ToFloat64(exchangeRate))

	failed := testutil.ToFloat64(runsTotal.WithLabelValues("failed"))
	m.RecordRun(time.Second, false)
	assert.Equal(t, failed+1, testutil.ToFloat64(runsTotal.WithLabelValues("failed")))
}
