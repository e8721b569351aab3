// Package metrics exposes Prometheus metrics for processing runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts processing runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_pipeline_runs_total",
		Help: "Total number of processing runs by status",
	}, []string{"status"}) // status: completed, failed

	// runDuration tracks end-to-end run time.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_pipeline_run_duration_seconds",
		Help:    "Time taken by a processing run",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// parseDuration tracks the time spent parsing each supplier file.
	parseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_supplier_parse_duration_seconds",
		Help:    "Time taken to parse a supplier price list",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"supplier"})

	// rowsParsed counts records extracted per supplier.
	rowsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_supplier_rows_parsed_total",
		Help: "Total number of records extracted by supplier",
	}, []string{"supplier"})

	// rowsSkipped counts dropped rows per supplier and reason.
	rowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_supplier_rows_skipped_total",
		Help: "Total number of dropped rows by supplier and reason",
	}, []string{"supplier", "reason"})

	// parseErrors counts supplier files that could not be parsed.
	parseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_supplier_parse_errors_total",
		Help: "Total number of supplier files that failed to parse",
	}, []string{"supplier"})

	// catalogProducts tracks the size of the last built catalogs.
	catalogProducts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "price_catalog_products",
		Help: "Number of products in the last built catalog",
	}, []string{"catalog"}) // catalog: primary, universal, comparable

	// exchangeRate tracks the rate applied by the last run.
	exchangeRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "price_exchange_rate",
		Help: "Exchange rate applied to local-currency suppliers",
	})

	// rateFetches counts exchange rate fetch attempts.
	rateFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_exchange_rate_fetches_total",
		Help: "Total number of exchange rate fetches by result",
	}, []string{"result"}) // result: success, failure
)

// Recorder records pipeline metrics. The zero value is ready to use.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordRun records a finished run.
func (m *Recorder) RecordRun(duration time.Duration, success bool) {
	runDuration.Observe(duration.Seconds())
	if success {
		runsTotal.WithLabelValues("completed").Inc()
	} else {
		runsTotal.WithLabelValues("failed").Inc()
	}
}

// RecordParse records one supplier file parse.
func (m *Recorder) RecordParse(supplier string, duration time.Duration, records int, skipped map[string]int) {
	parseDuration.WithLabelValues(supplier).Observe(duration.Seconds())
	rowsParsed.WithLabelValues(supplier).Add(float64(records))
	for reason, n := range skipped {
		rowsSkipped.WithLabelValues(supplier, reason).Add(float64(n))
	}
}

// RecordParseError records a supplier file that failed to parse.
func (m *Recorder) RecordParseError(supplier string) {
	parseErrors.WithLabelValues(supplier).Inc()
}

// RecordCatalog records catalog sizes.
func (m *Recorder) RecordCatalog(primary, universal, comparable int) {
	catalogProducts.WithLabelValues("primary").Set(float64(primary))
	catalogProducts.WithLabelValues("universal").Set(float64(universal))
	catalogProducts.WithLabelValues("comparable").Set(float64(comparable))
}

// RecordExchangeRate records the rate in effect.
func (m *Recorder) RecordExchangeRate(rate float64) {
	exchangeRate.Set(rate)
}

// RecordRateFetch records an exchange rate fetch attempt.
func (m *Recorder) RecordRateFetch(success bool) {
	if success {
		rateFetches.WithLabelValues("success").Inc()
	} else {
		rateFetches.WithLabelValues("failure").Inc()
	}
}
