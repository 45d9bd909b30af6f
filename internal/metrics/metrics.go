package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	suppliersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksync_suppliers_total",
			Help: "Suppliers processed by sync runs, by outcome.",
		},
		[]string{"status"},
	)
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksync_batches_total",
			Help: "GTIN batches processed, by outcome.",
		},
		[]string{"status"},
	)
	itemsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksync_items_saved_total",
			Help: "Stock items handed to the batch sink successfully.",
		},
	)
	availabilityRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksync_availability_requests_total",
			Help: "Per-GTIN availability lookups, by final outcome.",
		},
		[]string{"outcome"},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stocksync_run_duration_seconds",
			Help:    "Wall time of complete sync runs.",
			Buckets: []float64{10, 60, 300, 900, 1800, 3600, 7200},
		},
	)
)

func init() {
	prometheus.MustRegister(suppliersTotal, batchesTotal, itemsSavedTotal, availabilityRequestsTotal, runDuration)
}

const (
	BatchSaved  = "saved"
	BatchEmpty  = "empty"
	BatchFailed = "failed"

	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

func RecordSupplier(status string) {
	suppliersTotal.WithLabelValues(status).Inc()
}

func RecordBatch(status string, items int) {
	batchesTotal.WithLabelValues(status).Inc()
	if status == BatchSaved {
		itemsSavedTotal.Add(float64(items))
	}
}

func RecordAvailability(outcome string) {
	availabilityRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordRun(d time.Duration) {
	runDuration.Observe(d.Seconds())
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
