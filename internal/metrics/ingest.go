package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingest outcome labels.
const (
	ResultSuccess        = "success"
	ResultRejected       = "rejected"
	ResultEmbeddingError = "embedding_error"
	ResultWriteError     = "write_error"
)

// Upload pipeline metrics.
var (
	IngestRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_requests_total",
			Help:      "Spreadsheet uploads by outcome",
		},
		[]string{"result"},
	)

	IngestItemsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_items_total",
			Help:      "Text items committed",
		},
	)

	IngestRowsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_skipped_total",
			Help:      "Rows skipped for empty text_content",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end upload processing time",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// ObserveIngest records one finished upload.
func ObserveIngest(result string, seconds float64, inserted, skipped int) {
	IngestRequestsTotal.WithLabelValues(result).Inc()
	IngestDuration.Observe(seconds)
	if inserted > 0 {
		IngestItemsTotal.Add(float64(inserted))
	}
	if skipped > 0 {
		IngestRowsSkippedTotal.Add(float64(skipped))
	}
}
