package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsWritten counts rows touched by the overlap-safe writer
	// op: deleted, inserted, skipped
	RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traintracker_rows_total",
		Help: "Rows deleted, inserted or skipped by the writer",
	}, []string{"op", "table"})

	// WriteDuration tracks the time spent inside the write transaction
	WriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traintracker_write_duration_seconds",
		Help:    "Time taken from transaction begin to commit",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"status", "table"})

	// LastSuccess is the unix time of the last committed write.
	// Alert on time() - traintracker_last_success_timestamp_seconds > 6h30m,
	// past that point departures fall out of the rewrite window unrecorded
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "traintracker_last_success_timestamp_seconds",
		Help: "Unix timestamp of the last successful write",
	})
)
