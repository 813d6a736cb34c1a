package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StationResolutions counts resolver outcomes
	// result: single, ambiguous, not_found, malformed, cached, error
	StationResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traintracker_station_resolutions_total",
		Help: "Number of station search resolutions by outcome",
	}, []string{"result"})

	// DeparturesFetched tracks how many completed departures each station returned
	DeparturesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traintracker_departures_fetched_total",
		Help: "Total number of departures decomposed from the transit API",
	}, []string{"station"})

	// FetchDuration measures one departures request including decomposition.
	// The board endpoint is slow for large hubs, hence the wide buckets
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traintracker_fetch_duration_seconds",
		Help:    "Time taken to fetch and decompose the departures of one station",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"status"}) // status: success, error

	// RunDuration measures a full resolve -> fetch -> write cycle
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traintracker_run_duration_seconds",
		Help:    "Duration of a complete ingest run in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
