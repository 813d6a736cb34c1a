package departures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/transit"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"
)

// BoardClient is the part of the transit client the fetcher needs
type BoardClient interface {
	Departures(ctx context.Context, evaNumber int64, lookahead, lookbehind int) (*transit.DeparturesResponse, error)
}

// Fetcher retrieves the departures a station has already completed
type Fetcher struct {
	client     BoardClient
	loc        *time.Location
	lookbehind int
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. Every timestamp is converted to loc so rows of
// different stations compare on the same clock.
func NewFetcher(client BoardClient, loc *time.Location, lookbehindMin int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		loc:        loc,
		lookbehind: lookbehindMin,
		logger:     logger,
	}
}

// Fetch requests the lookbehind board of station with zero lookahead and decomposes
// every record that has actually departed. Transport failures are returned as is.
func (f *Fetcher) Fetch(ctx context.Context, station models.Station) (deps []models.Departure, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.FetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	board, err := f.client.Departures(ctx, station.ID, 0, f.lookbehind)
	if err != nil {
		return nil, fmt.Errorf("fetching departures of %s: %w", station, err)
	}

	if len(board.Lookbehind) == 0 {
		f.logger.Info("No completed departures", "station", station.Name)
		return []models.Departure{}, nil
	}

	// one board covers one operating day, keyed by the first train's initial departure
	first := board.Lookbehind[0].InitialDeparture
	if first.IsZero() {
		return nil, &MalformedRecordError{Station: station, Index: 0, Reason: "missing initialDeparture"}
	}
	day := models.DateOf(first.In(f.loc))

	deps = make([]models.Departure, 0, len(board.Lookbehind))
	for i, raw := range board.Lookbehind {
		if raw.Departure == nil {
			continue
		}

		d, err := Decompose(station, day, raw, f.loc)
		if err != nil {
			var mr *MalformedRecordError
			if errors.As(err, &mr) {
				mr.Index = i
			}
			return nil, err
		}
		deps = append(deps, d)
	}

	metrics.DeparturesFetched.WithLabelValues(station.Name).Add(float64(len(deps)))
	f.logger.Info("Fetched departures",
		"station", station.Name,
		"count", len(deps),
		"skipped", len(board.Lookbehind)-len(deps),
		"date", day.String(),
	)

	return deps, nil
}
