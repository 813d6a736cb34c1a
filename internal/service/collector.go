package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Guizzs26/go-traintracker/internal/models"
)

// DepartureFetcher defines the per-station retrieval contract
type DepartureFetcher interface {
	Fetch(ctx context.Context, station models.Station) ([]models.Departure, error)
}

// Collector fans the fetcher out over stations on a bounded pool
type Collector struct {
	fetcher DepartureFetcher
	workers int
	logger  *slog.Logger
}

func NewCollector(fetcher DepartureFetcher, workers int, logger *slog.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		fetcher: fetcher,
		workers: workers,
		logger:  logger,
	}
}

// FetchAll fetches every station in parallel and concatenates the results.
// The first failure cancels the fetches still running and is returned alone:
// a partial batch would look complete to the writer.
func (c *Collector) FetchAll(ctx context.Context, stations []models.Station) ([]models.Departure, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	results := make([][]models.Departure, len(stations))
	for i, station := range stations {
		g.Go(func() error {
			deps, err := c.fetcher.Fetch(gctx, station)
			if err != nil {
				c.logger.Error("Departure fetch failed, aborting run", "station", station.Name, "error", err)
				return err
			}
			results[i] = deps
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]models.Departure, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}

	c.logger.Debug("Collected departures", "stations", len(stations), "count", total)
	return all, nil
}
