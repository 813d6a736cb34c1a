package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluele/gcache"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/transit"
	"github.com/Guizzs26/go-traintracker/pkg/encoding"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"
)

// StopPlaceSearcher is the part of the transit client the resolver needs
type StopPlaceSearcher interface {
	SearchStopPlaces(ctx context.Context, text string) ([]transit.StopPlace, error)
}

// Resolver maps free-text station names to canonical stations
type Resolver struct {
	client StopPlaceSearcher
	cache  gcache.Cache
	logger *slog.Logger
}

func New(client StopPlaceSearcher, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache: gcache.New(cacheSize).
			LRU().
			Expiration(cacheTTL).
			Build(),
		logger: logger,
	}
}

// Resolve returns the single station matching search. Ambiguous, empty and
// malformed answers fail with errors matching ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, search string) (models.Station, error) {
	key := encoding.CacheKey(search)
	if cached, err := r.cache.Get(key); err == nil {
		metrics.StationResolutions.WithLabelValues("cached").Inc()
		return cached.(models.Station), nil
	}

	l := r.logger.With("search", search)

	places, err := r.client.SearchStopPlaces(ctx, encoding.NormalizeName(search))
	if err != nil {
		var de *transit.DecodeError
		if errors.As(err, &de) {
			reason := "not a list of stations"
			if errors.Is(err, transit.ErrNullResponse) {
				reason = "search response is null"
			}
			metrics.StationResolutions.WithLabelValues("malformed").Inc()
			return models.Station{}, &MalformedResponseError{Search: search, Reason: reason, Err: err}
		}
		metrics.StationResolutions.WithLabelValues("error").Inc()
		return models.Station{}, fmt.Errorf("searching station %q: %w", search, err)
	}

	res, err := Classify(places)
	if err != nil {
		metrics.StationResolutions.WithLabelValues("malformed").Inc()
		return models.Station{}, &MalformedResponseError{Search: search, Reason: err.Error()}
	}

	switch res := res.(type) {
	case Single:
		metrics.StationResolutions.WithLabelValues("single").Inc()
		l.Debug("Station resolved", "station", res.Station.Name, "eva", res.Station.ID)
		_ = r.cache.Set(key, res.Station)
		return res.Station, nil
	case Ambiguous:
		metrics.StationResolutions.WithLabelValues("ambiguous").Inc()
		l.Debug("Station search is ambiguous", "candidates", len(res.Candidates))
		return models.Station{}, &AmbiguousStationError{Search: search, Candidates: res.Candidates}
	case NotFound:
		metrics.StationResolutions.WithLabelValues("not_found").Inc()
		return models.Station{}, &NotFoundError{Search: search}
	default:
		return models.Station{}, fmt.Errorf("unhandled resolution %T", res)
	}
}

// ResolveAll resolves every search in order and stops at the first failure,
// before any departure is requested.
func (r *Resolver) ResolveAll(ctx context.Context, searches []string) ([]models.Station, error) {
	stations := make([]models.Station, 0, len(searches))
	for _, s := range searches {
		station, err := r.Resolve(ctx, s)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, nil
}
