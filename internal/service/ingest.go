package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Guizzs26/go-traintracker/internal/mapper"
	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/processor"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"
)

// StationResolver defines the resolution contract
type StationResolver interface {
	ResolveAll(ctx context.Context, searches []string) ([]models.Station, error)
}

// BatchWriter defines the persistence contract
type BatchWriter interface {
	Write(ctx context.Context, table string, rows []mapper.Row) (processor.WriteResult, error)
}

// Notifier announces committed writes. Optional.
type Notifier interface {
	PublishIngest(ctx context.Context, event models.IngestEvent) error
}

// RunReport describes one ingest run
type RunReport struct {
	RunID    string
	Stations []models.Station
	Fetched  int
	Write    processor.WriteResult
}

// IngestService orchestrates resolve -> fetch -> flatten -> write
type IngestService struct {
	resolver  StationResolver
	collector *Collector
	writer    BatchWriter
	notifier  Notifier
	logger    *slog.Logger
}

func NewIngestService(r StationResolver, c *Collector, w BatchWriter, n Notifier, l *slog.Logger) *IngestService {
	return &IngestService{
		resolver:  r,
		collector: c,
		writer:    w,
		notifier:  n,
		logger:    l,
	}
}

// Resolve maps every search text to a station. Nothing is fetched if any of them fails.
func (s *IngestService) Resolve(ctx context.Context, searches []string) ([]models.Station, error) {
	if len(searches) == 0 {
		return nil, fmt.Errorf("no station given")
	}
	return s.resolver.ResolveAll(ctx, searches)
}

// Ingest fetches the departures of stations and writes them to table
func (s *IngestService) Ingest(ctx context.Context, stations []models.Station, table string) (report RunReport, err error) {
	start := time.Now()
	report = RunReport{RunID: uuid.NewString(), Stations: stations}

	l := s.logger.With("run_id", report.RunID, "table", table)
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			l.Info("Ingest run finished",
				"fetched", report.Fetched,
				"inserted", report.Write.Inserted,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}()

	deps, err := s.collector.FetchAll(ctx, stations)
	if err != nil {
		return report, fmt.Errorf("fetch failure: %w", err)
	}
	report.Fetched = len(deps)

	if len(deps) == 0 {
		l.Warn("No completed departures for any station, nothing to write")
		return report, nil
	}

	report.Write, err = s.writer.Write(ctx, table, mapper.FlattenAll(deps))
	if err != nil {
		return report, fmt.Errorf("write failure: %w", err)
	}

	s.notify(ctx, l, table, report)
	return report, nil
}

// Run resolves and ingests in one call
func (s *IngestService) Run(ctx context.Context, searches []string, table string) (RunReport, error) {
	stations, err := s.Resolve(ctx, searches)
	if err != nil {
		return RunReport{}, err
	}
	return s.Ingest(ctx, stations, table)
}

// notify publishes the run summary. The rows are committed at this point, so a
// broker failure is only logged.
func (s *IngestService) notify(ctx context.Context, l *slog.Logger, table string, report RunReport) {
	if s.notifier == nil {
		return
	}

	event := models.IngestEvent{
		EventID:   report.RunID,
		Table:     table,
		Stations:  report.Write.Stations,
		Dates:     report.Write.Dates,
		Fetched:   report.Fetched,
		Deleted:   report.Write.Deleted,
		Inserted:  report.Write.Inserted,
		Cutoff:    report.Write.Cutoff,
		Timestamp: time.Now(),
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := s.notifier.PublishIngest(notifyCtx, event); err != nil {
		l.Warn("Ingest notification failed, data is committed", "error", err)
	}
}
