package processor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Guizzs26/go-traintracker/internal/mapper"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"
)

// DefaultSafetyWindow is how far back rows are still considered provisional
const DefaultSafetyWindow = 6*time.Hour + 30*time.Minute

// TxBeginner is the part of the store the writer needs
type TxBeginner interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

// WriteResult summarizes one committed write
type WriteResult struct {
	Cutoff   time.Time
	Dates    []string
	Stations []string
	Deleted  int64
	Inserted int64
	Skipped  int64 // batch rows at or before the cutoff, left to earlier runs
}

// Writer refreshes the recent tail of the departures table.
//
// Rows newer than now-window may have been stored with provisional actual times,
// so they are deleted and rewritten from the new batch. Anything older is treated
// as settled: it is neither deleted nor inserted again, which means a departure is
// only stored if some run saw it within the window.
type Writer struct {
	store   TxBeginner
	builder *mapper.SQLBuilder
	window  time.Duration
	replace bool
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Writer)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithReplace toggles the delete step; without it re-runs duplicate the tail
func WithReplace(replace bool) Option {
	return func(w *Writer) { w.replace = replace }
}

func NewWriter(store TxBeginner, builder *mapper.SQLBuilder, window time.Duration, logger *slog.Logger, opts ...Option) *Writer {
	w := &Writer{
		store:   store,
		builder: builder,
		window:  window,
		replace: true,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write ensures table exists, deletes the superseded tail and inserts the batch rows
// newer than the cutoff, all in one transaction. An empty batch is a no-op.
func (w *Writer) Write(ctx context.Context, table string, rows []mapper.Row) (res WriteResult, err error) {
	if len(rows) == 0 {
		return res, nil
	}

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.WriteDuration.WithLabelValues(status, table).Observe(time.Since(start).Seconds())
	}()

	res.Cutoff = w.now().Add(-w.window).Truncate(time.Second)

	cols := mapper.Columns()
	keep, err := w.partition(rows, res.Cutoff, &res)
	if err != nil {
		return WriteResult{}, err
	}

	l := w.logger.With("table", table, "cutoff", res.Cutoff.Format(time.RFC3339))

	tx, err := w.store.BeginTx(ctx)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	// no-op after Commit
	defer tx.Rollback()

	createSQL, err := w.builder.BuildCreateTable(table, cols)
	if err != nil {
		return WriteResult{}, err
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return WriteResult{}, fmt.Errorf("creating table %s: %w", table, err)
	}

	if w.replace {
		deleteSQL, args, err := w.builder.BuildDeleteWindow(table, res.Dates, res.Stations, res.Cutoff)
		if err != nil {
			return WriteResult{}, err
		}
		result, err := tx.ExecContext(ctx, deleteSQL, args...)
		if err != nil {
			return WriteResult{}, fmt.Errorf("deleting superseded rows: %w", err)
		}
		if res.Deleted, err = result.RowsAffected(); err != nil {
			return WriteResult{}, fmt.Errorf("counting deleted rows: %w", err)
		}
	}

	if len(keep) > 0 {
		insertSQL, err := w.builder.BuildInsert(table, cols)
		if err != nil {
			return WriteResult{}, err
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return WriteResult{}, fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range keep {
			if _, err := stmt.ExecContext(ctx, w.builder.InsertArgs(row, cols)...); err != nil {
				return WriteResult{}, fmt.Errorf("inserting row %d of %d: %w", i+1, len(keep), err)
			}
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("commit failed: %w", err)
	}

	metrics.RowsWritten.WithLabelValues("deleted", table).Add(float64(res.Deleted))
	metrics.RowsWritten.WithLabelValues("inserted", table).Add(float64(res.Inserted))
	metrics.RowsWritten.WithLabelValues("skipped", table).Add(float64(res.Skipped))
	metrics.LastSuccess.SetToCurrentTime()

	l.Info("Write committed",
		"deleted", res.Deleted,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"dates", res.Dates,
		"stations", len(res.Stations),
	)

	return res, nil
}

// partition collects the batch's dates and stations and returns the rows after cutoff
func (w *Writer) partition(rows []mapper.Row, cutoff time.Time, res *WriteResult) ([]mapper.Row, error) {
	dates := make(map[string]struct{})
	stations := make(map[string]struct{})
	keep := make([]mapper.Row, 0, len(rows))

	for i, row := range rows {
		date, ok := w.builder.FormatValue(row["date"]).(string)
		if !ok {
			return nil, fmt.Errorf("row %d: date has type %T", i, row["date"])
		}
		station, ok := row["station_name"].(string)
		if !ok {
			return nil, fmt.Errorf("row %d: station_name has type %T", i, row["station_name"])
		}
		actual, ok := row["actual_time"].(time.Time)
		if !ok {
			return nil, fmt.Errorf("row %d: actual_time has type %T", i, row["actual_time"])
		}

		dates[date] = struct{}{}
		stations[station] = struct{}{}

		if actual.After(cutoff) {
			keep = append(keep, row)
		} else {
			res.Skipped++
		}
	}

	res.Dates = sortedSet(dates)
	res.Stations = sortedSet(stations)
	return keep, nil
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
