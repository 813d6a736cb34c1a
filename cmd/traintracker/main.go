package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Guizzs26/go-traintracker/internal/broker"
	"github.com/Guizzs26/go-traintracker/internal/config"
	"github.com/Guizzs26/go-traintracker/internal/db"
	"github.com/Guizzs26/go-traintracker/internal/departures"
	"github.com/Guizzs26/go-traintracker/internal/mapper"
	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/processor"
	"github.com/Guizzs26/go-traintracker/internal/resolver"
	"github.com/Guizzs26/go-traintracker/internal/service"
	"github.com/Guizzs26/go-traintracker/internal/transit"
	"github.com/Guizzs26/go-traintracker/pkg/infra"
	"github.com/Guizzs26/go-traintracker/pkg/metrics"
)

type options struct {
	file     string
	table    string
	driver   string
	replace  bool
	stations []string
}

// parseFlags applies command line flags on top of cfg. -f/--file and -t/--table
// are both accepted.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	opts := options{}

	fs := flag.NewFlagSet("traintracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: traintracker [-f file] [-t table] [-driver sqlite|postgres] [-replace=true] station...")
		fs.PrintDefaults()
	}

	for _, name := range []string{"f", "file"} {
		fs.StringVar(&opts.file, name, cfg.DatabaseFile, "SQLite database file")
	}
	for _, name := range []string{"t", "table"} {
		fs.StringVar(&opts.table, name, cfg.Table, "table the departures are written to")
	}
	fs.StringVar(&opts.driver, "driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	fs.BoolVar(&opts.replace, "replace", true, "rewrite the provisional tail of the covered dates")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.stations = fs.Args()
	if len(opts.stations) == 0 {
		fs.Usage()
		return opts, errors.New("at least one station is required")
	}

	cfg.DatabaseFile = opts.file
	cfg.Table = opts.table
	cfg.DatabaseDriver = opts.driver
	return opts, nil
}

// printResolutionError tells the user which search text failed and, when
// ambiguous, which stations it could have meant.
func printResolutionError(w io.Writer, err error) {
	st := newStyles(w)
	label := st.errorLabel.Render("ERROR")

	var ambiguous *resolver.AmbiguousStationError
	var notFound *resolver.NotFoundError
	var malformed *resolver.MalformedResponseError

	switch {
	case errors.As(err, &ambiguous):
		fmt.Fprintf(w, "%s  Multiple stations found for %s:\n", label, st.search.Render(ambiguous.Search))
		names := make([]string, 0, len(ambiguous.Candidates))
		for name := range ambiguous.Candidates {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s (%d)\n", name, ambiguous.Candidates[name])
		}
	case errors.As(err, &notFound):
		fmt.Fprintf(w, "%s  No station found for %s\n", label, st.search.Render(notFound.Search))
	case errors.As(err, &malformed):
		fmt.Fprintf(w, "%s  No matches for %s: %s\n", label, st.search.Render(malformed.Search), malformed.Reason)
	default:
		fmt.Fprintf(w, "%s  %v\n", label, err)
	}
}

func printFound(w io.Writer, stations []models.Station) {
	fmt.Fprintf(w, "Found %s stations: %s\n", newStyles(w).success.Render("all"), stationList(stations))
}

func stationList(stations []models.Station) string {
	parts := make([]string, len(stations))
	for i, s := range stations {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func main() {
	cfg := config.Load()
	opts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	code := run(opts, cfg, logger)
	infra.CloseLogger()
	os.Exit(code)
}

func run(opts options, cfg *config.Config, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("FATAL: Unknown timezone", "timezone", cfg.Timezone, "error", err)
		return 1
	}

	dialect, err := mapper.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		logger.Error("FATAL: Unsupported database driver", "error", err)
		return 1
	}

	client := transit.NewClient(cfg.APIPrefix, cfg.HTTPTimeout)
	res := resolver.New(client, cfg.StationCacheSize, cfg.StationCacheTTL, logger)

	// Resolve before opening anything else: an unknown station must not touch the store
	stations, err := res.ResolveAll(ctx, opts.stations)
	if err != nil {
		if errors.Is(err, resolver.ErrResolution) {
			printResolutionError(os.Stdout, err)
		} else {
			logger.Error("Station search failed", "error", err)
		}
		return 1
	}
	printFound(os.Stdout, stations)

	store, err := db.Open(ctx, dialect, cfg.DSN(), logger)
	if err != nil {
		logger.Error("FATAL: Failed to open database", "driver", dialect, "error", err)
		return 1
	}
	defer store.Close()

	var notifier service.Notifier
	if cfg.RabbitMQURL != "" {
		publisher, err := broker.NewPublisher(ctx, cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Warn("Notifications disabled, broker unavailable", "error", err)
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	writer := processor.NewWriter(store, mapper.NewSQLBuilder(dialect, loc), cfg.SafetyWindow, logger,
		processor.WithReplace(opts.replace))
	collector := service.NewCollector(departures.NewFetcher(client, loc, cfg.LookbehindMin, logger), cfg.FetchWorkers, logger)
	svc := service.NewIngestService(res, collector, writer, notifier, logger)

	report, err := svc.Ingest(ctx, stations, cfg.Table)
	pushMetrics(cfg, logger)
	if err != nil {
		logger.Error("Ingest run failed, nothing was written", "error", err)
		return 1
	}

	logger.Info("Done",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"deleted", report.Write.Deleted,
		"inserted", report.Write.Inserted,
	)
	return 0
}

func pushMetrics(cfg *config.Config, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	instance, _ := os.Hostname()
	if err := metrics.Push(cfg.PushgatewayURL, instance); err != nil {
		logger.Warn("Metrics push failed", "error", err)
	}
}
