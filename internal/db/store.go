package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Guizzs26/go-traintracker/internal/mapper"
)

// Store wraps the destination database of the departures table
type Store struct {
	db      *sql.DB
	dialect mapper.Dialect
	logger  *slog.Logger
}

// Open connects to a SQLite file or a Postgres server, depending on dialect
func Open(ctx context.Context, dialect mapper.Dialect, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dialect, err)
	}

	if dialect == mapper.SQLite {
		// one writer per file; a second connection would only hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping failed: %w", dialect, err)
	}

	if dialect == mapper.SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting busy_timeout: %w", err)
		}
	}

	logger.Debug("Connected to destination database", "dialect", dialect.String())

	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}, nil
}

// NewStore wraps an already open handle, mainly for tests
func NewStore(db *sql.DB, dialect mapper.Dialect, logger *slog.Logger) *Store {
	return &Store{db: db, dialect: dialect, logger: logger}
}

func (s *Store) Dialect() mapper.Dialect { return s.dialect }

// BeginTx starts a transaction with the driver's default isolation level
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// DB exposes the handle for read queries
func (s *Store) DB() *sql.DB { return s.db }

// Close shuts down the connection pool
func (s *Store) Close() error {
	s.logger.Debug("Closing destination database")
	return s.db.Close()
}
