package mapper

import "fmt"

// Dialect selects placeholder style, column types and value encoding
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// ParseDialect maps the DB_DRIVER / -driver value. The accepted names are the
// ones config.Validate allows.
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DriverName is the database/sql driver registered for the dialect
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// placeholder returns the n-th (1-based) bind parameter
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) columnType(c Column) string {
	if d == Postgres {
		return c.PostgresType
	}
	return c.SQLiteType
}
