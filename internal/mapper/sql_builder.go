package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/Guizzs26/go-traintracker/internal/models"
)

// sqliteTimeLayout keeps the offset so julianday() recovers the instant
const sqliteTimeLayout = "2006-01-02 15:04:05-07:00"

// SQLBuilder renders the statements of the departures writer for one dialect
type SQLBuilder struct {
	dialect Dialect
	loc     *time.Location
}

// NewSQLBuilder initializes a builder. loc is the zone SQLite text timestamps are written in.
func NewSQLBuilder(dialect Dialect, loc *time.Location) *SQLBuilder {
	return &SQLBuilder{dialect: dialect, loc: loc}
}

func (b *SQLBuilder) Dialect() Dialect { return b.dialect }

// BuildCreateTable creates the table if it is missing. An existing table is never altered.
func (b *SQLBuilder) BuildCreateTable(table string, cols []Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns declared for table %s", table)
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", QuoteIdent(c.Name), b.dialect.columnType(c)))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		QuoteIdent(table),
		strings.Join(defs, ", "),
	), nil
}

// BuildDeleteWindow removes rows of the given dates and stations whose actual_time is after cutoff
func (b *SQLBuilder) BuildDeleteWindow(table string, dates, stations []string, cutoff time.Time) (string, []any, error) {
	if len(dates) == 0 || len(stations) == 0 {
		return "", nil, fmt.Errorf("delete window on table %s needs at least one date and one station", table)
	}

	args := make([]any, 0, len(dates)+len(stations)+1)
	n := 0
	list := func(values []string) string {
		ph := make([]string, 0, len(values))
		for _, v := range values {
			n++
			ph = append(ph, b.dialect.placeholder(n))
			args = append(args, v)
		}
		return strings.Join(ph, ", ")
	}

	dateList := list(dates)
	stationList := list(stations)
	n++
	args = append(args, b.FormatValue(cutoff))

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s IN (%s) AND %s IN (%s) AND %s",
		QuoteIdent(table),
		QuoteIdent("date"), dateList,
		QuoteIdent("station_name"), stationList,
		b.after(QuoteIdent("actual_time"), b.dialect.placeholder(n)),
	)

	return query, args, nil
}

// after renders "column is later than param". SQLite text carries the UTC offset,
// which differs on both sides of the autumn clock change, so it compares instants.
func (b *SQLBuilder) after(column, param string) string {
	if b.dialect == SQLite {
		return fmt.Sprintf("julianday(%s) > julianday(%s)", column, param)
	}
	return fmt.Sprintf("%s > %s", column, param)
}

// BuildInsert generates the INSERT statement prepared once per batch
func (b *SQLBuilder) BuildInsert(table string, cols []Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns provided for insert on table %s", table)
	}

	columns := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for i, c := range cols {
		columns = append(columns, QuoteIdent(c.Name))
		placeholders = append(placeholders, b.dialect.placeholder(i+1))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	), nil
}

// InsertArgs lays out row for the statement from BuildInsert
func (b *SQLBuilder) InsertArgs(row Row, cols []Column) []any {
	vals := row.Values(cols)
	for i, v := range vals {
		vals[i] = b.FormatValue(v)
	}
	return vals
}

// FormatValue converts domain values into what the driver stores
func (b *SQLBuilder) FormatValue(v any) any {
	switch val := v.(type) {
	case models.Date:
		return val.String()
	case time.Time:
		if b.dialect == SQLite {
			return val.In(b.loc).Format(sqliteTimeLayout)
		}
		return val
	default:
		return val
	}
}

// QuoteIdent double-quotes an identifier; date, end, name and number are keywords somewhere
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
