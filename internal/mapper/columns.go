package mapper

// Column is one destination column with its type per dialect
type Column struct {
	Name         string
	SQLiteType   string
	PostgresType string
}

// departureColumns is the flattened shape of models.Departure, in insert order.
// Flatten must produce exactly these keys.
var departureColumns = []Column{
	{"station_id", "INTEGER", "BIGINT"},
	{"station_name", "TEXT", "TEXT"},
	{"date", "TEXT", "DATE"},
	{"name", "TEXT", "TEXT"},
	{"number", "INTEGER", "BIGINT"},
	{"start", "TEXT", "TEXT"},
	{"end", "TEXT", "TEXT"},
	{"starting_time", "TEXT", "TIMESTAMPTZ"},
	{"scheduled_time", "TEXT", "TIMESTAMPTZ"},
	{"actual_time", "TEXT", "TIMESTAMPTZ"},
	{"delay", "INTEGER", "INTEGER"},
	{"message_timestamp", "TEXT", "TIMESTAMPTZ"},
	{"message_value", "INTEGER", "INTEGER"},
	{"message_text", "TEXT", "TEXT"},
}

// Columns returns the ordered column list of the departures table
func Columns() []Column {
	out := make([]Column, len(departureColumns))
	copy(out, departureColumns)
	return out
}

func ColumnNames() []string {
	names := make([]string, len(departureColumns))
	for i, c := range departureColumns {
		names[i] = c.Name
	}
	return names
}
