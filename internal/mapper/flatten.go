package mapper

import (
	"github.com/Guizzs26/go-traintracker/internal/models"
)

// Sep joins a parent key and its child keys
const Sep = "_"

// Row is a flattened departure: column name -> scalar or nil
type Row map[string]any

// Flatten expands the nested station and message of d into prefixed keys.
// The message keys are always present and nil when d has no message, so every
// row of a batch has the same key set.
func Flatten(d models.Departure) Row {
	row := Row{
		"date":           d.Date,
		"name":           d.Name,
		"number":         d.Number,
		"start":          d.Start,
		"end":            d.End,
		"starting_time":  d.StartingTime,
		"scheduled_time": d.ScheduledTime,
		"actual_time":    d.ActualTime,
		"delay":          d.Delay,
	}

	nest(row, "station", Row{
		"id":   d.Station.ID,
		"name": d.Station.Name,
	})

	message := Row{"timestamp": nil, "value": nil, "text": nil}
	if d.Message != nil {
		message = Row{
			"timestamp": d.Message.Timestamp,
			"value":     d.Message.Value,
			"text":      d.Message.Text,
		}
	}
	nest(row, "message", message)

	return row
}

// FlattenAll flattens a batch, keeping its order
func FlattenAll(deps []models.Departure) []Row {
	rows := make([]Row, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, Flatten(d))
	}
	return rows
}

func nest(dst Row, parent string, child Row) {
	for k, v := range child {
		if sub, ok := v.(Row); ok {
			nest(dst, parent+Sep+k, sub)
			continue
		}
		dst[parent+Sep+k] = v
	}
}

// Values lays the row out positionally in the order of cols
func (r Row) Values(cols []Column) []any {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = r[c.Name]
	}
	return vals
}
