package models

import "time"

// IngestEvent is published to the broker after a batch has been committed.
// It carries counts only, never the rows themselves.
type IngestEvent struct {
	EventID   string    `json:"event_id"` // UUID of the run
	Table     string    `json:"table"`
	Stations  []string  `json:"stations"`
	Dates     []string  `json:"dates"`
	Fetched   int       `json:"fetched"`
	Deleted   int64     `json:"deleted"`
	Inserted  int64     `json:"inserted"`
	Cutoff    time.Time `json:"cutoff"`
	Timestamp time.Time `json:"timestamp"`
}
