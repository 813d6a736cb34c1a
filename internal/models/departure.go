package models

import (
	"fmt"
	"time"
)

// Station is the canonical identity of a stop in the remote directory
type Station struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s Station) String() string {
	return fmt.Sprintf("%s (%d)", s.Name, s.ID)
}

// Message is the earliest reported delay cause of a departure
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int       `json:"value"`
	Text      string    `json:"text"`
}

// Date is a calendar day without a time of day
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Departure is one completed train departure at a station
type Departure struct {
	Station       Station
	Date          Date
	Name          string
	Number        int64
	Start         string
	End           string
	StartingTime  time.Time
	ScheduledTime time.Time
	ActualTime    time.Time
	Delay         int // minutes, negative when early
	Message       *Message
}

// DelayMinutes floors the difference between actual and scheduled time to whole minutes.
func DelayMinutes(scheduled, actual time.Time) int {
	d := actual.Sub(scheduled)
	minutes := d / time.Minute
	if d%time.Minute < 0 {
		minutes--
	}
	return int(minutes)
}
