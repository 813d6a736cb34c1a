package transit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// StopPlace is one search hit. Fields are pointers so a missing key can be told
// apart from a zero value.
type StopPlace struct {
	EvaNumber *FlexInt `json:"evaNumber"`
	Name      *string  `json:"name"`
}

// DeparturesResponse is the departure board of a station
type DeparturesResponse struct {
	Lookbehind []RawDeparture `json:"lookbehind"`
	Departures []RawDeparture `json:"departures"`
}

// RawDeparture is one entry of the board as sent by the API
type RawDeparture struct {
	Departure        *StopTime   `json:"departure"`
	InitialDeparture Timestamp   `json:"initialDeparture"`
	Train            Train       `json:"train"`
	Route            []RouteStop `json:"route"`
	Messages         Messages    `json:"messages"`
}

type StopTime struct {
	ScheduledTime Timestamp `json:"scheduledTime"`
	Time          Timestamp `json:"time"`
}

type Train struct {
	Name   string  `json:"name"`
	Number FlexInt `json:"number"`
}

type RouteStop struct {
	Name string `json:"name"`
}

type Messages struct {
	Delay []DelayMessage `json:"delay"`
}

type DelayMessage struct {
	Timestamp Timestamp `json:"timestamp"`
	Value     int       `json:"value"`
	Text      string    `json:"text"`
}

// Timestamp accepts RFC 3339 strings and epoch milliseconds
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// FlexInt accepts both 123 and "123"; train numbers arrive in either form
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}

	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", b, err)
	}
	*n = FlexInt(v)
	return nil
}
