package departures

import (
	"fmt"
	"time"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/transit"
	"github.com/Guizzs26/go-traintracker/pkg/encoding"
)

// MalformedRecordError marks a board entry that cannot be turned into a Departure
type MalformedRecordError struct {
	Station models.Station
	Index   int
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed departure #%d at %s: %s", e.Index, e.Station, e.Reason)
}

// Decompose converts one departed board entry into a Departure dated day.
// raw.Departure must not be nil.
func Decompose(station models.Station, day models.Date, raw transit.RawDeparture, loc *time.Location) (models.Departure, error) {
	malformed := func(reason string) (models.Departure, error) {
		return models.Departure{}, &MalformedRecordError{Station: station, Reason: reason}
	}

	switch {
	case raw.Departure == nil:
		return malformed("missing departure")
	case raw.Departure.ScheduledTime.IsZero():
		return malformed("missing departure.scheduledTime")
	case raw.Departure.Time.IsZero():
		return malformed("missing departure.time")
	case raw.InitialDeparture.IsZero():
		return malformed("missing initialDeparture")
	case len(raw.Route) == 0:
		return malformed("empty route")
	}

	scheduled := raw.Departure.ScheduledTime.In(loc)
	actual := raw.Departure.Time.In(loc)

	return models.Departure{
		Station:       station,
		Date:          day,
		Name:          raw.Train.Name,
		Number:        int64(raw.Train.Number),
		Start:         encoding.NormalizeName(raw.Route[0].Name),
		End:           encoding.NormalizeName(raw.Route[len(raw.Route)-1].Name),
		StartingTime:  raw.InitialDeparture.In(loc),
		ScheduledTime: scheduled,
		ActualTime:    actual,
		Delay:         models.DelayMinutes(scheduled, actual),
		Message:       earliestMessage(raw.Messages.Delay, loc),
	}, nil
}

// earliestMessage picks the delay message with the smallest timestamp.
// On equal timestamps the first one in API order wins.
func earliestMessage(msgs []transit.DelayMessage, loc *time.Location) *models.Message {
	if len(msgs) == 0 {
		return nil
	}

	best := msgs[0]
	for _, m := range msgs[1:] {
		if m.Timestamp.Before(best.Timestamp.Time) {
			best = m
		}
	}

	return &models.Message{
		Timestamp: best.Timestamp.In(loc),
		Value:     best.Value,
		Text:      best.Text,
	}
}
