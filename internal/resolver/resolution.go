package resolver

import (
	"fmt"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/transit"
	"github.com/Guizzs26/go-traintracker/pkg/encoding"
)

// Resolution is the outcome of a station search: Single, Ambiguous or NotFound
type Resolution interface {
	resolution()
}

type Single struct {
	Station models.Station
}

type Ambiguous struct {
	Candidates map[string]int64
}

type NotFound struct{}

func (Single) resolution()    {}
func (Ambiguous) resolution() {}
func (NotFound) resolution()  {}

// Classify turns a search answer into a Resolution. Any entry without an
// evaNumber or a name makes the whole answer malformed.
func Classify(places []transit.StopPlace) (Resolution, error) {
	stations := make([]models.Station, 0, len(places))
	for i, p := range places {
		if p.EvaNumber == nil || p.Name == nil || *p.Name == "" {
			return nil, fmt.Errorf("entry %d lacks evaNumber or name", i)
		}
		stations = append(stations, models.Station{
			ID:   int64(*p.EvaNumber),
			Name: encoding.NormalizeName(*p.Name),
		})
	}

	switch len(stations) {
	case 0:
		return NotFound{}, nil
	case 1:
		return Single{Station: stations[0]}, nil
	default:
		candidates := make(map[string]int64, len(stations))
		for _, s := range stations {
			candidates[s.Name] = s.ID
		}
		return Ambiguous{Candidates: candidates}, nil
	}
}
