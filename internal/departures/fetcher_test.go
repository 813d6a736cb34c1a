package departures

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guizzs26/go-traintracker/internal/models"
	"github.com/Guizzs26/go-traintracker/internal/transit"
)

var frankfurt = models.Station{ID: 8000105, Name: "Frankfurt(Main)Hbf"}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const boardJSON = `{
	"lookbehind": [
		{
			"departure": {"scheduledTime": "2024-03-01T22:50:00Z", "time": "2024-03-01T23:04:30Z"},
			"initialDeparture": "2024-03-01T22:58:00+01:00",
			"train": {"name": "ICE 1234", "number": 1234},
			"route": [{"name": "Hamburg-Altona"}, {"name": "Frankfurt(Main)Hbf"}, {"name": "Basel SBB"}],
			"messages": {"delay": [
				{"timestamp": "2024-03-01T22:40:00Z", "value": 80, "text": "Verspätung eines vorausfahrenden Zuges"},
				{"timestamp": "2024-03-01T22:30:00Z", "value": 43, "text": "Reparatur am Zug"},
				{"timestamp": "2024-03-01T22:30:00Z", "value": 99, "text": "Polizeieinsatz"}
			]}
		},
		{
			"initialDeparture": "2024-03-01T23:10:00+01:00",
			"train": {"name": "RE 4711", "number": "4711"},
			"route": [{"name": "Frankfurt(Main)Hbf"}, {"name": "Fulda"}],
			"messages": {"delay": []}
		},
		{
			"departure": {"scheduledTime": "2024-03-01T23:15:00Z", "time": "2024-03-01T23:14:30Z"},
			"initialDeparture": "2024-03-02T00:01:00+01:00",
			"train": {"name": "S 8", "number": 35812},
			"route": [{"name": "Wiesbaden Hbf"}, {"name": "Hanau Hbf"}],
			"messages": {}
		}
	],
	"departures": []
}`

func newBoardServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iris/v2/abfahrten/8000105", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("lookahead"))
		assert.Equal(t, "420", r.URL.Query().Get("lookbehind"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch(t *testing.T) {
	loc := berlin(t)
	server := newBoardServer(t, http.StatusOK, boardJSON)
	f := NewFetcher(transit.NewClient(server.URL, 5*time.Second), loc, 420, discard())

	deps, err := f.Fetch(context.Background(), frankfurt)
	require.NoError(t, err)
	require.Len(t, deps, 2, "the entry without a departure object is skipped")

	ice := deps[0]
	assert.Equal(t, frankfurt, ice.Station)
	assert.Equal(t, "2024-03-01", ice.Date.String())
	assert.Equal(t, "ICE 1234", ice.Name)
	assert.EqualValues(t, 1234, ice.Number)
	assert.Equal(t, "Hamburg-Altona", ice.Start)
	assert.Equal(t, "Basel SBB", ice.End)
	assert.Equal(t, loc, ice.ScheduledTime.Location())
	assert.Equal(t, loc, ice.ActualTime.Location())
	assert.True(t, time.Date(2024, 3, 1, 23, 50, 0, 0, loc).Equal(ice.ScheduledTime))
	assert.Equal(t, 14, ice.Delay, "14m30s floors to 14")
	require.NotNil(t, ice.Message)
	assert.Equal(t, 43, ice.Message.Value, "earliest message wins, first one on a tie")
	assert.Equal(t, "Reparatur am Zug", ice.Message.Text)

	s8 := deps[1]
	assert.Equal(t, -1, s8.Delay, "30s early floors to -1")
	assert.Nil(t, s8.Message)
	assert.Equal(t, "2024-03-01", s8.Date.String(), "date comes from the first entry of the board")
	assert.True(t, time.Date(2024, 3, 2, 0, 1, 0, 0, loc).Equal(s8.StartingTime))
}

func TestFetchEmptyLookbehind(t *testing.T) {
	for _, body := range []string{`{"lookbehind": []}`, `{}`} {
		server := newBoardServer(t, http.StatusOK, body)
		f := NewFetcher(transit.NewClient(server.URL, 5*time.Second), berlin(t), 420, discard())

		deps, err := f.Fetch(context.Background(), frankfurt)
		require.NoError(t, err)
		assert.Empty(t, deps)
	}
}

func TestFetchPropagatesTransportError(t *testing.T) {
	server := newBoardServer(t, http.StatusInternalServerError, "boom")
	f := NewFetcher(transit.NewClient(server.URL, 5*time.Second), berlin(t), 420, discard())

	_, err := f.Fetch(context.Background(), frankfurt)
	require.Error(t, err)
	assert.True(t, transit.IsTransport(err))
}

func TestFetchMalformedRecord(t *testing.T) {
	body := `{"lookbehind": [
		{"departure": {"scheduledTime": "2024-03-01T10:00:00Z", "time": "2024-03-01T10:00:00Z"},
		 "initialDeparture": "2024-03-01T09:00:00Z", "train": {"name": "RB 1", "number": 1},
		 "route": [{"name": "A"}], "messages": {"delay": []}},
		{"departure": {"scheduledTime": "2024-03-01T10:00:00Z", "time": "2024-03-01T10:00:00Z"},
		 "initialDeparture": "2024-03-01T09:00:00Z", "train": {"name": "RB 2", "number": 2},
		 "route": [], "messages": {"delay": []}}
	]}`
	server := newBoardServer(t, http.StatusOK, body)
	f := NewFetcher(transit.NewClient(server.URL, 5*time.Second), berlin(t), 420, discard())

	_, err := f.Fetch(context.Background(), frankfurt)

	var mr *MalformedRecordError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 1, mr.Index)
	assert.Equal(t, "empty route", mr.Reason)
}

func TestDecomposeDelayInvariant(t *testing.T) {
	loc := berlin(t)
	scheduled := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{
		0, 59 * time.Second, time.Minute, 90 * time.Minute,
		-time.Second, -time.Minute, -61 * time.Second,
	} {
		raw := transit.RawDeparture{
			Departure: &transit.StopTime{
				ScheduledTime: transit.Timestamp{Time: scheduled},
				Time:          transit.Timestamp{Time: scheduled.Add(offset)},
			},
			InitialDeparture: transit.Timestamp{Time: scheduled.Add(-time.Hour)},
			Route:            []transit.RouteStop{{Name: "Mainz Hbf"}},
		}

		d, err := Decompose(frankfurt, models.DateOf(scheduled), raw, loc)
		require.NoError(t, err)
		assert.Equal(t, models.DelayMinutes(d.ScheduledTime, d.ActualTime), d.Delay, "offset %v", offset)
		assert.Equal(t, "Mainz Hbf", d.Start)
		assert.Equal(t, "Mainz Hbf", d.End)
	}
}

func TestDecomposeRequiresDeparture(t *testing.T) {
	_, err := Decompose(frankfurt, models.Date{}, transit.RawDeparture{}, time.UTC)
	assert.Error(t, err)
}
