package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/events"
)

func TestCollectorCountsEvents(t *testing.T) {
	c := New()
	for _, e := range []events.Event{
		{Type: events.BombArmed},
		{Type: events.PuzzleSolvedChanged, Kind: "keypad", Solved: true},
		{Type: events.PuzzleSolvedChanged, Kind: "shape_board", Solved: false},
		{Type: events.WireCut, Subject: "wire-3"},
		{Type: events.ScrewRemoved},
		{Type: events.ScrewRemoved},
		{Type: events.LidReleased},
		{Type: events.TickCue},
		{Type: events.BombOutcome, Outcome: "defused"},
	} {
		c.Emit(e)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Armed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PuzzleChanges.WithLabelValues("keypad", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PuzzleChanges.WithLabelValues("shape_board", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.WiresCut))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ScrewsRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LidsReleased))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TickCues))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Outcomes.WithLabelValues("defused")))
}

func TestCollectorHandler(t *testing.T) {
	c := New()
	c.Emit(events.Event{Type: events.BombOutcome, Outcome: "exploded"})
	c.ObserveFrame(time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `defuse_outcomes_total{outcome="exploded"} 1`)
	assert.Contains(t, string(body), "defuse_frame_seconds_count 1")
}
