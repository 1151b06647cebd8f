package bomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/mech"
)

func newCountdown(t *testing.T, total float64, sink events.Sink) (*Countdown, *mech.Scheduler) {
	t.Helper()
	sched := mech.NewScheduler()
	c, err := NewCountdown(CountdownConfig{Total: total, SlowInterval: 1, FastInterval: 0.25}, sched, sink)
	require.NoError(t, err)
	return c, sched
}

func TestCountdownSingleArm(t *testing.T) {
	c, _ := newCountdown(t, 10, nil)

	c.Tick(1)
	assert.Equal(t, 10.0, c.Remaining(), "not started")
	assert.True(t, c.Start())
	assert.False(t, c.Start())
	c.Tick(2.5)
	assert.Equal(t, 7.5, c.Remaining())

	c.Stop()
	assert.False(t, c.Start(), "stopped is terminal")
	c.Tick(1)
	assert.Equal(t, 7.5, c.Remaining())
	assert.False(t, c.Expired())
}

func TestCountdownExpiresOnce(t *testing.T) {
	c, _ := newCountdown(t, 2, nil)
	fired := 0
	c.OnExpire(func() { fired++ })
	unsub := c.OnExpire(func() { t.Fatal("removed listener called") })
	unsub()

	c.Start()
	c.Tick(1.5)
	c.Tick(1.5)
	c.Tick(1.5)
	assert.Equal(t, 0.0, c.Remaining(), "clamped at zero")
	assert.True(t, c.Expired())
	assert.True(t, c.Stopped())
	assert.Equal(t, 1, fired)
}

func TestCountdownCueInterval(t *testing.T) {
	c, _ := newCountdown(t, 10, nil)
	c.Start()
	assert.Equal(t, 1.0, c.CueInterval())
	c.Tick(5)
	assert.InDelta(t, 0.625, c.CueInterval(), 1e-9)
	c.Tick(5)
	assert.InDelta(t, 0.25, c.CueInterval(), 1e-9)
}

func TestCountdownCuesNeverTouchRemaining(t *testing.T) {
	rec := &events.Recorder{}
	c, sched := newCountdown(t, 100, rec)
	c.Start()

	sched.Advance(3.5)
	assert.Equal(t, 3, c.Cues())
	assert.Len(t, rec.OfType(events.TickCue), 3)
	assert.Equal(t, 100.0, c.Remaining())

	c.Stop()
	sched.Advance(10)
	assert.Equal(t, 3, c.Cues(), "stop cancels the cue")
	assert.Zero(t, sched.Len())
}

func TestCountdownEasing(t *testing.T) {
	assert.InDelta(t, 0.75, EaseOutQuad.apply(0.5), 1e-9)
	assert.InDelta(t, 0.5, EaseInOutCubic.apply(0.5), 1e-9)
	assert.InDelta(t, 0.3, EaseLinear.apply(0.3), 1e-9)
	assert.Equal(t, 1.0, Easing("").apply(7))
	assert.False(t, Easing("bounce").Valid())
}

func TestCountdownConfig(t *testing.T) {
	sched := mech.NewScheduler()
	for _, cfg := range []CountdownConfig{
		{Total: 0, SlowInterval: 1, FastInterval: 1},
		{Total: 10, SlowInterval: 0, FastInterval: 1},
		{Total: 10, SlowInterval: 1, FastInterval: 1, Easing: "bounce"},
	} {
		_, err := NewCountdown(cfg, sched, nil)
		assert.ErrorIs(t, err, ErrConfig)
	}
	_, err := NewCountdown(CountdownConfig{Total: 1, SlowInterval: 1, FastInterval: 1}, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
}
