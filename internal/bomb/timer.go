package bomb

import (
	"errors"
	"fmt"
	"math"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/mech"
)

var ErrConfig = errors.New("invalid bomb config")

// CountdownConfig is the static time budget of a session.
type CountdownConfig struct {
	Total        float64 // seconds
	SlowInterval float64 // cue period at the start
	FastInterval float64 // cue period at zero
	Easing       Easing
}

// Countdown is the bomb timer. Tick is the authority on remaining time; the
// audio cue runs on the scheduler next to it and only reads the progress.
type Countdown struct {
	cfg   CountdownConfig
	sched *mech.Scheduler
	sink  events.Sink

	remaining float64
	started   bool
	stopped   bool
	expired   bool
	cue       *mech.Timer
	cues      int

	nextID  int
	expires []expireListener
}

type expireListener struct {
	id int
	fn func()
}

// NewCountdown validates cfg and returns an unstarted timer.
func NewCountdown(cfg CountdownConfig, sched *mech.Scheduler, sink events.Sink) (*Countdown, error) {
	if sched == nil {
		return nil, fmt.Errorf("%w: countdown needs a scheduler", ErrConfig)
	}
	if !(cfg.Total > 0) || math.IsInf(cfg.Total, 0) {
		return nil, fmt.Errorf("%w: countdown total must be > 0, got %v", ErrConfig, cfg.Total)
	}
	if !(cfg.SlowInterval > 0) || !(cfg.FastInterval > 0) ||
		math.IsInf(cfg.SlowInterval, 0) || math.IsInf(cfg.FastInterval, 0) {
		return nil, fmt.Errorf("%w: cue intervals must be > 0, got %v and %v", ErrConfig, cfg.SlowInterval, cfg.FastInterval)
	}
	if !cfg.Easing.Valid() {
		return nil, fmt.Errorf("%w: unknown cue easing %q", ErrConfig, cfg.Easing)
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Countdown{cfg: cfg, sched: sched, sink: sink, remaining: cfg.Total}, nil
}

// Start begins the countdown. Only the first call has an effect.
func (c *Countdown) Start() bool {
	if c.started || c.stopped {
		return false
	}
	c.started = true
	c.scheduleCue()
	return true
}

// Stop freezes the timer for good.
func (c *Countdown) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	if c.cue != nil {
		c.sched.Cancel(c.cue)
		c.cue = nil
	}
}

// Tick consumes dt seconds of the budget. Reaching zero stops the timer and
// notifies the expiry listeners once.
func (c *Countdown) Tick(dt float64) {
	if !c.started || c.stopped || !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	c.remaining -= dt
	if c.remaining > 0 {
		return
	}
	c.remaining = 0
	c.expired = true
	c.Stop()
	for _, l := range append([]expireListener(nil), c.expires...) {
		l.fn()
	}
}

// OnExpire registers fn and returns a function that removes it.
func (c *Countdown) OnExpire(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.expires = append(c.expires, expireListener{id: id, fn: fn})
	return func() {
		for i, l := range c.expires {
			if l.id == id {
				c.expires = append(c.expires[:i], c.expires[i+1:]...)
				return
			}
		}
	}
}

// Progress is 1 - remaining/total.
func (c *Countdown) Progress() float64 {
	return 1 - c.remaining/c.cfg.Total
}

// CueInterval is the current period of the tick cue, moving from the slow to
// the fast interval as progress goes from 0 to 1.
func (c *Countdown) CueInterval() float64 {
	return lerp(c.cfg.SlowInterval, c.cfg.FastInterval, c.cfg.Easing.apply(c.Progress()))
}

func (c *Countdown) Remaining() float64 { return c.remaining }
func (c *Countdown) Total() float64     { return c.cfg.Total }
func (c *Countdown) Started() bool      { return c.started }
func (c *Countdown) Stopped() bool      { return c.stopped }
func (c *Countdown) Expired() bool      { return c.expired }

// Cues returns how many tick cues have fired.
func (c *Countdown) Cues() int { return c.cues }

func (c *Countdown) scheduleCue() {
	c.cue = c.sched.After(c.CueInterval(), c.fireCue)
}

func (c *Countdown) fireCue() {
	c.cue = nil
	if c.stopped {
		return
	}
	c.cues++
	c.sink.Emit(events.Event{Type: events.TickCue})
	c.scheduleCue()
}
