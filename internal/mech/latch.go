package mech

import (
	"errors"
	"fmt"
	"math"
)

var ErrConfig = errors.New("invalid mechanism config")

// Latch debounces a boolean condition. On every false->true edge it schedules a
// check hold seconds later; if the condition still holds then, OnRelease fires.
// It fires at most once per true period; going false cancels the pending check
// and re-arms the latch.
type Latch struct {
	sched     *Scheduler
	hold      float64
	onRelease func()

	holds   bool
	fired   bool
	pending *Timer
}

// NewLatch creates a latch driven by sched.
func NewLatch(sched *Scheduler, hold float64, onRelease func()) (*Latch, error) {
	if sched == nil {
		return nil, fmt.Errorf("%w: latch needs a scheduler", ErrConfig)
	}
	if math.IsNaN(hold) || math.IsInf(hold, 0) || hold < 0 {
		return nil, fmt.Errorf("%w: latch hold must be a finite value >= 0, got %v", ErrConfig, hold)
	}
	return &Latch{sched: sched, hold: hold, onRelease: onRelease}, nil
}

// Update feeds the current condition.
func (l *Latch) Update(holds bool) {
	if !holds {
		l.holds = false
		l.fired = false
		l.cancel()
		return
	}
	if l.holds {
		return
	}
	l.holds = true
	l.cancel()
	l.pending = l.sched.After(l.hold, l.check)
}

// Pending reports whether a release check is scheduled.
func (l *Latch) Pending() bool { return l.pending.Pending() }

// Fired reports whether the latch released during the current true period.
func (l *Latch) Fired() bool { return l.fired }

// Reset cancels any pending check and forgets the current condition.
func (l *Latch) Reset() {
	l.holds = false
	l.fired = false
	l.cancel()
}

func (l *Latch) cancel() {
	if l.pending != nil {
		l.sched.Cancel(l.pending)
		l.pending = nil
	}
}

func (l *Latch) check() {
	l.pending = nil
	if !l.holds || l.fired {
		return
	}
	l.fired = true
	if l.onRelease != nil {
		l.onRelease()
	}
}
