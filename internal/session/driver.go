package session

import (
	"context"
	"time"
)

const (
	DefaultRate = 60
	// MaxFrame caps the step taken after a stall.
	MaxFrame = 0.25
)

// Driver steps a session from a wall-clock ticker.
type Driver struct {
	s    *Session
	rate int
}

// NewDriver returns a driver ticking hz times per second.
func NewDriver(s *Session, hz int) *Driver {
	if hz <= 0 {
		hz = DefaultRate
	}
	return &Driver{s: s, rate: hz}
}

// Run ticks until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > MaxFrame {
				dt = MaxFrame
			}
			d.s.Tick(dt)
		}
	}
}
