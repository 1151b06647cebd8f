package mech

import "math"

// Accumulator turns a stream of signed deltas into a one-way threshold crossing.
// The running sum uses |delta|, so back-and-forth motion still counts.
type Accumulator struct {
	Threshold float64 // sum at which the accumulator is considered crossed
	sum       float64
	crossed   bool
}

// NewAccumulator creates an accumulator. A threshold <= 0 starts crossed.
func NewAccumulator(threshold float64) *Accumulator {
	return &Accumulator{Threshold: threshold, crossed: !(threshold > 0)}
}

// Accumulate adds |delta| and reports whether the threshold has been reached.
// Once crossed it stays crossed; NaN and infinite deltas are ignored.
func (a *Accumulator) Accumulate(delta float64) bool {
	if a.crossed {
		return true
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return false
	}
	a.sum += math.Abs(delta)
	if a.sum >= a.Threshold {
		a.crossed = true
	}
	return a.crossed
}

// Sum returns the accumulated absolute distance.
func (a *Accumulator) Sum() float64 { return a.sum }

// Crossed reports whether the threshold has been reached.
func (a *Accumulator) Crossed() bool { return a.crossed }
