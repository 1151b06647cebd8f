package puzzle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Side identifies one jaw and the hand gripping it.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// PliersConfig maps the distance between the two grab points to jaw openness.
type PliersConfig struct {
	ClosedDistance float64 // metres; at or below this the jaws are shut
	OpenDistance   float64 // metres; at or above this the jaws are wide open
	MaxAngle       float64 // degrees per jaw when fully open
	CloseThreshold float64 // openness at or below which a cut is attempted
}

// DefaultPliersConfig returns the stock gripping geometry.
func DefaultPliersConfig() PliersConfig {
	return PliersConfig{ClosedDistance: 0.06, OpenDistance: 0.20, MaxAngle: 20, CloseThreshold: 0.08}
}

// Pliers is the two-handed wire cutter. Each jaw tracks at most one wire; a
// cut happens only when both jaws hold the same uncut wire and are closed.
type Pliers struct {
	cfg      PliersConfig
	grabbed  [2]bool
	jaw      [2]*Wire
	openness float64
	angle    [2]float64
	cuts     int
}

// NewPliers validates cfg and returns open pliers.
func NewPliers(cfg PliersConfig) (*Pliers, error) {
	for _, v := range []float64{cfg.ClosedDistance, cfg.OpenDistance, cfg.MaxAngle, cfg.CloseThreshold} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, configErr("pliers values must be finite")
		}
	}
	if cfg.ClosedDistance < 0 || cfg.OpenDistance <= cfg.ClosedDistance {
		return nil, configErr("pliers need 0 <= closed distance < open distance, got %v and %v", cfg.ClosedDistance, cfg.OpenDistance)
	}
	if cfg.CloseThreshold < 0 || cfg.CloseThreshold > 1 {
		return nil, configErr("pliers close threshold must be within [0,1], got %v", cfg.CloseThreshold)
	}
	p := &Pliers{cfg: cfg, openness: 1}
	p.angle = [2]float64{-cfg.MaxAngle, cfg.MaxAngle}
	return p, nil
}

// Grab records a hand taking or letting go of one handle.
func (p *Pliers) Grab(side Side, held bool) {
	if side != Left && side != Right {
		return
	}
	p.grabbed[side] = held
}

// Grabbed reports whether both handles are held.
func (p *Pliers) Grabbed() bool { return p.grabbed[Left] && p.grabbed[Right] }

// SetDistance feeds the distance between the grab points. It returns true when
// the update cut a wire. Ignored unless both handles are held.
func (p *Pliers) SetDistance(d float64) bool {
	if !p.Grabbed() || math.IsNaN(d) || math.IsInf(d, 0) {
		return false
	}
	t := clamp01((d - p.cfg.ClosedDistance) / (p.cfg.OpenDistance - p.cfg.ClosedDistance))
	p.openness = t
	p.angle[Left] = -p.cfg.MaxAngle * t
	p.angle[Right] = p.cfg.MaxAngle * t
	return p.tryCut()
}

// UpdateHands derives the grab distance from two hand positions.
func (p *Pliers) UpdateHands(left, right mgl64.Vec3) bool {
	return p.SetDistance(right.Sub(left).Len())
}

// TouchEnter records w coming into proximity of a jaw. The last wire seen wins.
// It cuts only while both handles are held.
func (p *Pliers) TouchEnter(side Side, w *Wire) bool {
	if w == nil || (side != Left && side != Right) {
		return false
	}
	p.jaw[side] = w
	return p.tryCut()
}

// TouchExit clears the jaw, but only if w is the wire it tracks.
func (p *Pliers) TouchExit(side Side, w *Wire) {
	if side != Left && side != Right {
		return
	}
	if p.jaw[side] == w {
		p.jaw[side] = nil
	}
}

// Openness is the normalized jaw opening in [0,1].
func (p *Pliers) Openness() float64 { return p.openness }

// JawAngle returns the opening angle of one jaw in degrees.
func (p *Pliers) JawAngle(side Side) float64 {
	if side != Left && side != Right {
		return 0
	}
	return p.angle[side]
}

// Tracked returns the wire a jaw currently tracks, or nil.
func (p *Pliers) Tracked(side Side) *Wire {
	if side != Left && side != Right {
		return nil
	}
	return p.jaw[side]
}

// Cuts returns how many wires these pliers have cut.
func (p *Pliers) Cuts() int { return p.cuts }

func (p *Pliers) tryCut() bool {
	if !p.Grabbed() || p.openness > p.cfg.CloseThreshold {
		return false
	}
	w := p.jaw[Left]
	if w == nil || w != p.jaw[Right] || w.IsCut() {
		return false
	}
	if !w.Cut() {
		return false
	}
	p.cuts++
	return true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
