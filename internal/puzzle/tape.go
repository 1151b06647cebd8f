package puzzle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/xtding233/defuse-backend/internal/events"
)

// DefaultCutterTag is the collider tag of the cutting tool.
const DefaultCutterTag = "Cutter"

// CutState is the state of a CutSensor.
type CutState int

const (
	CutIdle CutState = iota
	CutCutting
	CutSolved
)

func (s CutState) String() string {
	switch s {
	case CutCutting:
		return "cutting"
	case CutSolved:
		return "solved"
	default:
		return "idle"
	}
}

// CutSensorConfig holds the dual threshold of a tape or cable sensor.
type CutSensorConfig struct {
	RequiredDistance float64 // metres the tool must travel inside the zone
	RequiredTime     float64 // seconds the tool must dwell inside the zone
	ToolTag          string  // only colliders with this tag count; defaults to DefaultCutterTag
}

// CutSensor solves when a cutting tool passes through its zone far enough and
// long enough. A pass that falls short resets and can be retried.
type CutSensor struct {
	notifier
	cfg CutSensorConfig

	state   CutState
	travel  float64
	dwell   float64
	last    mgl64.Vec3
	hasLast bool // false until a finite position is seen in this pass
	lastAt  float64
}

// NewCutSensor creates a sensor.
func NewCutSensor(id string, cfg CutSensorConfig, sink events.Sink) (*CutSensor, error) {
	if id == "" {
		return nil, configErr("cut sensor id is required")
	}
	if !finiteNonNegative(cfg.RequiredDistance) || !finiteNonNegative(cfg.RequiredTime) {
		return nil, configErr("cut sensor %q: required distance and time must be finite and >= 0", id)
	}
	if cfg.ToolTag == "" {
		cfg.ToolTag = DefaultCutterTag
	}
	return &CutSensor{notifier: newNotifier(id, KindTapeCut, sink), cfg: cfg}, nil
}

// Enter starts a new pass. Accumulators reset even if a pass was in progress.
func (c *CutSensor) Enter(tag string, pos mgl64.Vec3, at float64) {
	if c.state == CutSolved || tag != c.cfg.ToolTag {
		return
	}
	c.state = CutCutting
	c.travel = 0
	c.dwell = 0
	c.last, c.hasLast = pos, finiteVec(pos)
	c.lastAt = at
}

// Stay samples the tool while it is inside the zone.
func (c *CutSensor) Stay(tag string, pos mgl64.Vec3, at float64) {
	if c.state != CutCutting || tag != c.cfg.ToolTag {
		return
	}
	c.sample(pos, at)
}

// Exit ends the pass and decides whether the cut counts.
func (c *CutSensor) Exit(tag string, pos mgl64.Vec3, at float64) {
	if c.state != CutCutting || tag != c.cfg.ToolTag {
		return
	}
	c.sample(pos, at)
	if c.travel >= c.cfg.RequiredDistance && c.dwell >= c.cfg.RequiredTime {
		c.state = CutSolved
		c.solvedChanged(true)
		return
	}
	c.state = CutIdle
	c.travel = 0
	c.dwell = 0
}

func (c *CutSensor) sample(pos mgl64.Vec3, at float64) {
	if finiteVec(pos) {
		if c.hasLast {
			if d := pos.Sub(c.last).Len(); finiteNonNegative(d) {
				c.travel += d
			}
		}
		c.last, c.hasLast = pos, true
	}
	if dt := at - c.lastAt; dt > 0 && !math.IsInf(dt, 0) {
		c.dwell += dt
	}
	if at > c.lastAt {
		c.lastAt = at
	}
}

// State returns the sensor state.
func (c *CutSensor) State() CutState { return c.state }

// Travel returns the distance accumulated during the current pass.
func (c *CutSensor) Travel() float64 { return c.travel }

// Dwell returns the time accumulated during the current pass.
func (c *CutSensor) Dwell() float64 { return c.dwell }

func (c *CutSensor) Solved() bool { return c.state == CutSolved }

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
