// resolve.go
package game

import (
	"errors"
	"fmt"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/puzzle"
)

var ErrMissing = errors.New("missing mandatory config")

// Built-in defaults for the optional mechanical constants.
const (
	DefaultSlowInterval    = 1.0
	DefaultFastInterval    = 0.2
	DefaultThreadPitch     = 0.002
	DefaultUnscrewDistance = 0.03
	DefaultReleaseHold     = 0.2
	DefaultCutDistance     = 0.15
	DefaultCutTime         = 0.5

	DefaultKeypadID = "keypad"
	DefaultTapeID   = "tape"
	DefaultShapesID = "shapes"
	DefaultWiresID  = "wires"
	DefaultDrillID  = "drill"
)

// Params is a scenario with every default applied, ready for session.New.
type Params struct {
	Version string

	Countdown bomb.CountdownConfig

	KeypadID   string
	KeypadCode string

	TapeID string
	Tape   puzzle.CutSensorConfig

	ShapesID string
	Sockets  []puzzle.SocketConfig

	WiresID    string
	WireIDs    []string
	DefuseWire string

	Pliers puzzle.PliersConfig

	DrillID  string
	DrillRPM float64

	Screw puzzle.ScrewConfig
	Lids  []puzzle.LidConfig
}

// Overrides carries command-line adjustments applied on top of the files.
type Overrides struct {
	TotalSeconds *float64
	KeypadCode   *string
	DefuseWire   *string
}

// Resolver turns a scenario name into validated params.
type Resolver interface {
	Resolve(scenario string, o Overrides) (RawConfig, Params, error)
}

// Resolve loads default -> scenario, applies o, validates and normalizes.
func (l *Loader) Resolve(scenario string, o Overrides) (RawConfig, Params, error) {
	raw, err := l.LoadMerged(scenario)
	if err != nil {
		return RawConfig{}, Params{}, err
	}
	raw = applyOverrides(raw, o)
	if err := ValidateRaw(raw); err != nil {
		return raw, Params{}, err
	}
	p, err := Normalize(raw)
	if err != nil {
		return raw, Params{}, err
	}
	return raw, p, nil
}

func applyOverrides(raw RawConfig, o Overrides) RawConfig {
	if o.TotalSeconds != nil {
		v := *o.TotalSeconds
		raw.Timer = TimerCfg{
			TotalSeconds: &v,
			SlowInterval: raw.Timer.SlowInterval,
			FastInterval: raw.Timer.FastInterval,
			Easing:       raw.Timer.Easing,
		}
	}
	if o.KeypadCode != nil {
		k := KeypadCfg{}
		if raw.Keypad != nil {
			k = *raw.Keypad
		}
		code := *o.KeypadCode
		k.Code = &code
		raw.Keypad = &k
	}
	if o.DefuseWire != nil && raw.Wires != nil {
		w := *raw.Wires
		w.Defuse = *o.DefuseWire
		raw.Wires = &w
	}
	return raw
}

// Normalize fills defaults and fails on a missing mandatory value.
func Normalize(raw RawConfig) (Params, error) {
	var p Params
	p.Version = raw.Version

	total, ok := timerTotal(raw.Timer)
	if !ok {
		return Params{}, fmt.Errorf("%w: timer.total_seconds or timer.hours/minutes/seconds", ErrMissing)
	}
	p.Countdown = bomb.CountdownConfig{
		Total:        total,
		SlowInterval: floatOr(raw.Timer.SlowInterval, DefaultSlowInterval),
		FastInterval: floatOr(raw.Timer.FastInterval, DefaultFastInterval),
		Easing:       bomb.Easing(raw.Timer.Easing),
	}

	if raw.Keypad == nil || raw.Keypad.Code == nil || *raw.Keypad.Code == "" {
		return Params{}, fmt.Errorf("%w: keypad.code", ErrMissing)
	}
	p.KeypadID = stringOr(raw.Keypad.ID, DefaultKeypadID)
	p.KeypadCode = *raw.Keypad.Code

	p.TapeID = DefaultTapeID
	p.Tape = puzzle.CutSensorConfig{RequiredDistance: DefaultCutDistance, RequiredTime: DefaultCutTime, ToolTag: puzzle.DefaultCutterTag}
	if t := raw.Tape; t != nil {
		p.TapeID = stringOr(t.ID, DefaultTapeID)
		p.Tape.RequiredDistance = floatOr(t.RequiredDistance, DefaultCutDistance)
		p.Tape.RequiredTime = floatOr(t.RequiredTime, DefaultCutTime)
		p.Tape.ToolTag = stringOr(t.ToolTag, puzzle.DefaultCutterTag)
	}

	if raw.Shapes == nil || len(raw.Shapes.Sockets) == 0 {
		return Params{}, fmt.Errorf("%w: shapes.sockets", ErrMissing)
	}
	p.ShapesID = stringOr(raw.Shapes.ID, DefaultShapesID)
	for _, s := range raw.Shapes.Sockets {
		p.Sockets = append(p.Sockets, puzzle.SocketConfig{ID: s.ID, Accepts: s.Accepts})
	}

	if raw.Wires == nil || len(raw.Wires.IDs) != puzzle.WireCount || raw.Wires.Defuse == "" {
		return Params{}, fmt.Errorf("%w: wires.ids (%d) and wires.defuse", ErrMissing, puzzle.WireCount)
	}
	p.WiresID = stringOr(raw.Wires.ID, DefaultWiresID)
	p.WireIDs = append([]string(nil), raw.Wires.IDs...)
	p.DefuseWire = raw.Wires.Defuse

	p.Pliers = puzzle.DefaultPliersConfig()
	if pc := raw.Pliers; pc != nil {
		p.Pliers.ClosedDistance = floatOr(pc.ClosedDistance, p.Pliers.ClosedDistance)
		p.Pliers.OpenDistance = floatOr(pc.OpenDistance, p.Pliers.OpenDistance)
		p.Pliers.MaxAngle = floatOr(pc.MaxAngle, p.Pliers.MaxAngle)
		p.Pliers.CloseThreshold = floatOr(pc.CloseThreshold, p.Pliers.CloseThreshold)
	}

	p.DrillID = DefaultDrillID
	p.DrillRPM = puzzle.DefaultDrillRPM
	if d := raw.Drill; d != nil {
		p.DrillID = stringOr(d.ID, DefaultDrillID)
		p.DrillRPM = floatOr(d.RPM, puzzle.DefaultDrillRPM)
	}

	p.Screw = puzzle.ScrewConfig{ThreadPitch: DefaultThreadPitch, UnscrewDistance: DefaultUnscrewDistance, Direction: 1}
	if s := raw.Screws; s != nil {
		p.Screw.ThreadPitch = floatOr(s.ThreadPitch, DefaultThreadPitch)
		p.Screw.UnscrewDistance = floatOr(s.UnscrewDistance, DefaultUnscrewDistance)
		if s.Direction != nil {
			p.Screw.Direction = *s.Direction
		}
		if s.Reverse != nil {
			p.Screw.Reverse = *s.Reverse
		}
	}

	if len(raw.Lids) == 0 {
		return Params{}, fmt.Errorf("%w: lids", ErrMissing)
	}
	for _, l := range raw.Lids {
		if l.ID == "" || l.TotalScrews < 1 {
			return Params{}, fmt.Errorf("%w: lids need an id and total_screws >= 1", ErrMissing)
		}
		p.Lids = append(p.Lids, puzzle.LidConfig{
			ID:          l.ID,
			TotalScrews: l.TotalScrews,
			ScrewIDs:    append([]string(nil), l.Screws...),
			ReleaseHold: floatOr(l.ReleaseHold, DefaultReleaseHold),
		})
	}
	return p, nil
}

// timerTotal reads the budget. total_seconds wins over the split form.
func timerTotal(t TimerCfg) (float64, bool) {
	if t.TotalSeconds != nil {
		return *t.TotalSeconds, true
	}
	if t.Hours == nil && t.Minutes == nil && t.Seconds == nil {
		return 0, false
	}
	total := float64(intOr(t.Hours, 0))*3600 + float64(intOr(t.Minutes, 0))*60 + floatOr(t.Seconds, 0)
	return total, true
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
