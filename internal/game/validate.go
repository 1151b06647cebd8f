package game

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/puzzle"
)

// ValidateRaw checks semantic constraints of a RawConfig. Missing mandatory
// values are left to Normalize; this pass rejects values that are present but wrong.
func ValidateRaw(cfg RawConfig) error {
	var errs []string
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// timer
	t := cfg.Timer
	if t.TotalSeconds != nil && (!finite(*t.TotalSeconds) || *t.TotalSeconds <= 0) {
		bad("timer.total_seconds must be > 0")
	}
	if t.TotalSeconds != nil && (t.Hours != nil || t.Minutes != nil || t.Seconds != nil) {
		bad("timer: use total_seconds or hours/minutes/seconds, not both")
	}
	if t.Hours != nil && *t.Hours < 0 {
		bad("timer.hours must be >= 0")
	}
	if t.Minutes != nil && *t.Minutes < 0 {
		bad("timer.minutes must be >= 0")
	}
	if t.Seconds != nil && (!finite(*t.Seconds) || *t.Seconds < 0) {
		bad("timer.seconds must be >= 0")
	}
	if total, ok := timerTotal(t); ok && t.TotalSeconds == nil && total <= 0 {
		bad("timer budget must be > 0")
	}
	if t.SlowInterval != nil && !positive(*t.SlowInterval) {
		bad("timer.slow_interval must be > 0")
	}
	if t.FastInterval != nil && !positive(*t.FastInterval) {
		bad("timer.fast_interval must be > 0")
	}
	if !bomb.Easing(t.Easing).Valid() {
		bad("timer.easing must be one of: linear, easeOutQuad, easeInOutCubic")
	}

	// keypad
	if cfg.Keypad != nil && cfg.Keypad.Code != nil && *cfg.Keypad.Code == "" {
		bad("keypad.code must not be empty")
	}

	// tape
	if tp := cfg.Tape; tp != nil {
		if tp.RequiredDistance != nil && !nonNegative(*tp.RequiredDistance) {
			bad("tape.required_distance must be >= 0")
		}
		if tp.RequiredTime != nil && !nonNegative(*tp.RequiredTime) {
			bad("tape.required_time must be >= 0")
		}
	}

	// shapes
	if cfg.Shapes != nil {
		seen := map[string]bool{}
		for i, s := range cfg.Shapes.Sockets {
			if s.ID == "" {
				bad("shapes.sockets[%d].id is required", i)
			} else if seen[s.ID] {
				bad("shapes.sockets[%d].id %q is duplicated", i, s.ID)
			}
			seen[s.ID] = true
			if s.Accepts == "" {
				bad("shapes.sockets[%d].accepts is required", i)
			}
		}
	}

	// wires
	if w := cfg.Wires; w != nil {
		if len(w.IDs) > 0 && len(w.IDs) != puzzle.WireCount {
			bad("wires.ids must list exactly %d wires", puzzle.WireCount)
		}
		seen := map[string]bool{}
		for i, id := range w.IDs {
			if id == "" {
				bad("wires.ids[%d] is empty", i)
			} else if seen[id] {
				bad("wires.ids[%d] %q is duplicated", i, id)
			}
			seen[id] = true
		}
		if w.Defuse != "" && len(w.IDs) > 0 && !seen[w.Defuse] {
			bad("wires.defuse %q must be one of wires.ids", w.Defuse)
		}
	}

	// pliers
	if p := cfg.Pliers; p != nil {
		def := puzzle.DefaultPliersConfig()
		closed := floatOr(p.ClosedDistance, def.ClosedDistance)
		open := floatOr(p.OpenDistance, def.OpenDistance)
		if !nonNegative(closed) || !finite(open) || open <= closed {
			bad("pliers: need 0 <= closed_distance < open_distance")
		}
		if p.MaxAngle != nil && !finite(*p.MaxAngle) {
			bad("pliers.max_angle must be finite")
		}
		if p.CloseThreshold != nil && !(*p.CloseThreshold >= 0 && *p.CloseThreshold <= 1) {
			bad("pliers.close_threshold must be in [0,1]")
		}
	}

	// drill
	if cfg.Drill != nil && cfg.Drill.RPM != nil && !nonNegative(*cfg.Drill.RPM) {
		bad("drill.rpm must be >= 0")
	}

	// screws
	if s := cfg.Screws; s != nil {
		if s.ThreadPitch != nil && !positive(*s.ThreadPitch) {
			bad("screws.thread_pitch must be > 0")
		}
		if s.UnscrewDistance != nil && !nonNegative(*s.UnscrewDistance) {
			bad("screws.total_unscrew_distance must be >= 0")
		}
		if s.Direction != nil && *s.Direction != 1 && *s.Direction != -1 {
			bad("screws.direction must be 1 or -1")
		}
	}

	// lids
	seenLid := map[string]bool{}
	for i, l := range cfg.Lids {
		if l.ID == "" {
			bad("lids[%d].id is required", i)
		} else if seenLid[l.ID] {
			bad("lids[%d].id %q is duplicated", i, l.ID)
		}
		seenLid[l.ID] = true
		if l.TotalScrews < 1 {
			bad("lids[%d].total_screws must be >= 1", i)
		}
		if len(l.Screws) > 0 && len(l.Screws) != l.TotalScrews {
			bad("lids[%d].screws must list total_screws ids", i)
		}
		if l.ReleaseHold != nil && !nonNegative(*l.ReleaseHold) {
			bad("lids[%d].release_hold must be >= 0", i)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }

func nonNegative(v float64) bool { return finite(v) && v >= 0 }
