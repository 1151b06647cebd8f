package game

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrScenarioNotFound = errors.New("scenario not found")

// Paths helper for the default and scenario files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/defuse/configs
}

func (p Paths) ScenarioDir() string {
	return filepath.Join(p.BaseDir, "scenarios")
}
func (p Paths) DefaultPath() string {
	return filepath.Join(p.ScenarioDir(), "default.yaml")
}
func (p Paths) ScenarioPath(name string) string {
	return filepath.Join(p.ScenarioDir(), name+".yaml")
}

// Loader reads YAML scenarios and merges default -> scenario.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: scenario name, "" for default only
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

// Paths returns the file layout the loader reads.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads default.yaml and, when scenario is set, overlays
// scenarios/<scenario>.yaml. It returns the merged RawConfig without normalization.
func (l *Loader) LoadMerged(scenario string) (RawConfig, error) {
	if scenario == "default" {
		scenario = ""
	}
	l.mu.RLock()
	if cfg, ok := l.cache[scenario]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if scenario != "" {
		overlay, err := readYAML(l.paths.ScenarioPath(scenario))
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenario)
		}
		if err != nil {
			return RawConfig{}, fmt.Errorf("read scenario %s: %w", scenario, err)
		}
		merged = mergeRaw(defCfg, overlay)
	}

	l.mu.Lock()
	l.cache[""] = defCfg
	l.cache[scenario] = merged
	l.mu.Unlock()

	return merged, nil
}

// Scenarios lists the overlay names found next to default.yaml.
func (l *Loader) Scenarios() ([]string, error) {
	entries, err := os.ReadDir(l.paths.ScenarioDir())
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !isScenarioFile(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Unknown keys are rejected so a
// typo in a threshold name does not silently fall back to the default.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func isScenarioFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// mergeRaw performs a deep merge: 'b' overrides 'a' wherever 'b' sets a value.
// Lists (sockets, wire ids, lids) in 'b' replace those of 'a'.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// timer: a budget in either form replaces the whole budget
	if b.Timer.TotalSeconds != nil || b.Timer.Hours != nil || b.Timer.Minutes != nil || b.Timer.Seconds != nil {
		out.Timer.TotalSeconds = b.Timer.TotalSeconds
		out.Timer.Hours = b.Timer.Hours
		out.Timer.Minutes = b.Timer.Minutes
		out.Timer.Seconds = b.Timer.Seconds
	}
	out.Timer.SlowInterval = pick(out.Timer.SlowInterval, b.Timer.SlowInterval)
	out.Timer.FastInterval = pick(out.Timer.FastInterval, b.Timer.FastInterval)
	if b.Timer.Easing != "" {
		out.Timer.Easing = b.Timer.Easing
	}

	if b.Keypad != nil {
		k := KeypadCfg{}
		if out.Keypad != nil {
			k = *out.Keypad
		}
		k.ID = stringOr(b.Keypad.ID, k.ID)
		k.Code = pick(k.Code, b.Keypad.Code)
		out.Keypad = &k
	}

	if b.Tape != nil {
		t := TapeCfg{}
		if out.Tape != nil {
			t = *out.Tape
		}
		t.ID = stringOr(b.Tape.ID, t.ID)
		t.RequiredDistance = pick(t.RequiredDistance, b.Tape.RequiredDistance)
		t.RequiredTime = pick(t.RequiredTime, b.Tape.RequiredTime)
		t.ToolTag = stringOr(b.Tape.ToolTag, t.ToolTag)
		out.Tape = &t
	}

	if b.Shapes != nil {
		s := ShapesCfg{}
		if out.Shapes != nil {
			s = *out.Shapes
		}
		s.ID = stringOr(b.Shapes.ID, s.ID)
		if len(b.Shapes.Sockets) > 0 {
			s.Sockets = append([]SocketCfg(nil), b.Shapes.Sockets...)
		}
		out.Shapes = &s
	}

	if b.Wires != nil {
		w := WiresCfg{}
		if out.Wires != nil {
			w = *out.Wires
		}
		w.ID = stringOr(b.Wires.ID, w.ID)
		if len(b.Wires.IDs) > 0 {
			w.IDs = append([]string(nil), b.Wires.IDs...)
		}
		w.Defuse = stringOr(b.Wires.Defuse, w.Defuse)
		out.Wires = &w
	}

	if b.Pliers != nil {
		p := PliersCfg{}
		if out.Pliers != nil {
			p = *out.Pliers
		}
		p.ClosedDistance = pick(p.ClosedDistance, b.Pliers.ClosedDistance)
		p.OpenDistance = pick(p.OpenDistance, b.Pliers.OpenDistance)
		p.MaxAngle = pick(p.MaxAngle, b.Pliers.MaxAngle)
		p.CloseThreshold = pick(p.CloseThreshold, b.Pliers.CloseThreshold)
		out.Pliers = &p
	}

	if b.Drill != nil {
		d := DrillCfg{}
		if out.Drill != nil {
			d = *out.Drill
		}
		d.ID = stringOr(b.Drill.ID, d.ID)
		d.RPM = pick(d.RPM, b.Drill.RPM)
		out.Drill = &d
	}

	if b.Screws != nil {
		s := ScrewCfg{}
		if out.Screws != nil {
			s = *out.Screws
		}
		s.ThreadPitch = pick(s.ThreadPitch, b.Screws.ThreadPitch)
		s.UnscrewDistance = pick(s.UnscrewDistance, b.Screws.UnscrewDistance)
		s.Direction = pick(s.Direction, b.Screws.Direction)
		s.Reverse = pick(s.Reverse, b.Screws.Reverse)
		out.Screws = &s
	}

	if len(b.Lids) > 0 {
		out.Lids = append([]LidCfg(nil), b.Lids...)
	}

	return out
}

// pick returns override when set, base otherwise.
func pick[T any](base, override *T) *T {
	if override != nil {
		return override
	}
	return base
}
