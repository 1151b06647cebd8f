package session

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/defuse-backend/internal/bomb"
)

// Step is a group of identical frames. Signals are submitted before the first one.
type Step struct {
	DT      float64  `yaml:"dt"`
	Repeat  int      `yaml:"repeat,omitempty"`
	Signals []Signal `yaml:"signals,omitempty"`
}

// Script drives a session headless, frame by frame.
type Script struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// ParseScript reads a YAML script.
func ParseScript(r io.Reader) (Script, error) {
	var sc Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range sc.Steps {
		for j, sig := range st.Signals {
			if err := sig.Validate(); err != nil {
				return Script{}, fmt.Errorf("step %d signal %d: %w", i, j, err)
			}
		}
	}
	return sc, nil
}

// RunScript plays sc against s and stops early once the outcome is decided.
func RunScript(s *Session, sc Script) (Snapshot, error) {
	for i, st := range sc.Steps {
		for _, sig := range st.Signals {
			if err := s.Submit(sig); err != nil {
				return s.Snapshot(), fmt.Errorf("step %d: %w", i, err)
			}
		}
		dt := st.DT
		if dt <= 0 {
			dt = 1.0 / DefaultRate
		}
		n := st.Repeat
		if n < 1 {
			n = 1
		}
		for f := 0; f < n; f++ {
			s.Tick(dt)
			if s.Outcome() != bomb.OutcomePending {
				return s.Snapshot(), nil
			}
		}
	}
	return s.Snapshot(), nil
}
