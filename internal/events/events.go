// Package events defines the outbound notifications the simulation core emits
// toward presentation code, and the plumbing that carries them.
package events

import "sync"

// Type names one outbound notification.
type Type string

const (
	PuzzleSolvedChanged Type = "puzzle_solved_changed"
	BombOutcome         Type = "bomb_outcome"
	TickCue             Type = "tick_cue"
	LidReleased         Type = "lid_released"
	ScrewRemoved        Type = "screw_removed"
	WireCut             Type = "wire_cut"
	BombArmed           Type = "bomb_armed"
)

// Event is one outbound notification. Subject is the id of the entity it is about.
type Event struct {
	Type    Type    `json:"type" yaml:"type"`
	Subject string  `json:"subject,omitempty" yaml:"subject,omitempty"`
	Kind    string  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Solved  bool    `json:"solved,omitempty" yaml:"solved,omitempty"`
	Outcome string  `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	At      float64 `json:"at" yaml:"at"`
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans one event out to several sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var out []Sink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return SinkFunc(func(e Event) {
		for _, s := range out {
			s.Emit(e)
		}
	})
}

// Stamped fills in At from clock for events that have none.
func Stamped(next Sink, clock func() float64) Sink {
	return SinkFunc(func(e Event) {
		if e.At == 0 && clock != nil {
			e.At = clock()
		}
		next.Emit(e)
	})
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
