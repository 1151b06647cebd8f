// Package puzzle holds the sub-puzzles of the bomb and the mechanical
// simulations that drive them. Each mechanism is mutated only by its own input
// methods; observers learn about changes through Subscribe.
package puzzle

import (
	"errors"
	"fmt"

	"github.com/xtding233/defuse-backend/internal/events"
)

var ErrConfig = errors.New("invalid puzzle config")

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Kind classifies a puzzle node.
type Kind string

const (
	KindTapeCut     Kind = "tape_cut"
	KindShapeBoard  Kind = "shape_board"
	KindWireMonitor Kind = "wire_monitor"
	KindKeypad      Kind = "keypad"
	KindScrewLid    Kind = "screw_lid"
)

// Change reports a node transition. Fail marks an instant-fail signal, which is
// independent of the solved flag.
type Change struct {
	Node   string
	Kind   Kind
	Solved bool
	Fail   bool
	Reason string
}

// Listener observes node changes.
type Listener func(Change)

// Node is one sub-puzzle as seen by the coordinator.
type Node interface {
	ID() string
	Kind() Kind
	Solved() bool
	// Subscribe registers l and returns a function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}

// notifier is the observer list embedded by every node. Listeners run in
// registration order.
type notifier struct {
	id     string
	kind   Kind
	sink   events.Sink
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Listener
}

func newNotifier(id string, kind Kind, sink events.Sink) notifier {
	if sink == nil {
		sink = events.Discard
	}
	return notifier{id: id, kind: kind, sink: sink}
}

func (n *notifier) ID() string { return n.id }

func (n *notifier) Kind() Kind { return n.kind }

func (n *notifier) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscription{id: id, fn: l})
	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

func (n *notifier) solvedChanged(solved bool) {
	n.sink.Emit(events.Event{
		Type:    events.PuzzleSolvedChanged,
		Subject: n.id,
		Kind:    string(n.kind),
		Solved:  solved,
	})
	n.publish(Change{Node: n.id, Kind: n.kind, Solved: solved})
}

func (n *notifier) fail(solved bool, reason string) {
	n.publish(Change{Node: n.id, Kind: n.kind, Solved: solved, Fail: true, Reason: reason})
}

func (n *notifier) publish(c Change) {
	subs := append([]subscription(nil), n.subs...)
	for _, s := range subs {
		s.fn(c)
	}
}
