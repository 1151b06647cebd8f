package puzzle

import (
	"github.com/xtding233/defuse-backend/internal/events"
)

// WireCount is the number of wires a monitor watches.
const WireCount = 4

// Wire is one cuttable wire. Identity is the pointer: the pliers compare jaws by it.
type Wire struct {
	id      string
	cut     bool
	monitor *WireMonitor
}

// ID returns the wire id.
func (w *Wire) ID() string { return w.id }

// IsCut reports whether the wire has been cut.
func (w *Wire) IsCut() bool { return w.cut }

// Cut severs the wire. It reports false when the wire was already cut.
func (w *Wire) Cut() bool {
	if w.cut {
		return false
	}
	w.cut = true
	if w.monitor != nil {
		w.monitor.wireCut(w)
	}
	return true
}

// WireMonitor watches four wires, exactly one of which defuses. Cutting any
// other wire while unsolved is an instant fail.
type WireMonitor struct {
	notifier
	wires  []*Wire
	byID   map[string]*Wire
	defuse *Wire
	solved bool
	failed bool
}

// NewWireMonitor creates the wires named by ids and designates defuseID.
func NewWireMonitor(id string, ids []string, defuseID string, sink events.Sink) (*WireMonitor, error) {
	if id == "" {
		return nil, configErr("wire monitor id is required")
	}
	if len(ids) != WireCount {
		return nil, configErr("wire monitor %q needs exactly %d wires, got %d", id, WireCount, len(ids))
	}
	m := &WireMonitor{
		notifier: newNotifier(id, KindWireMonitor, sink),
		byID:     make(map[string]*Wire, len(ids)),
	}
	for _, wid := range ids {
		if wid == "" {
			return nil, configErr("wire monitor %q has a wire without id", id)
		}
		if _, dup := m.byID[wid]; dup {
			return nil, configErr("duplicate wire %q", wid)
		}
		w := &Wire{id: wid, monitor: m}
		m.wires = append(m.wires, w)
		m.byID[wid] = w
	}
	def, ok := m.byID[defuseID]
	if !ok {
		return nil, configErr("defuse wire %q is not one of %v", defuseID, ids)
	}
	m.defuse = def
	return m, nil
}

// Wire returns the wire with the given id.
func (m *WireMonitor) Wire(id string) (*Wire, bool) {
	w, ok := m.byID[id]
	return w, ok
}

// Wires returns the wires in configuration order.
func (m *WireMonitor) Wires() []*Wire { return append([]*Wire(nil), m.wires...) }

// Defuse returns the designated defuse wire.
func (m *WireMonitor) Defuse() *Wire { return m.defuse }

func (m *WireMonitor) Solved() bool { return m.solved }

// Failed reports whether a wrong wire was cut while unsolved.
func (m *WireMonitor) Failed() bool { return m.failed }

func (m *WireMonitor) wireCut(w *Wire) {
	m.sink.Emit(events.Event{Type: events.WireCut, Subject: w.id})
	if m.solved || m.failed {
		return
	}
	if w == m.defuse {
		m.solved = true
		m.solvedChanged(true)
		return
	}
	m.failed = true
	m.fail(false, "wrong wire cut: "+w.id)
}
