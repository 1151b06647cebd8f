package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/events"
)

var wireIDs = []string{"wire-1", "wire-2", "wire-3", "wire-4"}

func newMonitor(t *testing.T, sink events.Sink) *WireMonitor {
	t.Helper()
	m, err := NewWireMonitor("wires", wireIDs, "wire-3", sink)
	require.NoError(t, err)
	return m
}

func TestWireMonitorDefuseWire(t *testing.T) {
	rec := &events.Recorder{}
	m := newMonitor(t, rec)
	var changes []Change
	m.Subscribe(func(c Change) { changes = append(changes, c) })

	w, ok := m.Wire("wire-3")
	require.True(t, ok)
	assert.True(t, w.Cut())
	assert.False(t, w.Cut(), "already cut")

	assert.True(t, m.Solved())
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Solved)
	assert.False(t, changes[0].Fail)
	assert.Len(t, rec.OfType(events.WireCut), 1)
}

func TestWireMonitorWrongWireFails(t *testing.T) {
	m := newMonitor(t, nil)
	var changes []Change
	m.Subscribe(func(c Change) { changes = append(changes, c) })

	w, _ := m.Wire("wire-1")
	w.Cut()
	assert.True(t, m.Failed())
	assert.False(t, m.Solved())
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Fail)
	assert.Contains(t, changes[0].Reason, "wire-1")

	d, _ := m.Wire("wire-3")
	d.Cut()
	assert.False(t, m.Solved(), "a failed monitor cannot be solved")
	assert.Len(t, changes, 1)
}

func TestWireMonitorConfig(t *testing.T) {
	_, err := NewWireMonitor("wires", wireIDs[:3], "wire-1", nil)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewWireMonitor("wires", wireIDs, "wire-9", nil)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewWireMonitor("wires", []string{"a", "a", "b", "c"}, "a", nil)
	assert.ErrorIs(t, err, ErrConfig)
}
