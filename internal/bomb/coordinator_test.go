package bomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/mech"
	"github.com/xtding233/defuse-backend/internal/puzzle"
)

// stubNode is a puzzle the test flips by hand.
type stubNode struct {
	id     string
	solved bool
	subs   []puzzle.Listener
}

func (n *stubNode) ID() string        { return n.id }
func (n *stubNode) Kind() puzzle.Kind { return puzzle.KindKeypad }
func (n *stubNode) Solved() bool      { return n.solved }

func (n *stubNode) Subscribe(l puzzle.Listener) func() {
	n.subs = append(n.subs, l)
	return func() { n.subs = nil }
}

func (n *stubNode) set(solved bool) {
	n.solved = solved
	for _, l := range n.subs {
		l(puzzle.Change{Node: n.id, Kind: puzzle.KindKeypad, Solved: solved})
	}
}

func (n *stubNode) explode(reason string) {
	for _, l := range n.subs {
		l(puzzle.Change{Node: n.id, Kind: puzzle.KindKeypad, Fail: true, Reason: reason})
	}
}

type rig struct {
	coord   *Coordinator
	timer   *Countdown
	sched   *mech.Scheduler
	nodes   []*stubNode
	rec     *events.Recorder
	results []Result
}

func newRig(t *testing.T, n int, total float64) *rig {
	t.Helper()
	r := &rig{sched: mech.NewScheduler(), rec: &events.Recorder{}}
	timer, err := NewCountdown(CountdownConfig{Total: total, SlowInterval: 1, FastInterval: 0.5}, r.sched, r.rec)
	require.NoError(t, err)
	r.timer = timer
	var nodes []puzzle.Node
	for i := 0; i < n; i++ {
		s := &stubNode{id: string(rune('a' + i))}
		r.nodes = append(r.nodes, s)
		nodes = append(nodes, s)
	}
	r.coord, err = NewCoordinator(timer, nodes, WithSink(r.rec))
	require.NoError(t, err)
	r.coord.OnOutcome(func(res Result) { r.results = append(r.results, res) })
	return r
}

func TestCoordinatorDefusesWhenAllSolved(t *testing.T) {
	r := newRig(t, 3, 60)
	require.True(t, r.coord.Arm())
	assert.Equal(t, StateArmed, r.coord.State())
	assert.True(t, r.timer.Started())

	r.nodes[0].set(true)
	r.nodes[1].set(true)
	assert.Equal(t, OutcomePending, r.coord.Outcome())
	r.nodes[2].set(true)

	assert.Equal(t, OutcomeDefused, r.coord.Outcome())
	assert.Equal(t, StateDefused, r.coord.State())
	assert.True(t, r.timer.Stopped())
	require.Len(t, r.results, 1)
	assert.Equal(t, ReasonAllSolved, r.results[0].Reason)
}

func TestCoordinatorExpiryWinsTie(t *testing.T) {
	r := newRig(t, 3, 1)
	r.coord.Arm()
	r.nodes[0].set(true)
	r.nodes[1].set(true)

	r.coord.Frame(func() {
		r.nodes[2].set(true)
		r.timer.Tick(1)
	})

	assert.Equal(t, OutcomeExploded, r.coord.Outcome())
	require.Len(t, r.results, 1)
	assert.Equal(t, ReasonExpired, r.results[0].Reason)
}

func TestCoordinatorOutcomeIsTerminal(t *testing.T) {
	r := newRig(t, 2, 5)
	r.coord.Arm()
	r.timer.Tick(5)
	require.Equal(t, OutcomeExploded, r.coord.Outcome())

	r.nodes[0].set(true)
	r.nodes[1].set(true)
	r.nodes[1].set(false)
	r.nodes[0].explode("again")
	r.timer.Tick(1)

	assert.Equal(t, OutcomeExploded, r.coord.Outcome())
	assert.Len(t, r.results, 1)
	assert.Len(t, r.rec.OfType(events.BombOutcome), 1)
}

func TestCoordinatorFailFast(t *testing.T) {
	r := newRig(t, 2, 60)
	r.coord.Arm()
	r.nodes[1].set(true)
	r.nodes[0].explode("wrong wire cut: wire-1")

	assert.Equal(t, OutcomeExploded, r.coord.Outcome())
	assert.Equal(t, "wrong wire cut: wire-1", r.coord.Reason())
	assert.True(t, r.timer.Stopped())
}

func TestCoordinatorFailWhileIdle(t *testing.T) {
	r := newRig(t, 1, 60)
	r.nodes[0].explode("")
	assert.Equal(t, OutcomeExploded, r.coord.Outcome())
	assert.Equal(t, "a failed", r.coord.Reason())
	assert.False(t, r.coord.Arm())
}

func TestCoordinatorIdleSolvesCountOnArm(t *testing.T) {
	r := newRig(t, 2, 60)
	r.nodes[0].set(true)
	r.nodes[1].set(true)
	assert.Equal(t, OutcomePending, r.coord.Outcome(), "not armed yet")

	r.coord.Arm()
	assert.Equal(t, OutcomeDefused, r.coord.Outcome())
}

func TestCoordinatorNonMonotonicNode(t *testing.T) {
	r := newRig(t, 2, 60)
	r.coord.Arm()
	r.nodes[0].set(true)
	r.coord.Frame(func() {
		r.nodes[1].set(true)
		r.nodes[0].set(false)
	})
	// Evaluation reads live flags, so the undone solve keeps the bomb armed.
	assert.Equal(t, OutcomePending, r.coord.Outcome())
	r.nodes[0].set(true)
	assert.Equal(t, OutcomeDefused, r.coord.Outcome())
}

func TestCoordinatorWithRealWires(t *testing.T) {
	sched := mech.NewScheduler()
	timer, err := NewCountdown(CountdownConfig{Total: 60, SlowInterval: 1, FastInterval: 1}, sched, nil)
	require.NoError(t, err)
	wires, err := puzzle.NewWireMonitor("wires", []string{"w1", "w2", "w3", "w4"}, "w3", nil)
	require.NoError(t, err)
	keypad, err := puzzle.NewKeypad("keypad", "1234", nil)
	require.NoError(t, err)
	c, err := NewCoordinator(timer, []puzzle.Node{wires, keypad})
	require.NoError(t, err)
	c.Arm()

	w1, _ := wires.Wire("w1")
	w1.Cut()
	assert.Equal(t, OutcomeExploded, c.Outcome())
}

func TestCoordinatorConfig(t *testing.T) {
	sched := mech.NewScheduler()
	timer, err := NewCountdown(CountdownConfig{Total: 1, SlowInterval: 1, FastInterval: 1}, sched, nil)
	require.NoError(t, err)

	_, err = NewCoordinator(nil, []puzzle.Node{&stubNode{id: "a"}})
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewCoordinator(timer, nil)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewCoordinator(timer, []puzzle.Node{&stubNode{id: "a"}, &stubNode{id: "a"}})
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewCoordinator(timer, []puzzle.Node{nil})
	assert.ErrorIs(t, err, ErrConfig)
}
