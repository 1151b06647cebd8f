// Package bomb decides the fate of the bomb: the countdown and the coordinator
// that races it against the sub-puzzles.
package bomb

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/puzzle"
)

// State is the coordinator state.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateDefused
	StateExploded
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateDefused:
		return "defused"
	case StateExploded:
		return "exploded"
	default:
		return "idle"
	}
}

// Outcome is terminal once it leaves Pending.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeDefused
	OutcomeExploded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDefused:
		return "defused"
	case OutcomeExploded:
		return "exploded"
	default:
		return "pending"
	}
}

// Result is handed to outcome listeners.
type Result struct {
	Outcome Outcome
	Reason  string
}

const (
	ReasonExpired   = "timer expired"
	ReasonAllSolved = "all puzzles solved"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithSink sets where the armed and outcome events go.
func WithSink(s events.Sink) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sink = s
		}
	}
}

// trigger is one reason to evaluate: a node change, or the timer running out.
type trigger struct {
	change  *puzzle.Change
	expired bool
}

// Coordinator combines the solved flags of every node with the countdown into
// one outcome. It only reads node state.
type Coordinator struct {
	timer *Countdown
	nodes []puzzle.Node
	log   zerolog.Logger
	sink  events.Sink

	state   State
	outcome Outcome
	reason  string

	frames int
	queue  []trigger

	unsubs    []func()
	listeners []func(Result)
}

// NewCoordinator subscribes to every node and to the timer's expiry.
func NewCoordinator(timer *Countdown, nodes []puzzle.Node, opts ...Option) (*Coordinator, error) {
	if timer == nil {
		return nil, fmt.Errorf("%w: coordinator needs a countdown", ErrConfig)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: coordinator needs at least one puzzle", ErrConfig)
	}
	seen := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: puzzle %d is nil", ErrConfig, i)
		}
		if _, dup := seen[n.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate puzzle id %q", ErrConfig, n.ID())
		}
		seen[n.ID()] = struct{}{}
	}

	c := &Coordinator{
		timer: timer,
		nodes: append([]puzzle.Node(nil), nodes...),
		log:   zerolog.Nop(),
		sink:  events.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, n := range c.nodes {
		c.unsubs = append(c.unsubs, n.Subscribe(func(ch puzzle.Change) {
			c.handle(trigger{change: &ch})
		}))
	}
	c.unsubs = append(c.unsubs, timer.OnExpire(func() {
		c.handle(trigger{expired: true})
	}))
	return c, nil
}

// Arm moves Idle to Armed and starts the countdown. Puzzles solved before
// arming count immediately.
func (c *Coordinator) Arm() bool {
	if c.state != StateIdle {
		return false
	}
	c.state = StateArmed
	c.timer.Start()
	c.sink.Emit(events.Event{Type: events.BombArmed})
	c.log.Info().Float64("total", c.timer.Total()).Int("puzzles", len(c.nodes)).Msg("bomb armed")
	c.handle(trigger{})
	return true
}

// Frame runs fn and then evaluates, in order, every change raised during it.
// Changes from a single frame count as simultaneous, so an expiry inside the
// frame beats a solve inside the same frame.
func (c *Coordinator) Frame(fn func()) {
	c.frames++
	defer func() {
		c.frames--
		if c.frames == 0 {
			c.drain()
		}
	}()
	fn()
}

// OnOutcome registers fn to be told the outcome once.
func (c *Coordinator) OnOutcome(fn func(Result)) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

func (c *Coordinator) State() State     { return c.state }
func (c *Coordinator) Outcome() Outcome { return c.outcome }

// Reason explains a terminal outcome.
func (c *Coordinator) Reason() string { return c.reason }

// Nodes returns the coordinated puzzles in registration order.
func (c *Coordinator) Nodes() []puzzle.Node { return append([]puzzle.Node(nil), c.nodes...) }

// Close detaches the coordinator from its nodes and timer.
func (c *Coordinator) Close() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

func (c *Coordinator) handle(t trigger) {
	if c.frames > 0 {
		c.queue = append(c.queue, t)
		return
	}
	c.evaluate(t)
}

func (c *Coordinator) drain() {
	for len(c.queue) > 0 {
		t := c.queue[0]
		c.queue = c.queue[1:]
		c.evaluate(t)
	}
	c.queue = nil
}

func (c *Coordinator) evaluate(t trigger) {
	if c.outcome != OutcomePending {
		return
	}
	if t.expired {
		c.log.Debug().Msg("countdown expired")
	}
	if t.change != nil {
		c.log.Debug().Str("node", t.change.Node).Str("kind", string(t.change.Kind)).
			Bool("solved", t.change.Solved).Bool("fail", t.change.Fail).Msg("puzzle changed")
		if t.change.Fail {
			reason := t.change.Reason
			if reason == "" {
				reason = t.change.Node + " failed"
			}
			c.finish(OutcomeExploded, reason)
			return
		}
	}
	if c.state != StateArmed {
		return
	}
	if c.timer.Expired() {
		c.finish(OutcomeExploded, ReasonExpired)
		return
	}
	for _, n := range c.nodes {
		if !n.Solved() {
			return
		}
	}
	c.finish(OutcomeDefused, ReasonAllSolved)
}

func (c *Coordinator) finish(o Outcome, reason string) {
	c.outcome = o
	c.reason = reason
	if o == OutcomeDefused {
		c.state = StateDefused
	} else {
		c.state = StateExploded
	}
	c.timer.Stop()
	c.sink.Emit(events.Event{Type: events.BombOutcome, Outcome: o.String(), Reason: reason})
	c.log.Info().Str("outcome", o.String()).Str("reason", reason).
		Float64("remaining", c.timer.Remaining()).Msg("bomb outcome")
	for _, fn := range c.listeners {
		fn(Result{Outcome: o, Reason: reason})
	}
}
