// Package session is the composition root: it builds one bomb from scenario
// params, routes inbound signals to the owning mechanism and steps the frames.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/game"
	"github.com/xtding233/defuse-backend/internal/mech"
	"github.com/xtding233/defuse-backend/internal/puzzle"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithSink sets where outbound events go.
func WithSink(sink events.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.out = sink
		}
	}
}

// WithFrameObserver is told the wall time of every frame.
func WithFrameObserver(fn func(time.Duration)) Option {
	return func(s *Session) { s.observe = fn }
}

// Session owns every mechanism of one bomb. Its exported methods are safe to
// call from several goroutines; the simulation itself runs one frame at a time.
type Session struct {
	id      string
	version string
	log     zerolog.Logger
	out     events.Sink
	observe func(time.Duration)

	mu        sync.Mutex
	queue     []Signal
	frames    uint64
	listeners []func(bomb.Result)
	decided   []bomb.Result // outcomes not yet delivered to listeners

	sched  *mech.Scheduler
	timer  *bomb.Countdown
	coord  *bomb.Coordinator
	keypad *puzzle.Keypad
	shapes *puzzle.ShapeBoard
	tape   *puzzle.CutSensor
	wires  *puzzle.WireMonitor
	pliers *puzzle.Pliers
	drill  *puzzle.Drill
	lids   []*puzzle.Lid
	screws map[string]*puzzle.Screw
	owner  map[string]*puzzle.Lid
}

// New builds a session from normalized params.
func New(p game.Params, opts ...Option) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	s := &Session{
		id:      id.String(),
		version: p.Version,
		log:     zerolog.Nop(),
		out:     events.Discard,
		sched:   mech.NewScheduler(),
		screws:  make(map[string]*puzzle.Screw),
		owner:   make(map[string]*puzzle.Lid),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id).Logger()
	sink := events.Stamped(s.out, s.sched.Now)

	if s.timer, err = bomb.NewCountdown(p.Countdown, s.sched, sink); err != nil {
		return nil, err
	}
	if s.tape, err = puzzle.NewCutSensor(p.TapeID, p.Tape, sink); err != nil {
		return nil, err
	}
	if s.shapes, err = puzzle.NewShapeBoard(p.ShapesID, p.Sockets, sink); err != nil {
		return nil, err
	}
	if s.wires, err = puzzle.NewWireMonitor(p.WiresID, p.WireIDs, p.DefuseWire, sink); err != nil {
		return nil, err
	}
	if s.keypad, err = puzzle.NewKeypad(p.KeypadID, p.KeypadCode, sink); err != nil {
		return nil, err
	}
	if s.pliers, err = puzzle.NewPliers(p.Pliers); err != nil {
		return nil, err
	}
	if s.drill, err = puzzle.NewDrill(p.DrillID, p.DrillRPM); err != nil {
		return nil, err
	}
	nodes := []puzzle.Node{s.tape, s.shapes, s.wires, s.keypad}
	for _, lc := range p.Lids {
		lid, err := puzzle.NewLid(lc, p.Screw, s.sched, sink)
		if err != nil {
			return nil, err
		}
		for _, sc := range lid.Screws() {
			if _, dup := s.screws[sc.ID()]; dup {
				return nil, fmt.Errorf("%w: screw %q is on two lids", puzzle.ErrConfig, sc.ID())
			}
			s.screws[sc.ID()] = sc
			s.owner[sc.ID()] = lid
		}
		s.lids = append(s.lids, lid)
		nodes = append(nodes, lid)
	}
	if s.coord, err = bomb.NewCoordinator(s.timer, nodes, bomb.WithLogger(s.log), bomb.WithSink(sink)); err != nil {
		return nil, err
	}
	s.coord.OnOutcome(func(r bomb.Result) { s.decided = append(s.decided, r) })
	s.log.Info().Str("version", p.Version).Int("puzzles", len(nodes)).Msg("session ready")
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Submit validates sig and queues it for the next frame.
func (s *Session) Submit(sig Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.queue = append(s.queue, sig)
	s.mu.Unlock()
	return nil
}

// Arm arms the bomb right away. It reports false when it was not idle.
func (s *Session) Arm() bool {
	s.mu.Lock()
	var ok bool
	s.coord.Frame(func() { ok = s.coord.Arm() })
	s.mu.Unlock()
	s.deliver()
	return ok
}

// Tick runs one frame of dt seconds: queued signals in order, drill spin,
// countdown, then due scheduled callbacks. Everything raised inside the frame
// is evaluated by the coordinator once the frame ends.
func (s *Session) Tick(dt float64) {
	start := time.Now()
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.coord.Frame(func() {
		for _, sig := range queue {
			s.apply(sig)
		}
		s.drill.Spin(dt)
		s.timer.Tick(dt)
		s.sched.Advance(dt)
	})
	s.frames++
	s.mu.Unlock()
	s.deliver()
	if s.observe != nil {
		s.observe(time.Since(start))
	}
}

// Outcome returns the current outcome.
func (s *Session) Outcome() bomb.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord.Outcome()
}

// OnOutcome registers fn for the terminal outcome. fn runs after the frame
// that decided it, outside the session lock, so it may call back into s.
func (s *Session) OnOutcome(fn func(bomb.Result)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) deliver() {
	s.mu.Lock()
	decided := s.decided
	s.decided = nil
	listeners := append(([]func(bomb.Result))(nil), s.listeners...)
	s.mu.Unlock()
	for _, r := range decided {
		for _, fn := range listeners {
			fn(r)
		}
	}
}

// Close detaches the coordinator and drops unprocessed signals.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord.Close()
	s.timer.Stop()
	s.queue = nil
}

func (s *Session) apply(sig Signal) {
	switch sig.Kind {
	case SigArm:
		s.coord.Arm()
	case SigDrillTrigger:
		s.drill.SetActive(sig.On)
	case SigContact:
		sc, ok := s.screws[sig.Target]
		if !ok || sc.Removed() {
			s.drop(sig, "unknown or removed screw")
			return
		}
		if sig.On {
			s.drill.Touch(sc)
		} else {
			s.drill.Release(sc)
		}
	case SigRotate:
		s.drill.Rotate(sig.Degrees)
	case SigScrewDislodged, SigScrewSeated:
		lid, ok := s.owner[sig.Target]
		if !ok {
			s.drop(sig, "unknown screw")
			return
		}
		if sig.Kind == SigScrewSeated {
			lid.Seat(sig.Target)
		} else {
			lid.Dislodge(sig.Target)
		}
	case SigPliersGrab:
		s.pliers.Grab(side(sig.Side), sig.On)
	case SigHands:
		s.pliers.UpdateHands(mgl64.Vec3(sig.Left), mgl64.Vec3(sig.Right))
	case SigGrabDistance:
		s.pliers.SetDistance(sig.Distance)
	case SigJawTouch:
		w, ok := s.wires.Wire(sig.Target)
		if !ok {
			s.drop(sig, "unknown wire")
			return
		}
		if sig.On {
			s.pliers.TouchEnter(side(sig.Side), w)
		} else {
			s.pliers.TouchExit(side(sig.Side), w)
		}
	case SigTriggerEnter, SigTriggerStay, SigTriggerExit:
		if sig.Target != "" && sig.Target != s.tape.ID() {
			s.drop(sig, "unknown sensor")
			return
		}
		at := s.sched.Now()
		if sig.At != nil {
			at = *sig.At
		}
		pos := mgl64.Vec3(sig.Position)
		switch sig.Kind {
		case SigTriggerEnter:
			s.tape.Enter(sig.Tag, pos, at)
		case SigTriggerStay:
			s.tape.Stay(sig.Tag, pos, at)
		default:
			s.tape.Exit(sig.Tag, pos, at)
		}
	case SigKey:
		s.keypad.Press(sig.Key)
	case SigShapePlace:
		s.shapes.Place(sig.Target, sig.Shape)
	case SigShapeRemove:
		s.shapes.Remove(sig.Target)
	}
}

func (s *Session) drop(sig Signal, why string) {
	s.log.Debug().Str("kind", string(sig.Kind)).Str("target", sig.Target).Msg("signal ignored: " + why)
}

func side(name string) puzzle.Side {
	if name == "right" {
		return puzzle.Right
	}
	return puzzle.Left
}
