package puzzle

import (
	"fmt"
	"math"

	"github.com/zyedidia/generic/mapset"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/mech"
)

// ScrewConfig holds the thread model shared by the screws of a lid.
type ScrewConfig struct {
	ThreadPitch     float64 // metres advanced per full revolution
	UnscrewDistance float64 // metres of travel before the screw comes out
	Direction       int     // +1 or -1; flips the sign of the displacement
	Reverse         bool    // flips the sign of the incoming rotation
}

// LidConfig describes one lid and the screws holding it.
type LidConfig struct {
	ID          string
	TotalScrews int
	ScrewIDs    []string // optional; generated as <lid>-screw-<n> when empty
	ReleaseHold float64  // seconds the mount must stay empty before the lid frees itself
}

// Tool is whatever turns a screw. Rotation only counts while it is active.
type Tool interface {
	Active() bool
}

// Screw converts tool rotation into linear travel until it comes out.
type Screw struct {
	id   string
	cfg  ScrewConfig
	acc  *mech.Accumulator
	lid  *Lid
	sink events.Sink

	position float64
	contact  bool
	seated   bool
	removed  bool

	tool   Tool
	detach func()
}

// ID returns the screw id.
func (s *Screw) ID() string { return s.id }

// InContact reports whether a tool is touching the screw.
func (s *Screw) InContact() bool { return s.contact }

// Removed reports whether the screw has been unscrewed.
func (s *Screw) Removed() bool { return s.removed }

// Seated reports whether the screw still sits in its mount.
func (s *Screw) Seated() bool { return s.seated }

// Position is the signed travel along the unscrew axis.
func (s *Screw) Position() float64 { return s.position }

// Unscrewed is the accumulated absolute travel.
func (s *Screw) Unscrewed() float64 { return s.acc.Sum() }

// ApplyRotation turns the screw by deltaDegrees. It only has an effect while the
// screw is in place, touched, and the touching tool is active. It reports
// whether this call removed the screw.
func (s *Screw) ApplyRotation(deltaDegrees float64) bool {
	if s.removed || !s.contact || s.tool == nil || !s.tool.Active() {
		return false
	}
	if math.IsNaN(deltaDegrees) || math.IsInf(deltaDegrees, 0) {
		return false
	}
	if s.cfg.Reverse {
		deltaDegrees = -deltaDegrees
	}
	disp := deltaDegrees / 360 * s.cfg.ThreadPitch * float64(s.cfg.Direction)
	s.position += disp
	if !s.acc.Accumulate(disp) {
		return false
	}
	s.remove()
	return true
}

func (s *Screw) attach(t Tool, detach func()) {
	s.tool = t
	s.detach = detach
}

func (s *Screw) release() {
	s.tool = nil
	s.detach = nil
}

func (s *Screw) setContact(on bool) {
	if s.removed || s.contact == on {
		return
	}
	s.contact = on
	s.lid.contactChanged(on)
}

func (s *Screw) remove() {
	hadContact := s.contact
	s.removed = true
	s.seated = false
	s.contact = false
	if s.detach != nil {
		s.detach()
	}
	s.release()
	s.sink.Emit(events.Event{Type: events.ScrewRemoved, Subject: s.id})
	s.lid.screwRemoved(s, hadContact)
}

// Lid is held shut by its screws. It releases once every screw is out, or once
// the mount has stayed empty with nothing touching the screws for the hold window.
// Release is one-way.
type Lid struct {
	notifier
	total    int
	screws   []*Screw
	byID     map[string]*Screw
	tracked  mapset.Set[*Screw]
	latch    *mech.Latch
	removed  int
	contacts int
	released bool
}

// NewLid creates a lid with its screws.
func NewLid(cfg LidConfig, screw ScrewConfig, sched *mech.Scheduler, sink events.Sink) (*Lid, error) {
	if cfg.ID == "" {
		return nil, configErr("lid id is required")
	}
	if cfg.TotalScrews <= 0 {
		return nil, configErr("lid %q needs at least one screw", cfg.ID)
	}
	if len(cfg.ScrewIDs) != 0 && len(cfg.ScrewIDs) != cfg.TotalScrews {
		return nil, configErr("lid %q: %d screw ids for %d screws", cfg.ID, len(cfg.ScrewIDs), cfg.TotalScrews)
	}
	if !(screw.ThreadPitch > 0) || math.IsInf(screw.ThreadPitch, 0) {
		return nil, configErr("lid %q: thread pitch must be > 0", cfg.ID)
	}
	if math.IsNaN(screw.UnscrewDistance) || math.IsInf(screw.UnscrewDistance, 0) {
		return nil, configErr("lid %q: unscrew distance must be finite", cfg.ID)
	}
	switch screw.Direction {
	case 0:
		screw.Direction = 1
	case 1, -1:
	default:
		return nil, configErr("lid %q: screw direction must be 1 or -1", cfg.ID)
	}
	if sink == nil {
		sink = events.Discard
	}

	l := &Lid{
		notifier: newNotifier(cfg.ID, KindScrewLid, sink),
		total:    cfg.TotalScrews,
		byID:     make(map[string]*Screw, cfg.TotalScrews),
		tracked:  mapset.New[*Screw](),
	}
	latch, err := mech.NewLatch(sched, cfg.ReleaseHold, l.release)
	if err != nil {
		return nil, fmt.Errorf("lid %q: %w", cfg.ID, err)
	}
	l.latch = latch

	for i := 0; i < cfg.TotalScrews; i++ {
		id := fmt.Sprintf("%s-screw-%d", cfg.ID, i+1)
		if len(cfg.ScrewIDs) > 0 {
			id = cfg.ScrewIDs[i]
		}
		if id == "" {
			return nil, configErr("lid %q has a screw without id", cfg.ID)
		}
		if _, dup := l.byID[id]; dup {
			return nil, configErr("duplicate screw %q", id)
		}
		s := &Screw{
			id:     id,
			cfg:    screw,
			acc:    mech.NewAccumulator(screw.UnscrewDistance),
			lid:    l,
			sink:   sink,
			seated: true,
		}
		l.screws = append(l.screws, s)
		l.byID[id] = s
		l.tracked.Put(s)
	}
	return l, nil
}

// Screw returns the screw with the given id.
func (l *Lid) Screw(id string) (*Screw, bool) {
	s, ok := l.byID[id]
	return s, ok
}

// Screws returns every screw in configuration order, removed ones included.
func (l *Lid) Screws() []*Screw { return append([]*Screw(nil), l.screws...) }

// Dislodge records a screw leaving its mount without being unscrewed.
func (l *Lid) Dislodge(id string) {
	s, ok := l.byID[id]
	if !ok || s.removed || !s.seated {
		return
	}
	s.seated = false
	l.evaluate()
}

// Seat records a dislodged screw going back into its mount.
func (l *Lid) Seat(id string) {
	s, ok := l.byID[id]
	if !ok || s.removed || s.seated {
		return
	}
	s.seated = true
	l.evaluate()
}

// Released reports whether the lid has come free.
func (l *Lid) Released() bool { return l.released }

// RemovedCount returns how many screws have been unscrewed.
func (l *Lid) RemovedCount() int { return l.removed }

// TotalScrews returns the configured screw count.
func (l *Lid) TotalScrews() int { return l.total }

// ContactCount returns the number of screws currently touched.
func (l *Lid) ContactCount() int { return l.contacts }

// ReleasePending reports whether a debounced release is scheduled.
func (l *Lid) ReleasePending() bool { return l.latch.Pending() }

func (l *Lid) Solved() bool { return l.released }

func (l *Lid) contactChanged(on bool) {
	if on {
		l.contacts++
	} else {
		l.contacts--
	}
	l.contacts = clampInt(l.contacts, 0, l.total)
	l.evaluate()
}

func (l *Lid) screwRemoved(s *Screw, hadContact bool) {
	l.tracked.Remove(s)
	l.removed = clampInt(l.removed+1, 0, l.total)
	if hadContact {
		l.contacts = clampInt(l.contacts-1, 0, l.total)
	}
	l.evaluate()
}

func (l *Lid) evaluate() {
	if l.released {
		return
	}
	if l.removed >= l.total {
		l.release()
		return
	}
	anyContact := false
	l.tracked.Each(func(s *Screw) {
		if s.contact {
			anyContact = true
		}
	})
	l.latch.Update(l.mountEmpty() && !anyContact)
}

func (l *Lid) mountEmpty() bool {
	for _, s := range l.screws {
		if s.seated && !s.removed {
			return false
		}
	}
	return true
}

func (l *Lid) release() {
	if l.released {
		return
	}
	l.released = true
	l.latch.Reset()
	l.sink.Emit(events.Event{Type: events.LidReleased, Subject: l.id})
	l.solvedChanged(true)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
