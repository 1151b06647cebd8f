package session

import "github.com/xtding233/defuse-backend/internal/puzzle"

// Snapshot is a read-only view of a session for transports and tests.
type Snapshot struct {
	ID          string        `json:"id" yaml:"id"`
	Version     string        `json:"version,omitempty" yaml:"version,omitempty"`
	State       string        `json:"state" yaml:"state"`
	Outcome     string        `json:"outcome" yaml:"outcome"`
	Reason      string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Time        float64       `json:"time" yaml:"time"`
	Frames      uint64        `json:"frames" yaml:"frames"`
	Remaining   float64       `json:"remaining" yaml:"remaining"`
	Total       float64       `json:"total" yaml:"total"`
	CueInterval float64       `json:"cue_interval" yaml:"cue_interval"`
	Cues        int           `json:"cues" yaml:"cues"`
	Puzzles     []PuzzleState `json:"puzzles" yaml:"puzzles"`
	Keypad      KeypadState   `json:"keypad" yaml:"keypad"`
	Tape        TapeState     `json:"tape" yaml:"tape"`
	Sockets     []SocketState `json:"sockets" yaml:"sockets"`
	Wires       []WireState   `json:"wires" yaml:"wires"`
	Pliers      PliersState   `json:"pliers" yaml:"pliers"`
	Drill       DrillState    `json:"drill" yaml:"drill"`
	Lids        []LidState    `json:"lids" yaml:"lids"`
}

type PuzzleState struct {
	ID     string `json:"id" yaml:"id"`
	Kind   string `json:"kind" yaml:"kind"`
	Solved bool   `json:"solved" yaml:"solved"`
}

type KeypadState struct {
	Entered int `json:"entered" yaml:"entered"` // digits typed, not the digits themselves
}

type TapeState struct {
	State  string  `json:"state" yaml:"state"`
	Travel float64 `json:"travel" yaml:"travel"`
	Dwell  float64 `json:"dwell" yaml:"dwell"`
}

type SocketState struct {
	ID     string `json:"id" yaml:"id"`
	Filled bool   `json:"filled" yaml:"filled"`
}

type WireState struct {
	ID  string `json:"id" yaml:"id"`
	Cut bool   `json:"cut" yaml:"cut"`
}

type PliersState struct {
	Grabbed    bool    `json:"grabbed" yaml:"grabbed"`
	Openness   float64 `json:"openness" yaml:"openness"`
	LeftAngle  float64 `json:"left_angle" yaml:"left_angle"`
	RightAngle float64 `json:"right_angle" yaml:"right_angle"`
	LeftWire   string  `json:"left_wire,omitempty" yaml:"left_wire,omitempty"`
	RightWire  string  `json:"right_wire,omitempty" yaml:"right_wire,omitempty"`
}

type DrillState struct {
	Active   bool     `json:"active" yaml:"active"`
	Contacts []string `json:"contacts" yaml:"contacts"`
}

type LidState struct {
	ID             string       `json:"id" yaml:"id"`
	Released       bool         `json:"released" yaml:"released"`
	Removed        int          `json:"removed" yaml:"removed"`
	Total          int          `json:"total" yaml:"total"`
	Contacts       int          `json:"contacts" yaml:"contacts"`
	ReleasePending bool         `json:"release_pending" yaml:"release_pending"`
	Screws         []ScrewState `json:"screws" yaml:"screws"`
}

type ScrewState struct {
	ID        string  `json:"id" yaml:"id"`
	Removed   bool    `json:"removed" yaml:"removed"`
	Contact   bool    `json:"contact" yaml:"contact"`
	Seated    bool    `json:"seated" yaml:"seated"`
	Position  float64 `json:"position" yaml:"position"`
	Unscrewed float64 `json:"unscrewed" yaml:"unscrewed"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		Version:     s.version,
		State:       s.coord.State().String(),
		Outcome:     s.coord.Outcome().String(),
		Reason:      s.coord.Reason(),
		Time:        s.sched.Now(),
		Frames:      s.frames,
		Remaining:   s.timer.Remaining(),
		Total:       s.timer.Total(),
		CueInterval: s.timer.CueInterval(),
		Cues:        s.timer.Cues(),
		Keypad:      KeypadState{Entered: len([]rune(s.keypad.Entry()))},
		Tape: TapeState{
			State:  s.tape.State().String(),
			Travel: s.tape.Travel(),
			Dwell:  s.tape.Dwell(),
		},
		Drill: DrillState{Active: s.drill.Active(), Contacts: s.drill.Contacts()},
	}
	for _, n := range s.coord.Nodes() {
		snap.Puzzles = append(snap.Puzzles, PuzzleState{ID: n.ID(), Kind: string(n.Kind()), Solved: n.Solved()})
	}
	for _, id := range s.shapes.Sockets() {
		snap.Sockets = append(snap.Sockets, SocketState{ID: id, Filled: s.shapes.Filled(id)})
	}
	for _, w := range s.wires.Wires() {
		snap.Wires = append(snap.Wires, WireState{ID: w.ID(), Cut: w.IsCut()})
	}

	snap.Pliers = PliersState{
		Grabbed:    s.pliers.Grabbed(),
		Openness:   s.pliers.Openness(),
		LeftAngle:  s.pliers.JawAngle(puzzle.Left),
		RightAngle: s.pliers.JawAngle(puzzle.Right),
	}
	if w := s.pliers.Tracked(puzzle.Left); w != nil {
		snap.Pliers.LeftWire = w.ID()
	}
	if w := s.pliers.Tracked(puzzle.Right); w != nil {
		snap.Pliers.RightWire = w.ID()
	}

	for _, l := range s.lids {
		ls := LidState{
			ID:             l.ID(),
			Released:       l.Released(),
			Removed:        l.RemovedCount(),
			Total:          l.TotalScrews(),
			Contacts:       l.ContactCount(),
			ReleasePending: l.ReleasePending(),
		}
		for _, sc := range l.Screws() {
			ls.Screws = append(ls.Screws, ScrewState{
				ID:        sc.ID(),
				Removed:   sc.Removed(),
				Contact:   sc.InContact(),
				Seated:    sc.Seated(),
				Position:  sc.Position(),
				Unscrewed: sc.Unscrewed(),
			})
		}
		snap.Lids = append(snap.Lids, ls)
	}
	return snap
}
