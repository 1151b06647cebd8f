package puzzle

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/xtding233/defuse-backend/internal/events"
)

// SocketConfig describes one socket of the shape board.
type SocketConfig struct {
	ID      string
	Accepts string // shape tag this socket is solved by
}

// socket tracks what the host has placed in one slot.
type socket struct {
	accepts  string
	occupant string
}

// ShapeBoard is solved while every socket holds its accepted shape. It is the
// one node whose solved flag can flip back: removing a shape unsolves it.
type ShapeBoard struct {
	notifier
	order   []string
	sockets map[string]*socket
	filled  mapset.Set[string]
	solved  bool
}

// NewShapeBoard creates a board with the given sockets.
func NewShapeBoard(id string, sockets []SocketConfig, sink events.Sink) (*ShapeBoard, error) {
	if id == "" {
		return nil, configErr("shape board id is required")
	}
	if len(sockets) == 0 {
		return nil, configErr("shape board %q has no sockets", id)
	}
	b := &ShapeBoard{
		notifier: newNotifier(id, KindShapeBoard, sink),
		sockets:  make(map[string]*socket, len(sockets)),
		filled:   mapset.New[string](),
	}
	for _, s := range sockets {
		if s.ID == "" {
			return nil, configErr("shape board %q has a socket without id", id)
		}
		if s.Accepts == "" {
			return nil, configErr("socket %q has no accepted shape", s.ID)
		}
		if _, dup := b.sockets[s.ID]; dup {
			return nil, configErr("duplicate socket %q", s.ID)
		}
		b.sockets[s.ID] = &socket{accepts: s.Accepts}
		b.order = append(b.order, s.ID)
	}
	return b, nil
}

// Place records shape being seated in socketID. Only the accepted shape fills the socket.
func (b *ShapeBoard) Place(socketID, shape string) {
	s, ok := b.sockets[socketID]
	if !ok || s.occupant != "" || shape == "" {
		return
	}
	s.occupant = shape
	if shape != s.accepts {
		return
	}
	b.filled.Put(socketID)
	if !b.solved && b.filled.Size() == len(b.sockets) {
		b.solved = true
		b.solvedChanged(true)
	}
}

// Remove records the shape leaving socketID.
func (b *ShapeBoard) Remove(socketID string) {
	s, ok := b.sockets[socketID]
	if !ok || s.occupant == "" {
		return
	}
	s.occupant = ""
	b.filled.Remove(socketID)
	if b.solved {
		b.solved = false
		b.solvedChanged(false)
	}
}

// Filled reports whether socketID holds its accepted shape.
func (b *ShapeBoard) Filled(socketID string) bool { return b.filled.Has(socketID) }

// Sockets returns socket ids in configuration order.
func (b *ShapeBoard) Sockets() []string { return append([]string(nil), b.order...) }

func (b *ShapeBoard) Solved() bool { return b.solved }
