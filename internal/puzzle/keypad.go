package puzzle

import (
	"unicode/utf8"

	"github.com/xtding233/defuse-backend/internal/events"
)

// Keypad key labels with a special meaning; every other single-character key is a digit.
const (
	KeyEnter = "Enter"
	KeyClear = "Clear"
)

// Keypad accepts one static code. Entering it and confirming solves the node;
// a wrong confirmation clears the entry buffer.
type Keypad struct {
	notifier
	code   string
	entry  string
	solved bool
}

// NewKeypad creates a keypad that accepts code.
func NewKeypad(id, code string, sink events.Sink) (*Keypad, error) {
	if id == "" {
		return nil, configErr("keypad id is required")
	}
	if code == "" {
		return nil, configErr("keypad %q has no accepted code", id)
	}
	return &Keypad{notifier: newNotifier(id, KindKeypad, sink), code: code}, nil
}

// Press handles one button: Enter confirms, Clear clears, anything else is a digit.
func (k *Keypad) Press(key string) {
	switch key {
	case KeyEnter:
		k.Confirm()
	case KeyClear:
		k.Clear()
	default:
		k.AddDigit(key)
	}
}

// AddDigit appends a single character while the entry is shorter than the code.
func (k *Keypad) AddDigit(d string) {
	if k.solved || utf8.RuneCountInString(d) != 1 {
		return
	}
	if utf8.RuneCountInString(k.entry) >= utf8.RuneCountInString(k.code) {
		return
	}
	k.entry += d
}

// Confirm checks the entry. It reports whether the code was accepted.
func (k *Keypad) Confirm() bool {
	if k.solved {
		return true
	}
	if k.entry != k.code {
		k.entry = ""
		return false
	}
	k.solved = true
	k.solvedChanged(true)
	return true
}

// Clear empties the entry buffer.
func (k *Keypad) Clear() {
	if k.solved {
		return
	}
	k.entry = ""
}

// Entry returns the current entry buffer.
func (k *Keypad) Entry() string { return k.entry }

func (k *Keypad) Solved() bool { return k.solved }
