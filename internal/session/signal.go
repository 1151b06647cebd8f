package session

import (
	"errors"
	"fmt"
)

var ErrBadSignal = errors.New("bad signal")

// Kind names one inbound signal from the host engine.
type Kind string

const (
	SigArm            Kind = "arm"
	SigDrillTrigger   Kind = "drill_trigger"   // On
	SigContact        Kind = "contact"         // Target screw, On
	SigRotate         Kind = "rotate"          // Degrees of tool rotation
	SigScrewDislodged Kind = "screw_dislodged" // Target screw
	SigScrewSeated    Kind = "screw_seated"    // Target screw
	SigPliersGrab     Kind = "pliers_grab"     // Side, On
	SigHands          Kind = "hands"           // Left, Right
	SigGrabDistance   Kind = "grab_distance"   // Distance
	SigJawTouch       Kind = "jaw_touch"       // Side, Target wire, On
	SigTriggerEnter   Kind = "trigger_enter"   // Tag, Position, At
	SigTriggerStay    Kind = "trigger_stay"    // Tag, Position, At
	SigTriggerExit    Kind = "trigger_exit"    // Tag, Position, At
	SigKey            Kind = "key"             // Key
	SigShapePlace     Kind = "shape_place"     // Target socket, Shape
	SigShapeRemove    Kind = "shape_remove"    // Target socket
)

var knownKinds = map[Kind]bool{
	SigArm: true, SigDrillTrigger: true, SigContact: true, SigRotate: true,
	SigScrewDislodged: true, SigScrewSeated: true, SigPliersGrab: true, SigHands: true,
	SigGrabDistance: true, SigJawTouch: true, SigTriggerEnter: true, SigTriggerStay: true,
	SigTriggerExit: true, SigKey: true, SigShapePlace: true, SigShapeRemove: true,
}

// Kinds lists every accepted signal kind.
func Kinds() []Kind {
	return []Kind{
		SigArm, SigDrillTrigger, SigContact, SigRotate, SigScrewDislodged, SigScrewSeated,
		SigPliersGrab, SigHands, SigGrabDistance, SigJawTouch,
		SigTriggerEnter, SigTriggerStay, SigTriggerExit, SigKey, SigShapePlace, SigShapeRemove,
	}
}

// Vec is a position in metres.
type Vec [3]float64

// Signal is one abstract input. Only the fields named next to its Kind are read.
type Signal struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Target   string   `json:"target,omitempty" yaml:"target,omitempty"`
	On       bool     `json:"on,omitempty" yaml:"on,omitempty"`
	Degrees  float64  `json:"degrees,omitempty" yaml:"degrees,omitempty"`
	Distance float64  `json:"distance,omitempty" yaml:"distance,omitempty"`
	Side     string   `json:"side,omitempty" yaml:"side,omitempty"`
	Left     Vec      `json:"left,omitempty" yaml:"left,omitempty"`
	Right    Vec      `json:"right,omitempty" yaml:"right,omitempty"`
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Position Vec      `json:"position,omitempty" yaml:"position,omitempty"`
	At       *float64 `json:"at,omitempty" yaml:"at,omitempty"` // sensor timestamp; defaults to simulation time
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Shape    string   `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// Validate checks the signal shape. It does not look entities up.
func (s Signal) Validate() error {
	if !knownKinds[s.Kind] {
		return fmt.Errorf("%w: unknown kind %q", ErrBadSignal, s.Kind)
	}
	switch s.Kind {
	case SigPliersGrab, SigJawTouch:
		if s.Side != "left" && s.Side != "right" {
			return fmt.Errorf("%w: %s needs side left or right, got %q", ErrBadSignal, s.Kind, s.Side)
		}
	}
	switch s.Kind {
	case SigContact, SigScrewDislodged, SigScrewSeated, SigJawTouch, SigShapePlace, SigShapeRemove:
		if s.Target == "" {
			return fmt.Errorf("%w: %s needs a target", ErrBadSignal, s.Kind)
		}
	}
	return nil
}
