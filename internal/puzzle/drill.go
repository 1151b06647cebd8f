package puzzle

import "math"

// DefaultDrillRPM is the tip speed of the electric screwdriver.
const DefaultDrillRPM = 1200

// Drill is the screwdriver tool. It keeps the set of screws its tip touches and
// forwards rotation to them while its trigger is held.
type Drill struct {
	id       string
	rpm      float64
	active   bool
	contacts []*Screw
}

// NewDrill creates a drill spinning at rpm while active.
func NewDrill(id string, rpm float64) (*Drill, error) {
	if id == "" {
		return nil, configErr("drill id is required")
	}
	if math.IsNaN(rpm) || math.IsInf(rpm, 0) || rpm < 0 {
		return nil, configErr("drill %q: rpm must be finite and >= 0", id)
	}
	return &Drill{id: id, rpm: rpm}, nil
}

// ID returns the drill id.
func (d *Drill) ID() string { return d.id }

// Active reports whether the trigger is held.
func (d *Drill) Active() bool { return d.active }

// SetActive records the trigger being pressed or released.
func (d *Drill) SetActive(on bool) { d.active = on }

// Touch starts contact between the tip and s. It reports false when s is
// already touched or gone.
func (d *Drill) Touch(s *Screw) bool {
	if s == nil || s.removed || d.touching(s) >= 0 {
		return false
	}
	d.contacts = append(d.contacts, s)
	s.attach(d, func() { d.forget(s) })
	s.setContact(true)
	return true
}

// Release ends contact with s.
func (d *Drill) Release(s *Screw) bool {
	if s == nil || d.touching(s) < 0 {
		return false
	}
	d.forget(s)
	s.release()
	s.setContact(false)
	return true
}

// Drop ends every contact, as when the tool is put away.
func (d *Drill) Drop() {
	for _, s := range append([]*Screw(nil), d.contacts...) {
		d.Release(s)
	}
}

// Rotate forwards deltaDegrees of tip rotation to every touched screw.
func (d *Drill) Rotate(deltaDegrees float64) {
	for _, s := range append([]*Screw(nil), d.contacts...) {
		s.ApplyRotation(deltaDegrees)
	}
}

// Spin advances the motor by dt seconds and returns the degrees it turned.
func (d *Drill) Spin(dt float64) float64 {
	if !d.active || !(dt > 0) {
		return 0
	}
	deg := d.rpm * 360 / 60 * dt
	d.Rotate(deg)
	return deg
}

// Contacts returns the ids of the touched screws in touch order.
func (d *Drill) Contacts() []string {
	out := make([]string, 0, len(d.contacts))
	for _, s := range d.contacts {
		out = append(out, s.id)
	}
	return out
}

func (d *Drill) touching(s *Screw) int {
	for i, c := range d.contacts {
		if c == s {
			return i
		}
	}
	return -1
}

func (d *Drill) forget(s *Screw) {
	if i := d.touching(s); i >= 0 {
		d.contacts = append(d.contacts[:i], d.contacts[i+1:]...)
	}
}
