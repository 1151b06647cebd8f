package bomb

// Easing shapes how the tick cue speeds up as the countdown runs out.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseOutQuad    Easing = "easeOutQuad"
	EaseInOutCubic Easing = "easeInOutCubic"
)

// Valid reports whether e names a known curve. The empty string means linear.
func (e Easing) Valid() bool {
	switch e {
	case "", EaseLinear, EaseOutQuad, EaseInOutCubic:
		return true
	}
	return false
}

// apply maps progress t in [0,1] through the curve.
func (e Easing) apply(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch e {
	case EaseOutQuad:
		// f(t) = 1 - (1 - t)^2
		return 1 - (1-t)*(1-t)
	case EaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := -2*t + 2
		return 1 - u*u*u/2
	default:
		return t
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
