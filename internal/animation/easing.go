package animation

import (
	"fmt"
	"math"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing int

const (
	EaseInOut Easing = iota
	Linear
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInQuart
	EaseOutQuart
	EaseInOutQuart
	EaseInQuint
	EaseOutQuint
	EaseInOutQuint
	EaseInExpo
	EaseOutExpo
	EaseInOutExpo
	EaseInCirc
	EaseOutCirc
	EaseInOutCirc
)

var easingNames = [...]string{
	EaseInOut:      "easeInOut",
	Linear:         "linear",
	EaseInSine:     "easeInSine",
	EaseOutSine:    "easeOutSine",
	EaseInOutSine:  "easeInOutSine",
	EaseInQuad:     "easeInQuad",
	EaseOutQuad:    "easeOutQuad",
	EaseInOutQuad:  "easeInOutQuad",
	EaseInCubic:    "easeInCubic",
	EaseOutCubic:   "easeOutCubic",
	EaseInOutCubic: "easeInOutCubic",
	EaseInQuart:    "easeInQuart",
	EaseOutQuart:   "easeOutQuart",
	EaseInOutQuart: "easeInOutQuart",
	EaseInQuint:    "easeInQuint",
	EaseOutQuint:   "easeOutQuint",
	EaseInOutQuint: "easeInOutQuint",
	EaseInExpo:     "easeInExpo",
	EaseOutExpo:    "easeOutExpo",
	EaseInOutExpo:  "easeInOutExpo",
	EaseInCirc:     "easeInCirc",
	EaseOutCirc:    "easeOutCirc",
	EaseInOutCirc:  "easeInOutCirc",
}

func (e Easing) String() string {
	if e < 0 || int(e) >= len(easingNames) {
		return fmt.Sprintf("Easing(%d)", int(e))
	}
	return easingNames[e]
}

// ParseEasing looks up an easing by its config name. An empty name is the
// default easeInOut.
func ParseEasing(name string) (Easing, error) {
	if name == "" {
		return EaseInOut, nil
	}
	for i, n := range easingNames {
		if n == name {
			return Easing(i), nil
		}
	}
	return EaseInOut, fmt.Errorf("unknown easing %q", name)
}

// EasingNames lists every accepted easing name
func EasingNames() []string {
	return easingNames[:]
}

// Ease applies the easing curve to t, clamped to [0,1].
func (e Easing) Ease(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case Linear:
		return t
	case EaseInOut, EaseInOutCirc:
		if t < 0.5 {
			return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
		}
		return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
	case EaseInSine:
		return 1 - math.Cos(t*math.Pi/2)
	case EaseOutSine:
		return math.Sin(t * math.Pi / 2)
	case EaseInOutSine:
		return -(math.Cos(math.Pi*t) - 1) / 2
	case EaseInQuad:
		return t * t
	case EaseOutQuad:
		return 1 - (1-t)*(1-t)
	case EaseInOutQuad:
		return inOutPow(t, 2)
	case EaseInCubic:
		return t * t * t
	case EaseOutCubic:
		return 1 - math.Pow(1-t, 3)
	case EaseInOutCubic:
		return inOutPow(t, 3)
	case EaseInQuart:
		return math.Pow(t, 4)
	case EaseOutQuart:
		return 1 - math.Pow(1-t, 4)
	case EaseInOutQuart:
		return inOutPow(t, 4)
	case EaseInQuint:
		return math.Pow(t, 5)
	case EaseOutQuint:
		return 1 - math.Pow(1-t, 5)
	case EaseInOutQuint:
		return inOutPow(t, 5)
	case EaseInExpo:
		if t == 0 {
			return 0
		}
		return math.Pow(2, 10*t-10)
	case EaseOutExpo:
		if t == 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*t)
	case EaseInOutExpo:
		switch {
		case t == 0:
			return 0
		case t == 1:
			return 1
		case t < 0.5:
			return math.Pow(2, 20*t-10) / 2
		default:
			return (2 - math.Pow(2, -20*t+10)) / 2
		}
	case EaseInCirc:
		return 1 - math.Sqrt(1-t*t)
	case EaseOutCirc:
		return math.Sqrt(1 - math.Pow(t-1, 2))
	}
	return t
}

// inOutPow is the symmetric in-out curve of degree n.
func inOutPow(t float64, n float64) float64 {
	if t < 0.5 {
		return math.Pow(2, n-1) * math.Pow(t, n)
	}
	return 1 - math.Pow(-2*t+2, n)/2
}
