package types

// Direction represents navigation direction
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection converts a string to Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	default:
		return 0, false
	}
}

// Orientation is the axis a direction moves along.
func (d Direction) Orientation() Orientation {
	if d == DirLeft || d == DirRight {
		return Horizontal
	}
	return Vertical
}

// Forward reports whether the direction points towards later children
// (right or down).
func (d Direction) Forward() bool {
	return d == DirRight || d == DirDown
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirUp:
		return DirDown
	default:
		return DirUp
	}
}

// Orientation is the split axis of a container.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// LayoutKind describes how a container arranges its children.
type LayoutKind int

const (
	KindHorizontal LayoutKind = iota
	KindVertical
	KindHorizontalStack
	KindVerticalStack
)

// KindFor returns the split kind for an orientation.
func KindFor(o Orientation) LayoutKind {
	if o == Vertical {
		return KindVertical
	}
	return KindHorizontal
}

// StackKindFor returns the stacked kind for an orientation.
func StackKindFor(o Orientation) LayoutKind {
	if o == Vertical {
		return KindVerticalStack
	}
	return KindHorizontalStack
}

func (k LayoutKind) Orientation() Orientation {
	switch k {
	case KindVertical, KindVerticalStack:
		return Vertical
	default:
		return Horizontal
	}
}

// IsStacked reports whether the container shows one child at a time.
func (k LayoutKind) IsStacked() bool {
	return k == KindHorizontalStack || k == KindVerticalStack
}

func (k LayoutKind) String() string {
	switch k {
	case KindHorizontal:
		return "horizontal"
	case KindVertical:
		return "vertical"
	case KindHorizontalStack:
		return "horizontal_stack"
	case KindVerticalStack:
		return "vertical_stack"
	default:
		return "unknown"
	}
}

// ParseLayoutKind is the inverse of LayoutKind.String.
func ParseLayoutKind(s string) (LayoutKind, bool) {
	switch s {
	case "horizontal":
		return KindHorizontal, true
	case "vertical":
		return KindVertical, true
	case "horizontal_stack":
		return KindHorizontalStack, true
	case "vertical_stack":
		return KindVerticalStack, true
	default:
		return 0, false
	}
}
