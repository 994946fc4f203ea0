package layout

import (
	"math"
	"slices"

	"github.com/yourusername/tiler/internal/types"
)

const (
	// DefaultStackOffset is how far each stacked window is shifted so the
	// ones underneath stay visible
	DefaultStackOffset = 40.0

	minStackWindow    = 100.0
	focusSizeIncrease = 10.0
	focusOffset       = 5.0

	minShare       = 0.05
	shareTolerance = 0.01
)

// Placement is the edge a stack line is drawn on.
type Placement string

const (
	PlaceTop    Placement = "top"
	PlaceBottom Placement = "bottom"
	PlaceLeft   Placement = "left"
	PlaceRight  Placement = "right"
)

// OuterGaps inset the tiling area from the screen edges.
type OuterGaps struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// InnerGaps separate siblings.
type InnerGaps struct {
	Horizontal float64
	Vertical   float64
}

type Gaps struct {
	Outer OuterGaps
	Inner InnerGaps
}

// StackLine reserves room for the stack indicator. A zero thickness
// reserves nothing.
type StackLine struct {
	Thickness      float64
	HorizPlacement Placement
	VertPlacement  Placement
}

// FrameOptions carries the settings that shape frame calculation.
type FrameOptions struct {
	Gaps        Gaps
	StackOffset float64
	StackLine   StackLine
}

// WindowFrame is a computed target frame for one window.
type WindowFrame struct {
	Window types.WindowID
	Frame  types.Rect
}

// tilingArea is the screen minus outer gaps.
func tilingArea(screen types.Rect, g OuterGaps) types.Rect {
	if g.Top == 0 && g.Left == 0 && g.Bottom == 0 && g.Right == 0 {
		return screen
	}
	return types.Rect{
		X:      screen.X + g.Left,
		Y:      screen.Y + g.Top,
		Width:  math.Max(screen.Width-g.Left-g.Right, 0),
		Height: math.Max(screen.Height-g.Top-g.Bottom, 0),
	}.Round()
}

// calculate computes frames for every window in the tree. It does not
// modify the tree.
func (t *Tree) calculate(screen types.Rect, opts FrameOptions) []WindowFrame {
	var out []WindowFrame
	t.applyFrames(t.root, tilingArea(screen, opts.Gaps.Outer), screen, opts, &out)
	return out
}

func (t *Tree) applyFrames(id NodeID, rect, screen types.Rect, opts FrameOptions, out *[]WindowFrame) {
	n := t.nodes[id]
	if n.fullscreen {
		rect = screen
	}
	if n.hasWindow {
		*out = append(*out, WindowFrame{Window: n.window, Frame: rect})
		return
	}
	if len(n.children) == 0 {
		return
	}
	if n.kind.IsStacked() {
		t.applyStackFrames(id, rect, screen, opts, out)
		return
	}
	t.layoutAxis(id, rect, screen, opts, out)
}

func (t *Tree) layoutAxis(id NodeID, rect, screen types.Rect, opts FrameOptions, out *[]WindowFrame) {
	n := t.nodes[id]
	horizontal := n.kind.Orientation() == types.Horizontal
	count := len(n.children)

	sizes := make([]float64, count)
	sum := 0.0
	malformed := false
	for i, c := range n.children {
		sizes[i] = t.nodes[c].size
		sum += sizes[i]
		if sizes[i] < minShare {
			malformed = true
		}
	}
	total := n.total
	if malformed || math.Abs(sum-float64(count)) > shareTolerance {
		for i := range sizes {
			sizes[i] = 1
		}
		total = float64(count)
	}
	if total <= 0 {
		total = sum
	}

	gap := opts.Gaps.Inner.Vertical
	axis := rect.Height
	offset := rect.Y
	if horizontal {
		gap = opts.Gaps.Inner.Horizontal
		axis = rect.Width
		offset = rect.X
	}
	usable := axis
	if gap != 0 {
		usable = math.Max(axis-float64(count-1)*gap, 0)
	}

	for i, c := range n.children {
		seg := usable * sizes[i] / total
		var child types.Rect
		if horizontal {
			child = types.Rect{X: offset, Y: rect.Y, Width: seg, Height: rect.Height}
		} else {
			child = types.Rect{X: rect.X, Y: offset, Width: rect.Width, Height: seg}
		}
		t.applyFrames(c, child.Round(), screen, opts, out)
		offset += seg
		if i < count-1 {
			offset += gap
		}
	}
}

func (t *Tree) applyStackFrames(id NodeID, rect, screen types.Rect, opts FrameOptions, out *[]WindowFrame) {
	n := t.nodes[id]
	horizontal := n.kind == types.KindHorizontalStack
	container := reserveStackLine(rect, horizontal, opts.StackLine)
	stack := newStackLayout(container, len(n.children), opts.StackOffset, horizontal)

	focused := slices.Index(n.children, t.localSelection(id))
	if focused < 0 {
		focused = 0
	}
	for i, c := range n.children {
		frame := stack.frameFor(i)
		if i == focused {
			frame = stack.focusedFrameFor(i)
		}
		t.applyFrames(c, frame, screen, opts, out)
	}
}

func reserveStackLine(rect types.Rect, horizontal bool, line StackLine) types.Rect {
	reserve := math.Max(line.Thickness, 0)
	if reserve == 0 {
		return rect
	}
	out := rect
	if horizontal {
		out.Height = math.Max(rect.Height-reserve, 0)
		if line.HorizPlacement != PlaceBottom {
			out.Y += reserve
		}
		return out
	}
	out.Width = math.Max(rect.Width-reserve, 0)
	if line.VertPlacement == PlaceLeft {
		out.X += reserve
	}
	return out
}

// stackLayout places n windows inside a container with each one shifted
// by offset along the stack axis.
type stackLayout struct {
	container  types.Rect
	offset     float64
	horizontal bool
	width      float64
	height     float64
}

func newStackLayout(container types.Rect, count int, offset float64, horizontal bool) stackLayout {
	spread := 0.0
	if count > 0 {
		spread = float64(count-1) * offset
	}
	s := stackLayout{container: container, offset: offset, horizontal: horizontal}
	if horizontal {
		s.width = math.Max(container.Width-spread, minStackWindow)
		s.height = math.Max(container.Height, minStackWindow)
	} else {
		s.width = math.Max(container.Width, minStackWindow)
		s.height = math.Max(container.Height-spread, minStackWindow)
	}
	return s
}

func (s stackLayout) frameFor(index int) types.Rect {
	shift := float64(index) * s.offset
	r := types.Rect{X: s.container.X, Y: s.container.Y, Width: s.width, Height: s.height}
	if s.horizontal {
		r.X += shift
	} else {
		r.Y += shift
	}
	return r.Round()
}

// focusedFrameFor is frameFor nudged up/left and grown slightly, kept
// inside the container.
func (s stackLayout) focusedFrameFor(index int) types.Rect {
	shift := float64(index) * s.offset
	c := s.container
	var x, y float64
	if s.horizontal {
		x = c.X + shift - focusOffset
		y = c.Y - focusOffset
		if index == 0 {
			x = c.X
		}
		x = math.Min(x, c.MaxX()-(s.width+focusSizeIncrease))
	} else {
		x = c.X - focusOffset
		y = c.Y + shift - focusOffset
		if index == 0 {
			y = c.Y
		}
		y = math.Min(y, c.MaxY()-(s.height+focusSizeIncrease))
	}
	w := math.Min(s.width+focusSizeIncrease, c.Width)
	h := math.Min(s.height+focusSizeIncrease, c.Height)
	x = clamp(x, c.X, c.X+c.Width-w)
	y = clamp(y, c.Y, c.Y+c.Height-h)
	return types.Rect{X: x, Y: y, Width: w, Height: h}.Round()
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
