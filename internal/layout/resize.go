package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

const (
	// DefaultResizeAmount is the share of the screen a grow/shrink step moves
	DefaultResizeAmount = 0.05
)

// ResizeMode selects whether a resize value is added to the current size or
// replaces it.
type ResizeMode int

const (
	ResizeRelative ResizeMode = iota
	ResizeExact
)

// ResizeValue is a resize amount in pixels or as a fraction.
type ResizeValue struct {
	Value   float64 `json:"value"`
	Percent bool    `json:"percent,omitempty"`
}

// Pixels returns a pixel resize value
func Pixels(v float64) ResizeValue { return ResizeValue{Value: v} }

// Percent returns a fractional resize value (0.25 = 25%)
func Percent(v float64) ResizeValue { return ResizeValue{Value: v, Percent: true} }

// ParseResizeValue accepts "40", "-20px" or "25%".
func ParseResizeValue(raw string) (ResizeValue, error) {
	s := strings.TrimSpace(raw)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return ResizeValue{}, fmt.Errorf("invalid percent %q: %w", raw, err)
		}
		return Percent(v / 100), nil
	}
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return ResizeValue{}, fmt.Errorf("invalid pixel value %q: %w", raw, err)
	}
	return Pixels(v), nil
}

func (v ResizeValue) String() string {
	if v.Percent {
		return strconv.FormatFloat(v.Value*100, 'f', -1, 64) + "%"
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64) + "px"
}

// ResizeCorner picks which edges move. ResizeCornerNone moves the right and
// bottom edges.
type ResizeCorner int

const (
	ResizeCornerNone ResizeCorner = iota
	ResizeCornerTopLeft
	ResizeCornerTopRight
	ResizeCornerBottomLeft
	ResizeCornerBottomRight
)

func (c ResizeCorner) affectsLeft() bool {
	return c == ResizeCornerTopLeft || c == ResizeCornerBottomLeft
}

func (c ResizeCorner) affectsTop() bool {
	return c == ResizeCornerTopLeft || c == ResizeCornerTopRight
}

// ParseResizeCorner parses "top-left", "bottom-right", ... ("" is none).
func ParseResizeCorner(s string) (ResizeCorner, bool) {
	switch strings.ReplaceAll(strings.ToLower(s), "_", "-") {
	case "", "none":
		return ResizeCornerNone, true
	case "top-left":
		return ResizeCornerTopLeft, true
	case "top-right":
		return ResizeCornerTopRight, true
	case "bottom-left":
		return ResizeCornerBottomLeft, true
	case "bottom-right":
		return ResizeCornerBottomRight, true
	}
	return 0, false
}

// CornerFromCursor picks the corner of the quadrant the cursor is in.
func CornerFromCursor(cursor, center types.Point) ResizeCorner {
	left := cursor.X < center.X
	top := cursor.Y < center.Y
	switch {
	case left && top:
		return ResizeCornerTopLeft
	case top:
		return ResizeCornerTopRight
	case left:
		return ResizeCornerBottomLeft
	default:
		return ResizeCornerBottomRight
	}
}

// ResizeDelta is a two dimensional resize request.
type ResizeDelta struct {
	X      ResizeValue  `json:"x"`
	Y      ResizeValue  `json:"y"`
	Mode   ResizeMode   `json:"mode"`
	Corner ResizeCorner `json:"corner"`
}

// ToPixelDelta converts the request into pixel growth for a window of the
// given size on a screen of the given size.
func (d ResizeDelta) ToPixelDelta(current, screen types.Size) (dx, dy float64) {
	return oneDimDelta(d.X, d.Mode, current.Width, screen.Width),
		oneDimDelta(d.Y, d.Mode, current.Height, screen.Height)
}

func oneDimDelta(v ResizeValue, mode ResizeMode, current, screen float64) float64 {
	var target float64
	switch {
	case mode == ResizeRelative && !v.Percent:
		target = current + v.Value
	case mode == ResizeRelative:
		target = current * (1 + v.Value)
	case !v.Percent:
		target = v.Value
	default:
		target = screen * v.Value
	}
	return target - current
}

// Apply returns frame grown by the delta on the edges picked by the corner.
func (d ResizeDelta) Apply(frame types.Rect, screen types.Rect) types.Rect {
	dx, dy := d.ToPixelDelta(frame.Size(), screen.Size())
	out := frame
	if d.Corner.affectsLeft() {
		out.X -= dx
	}
	out.Width += dx
	if d.Corner.affectsTop() {
		out.Y -= dy
	}
	out.Height += dy
	return out
}

// resizeInternal grows (or with a negative ratio shrinks) the nearest
// resizable ancestor of id towards dir. ratio is a fraction of the screen.
func (t *Tree) resizeInternal(id NodeID, ratio float64, dir types.Direction) bool {
	var resizing NodeID
	for _, a := range t.ancestors(id) {
		p := t.parent(a)
		if p != 0 && !t.kind(p).IsStacked() && t.moveOver(a, dir) != 0 {
			resizing = a
			break
		}
	}
	if resizing == 0 {
		return false
	}
	sibling := t.moveOver(resizing, dir)

	exchange := 1.0
	for _, a := range t.ancestors(resizing)[1:] {
		p := t.parent(a)
		if p == 0 || t.kind(p).IsStacked() || t.kind(p).Orientation() != dir.Orientation() {
			continue
		}
		if prop, ok := t.proportion(a); ok {
			exchange *= prop
		}
	}
	if exchange <= 0 {
		return false
	}
	local := ratio * t.nodes[t.parent(resizing)].total / exchange
	t.takeShare(resizing, sibling, local)
	return true
}

// resizeSelectionBy grows the selected window by amount of the screen,
// preferring to take space from the right and below.
func (t *Tree) resizeSelectionBy(amount float64) bool {
	sel := t.selection()
	if _, ok := t.windowAt(sel); !ok {
		return false
	}
	var candidates []NodeID
	for _, a := range t.ancestors(sel) {
		p := t.parent(a)
		if p != 0 && !t.kind(p).IsStacked() {
			candidates = append(candidates, a)
		}
	}
	try := func(dir types.Direction) bool {
		for _, c := range candidates {
			if t.resizeInternal(c, amount, dir) {
				return true
			}
		}
		return false
	}
	return try(types.DirRight) || try(types.DirDown) || try(types.DirLeft) || try(types.DirUp)
}

// setFrameFromResize translates a user resize of a window into share
// changes. Only moves of up to two edges on different axes are supported.
func (t *Tree) setFrameFromResize(id NodeID, oldFrame, newFrame, screen types.Rect) bool {
	type edge struct {
		dir   types.Direction
		delta float64
		whole float64
	}
	edges := []edge{
		{types.DirLeft, oldFrame.X - newFrame.X, screen.Width},
		{types.DirRight, newFrame.MaxX() - oldFrame.MaxX(), screen.Width},
		{types.DirUp, oldFrame.Y - newFrame.Y, screen.Height},
		{types.DirDown, newFrame.MaxY() - oldFrame.MaxY(), screen.Height},
	}

	count := 0
	var first *edge
	for i := range edges {
		e := &edges[i]
		if e.delta == 0 {
			continue
		}
		count++
		if count > 2 || (first != nil && first.dir.Orientation() == e.dir.Orientation()) {
			logging.Warn().
				Str("old", oldFrame.String()).
				Str("new", newFrame.String()).
				Msg("only resizing in 2 directions is supported")
			return false
		}
		if first == nil {
			first = e
		}
	}

	for _, e := range edges {
		if e.delta == 0 || e.whole == 0 {
			continue
		}
		t.resizeInternal(id, e.delta/e.whole, e.dir)
	}
	return true
}
