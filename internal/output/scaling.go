package output

import (
	"math"

	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/types"
)

// ScalingContext maps screen pixels onto terminal cells
type ScalingContext struct {
	Origin types.Point
	Pixels types.Size

	TermWidth  int
	TermHeight int

	ScaleX float64
	ScaleY float64

	// divides the vertical scale; 1 stretches the screen over the terminal
	AspectRatio float64
}

// border cells reserved on each side for the screen outline
const border = 1

// NewScalingContextFromScreen scales frame to fill the terminal
func NewScalingContextFromScreen(frame types.Rect, termWidth, termHeight int) *ScalingContext {
	if frame.Width <= 0 || frame.Height <= 0 {
		frame = types.NewRect(0, 0, 1920, 1080)
	}

	availWidth := max(termWidth-2*border-1, 10)
	availHeight := max(termHeight-2*border-1, 5)

	return &ScalingContext{
		Origin:      types.Point{X: frame.X, Y: frame.Y},
		Pixels:      types.Size{Width: frame.Width, Height: frame.Height},
		TermWidth:   termWidth,
		TermHeight:  termHeight,
		ScaleX:      float64(availWidth) / frame.Width,
		ScaleY:      float64(availHeight) / frame.Height,
		AspectRatio: 1.0,
	}
}

// NewScalingContext fits the bounding box of windows, for when no screen
// frame is known
func NewScalingContext(windows []models.Window, termWidth, termHeight int) *ScalingContext {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, w := range windows {
		if w.IsMinimized {
			continue
		}
		minX = math.Min(minX, w.Frame.X)
		minY = math.Min(minY, w.Frame.Y)
		maxX = math.Max(maxX, w.Frame.MaxX())
		maxY = math.Max(maxY, w.Frame.MaxY())
	}
	if minX > maxX {
		return NewScalingContextFromScreen(types.Rect{}, termWidth, termHeight)
	}
	return NewScalingContextFromScreen(types.NewRect(minX, minY, maxX-minX, maxY-minY), termWidth, termHeight)
}

// PixelToTerminal converts a global pixel position to a terminal cell
func (sc *ScalingContext) PixelToTerminal(x, y float64) (int, int) {
	termX := int(math.Round((x - sc.Origin.X) * sc.ScaleX))
	termY := int(math.Round((y - sc.Origin.Y) * sc.ScaleY / sc.AspectRatio))
	return termX + border, termY + border
}

// RectToTerminal converts a frame to a cell box, clamped to the canvas.
// Adjacent frames share their edge cell.
func (sc *ScalingContext) RectToTerminal(r types.Rect) (x, y, w, h int) {
	x, y = sc.PixelToTerminal(r.X, r.Y)
	x2, y2 := sc.PixelToTerminal(r.MaxX(), r.MaxY())
	return sc.ClampToCanvas(x, y, x2-x+1, y2-y+1)
}

// ClampToCanvas keeps a box inside the canvas
func (sc *ScalingContext) ClampToCanvas(x, y, w, h int) (int, int, int, int) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > sc.TermWidth {
		w = sc.TermWidth - x
	}
	if y+h > sc.TermHeight {
		h = sc.TermHeight - y
	}
	return x, y, max(w, 0), max(h, 0)
}
