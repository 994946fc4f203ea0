package layout

import (
	"testing"

	"github.com/yourusername/tiler/internal/types"
)

func TestParseResizeValue(t *testing.T) {
	tests := []struct {
		in      string
		want    ResizeValue
		wantErr bool
	}{
		{"40", Pixels(40), false},
		{"-20px", Pixels(-20), false},
		{"25%", Percent(0.25), false},
		{" 50 % ", Percent(0.5), false},
		{"wide", ResizeValue{}, true},
		{"%", ResizeValue{}, true},
	}
	for _, tt := range tests {
		got, err := ParseResizeValue(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResizeValue(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseResizeValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseResizeCorner(t *testing.T) {
	tests := []struct {
		in   string
		want ResizeCorner
		ok   bool
	}{
		{"", ResizeCornerNone, true},
		{"top-left", ResizeCornerTopLeft, true},
		{"BOTTOM_RIGHT", ResizeCornerBottomRight, true},
		{"middle", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseResizeCorner(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseResizeCorner(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCornerFromCursor(t *testing.T) {
	center := types.Point{X: 100, Y: 100}
	tests := []struct {
		cursor types.Point
		want   ResizeCorner
	}{
		{types.Point{X: 10, Y: 10}, ResizeCornerTopLeft},
		{types.Point{X: 150, Y: 10}, ResizeCornerTopRight},
		{types.Point{X: 10, Y: 150}, ResizeCornerBottomLeft},
		{types.Point{X: 150, Y: 150}, ResizeCornerBottomRight},
	}
	for _, tt := range tests {
		if got := CornerFromCursor(tt.cursor, center); got != tt.want {
			t.Errorf("CornerFromCursor(%v) = %v, want %v", tt.cursor, got, tt.want)
		}
	}
}

func TestResizeDeltaApply(t *testing.T) {
	frame := types.NewRect(100, 100, 400, 300)
	scr := types.NewRect(0, 0, 1000, 800)
	tests := []struct {
		name  string
		delta ResizeDelta
		want  types.Rect
	}{
		{"grow right", ResizeDelta{X: Pixels(50)}, types.NewRect(100, 100, 450, 300)},
		{"grow from top left", ResizeDelta{X: Pixels(50), Y: Pixels(20), Corner: ResizeCornerTopLeft}, types.NewRect(50, 80, 450, 320)},
		{"relative percent", ResizeDelta{X: Percent(0.5)}, types.NewRect(100, 100, 600, 300)},
		{"exact pixels", ResizeDelta{X: Pixels(200), Y: Pixels(300), Mode: ResizeExact}, types.NewRect(100, 100, 200, 300)},
		{"exact percent of screen", ResizeDelta{X: Percent(0.5), Y: Percent(0.5), Mode: ResizeExact}, types.NewRect(100, 100, 500, 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.delta.Apply(frame, scr); got != tt.want {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResizeFallsBackToVerticalNeighbour(t *testing.T) {
	// [w1, [w2 / w3]]: w2 has nothing to its right, so it grows into w3.
	s, id := newLayout(t, 3)
	s.SelectWindow(id, w(2))
	s.JoinSelection(id, types.DirRight)
	s.ToggleOrientation(id)
	s.SelectWindow(id, w(2))

	if !s.ResizeSelectionBy(id, 0.1) {
		t.Fatal("ResizeSelectionBy() = false")
	}
	got := frames(s, id, FrameOptions{})
	if got[w(1)].Width != 500 {
		t.Errorf("w1 width = %v, want 500", got[w(1)].Width)
	}
	if got[w(2)].Height != 600 {
		t.Errorf("w2 height = %v, want 600", got[w(2)].Height)
	}
}
