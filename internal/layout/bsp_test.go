package layout

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/yourusername/tiler/internal/types"
)

func newBSPLayout(t *testing.T, n int) (*BSP, LayoutID) {
	t.Helper()
	b := NewBSP()
	id := b.CreateLayout()
	for i := 1; i <= n; i++ {
		b.AddWindowAfterSelection(id, w(uint32(i)))
	}
	return b, id
}

func tilerFrames(s Tiler, id LayoutID, opts FrameOptions) map[types.WindowID]types.Rect {
	out := make(map[types.WindowID]types.Rect)
	for _, f := range s.CalculateLayout(id, screen, opts) {
		out[f.Window] = f.Frame
	}
	return out
}

func TestBSPInsertAlternatesAxis(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 500, 1000),
		w(2): types.NewRect(500, 0, 500, 500),
		w(3): types.NewRect(500, 500, 500, 500),
	})
	if got, _ := b.SelectedWindow(id); got != w(3) {
		t.Errorf("SelectedWindow() = %v, want %v", got, w(3))
	}
	if got := b.Windows(id); !slices.Equal(got, []types.WindowID{w(1), w(2), w(3)}) {
		t.Errorf("Windows() = %v", got)
	}
}

func TestBSPRemovePromotesSibling(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	b.RemoveWindow(w(2))
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 500, 1000),
		w(3): types.NewRect(500, 0, 500, 1000),
	})
	if got, _ := b.SelectedWindow(id); got != w(3) {
		t.Errorf("SelectedWindow() = %v, want %v", got, w(3))
	}

	b.RemoveWindow(w(3))
	b.RemoveWindow(w(1))
	if got := b.Windows(id); len(got) != 0 {
		t.Errorf("Windows() = %v, want none", got)
	}
	b.AddWindowAfterSelection(id, w(4))
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{w(4): screen})
}

func TestBSPMoveFocus(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	steps := []struct {
		dir  types.Direction
		want types.WindowID
		ok   bool
	}{
		{types.DirLeft, w(1), true},
		{types.DirLeft, types.WindowID{}, false},
		{types.DirRight, w(2), true},
		{types.DirUp, types.WindowID{}, false},
		{types.DirDown, w(3), true},
	}
	for i, s := range steps {
		got, ok, _ := b.MoveFocus(id, s.dir)
		if ok != s.ok || got != s.want {
			t.Errorf("step %d: MoveFocus(%v) = %v, %v, want %v, %v", i, s.dir, got, ok, s.want, s.ok)
		}
	}
}

func TestBSPMoveSelectionSwapsLeaves(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	b.SelectWindow(id, w(1))
	if !b.MoveSelection(id, types.DirRight) {
		t.Fatal("MoveSelection() = false")
	}
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(2): types.NewRect(0, 0, 500, 1000),
		w(1): types.NewRect(500, 0, 500, 500),
		w(3): types.NewRect(500, 500, 500, 500),
	})
	if got, _ := b.SelectedWindow(id); got != w(1) {
		t.Errorf("SelectedWindow() = %v, want %v", got, w(1))
	}
	if b.MoveSelection(id, types.DirUp) {
		t.Error("MoveSelection(up) at the edge = true")
	}
}

func TestBSPResize(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	b.SelectWindow(id, w(1))
	if !b.ResizeSelectionBy(id, 0.1) {
		t.Fatal("ResizeSelectionBy() = false")
	}
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 600, 1000),
		w(2): types.NewRect(600, 0, 400, 500),
		w(3): types.NewRect(600, 500, 400, 500),
	})

	b.OnWindowResized(id, w(1), types.NewRect(0, 0, 600, 1000), types.NewRect(0, 0, 500, 1000), screen)
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 500, 1000),
		w(2): types.NewRect(500, 0, 500, 500),
		w(3): types.NewRect(500, 500, 500, 500),
	})

	b.OnWindowResized(id, w(3), types.NewRect(500, 500, 500, 500), types.NewRect(500, 300, 500, 700), screen)
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 500, 1000),
		w(2): types.NewRect(500, 0, 500, 300),
		w(3): types.NewRect(500, 300, 500, 700),
	})

	b.Rebalance(id)
	if got := tilerFrames(b, id, FrameOptions{})[w(2)]; got != types.NewRect(500, 0, 500, 500) {
		t.Errorf("frame after Rebalance = %v", got)
	}
}

func TestBSPSplitThenAdd(t *testing.T) {
	b, id := newBSPLayout(t, 1)
	if !b.Split(id, types.Vertical) {
		t.Fatal("Split() = false")
	}
	if _, ok := b.SelectedWindow(id); ok {
		t.Error("empty half should be selected after Split")
	}
	if b.Split(id, types.Horizontal) {
		t.Error("Split() of an empty leaf = true")
	}
	b.AddWindowAfterSelection(id, w(2))
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 1000, 500),
		w(2): types.NewRect(0, 500, 1000, 500),
	})
}

func TestBSPGapsAndFullscreen(t *testing.T) {
	b, id := newBSPLayout(t, 2)
	opts := FrameOptions{Gaps: Gaps{Inner: InnerGaps{Horizontal: 10}}}
	checkFrames(t, tilerFrames(b, id, opts), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 495, 1000),
		w(2): types.NewRect(505, 0, 495, 1000),
	})

	if got := b.ToggleFullscreen(id); !slices.Equal(got, []types.WindowID{w(2)}) {
		t.Errorf("ToggleFullscreen() = %v", got)
	}
	if !b.IsFullscreen(id, w(2)) {
		t.Error("IsFullscreen() = false")
	}
	if got := tilerFrames(b, id, opts)[w(2)]; got != screen {
		t.Errorf("fullscreen frame = %v, want %v", got, screen)
	}
	if got := b.ToggleFullscreen(id); got != nil {
		t.Errorf("second ToggleFullscreen() = %v, want nil", got)
	}
}

func TestBSPUnsupportedOperations(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	if b.JoinSelection(id, types.DirRight) || b.Unjoin(id) {
		t.Error("join operations should be refused")
	}
	if b.ToggleStack(id) != nil || b.Unstack(id) != nil {
		t.Error("stack operations should be refused")
	}
}

func TestBSPAscendAndToggleOrientation(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	if !b.Ascend(id) {
		t.Fatal("Ascend() = false")
	}
	if !b.ToggleOrientation(id) {
		t.Fatal("ToggleOrientation() = false")
	}
	checkFrames(t, tilerFrames(b, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 500, 1000),
		w(2): types.NewRect(500, 0, 250, 1000),
		w(3): types.NewRect(750, 0, 250, 1000),
	})
	if !b.Descend(id) {
		t.Fatal("Descend() = false")
	}
	if got, _ := b.SelectedWindow(id); got != w(2) {
		t.Errorf("SelectedWindow() = %v, want %v", got, w(2))
	}
}

func TestBSPSnapshotRoundTrip(t *testing.T) {
	b, id := newBSPLayout(t, 3)
	b.SelectWindow(id, w(1))
	b.ResizeSelectionBy(id, 0.1)

	data, err := json.Marshal(b.Snapshot())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var snap SystemSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Mode() != ModeBSP {
		t.Errorf("Mode() = %q, want %q", restored.Mode(), ModeBSP)
	}
	checkFrames(t, tilerFrames(restored, id, FrameOptions{}), tilerFrames(b, id, FrameOptions{}))
	if a, c := b.Draw(id), restored.Draw(id); a != c {
		t.Errorf("Draw differs after restore:\n%s\n%s", a, c)
	}

	partial, err := Restore(snap, func(wid types.WindowID) bool { return wid != w(2) })
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	checkFrames(t, tilerFrames(partial, id, FrameOptions{}), map[types.WindowID]types.Rect{
		w(1): types.NewRect(0, 0, 600, 1000),
		w(3): types.NewRect(600, 0, 400, 1000),
	})
	if got, _ := partial.SelectedWindow(id); got != w(1) {
		t.Errorf("SelectedWindow() = %v, want %v", got, w(1))
	}
}

func TestRestoreBSPRejectsMalformedSnapshots(t *testing.T) {
	wid := w(1)
	leaf := NodeSnapshot{Size: 0.5, Window: &wid, Selected: -1}
	tests := []struct {
		name string
		root NodeSnapshot
	}{
		{"three children", NodeSnapshot{Kind: "horizontal", Selected: 0, Children: []NodeSnapshot{
			{Size: 1, Selected: -1}, {Size: 1, Selected: -1}, {Size: 1, Selected: -1},
		}}},
		{"stacked kind", NodeSnapshot{Kind: "vertical_stack", Selected: 0, Children: []NodeSnapshot{
			{Size: 1, Selected: -1}, {Size: 1, Selected: -1},
		}}},
		{"duplicate window", NodeSnapshot{Kind: "horizontal", Selected: 0, Children: []NodeSnapshot{leaf, leaf}}},
		{"bad size", NodeSnapshot{Kind: "horizontal", Selected: 0, Children: []NodeSnapshot{
			{Size: -1, Selected: -1}, {Size: 1, Selected: -1},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := SystemSnapshot{Version: SnapshotVersion, Mode: ModeBSP, Layouts: map[LayoutID]NodeSnapshot{1: tt.root}}
			if _, err := Restore(snap, nil); err == nil {
				t.Error("Restore() expected error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeTraditional, true},
		{"traditional", ModeTraditional, true},
		{" BSP ", ModeBSP, true},
		{"dwindle", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
