package workspace

import (
	"maps"
	"slices"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/types"
)

// zoomBundleID hides fully; Zoom re-shows windows left with a visible sliver.
const zoomBundleID = "us.zoom.xos"

// HideCorner is the screen corner inactive windows are parked in.
type HideCorner int

const (
	BottomRight HideCorner = iota
	BottomLeft
)

// StoreFloatingPosition remembers where a floating window sits in the
// active workspace of space.
func (m *Manager) StoreFloatingPosition(space types.SpaceID, wid types.WindowID, frame types.Rect) {
	ws, ok := m.ActiveWorkspace(space)
	if !ok {
		return
	}
	m.positions(space, ws)[wid] = frame
}

func (m *Manager) positions(space types.SpaceID, ws types.WorkspaceID) map[types.WindowID]types.Rect {
	key := spaceWorkspace{space, ws}
	p := m.floating[key]
	if p == nil {
		p = make(map[types.WindowID]types.Rect)
		m.floating[key] = p
	}
	return p
}

// FloatingPosition returns the stored frame of a floating window in ws
func (m *Manager) FloatingPosition(space types.SpaceID, ws types.WorkspaceID, wid types.WindowID) (types.Rect, bool) {
	r, ok := m.floating[spaceWorkspace{space, ws}][wid]
	return r, ok
}

// StoreCurrentFloatingPositions records the frames of the floating windows
// of the active workspace, typically right before switching away from it.
func (m *Manager) StoreCurrentFloatingPositions(space types.SpaceID, frames []layout.WindowFrame) {
	ws, ok := m.ActiveWorkspace(space)
	if !ok || len(frames) == 0 {
		return
	}
	p := m.positions(space, ws)
	for _, f := range frames {
		p[f.Window] = f.Frame
	}
}

// WorkspaceFloatingPositions returns every stored floating frame of ws in
// window id order.
func (m *Manager) WorkspaceFloatingPositions(space types.SpaceID, ws types.WorkspaceID) []layout.WindowFrame {
	p := m.floating[spaceWorkspace{space, ws}]
	if len(p) == 0 {
		return nil
	}
	ids := slices.SortedFunc(maps.Keys(p), compareWindows)
	out := make([]layout.WindowFrame, 0, len(ids))
	for _, wid := range ids {
		out = append(out, layout.WindowFrame{Window: wid, Frame: p[wid]})
	}
	return out
}

// MoveFloatingPosition carries the stored frame of wid from one workspace
// of space to another.
func (m *Manager) MoveFloatingPosition(space types.SpaceID, wid types.WindowID, from, to types.WorkspaceID) bool {
	r, ok := m.FloatingPosition(space, from, wid)
	if !ok || from == to {
		return false
	}
	delete(m.floating[spaceWorkspace{space, from}], wid)
	m.positions(space, to)[wid] = r
	return true
}

// RemoveFloatingPosition drops wid from every workspace's floating memory
func (m *Manager) RemoveFloatingPosition(wid types.WindowID) {
	for _, p := range m.floating {
		delete(p, wid)
	}
}

// RemoveAppFloatingPositions drops every floating frame owned by pid
func (m *Manager) RemoveAppFloatingPositions(pid types.Pid) {
	for _, p := range m.floating {
		maps.DeleteFunc(p, func(wid types.WindowID, _ types.Rect) bool { return wid.Pid == pid })
	}
}

// CalculateHiddenPosition parks a window of an inactive workspace in a
// screen corner so that only a one pixel sliver stays on screen. The
// window keeps its size.
func CalculateHiddenPosition(screen types.Rect, size types.Size, corner HideCorner, bundleID string) types.Rect {
	dy := 1.0
	if bundleID == zoomBundleID {
		dy = 0
	}
	var x float64
	switch corner {
	case BottomLeft:
		x = screen.X - size.Width + 1
	default:
		x = screen.MaxX() - 1
	}
	return types.Rect{X: x, Y: screen.MaxY() - dy, Width: size.Width, Height: size.Height}
}
