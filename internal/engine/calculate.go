package engine

import (
	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// WindowHint is what the caller knows about a window the engine may hide.
type WindowHint struct {
	Size     types.Size
	BundleID string
}

// HintLookup returns the current size and owning bundle of a window.
type HintLookup func(types.WindowID) (WindowHint, bool)

// CalculateLayoutWithVirtualWorkspaces returns target frames for every
// window on space: tiled frames for the active workspace, stored positions
// for its floating windows, and hidden positions for the windows of every
// other workspace.
func (e *LayoutEngine) CalculateLayoutWithVirtualWorkspaces(space types.SpaceID, screen types.Rect, lookup HintLookup) []layout.WindowFrame {
	id, active, err := e.activeLayout(space)
	if err != nil {
		return nil
	}
	out := e.tree.CalculateLayout(id, screen, e.opts)
	for _, f := range e.floatingFrames(space, active) {
		if !e.IsScratchpadHidden(f.Window) {
			out = append(out, f)
		}
	}

	var predicted map[types.WindowID]types.Rect
	for _, wid := range e.hiddenWindows(space) {
		hint, ok := WindowHint{}, false
		if lookup != nil {
			hint, ok = lookup(wid)
		}
		if !ok || hint.Size.Width <= 0 || hint.Size.Height <= 0 {
			if predicted == nil {
				predicted = e.predictInactive(space, screen)
			}
			r, known := predicted[wid]
			if !known {
				continue
			}
			hint.Size = r.Size()
		}
		out = append(out, layout.WindowFrame{
			Window: wid,
			Frame:  workspace.CalculateHiddenPosition(screen, hint.Size, workspace.BottomRight, hint.BundleID),
		})
	}
	return out
}

// hiddenWindows lists the windows of space parked off screen: those of
// inactive workspaces and the active workspace's dismissed scratchpad
// windows.
func (e *LayoutEngine) hiddenWindows(space types.SpaceID) []types.WindowID {
	out := e.workspaces.WindowsInInactiveWorkspaces(space)
	for _, wid := range e.workspaces.WindowsInActiveWorkspace(space) {
		if e.IsScratchpadHidden(wid) {
			out = append(out, wid)
		}
	}
	return out
}

// CalculateLayoutForWorkspace predicts the frames ws would get if it were
// active on space.
func (e *LayoutEngine) CalculateLayoutForWorkspace(space types.SpaceID, ws types.WorkspaceID, screen types.Rect) []layout.WindowFrame {
	if _, ok := e.workspaces.Workspace(space, ws); !ok {
		return nil
	}
	id := e.layoutFor(space, ws)
	out := e.tree.CalculateLayout(id, screen, e.opts)
	return append(out, e.floatingFrames(space, ws)...)
}

// floatingFrames returns stored positions for the floating windows of ws.
// Floating windows without one are left where they are.
func (e *LayoutEngine) floatingFrames(space types.SpaceID, ws types.WorkspaceID) []layout.WindowFrame {
	var out []layout.WindowFrame
	for _, f := range e.workspaces.WorkspaceFloatingPositions(space, ws) {
		if e.IsWindowFloating(f.Window) {
			out = append(out, f)
		}
	}
	return out
}

func (e *LayoutEngine) predictInactive(space types.SpaceID, screen types.Rect) map[types.WindowID]types.Rect {
	active, _ := e.workspaces.ActiveWorkspace(space)
	out := make(map[types.WindowID]types.Rect)
	for _, f := range e.floatingFrames(space, active) {
		out[f.Window] = f.Frame
	}
	for _, ws := range e.workspaces.ListWorkspaces(space) {
		if ws.ID == active {
			continue
		}
		for _, f := range e.CalculateLayoutForWorkspace(space, ws.ID, screen) {
			out[f.Window] = f.Frame
		}
	}
	return out
}
