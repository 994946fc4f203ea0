package engine

import (
	"math"
	"slices"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// HandleCommand runs a layout command against the active workspace of
// space. visible lists the spaces currently on screen; focus moves that
// run off the edge of space continue onto the neighbouring screen.
func (e *LayoutEngine) HandleCommand(space types.SpaceID, visible []types.SpaceID, cmd LayoutCommand) EventResponse {
	if IsWorkspaceCommand(cmd) {
		return e.HandleVirtualWorkspaceCommand(space, cmd)
	}
	if space == 0 {
		logging.Debug().Str("cmd", cmd.Name()).Msg("no space for layout command")
		return EventResponse{}
	}
	id, ws, err := e.activeLayout(space)
	if err != nil {
		logging.Error().Err(err).Uint64("space", uint64(space)).Str("cmd", cmd.Name()).Msg("no layout for command")
		return EventResponse{}
	}

	switch c := cmd.(type) {
	case MoveFocus:
		if wid, ok, raise := e.tree.MoveFocus(id, c.Direction); ok {
			return focusOn(wid, raise...)
		}
		return e.focusAcrossScreens(space, visible, c.Direction)
	case NextWindow:
		if wid, ok, raise := e.tree.CycleWindow(id, true); ok {
			return focusOn(wid, raise...)
		}
	case PrevWindow:
		if wid, ok, raise := e.tree.CycleWindow(id, false); ok {
			return focusOn(wid, raise...)
		}
	case Ascend:
		e.tree.Ascend(id)
	case Descend:
		e.tree.Descend(id)
	case MoveNode:
		e.tree.MoveSelection(id, c.Direction)
	case JoinWindow:
		e.tree.JoinSelection(id, c.Direction)
	case Stack:
		return EventResponse{RaiseWindows: e.tree.ToggleStack(id)}
	case Unstack:
		return EventResponse{RaiseWindows: e.tree.Unstack(id)}
	case Unjoin:
		e.tree.Unjoin(id)
	case ToggleOrientation:
		e.tree.ToggleOrientation(id)
	case ToggleFullscreen:
		return EventResponse{RaiseWindows: e.tree.ToggleFullscreen(id)}
	case Rebalance:
		e.tree.Rebalance(id)
	case ResizeGrow:
		e.tree.ResizeSelectionBy(id, layout.DefaultResizeAmount)
	case ResizeShrink:
		e.tree.ResizeSelectionBy(id, -layout.DefaultResizeAmount)
	case ResizeCustom:
		e.resizeCustom(space, id, c.Delta)
	case ToggleFloat:
		return e.toggleFloat(space, ws, id)
	case ToggleFocusFloat:
		return e.toggleFocusFloat(space, ws, id)
	case SwapWindows:
		if !e.tree.SwapWindows(id, c.A, c.B) {
			logging.Debug().Stringer("a", c.A).Stringer("b", c.B).Msg("swap ignored")
		}
	case Split:
		e.tree.Split(id, c.Orientation)
	case SendToScratchpad:
		return e.sendToScratchpad(space, ws, id, c.Label)
	case ToggleScratchpad:
		return e.toggleScratchpad(space, ws, id, c.Label)
	default:
		logging.Warn().Str("cmd", cmd.Name()).Msg("unhandled layout command")
	}
	return EventResponse{}
}

func (e *LayoutEngine) resizeCustom(space types.SpaceID, id layout.LayoutID, delta layout.ResizeDelta) {
	screen, ok := e.screens[space]
	if !ok {
		logging.Debug().Uint64("space", uint64(space)).Msg("resize without a known screen")
		return
	}
	sel, ok := e.tree.SelectedWindow(id)
	if !ok {
		return
	}
	for _, f := range e.tree.CalculateLayout(id, screen, e.opts) {
		if f.Window == sel {
			e.tree.ResizeSelection(id, delta, f.Frame, screen)
			return
		}
	}
}

// focusAcrossScreens focuses the selection of the nearest visible space in
// dir.
func (e *LayoutEngine) focusAcrossScreens(space types.SpaceID, visible []types.SpaceID, dir types.Direction) EventResponse {
	from, ok := e.screens[space]
	if !ok {
		return EventResponse{}
	}
	c := from.Center()
	best, bestDist := types.SpaceID(0), math.Inf(1)
	for _, other := range visible {
		r, ok := e.screens[other]
		if other == space || !ok {
			continue
		}
		var inDir bool
		switch dir {
		case types.DirLeft:
			inDir = r.MaxX() <= from.X
		case types.DirRight:
			inDir = r.X >= from.MaxX()
		case types.DirUp:
			inDir = r.MaxY() <= from.Y
		case types.DirDown:
			inDir = r.Y >= from.MaxY()
		}
		if !inDir {
			continue
		}
		oc := r.Center()
		if d := math.Hypot(oc.X-c.X, oc.Y-c.Y); d < bestDist {
			best, bestDist = other, d
		}
	}
	if best == 0 {
		return EventResponse{}
	}
	if wid, ok := e.SelectedWindow(best); ok {
		return focusOn(wid)
	}
	if floating := e.FloatingWindows(best); len(floating) > 0 {
		return focusOn(floating[0])
	}
	return EventResponse{}
}

func (e *LayoutEngine) toggleFloat(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID) EventResponse {
	wid, ok := e.focusedIn(space, ws, id)
	if !ok {
		return EventResponse{}
	}
	key := layoutKey{space, ws}
	if e.IsWindowFloating(wid) {
		e.scratchpad.Remove(wid)
		e.unsetFloating(id, wid)
		if e.floatingFocus[key] == wid {
			delete(e.floatingFocus, key)
		}
		logging.Debug().Stringer("wid", wid).Msg("window tiled")
		return focusOn(wid)
	}

	// the window floats where it was tiled
	if screen, ok := e.screens[space]; ok {
		for _, f := range e.tree.CalculateLayout(id, screen, e.opts) {
			if f.Window == wid {
				e.workspaces.StoreFloatingPosition(space, wid, f.Frame)
			}
		}
	}
	e.setFloating(id, wid)
	e.floatingFocus[key] = wid
	logging.Debug().Stringer("wid", wid).Msg("window floating")
	return focusOn(wid)
}

// toggleFocusFloat moves focus between the floating and the tiled windows
// of the active workspace.
func (e *LayoutEngine) toggleFocusFloat(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID) EventResponse {
	if e.hasFocused && e.IsWindowFloating(e.focused) {
		if wid, ok := e.tree.SelectedWindow(id); ok {
			return focusOn(wid)
		}
		return EventResponse{}
	}

	floating := e.FloatingWindows(space)
	if len(floating) == 0 {
		return EventResponse{}
	}
	if last, ok := e.floatingFocus[layoutKey{space, ws}]; ok && slices.Contains(floating, last) {
		return focusOn(last, floating...)
	}
	return focusOn(floating[0], floating...)
}
