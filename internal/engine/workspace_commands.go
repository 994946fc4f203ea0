package engine

import (
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// HandleVirtualWorkspaceCommand runs a workspace command on space.
func (e *LayoutEngine) HandleVirtualWorkspaceCommand(space types.SpaceID, cmd LayoutCommand) EventResponse {
	if !e.vw.Enabled {
		logging.Debug().Str("cmd", cmd.Name()).Msg("virtual workspaces disabled")
		return EventResponse{}
	}
	if space == 0 {
		logging.Debug().Str("cmd", cmd.Name()).Msg("no space for workspace command")
		return EventResponse{}
	}
	e.workspaces.EnsureSpaceInitialized(space)

	switch c := cmd.(type) {
	case NextWorkspace:
		if ws, ok := e.workspaces.NextWorkspace(space, 0, c.SkipEmpty); ok {
			return e.switchTo(space, ws)
		}
	case PrevWorkspace:
		if ws, ok := e.workspaces.PrevWorkspace(space, 0, c.SkipEmpty); ok {
			return e.switchTo(space, ws)
		}
	case SwitchToWorkspace:
		if ws, ok := e.workspaces.WorkspaceByIndex(space, c.Index); ok {
			return e.switchTo(space, ws)
		}
		logging.Debug().Int("index", c.Index).Msg("no workspace at index")
	case SwitchToLastWorkspace:
		if ws, ok := e.workspaces.LastWorkspace(space); ok {
			return e.switchTo(space, ws)
		}
	case MoveWindowToWorkspace:
		return e.moveWindowToWorkspace(space, c.Index)
	case CreateWorkspace:
		ws, err := e.workspaces.CreateWorkspace(space, c.Label)
		if err != nil {
			logging.Error().Err(err).Uint64("space", uint64(space)).Msg("failed to create workspace")
			return EventResponse{}
		}
		e.layoutFor(space, ws)
	case RenameWorkspace:
		ws, ok := e.workspaces.WorkspaceByIndex(space, c.Index)
		if !ok || !e.workspaces.RenameWorkspace(space, ws, c.Label) {
			logging.Debug().Int("index", c.Index).Msg("rename ignored")
		}
	default:
		logging.Warn().Str("cmd", cmd.Name()).Msg("unhandled workspace command")
	}
	return EventResponse{}
}

// switchTo activates ws and focuses what the user last worked on there.
func (e *LayoutEngine) switchTo(space types.SpaceID, ws types.WorkspaceID) EventResponse {
	if cur, ok := e.workspaces.ActiveWorkspace(space); ok && cur == ws {
		return EventResponse{}
	}
	if !e.workspaces.SetActiveWorkspace(space, ws) {
		logging.Error().Uint64("ws", uint64(ws)).Uint64("space", uint64(space)).Msg("failed to activate workspace")
		return EventResponse{}
	}
	id := e.layoutFor(space, ws)
	logging.Info().Uint64("ws", uint64(ws)).Uint64("space", uint64(space)).Msg("switched workspace")

	if e.vw.PreserveFocusPerWorkspace {
		if wid, ok := e.workspaces.LastFocusedWindow(space, ws); ok {
			if !e.IsWindowFloating(wid) {
				e.tree.SelectWindow(id, wid)
			}
			return focusOn(wid)
		}
	}
	if wid, ok := e.tree.SelectedWindow(id); ok {
		return focusOn(wid)
	}
	if floating := e.FloatingWindows(space); len(floating) > 0 {
		return focusOn(floating[0])
	}
	return EventResponse{}
}

// moveWindowToWorkspace sends the focused window of the active workspace
// to the workspace at index and focuses what is left behind.
func (e *LayoutEngine) moveWindowToWorkspace(space types.SpaceID, index int) EventResponse {
	target, ok := e.workspaces.WorkspaceByIndex(space, index)
	if !ok {
		logging.Debug().Int("index", index).Msg("no workspace at index")
		return EventResponse{}
	}
	id, cur, err := e.activeLayout(space)
	if err != nil || cur == target {
		return EventResponse{}
	}
	wid, ok := e.focusedIn(space, cur, id)
	if !ok {
		return EventResponse{}
	}
	if !e.workspaces.AssignWindowToWorkspace(space, wid, target) {
		logging.Error().Stringer("wid", wid).Uint64("ws", uint64(target)).Msg("failed to move window")
		return EventResponse{}
	}

	if e.IsWindowFloating(wid) {
		e.workspaces.MoveFloatingPosition(space, wid, cur, target)
		delete(e.floatingFocus, layoutKey{space, cur})
	} else {
		e.tree.RemoveWindow(wid)
		delete(e.floatAnchors, wid)
		e.tree.AddWindowAfterSelection(e.layoutFor(space, target), wid)
	}
	logging.Debug().Stringer("wid", wid).Uint64("from", uint64(cur)).Uint64("to", uint64(target)).Msg("moved window to workspace")

	if e.hasFocused && e.focused == wid {
		e.hasFocused = false
	}
	if next, ok := e.tree.SelectedWindow(id); ok {
		return focusOn(next)
	}
	return EventResponse{}
}
