package engine

import (
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// HandleEvent applies a semantic event to the layouts and workspaces.
func (e *LayoutEngine) HandleEvent(ev LayoutEvent) EventResponse {
	switch ev := ev.(type) {
	case SpaceExposed:
		e.spaceExposed(ev.Space, ev.Frame)
	case WindowAdded:
		e.addWindow(ev.Space, ev.Window, ev.Info)
	case WindowRemoved:
		e.removeWindow(ev.Window)
	case WindowsOnScreenUpdated:
		e.windowsOnScreenUpdated(ev)
	case WindowFocused:
		e.windowFocused(ev.Spaces, ev.Window)
	case WindowResized:
		e.windowResized(ev)
	case AppClosed:
		e.appClosed(ev.Pid)
	default:
		logging.Warn().Msgf("unhandled layout event %T", ev)
	}
	return EventResponse{}
}

func (e *LayoutEngine) spaceExposed(space types.SpaceID, frame types.Rect) {
	if space == 0 {
		return
	}
	e.screens[space] = frame
	e.workspaces.EnsureSpaceInitialized(space)
	var ids []types.WorkspaceID
	for _, ws := range e.workspaces.ListWorkspaces(space) {
		ids = append(ids, ws.ID)
	}
	e.layouts.EnsureActiveForSpace(space, frame.IntSize(), ids, e.tree)
}

// assign places wid on space and reports its workspace and whether it
// floats. App rule floating only applies the first time a window is seen
// on a space; after that the user's toggles win.
func (e *LayoutEngine) assign(space types.SpaceID, wid types.WindowID, info workspace.WindowInfo) (types.WorkspaceID, bool, bool) {
	_, known := e.workspaces.WorkspaceForWindow(space, wid)
	ws, ruleFloat, err := e.workspaces.AssignWindowWithAppInfo(wid, space, info)
	if err != nil {
		logging.Error().Err(err).Stringer("wid", wid).Uint64("space", uint64(space)).Msg("failed to assign window")
		return 0, false, false
	}
	if ruleFloat && !known {
		e.floating[wid] = struct{}{}
	}
	return ws, e.IsWindowFloating(wid), true
}

func (e *LayoutEngine) addWindow(space types.SpaceID, wid types.WindowID, info workspace.WindowInfo) {
	if space == 0 {
		return
	}
	ws, floating, ok := e.assign(space, wid, info)
	if !ok {
		return
	}
	if floating {
		e.tree.RemoveWindow(wid)
		logging.Debug().Stringer("wid", wid).Uint64("ws", uint64(ws)).Msg("window added as floating")
		return
	}
	id := e.layoutFor(space, ws)
	if e.tree.ContainsWindow(id, wid) {
		return
	}
	// a window that moved between spaces leaves its old layouts
	e.tree.RemoveWindow(wid)
	e.tree.AddWindowAfterSelection(id, wid)
	logging.Debug().Stringer("wid", wid).Uint64("ws", uint64(ws)).Uint32("layout", uint32(id)).Msg("window added")
}

func (e *LayoutEngine) removeWindow(wid types.WindowID) {
	e.tree.RemoveWindow(wid)
	e.workspaces.RemoveWindow(wid)
	e.forgetFloating(wid)
	if e.hasFocused && e.focused == wid {
		e.focused, e.hasFocused = types.WindowID{}, false
	}
}

func (e *LayoutEngine) windowsOnScreenUpdated(ev WindowsOnScreenUpdated) {
	if ev.Space == 0 {
		return
	}
	e.workspaces.EnsureSpaceInitialized(ev.Space)
	tiled := make(map[types.WorkspaceID][]types.WindowID)
	for _, w := range ev.Windows {
		if w.Window.Pid != ev.Pid {
			continue
		}
		info := workspace.WindowInfo{Title: w.Title, Role: w.Role, Subrole: w.Subrole}
		if ev.App != nil {
			info.BundleID, info.AppName = ev.App.BundleID, ev.App.Name
		}
		ws, floating, ok := e.assign(ev.Space, w.Window, info)
		if !ok || floating {
			continue
		}
		tiled[ws] = append(tiled[ws], w.Window)
	}
	for _, ws := range e.workspaces.ListWorkspaces(ev.Space) {
		id := e.layoutFor(ev.Space, ws.ID)
		e.tree.SetWindowsForApp(id, ev.Pid, tiled[ws.ID])
	}
}

func (e *LayoutEngine) windowFocused(spaces []types.SpaceID, wid types.WindowID) {
	e.focused, e.hasFocused = wid, true
	for _, space := range spaces {
		ws, ok := e.workspaces.WorkspaceForWindow(space, wid)
		if !ok {
			continue
		}
		e.workspaces.SetLastFocusedWindow(space, ws, &wid)
		if e.IsWindowFloating(wid) {
			e.floatingFocus[layoutKey{space, ws}] = wid
			continue
		}
		if id, ok := e.layouts.Active(space, ws); ok {
			e.tree.SelectWindow(id, wid)
		}
	}
}

func (e *LayoutEngine) windowResized(ev WindowResized) {
	if e.IsWindowFloating(ev.Window) {
		return
	}
	for _, screen := range ev.Screens {
		if screen.Space == 0 {
			continue
		}
		ws, ok := e.workspaces.WorkspaceForWindow(screen.Space, ev.Window)
		if !ok {
			continue
		}
		id, ok := e.layouts.Active(screen.Space, ws)
		if !ok || !e.tree.ContainsWindow(id, ev.Window) {
			continue
		}
		e.tree.OnWindowResized(id, ev.Window, ev.Old, ev.New, screen.Frame)
		return
	}
}

func (e *LayoutEngine) appClosed(pid types.Pid) {
	e.tree.RemoveWindowsForApp(pid)
	e.workspaces.RemoveWindowsForApp(pid)
	for wid := range e.floating {
		if wid.Pid == pid {
			e.forgetFloating(wid)
		}
	}
	e.scratchpad.RemoveForApp(pid)
	if e.hasFocused && e.focused.Pid == pid {
		e.focused, e.hasFocused = types.WindowID{}, false
	}
}
