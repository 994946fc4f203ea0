package reactor

import (
	"slices"

	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/mainwindow"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
)

// recordWindow inserts or refreshes the state of wid and its window
// server mapping.
func (r *Reactor) recordWindow(wid types.WindowID, info WindowInfo) *WindowState {
	st, ok := r.windows[wid]
	if ok {
		if st.ServerID != nil && (info.ServerID == nil || *info.ServerID != *st.ServerID) {
			delete(r.windowIDs, *st.ServerID)
		}
		st.update(info)
	} else {
		st = newWindowState(info)
		r.windows[wid] = st
	}
	if st.ServerID != nil {
		r.windowIDs[*st.ServerID] = wid
	}
	st.Manageable = r.manageable(st)
	return st
}

func (r *Reactor) windowCreated(ev WindowCreated) {
	if ev.Server != nil {
		r.serverInfo[ev.Server.ID] = *ev.Server
		r.visible[ev.Server.ID] = struct{}{}
	}
	st := r.recordWindow(ev.Window, ev.Info)
	logging.Debug().Stringer("wid", ev.Window).Str("title", st.Title).Bool("manageable", st.Manageable).Msg("window created")

	if ev.MouseDown {
		r.mouseDown = true
		r.ensureDrag(ev.Window, st.Frame)
	}
	if !st.Manageable {
		return
	}
	if space := r.bestSpace(st.Frame); space != 0 {
		r.sendLayout(engine.WindowAdded{Space: space, Window: ev.Window, Info: r.windowInfoFor(ev.Window)})
	}
}

// windowDestroyed drops wid from every index and from the layouts.
func (r *Reactor) windowDestroyed(wid types.WindowID) {
	st, ok := r.windows[wid]
	if !ok {
		logging.Debug().Stringer("wid", wid).Msg("destroyed window was not known")
		return
	}
	if st.ServerID != nil {
		if cur, ok := r.windowIDs[*st.ServerID]; ok && cur == wid {
			delete(r.windowIDs, *st.ServerID)
		}
	}
	delete(r.windows, wid)
	r.txids.forget(wid)
	if r.drag != nil && r.drag.window == wid {
		r.drag = nil
	}
	if r.swap != nil && (r.swap.dragged == wid || r.swap.target == wid) {
		r.swap = nil
	}
	r.sendLayout(engine.WindowRemoved{Window: wid})
	logging.Debug().Stringer("wid", wid).Msg("window destroyed")

	// last window of a terminated app: sweep whatever the engine still
	// holds for it, e.g. restored windows that never reappeared
	if _, live := r.apps[wid.Pid]; !live && !r.hasWindowsFor(wid.Pid) {
		r.sendLayout(engine.AppClosed{Pid: wid.Pid})
		logging.Debug().Int32("pid", int32(wid.Pid)).Msg("app closed")
	}
}

func (r *Reactor) hasWindowsFor(pid types.Pid) bool {
	for wid := range r.windows {
		if wid.Pid == pid {
			return true
		}
	}
	return false
}

func (r *Reactor) windowMinimized(wid types.WindowID) {
	st, ok := r.windows[wid]
	if !ok {
		return
	}
	st.IsMinimized = true
	st.Manageable = false
	r.sendLayout(engine.WindowRemoved{Window: wid})
}

func (r *Reactor) windowDeminiaturized(wid types.WindowID) {
	st, ok := r.windows[wid]
	if !ok {
		return
	}
	st.IsMinimized = false
	st.Manageable = r.manageable(st)
	if !st.Manageable {
		return
	}
	if space := r.bestSpace(st.Frame); space != 0 {
		r.sendLayout(engine.WindowAdded{Space: space, Window: wid, Info: r.windowInfoFor(wid)})
	}
}

// windowFrameChanged handles a frame the app reports. It returns true when
// the change was a user resize of a tiled window.
func (r *Reactor) windowFrameChanged(ev WindowFrameChanged) bool {
	wid := ev.Window
	st, ok := r.windows[wid]
	if !ok {
		return false
	}
	if r.missionControl {
		return false
	}
	if last := r.txids.lastSent(wid); ev.LastSeen != last {
		logging.Debug().Stringer("wid", wid).Uint32("txid", uint32(ev.LastSeen)).Uint32("lastSent", uint32(last)).Msg("dropping stale frame change")
		return false
	}
	if ev.Requested {
		return false
	}
	old := st.Frame
	if old.SameAs(ev.Frame) {
		return false
	}
	r.txids.clearTarget(wid)

	resized := old.Width != ev.Frame.Width || old.Height != ev.Frame.Height
	if !resized && (ev.MouseDown || r.drag != nil) {
		r.mouseDown = true
		r.ensureDrag(wid, old)
		st.Frame = ev.Frame
		r.updateDrag(wid)
		return false
	}

	st.Frame = ev.Frame
	if !st.Manageable {
		return false
	}
	oldSpace, newSpace := r.bestSpace(old), r.bestSpace(ev.Frame)
	if oldSpace != newSpace {
		r.windowChangedSpace(wid, newSpace)
		return false
	}
	if newSpace == 0 {
		return false
	}
	if r.engine.IsWindowFloating(wid) {
		r.engine.StoreFloatingPosition(newSpace, wid, ev.Frame)
		return false
	}
	if resized {
		r.sendLayout(engine.WindowResized{Window: wid, Old: old, New: ev.Frame, Screens: r.screenFrames()})
		return true
	}
	return false
}

// windowChangedSpace moves wid into the active workspace of space, or out
// of every layout when space is unmanaged.
func (r *Reactor) windowChangedSpace(wid types.WindowID, space types.SpaceID) {
	if space == 0 {
		r.sendLayout(engine.WindowRemoved{Window: wid})
		return
	}
	if ws, ok := r.engine.ActiveWorkspace(space); ok {
		r.engine.VirtualWorkspaces().AssignWindowToWorkspace(space, wid, ws)
	}
	r.sendLayout(engine.WindowAdded{Space: space, Window: wid, Info: r.windowInfoFor(wid)})
	logging.Debug().Stringer("wid", wid).Stringer("space", space).Msg("window moved to space")
}

func (r *Reactor) screenFrames() []engine.ScreenFrame {
	out := make([]engine.ScreenFrame, len(r.screens))
	for i, s := range r.screens {
		out[i] = engine.ScreenFrame{Frame: s.Frame, Space: s.Space}
	}
	return out
}

func (r *Reactor) windowServerAppeared(info WindowServerInfo) {
	r.serverInfo[info.ID] = info
	r.visible[info.ID] = struct{}{}
	if wid, ok := r.windowIDs[info.ID]; ok {
		if st, ok := r.windows[wid]; ok {
			st.Manageable = r.manageable(st)
		}
		return
	}
	if info.Layer != 0 {
		return
	}
	if err := r.send(info.Pid, Request{Kind: ReqGetVisibleWindows}); err != nil {
		logging.Debug().Err(err).Uint32("wsid", uint32(info.ID)).Msg("cannot look up new server window")
	}
}

// windowServerDestroyed reports whether a known window went away.
func (r *Reactor) windowServerDestroyed(id types.WindowServerID) bool {
	_, hadInfo := r.serverInfo[id]
	wid, known := r.windowIDs[id]
	if !hadInfo && !known {
		logging.Debug().Uint32("wsid", uint32(id)).Msg("unknown server window destroyed")
		return false
	}
	delete(r.serverInfo, id)
	delete(r.visible, id)
	r.order = slices.DeleteFunc(r.order, func(x types.WindowServerID) bool { return x == id })
	if !known {
		return false
	}
	r.tracker.HandleEvent(mainwindow.WindowDestroyed{Window: wid})
	r.windowDestroyed(wid)
	return true
}

// mouseMovedOverWindow implements focus follows mouse.
func (r *Reactor) mouseMovedOverWindow(id types.WindowServerID) {
	if !r.cfg.Settings.FocusFollowsMouse || r.menuDepth > 0 || r.missionControl || r.inDrag() {
		return
	}
	wid, ok := r.windowIDs[id]
	if !ok {
		return
	}
	st, ok := r.windows[wid]
	if !ok || !st.Manageable {
		return
	}
	space := r.bestSpace(st.Frame)
	if space == 0 || !r.engine.VirtualWorkspaces().IsWindowInActiveWorkspace(space, wid) {
		return
	}
	if cur, ok := r.engine.FocusedWindow(); ok && cur == wid {
		return
	}
	if r.occluded(id, st.Frame) {
		return
	}
	r.submitRaise(raise.RaiseRequest{
		Raise: []raise.Target{{Window: wid, Screen: r.screenIndex(space)}},
		Focus: &raise.Target{Window: wid, Screen: r.screenIndex(space)},
	})
	r.metrics.ObserveRaise()
}

// occluded reports whether a normal window above id on screen covers all
// of frame.
func (r *Reactor) occluded(id types.WindowServerID, frame types.Rect) bool {
	for _, above := range r.order {
		if above == id {
			return false
		}
		info, ok := r.serverInfo[above]
		if !ok || info.Layer != 0 {
			continue
		}
		if info.Frame.ContainsRect(frame) {
			return true
		}
	}
	return false
}
