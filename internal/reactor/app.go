package reactor

import (
	"maps"
	"slices"

	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

func (r *Reactor) applicationLaunched(ev ApplicationLaunched) {
	r.apps[ev.Pid] = &AppState{Info: ev.Info, hasHandle: true}
	for _, s := range ev.Server {
		r.serverInfo[s.ID] = s
		r.visible[s.ID] = struct{}{}
	}
	logging.Info().Int32("pid", int32(ev.Pid)).Str("bundle", ev.Info.BundleID).Int("windows", len(ev.Windows)).Msg("application launched")

	if len(ev.Windows) == 0 {
		if err := r.send(ev.Pid, Request{Kind: ReqGetVisibleWindows}); err != nil {
			logging.Debug().Err(err).Int32("pid", int32(ev.Pid)).Msg("window discovery not requested")
		}
		return
	}
	known := make([]types.WindowID, len(ev.Windows))
	for i, w := range ev.Windows {
		known[i] = w.Window
	}
	r.windowsDiscovered(ev.Pid, ev.Windows, known)
	r.rulesAppliedAt = r.now()
}

func (r *Reactor) applicationTerminated(pid types.Pid) {
	if err := r.send(pid, Request{Kind: ReqTerminate}); err != nil {
		logging.Debug().Err(err).Int32("pid", int32(pid)).Msg("terminate not delivered")
	}
	delete(r.apps, pid)
}

// applyAppRules assigns the already visible windows of an app that was
// running before it became known.
func (r *Reactor) applyAppRules(ev ApplyAppRulesToExistingWindows) {
	app, ok := r.apps[ev.Pid]
	if !ok {
		app = &AppState{hasHandle: true}
		r.apps[ev.Pid] = app
	}
	app.Info = ev.Info

	var known []types.WindowID
	for _, s := range ev.Windows {
		r.serverInfo[s.ID] = s
		if wid, ok := r.windowIDs[s.ID]; ok {
			known = append(known, wid)
		}
	}
	r.rulesAppliedAt = r.now()
	if len(known) == 0 {
		if err := r.send(ev.Pid, Request{Kind: ReqGetVisibleWindows}); err != nil {
			logging.Debug().Err(err).Int32("pid", int32(ev.Pid)).Msg("window discovery not requested")
		}
		return
	}
	r.updateScreenWindows(ev.Pid, known)
}

// windowsDiscovered records newly reported windows, drops windows the
// window server no longer shows, and hands the app's visible windows to
// the engine. It reports whether any window was destroyed.
func (r *Reactor) windowsDiscovered(pid types.Pid, added []ReportedWindow, knownVisible []types.WindowID) bool {
	known := make(map[types.WindowID]struct{}, len(knownVisible)+len(added))
	for _, wid := range knownVisible {
		known[wid] = struct{}{}
	}
	for _, w := range added {
		known[w.Window] = struct{}{}
	}

	destroyed := false
	if !r.skipStaleCleanup(pid, known) {
		var stale []types.WindowID
		for wid, st := range r.windows {
			if wid.Pid != pid {
				continue
			}
			if _, ok := known[wid]; ok {
				continue
			}
			if r.isStale(st) {
				stale = append(stale, wid)
			}
		}
		slices.SortFunc(stale, compareWindowIDs)
		for _, wid := range stale {
			logging.Debug().Stringer("wid", wid).Msg("removing stale window")
			r.windowDestroyed(wid)
			destroyed = true
		}
	}

	for _, w := range added {
		r.recordWindow(w.Window, w.Info)
	}

	if _, ok := r.apps[pid]; !ok && r.now().Sub(r.rulesAppliedAt) < rulesSettle {
		logging.Debug().Int32("pid", int32(pid)).Msg("skipping rules for unknown app")
		return destroyed
	}
	r.updateScreenWindows(pid, slices.Collect(maps.Keys(known)))
	return destroyed
}

// skipStaleCleanup is true whenever the window server picture is not
// trustworthy enough to destroy windows on.
func (r *Reactor) skipStaleCleanup(pid types.Pid, known map[types.WindowID]struct{}) bool {
	if r.workspaceSwitch || r.hasActiveSwitch || r.staleSuppressed || r.missionControl || r.inDrag() {
		return true
	}
	visibleForPid := 0
	for id := range r.visible {
		info, ok := r.serverInfo[id]
		if !ok || info.Pid != pid {
			continue
		}
		visibleForPid++
		wid, ok := r.windowIDs[id]
		if !ok {
			continue
		}
		if _, ok := known[wid]; !ok {
			// the app's report is behind the window server
			return true
		}
	}
	return len(known) == 0 && visibleForPid == 0
}

// isStale reports whether the window server says st is gone from view.
func (r *Reactor) isStale(st *WindowState) bool {
	if st.ServerID == nil {
		return false
	}
	info, ok := r.serverInfo[*st.ServerID]
	if !ok {
		return false
	}
	if info.Layer != 0 {
		return true
	}
	if info.Frame.Width < minWindowDimension || info.Frame.Height < minWindowDimension {
		return true
	}
	if r.bestSpace(st.Frame) != 0 {
		if _, vis := r.visible[*st.ServerID]; !vis {
			return true
		}
	}
	return false
}

// updateScreenWindows sends the engine the manageable windows of pid on
// every managed screen.
func (r *Reactor) updateScreenWindows(pid types.Pid, known []types.WindowID) {
	knownSet := make(map[types.WindowID]struct{}, len(known))
	for _, wid := range known {
		knownSet[wid] = struct{}{}
	}
	bySpace := make(map[types.SpaceID][]engine.WindowMeta)
	var wids []types.WindowID
	for wid := range r.windows {
		if wid.Pid == pid {
			wids = append(wids, wid)
		}
	}
	slices.SortFunc(wids, compareWindowIDs)

	for _, wid := range wids {
		st := r.windows[wid]
		if !st.Manageable {
			continue
		}
		_, isKnown := knownSet[wid]
		_, isVisible := r.visible[*st.ServerID]
		if !isKnown && !isVisible {
			continue
		}
		space := r.bestSpace(st.Frame)
		if space == 0 {
			continue
		}
		bySpace[space] = append(bySpace[space], engine.WindowMeta{Window: wid, Title: st.Title, Role: st.Role, Subrole: st.Subrole})
	}

	var app *engine.AppInfo
	if a, ok := r.apps[pid]; ok {
		app = &engine.AppInfo{BundleID: a.Info.BundleID, Name: a.Info.Name}
	}
	for _, space := range r.visibleSpaces() {
		r.sendLayout(engine.WindowsOnScreenUpdated{Space: space, Pid: pid, Windows: bySpace[space], App: app})
	}
}

// activationWorkspaceSwitch brings up the workspace of an app that was
// activated while none of its windows were showing.
func (r *Reactor) activationWorkspaceSwitch(pid types.Pid) {
	app, ok := r.apps[pid]
	if !ok || app.Info.BundleID == "" || r.cfg.IsBlacklisted(app.Info.BundleID) {
		return
	}
	vw := r.engine.VirtualWorkspaces()

	var candidates []types.WindowID
	if wid, ok := r.tracker.MainWindowOf(pid); ok {
		candidates = append(candidates, wid)
	}
	var rest []types.WindowID
	for wid, st := range r.windows {
		if wid.Pid == pid && st.Manageable {
			rest = append(rest, wid)
		}
	}
	slices.SortFunc(rest, compareWindowIDs)
	candidates = append(candidates, rest...)

	for _, space := range r.visibleSpaces() {
		active, ok := r.engine.ActiveWorkspace(space)
		if !ok {
			continue
		}
		for _, wid := range rest {
			if ws, ok := vw.WorkspaceForWindow(space, wid); ok && ws == active {
				return
			}
		}
	}

	for _, wid := range candidates {
		for _, space := range r.visibleSpaces() {
			ws, ok := vw.WorkspaceForWindow(space, wid)
			if !ok {
				continue
			}
			from, _ := r.engine.ActiveWorkspace(space)
			if ws == from {
				return
			}
			now := r.now()
			if last := r.lastAutoSwitch; last != nil && last.space == space && last.from == ws && last.to == from && now.Sub(last.at) < autoSwitchBounce {
				logging.Debug().Int32("pid", int32(pid)).Msg("suppressing auto switch back")
				return
			}
			idx, ok := vw.IndexOf(space, ws)
			if !ok {
				return
			}
			r.beginWorkspaceSwitch(space)
			resp := r.engine.HandleVirtualWorkspaceCommand(space, engine.SwitchToWorkspace{Index: idx})
			r.lastAutoSwitch = &autoSwitch{at: now, space: space, from: from, to: ws}
			logging.Info().Int32("pid", int32(pid)).Int("index", idx).Msg("switching to workspace of activated app")
			r.handleLayoutResponse(resp)
			return
		}
	}
}

func compareWindowIDs(a, b types.WindowID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}
