package reactor

import (
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

func (r *Reactor) screenParametersChanged(ev ScreenParametersChanged) {
	if len(ev.Frames) == 0 {
		// login window or every display asleep: keep the layouts, forget
		// the spaces until screens come back
		logging.Info().Msg("no screens")
		r.screens = nil
		r.staleSuppressed = true
		return
	}
	screens := make([]Screen, len(ev.Frames))
	for i, frame := range ev.Frames {
		screens[i] = Screen{Frame: frame}
		if i < len(ev.Spaces) {
			screens[i].Space = ev.Spaces[i]
		}
	}
	r.screens = screens
	logging.Debug().Int("screens", len(screens)).Msg("screen parameters changed")
	r.finalizeSpaceChange(ev.Windows)
}

func (r *Reactor) spaceChanged(ev SpaceChanged) {
	if r.missionControl {
		r.pendingSpaceChange = &ev
		return
	}
	if len(ev.Spaces) != len(r.screens) {
		logging.Warn().Int("spaces", len(ev.Spaces)).Int("screens", len(r.screens)).Msg("space change does not match screens")
		return
	}
	for i, space := range ev.Spaces {
		r.screens[i].Space = space
	}
	r.finalizeSpaceChange(ev.Windows)
}

// finalizeSpaceChange exposes the current spaces to the engine and takes
// in the window server snapshot that came with the change.
func (r *Reactor) finalizeSpaceChange(windows []WindowServerInfo) {
	r.pendingSpaceChange = nil
	r.staleSuppressed = true
	for _, s := range r.screens {
		if s.Space != 0 {
			r.staleSuppressed = false
			r.sendLayout(engine.SpaceExposed{Space: s.Space, Frame: s.Frame})
		}
	}
	r.applyServerSnapshot(windows)

	if wid, ok := r.tracker.MainWindow(); ok {
		if st, ok := r.windows[wid]; ok {
			if space := r.bestSpace(st.Frame); space != 0 {
				r.sendLayout(engine.WindowFocused{Spaces: []types.SpaceID{space}, Window: wid})
			}
		}
	}
	r.refreshAllWindows(false)
}

// applyServerSnapshot replaces the visible set and stacking order with a
// complete window server listing, front to back.
func (r *Reactor) applyServerSnapshot(windows []WindowServerInfo) {
	r.visible = make(map[types.WindowServerID]struct{}, len(windows))
	r.order = r.order[:0]
	for _, info := range windows {
		r.serverInfo[info.ID] = info
		r.visible[info.ID] = struct{}{}
		r.order = append(r.order, info.ID)
	}
	for _, st := range r.windows {
		st.Manageable = r.manageable(st)
	}
}

func (r *Reactor) setMissionControl(active bool) {
	if r.missionControl == active {
		return
	}
	r.missionControl = active
	logging.Debug().Bool("active", active).Msg("mission control")
	if active {
		return
	}
	if pending := r.pendingSpaceChange; pending != nil {
		r.spaceChanged(*pending)
		return
	}
	r.refreshAllWindows(true)
}
