package reactor

import (
	"slices"

	"github.com/yourusername/tiler/internal/animation"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
)

func (r *Reactor) hint(wid types.WindowID) (engine.WindowHint, bool) {
	st, ok := r.windows[wid]
	if !ok {
		return engine.WindowHint{}, false
	}
	h := engine.WindowHint{Size: st.Frame.Size(), BundleID: st.BundleID}
	if app, ok := r.apps[wid.Pid]; ok && app.Info.BundleID != "" {
		h.BundleID = app.Info.BundleID
	}
	return h, true
}

// updateLayout moves every window on a managed screen to where the engine
// wants it. Windows of the active workspace animate unless this is a
// resize or a workspace switch; everything else is written directly.
// It reports whether any write was sent.
func (r *Reactor) updateLayout(isResize, isSwitch bool) bool {
	suppressed := isSwitch || r.hasActiveSwitch

	var dragged types.WindowID
	inDrag := r.drag != nil
	if inDrag {
		dragged = r.drag.window
	}

	changed := false
	batches := make(map[types.Pid][]animation.Write)
	var anim *animation.Animation

	for _, screen := range r.screens {
		if screen.Space == 0 {
			continue
		}
		frames := r.engine.CalculateLayoutWithVirtualWorkspaces(screen.Space, screen.Frame, r.hint)
		active := make(map[types.WindowID]struct{})
		for _, wid := range r.engine.WindowsInActiveWorkspace(screen.Space) {
			active[wid] = struct{}{}
		}

		for _, f := range frames {
			wid := f.Window
			if inDrag && wid == dragged {
				continue
			}
			st, ok := r.windows[wid]
			if !ok {
				continue
			}
			target := f.Frame.Round()
			if st.Frame.SameAs(target) {
				continue
			}
			changed = true

			_, isActive := active[wid]
			switch {
			case suppressed:
				batches[wid.Pid] = append(batches[wid.Pid], animation.Write{Window: wid, Frame: target})
			case isActive:
				if anim == nil {
					anim = r.newAnimation()
				}
				anim.AddWindow(wid, st.Frame, target, screen.Frame)
			default:
				r.writeFrame(wid, target)
			}
			r.txids.setTarget(wid, target)
			st.Frame = target
		}
	}

	if len(batches) > 0 {
		r.writeBatches(batches)
	}
	if anim != nil {
		r.anim.Start(r.ctx, anim, r.cfg.Settings.Animate && !isResize)
	}
	return changed
}

// beginWorkspaceSwitch starts a switch generation on space. Writes stay
// batched and unanimated until a layout pass changes nothing.
func (r *Reactor) beginWorkspaceSwitch(space types.SpaceID) {
	r.workspaceSwitch = true
	r.switchGeneration++
	r.activeSwitch, r.hasActiveSwitch = r.switchGeneration, true
	r.storeFloatingPositions(space)
	logging.Debug().Uint64("generation", r.switchGeneration).Stringer("space", space).Msg("workspace switch started")
}

// storeFloatingPositions records where the floating windows of the active
// workspace are, so they come back there.
func (r *Reactor) storeFloatingPositions(space types.SpaceID) {
	if space == 0 {
		return
	}
	var frames []layout.WindowFrame
	for _, wid := range r.engine.FloatingWindows(space) {
		if st, ok := r.windows[wid]; ok {
			frames = append(frames, layout.WindowFrame{Window: wid, Frame: st.Frame})
		}
	}
	if len(frames) > 0 {
		r.engine.StoreFloatingPositions(space, frames)
	}
}

func (r *Reactor) newAnimation() *animation.Animation {
	s := r.cfg.Settings
	easing, err := animation.ParseEasing(s.AnimationEasing)
	if err != nil {
		logging.Debug().Err(err).Msg("falling back to default easing")
	}
	return animation.New(s.AnimationFPS, s.AnimationDuration, easing)
}

// writeFrame sends a single unanimated write.
func (r *Reactor) writeFrame(wid types.WindowID, frame types.Rect) {
	r.anim.Cancel(wid)
	txid := r.txids.assign(wid.Pid, []types.WindowID{wid})
	req := Request{Kind: ReqSetWindowFrame, Window: &wid, Frame: &frame, Txid: txid, SkipAnim: true}
	if err := r.send(wid.Pid, req); err != nil {
		logging.Debug().Err(err).Stringer("wid", wid).Msg("frame write not delivered")
		return
	}
	r.metrics.ObserveFrameWrites(1)
}

// writeBatches sends one batch per app, in pid order.
func (r *Reactor) writeBatches(batches map[types.Pid][]animation.Write) {
	pids := make([]types.Pid, 0, len(batches))
	for pid := range batches {
		pids = append(pids, pid)
	}
	slices.Sort(pids)

	for _, pid := range pids {
		writes := batches[pid]
		wids := make([]types.WindowID, len(writes))
		for i, w := range writes {
			wids[i] = w.Window
		}
		r.anim.Cancel(wids...)
		txid := r.txids.assign(pid, wids)
		if err := r.send(pid, Request{Kind: ReqSetBatchWindowFrame, Frames: writes, Txid: txid}); err != nil {
			logging.Debug().Err(err).Int32("pid", int32(pid)).Msg("batch write not delivered")
			continue
		}
		r.metrics.ObserveFrameWrites(len(writes))
	}
}

// handleLayoutResponse raises and focuses what the engine asked for.
func (r *Reactor) handleLayoutResponse(resp engine.EventResponse) {
	if r.inDrag() {
		if !resp.IsEmpty() {
			logging.Debug().Msg("ignoring layout response during drag")
		}
		r.workspaceSwitch = false
		return
	}

	focus := resp.FocusWindow
	if focus != nil && !r.focusable(*focus) {
		logging.Debug().Stringer("wid", *focus).Msg("dropping focus on window that is not visible")
		focus = nil
	}
	if len(resp.RaiseWindows) == 0 && focus == nil {
		return
	}

	req := raise.RaiseRequest{}
	for _, wid := range resp.RaiseWindows {
		req.Raise = append(req.Raise, raise.Target{Window: wid, Screen: r.windowScreen(wid)})
	}
	if focus != nil {
		t := raise.Target{Window: *focus, Screen: r.windowScreen(*focus)}
		req.Focus = &t
		if r.cfg.Settings.MouseFollowsFocus {
			if st, ok := r.windows[*focus]; ok {
				c := st.Frame.Center()
				req.WarpTo = &c
			}
		}
	}
	r.submitRaise(req)
	r.metrics.ObserveRaise()
}

// focusable reports whether wid is on screen: the window server lists it
// as visible and it sits on a managed space.
func (r *Reactor) focusable(wid types.WindowID) bool {
	st, ok := r.windows[wid]
	if !ok || st.ServerID == nil {
		return false
	}
	if _, vis := r.visible[*st.ServerID]; !vis {
		return false
	}
	return r.bestSpace(st.Frame) != 0
}

func (r *Reactor) windowScreen(wid types.WindowID) int {
	st, ok := r.windows[wid]
	if !ok {
		return 0
	}
	if i := r.screenIndex(r.bestSpace(st.Frame)); i >= 0 {
		return i
	}
	return 0
}
