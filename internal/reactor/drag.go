package reactor

import (
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// dragSession is a window being moved with the mouse.
type dragSession struct {
	window types.WindowID
	// frame when the drag started
	origin types.Rect
	moved  bool
}

// pendingSwap is the tiled window the dragged one will trade places with
// on release.
type pendingSwap struct {
	dragged types.WindowID
	target  types.WindowID
}

// inDrag is true from a mouse-down move until MouseUp. No layout writes
// go out meanwhile.
func (r *Reactor) inDrag() bool {
	return r.mouseDown || r.drag != nil || r.swap != nil
}

func (r *Reactor) ensureDrag(wid types.WindowID, origin types.Rect) {
	if r.drag != nil && r.drag.window == wid {
		return
	}
	r.drag = &dragSession{window: wid, origin: origin}
	r.swap = nil
	// the user owns the window now; an animation still moving it would
	// fight the drag and make its frame changes look stale
	r.anim.Cancel(wid)
	logging.Debug().Stringer("wid", wid).Msg("drag started")
}

// updateDrag picks the swap target under the dragged window's center.
func (r *Reactor) updateDrag(wid types.WindowID) {
	d := r.drag
	if d == nil || d.window != wid {
		return
	}
	d.moved = true
	r.swap = nil

	st, ok := r.windows[wid]
	if !ok || !st.Manageable || r.engine.IsWindowFloating(wid) {
		return
	}
	space := r.bestSpace(st.Frame)
	if space == 0 {
		return
	}
	if ws, ok := r.engine.VirtualWorkspaces().WorkspaceForWindow(space, wid); !ok {
		return
	} else if active, ok := r.engine.ActiveWorkspace(space); !ok || active != ws {
		return
	}

	center := st.Frame.Center()
	var best types.WindowID
	bestArea := -1.0
	for _, other := range r.engine.TiledWindows(space) {
		if other == wid {
			continue
		}
		ost, ok := r.windows[other]
		if !ok || !ost.Frame.Contains(center) {
			continue
		}
		if a := ost.Frame.Overlap(st.Frame); a > bestArea {
			best, bestArea = other, a
		}
	}
	if bestArea >= 0 {
		r.swap = &pendingSwap{dragged: wid, target: best}
		logging.Debug().Stringer("wid", wid).Stringer("target", best).Msg("drag over swap target")
	}
}

// mouseUp ends a drag: swap with the window under it, or settle the
// dragged window where it was dropped.
func (r *Reactor) mouseUp() {
	d, swap := r.drag, r.swap
	r.mouseDown, r.drag, r.swap = false, nil, nil

	if swap != nil {
		if _, ok := r.windows[swap.target]; ok {
			space := r.workspaceCommandSpace()
			if st, ok := r.windows[swap.dragged]; ok {
				if s := r.bestSpace(st.Frame); s != 0 {
					space = s
				}
			}
			resp := r.engine.HandleCommand(space, r.visibleSpaces(), engine.SwapWindows{A: swap.dragged, B: swap.target})
			r.handleLayoutResponse(resp)
			logging.Debug().Stringer("wid", swap.dragged).Stringer("target", swap.target).Msg("swapped windows after drag")
			return
		}
	}
	if d == nil || !d.moved {
		return
	}
	st, ok := r.windows[d.window]
	if !ok || !st.Manageable {
		return
	}
	oldSpace, newSpace := r.bestSpace(d.origin), r.bestSpace(st.Frame)
	switch {
	case oldSpace != newSpace:
		r.windowChangedSpace(d.window, newSpace)
	case newSpace != 0 && r.engine.IsWindowFloating(d.window):
		r.engine.StoreFloatingPosition(newSpace, d.window, st.Frame)
	}
}
