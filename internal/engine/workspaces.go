package engine

import (
	"cmp"
	"maps"
	"slices"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

type layoutKey struct {
	Space     types.SpaceID
	Workspace types.WorkspaceID
}

// spaceLayouts tracks the layouts of one workspace, one per screen size.
type spaceLayouts struct {
	Configurations map[types.IntSize]layout.LayoutID
	ActiveSize     types.IntSize
	LastSaved      layout.LayoutID // zero when never saved
}

func (s *spaceLayouts) active() (layout.LayoutID, bool) {
	id, ok := s.Configurations[s.ActiveSize]
	return id, ok
}

// WorkspaceLayouts maps (space, workspace) pairs to their layout per screen
// size. Switching to a size that was never seen copies the layout last
// used, so resolution changes keep the user's arrangement.
type WorkspaceLayouts struct {
	m map[layoutKey]*spaceLayouts
}

func NewWorkspaceLayouts() *WorkspaceLayouts {
	return &WorkspaceLayouts{m: make(map[layoutKey]*spaceLayouts)}
}

// EnsureActiveForSpace makes sure each workspace has a layout for size and
// that it is the active one.
//
// The layout of the previous size is carried over (moved, not copied) when
// it was never saved; otherwise the saved layout is cloned, and failing
// both an empty layout is created.
func (w *WorkspaceLayouts) EnsureActiveForSpace(space types.SpaceID, size types.IntSize, workspaces []types.WorkspaceID, sys layout.Tiler) {
	for _, ws := range workspaces {
		key := layoutKey{space, ws}
		info := w.m[key]
		var unchanged layout.LayoutID
		if info == nil {
			info = &spaceLayouts{Configurations: make(map[types.IntSize]layout.LayoutID), ActiveSize: size}
			w.m[key] = info
		} else {
			if cur, ok := info.active(); ok && cur != info.LastSaved && info.ActiveSize != size {
				unchanged = cur
				delete(info.Configurations, info.ActiveSize)
			}
			info.ActiveSize = size
		}

		id, ok := info.Configurations[size]
		switch {
		case ok:
			info.LastSaved = id
			if unchanged != 0 {
				sys.RemoveLayout(unchanged)
			}
		case unchanged != 0:
			id = unchanged
			info.Configurations[size] = id
		case info.LastSaved != 0 && sys.Exists(info.LastSaved):
			id = sys.CloneLayout(info.LastSaved)
			info.Configurations[size] = id
		default:
			id = sys.CreateLayout()
			info.Configurations[size] = id
		}
		logging.Debug().Uint32("layout", uint32(id)).Uint64("ws", uint64(ws)).Uint64("space", uint64(space)).
			Str("size", size.String()).Msg("using layout")
	}
}

// Active returns the layout in use for a workspace
func (w *WorkspaceLayouts) Active(space types.SpaceID, ws types.WorkspaceID) (layout.LayoutID, bool) {
	info := w.m[layoutKey{space, ws}]
	if info == nil {
		return 0, false
	}
	return info.active()
}

// MarkLastSaved records id as the layout to clone for new screen sizes
func (w *WorkspaceLayouts) MarkLastSaved(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID) {
	if info := w.m[layoutKey{space, ws}]; info != nil {
		info.LastSaved = id
	}
}

// ActiveLayoutsForSpace returns the active layout of every workspace of
// space, keyed by workspace.
func (w *WorkspaceLayouts) ActiveLayoutsForSpace(space types.SpaceID) map[types.WorkspaceID]layout.LayoutID {
	out := make(map[types.WorkspaceID]layout.LayoutID)
	for key, info := range w.m {
		if key.Space != space {
			continue
		}
		if id, ok := info.active(); ok {
			out[key.Workspace] = id
		}
	}
	return out
}

// ForEachActive calls f with every active layout
func (w *WorkspaceLayouts) ForEachActive(f func(layout.LayoutID)) {
	for _, info := range w.m {
		if id, ok := info.active(); ok {
			f(id)
		}
	}
}

// Spaces returns every space with layouts, ascending
func (w *WorkspaceLayouts) Spaces() []types.SpaceID {
	seen := make(map[types.SpaceID]struct{})
	for key := range w.m {
		seen[key.Space] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// RemoveSpace drops every layout of space from both the index and sys
func (w *WorkspaceLayouts) RemoveSpace(space types.SpaceID, sys layout.Tiler) {
	for key, info := range w.m {
		if key.Space != space {
			continue
		}
		for _, id := range info.Configurations {
			sys.RemoveLayout(id)
		}
		delete(w.m, key)
	}
}

// remap rewrites layout ids after the layouts were rebuilt under new
// ids. Ids missing from ids are dropped.
func (w *WorkspaceLayouts) remap(ids map[layout.LayoutID]layout.LayoutID) {
	for _, info := range w.m {
		for size, id := range info.Configurations {
			if next, ok := ids[id]; ok {
				info.Configurations[size] = next
			} else {
				delete(info.Configurations, size)
			}
		}
		info.LastSaved = ids[info.LastSaved]
	}
}

// LayoutsEntry is the persisted form of one workspace's layouts.
type LayoutsEntry struct {
	Space          types.SpaceID     `json:"space"`
	Workspace      types.WorkspaceID `json:"workspace"`
	ActiveSize     types.IntSize     `json:"activeSize"`
	LastSaved      layout.LayoutID   `json:"lastSaved,omitempty"`
	Configurations []SizedLayout     `json:"configurations"`
}

// SizedLayout is a layout saved for one screen size.
type SizedLayout struct {
	Size   types.IntSize   `json:"size"`
	Layout layout.LayoutID `json:"layout"`
}

func (w *WorkspaceLayouts) entries() []LayoutsEntry {
	keys := slices.SortedFunc(maps.Keys(w.m), func(a, b layoutKey) int {
		if a.Space != b.Space {
			return cmp.Compare(a.Space, b.Space)
		}
		return cmp.Compare(a.Workspace, b.Workspace)
	})
	out := make([]LayoutsEntry, 0, len(keys))
	for _, key := range keys {
		info := w.m[key]
		e := LayoutsEntry{Space: key.Space, Workspace: key.Workspace, ActiveSize: info.ActiveSize, LastSaved: info.LastSaved}
		for size, id := range info.Configurations {
			e.Configurations = append(e.Configurations, SizedLayout{Size: size, Layout: id})
		}
		slices.SortFunc(e.Configurations, func(a, b SizedLayout) int { return cmp.Compare(a.Layout, b.Layout) })
		out = append(out, e)
	}
	return out
}

// restoreEntries rebuilds the index, skipping references to layouts that
// do not exist in sys.
func restoreEntries(entries []LayoutsEntry, sys layout.Tiler) *WorkspaceLayouts {
	w := NewWorkspaceLayouts()
	for _, e := range entries {
		info := &spaceLayouts{Configurations: make(map[types.IntSize]layout.LayoutID), ActiveSize: e.ActiveSize}
		for _, c := range e.Configurations {
			if sys.Exists(c.Layout) {
				info.Configurations[c.Size] = c.Layout
			}
		}
		if sys.Exists(e.LastSaved) {
			info.LastSaved = e.LastSaved
		}
		w.m[layoutKey{e.Space, e.Workspace}] = info
	}
	return w
}
