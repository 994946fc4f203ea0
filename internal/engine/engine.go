package engine

import (
	"errors"
	"slices"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// ErrNoActiveLayout is returned when a space has no layout to act on
var ErrNoActiveLayout = errors.New("no active layout")

// floatAnchor remembers where a window sat in its layout before it started
// floating, so that toggling back restores the same arrangement.
type floatAnchor struct {
	layout layout.LayoutID
	slot   layout.Slot
	placed bool
	next   types.WindowID
	before bool
}

// LayoutEngine ties the layout trees to virtual workspaces. It is owned by
// the reactor goroutine and is not safe for concurrent use.
type LayoutEngine struct {
	tree       layout.Tiler
	mode       layout.Mode
	layouts    *WorkspaceLayouts
	workspaces *workspace.Manager

	floating      map[types.WindowID]struct{}
	floatingFocus map[layoutKey]types.WindowID
	floatAnchors  map[types.WindowID]floatAnchor
	scratchpad    *Scratchpad

	focused    types.WindowID
	hasFocused bool

	screens map[types.SpaceID]types.Rect

	opts layout.FrameOptions
	vw   config.VirtualWorkspaces
}

// New creates an engine configured from cfg
func New(cfg *config.Config) *LayoutEngine {
	mode := modeFromConfig(cfg.Settings)
	e := &LayoutEngine{
		tree:          layout.NewTiler(mode),
		mode:          mode,
		layouts:       NewWorkspaceLayouts(),
		workspaces:    workspace.NewManager(cfg.VirtualWorkspaces),
		floating:      make(map[types.WindowID]struct{}),
		floatingFocus: make(map[layoutKey]types.WindowID),
		floatAnchors:  make(map[types.WindowID]floatAnchor),
		scratchpad:    NewScratchpad(),
		screens:       make(map[types.SpaceID]types.Rect),
	}
	e.SetSettings(cfg)
	return e
}

// FrameOptionsFromConfig extracts the settings that shape tiled frames
func FrameOptionsFromConfig(s config.Settings) layout.FrameOptions {
	g := s.Layout.Gaps
	opts := layout.FrameOptions{
		Gaps: layout.Gaps{
			Outer: layout.OuterGaps{Top: g.Outer.Top, Left: g.Outer.Left, Bottom: g.Outer.Bottom, Right: g.Outer.Right},
			Inner: layout.InnerGaps{Horizontal: g.Inner.Horizontal, Vertical: g.Inner.Vertical},
		},
		StackOffset: s.Layout.Stack.StackOffset,
	}
	if line := s.UI.StackLine; line.Enabled {
		opts.StackLine = layout.StackLine{
			Thickness:      line.Thickness,
			HorizPlacement: layout.Placement(line.HorizPlacement),
			VertPlacement:  layout.Placement(line.VertPlacement),
		}
	}
	return opts
}

// SetSettings applies a new configuration. Layouts and workspaces are
// kept; a new layout mode re-tiles every layout in that mode.
func (e *LayoutEngine) SetSettings(cfg *config.Config) {
	e.opts = FrameOptionsFromConfig(cfg.Settings)
	e.setMode(modeFromConfig(cfg.Settings))
	e.vw = cfg.VirtualWorkspaces
	e.workspaces.UpdateSettings(cfg.VirtualWorkspaces)
}

// FrameOptions returns the options used for frame calculation
func (e *LayoutEngine) FrameOptions() layout.FrameOptions { return e.opts }

// VirtualWorkspaces exposes the workspace manager for read-only queries
func (e *LayoutEngine) VirtualWorkspaces() *workspace.Manager { return e.workspaces }

// Layouts exposes the layout system for read-only queries
func (e *LayoutEngine) Layouts() layout.Tiler { return e.tree }

// screenSize is the key layouts of space are stored under. Unknown spaces
// use the zero size until SpaceExposed reports their frame.
func (e *LayoutEngine) screenSize(space types.SpaceID) types.IntSize {
	return e.screens[space].IntSize()
}

// ScreenFrame returns the last frame reported for space
func (e *LayoutEngine) ScreenFrame(space types.SpaceID) (types.Rect, bool) {
	r, ok := e.screens[space]
	return r, ok
}

// layoutFor returns the active layout of ws, creating it when needed.
func (e *LayoutEngine) layoutFor(space types.SpaceID, ws types.WorkspaceID) layout.LayoutID {
	if id, ok := e.layouts.Active(space, ws); ok && e.tree.Exists(id) {
		return id
	}
	e.layouts.EnsureActiveForSpace(space, e.screenSize(space), []types.WorkspaceID{ws}, e.tree)
	id, _ := e.layouts.Active(space, ws)
	return id
}

// activeLayout resolves the active workspace of space and its layout.
func (e *LayoutEngine) activeLayout(space types.SpaceID) (layout.LayoutID, types.WorkspaceID, error) {
	ws, err := e.workspaces.DefaultWorkspace(space)
	if err != nil {
		return 0, 0, err
	}
	id := e.layoutFor(space, ws)
	if id == 0 {
		return 0, ws, ErrNoActiveLayout
	}
	return id, ws, nil
}

// ActiveWorkspace returns the active workspace of space
func (e *LayoutEngine) ActiveWorkspace(space types.SpaceID) (types.WorkspaceID, bool) {
	return e.workspaces.ActiveWorkspace(space)
}

// ActiveLayout returns the layout shown on space, if any
func (e *LayoutEngine) ActiveLayout(space types.SpaceID) (layout.LayoutID, bool) {
	ws, ok := e.workspaces.ActiveWorkspace(space)
	if !ok {
		return 0, false
	}
	return e.layouts.Active(space, ws)
}

// SelectedWindow returns the selected tiled window of the active workspace
func (e *LayoutEngine) SelectedWindow(space types.SpaceID) (types.WindowID, bool) {
	id, ok := e.ActiveLayout(space)
	if !ok {
		return types.WindowID{}, false
	}
	return e.tree.SelectedWindow(id)
}

// FocusedWindow returns the last window reported focused
func (e *LayoutEngine) FocusedWindow() (types.WindowID, bool) {
	return e.focused, e.hasFocused
}

// IsWindowFloating reports whether wid is excluded from tiling
func (e *LayoutEngine) IsWindowFloating(wid types.WindowID) bool {
	_, ok := e.floating[wid]
	return ok
}

// WindowsInActiveWorkspace returns every window of the active workspace
func (e *LayoutEngine) WindowsInActiveWorkspace(space types.SpaceID) []types.WindowID {
	return e.workspaces.WindowsInActiveWorkspace(space)
}

// FloatingWindows returns the floating windows of the active workspace
// that are on screen.
func (e *LayoutEngine) FloatingWindows(space types.SpaceID) []types.WindowID {
	return slices.DeleteFunc(e.WindowsInActiveWorkspace(space), func(wid types.WindowID) bool {
		return !e.IsWindowFloating(wid) || e.IsScratchpadHidden(wid)
	})
}

// TiledWindows returns the tiled windows of the active workspace in tree
// order.
func (e *LayoutEngine) TiledWindows(space types.SpaceID) []types.WindowID {
	id, ok := e.ActiveLayout(space)
	if !ok {
		return nil
	}
	return e.tree.Windows(id)
}

// AllTiledWindows lists every window present in any layout
func (e *LayoutEngine) AllTiledWindows() []types.WindowID {
	seen := make(map[types.WindowID]struct{})
	var out []types.WindowID
	for _, id := range e.tree.LayoutIDs() {
		for _, wid := range e.tree.Windows(id) {
			if _, dup := seen[wid]; !dup {
				seen[wid] = struct{}{}
				out = append(out, wid)
			}
		}
	}
	slices.SortFunc(out, compareWindowIDs)
	return out
}

// Draw renders the active layout of space for debugging
func (e *LayoutEngine) Draw(space types.SpaceID) string {
	id, ok := e.ActiveLayout(space)
	if !ok {
		return ""
	}
	return e.tree.Draw(id)
}

// StoreFloatingPosition remembers a user placed floating window
func (e *LayoutEngine) StoreFloatingPosition(space types.SpaceID, wid types.WindowID, frame types.Rect) {
	if !e.IsWindowFloating(wid) || !e.workspaces.IsWindowInActiveWorkspace(space, wid) {
		return
	}
	e.workspaces.StoreFloatingPosition(space, wid, frame)
}

// StoreFloatingPositions records the current frames of the floating
// windows of the active workspace. Frames of tiled windows are ignored.
func (e *LayoutEngine) StoreFloatingPositions(space types.SpaceID, frames []layout.WindowFrame) {
	floating := slices.DeleteFunc(slices.Clone(frames), func(f layout.WindowFrame) bool {
		return !e.IsWindowFloating(f.Window) || !e.workspaces.IsWindowInActiveWorkspace(space, f.Window)
	})
	e.workspaces.StoreCurrentFloatingPositions(space, floating)
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

// setFloating moves wid out of tiling. The anchor recorded from layout id
// lets unsetFloating put it back where it was.
func (e *LayoutEngine) setFloating(id layout.LayoutID, wid types.WindowID) {
	e.floating[wid] = struct{}{}
	anchor := floatAnchor{layout: id}
	if keeper, ok := e.tree.(layout.SlotKeeper); ok {
		anchor.slot, anchor.placed = keeper.SlotOf(id, wid)
	}
	windows := e.tree.Windows(id)
	switch i := slices.Index(windows, wid); {
	case i > 0:
		anchor.next = windows[i-1]
	case i == 0 && len(windows) > 1:
		anchor.next, anchor.before = windows[1], true
	}
	if anchor.placed || anchor.next != (types.WindowID{}) {
		e.floatAnchors[wid] = anchor
	}
	e.tree.RemoveWindow(wid)
}

// unsetFloating tiles wid in layout id again.
func (e *LayoutEngine) unsetFloating(id layout.LayoutID, wid types.WindowID) {
	delete(e.floating, wid)
	anchor, ok := e.floatAnchors[wid]
	delete(e.floatAnchors, wid)
	if ok && anchor.layout == id {
		if keeper, ok := e.tree.(layout.SlotKeeper); ok && anchor.placed && keeper.RestoreWindow(id, wid, anchor.slot) {
			return
		}
		if e.tree.InsertWindowNextTo(id, wid, anchor.next, anchor.before) {
			return
		}
	}
	e.tree.AddWindowAfterSelection(id, wid)
}

func (e *LayoutEngine) forgetFloating(wid types.WindowID) {
	delete(e.floating, wid)
	delete(e.floatAnchors, wid)
	e.scratchpad.Remove(wid)
	for key, f := range e.floatingFocus {
		if f == wid {
			delete(e.floatingFocus, key)
		}
	}
}

// focusedIn returns the window commands on ws act on: the focused window
// when it belongs to ws, otherwise the layout selection.
func (e *LayoutEngine) focusedIn(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID) (types.WindowID, bool) {
	if e.hasFocused {
		if got, ok := e.workspaces.WorkspaceForWindow(space, e.focused); ok && got == ws {
			return e.focused, true
		}
	}
	return e.tree.SelectedWindow(id)
}

// Stats summarizes the engine for metrics queries.
type Stats struct {
	Layouts         int `json:"layouts"`
	TiledWindows    int `json:"tiledWindows"`
	FloatingWindows int `json:"floatingWindows"`
	workspace.Stats
}

// Stats counts layouts and windows
func (e *LayoutEngine) Stats() Stats {
	return Stats{
		Layouts:         len(e.tree.LayoutIDs()),
		TiledWindows:    len(e.AllTiledWindows()),
		FloatingWindows: len(e.floating),
		Stats:           e.workspaces.Stats(),
	}
}
