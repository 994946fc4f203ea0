package layout

import (
	"maps"
	"slices"

	"github.com/yourusername/tiler/internal/types"
)

// LayoutID identifies a layout tree within a System.
type LayoutID uint32

// System owns every layout tree. A window may be present in several
// layouts at once (one per screen size).
type System struct {
	layouts map[LayoutID]*Tree
	nextID  LayoutID
}

// NewSystem creates an empty layout system
func NewSystem() *System {
	return &System{layouts: make(map[LayoutID]*Tree)}
}

func (s *System) Mode() Mode { return ModeTraditional }

// CreateLayout adds an empty layout and returns its id
func (s *System) CreateLayout() LayoutID {
	s.nextID++
	s.layouts[s.nextID] = newTree()
	return s.nextID
}

// CloneLayout copies a layout, including its selection, into a new id.
// Cloning an unknown layout yields an empty one.
func (s *System) CloneLayout(id LayoutID) LayoutID {
	src := s.layouts[id]
	if src == nil {
		return s.CreateLayout()
	}
	s.nextID++
	s.layouts[s.nextID] = src.clone()
	return s.nextID
}

func (t *Tree) clone() *Tree {
	out := &Tree{
		nodes:    make(map[NodeID]*node, len(t.nodes)),
		root:     t.root,
		nextNode: t.nextNode,
		windows:  maps.Clone(t.windows),
	}
	for id, n := range t.nodes {
		cp := *n
		cp.children = slices.Clone(n.children)
		out.nodes[id] = &cp
	}
	return out
}

// RemoveLayout forgets a layout
func (s *System) RemoveLayout(id LayoutID) {
	delete(s.layouts, id)
}

// Exists reports whether the layout id is live
func (s *System) Exists(id LayoutID) bool {
	_, ok := s.layouts[id]
	return ok
}

// LayoutIDs lists live layouts in ascending order
func (s *System) LayoutIDs() []LayoutID {
	return slices.Sorted(maps.Keys(s.layouts))
}

func (s *System) tree(id LayoutID) *Tree {
	return s.layouts[id]
}

// SelectedWindow returns the window at the end of the focus path, if the
// path ends on a window.
func (s *System) SelectedWindow(id LayoutID) (types.WindowID, bool) {
	t := s.tree(id)
	if t == nil {
		return types.WindowID{}, false
	}
	return t.windowAt(t.selection())
}

// SelectWindow moves the focus path to wid
func (s *System) SelectWindow(id LayoutID, wid types.WindowID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	n, ok := t.windows[wid]
	if !ok {
		return false
	}
	t.selectReturningSurfaced(n)
	return true
}

// ContainsWindow reports whether wid is tiled in the layout
func (s *System) ContainsWindow(id LayoutID, wid types.WindowID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	_, ok := t.windows[wid]
	return ok
}

// Windows lists every window of the layout in tree order
func (s *System) Windows(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	return t.windowsUnder(t.root)
}

// VisibleWindows lists windows not hidden behind a stack selection
func (s *System) VisibleWindows(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	return t.visibleWindowsUnder(t.root)
}

// VisibleWindowsUnderSelection lists visible windows below the selection
func (s *System) VisibleWindowsUnderSelection(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	return t.visibleWindowsUnder(t.selection())
}

// AddWindowAfterSelection inserts wid next to the selected node and
// selects it.
func (s *System) AddWindowAfterSelection(id LayoutID, wid types.WindowID) {
	t := s.tree(id)
	if t == nil {
		return
	}
	if _, ok := t.windows[wid]; ok {
		return
	}
	sel := t.selection()
	n := t.mkNode()
	if t.parent(sel) == 0 {
		t.pushBack(n, t.root)
	} else {
		t.insertAfter(n, sel)
	}
	t.setWindow(n, wid)
	t.selectNode(n)
}

// AddWindowWithHint inserts wid next to the selection. When the selection's
// container runs along the other axis and already holds several children,
// the selection is first wrapped in a container oriented along hint.
func (s *System) AddWindowWithHint(id LayoutID, wid types.WindowID, hint types.Orientation) {
	t := s.tree(id)
	if t == nil {
		return
	}
	if _, ok := t.windows[wid]; ok {
		return
	}
	sel := t.selection()
	container := t.parent(sel)
	if container == 0 {
		container = t.root
		if t.kind(container).Orientation() != hint && len(t.children(container)) <= 1 &&
			!t.kind(container).IsStacked() {
			t.setKind(container, types.KindFor(hint))
		}
		n := t.mkNode()
		t.pushBack(n, container)
		t.setWindow(n, wid)
		t.selectNode(n)
		return
	}

	kind := t.kind(container)
	switch {
	case kind.Orientation() == hint || kind.IsStacked():
	case len(t.children(container)) > 1:
		t.nestInContainer(sel, types.KindFor(hint))
	default:
		t.setKind(container, types.KindFor(hint))
	}
	n := t.mkNode()
	t.insertAfter(n, sel)
	t.setWindow(n, wid)
	t.selectNode(n)
}

// InsertWindowNextTo places wid beside anchor (before it when before is set)
// and selects it.
func (s *System) InsertWindowNextTo(id LayoutID, wid, anchor types.WindowID, before bool) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	if _, ok := t.windows[wid]; ok {
		return false
	}
	at, ok := t.windows[anchor]
	if !ok {
		return false
	}
	n := t.mkNode()
	if before {
		t.insertBefore(n, at)
	} else {
		t.insertAfter(n, at)
	}
	t.setWindow(n, wid)
	t.selectNode(n)
	return true
}

// RemoveWindow drops wid from every layout
func (s *System) RemoveWindow(wid types.WindowID) {
	for _, t := range s.layouts {
		if n, ok := t.windows[wid]; ok {
			t.removeNode(n)
		}
	}
}

// RemoveWindowsForApp drops every window of pid from every layout
func (s *System) RemoveWindowsForApp(pid types.Pid) {
	for _, t := range s.layouts {
		for wid, n := range maps.Clone(t.windows) {
			if wid.Pid == pid && t.exists(n) {
				t.removeNode(n)
			}
		}
	}
}

// HasWindowsForApp reports whether any window of pid is in the layout
func (s *System) HasWindowsForApp(id LayoutID, pid types.Pid) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	for wid := range t.windows {
		if wid.Pid == pid {
			return true
		}
	}
	return false
}

// SetWindowsForApp makes the layout hold exactly the desired windows of
// pid. Missing windows are appended under the root.
func (s *System) SetWindowsForApp(id LayoutID, pid types.Pid, desired []types.WindowID) {
	t := s.tree(id)
	if t == nil {
		return
	}
	want := make(map[types.WindowID]bool, len(desired))
	for _, wid := range desired {
		if wid.Pid == pid {
			want[wid] = true
		}
	}
	for wid, n := range maps.Clone(t.windows) {
		if wid.Pid == pid && !want[wid] && t.exists(n) {
			t.removeNode(n)
		}
	}
	sorted := slices.SortedFunc(maps.Keys(want), func(a, b types.WindowID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	for _, wid := range sorted {
		if _, ok := t.windows[wid]; ok {
			continue
		}
		n := t.mkNode()
		t.pushBack(n, t.root)
		t.setWindow(n, wid)
	}
}

// MoveFocus moves the selection in dir. It returns the window to focus and
// the windows a stack change brought to the front.
func (s *System) MoveFocus(id LayoutID, dir types.Direction) (types.WindowID, bool, []types.WindowID) {
	t := s.tree(id)
	if t == nil {
		return types.WindowID{}, false, nil
	}
	target := t.traverse(t.selection(), dir)
	if target == 0 {
		return types.WindowID{}, false, nil
	}
	focus, ok := t.windowAt(target)
	if !ok {
		if visible := t.visibleWindowsUnder(target); len(visible) > 0 {
			focus, ok = visible[0], true
		}
	}
	raise := t.selectReturningSurfaced(target)
	return focus, ok, raise
}

// CycleWindow selects the next (or previous) window in tree order,
// wrapping around.
func (s *System) CycleWindow(id LayoutID, forward bool) (types.WindowID, bool, []types.WindowID) {
	t := s.tree(id)
	if t == nil {
		return types.WindowID{}, false, nil
	}
	all := t.windowsUnder(t.root)
	if len(all) == 0 {
		return types.WindowID{}, false, nil
	}
	next := all[0]
	if !forward {
		next = all[len(all)-1]
	}
	if cur, ok := t.windowAt(t.selection()); ok {
		i := slices.Index(all, cur)
		if forward {
			next = all[(i+1)%len(all)]
		} else {
			next = all[(i-1+len(all))%len(all)]
		}
	}
	raise := t.selectReturningSurfaced(t.windows[next])
	return next, true, raise
}

// Ascend moves the selection to the parent container
func (s *System) Ascend(id LayoutID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	p := t.parent(t.selection())
	if p == 0 {
		return false
	}
	t.selectNode(p)
	return true
}

// Descend moves the selection back down towards the remembered child
func (s *System) Descend(id LayoutID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	sel := t.selection()
	child := t.localSelection(sel)
	if child == 0 {
		child = t.firstChild(sel)
	}
	if child == 0 {
		return false
	}
	t.selectNode(child)
	return true
}

// MoveSelection moves the selected node one step in dir
func (s *System) MoveSelection(id LayoutID, dir types.Direction) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	return t.moveNode(t.selection(), dir)
}

// JoinSelection groups the selection with its neighbour in dir under a
// container oriented along dir.
func (s *System) JoinSelection(id LayoutID, dir types.Direction) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	sel := t.selection()
	target := t.moveOver(sel, dir)
	if target == 0 {
		target = t.traverse(sel, dir)
	}
	if target == 0 {
		return false
	}
	container := t.findOrCreateCommonParent(sel, target)
	if container == 0 {
		return false
	}
	t.setKind(container, types.KindFor(dir.Orientation()))
	t.selectNode(container)
	return true
}

// Split wraps the selection in a container of the given orientation so the
// next window lands beside it along that axis.
func (s *System) Split(id LayoutID, o types.Orientation) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	t.nestInContainer(t.selection(), types.KindFor(o))
	return true
}

// ToggleStack stacks the selection's container, or flips an existing
// stack's axis. It returns the windows now visible in that container.
func (s *System) ToggleStack(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	p := t.parent(t.selection())
	if p == 0 {
		return nil
	}
	var next types.LayoutKind
	switch t.kind(p) {
	case types.KindHorizontal:
		next = types.KindHorizontalStack
	case types.KindVertical:
		next = types.KindVerticalStack
	case types.KindHorizontalStack:
		next = types.KindVerticalStack
	default:
		next = types.KindHorizontalStack
	}
	t.setKind(p, next)
	return t.visibleWindowsUnder(p)
}

// Unstack turns the selection's stacked container back into a split
func (s *System) Unstack(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	p := t.parent(t.selection())
	if p == 0 || !t.kind(p).IsStacked() {
		return nil
	}
	t.setKind(p, types.KindFor(t.kind(p).Orientation()))
	return t.visibleWindowsUnder(p)
}

// Unjoin dissolves the selection's container into its own parent
func (s *System) Unjoin(id LayoutID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	sel := t.selection()
	p := t.parent(sel)
	if p == 0 || p == t.root {
		return false
	}
	grand := t.parent(p)
	children := slices.Clone(t.children(p))
	pos := t.indexOf(p)
	wasSelected := t.localSelection(grand) == p
	for i, c := range children {
		t.detach(c)
		t.attach(c, grand, pos+1+i)
	}
	t.deleteSubtree(p)
	if wasSelected {
		t.nodes[grand].selected = sel
	}
	return true
}

// ToggleOrientation flips the axis of the selected container, or of the
// container holding the selected window.
func (s *System) ToggleOrientation(id LayoutID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	target := t.selection()
	if t.isLeaf(target) && target != t.root {
		target = t.parent(target)
	}
	switch t.kind(target) {
	case types.KindHorizontal:
		t.setKind(target, types.KindVertical)
	case types.KindVertical:
		t.setKind(target, types.KindHorizontal)
	case types.KindHorizontalStack:
		t.setKind(target, types.KindVerticalStack)
	case types.KindVerticalStack:
		t.setKind(target, types.KindHorizontalStack)
	}
	return true
}

// ToggleFullscreen flips fullscreen on the selection and returns the
// windows to raise when it was turned on.
func (s *System) ToggleFullscreen(id LayoutID) []types.WindowID {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	sel := t.selection()
	n := t.nodes[sel]
	n.fullscreen = !n.fullscreen
	if !n.fullscreen {
		return nil
	}
	return t.visibleWindowsUnder(sel)
}

// IsFullscreen reports whether wid's node is fullscreen in the layout
func (s *System) IsFullscreen(id LayoutID, wid types.WindowID) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	n, ok := t.windows[wid]
	return ok && t.nodes[n].fullscreen
}

// ResizeSelectionBy grows (positive) or shrinks (negative) the selected
// window by a fraction of the screen.
func (s *System) ResizeSelectionBy(id LayoutID, amount float64) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	return t.resizeSelectionBy(amount)
}

// ResizeSelection applies a pixel or percent resize to the selected window
// whose current frame is given.
func (s *System) ResizeSelection(id LayoutID, delta ResizeDelta, current, screen types.Rect) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	sel := t.selection()
	if _, ok := t.windowAt(sel); !ok {
		return false
	}
	return t.setFrameFromResize(sel, current, delta.Apply(current, screen), screen)
}

// OnWindowResized folds a user resize of wid back into the layout. A
// resize to or from the full screen toggles fullscreen instead.
func (s *System) OnWindowResized(id LayoutID, wid types.WindowID, oldFrame, newFrame, screen types.Rect) {
	t := s.tree(id)
	if t == nil {
		return
	}
	n, ok := t.windows[wid]
	if !ok {
		return
	}
	switch {
	case newFrame == screen:
		t.nodes[n].fullscreen = true
	case oldFrame == screen:
		t.nodes[n].fullscreen = false
	default:
		t.setFrameFromResize(n, oldFrame, newFrame, screen)
	}
}

// Rebalance resets every container to equal shares
func (s *System) Rebalance(id LayoutID) {
	t := s.tree(id)
	if t == nil {
		return
	}
	var walk func(NodeID)
	walk = func(n NodeID) {
		children := t.children(n)
		if len(children) == 0 {
			return
		}
		t.nodes[n].total = float64(len(children))
		for _, c := range children {
			t.nodes[c].size = 1
			walk(c)
		}
	}
	walk(t.root)
}

// SwapWindows exchanges the positions of two windows in the layout
func (s *System) SwapWindows(id LayoutID, a, b types.WindowID) bool {
	t := s.tree(id)
	if t == nil || a == b {
		return false
	}
	na, okA := t.windows[a]
	nb, okB := t.windows[b]
	if !okA || !okB {
		return false
	}
	t.setWindow(na, b)
	t.setWindow(nb, a)
	return true
}

// CalculateLayout computes frames for every window in the layout
func (s *System) CalculateLayout(id LayoutID, screen types.Rect, opts FrameOptions) []WindowFrame {
	t := s.tree(id)
	if t == nil {
		return nil
	}
	return t.calculate(screen, opts)
}
