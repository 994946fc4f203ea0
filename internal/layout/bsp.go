package layout

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/yourusername/tiler/internal/types"
)

const (
	minRatio = 0.05
	maxRatio = 0.95
)

// BSP tiles every layout as a binary tree. A split divides its area
// between exactly two children at ratio and a leaf holds at most one
// window. A new window splits the selected leaf; the axis alternates with
// depth, so repeated inserts spiral inwards.
type BSP struct {
	layouts map[LayoutID]*bspTree
	nextID  LayoutID
}

type bspNode struct {
	parent NodeID
	// empty for leaves, two entries for splits
	children    []NodeID
	orientation types.Orientation
	ratio       float64
	fullscreen  bool

	hasWindow bool
	window    types.WindowID
}

type bspTree struct {
	nodes    map[NodeID]*bspNode
	root     NodeID
	sel      NodeID
	nextNode NodeID
	windows  map[types.WindowID]NodeID
}

// NewBSP creates an empty BSP tiler
func NewBSP() *BSP {
	return &BSP{layouts: make(map[LayoutID]*bspTree)}
}

func (b *BSP) Mode() Mode { return ModeBSP }

func newBSPTree() *bspTree {
	t := &bspTree{
		nodes:   make(map[NodeID]*bspNode),
		windows: make(map[types.WindowID]NodeID),
	}
	t.root = t.mkLeaf(0)
	t.sel = t.root
	return t
}

func (t *bspTree) mkLeaf(parent NodeID) NodeID {
	t.nextNode++
	t.nodes[t.nextNode] = &bspNode{parent: parent, ratio: 0.5}
	return t.nextNode
}

func (t *bspTree) isLeaf(id NodeID) bool { return len(t.nodes[id].children) == 0 }

func (t *bspTree) depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != 0; p = t.nodes[p].parent {
		d++
	}
	return d
}

func (t *bspTree) firstLeaf(id NodeID) NodeID {
	for !t.isLeaf(id) {
		id = t.nodes[id].children[0]
	}
	return id
}

func (t *bspTree) setWindow(id NodeID, wid types.WindowID) {
	n := t.nodes[id]
	n.window, n.hasWindow = wid, true
	t.windows[wid] = id
}

func (t *bspTree) windowAt(id NodeID) (types.WindowID, bool) {
	n := t.nodes[id]
	return n.window, n.hasWindow
}

// axisFor is the split axis for a new window next to leaf
func (t *bspTree) axisFor(leaf NodeID) types.Orientation {
	if t.depth(leaf)%2 == 0 {
		return types.Horizontal
	}
	return types.Vertical
}

// splitLeaf turns leaf into a split of its old content and a new empty
// leaf, which comes first when before is set. It returns the new leaf.
func (t *bspTree) splitLeaf(leaf NodeID, o types.Orientation, before bool) NodeID {
	n := t.nodes[leaf]
	old := t.mkLeaf(leaf)
	t.nodes[old].fullscreen = n.fullscreen
	if n.hasWindow {
		t.setWindow(old, n.window)
	}
	fresh := t.mkLeaf(leaf)

	n.hasWindow, n.window, n.fullscreen = false, types.WindowID{}, false
	n.orientation, n.ratio = o, 0.5
	n.children = []NodeID{old, fresh}
	if before {
		n.children = []NodeID{fresh, old}
	}
	return fresh
}

func (t *bspTree) insertAtSelection(wid types.WindowID) {
	leaf := t.firstLeaf(t.sel)
	if !t.nodes[leaf].hasWindow {
		t.setWindow(leaf, wid)
		t.sel = leaf
		return
	}
	n := t.splitLeaf(leaf, t.axisFor(leaf), false)
	t.setWindow(n, wid)
	t.sel = n
}

// removeLeaf drops a leaf; its sibling takes the place of their split.
func (t *bspTree) removeLeaf(id NodeID) {
	n := t.nodes[id]
	if n.hasWindow {
		delete(t.windows, n.window)
	}
	p := n.parent
	if p == 0 {
		n.hasWindow, n.window, n.fullscreen = false, types.WindowID{}, false
		t.sel = id
		return
	}
	pn := t.nodes[p]
	sibling := pn.children[0]
	if sibling == id {
		sibling = pn.children[1]
	}
	grand := pn.parent
	t.nodes[sibling].parent = grand
	if grand == 0 {
		t.root = sibling
	} else {
		gn := t.nodes[grand]
		gn.children[slices.Index(gn.children, p)] = sibling
	}
	delete(t.nodes, id)
	delete(t.nodes, p)
	if _, ok := t.nodes[t.sel]; !ok {
		t.sel = t.firstLeaf(sibling)
	}
}

// neighbor finds the leaf next to from in dir, or zero at the edge.
func (t *bspTree) neighbor(from NodeID, dir types.Direction) NodeID {
	for cur := from; ; {
		p := t.nodes[cur].parent
		if p == 0 {
			return 0
		}
		pn := t.nodes[p]
		if pn.orientation == dir.Orientation() {
			first := pn.children[0] == cur
			if first && dir.Forward() {
				return t.closestLeaf(pn.children[1], dir)
			}
			if !first && !dir.Forward() {
				return t.closestLeaf(pn.children[0], dir)
			}
		}
		cur = p
	}
}

// closestLeaf descends into id towards the edge facing the mover.
func (t *bspTree) closestLeaf(id NodeID, dir types.Direction) NodeID {
	for !t.isLeaf(id) {
		n := t.nodes[id]
		if n.orientation == dir.Orientation() && !dir.Forward() {
			id = n.children[1]
		} else {
			id = n.children[0]
		}
	}
	return id
}

func (t *bspTree) windowsUnder(id NodeID) []types.WindowID {
	var out []types.WindowID
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := t.nodes[id]
		if n.hasWindow {
			out = append(out, n.window)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(id)
	return out
}

func (t *bspTree) clone() *bspTree {
	out := &bspTree{
		nodes:    make(map[NodeID]*bspNode, len(t.nodes)),
		root:     t.root,
		sel:      t.sel,
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

// split returns the rects of a split's children inside rect
func (n *bspNode) split(rect types.Rect, gaps InnerGaps) (types.Rect, types.Rect) {
	if n.orientation == types.Horizontal {
		usable := math.Max(rect.Width-gaps.Horizontal, 0)
		first := usable * n.ratio
		return types.Rect{X: rect.X, Y: rect.Y, Width: first, Height: rect.Height},
			types.Rect{X: rect.X + first + gaps.Horizontal, Y: rect.Y, Width: usable - first, Height: rect.Height}
	}
	usable := math.Max(rect.Height-gaps.Vertical, 0)
	first := usable * n.ratio
	return types.Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: first},
		types.Rect{X: rect.X, Y: rect.Y + first + gaps.Vertical, Width: rect.Width, Height: usable - first}
}

func (t *bspTree) applyFrames(id NodeID, rect, screen types.Rect, gaps InnerGaps, out *[]WindowFrame) {
	n := t.nodes[id]
	if n.fullscreen {
		rect = screen
	}
	if len(n.children) == 0 {
		if n.hasWindow {
			*out = append(*out, WindowFrame{Window: n.window, Frame: rect})
		}
		return
	}
	r1, r2 := n.split(rect, gaps)
	t.applyFrames(n.children[0], r1.Round(), screen, gaps, out)
	t.applyFrames(n.children[1], r2.Round(), screen, gaps, out)
}

// rects maps every node to its area within screen, ignoring gaps
func (t *bspTree) rects(screen types.Rect) map[NodeID]types.Rect {
	out := make(map[NodeID]types.Rect, len(t.nodes))
	var walk func(NodeID, types.Rect)
	walk = func(id NodeID, r types.Rect) {
		out[id] = r
		n := t.nodes[id]
		if len(n.children) == 2 {
			r1, r2 := n.split(r, InnerGaps{})
			walk(n.children[0], r1)
			walk(n.children[1], r2)
		}
	}
	walk(t.root, screen)
	return out
}

// resizeTo moves the split lines bounding id so its edges follow the
// change from oldFrame to newFrame.
func (t *bspTree) resizeTo(id NodeID, oldFrame, newFrame, screen types.Rect) bool {
	rects := t.rects(screen)
	changed := false
	// far is set for the right or bottom edge: id must then sit in the
	// first child of the split that owns the edge
	moveEdge := func(o types.Orientation, far bool, delta float64) {
		for cur := id; t.nodes[cur].parent != 0; cur = t.nodes[cur].parent {
			p := t.nodes[cur].parent
			pn := t.nodes[p]
			if pn.orientation != o || (pn.children[0] == cur) != far {
				continue
			}
			whole := rects[p].Width
			if o == types.Vertical {
				whole = rects[p].Height
			}
			if whole <= 0 {
				return
			}
			pn.ratio = clamp(pn.ratio+delta/whole, minRatio, maxRatio)
			changed = true
			return
		}
	}
	if d := newFrame.MaxX() - oldFrame.MaxX(); d != 0 {
		moveEdge(types.Horizontal, true, d)
	}
	if d := newFrame.X - oldFrame.X; d != 0 {
		moveEdge(types.Horizontal, false, d)
	}
	if d := newFrame.MaxY() - oldFrame.MaxY(); d != 0 {
		moveEdge(types.Vertical, true, d)
	}
	if d := newFrame.Y - oldFrame.Y; d != 0 {
		moveEdge(types.Vertical, false, d)
	}
	return changed
}

func (b *BSP) CreateLayout() LayoutID {
	b.nextID++
	b.layouts[b.nextID] = newBSPTree()
	return b.nextID
}

// CloneLayout copies a layout, including its selection, into a new id.
// Cloning an unknown layout yields an empty one.
func (b *BSP) CloneLayout(id LayoutID) LayoutID {
	src := b.layouts[id]
	if src == nil {
		return b.CreateLayout()
	}
	b.nextID++
	b.layouts[b.nextID] = src.clone()
	return b.nextID
}

func (b *BSP) RemoveLayout(id LayoutID) { delete(b.layouts, id) }

func (b *BSP) Exists(id LayoutID) bool {
	_, ok := b.layouts[id]
	return ok
}

func (b *BSP) LayoutIDs() []LayoutID {
	return slices.Sorted(maps.Keys(b.layouts))
}

func (b *BSP) SelectedWindow(id LayoutID) (types.WindowID, bool) {
	t := b.layouts[id]
	if t == nil {
		return types.WindowID{}, false
	}
	return t.windowAt(t.sel)
}

func (b *BSP) SelectWindow(id LayoutID, wid types.WindowID) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	n, ok := t.windows[wid]
	if ok {
		t.sel = n
	}
	return ok
}

func (b *BSP) ContainsWindow(id LayoutID, wid types.WindowID) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	_, ok := t.windows[wid]
	return ok
}

// Windows lists the windows of a layout, first children first
func (b *BSP) Windows(id LayoutID) []types.WindowID {
	t := b.layouts[id]
	if t == nil {
		return nil
	}
	return t.windowsUnder(t.root)
}

// VisibleWindows is every window: nothing in a BSP layout is stacked
func (b *BSP) VisibleWindows(id LayoutID) []types.WindowID { return b.Windows(id) }

func (b *BSP) HasWindowsForApp(id LayoutID, pid types.Pid) bool {
	t := b.layouts[id]
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

// AddWindowAfterSelection fills the selected leaf, or splits it when it
// already holds a window, and selects the new window.
func (b *BSP) AddWindowAfterSelection(id LayoutID, wid types.WindowID) {
	t := b.layouts[id]
	if t == nil {
		return
	}
	if _, ok := t.windows[wid]; ok {
		return
	}
	t.insertAtSelection(wid)
}

// InsertWindowNextTo splits anchor's leaf and puts wid on the side given
// by before.
func (b *BSP) InsertWindowNextTo(id LayoutID, wid, anchor types.WindowID, before bool) bool {
	t := b.layouts[id]
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
	n := t.splitLeaf(at, t.axisFor(at), before)
	t.setWindow(n, wid)
	t.sel = n
	return true
}

func (b *BSP) RemoveWindow(wid types.WindowID) {
	for _, t := range b.layouts {
		if n, ok := t.windows[wid]; ok {
			t.removeLeaf(n)
		}
	}
}

func (b *BSP) RemoveWindowsForApp(pid types.Pid) {
	for _, t := range b.layouts {
		for wid, n := range maps.Clone(t.windows) {
			if wid.Pid == pid {
				t.removeLeaf(n)
			}
		}
	}
}

// SetWindowsForApp makes the layout hold exactly the desired windows of
// pid. Missing windows split the selection in id order.
func (b *BSP) SetWindowsForApp(id LayoutID, pid types.Pid, desired []types.WindowID) {
	t := b.layouts[id]
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
		if wid.Pid == pid && !want[wid] {
			t.removeLeaf(n)
		}
	}
	for _, wid := range slices.SortedFunc(maps.Keys(want), compareWindows) {
		if _, ok := t.windows[wid]; !ok {
			t.insertAtSelection(wid)
		}
	}
}

func (b *BSP) MoveFocus(id LayoutID, dir types.Direction) (types.WindowID, bool, []types.WindowID) {
	t := b.layouts[id]
	if t == nil {
		return types.WindowID{}, false, nil
	}
	target := t.neighbor(t.firstLeaf(t.sel), dir)
	if target == 0 {
		return types.WindowID{}, false, nil
	}
	t.sel = target
	wid, ok := t.windowAt(target)
	return wid, ok, nil
}

func (b *BSP) CycleWindow(id LayoutID, forward bool) (types.WindowID, bool, []types.WindowID) {
	t := b.layouts[id]
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
	if cur, ok := t.windowAt(t.sel); ok {
		i := slices.Index(all, cur)
		if forward {
			next = all[(i+1)%len(all)]
		} else {
			next = all[(i-1+len(all))%len(all)]
		}
	}
	t.sel = t.windows[next]
	return next, true, nil
}

// Ascend selects the split holding the selection
func (b *BSP) Ascend(id LayoutID) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	p := t.nodes[t.sel].parent
	if p == 0 {
		return false
	}
	t.sel = p
	return true
}

// Descend selects the first leaf under a selected split
func (b *BSP) Descend(id LayoutID) bool {
	t := b.layouts[id]
	if t == nil || t.isLeaf(t.sel) {
		return false
	}
	t.sel = t.firstLeaf(t.sel)
	return true
}

// MoveSelection exchanges the selected window with the one next to it in
// dir; the selection follows the window.
func (b *BSP) MoveSelection(id LayoutID, dir types.Direction) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	from := t.firstLeaf(t.sel)
	to := t.neighbor(from, dir)
	if to == 0 {
		return false
	}
	a, c := t.nodes[from], t.nodes[to]
	if !a.hasWindow && !c.hasWindow {
		return false
	}
	a.window, c.window = c.window, a.window
	a.hasWindow, c.hasWindow = c.hasWindow, a.hasWindow
	a.fullscreen, c.fullscreen = c.fullscreen, a.fullscreen
	if a.hasWindow {
		t.windows[a.window] = from
	}
	if c.hasWindow {
		t.windows[c.window] = to
	}
	t.sel = to
	return true
}

func (b *BSP) SwapWindows(id LayoutID, x, y types.WindowID) bool {
	t := b.layouts[id]
	if t == nil || x == y {
		return false
	}
	nx, okX := t.windows[x]
	ny, okY := t.windows[y]
	if !okX || !okY {
		return false
	}
	t.setWindow(nx, y)
	t.setWindow(ny, x)
	return true
}

// Split divides the selected leaf along o. Its window keeps the first
// half and the empty second half is selected for the next window.
func (b *BSP) Split(id LayoutID, o types.Orientation) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	leaf := t.firstLeaf(t.sel)
	if !t.nodes[leaf].hasWindow {
		return false
	}
	t.sel = t.splitLeaf(leaf, o, false)
	return true
}

// JoinSelection needs containers of more than two children
func (b *BSP) JoinSelection(LayoutID, types.Direction) bool { return false }

func (b *BSP) Unjoin(LayoutID) bool { return false }

func (b *BSP) ToggleStack(LayoutID) []types.WindowID { return nil }

func (b *BSP) Unstack(LayoutID) []types.WindowID { return nil }

// ToggleOrientation flips the selected split, or the split holding the
// selected leaf.
func (b *BSP) ToggleOrientation(id LayoutID) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	target := t.sel
	if t.isLeaf(target) {
		target = t.nodes[target].parent
	}
	if target == 0 {
		return false
	}
	n := t.nodes[target]
	if n.orientation == types.Horizontal {
		n.orientation = types.Vertical
	} else {
		n.orientation = types.Horizontal
	}
	return true
}

func (b *BSP) ToggleFullscreen(id LayoutID) []types.WindowID {
	t := b.layouts[id]
	if t == nil {
		return nil
	}
	n := t.nodes[t.sel]
	n.fullscreen = !n.fullscreen
	if !n.fullscreen {
		return nil
	}
	return t.windowsUnder(t.sel)
}

func (b *BSP) IsFullscreen(id LayoutID, wid types.WindowID) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	n, ok := t.windows[wid]
	return ok && t.nodes[n].fullscreen
}

// ResizeSelectionBy moves the nearest split line of the selection so the
// selected side grows by amount of the split.
func (b *BSP) ResizeSelectionBy(id LayoutID, amount float64) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	if _, ok := t.windowAt(t.sel); !ok {
		return false
	}
	cur := t.sel
	p := t.nodes[cur].parent
	if p == 0 {
		return false
	}
	pn := t.nodes[p]
	if pn.children[0] == cur {
		pn.ratio = clamp(pn.ratio+amount, minRatio, maxRatio)
	} else {
		pn.ratio = clamp(pn.ratio-amount, minRatio, maxRatio)
	}
	return true
}

func (b *BSP) ResizeSelection(id LayoutID, delta ResizeDelta, current, screen types.Rect) bool {
	t := b.layouts[id]
	if t == nil {
		return false
	}
	if _, ok := t.windowAt(t.sel); !ok {
		return false
	}
	return t.resizeTo(t.sel, current, delta.Apply(current, screen), screen)
}

// OnWindowResized folds a user resize of wid into the split ratios. A
// resize to or from the full screen toggles fullscreen instead.
func (b *BSP) OnWindowResized(id LayoutID, wid types.WindowID, oldFrame, newFrame, screen types.Rect) {
	t := b.layouts[id]
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
		t.resizeTo(n, oldFrame, newFrame, screen)
	}
}

// Rebalance resets every split to halves
func (b *BSP) Rebalance(id LayoutID) {
	t := b.layouts[id]
	if t == nil {
		return
	}
	for _, n := range t.nodes {
		n.ratio = 0.5
	}
}

func (b *BSP) CalculateLayout(id LayoutID, screen types.Rect, opts FrameOptions) []WindowFrame {
	t := b.layouts[id]
	if t == nil {
		return nil
	}
	var out []WindowFrame
	t.applyFrames(t.root, tilingArea(screen, opts.Gaps.Outer), screen, opts.Gaps.Inner, &out)
	return out
}

// Draw renders a layout for debugging. The selected node is marked
// with *.
func (b *BSP) Draw(id LayoutID) string {
	t := b.layouts[id]
	if t == nil {
		return ""
	}
	var sb strings.Builder
	t.draw(&sb, t.root, "", "")
	return sb.String()
}

func (t *bspTree) draw(sb *strings.Builder, id NodeID, prefix, childPrefix string) {
	n := t.nodes[id]
	sb.WriteString(prefix)
	switch {
	case len(n.children) > 0:
		fmt.Fprintf(sb, "%s [ratio %.2f]", n.orientation, n.ratio)
	case n.hasWindow:
		sb.WriteString(n.window.String())
	default:
		sb.WriteString("empty")
	}
	if n.fullscreen {
		sb.WriteString(" fullscreen")
	}
	if id == t.sel {
		sb.WriteString(" *")
	}
	sb.WriteByte('\n')
	for i, c := range n.children {
		if i == len(n.children)-1 {
			t.draw(sb, c, childPrefix+"└── ", childPrefix+"    ")
		} else {
			t.draw(sb, c, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}

func compareWindows(a, b types.WindowID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}
