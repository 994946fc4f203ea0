package layout

import "github.com/yourusername/tiler/internal/types"

// selection follows the focus path from the root.
func (t *Tree) selection() NodeID {
	id := t.root
	for {
		n := t.nodes[id]
		if n.stopHere || n.selected == 0 || !t.exists(n.selected) {
			return id
		}
		id = n.selected
	}
}

// localSelection is the child of id on the focus path, or zero.
func (t *Tree) localSelection(id NodeID) NodeID {
	n := t.nodes[id]
	if n == nil || n.selected == 0 || t.parent(n.selected) != id {
		return 0
	}
	return n.selected
}

// selectLocally makes id the selected child of its parent and reports
// whether that changed anything.
func (t *Tree) selectLocally(id NodeID) bool {
	p := t.parent(id)
	if p == 0 {
		return false
	}
	pn := t.nodes[p]
	changed := pn.selected != id || pn.stopHere
	pn.selected = id
	pn.stopHere = false
	return changed
}

// selectNode puts id at the end of the focus path.
func (t *Tree) selectNode(id NodeID) {
	for _, a := range t.ancestors(id) {
		t.selectLocally(a)
	}
	t.nodes[id].stopHere = !t.isLeaf(id)
}

// selectReturningSurfaced selects id and returns the windows that became
// visible because a stack somewhere on the path switched its selection.
func (t *Tree) selectReturningSurfaced(id NodeID) []types.WindowID {
	highest := id
	for _, a := range t.ancestors(id) {
		p := t.parent(a)
		if p == 0 {
			break
		}
		if t.selectLocally(a) && t.kind(p).IsStacked() {
			highest = a
		}
	}
	t.nodes[id].stopHere = !t.isLeaf(id)
	return t.visibleWindowsUnder(highest)
}

// visibleWindowsUnder lists windows that are on screen in id's subtree: a
// stack only contributes its selected child.
func (t *Tree) visibleWindowsUnder(id NodeID) []types.WindowID {
	var out []types.WindowID
	var walk func(NodeID)
	walk = func(n NodeID) {
		if wid, ok := t.windowAt(n); ok {
			out = append(out, wid)
		}
		if t.kind(n).IsStacked() {
			sel := t.localSelection(n)
			if sel == 0 {
				sel = t.firstChild(n)
			}
			if sel != 0 {
				walk(sel)
			}
			return
		}
		for _, c := range t.children(n) {
			walk(c)
		}
	}
	walk(id)
	return out
}

// windowsUnder lists every window in id's subtree in layout order.
func (t *Tree) windowsUnder(id NodeID) []types.WindowID {
	var out []types.WindowID
	for _, n := range t.preorder(id) {
		if wid, ok := t.windowAt(n); ok {
			out = append(out, wid)
		}
	}
	return out
}
