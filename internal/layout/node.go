package layout

import (
	"slices"

	"github.com/yourusername/tiler/internal/types"
)

// NodeID identifies a node inside one Tree. Zero means "no node".
type NodeID uint32

// node is either a container (has children) or a window leaf. The root is
// always a container, even when empty.
type node struct {
	parent   NodeID
	children []NodeID

	kind          types.LayoutKind
	lastUngrouped types.LayoutKind
	fullscreen    bool

	// size is this node's share of the parent's total.
	size float64
	// total is the sum of the children's sizes.
	total float64

	// selected is the child on the focus path; stopHere ends the path at
	// this node even if it has a selected child.
	selected NodeID
	stopHere bool

	hasWindow bool
	window    types.WindowID
}

// Tree is one layout: a tree of split/stack containers with window leaves.
type Tree struct {
	nodes    map[NodeID]*node
	root     NodeID
	nextNode NodeID
	windows  map[types.WindowID]NodeID
}

func newTree() *Tree {
	t := &Tree{
		nodes:   make(map[NodeID]*node),
		windows: make(map[types.WindowID]NodeID),
	}
	t.root = t.mkNode()
	return t
}

func (t *Tree) mkNode() NodeID {
	t.nextNode++
	id := t.nextNode
	t.nodes[id] = &node{kind: types.KindHorizontal, lastUngrouped: types.KindHorizontal}
	return id
}

func (t *Tree) get(id NodeID) *node {
	return t.nodes[id]
}

func (t *Tree) exists(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

func (t *Tree) parent(id NodeID) NodeID {
	if n := t.nodes[id]; n != nil {
		return n.parent
	}
	return 0
}

func (t *Tree) children(id NodeID) []NodeID {
	if n := t.nodes[id]; n != nil {
		return n.children
	}
	return nil
}

func (t *Tree) isLeaf(id NodeID) bool {
	return len(t.children(id)) == 0
}

func (t *Tree) kind(id NodeID) types.LayoutKind {
	return t.nodes[id].kind
}

func (t *Tree) windowAt(id NodeID) (types.WindowID, bool) {
	n := t.nodes[id]
	if n == nil || !n.hasWindow {
		return types.WindowID{}, false
	}
	return n.window, true
}

func (t *Tree) indexOf(id NodeID) int {
	p := t.parent(id)
	if p == 0 {
		return -1
	}
	return slices.Index(t.nodes[p].children, id)
}

func (t *Tree) prevSibling(id NodeID) NodeID {
	i := t.indexOf(id)
	if i <= 0 {
		return 0
	}
	return t.nodes[t.parent(id)].children[i-1]
}

func (t *Tree) nextSibling(id NodeID) NodeID {
	i := t.indexOf(id)
	if i < 0 {
		return 0
	}
	siblings := t.nodes[t.parent(id)].children
	if i+1 >= len(siblings) {
		return 0
	}
	return siblings[i+1]
}

func (t *Tree) firstChild(id NodeID) NodeID {
	c := t.children(id)
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

// ancestors returns id followed by each of its ancestors up to the root.
func (t *Tree) ancestors(id NodeID) []NodeID {
	var out []NodeID
	for n := id; n != 0; n = t.parent(n) {
		out = append(out, n)
	}
	return out
}

// preorder returns the subtree under id, parents before children.
func (t *Tree) preorder(id NodeID) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		out = append(out, n)
		for _, c := range t.children(n) {
			walk(c)
		}
	}
	walk(id)
	return out
}

// attach inserts a detached node under parent at pos. The node takes a
// share of 1.
func (t *Tree) attach(id, parent NodeID, pos int) {
	p := t.nodes[parent]
	n := t.nodes[id]
	if pos < 0 || pos > len(p.children) {
		pos = len(p.children)
	}
	p.children = slices.Insert(p.children, pos, id)
	n.parent = parent
	n.size = 1
	p.total += 1
	if p.selected == 0 {
		p.selected = id
	}
}

func (t *Tree) pushBack(id, parent NodeID) {
	t.attach(id, parent, -1)
}

func (t *Tree) insertBefore(id, sibling NodeID) {
	t.attach(id, t.parent(sibling), t.indexOf(sibling))
}

func (t *Tree) insertAfter(id, sibling NodeID) {
	t.attach(id, t.parent(sibling), t.indexOf(sibling)+1)
}

// detach unlinks id from its parent without collapsing the parent.
func (t *Tree) detach(id NodeID) {
	n := t.nodes[id]
	if n == nil || n.parent == 0 {
		return
	}
	p := t.nodes[n.parent]
	i := slices.Index(p.children, id)
	if i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	p.total -= n.size
	if p.selected == id {
		switch {
		case i >= 0 && i < len(p.children):
			p.selected = p.children[i]
		case len(p.children) > 0:
			p.selected = p.children[len(p.children)-1]
		default:
			p.selected = 0
		}
	}
	n.parent = 0
}

// deleteSubtree detaches id and forgets it and all of its descendants.
func (t *Tree) deleteSubtree(id NodeID) {
	t.detach(id)
	for _, n := range t.preorder(id) {
		if nd := t.nodes[n]; nd != nil && nd.hasWindow {
			if t.windows[nd.window] == n {
				delete(t.windows, nd.window)
			}
		}
		delete(t.nodes, n)
	}
}

// removeNode deletes id and collapses containers left empty or with a
// single child.
func (t *Tree) removeNode(id NodeID) {
	parent := t.parent(id)
	t.deleteSubtree(id)
	t.collapse(parent)
}

// collapse removes an empty non-root container, or replaces a non-root
// container holding a single child with that child.
func (t *Tree) collapse(id NodeID) {
	if id == 0 || id == t.root || !t.exists(id) {
		return
	}
	n := t.nodes[id]
	switch len(n.children) {
	case 0:
		if n.hasWindow {
			return
		}
		grand := n.parent
		t.deleteSubtree(id)
		t.collapse(grand)
	case 1:
		child := n.children[0]
		grand := n.parent
		if grand == 0 {
			return
		}
		wasSelected := t.nodes[grand].selected == id
		t.detach(child)
		t.insertAfter(child, id)
		t.assumeSizeOf(child, id)
		if n.stopHere && !t.isLeaf(child) {
			t.nodes[child].stopHere = true
		}
		t.deleteSubtree(id)
		if wasSelected {
			t.nodes[grand].selected = child
		}
	}
}

// assumeSizeOf gives newNode the share old had; old keeps nothing. Both
// must share a parent.
func (t *Tree) assumeSizeOf(newNode, old NodeID) {
	p := t.nodes[t.parent(newNode)]
	nn, on := t.nodes[newNode], t.nodes[old]
	p.total -= nn.size
	nn.size = on.size
	on.size = 0
}

func (t *Tree) setKind(id NodeID, kind types.LayoutKind) {
	n := t.nodes[id]
	n.kind = kind
	if !kind.IsStacked() {
		n.lastUngrouped = kind
	}
}

func (t *Tree) proportion(id NodeID) (float64, bool) {
	p := t.parent(id)
	if p == 0 {
		return 0, false
	}
	total := t.nodes[p].total
	if total == 0 {
		return 0, false
	}
	return t.nodes[id].size / total, true
}

// takeShare moves share from "from" to id, bounded so neither goes
// negative.
func (t *Tree) takeShare(id, from NodeID, share float64) {
	n, f := t.nodes[id], t.nodes[from]
	share = min(share, f.size)
	share = max(share, -n.size)
	f.size -= share
	n.size += share
}

func (t *Tree) setWindow(id NodeID, wid types.WindowID) {
	n := t.nodes[id]
	n.hasWindow = true
	n.window = wid
	t.windows[wid] = id
}
