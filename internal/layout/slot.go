package layout

import (
	"github.com/yourusername/tiler/internal/types"
)

// Slot records where a window leaf sat in a tree: its container,
// its position and share there, and the sibling that replaces the
// container when removing the leaf collapses it.
type Slot struct {
	parent      NodeID
	kind        types.LayoutKind
	index       int
	size        float64
	sibling     NodeID
	siblingSize float64
}

// SlotOf describes the position of wid in layout id.
func (s *System) SlotOf(id LayoutID, wid types.WindowID) (Slot, bool) {
	t := s.tree(id)
	if t == nil {
		return Slot{}, false
	}
	leaf, ok := t.windows[wid]
	if !ok {
		return Slot{}, false
	}
	parent := t.parent(leaf)
	p := Slot{
		parent: parent,
		kind:   t.kind(parent),
		index:  t.indexOf(leaf),
		size:   t.nodes[leaf].size,
	}
	if siblings := t.children(parent); len(siblings) == 2 {
		p.sibling = siblings[1-p.index]
		p.siblingSize = t.nodes[p.sibling].size
	}
	return p, true
}

// RestoreWindow puts wid back where p says it was and selects it. When
// the old container collapsed into its remaining sibling, the container
// is rebuilt around that sibling. It reports false when neither the
// container nor the sibling survives.
func (s *System) RestoreWindow(id LayoutID, wid types.WindowID, p Slot) bool {
	t := s.tree(id)
	if t == nil {
		return false
	}
	if _, ok := t.windows[wid]; ok {
		return false
	}

	parent := p.parent
	switch {
	case t.exists(parent) && !t.nodes[parent].hasWindow:
	case p.sibling != 0 && t.exists(p.sibling) && t.parent(p.sibling) != 0:
		parent = t.rebuildAround(p.sibling, p.kind, p.siblingSize)
	default:
		return false
	}

	n := t.mkNode()
	t.attach(n, parent, min(p.index, len(t.children(parent))))
	if p.size > 0 {
		t.nodes[parent].total += p.size - t.nodes[n].size
		t.nodes[n].size = p.size
	}
	t.setWindow(n, wid)
	t.selectNode(n)
	return true
}

// rebuildAround wraps id in a new container of kind that takes over id's
// share of its parent. id keeps size inside the container.
func (t *Tree) rebuildAround(id NodeID, kind types.LayoutKind, size float64) NodeID {
	c := t.mkNode()
	t.insertAfter(c, id)
	t.assumeSizeOf(c, id)
	t.detach(id)
	t.setKind(c, kind)
	t.pushBack(id, c)
	if size > 0 {
		cn := t.nodes[c]
		cn.total += size - t.nodes[id].size
		t.nodes[id].size = size
	}
	return c
}
