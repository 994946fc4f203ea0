package layout

import (
	"github.com/yourusername/tiler/internal/types"
)

// moveOver returns the sibling of from in direction dir, if the parent
// lays children out along that axis. Stacks step through their children
// in either axis.
func (t *Tree) moveOver(from NodeID, dir types.Direction) NodeID {
	parent := t.parent(from)
	if parent == 0 {
		return 0
	}
	kind := t.kind(parent)
	if kind.Orientation() != dir.Orientation() && !kind.IsStacked() {
		return 0
	}
	if dir.Forward() {
		return t.nextSibling(from)
	}
	return t.prevSibling(from)
}

// traverse finds the node focus lands on when moving from in dir.
func (t *Tree) traverse(from NodeID, dir types.Direction) NodeID {
	if sibling := t.moveOver(from, dir); sibling != 0 {
		return t.descendIntoTarget(sibling, dir)
	}
	for _, ancestor := range t.ancestors(from)[1:] {
		if target := t.moveOver(ancestor, dir); target != 0 {
			return t.descendIntoTarget(target, dir)
		}
	}
	return 0
}

// descendIntoTarget walks down from target to the leaf nearest to where
// the movement came from, preferring remembered selections.
func (t *Tree) descendIntoTarget(target NodeID, dir types.Direction) NodeID {
	current := target
	for {
		children := t.children(current)
		if len(children) == 0 {
			return current
		}
		kind := t.kind(current)
		selected := t.localSelection(current)
		if selected != 0 && (kind.IsStacked() || kind.Orientation() != dir.Orientation()) {
			current = selected
			continue
		}
		switch {
		case kind.IsStacked(), kind.Orientation() != dir.Orientation():
			current = children[0]
		case dir.Forward():
			// Entering from the left or top lands on the near edge.
			current = children[0]
		default:
			current = children[len(children)-1]
		}
	}
}

type destination struct {
	target NodeID
	ahead  bool
}

// moveNode moves id one step in dir, reparenting when the parent does not
// run along dir's axis. It reports whether anything moved.
func (t *Tree) moveNode(id NodeID, dir types.Direction) bool {
	oldParent := t.parent(id)
	if oldParent == 0 {
		return false
	}
	wasSelection := t.localSelection(oldParent) == id

	dest, ok := t.moveDestination(id, dir)
	if !ok {
		return false
	}

	t.detach(id)
	if dest.ahead == dir.Forward() {
		t.insertAfter(id, dest.target)
	} else {
		t.insertBefore(id, dest.target)
	}

	if wasSelection {
		for _, a := range t.ancestors(id) {
			if a == oldParent {
				break
			}
			t.selectLocally(a)
		}
	}
	t.collapse(oldParent)
	return true
}

func (t *Tree) moveDestination(id NodeID, dir types.Direction) (destination, bool) {
	if sibling := t.moveOver(id, dir); sibling != 0 {
		n := sibling
		var target NodeID
		for {
			next := t.localSelection(n)
			if next == 0 {
				next = t.firstChild(n)
			}
			if next == 0 {
				target = n
				break
			}
			if t.kind(n).Orientation() == dir.Orientation() {
				target = next
				break
			}
			n = next
		}
		if target == sibling {
			return destination{target: sibling, ahead: true}, true
		}
		return destination{target: target, ahead: false}, true
	}

	for _, a := range t.ancestors(id)[1:] {
		p := t.parent(a)
		if p != 0 && t.kind(p).Orientation() == dir.Orientation() {
			return destination{target: a, ahead: true}, true
		}
	}

	// Only a direct child of the root can get here when the root runs
	// along dir, and it is already at the edge.
	oldRoot := t.root
	if t.kind(oldRoot).Orientation() == dir.Orientation() {
		return destination{}, false
	}
	if t.parent(id) == oldRoot && len(t.children(oldRoot)) == 1 {
		return destination{}, false
	}
	t.nestInContainer(oldRoot, types.KindFor(dir.Orientation()))
	return destination{target: oldRoot, ahead: true}, true
}

// nestInContainer wraps id in a new container of the given kind and
// returns that container. An only child reuses its parent instead.
func (t *Tree) nestInContainer(id NodeID, kind types.LayoutKind) NodeID {
	oldParent := t.parent(id)
	var container NodeID
	switch {
	case oldParent != 0 && t.prevSibling(id) == 0 && t.nextSibling(id) == 0:
		container = oldParent
	case oldParent != 0:
		wasSelection := t.localSelection(oldParent) == id
		container = t.mkNode()
		t.insertBefore(container, id)
		t.assumeSizeOf(container, id)
		t.detach(id)
		t.pushBack(id, container)
		if wasSelection {
			t.selectLocally(container)
		}
		t.selectLocally(id)
	default:
		container = t.mkNode()
		old := t.root
		t.root = container
		t.pushBack(old, container)
		t.nodes[container].size = 1
		t.selectLocally(old)
	}
	t.setKind(container, kind)
	return container
}

// findOrCreateCommonParent groups a and b under one container.
func (t *Tree) findOrCreateCommonParent(a, b NodeID) NodeID {
	pa, pb := t.parent(a), t.parent(b)
	if pa != 0 && pa == pb {
		container := t.mkNode()
		t.insertBefore(container, a)
		t.assumeSizeOf(container, a)
		t.assumeSizeOf(container, b)
		t.detach(a)
		t.pushBack(a, container)
		t.detach(b)
		t.pushBack(b, container)
		return container
	}
	bAncestors := make(map[NodeID]bool)
	for _, n := range t.ancestors(b) {
		bAncestors[n] = true
	}
	for _, n := range t.ancestors(a) {
		if !bAncestors[n] {
			continue
		}
		container := t.mkNode()
		t.pushBack(container, n)
		t.setKind(container, types.KindHorizontal)
		aParent, bParent := t.parent(a), t.parent(b)
		t.detach(a)
		t.pushBack(a, container)
		t.detach(b)
		t.pushBack(b, container)
		t.collapse(aParent)
		t.collapse(bParent)
		return container
	}
	return 0
}
