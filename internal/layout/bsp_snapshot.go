package layout

import (
	"fmt"
	"math"

	"github.com/yourusername/tiler/internal/types"
)

// Snapshot captures every layout. Splits are stored like containers whose
// two children share the split by size.
func (b *BSP) Snapshot() SystemSnapshot {
	out := SystemSnapshot{
		Version: SnapshotVersion,
		Mode:    ModeBSP,
		NextID:  b.nextID,
		Layouts: make(map[LayoutID]NodeSnapshot, len(b.layouts)),
	}
	for id, t := range b.layouts {
		path := make(map[NodeID]bool)
		for n := t.sel; n != 0; n = t.nodes[n].parent {
			path[n] = true
		}
		out.Layouts[id] = t.snapshot(t.root, 1, path)
	}
	return out
}

func (t *bspTree) snapshot(id NodeID, size float64, path map[NodeID]bool) NodeSnapshot {
	n := t.nodes[id]
	out := NodeSnapshot{Size: size, Fullscreen: n.fullscreen, Selected: -1}
	if len(n.children) == 0 {
		if n.hasWindow {
			wid := n.window
			out.Window = &wid
		}
		return out
	}
	out.Kind = types.KindFor(n.orientation).String()
	for i, c := range n.children {
		if path[c] {
			out.Selected = i
		}
		share := n.ratio
		if i == 1 {
			share = 1 - n.ratio
		}
		out.Children = append(out.Children, t.snapshot(c, share, path))
	}
	return out
}

// RestoreBSP rebuilds BSP layouts from a snapshot. Leaves whose window is
// not accepted by known are dropped and their sibling takes the place of
// the split. A nil known keeps every window.
func RestoreBSP(snap SystemSnapshot, known func(types.WindowID) bool) (*BSP, error) {
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d is newer than supported %d", ErrInvalidSnapshot, snap.Version, SnapshotVersion)
	}
	b := NewBSP()
	for id, root := range snap.Layouts {
		if id == 0 {
			return nil, fmt.Errorf("%w: layout id 0", ErrInvalidSnapshot)
		}
		t := &bspTree{
			nodes:   make(map[NodeID]*bspNode),
			windows: make(map[types.WindowID]NodeID),
		}
		r, sel, err := t.restore(root, 0, known)
		if err != nil {
			return nil, fmt.Errorf("layout %d: %w", id, err)
		}
		if r == 0 {
			r = t.mkLeaf(0)
		}
		if sel == 0 {
			sel = t.firstLeaf(r)
		}
		t.root, t.sel = r, sel
		b.layouts[id] = t
		b.nextID = max(b.nextID, id)
	}
	b.nextID = max(b.nextID, snap.NextID)
	return b, nil
}

// restore builds the subtree for snap under parent. It returns zero when
// every window below was dropped, and the selected node when the
// selection survived.
func (t *bspTree) restore(snap NodeSnapshot, parent NodeID, known func(types.WindowID) bool) (NodeID, NodeID, error) {
	if snap.Window != nil {
		if len(snap.Children) > 0 {
			return 0, 0, fmt.Errorf("%w: window %s has children", ErrInvalidSnapshot, snap.Window)
		}
		if _, dup := t.windows[*snap.Window]; dup {
			return 0, 0, fmt.Errorf("%w: window %s appears twice", ErrInvalidSnapshot, snap.Window)
		}
		if known != nil && !known(*snap.Window) {
			return 0, 0, nil
		}
		id := t.mkLeaf(parent)
		t.nodes[id].fullscreen = snap.Fullscreen
		t.setWindow(id, *snap.Window)
		return id, id, nil
	}

	switch len(snap.Children) {
	case 0:
		id := t.mkLeaf(parent)
		return id, id, nil
	case 2:
	default:
		return 0, 0, fmt.Errorf("%w: split with %d children", ErrInvalidSnapshot, len(snap.Children))
	}
	o := types.Horizontal
	if snap.Kind != "" {
		k, ok := types.ParseLayoutKind(snap.Kind)
		if !ok || k.IsStacked() {
			return 0, 0, fmt.Errorf("%w: unknown split kind %q", ErrInvalidSnapshot, snap.Kind)
		}
		o = k.Orientation()
	}
	if snap.Selected < -1 || snap.Selected > 1 {
		return 0, 0, fmt.Errorf("%w: selected child %d out of range", ErrInvalidSnapshot, snap.Selected)
	}

	id := t.mkLeaf(parent)
	n := t.nodes[id]
	n.orientation, n.fullscreen = o, snap.Fullscreen
	var kids, sels [2]NodeID
	for i, cs := range snap.Children {
		if cs.Size < 0 || math.IsNaN(cs.Size) || math.IsInf(cs.Size, 0) {
			return 0, 0, fmt.Errorf("%w: bad size %v", ErrInvalidSnapshot, cs.Size)
		}
		c, s, err := t.restore(cs, id, known)
		if err != nil {
			return 0, 0, err
		}
		kids[i], sels[i] = c, s
	}

	pick := func(i int) NodeID {
		if snap.Selected == i {
			return sels[i]
		}
		return 0
	}
	switch {
	case kids[0] != 0 && kids[1] != 0:
		n.children = []NodeID{kids[0], kids[1]}
		if sum := snap.Children[0].Size + snap.Children[1].Size; sum > 0 {
			n.ratio = clamp(snap.Children[0].Size/sum, minRatio, maxRatio)
		}
		sel := NodeID(0)
		if snap.Selected >= 0 {
			sel = sels[snap.Selected]
		}
		return id, sel, nil
	case kids[0] == 0 && kids[1] == 0:
		delete(t.nodes, id)
		return 0, 0, nil
	}
	keep := 0
	if kids[0] == 0 {
		keep = 1
	}
	delete(t.nodes, id)
	t.nodes[kids[keep]].parent = parent
	return kids[keep], pick(keep), nil
}
