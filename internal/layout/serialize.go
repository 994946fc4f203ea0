package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourusername/tiler/internal/types"
)

// SnapshotVersion is bumped whenever the persisted tree format changes
const SnapshotVersion = 1

// ErrInvalidSnapshot is returned when a persisted layout does not describe
// a well-formed tree.
var ErrInvalidSnapshot = errors.New("invalid layout snapshot")

// NodeSnapshot is the persisted form of one node.
type NodeSnapshot struct {
	Kind       string          `json:"kind,omitempty"`
	Size       float64         `json:"size"`
	Fullscreen bool            `json:"fullscreen,omitempty"`
	Window     *types.WindowID `json:"window,omitempty"`
	Selected   int             `json:"selected"`
	StopHere   bool            `json:"stopHere,omitempty"`
	Children   []NodeSnapshot  `json:"children,omitempty"`
}

// SystemSnapshot is the persisted form of every layout.
type SystemSnapshot struct {
	Version int                       `json:"version"`
	Mode    Mode                      `json:"mode,omitempty"`
	NextID  LayoutID                  `json:"nextId"`
	Layouts map[LayoutID]NodeSnapshot `json:"layouts"`
}

// Snapshot captures every layout, including selections.
func (s *System) Snapshot() SystemSnapshot {
	out := SystemSnapshot{
		Version: SnapshotVersion,
		Mode:    ModeTraditional,
		NextID:  s.nextID,
		Layouts: make(map[LayoutID]NodeSnapshot, len(s.layouts)),
	}
	for id, t := range s.layouts {
		out.Layouts[id] = t.snapshot(t.root)
	}
	return out
}

// LayoutSnapshot captures one layout
func (s *System) LayoutSnapshot(id LayoutID) (NodeSnapshot, bool) {
	t := s.tree(id)
	if t == nil {
		return NodeSnapshot{}, false
	}
	return t.snapshot(t.root), true
}

func (t *Tree) snapshot(id NodeID) NodeSnapshot {
	n := t.nodes[id]
	out := NodeSnapshot{
		Size:       n.size,
		Fullscreen: n.fullscreen,
		Selected:   -1,
		StopHere:   n.stopHere,
	}
	if n.hasWindow {
		wid := n.window
		out.Window = &wid
		return out
	}
	out.Kind = n.kind.String()
	for i, c := range n.children {
		if c == n.selected {
			out.Selected = i
		}
		out.Children = append(out.Children, t.snapshot(c))
	}
	return out
}

// RestoreSystem rebuilds layouts from a snapshot. Leaves whose window is
// not accepted by known are dropped, along with containers they leave
// empty. A nil known keeps every window.
func RestoreSystem(snap SystemSnapshot, known func(types.WindowID) bool) (*System, error) {
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d is newer than supported %d", ErrInvalidSnapshot, snap.Version, SnapshotVersion)
	}
	s := NewSystem()
	for id, root := range snap.Layouts {
		if id == 0 {
			return nil, fmt.Errorf("%w: layout id 0", ErrInvalidSnapshot)
		}
		t, err := restoreTree(root, known)
		if err != nil {
			return nil, fmt.Errorf("layout %d: %w", id, err)
		}
		s.layouts[id] = t
		s.nextID = max(s.nextID, id)
	}
	s.nextID = max(s.nextID, snap.NextID)
	return s, nil
}

func restoreTree(root NodeSnapshot, known func(types.WindowID) bool) (*Tree, error) {
	if root.Window != nil {
		return nil, fmt.Errorf("%w: root is a window", ErrInvalidSnapshot)
	}
	t := newTree()
	if err := t.restoreInto(t.root, root, known); err != nil {
		return nil, err
	}
	t.nodes[t.root].size = root.Size
	return t, nil
}

func (t *Tree) restoreInto(id NodeID, snap NodeSnapshot, known func(types.WindowID) bool) error {
	n := t.nodes[id]
	kind := types.KindHorizontal
	if snap.Kind != "" {
		k, ok := types.ParseLayoutKind(snap.Kind)
		if !ok {
			return fmt.Errorf("%w: unknown kind %q", ErrInvalidSnapshot, snap.Kind)
		}
		kind = k
	}
	t.setKind(id, kind)
	n.fullscreen = snap.Fullscreen
	n.stopHere = snap.StopHere
	if snap.Selected < -1 || snap.Selected >= len(snap.Children) {
		return fmt.Errorf("%w: selected child %d out of range", ErrInvalidSnapshot, snap.Selected)
	}

	for i, cs := range snap.Children {
		if cs.Size < 0 || math.IsNaN(cs.Size) || math.IsInf(cs.Size, 0) {
			return fmt.Errorf("%w: bad size %v", ErrInvalidSnapshot, cs.Size)
		}
		if cs.Window != nil {
			if len(cs.Children) > 0 {
				return fmt.Errorf("%w: window %s has children", ErrInvalidSnapshot, cs.Window)
			}
			if _, dup := t.windows[*cs.Window]; dup {
				return fmt.Errorf("%w: window %s appears twice", ErrInvalidSnapshot, cs.Window)
			}
			if known != nil && !known(*cs.Window) {
				continue
			}
		}
		c := t.mkNode()
		t.pushBack(c, id)
		if cs.Window != nil {
			t.setWindow(c, *cs.Window)
			t.nodes[c].fullscreen = cs.Fullscreen
		} else if err := t.restoreInto(c, cs, known); err != nil {
			return err
		}
		if !t.exists(c) {
			continue
		}
		if !t.nodes[c].hasWindow && len(t.children(c)) == 0 {
			t.deleteSubtree(c)
			continue
		}
		n.total += cs.Size - t.nodes[c].size
		t.nodes[c].size = cs.Size
		if i == snap.Selected {
			n.selected = c
		}
		// dropped windows leave containers the live tree would have collapsed
		if len(cs.Children) > 1 && len(t.children(c)) == 1 {
			t.collapse(c)
		}
	}
	if snap.Selected == -1 {
		n.selected = 0
	}
	return nil
}
