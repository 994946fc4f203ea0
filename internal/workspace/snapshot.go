package workspace

import (
	"fmt"
	"slices"

	"github.com/yourusername/tiler/internal/types"
)

// Snapshot is the persisted form of the manager. App rules and defaults
// come from configuration and are not part of it.
type Snapshot struct {
	NextID      types.WorkspaceID   `json:"nextId"`
	NameCounter int                 `json:"nameCounter"`
	Workspaces  []WorkspaceSnapshot `json:"workspaces"`
	Active      []ActiveSnapshot    `json:"active"`
	Floating    []FloatingSnapshot  `json:"floating,omitempty"`
}

// WorkspaceSnapshot lists workspaces per space in their creation order.
type WorkspaceSnapshot struct {
	ID          types.WorkspaceID `json:"id"`
	Name        string            `json:"name"`
	Space       types.SpaceID     `json:"space"`
	Windows     []types.WindowID  `json:"windows,omitempty"`
	LastFocused *types.WindowID   `json:"lastFocused,omitempty"`
	Floating    []types.WindowID  `json:"ruleFloating,omitempty"`
}

type ActiveSnapshot struct {
	Space    types.SpaceID     `json:"space"`
	Previous types.WorkspaceID `json:"previous,omitempty"`
	Current  types.WorkspaceID `json:"current"`
}

type FloatingSnapshot struct {
	Space     types.SpaceID     `json:"space"`
	Workspace types.WorkspaceID `json:"workspace"`
	Window    types.WindowID    `json:"window"`
	Frame     types.Rect        `json:"frame"`
}

// Snapshot captures the manager's state in a deterministic order
func (m *Manager) Snapshot() Snapshot {
	out := Snapshot{NextID: m.nextID, NameCounter: m.nameCounter}
	for _, space := range m.Spaces() {
		for _, id := range m.bySpace[space] {
			w := m.workspaces[id]
			ws := WorkspaceSnapshot{ID: id, Name: w.Name, Space: space, Windows: w.Windows()}
			if lf, ok := w.LastFocused(); ok {
				ws.LastFocused = &lf
			}
			for _, wid := range ws.Windows {
				if m.ruleFloating[spaceWindow{space, wid}] {
					ws.Floating = append(ws.Floating, wid)
				}
			}
			out.Workspaces = append(out.Workspaces, ws)
			for _, f := range m.WorkspaceFloatingPositions(space, id) {
				out.Floating = append(out.Floating, FloatingSnapshot{Space: space, Workspace: id, Window: f.Window, Frame: f.Frame})
			}
		}
		if p, ok := m.active[space]; ok {
			out.Active = append(out.Active, ActiveSnapshot{Space: space, Previous: p.previous, Current: p.current})
		}
	}
	return out
}

// Restore replaces the manager's state with snap. Windows for which known
// returns false are dropped; a nil known keeps every window. Active
// entries pointing at missing workspaces are ignored so the default
// workspace fallback applies.
func (m *Manager) Restore(snap Snapshot, known func(types.WindowID) bool) error {
	workspaces := make(map[types.WorkspaceID]*Workspace, len(snap.Workspaces))
	bySpace := make(map[types.SpaceID][]types.WorkspaceID)
	windowToWorkspace := make(map[spaceWindow]types.WorkspaceID)
	ruleFloating := make(map[spaceWindow]bool)
	keep := func(wid types.WindowID) bool { return known == nil || known(wid) }

	nextID := snap.NextID
	for _, ws := range snap.Workspaces {
		if ws.ID == 0 || ws.Space == 0 {
			return fmt.Errorf("workspace snapshot has zero id or space")
		}
		if _, dup := workspaces[ws.ID]; dup {
			return fmt.Errorf("duplicate workspace id %d in snapshot", ws.ID)
		}
		w := newWorkspace(ws.ID, ws.Name, ws.Space)
		for _, wid := range ws.Windows {
			key := spaceWindow{ws.Space, wid}
			if !keep(wid) {
				continue
			}
			if _, taken := windowToWorkspace[key]; taken {
				continue
			}
			w.add(wid)
			windowToWorkspace[key] = ws.ID
			if slices.Contains(ws.Floating, wid) {
				ruleFloating[key] = true
			}
		}
		if ws.LastFocused != nil && w.Contains(*ws.LastFocused) {
			w.lastFocused, w.hasFocused = *ws.LastFocused, true
		}
		workspaces[ws.ID] = w
		bySpace[ws.Space] = append(bySpace[ws.Space], ws.ID)
		nextID = max(nextID, ws.ID)
	}

	active := make(map[types.SpaceID]activePair)
	for _, a := range snap.Active {
		w := workspaces[a.Current]
		if w == nil || w.Space != a.Space {
			continue
		}
		p := activePair{current: a.Current}
		if prev := workspaces[a.Previous]; prev != nil && prev.Space == a.Space {
			p.previous = a.Previous
		}
		active[a.Space] = p
	}

	floating := make(map[spaceWorkspace]map[types.WindowID]types.Rect)
	for _, f := range snap.Floating {
		if w := workspaces[f.Workspace]; w == nil || w.Space != f.Space || !keep(f.Window) {
			continue
		}
		key := spaceWorkspace{f.Space, f.Workspace}
		if floating[key] == nil {
			floating[key] = make(map[types.WindowID]types.Rect)
		}
		floating[key][f.Window] = f.Frame
	}

	m.workspaces = workspaces
	m.bySpace = bySpace
	m.active = active
	m.windowToWorkspace = windowToWorkspace
	m.ruleFloating = ruleFloating
	m.floating = floating
	m.nextID = nextID
	m.nameCounter = max(snap.NameCounter, 1)
	return nil
}
