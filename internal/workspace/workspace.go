// Package workspace maps windows to virtual workspaces. Each physical
// space carries its own ordered list of workspaces, exactly one of which is
// active at a time.
package workspace

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

var (
	ErrLimitReached     = errors.New("workspace limit reached")
	ErrUnknownWorkspace = errors.New("unknown workspace")
	ErrNoWorkspaces     = errors.New("no workspaces available")
	ErrAssignmentFailed = errors.New("window assignment failed")
)

// DefaultName is used when a space has to be given a workspace and none
// could be created from configuration.
const DefaultName = "Default"

// Workspace is a named group of windows within one space.
type Workspace struct {
	ID    types.WorkspaceID
	Name  string
	Space types.SpaceID

	windows     map[types.WindowID]struct{}
	lastFocused types.WindowID
	hasFocused  bool
}

func newWorkspace(id types.WorkspaceID, name string, space types.SpaceID) *Workspace {
	return &Workspace{ID: id, Name: name, Space: space, windows: make(map[types.WindowID]struct{})}
}

func (w *Workspace) Contains(wid types.WindowID) bool {
	_, ok := w.windows[wid]
	return ok
}

// Windows returns the workspace's windows in id order
func (w *Workspace) Windows() []types.WindowID {
	out := slices.Collect(maps.Keys(w.windows))
	slices.SortFunc(out, compareWindows)
	return out
}

func (w *Workspace) WindowCount() int { return len(w.windows) }

func (w *Workspace) LastFocused() (types.WindowID, bool) {
	return w.lastFocused, w.hasFocused
}

func (w *Workspace) add(wid types.WindowID) { w.windows[wid] = struct{}{} }

func (w *Workspace) remove(wid types.WindowID) bool {
	if w.hasFocused && w.lastFocused == wid {
		w.hasFocused = false
		w.lastFocused = types.WindowID{}
	}
	if _, ok := w.windows[wid]; !ok {
		return false
	}
	delete(w.windows, wid)
	return true
}

func compareWindows(a, b types.WindowID) int {
	if c := cmp.Compare(a.Pid, b.Pid); c != 0 {
		return c
	}
	return cmp.Compare(a.Idx, b.Idx)
}

type activePair struct {
	previous types.WorkspaceID // zero when there is none
	current  types.WorkspaceID
}

type spaceWindow struct {
	space types.SpaceID
	wid   types.WindowID
}

type spaceWorkspace struct {
	space types.SpaceID
	ws    types.WorkspaceID
}

// Manager owns every virtual workspace. It is not safe for concurrent use;
// the reactor goroutine is its only caller.
type Manager struct {
	workspaces        map[types.WorkspaceID]*Workspace
	bySpace           map[types.SpaceID][]types.WorkspaceID
	active            map[types.SpaceID]activePair
	windowToWorkspace map[spaceWindow]types.WorkspaceID
	ruleFloating      map[spaceWindow]bool
	floating          map[spaceWorkspace]map[types.WindowID]types.Rect

	nextID      types.WorkspaceID
	nameCounter int

	rules         []compiledRule
	maxWorkspaces int
	defaultCount  int
	defaultNames  []string
}

// NewManager creates a manager configured from the virtual workspace
// settings. Spaces are initialized lazily on first use.
func NewManager(cfg config.VirtualWorkspaces) *Manager {
	m := &Manager{
		workspaces:        make(map[types.WorkspaceID]*Workspace),
		bySpace:           make(map[types.SpaceID][]types.WorkspaceID),
		active:            make(map[types.SpaceID]activePair),
		windowToWorkspace: make(map[spaceWindow]types.WorkspaceID),
		ruleFloating:      make(map[spaceWindow]bool),
		floating:          make(map[spaceWorkspace]map[types.WindowID]types.Rect),
		nameCounter:       1,
		maxWorkspaces:     config.MaxWorkspaces,
	}
	m.UpdateSettings(cfg)
	return m
}

// UpdateSettings applies new rules and defaults. Existing spaces keep
// their workspaces; the defaults only shape spaces initialized later.
func (m *Manager) UpdateSettings(cfg config.VirtualWorkspaces) {
	m.defaultCount = cfg.DefaultWorkspaceCount
	m.defaultNames = slices.Clone(cfg.WorkspaceNames)
	m.SetAppRules(cfg.AppRules)
}

func (m *Manager) allocID() types.WorkspaceID {
	m.nextID++
	return m.nextID
}

func (m *Manager) ensureSpaceInitialized(space types.SpaceID) {
	if _, ok := m.bySpace[space]; ok {
		return
	}
	count := min(max(m.defaultCount, 1), m.maxWorkspaces)
	ids := make([]types.WorkspaceID, 0, count)
	for i := range count {
		name := fmt.Sprintf("Workspace %d", i+1)
		if i < len(m.defaultNames) && m.defaultNames[i] != "" {
			name = m.defaultNames[i]
		}
		id := m.allocID()
		m.workspaces[id] = newWorkspace(id, name, space)
		ids = append(ids, id)
	}
	m.bySpace[space] = ids
	m.active[space] = activePair{current: ids[0]}
	logging.Debug().Uint64("space", uint64(space)).Int("count", count).Msg("initialized workspaces")
}

// EnsureSpaceInitialized creates the configured default workspaces for a
// space the first time it is seen.
func (m *Manager) EnsureSpaceInitialized(space types.SpaceID) {
	m.ensureSpaceInitialized(space)
}

// CreateWorkspace appends a workspace to space. An empty name gets a
// generated one.
func (m *Manager) CreateWorkspace(space types.SpaceID, name string) (types.WorkspaceID, error) {
	m.ensureSpaceInitialized(space)
	if len(m.bySpace[space]) >= m.maxWorkspaces {
		return 0, fmt.Errorf("%w: %d workspaces on space %d", ErrLimitReached, m.maxWorkspaces, space)
	}
	if name == "" {
		name = fmt.Sprintf("Workspace %d", m.nameCounter)
		m.nameCounter++
	}
	id := m.allocID()
	m.workspaces[id] = newWorkspace(id, name, space)
	m.bySpace[space] = append(m.bySpace[space], id)
	return id, nil
}

// RenameWorkspace changes a workspace name; it reports false when ws does
// not belong to space.
func (m *Manager) RenameWorkspace(space types.SpaceID, ws types.WorkspaceID, name string) bool {
	w := m.workspaceIn(space, ws)
	if w == nil || name == "" {
		return false
	}
	w.Name = name
	return true
}

func (m *Manager) workspaceIn(space types.SpaceID, ws types.WorkspaceID) *Workspace {
	w := m.workspaces[ws]
	if w == nil || w.Space != space {
		return nil
	}
	return w
}

// Workspace returns ws if it belongs to space
func (m *Manager) Workspace(space types.SpaceID, ws types.WorkspaceID) (*Workspace, bool) {
	w := m.workspaceIn(space, ws)
	return w, w != nil
}

// ActiveWorkspace returns the active workspace of space. The space's
// workspaces are created on first access, so this only fails when the
// space cannot hold any workspace.
func (m *Manager) ActiveWorkspace(space types.SpaceID) (types.WorkspaceID, bool) {
	ws, err := m.DefaultWorkspace(space)
	return ws, err == nil
}

// LastWorkspace returns the workspace that was active before the current one
func (m *Manager) LastWorkspace(space types.SpaceID) (types.WorkspaceID, bool) {
	p, ok := m.active[space]
	if !ok || p.previous == 0 {
		return 0, false
	}
	return p.previous, true
}

// SetActiveWorkspace makes ws the active workspace of space and remembers
// the previous one. Unknown or foreign workspaces are rejected.
func (m *Manager) SetActiveWorkspace(space types.SpaceID, ws types.WorkspaceID) bool {
	if m.workspaceIn(space, ws) == nil {
		logging.Error().Uint64("space", uint64(space)).Uint64("ws", uint64(ws)).
			Msg("attempted to activate a workspace that does not exist on this space")
		return false
	}
	prev := m.active[space].current
	m.active[space] = activePair{previous: prev, current: ws}
	return true
}

// DefaultWorkspace returns the active workspace of space, falling back to
// the first one (which becomes active), creating "Default" when the space
// has none at all.
func (m *Manager) DefaultWorkspace(space types.SpaceID) (types.WorkspaceID, error) {
	m.ensureSpaceInitialized(space)
	if p, ok := m.active[space]; ok {
		if _, exists := m.workspaces[p.current]; exists {
			return p.current, nil
		}
		logging.Warn().Uint64("space", uint64(space)).Msg("active workspace no longer exists, clearing reference")
		delete(m.active, space)
	}
	ids := m.bySpace[space]
	if len(ids) == 0 {
		id, err := m.CreateWorkspace(space, DefaultName)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNoWorkspaces, err)
		}
		ids = []types.WorkspaceID{id}
	}
	if !m.SetActiveWorkspace(space, ids[0]) {
		return 0, fmt.Errorf("%w: could not activate default workspace", ErrNoWorkspaces)
	}
	return ids[0], nil
}

// ListWorkspaces returns the workspaces of space in creation order
func (m *Manager) ListWorkspaces(space types.SpaceID) []*Workspace {
	m.ensureSpaceInitialized(space)
	ids := m.bySpace[space]
	out := make([]*Workspace, 0, len(ids))
	for _, id := range ids {
		if w := m.workspaces[id]; w != nil {
			out = append(out, w)
		}
	}
	return out
}

// WorkspaceByIndex returns the i-th workspace of space in creation order
func (m *Manager) WorkspaceByIndex(space types.SpaceID, i int) (types.WorkspaceID, bool) {
	m.ensureSpaceInitialized(space)
	ids := m.bySpace[space]
	if i < 0 || i >= len(ids) {
		return 0, false
	}
	return ids[i], true
}

// WorkspaceByName returns the first workspace of space called name
func (m *Manager) WorkspaceByName(space types.SpaceID, name string) (types.WorkspaceID, bool) {
	for _, w := range m.ListWorkspaces(space) {
		if w.Name == name {
			return w.ID, true
		}
	}
	return 0, false
}

// IndexOf returns the position of ws within its space
func (m *Manager) IndexOf(space types.SpaceID, ws types.WorkspaceID) (int, bool) {
	i := slices.Index(m.bySpace[space], ws)
	return i, i >= 0
}

// Spaces returns every initialized space in ascending order
func (m *Manager) Spaces() []types.SpaceID {
	return slices.Sorted(maps.Keys(m.bySpace))
}

// navigationOrder is the order next/prev walk: by name, then by id.
func (m *Manager) navigationOrder(space types.SpaceID) []types.WorkspaceID {
	ids := slices.Clone(m.bySpace[space])
	slices.SortStableFunc(ids, func(a, b types.WorkspaceID) int {
		if c := cmp.Compare(m.workspaces[a].Name, m.workspaces[b].Name); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

func (m *Manager) step(space types.SpaceID, current types.WorkspaceID, skipEmpty bool, delta int) (types.WorkspaceID, bool) {
	if current == 0 {
		p, ok := m.active[space]
		if !ok {
			return 0, false
		}
		current = p.current
	}
	order := m.navigationOrder(space)
	pos := slices.Index(order, current)
	if pos < 0 {
		return 0, false
	}
	n := len(order)
	for k := 1; k <= n; k++ {
		cand := order[((pos+delta*k)%n+n)%n]
		if !skipEmpty || m.workspaces[cand].WindowCount() > 0 {
			return cand, true
		}
	}
	return 0, false
}

// NextWorkspace returns the workspace after current (the active one when
// current is zero), wrapping around. With skipEmpty, workspaces without
// windows are passed over.
func (m *Manager) NextWorkspace(space types.SpaceID, current types.WorkspaceID, skipEmpty bool) (types.WorkspaceID, bool) {
	return m.step(space, current, skipEmpty, 1)
}

// PrevWorkspace is NextWorkspace in the other direction
func (m *Manager) PrevWorkspace(space types.SpaceID, current types.WorkspaceID, skipEmpty bool) (types.WorkspaceID, bool) {
	return m.step(space, current, skipEmpty, -1)
}

// SetLastFocusedWindow records the focused window of ws. A nil window
// clears it.
func (m *Manager) SetLastFocusedWindow(space types.SpaceID, ws types.WorkspaceID, wid *types.WindowID) {
	w := m.workspaceIn(space, ws)
	if w == nil {
		return
	}
	if wid == nil {
		w.hasFocused = false
		w.lastFocused = types.WindowID{}
		return
	}
	w.lastFocused, w.hasFocused = *wid, true
}

// LastFocusedWindow returns the window last focused in ws
func (m *Manager) LastFocusedWindow(space types.SpaceID, ws types.WorkspaceID) (types.WindowID, bool) {
	w := m.workspaceIn(space, ws)
	if w == nil {
		return types.WindowID{}, false
	}
	return w.LastFocused()
}

// Stats summarizes the manager's contents.
type Stats struct {
	TotalWorkspaces int                       `json:"totalWorkspaces"`
	TotalWindows    int                       `json:"totalWindows"`
	ActiveSpaces    int                       `json:"activeSpaces"`
	WindowCounts    map[types.WorkspaceID]int `json:"windowCounts"`
}

func (m *Manager) Stats() Stats {
	s := Stats{
		TotalWorkspaces: len(m.workspaces),
		TotalWindows:    len(m.windowToWorkspace),
		ActiveSpaces:    len(m.active),
		WindowCounts:    make(map[types.WorkspaceID]int, len(m.workspaces)),
	}
	for id, w := range m.workspaces {
		s.WindowCounts[id] = w.WindowCount()
	}
	return s
}
