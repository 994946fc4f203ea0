package workspace

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/types"
)

const space types.SpaceID = 1

func wid(pid types.Pid, idx uint32) types.WindowID { return types.NewWindowID(pid, idx) }

func newManager(count int, names ...string) *Manager {
	cfg := config.DefaultConfig().VirtualWorkspaces
	cfg.DefaultWorkspaceCount = count
	cfg.WorkspaceNames = names
	return NewManager(cfg)
}

func names(ws []*Workspace) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Name
	}
	return out
}

func TestEnsureSpaceInitialized(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		names     []string
		wantNames []string
	}{
		{"configured names", 3, []string{"Main", "Code"}, []string{"Main", "Code", "Workspace 3"}},
		{"zero count yields one", 0, nil, []string{"Workspace 1"}},
		{"capped at limit", 50, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(tt.count, tt.names...)
			list := m.ListWorkspaces(space)
			if tt.wantNames != nil && !slices.Equal(names(list), tt.wantNames) {
				t.Errorf("names = %v, want %v", names(list), tt.wantNames)
			}
			if tt.count > config.MaxWorkspaces && len(list) != config.MaxWorkspaces {
				t.Errorf("len = %d, want %d", len(list), config.MaxWorkspaces)
			}
			active, ok := m.ActiveWorkspace(space)
			if !ok || active != list[0].ID {
				t.Errorf("ActiveWorkspace = %v, %v; want first workspace", active, ok)
			}
			if _, ok := m.LastWorkspace(space); ok {
				t.Error("LastWorkspace should be empty on a fresh space")
			}
		})
	}
}

func TestCreateWorkspaceLimit(t *testing.T) {
	m := newManager(config.MaxWorkspaces - 1)
	if _, err := m.CreateWorkspace(space, "Last"); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	_, err := m.CreateWorkspace(space, "")
	if !errors.Is(err, ErrLimitReached) {
		t.Errorf("CreateWorkspace over limit err = %v, want ErrLimitReached", err)
	}
}

func TestCreateWorkspaceGeneratesNames(t *testing.T) {
	m := newManager(1, "Main")
	a, _ := m.CreateWorkspace(space, "")
	b, _ := m.CreateWorkspace(space, "")
	wa, _ := m.Workspace(space, a)
	wb, _ := m.Workspace(space, b)
	if wa.Name != "Workspace 1" || wb.Name != "Workspace 2" {
		t.Errorf("generated names = %q, %q", wa.Name, wb.Name)
	}
}

func TestSetActiveWorkspace(t *testing.T) {
	m := newManager(2)
	first, _ := m.WorkspaceByIndex(space, 0)
	second, _ := m.WorkspaceByIndex(space, 1)

	if !m.SetActiveWorkspace(space, second) {
		t.Fatal("SetActiveWorkspace(second) = false")
	}
	if got, _ := m.ActiveWorkspace(space); got != second {
		t.Errorf("ActiveWorkspace = %v, want %v", got, second)
	}
	if got, ok := m.LastWorkspace(space); !ok || got != first {
		t.Errorf("LastWorkspace = %v, %v; want %v", got, ok, first)
	}

	other, _ := m.WorkspaceByIndex(2, 0)
	if m.SetActiveWorkspace(space, other) {
		t.Error("activating a workspace of another space should fail")
	}
	if m.SetActiveWorkspace(space, 999) {
		t.Error("activating an unknown workspace should fail")
	}
	if got, _ := m.ActiveWorkspace(space); got != second {
		t.Errorf("failed activation changed active workspace to %v", got)
	}
}

func TestActiveWorkspaceInitializesSpace(t *testing.T) {
	m := newManager(2, "Main")
	ws, ok := m.ActiveWorkspace(space)
	if !ok {
		t.Fatal("ActiveWorkspace() on a fresh space = false, want true")
	}
	if got := len(m.ListWorkspaces(space)); got != 2 {
		t.Errorf("workspaces = %d, want 2", got)
	}
	if w, _ := m.Workspace(space, ws); w == nil || w.Name != "Main" {
		t.Errorf("active workspace = %+v, want Main", w)
	}

	m.AssignWindowToWorkspace(space, wid(1, 1), ws)
	if got := m.WindowsInActiveWorkspace(space); !slices.Equal(got, []types.WindowID{wid(1, 1)}) {
		t.Errorf("WindowsInActiveWorkspace = %v", got)
	}
}

func TestDefaultWorkspaceCreatesDefault(t *testing.T) {
	m := newManager(1)
	only, _ := m.WorkspaceByIndex(space, 0)
	delete(m.workspaces, only)
	m.bySpace[space] = nil

	ws, err := m.DefaultWorkspace(space)
	if err != nil {
		t.Fatalf("DefaultWorkspace: %v", err)
	}
	w, ok := m.Workspace(space, ws)
	if !ok || w.Name != DefaultName {
		t.Fatalf("DefaultWorkspace = %v, want a new %q workspace", ws, DefaultName)
	}
	if got, _ := m.ActiveWorkspace(space); got != ws {
		t.Errorf("ActiveWorkspace = %v, want %v", got, ws)
	}
}

func TestDefaultWorkspaceFallsBackToFirst(t *testing.T) {
	m := newManager(2)
	first, _ := m.WorkspaceByIndex(space, 0)
	m.active[space] = activePair{current: 999}

	ws, err := m.DefaultWorkspace(space)
	if err != nil || ws != first {
		t.Errorf("DefaultWorkspace = %v, %v; want %v", ws, err, first)
	}
}

func TestNextPrevWorkspace(t *testing.T) {
	m := newManager(3, "B", "A", "C")
	b, _ := m.WorkspaceByName(space, "B")
	a, _ := m.WorkspaceByName(space, "A")
	c, _ := m.WorkspaceByName(space, "C")

	tests := []struct {
		name      string
		from      types.WorkspaceID
		next      bool
		skipEmpty bool
		want      types.WorkspaceID
		wantOK    bool
	}{
		{"next by name", a, true, false, b, true},
		{"next wraps", c, true, false, a, true},
		{"prev by name", b, false, false, a, true},
		{"prev wraps", a, false, false, c, true},
		{"zero means active", 0, true, false, c, true},
		{"skip empty none left", a, true, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got types.WorkspaceID
			var ok bool
			if tt.next {
				got, ok = m.NextWorkspace(space, tt.from, tt.skipEmpty)
			} else {
				got, ok = m.PrevWorkspace(space, tt.from, tt.skipEmpty)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("got %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	m.AssignWindowToWorkspace(space, wid(1, 1), c)
	if got, ok := m.NextWorkspace(space, a, true); !ok || got != c {
		t.Errorf("NextWorkspace(skipEmpty) = %v, %v; want %v", got, ok, c)
	}
	if got, ok := m.NextWorkspace(space, c, true); !ok || got != c {
		t.Errorf("NextWorkspace(skipEmpty) from only non-empty = %v, %v; want itself", got, ok)
	}
}

func TestAssignWindowToWorkspace(t *testing.T) {
	m := newManager(2)
	ws1, _ := m.WorkspaceByIndex(space, 0)
	ws2, _ := m.WorkspaceByIndex(space, 1)
	w := wid(1, 1)

	if !m.AssignWindowToWorkspace(space, w, ws1) {
		t.Fatal("assign to ws1 failed")
	}
	if !m.AssignWindowToWorkspace(space, w, ws1) {
		t.Fatal("repeated assign failed")
	}
	if got := m.WindowsInWorkspace(space, ws1); len(got) != 1 {
		t.Errorf("ws1 windows = %v, want one", got)
	}

	m.AssignWindowToWorkspace(space, w, ws2)
	if got, _ := m.WorkspaceForWindow(space, w); got != ws2 {
		t.Errorf("WorkspaceForWindow = %v, want %v", got, ws2)
	}
	if len(m.WindowsInWorkspace(space, ws1)) != 0 {
		t.Error("window still listed in old workspace")
	}
	if m.IsWindowInActiveWorkspace(space, w) {
		t.Error("window on inactive workspace reported visible")
	}
	if got := m.WindowsInInactiveWorkspaces(space); !slices.Equal(got, []types.WindowID{w}) {
		t.Errorf("WindowsInInactiveWorkspaces = %v", got)
	}
	if !m.IsWindowInActiveWorkspace(space, wid(9, 9)) {
		t.Error("unassigned window should count as visible")
	}
	if m.AssignWindowToWorkspace(space, w, 999) {
		t.Error("assign to unknown workspace should fail")
	}
}

func TestRemoveWindowClearsState(t *testing.T) {
	m := newManager(2)
	ws, _ := m.ActiveWorkspace(space)
	w := wid(3, 1)
	m.AssignWindowToWorkspace(space, w, ws)
	m.SetLastFocusedWindow(space, ws, &w)
	m.StoreFloatingPosition(space, w, types.NewRect(10, 10, 100, 100))

	m.RemoveWindow(w)

	if _, ok := m.WorkspaceForWindow(space, w); ok {
		t.Error("window still mapped")
	}
	if _, ok := m.LastFocusedWindow(space, ws); ok {
		t.Error("last focused not cleared")
	}
	if _, ok := m.FloatingPosition(space, ws, w); ok {
		t.Error("floating position not cleared")
	}
}

func TestRemoveWindowsForApp(t *testing.T) {
	m := newManager(2)
	ws, _ := m.ActiveWorkspace(space)
	for _, w := range []types.WindowID{wid(1, 1), wid(1, 2), wid(2, 1)} {
		m.AssignWindowToWorkspace(space, w, ws)
		m.StoreFloatingPosition(space, w, types.NewRect(0, 0, 10, 10))
	}
	m.RemoveWindowsForApp(1)
	if got := m.WindowsInWorkspace(space, ws); !slices.Equal(got, []types.WindowID{wid(2, 1)}) {
		t.Errorf("windows = %v, want only 2:1", got)
	}
	if got := m.WorkspaceFloatingPositions(space, ws); len(got) != 1 || got[0].Window != wid(2, 1) {
		t.Errorf("floating positions = %v", got)
	}
}

func TestFloatingPositions(t *testing.T) {
	m := newManager(2)
	ws1, _ := m.WorkspaceByIndex(space, 0)
	ws2, _ := m.WorkspaceByIndex(space, 1)
	a, b := wid(1, 1), wid(1, 2)

	m.StoreCurrentFloatingPositions(space, []layout.WindowFrame{
		{Window: b, Frame: types.NewRect(5, 5, 50, 50)},
		{Window: a, Frame: types.NewRect(1, 1, 10, 10)},
	})
	got := m.WorkspaceFloatingPositions(space, ws1)
	if len(got) != 2 || got[0].Window != a || got[1].Window != b {
		t.Errorf("WorkspaceFloatingPositions = %v, want a then b", got)
	}
	if _, ok := m.FloatingPosition(space, ws2, a); ok {
		t.Error("position leaked into another workspace")
	}

	if !m.MoveFloatingPosition(space, a, ws1, ws2) {
		t.Fatal("MoveFloatingPosition() = false, want true")
	}
	if r, ok := m.FloatingPosition(space, ws2, a); !ok || r != types.NewRect(1, 1, 10, 10) {
		t.Errorf("FloatingPosition(ws2) = %v, %v", r, ok)
	}
	if _, ok := m.FloatingPosition(space, ws1, a); ok {
		t.Error("position still stored in the source workspace")
	}
}

func TestCalculateHiddenPosition(t *testing.T) {
	screen := types.NewRect(0, 0, 1000, 800)
	size := types.Size{Width: 400, Height: 300}
	tests := []struct {
		name   string
		corner HideCorner
		bundle string
		want   types.Rect
	}{
		{"bottom right", BottomRight, "", types.NewRect(999, 799, 400, 300)},
		{"bottom left", BottomLeft, "com.example", types.NewRect(-399, 799, 400, 300)},
		{"zoom", BottomRight, "us.zoom.xos", types.NewRect(999, 800, 400, 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateHiddenPosition(screen, size, tt.corner, tt.bundle); got != tt.want {
				t.Errorf("CalculateHiddenPosition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	m := newManager(2)
	ws, _ := m.ActiveWorkspace(space)
	m.AssignWindowToWorkspace(space, wid(1, 1), ws)
	m.ListWorkspaces(2)

	s := m.Stats()
	if s.TotalWorkspaces != 4 || s.TotalWindows != 1 || s.ActiveSpaces != 2 {
		t.Errorf("Stats = %+v", s)
	}
	if s.WindowCounts[ws] != 1 {
		t.Errorf("WindowCounts[%v] = %d, want 1", ws, s.WindowCounts[ws])
	}
}

func TestSnapshotRestore(t *testing.T) {
	m := newManager(2, "Main", "Code")
	code, _ := m.WorkspaceByName(space, "Code")
	a, b := wid(1, 1), wid(2, 1)
	m.AssignWindowToWorkspace(space, a, code)
	m.AssignWindowToWorkspace(space, b, code)
	m.SetActiveWorkspace(space, code)
	m.SetLastFocusedWindow(space, code, &b)
	m.StoreFloatingPosition(space, a, types.NewRect(1, 2, 3, 4))

	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}

	restored := newManager(4)
	if err := restored.Restore(snap, func(w types.WindowID) bool { return w != b }); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := names(restored.ListWorkspaces(space)); !slices.Equal(got, []string{"Main", "Code"}) {
		t.Errorf("names = %v", got)
	}
	if got, _ := restored.ActiveWorkspace(space); got != code {
		t.Errorf("active = %v, want %v", got, code)
	}
	if got := restored.WindowsInWorkspace(space, code); !slices.Equal(got, []types.WindowID{a}) {
		t.Errorf("windows = %v, want only a", got)
	}
	if _, ok := restored.LastFocusedWindow(space, code); ok {
		t.Error("last focused points at a dropped window")
	}
	if r, ok := restored.FloatingPosition(space, code, a); !ok || r != types.NewRect(1, 2, 3, 4) {
		t.Errorf("floating position = %v, %v", r, ok)
	}
	created, _ := restored.CreateWorkspace(space, "")
	if created <= code {
		t.Errorf("new workspace id %v collides with restored ids", created)
	}
}
