package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/tiler/internal/types"
)

// State is the complete daemon state as returned by serialize
type State struct {
	Screens      []Screen        `json:"screens"`
	Engine       json.RawMessage `json:"engine,omitempty"`
	Workspaces   []Workspace     `json:"workspaces"`
	Windows      []Window        `json:"windows"`
	Applications []Application   `json:"applications"`
}

// Screen is a display and the space it shows; space 0 is unmanaged
type Screen struct {
	Frame types.Rect `json:"frame"`
	Space uint64     `json:"space"`
}

// Window represents a window known to the daemon
type Window struct {
	ID          types.WindowID `json:"id"`
	ServerID    *uint32        `json:"serverId,omitempty"`
	Title       string         `json:"title"`
	AppName     string         `json:"appName,omitempty"`
	BundleID    string         `json:"bundleId,omitempty"`
	Frame       types.Rect     `json:"frame"`
	Pending     *types.Rect    `json:"pendingFrame,omitempty"`
	Space       uint64         `json:"space,omitempty"`
	Workspace   uint64         `json:"workspace,omitempty"`
	IsFloating  bool           `json:"isFloating"`
	IsFocused   bool           `json:"isFocused"`
	IsMinimized bool           `json:"isMinimized,omitempty"`
	Manageable  bool           `json:"manageable"`
}

// FormatFrame returns the frame as "(x, y) wxh"
func (w *Window) FormatFrame() string {
	f := w.Frame
	return fmt.Sprintf("(%.0f, %.0f) %.0fx%.0f", f.X, f.Y, f.Width, f.Height)
}

// Mode is "floating", "tiled", "minimized" or "unmanaged"
func (w *Window) Mode() string {
	switch {
	case w.IsMinimized:
		return "minimized"
	case !w.Manageable:
		return "unmanaged"
	case w.IsFloating:
		return "floating"
	}
	return "tiled"
}

// Workspace is one virtual workspace of a space. Window frames of an
// inactive workspace are where the windows would be placed.
type Workspace struct {
	ID          uint64   `json:"id"`
	Space       uint64   `json:"space"`
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"isActive"`
	WindowCount int      `json:"windowCount"`
	Windows     []Window `json:"windows"`
}

type Application struct {
	Pid         int32  `json:"pid"`
	BundleID    string `json:"bundleId,omitempty"`
	Name        string `json:"name,omitempty"`
	WindowCount int    `json:"windowCount"`
	IsFrontmost bool   `json:"isFrontmost"`
	HasHandle   bool   `json:"hasHandle"`
}

// LayoutState describes the active layout of a space
type LayoutState struct {
	Space     uint64           `json:"space"`
	Workspace uint64           `json:"workspace"`
	Floating  []types.WindowID `json:"floating"`
	Tiled     []types.WindowID `json:"tiled"`
	Focused   *types.WindowID  `json:"focused,omitempty"`
	Selected  *types.WindowID  `json:"selected,omitempty"`
	Tree      string           `json:"tree,omitempty"`
}

type Counters struct {
	WindowsManaged int   `json:"windowsManaged"`
	Workspaces     int   `json:"workspaces"`
	Applications   int   `json:"applications"`
	Screens        int   `json:"screens"`
	EventsHandled  int64 `json:"eventsHandled"`
	EventPanics    int64 `json:"eventPanics"`
	FrameWrites    int64 `json:"frameWrites"`
	RaiseRequests  int64 `json:"raiseRequests"`
}

type Metrics struct {
	Windows         int      `json:"windows"`
	Manageable      int      `json:"manageable"`
	VisibleServer   int      `json:"visibleServerWindows"`
	Applications    int      `json:"applications"`
	Screens         int      `json:"screens"`
	Workspaces      int      `json:"workspaces"`
	TiledWindows    int      `json:"tiledWindows"`
	FloatingWindows int      `json:"floatingWindows"`
	Layouts         int      `json:"layouts"`
	InDrag          bool     `json:"inDrag"`
	MenuDepth       int      `json:"menuDepth"`
	MissionControl  bool     `json:"missionControl"`
	Counters        Counters `json:"counters"`
}

// ParseState decodes a serialize result
func ParseState(raw json.RawMessage) (*State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &s, nil
}

// FindWindow returns the window with id, or nil
func (s *State) FindWindow(id types.WindowID) *Window {
	for i := range s.Windows {
		if s.Windows[i].ID == id {
			return &s.Windows[i]
		}
	}
	return nil
}

// FindApplication returns the application with pid, or nil
func (s *State) FindApplication(pid int32) *Application {
	for i := range s.Applications {
		if s.Applications[i].Pid == pid {
			return &s.Applications[i]
		}
	}
	return nil
}

// ActiveWorkspace returns the active workspace of space, or nil
func (s *State) ActiveWorkspace(space uint64) *Workspace {
	for i := range s.Workspaces {
		if s.Workspaces[i].Space == space && s.Workspaces[i].IsActive {
			return &s.Workspaces[i]
		}
	}
	return nil
}

// WorkspacesOf returns the workspaces of space in index order
func (s *State) WorkspacesOf(space uint64) []Workspace {
	var out []Workspace
	for _, ws := range s.Workspaces {
		if ws.Space == space {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// VisibleWindows returns the windows showing on screen i: the active
// workspace's windows plus floating and unmanaged windows on its space.
func (s *State) VisibleWindows(i int) []Window {
	if i < 0 || i >= len(s.Screens) {
		return nil
	}
	space := s.Screens[i].Space
	active := make(map[types.WindowID]bool)
	if ws := s.ActiveWorkspace(space); ws != nil {
		for _, w := range ws.Windows {
			active[w.ID] = true
		}
	}
	var out []Window
	for _, w := range s.Windows {
		if w.Space != space || w.IsMinimized {
			continue
		}
		if active[w.ID] || w.Workspace == 0 {
			out = append(out, w)
		}
	}
	return out
}
