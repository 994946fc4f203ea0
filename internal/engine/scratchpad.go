package engine

import (
	"slices"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// Scratchpad keeps floating windows parked off screen until they are
// summoned. Unnamed toggles walk the windows in the order they were added.
type Scratchpad struct {
	windows []types.WindowID
	names   map[types.WindowID]string
	shown   map[types.WindowID]bool
}

// ScratchpadEntry is the persisted form of one scratchpad window.
type ScratchpadEntry struct {
	Window types.WindowID `json:"window"`
	Name   string         `json:"name,omitempty"`
}

func NewScratchpad() *Scratchpad {
	return &Scratchpad{
		names: make(map[types.WindowID]string),
		shown: make(map[types.WindowID]bool),
	}
}

func (s *Scratchpad) Contains(wid types.WindowID) bool {
	return slices.Contains(s.windows, wid)
}

// IsShown reports whether wid was summoned and not dismissed since
func (s *Scratchpad) IsShown(wid types.WindowID) bool { return s.shown[wid] }

func (s *Scratchpad) SetShown(wid types.WindowID, shown bool) {
	if !shown {
		delete(s.shown, wid)
		return
	}
	if s.Contains(wid) {
		s.shown[wid] = true
	}
}

// Add appends wid, or renames it when it is already present. An empty
// name keeps the old one.
func (s *Scratchpad) Add(wid types.WindowID, name string) {
	if !s.Contains(wid) {
		s.windows = append(s.windows, wid)
	}
	if name != "" {
		s.names[wid] = name
	}
}

func (s *Scratchpad) Remove(wid types.WindowID) {
	s.windows = slices.DeleteFunc(s.windows, func(w types.WindowID) bool { return w == wid })
	delete(s.names, wid)
	delete(s.shown, wid)
}

func (s *Scratchpad) RemoveForApp(pid types.Pid) {
	for _, wid := range slices.Clone(s.windows) {
		if wid.Pid == pid {
			s.Remove(wid)
		}
	}
}

// ByName returns the earliest added window carrying name
func (s *Scratchpad) ByName(name string) (types.WindowID, bool) {
	for _, wid := range s.windows {
		if s.names[wid] == name {
			return wid, true
		}
	}
	return types.WindowID{}, false
}

func (s *Scratchpad) Name(wid types.WindowID) (string, bool) {
	n, ok := s.names[wid]
	return n, ok
}

// Next returns the window an unnamed toggle summons
func (s *Scratchpad) Next() (types.WindowID, bool) {
	if len(s.windows) == 0 {
		return types.WindowID{}, false
	}
	return s.windows[0], true
}

// Cycle moves the front window to the back
func (s *Scratchpad) Cycle() {
	if len(s.windows) > 1 {
		s.windows = append(s.windows[1:], s.windows[0])
	}
}

func (s *Scratchpad) Windows() []types.WindowID { return slices.Clone(s.windows) }

func (s *Scratchpad) entries() []ScratchpadEntry {
	out := make([]ScratchpadEntry, 0, len(s.windows))
	for _, wid := range s.windows {
		out = append(out, ScratchpadEntry{Window: wid, Name: s.names[wid]})
	}
	return out
}

// IsScratchpadHidden reports whether wid is a parked scratchpad window
func (e *LayoutEngine) IsScratchpadHidden(wid types.WindowID) bool {
	return e.scratchpad.Contains(wid) && !e.scratchpad.IsShown(wid)
}

// Scratchpad exposes the scratchpad for read-only queries
func (e *LayoutEngine) Scratchpad() *Scratchpad { return e.scratchpad }

// sendToScratchpad floats the focused window of ws and parks it.
func (e *LayoutEngine) sendToScratchpad(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID, name string) EventResponse {
	wid, ok := e.focusedIn(space, ws, id)
	if !ok {
		return EventResponse{}
	}
	if !e.IsWindowFloating(wid) {
		if screen, ok := e.screens[space]; ok {
			for _, f := range e.tree.CalculateLayout(id, screen, e.opts) {
				if f.Window == wid {
					e.workspaces.StoreFloatingPosition(space, wid, f.Frame)
				}
			}
		}
		e.setFloating(id, wid)
	}
	e.scratchpad.Add(wid, name)
	e.scratchpad.SetShown(wid, false)
	key := layoutKey{space, ws}
	if e.floatingFocus[key] == wid {
		delete(e.floatingFocus, key)
	}
	if e.hasFocused && e.focused == wid {
		e.hasFocused = false
	}
	logging.Debug().Stringer("wid", wid).Str("name", name).Msg("window sent to scratchpad")

	if next, ok := e.tree.SelectedWindow(id); ok {
		return focusOn(next)
	}
	return EventResponse{}
}

// toggleScratchpad dismisses the scratchpad window when it is on screen
// and summons it onto ws otherwise. Without a name the focused scratchpad
// window is dismissed, or the next one in line is summoned.
func (e *LayoutEngine) toggleScratchpad(space types.SpaceID, ws types.WorkspaceID, id layout.LayoutID, name string) EventResponse {
	var wid types.WindowID
	switch {
	case name != "":
		w, ok := e.scratchpad.ByName(name)
		if !ok {
			logging.Debug().Str("name", name).Msg("no scratchpad window with that name")
			return EventResponse{}
		}
		wid = w
	case e.hasFocused && e.scratchpad.IsShown(e.focused):
		wid = e.focused
	default:
		w, ok := e.scratchpad.Next()
		if !ok {
			return EventResponse{}
		}
		wid = w
		e.scratchpad.Cycle()
	}

	key := layoutKey{space, ws}
	if e.scratchpad.IsShown(wid) && e.workspaces.IsWindowInActiveWorkspace(space, wid) {
		e.scratchpad.SetShown(wid, false)
		if e.floatingFocus[key] == wid {
			delete(e.floatingFocus, key)
		}
		if e.hasFocused && e.focused == wid {
			e.hasFocused = false
		}
		if next, ok := e.tree.SelectedWindow(id); ok {
			return focusOn(next)
		}
		return EventResponse{}
	}

	if from, ok := e.workspaces.WorkspaceForWindow(space, wid); ok && from != ws {
		e.workspaces.MoveFloatingPosition(space, wid, from, ws)
	}
	if !e.workspaces.AssignWindowToWorkspace(space, wid, ws) {
		return EventResponse{}
	}
	if _, ok := e.workspaces.FloatingPosition(space, ws, wid); !ok {
		if screen, ok := e.screens[space]; ok {
			e.workspaces.StoreFloatingPosition(space, wid, centeredIn(screen))
		}
	}
	e.scratchpad.SetShown(wid, true)
	e.floatingFocus[key] = wid
	logging.Debug().Stringer("wid", wid).Uint64("ws", uint64(ws)).Msg("scratchpad window summoned")
	return focusOn(wid)
}

// centeredIn is the frame a summoned window without a remembered position
// gets: half the screen, centered.
func centeredIn(screen types.Rect) types.Rect {
	return types.NewRect(screen.X+screen.Width/4, screen.Y+screen.Height/4, screen.Width/2, screen.Height/2).Round()
}
