package engine

import (
	"slices"

	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// LayoutEvent is a semantic change the reactor reports to the engine.
type LayoutEvent interface {
	layoutEvent()
}

// WindowAdded reports a new manageable window on space. Info feeds the app
// rules.
type WindowAdded struct {
	Space  types.SpaceID
	Window types.WindowID
	Info   workspace.WindowInfo
}

type WindowRemoved struct {
	Window types.WindowID
}

// ScreenFrame is a screen and the space it currently shows.
type ScreenFrame struct {
	Frame types.Rect
	Space types.SpaceID
}

// WindowResized reports a user resize.
type WindowResized struct {
	Window  types.WindowID
	Old     types.Rect
	New     types.Rect
	Screens []ScreenFrame
}

// WindowMeta is what the engine needs to know about a visible window.
type WindowMeta struct {
	Window  types.WindowID
	Title   string
	Role    string
	Subrole string
}

// AppInfo identifies an application for rule matching.
type AppInfo struct {
	BundleID string
	Name     string
}

// WindowsOnScreenUpdated lists every visible manageable window of pid on
// space. Windows of pid missing from the list leave that space's layouts.
type WindowsOnScreenUpdated struct {
	Space   types.SpaceID
	Pid     types.Pid
	Windows []WindowMeta
	App     *AppInfo
}

type WindowFocused struct {
	Spaces []types.SpaceID
	Window types.WindowID
}

// SpaceExposed reports that space is shown on a screen with the given
// frame. Layouts are keyed by the frame's size.
type SpaceExposed struct {
	Space types.SpaceID
	Frame types.Rect
}

type AppClosed struct {
	Pid types.Pid
}

func (WindowAdded) layoutEvent()            {}
func (WindowRemoved) layoutEvent()          {}
func (WindowResized) layoutEvent()          {}
func (WindowsOnScreenUpdated) layoutEvent() {}
func (WindowFocused) layoutEvent()          {}
func (SpaceExposed) layoutEvent()           {}
func (AppClosed) layoutEvent()              {}

// EventResponse tells the reactor which windows to raise and which one to
// focus after a command or event.
type EventResponse struct {
	RaiseWindows []types.WindowID `json:"raiseWindows,omitempty"`
	FocusWindow  *types.WindowID  `json:"focusWindow,omitempty"`
}

// IsEmpty reports whether the response asks for nothing
func (r EventResponse) IsEmpty() bool {
	return len(r.RaiseWindows) == 0 && r.FocusWindow == nil
}

func focusOn(wid types.WindowID, raise ...types.WindowID) EventResponse {
	raise = slices.DeleteFunc(slices.Clone(raise), func(w types.WindowID) bool { return w == wid })
	return EventResponse{RaiseWindows: raise, FocusWindow: &wid}
}
