// Package mainwindow follows which app is frontmost and which window each
// app reports as its main window.
package mainwindow

import (
	"github.com/yourusername/tiler/internal/types"
)

// Event is an app lifecycle change the tracker cares about.
type Event interface{ mainWindowEvent() }

type (
	AppLaunched struct {
		Pid        types.Pid
		Frontmost  bool
		MainWindow *types.WindowID
	}
	AppGloballyActivated   struct{ Pid types.Pid }
	AppGloballyDeactivated struct{ Pid types.Pid }
	AppTerminated          struct{ Pid types.Pid }
	// MainWindowChanged carries nil when the app has no main window.
	MainWindowChanged struct {
		Pid    types.Pid
		Window *types.WindowID
		Quiet  bool
	}
	WindowDestroyed struct{ Window types.WindowID }
)

func (AppLaunched) mainWindowEvent()            {}
func (AppGloballyActivated) mainWindowEvent()   {}
func (AppGloballyDeactivated) mainWindowEvent() {}
func (AppTerminated) mainWindowEvent()          {}
func (MainWindowChanged) mainWindowEvent()      {}
func (WindowDestroyed) mainWindowEvent()        {}

// Tracker is not safe for concurrent use; the reactor owns it.
type Tracker struct {
	main      map[types.Pid]types.WindowID
	frontmost types.Pid
	hasFront  bool
}

func New() *Tracker {
	return &Tracker{main: make(map[types.Pid]types.WindowID)}
}

// HandleEvent updates the tracker. It returns the window the user just
// raised, if the event means one: the frontmost app changed its main
// window, or an app with a known main window came to the front.
func (t *Tracker) HandleEvent(ev Event) (types.WindowID, bool) {
	switch ev := ev.(type) {
	case AppLaunched:
		if ev.MainWindow != nil {
			t.main[ev.Pid] = *ev.MainWindow
		}
		if ev.Frontmost {
			t.setFrontmost(ev.Pid)
		}
		return types.WindowID{}, false

	case AppGloballyActivated:
		t.setFrontmost(ev.Pid)
		return t.raised(ev.Pid, false)

	case AppGloballyDeactivated:
		if t.hasFront && t.frontmost == ev.Pid {
			t.hasFront = false
		}

	case AppTerminated:
		delete(t.main, ev.Pid)
		if t.hasFront && t.frontmost == ev.Pid {
			t.hasFront = false
		}

	case MainWindowChanged:
		if ev.Window == nil {
			delete(t.main, ev.Pid)
			return types.WindowID{}, false
		}
		if cur, ok := t.main[ev.Pid]; ok && cur == *ev.Window {
			return types.WindowID{}, false
		}
		t.main[ev.Pid] = *ev.Window
		return t.raised(ev.Pid, ev.Quiet)

	case WindowDestroyed:
		if cur, ok := t.main[ev.Window.Pid]; ok && cur == ev.Window {
			delete(t.main, ev.Window.Pid)
		}
	}
	return types.WindowID{}, false
}

func (t *Tracker) setFrontmost(pid types.Pid) {
	t.frontmost = pid
	t.hasFront = true
}

func (t *Tracker) raised(pid types.Pid, quiet bool) (types.WindowID, bool) {
	if quiet || !t.hasFront || t.frontmost != pid {
		return types.WindowID{}, false
	}
	wid, ok := t.main[pid]
	return wid, ok
}

// MainWindow is the main window of the frontmost app.
func (t *Tracker) MainWindow() (types.WindowID, bool) {
	if !t.hasFront {
		return types.WindowID{}, false
	}
	wid, ok := t.main[t.frontmost]
	return wid, ok
}

// MainWindowOf returns the main window pid last reported
func (t *Tracker) MainWindowOf(pid types.Pid) (types.WindowID, bool) {
	wid, ok := t.main[pid]
	return wid, ok
}

func (t *Tracker) FrontmostPid() (types.Pid, bool) {
	return t.frontmost, t.hasFront
}
