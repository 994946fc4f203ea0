package reactor

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/types"
)

// Event is anything delivered to the reactor mailbox.
type Event interface {
	eventName() string
}

// AppInfo describes a running application.
type AppInfo struct {
	BundleID string `json:"bundleId,omitempty"`
	Name     string `json:"name,omitempty"`
	Path     string `json:"path,omitempty"`
}

// WindowInfo is what an app actor reports about one of its windows.
type WindowInfo struct {
	Title       string                `json:"title"`
	Frame       types.Rect            `json:"frame"`
	IsStandard  bool                  `json:"isStandard"`
	IsRoot      bool                  `json:"isRoot"`
	IsMinimized bool                  `json:"isMinimized,omitempty"`
	ServerID    *types.WindowServerID `json:"serverId,omitempty"`
	BundleID    string                `json:"bundleId,omitempty"`
	Path        string                `json:"path,omitempty"`
	Role        string                `json:"role,omitempty"`
	Subrole     string                `json:"subrole,omitempty"`
}

// ReportedWindow pairs a window id with its info.
type ReportedWindow struct {
	Window types.WindowID `json:"window"`
	Info   WindowInfo     `json:"info"`
}

// WindowServerInfo is the window server's view of a window.
type WindowServerInfo struct {
	ID     types.WindowServerID `json:"id"`
	Pid    types.Pid            `json:"pid"`
	Layer  int                  `json:"layer"`
	Frame  types.Rect           `json:"frame"`
	Sticky bool                 `json:"sticky,omitempty"`
}

// Screen events. A zero space means the screen is not managed.
type (
	ScreenParametersChanged struct {
		Frames  []types.Rect       `json:"frames"`
		Spaces  []types.SpaceID    `json:"spaces"`
		Windows []WindowServerInfo `json:"windows"`
	}
	SpaceChanged struct {
		Spaces  []types.SpaceID    `json:"spaces"`
		Windows []WindowServerInfo `json:"windows"`
	}
)

// Application events.
type (
	ApplicationLaunched struct {
		Pid        types.Pid          `json:"pid"`
		Info       AppInfo            `json:"info"`
		Frontmost  bool               `json:"frontmost,omitempty"`
		MainWindow *types.WindowID    `json:"mainWindow,omitempty"`
		Windows    []ReportedWindow   `json:"windows"`
		Server     []WindowServerInfo `json:"server,omitempty"`
	}
	ApplicationTerminated          struct{ Pid types.Pid `json:"pid"` }
	ApplicationThreadTerminated    struct{ Pid types.Pid `json:"pid"` }
	ApplicationActivated           struct{ Pid types.Pid `json:"pid"` }
	ApplicationDeactivated         struct{ Pid types.Pid `json:"pid"` }
	ApplicationGloballyActivated   struct{ Pid types.Pid `json:"pid"` }
	ApplicationGloballyDeactivated struct{ Pid types.Pid `json:"pid"` }
	ApplicationMainWindowChanged   struct {
		Pid    types.Pid       `json:"pid"`
		Window *types.WindowID `json:"window,omitempty"`
		Quiet  bool            `json:"quiet,omitempty"`
	}
	// ApplyAppRulesToExistingWindows assigns windows that were already on
	// screen when the app became known.
	ApplyAppRulesToExistingWindows struct {
		Pid     types.Pid          `json:"pid"`
		Info    AppInfo            `json:"info"`
		Windows []WindowServerInfo `json:"windows"`
	}
)

// Window events.
type (
	// WindowsDiscovered carries new windows of pid and the windows the app
	// believes are visible.
	WindowsDiscovered struct {
		Pid          types.Pid        `json:"pid"`
		New          []ReportedWindow `json:"new"`
		KnownVisible []types.WindowID `json:"knownVisible"`
	}
	WindowCreated struct {
		Window    types.WindowID    `json:"window"`
		Info      WindowInfo        `json:"info"`
		Server    *WindowServerInfo `json:"server,omitempty"`
		MouseDown bool              `json:"mouseDown,omitempty"`
	}
	WindowDestroyed struct {
		Window types.WindowID `json:"window"`
	}
	// WindowFrameChanged reports a new frame. LastSeen is the newest
	// transaction the app had applied, zero before any. Requested marks
	// changes caused by our own writes.
	WindowFrameChanged struct {
		Window    types.WindowID      `json:"window"`
		Frame     types.Rect          `json:"frame"`
		LastSeen  types.TransactionID `json:"lastSeen,omitempty"`
		Requested bool                `json:"requested,omitempty"`
		MouseDown bool                `json:"mouseDown,omitempty"`
	}
	WindowMinimized      struct{ Window types.WindowID `json:"window"` }
	WindowDeminiaturized struct{ Window types.WindowID `json:"window"` }
	WindowTitleChanged   struct {
		Window types.WindowID `json:"window"`
		Title  string         `json:"title"`
	}
	WindowServerAppeared struct {
		Info WindowServerInfo `json:"info"`
	}
	WindowServerDestroyed struct {
		ID types.WindowServerID `json:"id"`
	}
)

// Input and system events.
type (
	MenuOpened            struct{}
	MenuClosed            struct{}
	MouseUp               struct{}
	MouseMovedOverWindow  struct{ ID types.WindowServerID `json:"id"` }
	SystemWoke            struct{}
	MissionControlEntered struct{}
	MissionControlExited  struct{}
	RaiseCompleted        struct {
		Window   types.WindowID `json:"window"`
		Sequence uint64         `json:"sequence"`
	}
	RaiseTimeout struct {
		Sequence uint64 `json:"sequence"`
	}
)

// LayoutCommand runs a layout or workspace command.
type LayoutCommand struct {
	Command engine.LayoutCommand
}

// ReactorCommand runs a command that acts on the reactor itself.
type ReactorCommand struct {
	Command Command
}

// ConfigUpdated swaps in a new configuration.
type ConfigUpdated struct {
	Config *config.Config
}

// Query asks for a read-only snapshot. The reply channel must be buffered.
type Query struct {
	Request QueryRequest
	Reply   chan<- QueryResult
}

func (ScreenParametersChanged) eventName() string        { return "screenParametersChanged" }
func (SpaceChanged) eventName() string                   { return "spaceChanged" }
func (ApplicationLaunched) eventName() string            { return "applicationLaunched" }
func (ApplicationTerminated) eventName() string          { return "applicationTerminated" }
func (ApplicationThreadTerminated) eventName() string    { return "applicationThreadTerminated" }
func (ApplicationActivated) eventName() string           { return "applicationActivated" }
func (ApplicationDeactivated) eventName() string         { return "applicationDeactivated" }
func (ApplicationGloballyActivated) eventName() string   { return "applicationGloballyActivated" }
func (ApplicationGloballyDeactivated) eventName() string { return "applicationGloballyDeactivated" }
func (ApplicationMainWindowChanged) eventName() string   { return "applicationMainWindowChanged" }
func (ApplyAppRulesToExistingWindows) eventName() string { return "applyAppRulesToExistingWindows" }
func (WindowsDiscovered) eventName() string              { return "windowsDiscovered" }
func (WindowCreated) eventName() string                  { return "windowCreated" }
func (WindowDestroyed) eventName() string                { return "windowDestroyed" }
func (WindowFrameChanged) eventName() string             { return "windowFrameChanged" }
func (WindowMinimized) eventName() string                { return "windowMinimized" }
func (WindowDeminiaturized) eventName() string           { return "windowDeminiaturized" }
func (WindowTitleChanged) eventName() string             { return "windowTitleChanged" }
func (WindowServerAppeared) eventName() string           { return "windowServerAppeared" }
func (WindowServerDestroyed) eventName() string          { return "windowServerDestroyed" }
func (MenuOpened) eventName() string                     { return "menuOpened" }
func (MenuClosed) eventName() string                     { return "menuClosed" }
func (MouseUp) eventName() string                        { return "mouseUp" }
func (MouseMovedOverWindow) eventName() string           { return "mouseMovedOverWindow" }
func (SystemWoke) eventName() string                     { return "systemWoke" }
func (MissionControlEntered) eventName() string          { return "missionControlEntered" }
func (MissionControlExited) eventName() string           { return "missionControlExited" }
func (RaiseCompleted) eventName() string                 { return "raiseCompleted" }
func (RaiseTimeout) eventName() string                   { return "raiseTimeout" }
func (LayoutCommand) eventName() string                  { return "layoutCommand" }
func (ReactorCommand) eventName() string                 { return "reactorCommand" }
func (ConfigUpdated) eventName() string                  { return "configUpdated" }
func (Query) eventName() string                          { return "query" }

// EventName returns the wire name of ev
func EventName(ev Event) string { return ev.eventName() }

// injectable lists the events an external collaborator may send.
var injectable = map[string]func() Event{
	"screenParametersChanged":        func() Event { return &ScreenParametersChanged{} },
	"spaceChanged":                   func() Event { return &SpaceChanged{} },
	"applicationLaunched":            func() Event { return &ApplicationLaunched{} },
	"applicationTerminated":          func() Event { return &ApplicationTerminated{} },
	"applicationThreadTerminated":    func() Event { return &ApplicationThreadTerminated{} },
	"applicationActivated":           func() Event { return &ApplicationActivated{} },
	"applicationDeactivated":         func() Event { return &ApplicationDeactivated{} },
	"applicationGloballyActivated":   func() Event { return &ApplicationGloballyActivated{} },
	"applicationGloballyDeactivated": func() Event { return &ApplicationGloballyDeactivated{} },
	"applicationMainWindowChanged":   func() Event { return &ApplicationMainWindowChanged{} },
	"applyAppRulesToExistingWindows": func() Event { return &ApplyAppRulesToExistingWindows{} },
	"windowsDiscovered":              func() Event { return &WindowsDiscovered{} },
	"windowCreated":                  func() Event { return &WindowCreated{} },
	"windowDestroyed":                func() Event { return &WindowDestroyed{} },
	"windowFrameChanged":             func() Event { return &WindowFrameChanged{} },
	"windowMinimized":                func() Event { return &WindowMinimized{} },
	"windowDeminiaturized":           func() Event { return &WindowDeminiaturized{} },
	"windowTitleChanged":             func() Event { return &WindowTitleChanged{} },
	"windowServerAppeared":           func() Event { return &WindowServerAppeared{} },
	"windowServerDestroyed":          func() Event { return &WindowServerDestroyed{} },
	"menuOpened":                     func() Event { return &MenuOpened{} },
	"menuClosed":                     func() Event { return &MenuClosed{} },
	"mouseUp":                        func() Event { return &MouseUp{} },
	"mouseMovedOverWindow":           func() Event { return &MouseMovedOverWindow{} },
	"systemWoke":                     func() Event { return &SystemWoke{} },
	"missionControlEntered":          func() Event { return &MissionControlEntered{} },
	"missionControlExited":           func() Event { return &MissionControlExited{} },
	"raiseCompleted":                 func() Event { return &RaiseCompleted{} },
	"raiseTimeout":                   func() Event { return &RaiseTimeout{} },
}

// InjectableEvents returns the names DecodeEvent accepts, sorted.
func InjectableEvents() []string {
	names := make([]string, 0, len(injectable))
	for name := range injectable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type taggedEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses {"type": name, "data": {...}} into an inbound event.
func DecodeEvent(raw []byte) (Event, error) {
	var tagged taggedEvent
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	mk, ok := injectable[tagged.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tagged.Type)
	}
	ptr := mk()
	if len(tagged.Data) > 0 && string(tagged.Data) != "null" {
		if err := json.Unmarshal(tagged.Data, ptr); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tagged.Type, err)
		}
	}
	return deref(ptr), nil
}

// deref turns the decoded pointer back into the value type the reactor
// switches on.
func deref(ev Event) Event {
	switch ev := ev.(type) {
	case *ScreenParametersChanged:
		return *ev
	case *SpaceChanged:
		return *ev
	case *ApplicationLaunched:
		return *ev
	case *ApplicationTerminated:
		return *ev
	case *ApplicationThreadTerminated:
		return *ev
	case *ApplicationActivated:
		return *ev
	case *ApplicationDeactivated:
		return *ev
	case *ApplicationGloballyActivated:
		return *ev
	case *ApplicationGloballyDeactivated:
		return *ev
	case *ApplicationMainWindowChanged:
		return *ev
	case *ApplyAppRulesToExistingWindows:
		return *ev
	case *WindowsDiscovered:
		return *ev
	case *WindowCreated:
		return *ev
	case *WindowDestroyed:
		return *ev
	case *WindowFrameChanged:
		return *ev
	case *WindowMinimized:
		return *ev
	case *WindowDeminiaturized:
		return *ev
	case *WindowTitleChanged:
		return *ev
	case *WindowServerAppeared:
		return *ev
	case *WindowServerDestroyed:
		return *ev
	case *MenuOpened:
		return *ev
	case *MenuClosed:
		return *ev
	case *MouseUp:
		return *ev
	case *MouseMovedOverWindow:
		return *ev
	case *SystemWoke:
		return *ev
	case *MissionControlEntered:
		return *ev
	case *MissionControlExited:
		return *ev
	case *RaiseCompleted:
		return *ev
	case *RaiseTimeout:
		return *ev
	}
	return ev
}
