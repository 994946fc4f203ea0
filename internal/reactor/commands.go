package reactor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/tiler/internal/types"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrUnknownCommand = errors.New("unknown reactor command")
	ErrUnknownQuery   = errors.New("unknown query")
	ErrSpaceNotFound  = errors.New("space not found")
	ErrNoHandle       = errors.New("no handle for application")
	ErrClosed         = errors.New("reactor stopped")
)

// Command acts on the reactor rather than on a layout.
type Command interface {
	Name() string
}

type (
	Debug       struct{}
	Serialize   struct{}
	SaveAndExit struct{}
	SwitchSpace struct{ Direction types.Direction }
	// FocusWindow raises and focuses a window. ServerID is used when the
	// reactor does not know the window yet.
	FocusWindow struct {
		Window   types.WindowID
		ServerID *types.WindowServerID
	}
	SetMissionControlActive struct{ Active bool }
)

func (Debug) Name() string                   { return "debug" }
func (Serialize) Name() string               { return "serialize" }
func (SaveAndExit) Name() string             { return "save_and_exit" }
func (SwitchSpace) Name() string             { return "switch_space" }
func (FocusWindow) Name() string             { return "focus_window" }
func (SetMissionControlActive) Name() string { return "set_mission_control_active" }

// CommandNames lists every name ParseCommand accepts
func CommandNames() []string {
	return []string{"debug", "serialize", "save_and_exit", "switch_space", "focus_window", "set_mission_control_active"}
}

// ParseCommand builds a reactor command from its name and arguments:
//
//	switch_space left
//	focus_window 123:4 [server-id]
//	set_mission_control_active true
func ParseCommand(name string, args []string) (Command, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "debug":
		return Debug{}, nil
	case "serialize":
		return Serialize{}, nil
	case "save_and_exit":
		return SaveAndExit{}, nil
	case "switch_space":
		if err := need(1); err != nil {
			return nil, err
		}
		d, ok := types.ParseDirection(strings.ToLower(args[0]))
		if !ok {
			return nil, fmt.Errorf("invalid direction %q", args[0])
		}
		return SwitchSpace{d}, nil
	case "focus_window":
		if err := need(1); err != nil {
			return nil, err
		}
		wid, err := types.ParseWindowID(args[0])
		if err != nil {
			return nil, err
		}
		cmd := FocusWindow{Window: wid}
		if len(args) > 1 {
			n, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid window server id %q", args[1])
			}
			sid := types.WindowServerID(n)
			cmd.ServerID = &sid
		}
		return cmd, nil
	case "set_mission_control_active":
		if err := need(1); err != nil {
			return nil, err
		}
		on, err := strconv.ParseBool(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", args[0])
		}
		return SetMissionControlActive{on}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
