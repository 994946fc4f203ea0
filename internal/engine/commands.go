package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/types"
)

// ErrUnknownCommand is returned by ParseCommand for names it does not know.
var ErrUnknownCommand = errors.New("unknown layout command")

// LayoutCommand is a user command against the layout of a space.
type LayoutCommand interface {
	Name() string
}

type (
	MoveFocus         struct{ Direction types.Direction }
	NextWindow        struct{}
	PrevWindow        struct{}
	Ascend            struct{}
	Descend           struct{}
	MoveNode          struct{ Direction types.Direction }
	JoinWindow        struct{ Direction types.Direction }
	Stack             struct{}
	Unstack           struct{}
	Unjoin            struct{}
	ToggleOrientation struct{}
	ToggleFullscreen  struct{}
	Rebalance         struct{}
	ResizeGrow        struct{}
	ResizeShrink      struct{}
	ResizeCustom      struct{ Delta layout.ResizeDelta }
	ToggleFloat       struct{}
	ToggleFocusFloat  struct{}
	SwapWindows       struct{ A, B types.WindowID }
	Split             struct{ Orientation types.Orientation }
	SendToScratchpad  struct{ Label string }
	ToggleScratchpad  struct{ Label string }
)

// Workspace commands are routed to HandleVirtualWorkspaceCommand.
type (
	NextWorkspace         struct{ SkipEmpty bool }
	PrevWorkspace         struct{ SkipEmpty bool }
	SwitchToWorkspace     struct{ Index int }
	SwitchToLastWorkspace struct{}
	MoveWindowToWorkspace struct{ Index int }
	CreateWorkspace       struct{ Label string }
	RenameWorkspace       struct {
		Index int
		Label string
	}
)

func (MoveFocus) Name() string             { return "move_focus" }
func (NextWindow) Name() string            { return "next_window" }
func (PrevWindow) Name() string            { return "prev_window" }
func (Ascend) Name() string                { return "ascend" }
func (Descend) Name() string               { return "descend" }
func (MoveNode) Name() string              { return "move_node" }
func (JoinWindow) Name() string            { return "join_window" }
func (Stack) Name() string                 { return "stack" }
func (Unstack) Name() string               { return "unstack" }
func (Unjoin) Name() string                { return "unjoin" }
func (ToggleOrientation) Name() string     { return "toggle_orientation" }
func (ToggleFullscreen) Name() string      { return "toggle_fullscreen" }
func (Rebalance) Name() string             { return "rebalance" }
func (ResizeGrow) Name() string            { return "resize_grow" }
func (ResizeShrink) Name() string          { return "resize_shrink" }
func (ResizeCustom) Name() string          { return "resize_custom" }
func (ToggleFloat) Name() string           { return "toggle_float" }
func (ToggleFocusFloat) Name() string      { return "toggle_focus_float" }
func (SwapWindows) Name() string           { return "swap_windows" }
func (Split) Name() string                 { return "split" }
func (SendToScratchpad) Name() string      { return "send_to_scratchpad" }
func (ToggleScratchpad) Name() string      { return "toggle_scratchpad" }
func (NextWorkspace) Name() string         { return "next_workspace" }
func (PrevWorkspace) Name() string         { return "prev_workspace" }
func (SwitchToWorkspace) Name() string     { return "switch_to_workspace" }
func (SwitchToLastWorkspace) Name() string { return "switch_to_last_workspace" }
func (MoveWindowToWorkspace) Name() string { return "move_window_to_workspace" }
func (CreateWorkspace) Name() string       { return "create_workspace" }
func (RenameWorkspace) Name() string       { return "rename_workspace" }

// IsWorkspaceCommand reports whether cmd acts on virtual workspaces rather
// than on a layout tree.
func IsWorkspaceCommand(cmd LayoutCommand) bool {
	switch cmd.(type) {
	case NextWorkspace, PrevWorkspace, SwitchToWorkspace, SwitchToLastWorkspace,
		MoveWindowToWorkspace, CreateWorkspace, RenameWorkspace:
		return true
	}
	return false
}

// IsWorkspaceSwitch reports whether cmd changes the active workspace
func IsWorkspaceSwitch(cmd LayoutCommand) bool {
	switch cmd.(type) {
	case NextWorkspace, PrevWorkspace, SwitchToWorkspace, SwitchToLastWorkspace:
		return true
	}
	return false
}

// CommandNames lists every name ParseCommand accepts
func CommandNames() []string {
	return []string{
		"move_focus", "next_window", "prev_window", "ascend", "descend", "move_node", "join_window",
		"stack", "unstack", "unjoin", "toggle_orientation", "toggle_fullscreen", "rebalance",
		"resize_grow", "resize_shrink", "resize_custom", "toggle_float", "toggle_focus_float",
		"swap_windows", "split", "send_to_scratchpad", "toggle_scratchpad", "next_workspace", "prev_workspace", "switch_to_workspace",
		"switch_to_last_workspace", "move_window_to_workspace", "create_workspace", "rename_workspace",
	}
}

// ParseCommand builds a command from its name and positional arguments, as
// typed on the command line:
//
//	move_focus left
//	switch_to_workspace 2
//	resize_custom 40 -10% [exact] [top-left]
//	swap_windows 123:1 123:2
//	toggle_scratchpad [name]
func ParseCommand(name string, args []string) (LayoutCommand, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}
	dir := func() (types.Direction, error) {
		if err := need(1); err != nil {
			return 0, err
		}
		d, ok := types.ParseDirection(strings.ToLower(args[0]))
		if !ok {
			return 0, fmt.Errorf("invalid direction %q (expected left, right, up, down)", args[0])
		}
		return d, nil
	}
	index := func() (int, error) {
		if err := need(1); err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid workspace index %q", args[0])
		}
		return i, nil
	}
	skipEmpty := func() (bool, error) {
		if len(args) == 0 {
			return false, nil
		}
		return strconv.ParseBool(args[0])
	}

	switch name {
	case "move_focus":
		d, err := dir()
		return MoveFocus{d}, err
	case "next_window":
		return NextWindow{}, nil
	case "prev_window":
		return PrevWindow{}, nil
	case "ascend":
		return Ascend{}, nil
	case "descend":
		return Descend{}, nil
	case "move_node":
		d, err := dir()
		return MoveNode{d}, err
	case "join_window":
		d, err := dir()
		return JoinWindow{d}, err
	case "stack":
		return Stack{}, nil
	case "unstack":
		return Unstack{}, nil
	case "unjoin":
		return Unjoin{}, nil
	case "toggle_orientation":
		return ToggleOrientation{}, nil
	case "toggle_fullscreen":
		return ToggleFullscreen{}, nil
	case "rebalance":
		return Rebalance{}, nil
	case "resize_grow":
		return ResizeGrow{}, nil
	case "resize_shrink":
		return ResizeShrink{}, nil
	case "resize_custom":
		delta, err := parseResizeArgs(args)
		return ResizeCustom{delta}, err
	case "toggle_float":
		return ToggleFloat{}, nil
	case "toggle_focus_float":
		return ToggleFocusFloat{}, nil
	case "swap_windows":
		if err := need(2); err != nil {
			return nil, err
		}
		a, err := types.ParseWindowID(args[0])
		if err != nil {
			return nil, err
		}
		b, err := types.ParseWindowID(args[1])
		if err != nil {
			return nil, err
		}
		return SwapWindows{a, b}, nil
	case "split":
		if err := need(1); err != nil {
			return nil, err
		}
		switch strings.ToLower(args[0]) {
		case "horizontal", "h":
			return Split{types.Horizontal}, nil
		case "vertical", "v":
			return Split{types.Vertical}, nil
		}
		return nil, fmt.Errorf("invalid orientation %q (expected horizontal or vertical)", args[0])
	case "send_to_scratchpad":
		return SendToScratchpad{Label: strings.Join(args, " ")}, nil
	case "toggle_scratchpad":
		return ToggleScratchpad{Label: strings.Join(args, " ")}, nil
	case "next_workspace":
		s, err := skipEmpty()
		return NextWorkspace{s}, err
	case "prev_workspace":
		s, err := skipEmpty()
		return PrevWorkspace{s}, err
	case "switch_to_workspace":
		i, err := index()
		return SwitchToWorkspace{i}, err
	case "switch_to_last_workspace":
		return SwitchToLastWorkspace{}, nil
	case "move_window_to_workspace":
		i, err := index()
		return MoveWindowToWorkspace{i}, err
	case "create_workspace":
		return CreateWorkspace{Label: strings.Join(args, " ")}, nil
	case "rename_workspace":
		i, err := index()
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("rename_workspace needs a name")
		}
		return RenameWorkspace{Index: i, Label: strings.Join(args[1:], " ")}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func parseResizeArgs(args []string) (layout.ResizeDelta, error) {
	var d layout.ResizeDelta
	if len(args) < 2 {
		return d, fmt.Errorf("resize_custom needs x and y values")
	}
	var err error
	if d.X, err = layout.ParseResizeValue(args[0]); err != nil {
		return d, err
	}
	if d.Y, err = layout.ParseResizeValue(args[1]); err != nil {
		return d, err
	}
	for _, a := range args[2:] {
		switch a = strings.ToLower(a); a {
		case "exact":
			d.Mode = layout.ResizeExact
		case "relative":
			d.Mode = layout.ResizeRelative
		default:
			c, ok := layout.ParseResizeCorner(a)
			if !ok {
				return d, fmt.Errorf("invalid resize option %q", a)
			}
			d.Corner = c
		}
	}
	return d, nil
}
