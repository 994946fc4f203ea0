package layout

import (
	"fmt"
	"strings"

	"github.com/yourusername/tiler/internal/types"
)

// Mode names a tiling algorithm.
type Mode string

const (
	// ModeTraditional tiles n-ary split and stack containers (i3 style)
	ModeTraditional Mode = "traditional"
	// ModeBSP tiles a binary tree, each split holding exactly two nodes
	ModeBSP Mode = "bsp"
)

// ParseMode accepts a mode name case-insensitively. The empty string is
// the traditional mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTraditional:
		return ModeTraditional, true
	case ModeBSP:
		return ModeBSP, true
	}
	return "", false
}

// Tiler owns the layout trees of one tiling algorithm. Layouts are
// addressed by id; a window may be present in several layouts at once.
type Tiler interface {
	Mode() Mode

	CreateLayout() LayoutID
	CloneLayout(id LayoutID) LayoutID
	RemoveLayout(id LayoutID)
	Exists(id LayoutID) bool
	LayoutIDs() []LayoutID

	SelectedWindow(id LayoutID) (types.WindowID, bool)
	SelectWindow(id LayoutID, wid types.WindowID) bool
	ContainsWindow(id LayoutID, wid types.WindowID) bool
	Windows(id LayoutID) []types.WindowID
	VisibleWindows(id LayoutID) []types.WindowID
	HasWindowsForApp(id LayoutID, pid types.Pid) bool

	AddWindowAfterSelection(id LayoutID, wid types.WindowID)
	InsertWindowNextTo(id LayoutID, wid, anchor types.WindowID, before bool) bool
	RemoveWindow(wid types.WindowID)
	RemoveWindowsForApp(pid types.Pid)
	SetWindowsForApp(id LayoutID, pid types.Pid, desired []types.WindowID)

	MoveFocus(id LayoutID, dir types.Direction) (types.WindowID, bool, []types.WindowID)
	CycleWindow(id LayoutID, forward bool) (types.WindowID, bool, []types.WindowID)
	Ascend(id LayoutID) bool
	Descend(id LayoutID) bool
	MoveSelection(id LayoutID, dir types.Direction) bool
	SwapWindows(id LayoutID, a, b types.WindowID) bool

	Split(id LayoutID, o types.Orientation) bool
	JoinSelection(id LayoutID, dir types.Direction) bool
	Unjoin(id LayoutID) bool
	ToggleStack(id LayoutID) []types.WindowID
	Unstack(id LayoutID) []types.WindowID
	ToggleOrientation(id LayoutID) bool
	ToggleFullscreen(id LayoutID) []types.WindowID
	IsFullscreen(id LayoutID, wid types.WindowID) bool

	ResizeSelectionBy(id LayoutID, amount float64) bool
	ResizeSelection(id LayoutID, delta ResizeDelta, current, screen types.Rect) bool
	OnWindowResized(id LayoutID, wid types.WindowID, oldFrame, newFrame, screen types.Rect)
	Rebalance(id LayoutID)

	CalculateLayout(id LayoutID, screen types.Rect, opts FrameOptions) []WindowFrame
	Draw(id LayoutID) string
	Snapshot() SystemSnapshot
}

// SlotKeeper is implemented by tilers that can put a removed window back
// into the exact position it was taken from.
type SlotKeeper interface {
	SlotOf(id LayoutID, wid types.WindowID) (Slot, bool)
	RestoreWindow(id LayoutID, wid types.WindowID, p Slot) bool
}

var (
	_ Tiler      = (*System)(nil)
	_ Tiler      = (*BSP)(nil)
	_ SlotKeeper = (*System)(nil)
)

// NewTiler returns an empty tiler for mode
func NewTiler(mode Mode) Tiler {
	if mode == ModeBSP {
		return NewBSP()
	}
	return NewSystem()
}

// Restore rebuilds the tiler a snapshot was taken from. Snapshots that
// predate modes are traditional.
func Restore(snap SystemSnapshot, known func(types.WindowID) bool) (Tiler, error) {
	mode, ok := ParseMode(string(snap.Mode))
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSnapshot, snap.Mode)
	}
	if mode == ModeBSP {
		return RestoreBSP(snap, known)
	}
	return RestoreSystem(snap, known)
}
