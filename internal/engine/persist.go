package engine

import (
	"fmt"
	"slices"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/state"
	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// Snapshot is the persisted form of the engine.
type Snapshot struct {
	Layouts    layout.SystemSnapshot `json:"layouts"`
	Workspaces workspace.Snapshot    `json:"workspaces"`
	Index      []LayoutsEntry        `json:"index"`
	Floating   []types.WindowID      `json:"floating,omitempty"`
	Scratchpad []ScratchpadEntry     `json:"scratchpad,omitempty"`
}

// Snapshot captures layouts, workspaces and floating state
func (e *LayoutEngine) Snapshot() Snapshot {
	floating := make([]types.WindowID, 0, len(e.floating))
	for wid := range e.floating {
		floating = append(floating, wid)
	}
	slices.SortFunc(floating, compareWindowIDs)
	return Snapshot{
		Layouts:    e.tree.Snapshot(),
		Workspaces: e.workspaces.Snapshot(),
		Index:      e.layouts.entries(),
		Floating:   floating,
		Scratchpad: e.scratchpad.entries(),
	}
}

// Restore replaces the engine state with snap. Windows rejected by known
// are dropped; a nil known keeps every window. On error the engine is
// left untouched.
func (e *LayoutEngine) Restore(snap Snapshot, known func(types.WindowID) bool) error {
	sys, err := layout.Restore(snap.Layouts, known)
	if err != nil {
		return fmt.Errorf("failed to restore layouts: %w", err)
	}
	m := workspace.NewManager(e.vw)
	if err := m.Restore(snap.Workspaces, known); err != nil {
		return fmt.Errorf("failed to restore workspaces: %w", err)
	}

	layouts := restoreEntries(snap.Index, sys)
	if sys.Mode() != e.mode {
		converted, ids := convertLayouts(sys, e.mode)
		layouts.remap(ids)
		sys = converted
	}
	e.tree = sys
	e.workspaces = m
	e.layouts = layouts
	e.floating = make(map[types.WindowID]struct{})
	e.floatingFocus = make(map[layoutKey]types.WindowID)
	e.floatAnchors = make(map[types.WindowID]floatAnchor)
	for _, wid := range snap.Floating {
		if known == nil || known(wid) {
			e.floating[wid] = struct{}{}
		}
	}
	e.scratchpad = NewScratchpad()
	for _, entry := range snap.Scratchpad {
		if e.IsWindowFloating(entry.Window) {
			e.scratchpad.Add(entry.Window, entry.Name)
		}
	}
	e.hasFocused = false
	return nil
}

// Save writes the engine state to path and marks every active layout as
// saved, so later screen size changes clone it.
func (e *LayoutEngine) Save(path string) error {
	if err := state.Save(path, e.Snapshot()); err != nil {
		return err
	}
	for key, info := range e.layouts.m {
		if id, ok := info.active(); ok {
			e.layouts.MarkLastSaved(key.Space, key.Workspace, id)
		}
	}
	return nil
}

// Load restores the engine from path. It reports false when there is no
// file.
func (e *LayoutEngine) Load(path string, known func(types.WindowID) bool) (bool, error) {
	f, err := state.Load(path)
	if err != nil || f == nil {
		return false, err
	}
	var snap Snapshot
	if err := f.Decode(&snap); err != nil {
		return false, fmt.Errorf("failed to decode layout state: %w", err)
	}
	if err := e.Restore(snap, known); err != nil {
		return false, err
	}
	return true, nil
}
