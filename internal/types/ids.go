package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Pid is an application process id.
type Pid int32

// WindowID identifies a window by owning process and a per-process sequence
// number assigned by the app actor.
type WindowID struct {
	Pid Pid
	Idx uint32
}

func NewWindowID(pid Pid, idx uint32) WindowID {
	return WindowID{Pid: pid, Idx: idx}
}

func (w WindowID) String() string {
	return fmt.Sprintf("%d:%d", w.Pid, w.Idx)
}

// Less orders window ids by pid, then index.
func (w WindowID) Less(o WindowID) bool {
	if w.Pid != o.Pid {
		return w.Pid < o.Pid
	}
	return w.Idx < o.Idx
}

// ParseWindowID parses the "pid:idx" form produced by String.
func ParseWindowID(s string) (WindowID, error) {
	pidStr, idxStr, ok := strings.Cut(s, ":")
	if !ok {
		return WindowID{}, fmt.Errorf("invalid window id %q: expected pid:idx", s)
	}
	pid, err := strconv.ParseInt(pidStr, 10, 32)
	if err != nil {
		return WindowID{}, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return WindowID{}, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return WindowID{Pid: Pid(pid), Idx: uint32(idx)}, nil
}

// MarshalText encodes the id as "pid:idx" so it can key JSON objects.
func (w WindowID) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WindowID) UnmarshalText(b []byte) error {
	id, err := ParseWindowID(string(b))
	if err != nil {
		return err
	}
	*w = id
	return nil
}

// WindowServerID is the opaque id the window server uses for a window.
type WindowServerID uint32

// SpaceID identifies a physical OS space. Zero is never a valid space.
type SpaceID uint64

func (s SpaceID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// WorkspaceID is the stable key of a virtual workspace.
type WorkspaceID uint64

func (w WorkspaceID) String() string {
	return strconv.FormatUint(uint64(w), 10)
}

// TransactionID is a per-window counter for frame writes.
type TransactionID uint32
