package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DefaultStateDir is the directory under $XDG_STATE_HOME for state files
	DefaultStateDir = "tiler"
	// DefaultStateFile is the layout file name
	DefaultStateFile = "layout.json"
)

// GetStatePath returns the full path to the layout file
func GetStatePath() string {
	path, err := xdg.StateFile(filepath.Join(DefaultStateDir, DefaultStateFile))
	if err != nil {
		return filepath.Join(xdg.StateHome, DefaultStateDir, DefaultStateFile)
	}
	return path
}

// Load reads the layout file at path. A missing file yields (nil, nil).
func Load(path string) (*LayoutFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var f LayoutFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse layout file: %w", err)
	}
	if f.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if f.Version < StateVersion {
		f = *migrate(&f)
	}
	return &f, nil
}

// Save marshals v and writes it to path atomically
func Save(path string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal layout state: %w", err)
	}
	return NewLayoutFile(payload).SaveTo(path)
}

// SaveTo persists the file to path
func (f *LayoutFile) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout file: %w", err)
	}

	// temp file + rename keeps readers from seeing a partial write
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename layout file: %w", err)
	}
	return nil
}

// Describe reports what is stored at path
func Describe(path string) (Info, error) {
	info := Info{Path: path}
	f, err := Load(path)
	if err != nil {
		return info, err
	}
	if f == nil {
		return info, nil
	}
	info.Exists = true
	info.Version = f.Version
	info.LastUpdated = f.LastUpdated
	info.PayloadBytes = len(f.Payload)
	return info, nil
}

// Remove deletes the layout file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove layout file: %w", err)
	}
	return nil
}

// migrate upgrades files from older versions. Version 0 files predate the
// version field and share the current layout.
func migrate(old *LayoutFile) *LayoutFile {
	f := NewLayoutFile(old.Payload)
	f.LastUpdated = old.LastUpdated
	return f
}
