package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoad_NoFile(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f != nil {
		t.Errorf("Load() = %+v, want nil", f)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	want := payload{Name: "tree", Count: 3}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Version != StateVersion {
		t.Errorf("Version = %d, want %d", f.Version, StateVersion)
	}
	if f.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set")
	}
	var got payload
	if err := f.Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "layout.json")
	if err := Save(path, payload{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("layout file not created: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"malformed", "{not json", nil},
		{"newer version", `{"version": 99, "payload": {}}`, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layout.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MigratesUnversioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := os.WriteFile(path, []byte(`{"payload": {"name": "old"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Version != StateVersion {
		t.Errorf("Version = %d, want %d", f.Version, StateVersion)
	}
	var got payload
	if err := f.Decode(&got); err != nil || got.Name != "old" {
		t.Errorf("Decode() = %+v, %v; want name old", got, err)
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	f := NewLayoutFile(nil)
	if err := f.Decode(&payload{}); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Decode() error = %v, want %v", err, ErrEmptyPayload)
	}
}

func TestDescribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	info, err := Describe(path)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if info.Exists {
		t.Error("Exists should be false before saving")
	}

	raw, _ := json.Marshal(payload{Name: "x"})
	if err := NewLayoutFile(raw).SaveTo(path); err != nil {
		t.Fatal(err)
	}
	info, err = Describe(path)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if !info.Exists || info.Version != StateVersion || info.PayloadBytes == 0 {
		t.Errorf("Describe() = %+v", info)
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := Remove(path); err != nil {
		t.Errorf("Remove() on missing file error = %v", err)
	}
	if err := Save(path, payload{}); err != nil {
		t.Fatal(err)
	}
	if err := Remove(path); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
}
