package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if issues := DefaultConfig().Validate(); len(issues) != 0 {
		t.Errorf("DefaultConfig().Validate() = %v, want none", issues)
	}
}

func TestLoadConfigFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "config.yaml", `
settings:
  animate: false
  animationFps: 60
  layout:
    gaps:
      outer: {top: 8, left: 8, bottom: 8, right: 8}
virtualWorkspaces:
  defaultWorkspaceCount: 3
  appRules:
    - appId: com.example.chat
      workspace: 2
    - appName: Terminal
      workspace: Code
      floating: true
`},
		{"toml", "config.toml", `
[settings]
animate = false
animationFps = 60.0

[settings.layout.gaps.outer]
top = 8.0
left = 8.0
bottom = 8.0
right = 8.0

[virtualWorkspaces]
defaultWorkspaceCount = 3

[[virtualWorkspaces.appRules]]
appId = "com.example.chat"
workspace = "2"

[[virtualWorkspaces.appRules]]
appName = "Terminal"
workspace = "Code"
floating = true
`},
		{"json", "config.json", `{
  "settings": {"animate": false, "animationFps": 60,
    "layout": {"gaps": {"outer": {"top": 8, "left": 8, "bottom": 8, "right": 8}}}},
  "virtualWorkspaces": {"defaultWorkspaceCount": 3, "appRules": [
    {"appId": "com.example.chat", "workspace": 2},
    {"appName": "Terminal", "workspace": "Code", "floating": true}
  ]}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Settings.Animate {
				t.Error("Animate = true, want false")
			}
			if cfg.Settings.AnimationFPS != 60 {
				t.Errorf("AnimationFPS = %v, want 60", cfg.Settings.AnimationFPS)
			}
			if cfg.Settings.AnimationDuration != 0.3 {
				t.Errorf("AnimationDuration = %v, want default 0.3", cfg.Settings.AnimationDuration)
			}
			if cfg.Settings.Layout.Gaps.Outer.Left != 8 {
				t.Errorf("Outer.Left = %v, want 8", cfg.Settings.Layout.Gaps.Outer.Left)
			}
			rules := cfg.VirtualWorkspaces.AppRules
			if len(rules) != 2 {
				t.Fatalf("got %d rules, want 2", len(rules))
			}
			if ws := rules[0].Workspace; ws == nil || ws.ByName || ws.Index != 2 {
				t.Errorf("rule 0 workspace = %+v, want index 2", ws)
			}
			if ws := rules[1].Workspace; ws == nil || !ws.ByName || ws.Name != "Code" {
				t.Errorf("rule 1 workspace = %+v, want name Code", ws)
			}
			if !rules[1].Floating {
				t.Error("rule 1 should float")
			}
		})
	}
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	os.WriteFile(path, []byte("animate=1"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig(.ini) expected error")
	}
}

func TestLoadConfigFromBytesParseError(t *testing.T) {
	if _, err := LoadConfigFromBytes([]byte("settings: [unclosed"), "yaml"); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TILER_ANIMATE", "false")
	t.Setenv("TILER_ANIMATION_FPS", "30")
	t.Setenv("TILER_DEFAULT_WORKSPACE_COUNT", "6")
	t.Setenv("TILER_LOG_LEVEL", "debug")
	t.Setenv("TILER_LAYOUT_MODE", "bsp")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Settings.Animate {
		t.Error("Animate = true, want false")
	}
	if cfg.Settings.AnimationFPS != 30 {
		t.Errorf("AnimationFPS = %v, want 30", cfg.Settings.AnimationFPS)
	}
	if cfg.VirtualWorkspaces.DefaultWorkspaceCount != 6 {
		t.Errorf("DefaultWorkspaceCount = %v, want 6", cfg.VirtualWorkspaces.DefaultWorkspaceCount)
	}
	if cfg.Settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Settings.LogLevel)
	}
	if cfg.Settings.Layout.Mode != "bsp" {
		t.Errorf("Layout.Mode = %q, want bsp", cfg.Settings.Layout.Mode)
	}
	if !cfg.Settings.FocusFollowsMouse {
		t.Error("unset variables must not change values")
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("TILER_ANIMATION_FPS", "fast")
	if err := ApplyEnv(DefaultConfig()); err == nil {
		t.Error("ApplyEnv expected error for non-numeric fps")
	}
}

func TestValidateAndAutoFix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.AnimationDuration = -1
	cfg.Settings.AnimationFPS = 0
	cfg.Settings.AnimationEasing = "bouncy"
	cfg.Settings.Layout.Gaps.Inner.Vertical = -4
	cfg.Settings.UI.StackLine.HorizPlacement = "middle"
	cfg.Settings.Layout.Mode = "spiral"
	cfg.VirtualWorkspaces.DefaultWorkspaceCount = 40
	cfg.VirtualWorkspaces.AppRules = []AppRule{
		{Floating: true},
		{AppID: "com.example.a", Workspace: IndexSelector(35)},
		{AppName: "Editor", TitleRegex: "("},
	}

	issues := cfg.Validate()
	if len(issues) < 9 {
		t.Errorf("Validate() found %d issues, want at least 9: %v", len(issues), issues)
	}

	fixed := cfg.AutoFix()
	if fixed < 9 {
		t.Errorf("AutoFix() = %d, want at least 9", fixed)
	}
	if remaining := cfg.Validate(); len(remaining) != 0 {
		t.Errorf("issues after AutoFix: %v", remaining)
	}
	if cfg.VirtualWorkspaces.DefaultWorkspaceCount != MaxWorkspaces {
		t.Errorf("DefaultWorkspaceCount = %d, want %d", cfg.VirtualWorkspaces.DefaultWorkspaceCount, MaxWorkspaces)
	}
	if len(cfg.VirtualWorkspaces.AppRules) != 2 {
		t.Errorf("rules after fix = %d, want 2", len(cfg.VirtualWorkspaces.AppRules))
	}
	if cfg.Settings.AnimationEasing != "easeInOut" {
		t.Errorf("AnimationEasing = %q", cfg.Settings.AnimationEasing)
	}
	if cfg.Settings.Layout.Mode != "traditional" {
		t.Errorf("Layout.Mode = %q, want traditional", cfg.Settings.Layout.Mode)
	}
}

func TestAutoFixNormalizesLayoutMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Layout.Mode = " BSP "
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("Validate() = %v, want no issues", issues)
	}
	cfg.AutoFix()
	if cfg.Settings.Layout.Mode != "bsp" {
		t.Errorf("Layout.Mode = %q, want bsp", cfg.Settings.Layout.Mode)
	}
}

func TestWorkspaceNamesTrimmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VirtualWorkspaces.DefaultWorkspaceCount = 2
	cfg.AutoFix()
	if want := []string{"Main", "Development"}; !slices.Equal(cfg.VirtualWorkspaces.WorkspaceNames, want) {
		t.Errorf("WorkspaceNames = %v, want %v", cfg.VirtualWorkspaces.WorkspaceNames, want)
	}
}

func TestWorkspaceSelectorJSON(t *testing.T) {
	tests := []struct {
		in   string
		want WorkspaceSelector
	}{
		{`3`, WorkspaceSelector{Index: 3}},
		{`"Code"`, WorkspaceSelector{Name: "Code", ByName: true}},
		{`"1"`, WorkspaceSelector{Index: 1}},
	}
	for _, tt := range tests {
		var got WorkspaceSelector
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	var bad WorkspaceSelector
	if err := json.Unmarshal([]byte(`-1`), &bad); err == nil {
		t.Error("negative index should be rejected")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VirtualWorkspaces.AppRules = []AppRule{{AppID: "com.example.a", Workspace: IndexSelector(1)}}
	cp := cfg.Clone()
	cp.VirtualWorkspaces.AppRules[0].Workspace.Index = 3
	cp.VirtualWorkspaces.WorkspaceNames[0] = "Other"
	if cfg.VirtualWorkspaces.AppRules[0].Workspace.Index != 1 {
		t.Error("Clone shares rule selectors")
	}
	if cfg.VirtualWorkspaces.WorkspaceNames[0] != "Main" {
		t.Error("Clone shares workspace names")
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(nil)
	before := store.Load()
	after := store.Update(func(c *Config) { c.Settings.Animate = false })
	if before.Settings.Animate != true {
		t.Error("Update modified the published config in place")
	}
	if after.Settings.Animate || store.Load().Settings.Animate {
		t.Error("Update did not publish the new config")
	}
}

func TestReadConfigKeepsIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "settings:\n  animationFps: 0\nvirtualWorkspaces:\n  defaultWorkspaceCount: 40\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if issues := cfg.Validate(); len(issues) < 2 {
		t.Errorf("Validate() = %v, want at least 2 issues", issues)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.VirtualWorkspaces.DefaultWorkspaceCount > MaxWorkspaces {
		t.Errorf("DefaultWorkspaceCount = %d, want repaired", loaded.VirtualWorkspaces.DefaultWorkspaceCount)
	}
}

func TestWatchReloadsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("settings:\n  animationFps: 60\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(c *Config) { reloads <- c })
	}()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	}()
	// let the watcher register before touching the file
	time.Sleep(100 * time.Millisecond)

	// save the way editors do: write a sibling and rename it over the file
	tmp := filepath.Join(dir, ".config.yaml.swp")
	if err := os.WriteFile(tmp, []byte("settings:\n  animationFps: 30\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloads:
		if c.Settings.AnimationFPS != 30 {
			t.Errorf("AnimationFPS = %v, want 30", c.Settings.AnimationFPS)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after the file was replaced")
	}

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-reloads:
		t.Errorf("unrelated file triggered a reload: %+v", c.Settings)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchWithoutPath(t *testing.T) {
	if err := Watch(context.Background(), "", 0, func(*Config) {}); err != nil {
		t.Errorf("Watch(\"\") error = %v, want nil", err)
	}
}
