package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
)

const (
	AppDir    = "tiler"
	EnvPrefix = "TILER"

	// MaxWorkspaces bounds workspaces per space
	MaxWorkspaces = 32
)

var configFiles = []string{"config.yaml", "config.yml", "config.toml", "config.json"}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Animate:           true,
			AnimationDuration: 0.3,
			AnimationFPS:      100,
			AnimationEasing:   "easeInOut",
			MouseFollowsFocus: true,
			MouseHidesOnFocus: true,
			FocusFollowsMouse: true,
			HotReload:         true,
			Layout: LayoutSettings{
				Mode:  string(layout.ModeTraditional),
				Stack: StackSettings{StackOffset: 40},
			},
			UI: UISettings{
				StackLine: StackLineSettings{
					Thickness:      4,
					HorizPlacement: "top",
					VertPlacement:  "left",
				},
			},
		},
		VirtualWorkspaces: VirtualWorkspaces{
			Enabled:                   true,
			DefaultWorkspaceCount:     4,
			AutoAssignWindows:         true,
			PreserveFocusPerWorkspace: true,
			WorkspaceNames:            []string{"Main", "Development", "Communication", "Utilities"},
		},
	}
}

// LoadConfig loads configuration from path, or from the first config file
// found under $XDG_CONFIG_HOME/tiler when path is empty. With no file at
// all the defaults are used. Environment overrides are applied last, then
// invalid values are repaired and reported.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if err := decode(data, format, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.repair(path)
	return cfg, nil
}

// ReadConfig decodes the file at path over the defaults without applying
// the environment or repairing anything, so Validate sees the file as
// written.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if err := decode(data, format, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromBytes loads configuration from raw bytes over the
// defaults. format is "yaml", "toml" or "json".
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()
	if err := decode(data, format, cfg); err != nil {
		return nil, err
	}
	cfg.repair("")
	return cfg, nil
}

func decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", format)
	}
	return nil
}

func (c *Config) repair(source string) {
	issues := c.Validate()
	if len(issues) == 0 {
		return
	}
	fixed := c.AutoFix()
	for _, issue := range issues {
		logging.Warn().Str("config", source).Str("issue", issue).Msg("config issue")
	}
	logging.Info().Str("config", source).Int("fixed", fixed).Int("issues", len(issues)).Msg("config repaired")
}

// envOverrides are read from TILER_* variables. Unset variables leave the
// file value alone.
type envOverrides struct {
	Animate               *bool    `envconfig:"ANIMATE"`
	AnimationFPS          *float64 `envconfig:"ANIMATION_FPS"`
	AnimationDuration     *float64 `envconfig:"ANIMATION_DURATION"`
	AnimationEasing       *string  `envconfig:"ANIMATION_EASING"`
	FocusFollowsMouse     *bool    `envconfig:"FOCUS_FOLLOWS_MOUSE"`
	MouseFollowsFocus     *bool    `envconfig:"MOUSE_FOLLOWS_FOCUS"`
	DefaultWorkspaceCount *int     `envconfig:"DEFAULT_WORKSPACE_COUNT"`
	LogLevel              *string  `envconfig:"LOG_LEVEL"`
	LayoutMode            *string  `envconfig:"LAYOUT_MODE"`
}

// ApplyEnv overlays TILER_* environment variables onto cfg
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	s := &cfg.Settings
	setIf(&s.Animate, env.Animate)
	setIf(&s.AnimationFPS, env.AnimationFPS)
	setIf(&s.AnimationDuration, env.AnimationDuration)
	setIf(&s.AnimationEasing, env.AnimationEasing)
	setIf(&s.FocusFollowsMouse, env.FocusFollowsMouse)
	setIf(&s.MouseFollowsFocus, env.MouseFollowsFocus)
	setIf(&s.LogLevel, env.LogLevel)
	setIf(&s.Layout.Mode, env.LayoutMode)
	setIf(&cfg.VirtualWorkspaces.DefaultWorkspaceCount, env.DefaultWorkspaceCount)
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ConfigDir is $XDG_CONFIG_HOME/tiler
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppDir)
}

// FindConfigFile returns the first existing config file in ConfigDir, or
// "" when there is none.
func FindConfigFile() string {
	dir := ConfigDir()
	for _, name := range configFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if p := FindConfigFile(); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), configFiles[0])
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.Settings.AutoFocusBlacklist = slices.Clone(c.Settings.AutoFocusBlacklist)
	out.VirtualWorkspaces.WorkspaceNames = slices.Clone(c.VirtualWorkspaces.WorkspaceNames)
	out.VirtualWorkspaces.AppRules = make([]AppRule, len(c.VirtualWorkspaces.AppRules))
	for i, r := range c.VirtualWorkspaces.AppRules {
		if r.Workspace != nil {
			ws := *r.Workspace
			r.Workspace = &ws
		}
		out.VirtualWorkspaces.AppRules[i] = r
	}
	if c.VirtualWorkspaces.AppRules == nil {
		out.VirtualWorkspaces.AppRules = nil
	}
	return &out
}

// IsBlacklisted reports whether auto-focus workspace switching is disabled
// for bundleID.
func (c *Config) IsBlacklisted(bundleID string) bool {
	return bundleID != "" && slices.Contains(c.Settings.AutoFocusBlacklist, bundleID)
}
