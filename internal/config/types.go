package config

// Config is the root configuration structure
type Config struct {
	Settings          Settings          `yaml:"settings" toml:"settings" json:"settings"`
	VirtualWorkspaces VirtualWorkspaces `yaml:"virtualWorkspaces" toml:"virtualWorkspaces" json:"virtualWorkspaces"`
}

// Settings contains global behaviour settings
type Settings struct {
	Animate           bool    `yaml:"animate" toml:"animate" json:"animate"`
	AnimationDuration float64 `yaml:"animationDuration" toml:"animationDuration" json:"animationDuration"` // seconds
	AnimationFPS      float64 `yaml:"animationFps" toml:"animationFps" json:"animationFps"`
	AnimationEasing   string  `yaml:"animationEasing" toml:"animationEasing" json:"animationEasing"`

	MouseFollowsFocus  bool     `yaml:"mouseFollowsFocus" toml:"mouseFollowsFocus" json:"mouseFollowsFocus"`
	MouseHidesOnFocus  bool     `yaml:"mouseHidesOnFocus" toml:"mouseHidesOnFocus" json:"mouseHidesOnFocus"`
	FocusFollowsMouse  bool     `yaml:"focusFollowsMouse" toml:"focusFollowsMouse" json:"focusFollowsMouse"`
	AutoFocusBlacklist []string `yaml:"autoFocusBlacklist,omitempty" toml:"autoFocusBlacklist,omitempty" json:"autoFocusBlacklist,omitempty"`

	HotReload bool   `yaml:"hotReload" toml:"hotReload" json:"hotReload"`
	LogLevel  string `yaml:"logLevel,omitempty" toml:"logLevel,omitempty" json:"logLevel,omitempty"`

	Layout LayoutSettings `yaml:"layout" toml:"layout" json:"layout"`
	UI     UISettings     `yaml:"ui" toml:"ui" json:"ui"`
}

// LayoutSettings shape the tiled frames
type LayoutSettings struct {
	Mode  string        `yaml:"mode" toml:"mode" json:"mode"` // traditional|bsp
	Stack StackSettings `yaml:"stack" toml:"stack" json:"stack"`
	Gaps  GapSettings   `yaml:"gaps" toml:"gaps" json:"gaps"`
}

type StackSettings struct {
	StackOffset float64 `yaml:"stackOffset" toml:"stackOffset" json:"stackOffset"`
}

type GapSettings struct {
	Outer OuterGaps `yaml:"outer" toml:"outer" json:"outer"`
	Inner InnerGaps `yaml:"inner" toml:"inner" json:"inner"`
}

type OuterGaps struct {
	Top    float64 `yaml:"top" toml:"top" json:"top"`
	Left   float64 `yaml:"left" toml:"left" json:"left"`
	Bottom float64 `yaml:"bottom" toml:"bottom" json:"bottom"`
	Right  float64 `yaml:"right" toml:"right" json:"right"`
}

type InnerGaps struct {
	Horizontal float64 `yaml:"horizontal" toml:"horizontal" json:"horizontal"`
	Vertical   float64 `yaml:"vertical" toml:"vertical" json:"vertical"`
}

type UISettings struct {
	StackLine StackLineSettings `yaml:"stackLine" toml:"stackLine" json:"stackLine"`
}

// StackLineSettings describes the indicator drawn along stacks. Only the
// space it reserves matters to the layout.
type StackLineSettings struct {
	Enabled        bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	Thickness      float64 `yaml:"thickness" toml:"thickness" json:"thickness"`
	HorizPlacement string  `yaml:"horizPlacement" toml:"horizPlacement" json:"horizPlacement"` // top|bottom
	VertPlacement  string  `yaml:"vertPlacement" toml:"vertPlacement" json:"vertPlacement"`    // left|right
}

// VirtualWorkspaces configures the per-space workspace manager
type VirtualWorkspaces struct {
	Enabled                   bool      `yaml:"enabled" toml:"enabled" json:"enabled"`
	DefaultWorkspaceCount     int       `yaml:"defaultWorkspaceCount" toml:"defaultWorkspaceCount" json:"defaultWorkspaceCount"`
	AutoAssignWindows         bool      `yaml:"autoAssignWindows" toml:"autoAssignWindows" json:"autoAssignWindows"`
	PreserveFocusPerWorkspace bool      `yaml:"preserveFocusPerWorkspace" toml:"preserveFocusPerWorkspace" json:"preserveFocusPerWorkspace"`
	WorkspaceNames            []string  `yaml:"workspaceNames,omitempty" toml:"workspaceNames,omitempty" json:"workspaceNames,omitempty"`
	DefaultWorkspace          int       `yaml:"defaultWorkspace" toml:"defaultWorkspace" json:"defaultWorkspace"`
	AppRules                  []AppRule `yaml:"appRules,omitempty" toml:"appRules,omitempty" json:"appRules,omitempty"`
}

// AppRule routes matching windows to a workspace and/or makes them float.
// Empty matchers are ignored.
type AppRule struct {
	AppID          string             `yaml:"appId,omitempty" toml:"appId,omitempty" json:"appId,omitempty"`     // bundle id, exact
	AppName        string             `yaml:"appName,omitempty" toml:"appName,omitempty" json:"appName,omitempty"` // substring either way
	TitleRegex     string             `yaml:"titleRegex,omitempty" toml:"titleRegex,omitempty" json:"titleRegex,omitempty"`
	TitleSubstring string             `yaml:"titleSubstring,omitempty" toml:"titleSubstring,omitempty" json:"titleSubstring,omitempty"`
	AXRole         string             `yaml:"axRole,omitempty" toml:"axRole,omitempty" json:"axRole,omitempty"`
	AXSubrole      string             `yaml:"axSubrole,omitempty" toml:"axSubrole,omitempty" json:"axSubrole,omitempty"`
	Workspace      *WorkspaceSelector `yaml:"workspace,omitempty" toml:"workspace,omitempty" json:"workspace,omitempty"`
	Floating       bool               `yaml:"floating,omitempty" toml:"floating,omitempty" json:"floating,omitempty"`
}

// WorkspaceSelector picks a workspace by zero-based index or by name.
type WorkspaceSelector struct {
	Index  int
	Name   string
	ByName bool
}
