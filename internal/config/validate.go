package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourusername/tiler/internal/animation"
	"github.com/yourusername/tiler/internal/layout"
)

// Validate returns a human-readable description of every problem found.
// An empty result means the configuration is usable as is.
func (c *Config) Validate() []string {
	var issues []string
	issues = append(issues, validateSettings(&c.Settings)...)
	issues = append(issues, validateWorkspaces(&c.VirtualWorkspaces)...)
	return issues
}

// Check is Validate folded into a single error
func (c *Config) Check() error {
	var errs []error
	for _, issue := range c.Validate() {
		errs = append(errs, errors.New(issue))
	}
	return errors.Join(errs...)
}

func validateSettings(s *Settings) []string {
	var issues []string
	if s.AnimationDuration < 0 {
		issues = append(issues, fmt.Sprintf("animationDuration must be non-negative, got %v", s.AnimationDuration))
	}
	if s.AnimationFPS <= 0 {
		issues = append(issues, fmt.Sprintf("animationFps must be positive, got %v", s.AnimationFPS))
	}
	if _, err := animation.ParseEasing(s.AnimationEasing); err != nil {
		issues = append(issues, fmt.Sprintf("animationEasing: %v", err))
	}
	if s.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel)); err != nil {
			issues = append(issues, fmt.Sprintf("logLevel: unknown level %q", s.LogLevel))
		}
	}
	if _, ok := layout.ParseMode(s.Layout.Mode); !ok {
		issues = append(issues, fmt.Sprintf("layout.mode must be traditional or bsp, got %q", s.Layout.Mode))
	}
	if s.Layout.Stack.StackOffset < 0 {
		issues = append(issues, fmt.Sprintf("stackOffset must be non-negative, got %v", s.Layout.Stack.StackOffset))
	}

	o := s.Layout.Gaps.Outer
	for _, g := range []struct {
		name string
		v    float64
	}{{"outer.top", o.Top}, {"outer.left", o.Left}, {"outer.bottom", o.Bottom}, {"outer.right", o.Right},
		{"inner.horizontal", s.Layout.Gaps.Inner.Horizontal}, {"inner.vertical", s.Layout.Gaps.Inner.Vertical}} {
		if g.v < 0 {
			issues = append(issues, fmt.Sprintf("%s gap must be non-negative, got %v", g.name, g.v))
		}
	}

	line := s.UI.StackLine
	if line.Thickness < 0 {
		issues = append(issues, fmt.Sprintf("stackLine.thickness must be non-negative, got %v", line.Thickness))
	}
	if _, ok := normalizePlacement(line.HorizPlacement, "top", "bottom"); !ok {
		issues = append(issues, fmt.Sprintf("stackLine.horizPlacement must be top or bottom, got %q", line.HorizPlacement))
	}
	if _, ok := normalizePlacement(line.VertPlacement, "left", "right"); !ok {
		issues = append(issues, fmt.Sprintf("stackLine.vertPlacement must be left or right, got %q", line.VertPlacement))
	}
	return issues
}

func validateWorkspaces(v *VirtualWorkspaces) []string {
	var issues []string
	if v.DefaultWorkspaceCount < 1 {
		issues = append(issues, "defaultWorkspaceCount must be at least 1")
	}
	if v.DefaultWorkspaceCount > MaxWorkspaces {
		issues = append(issues, fmt.Sprintf("defaultWorkspaceCount should not exceed %d", MaxWorkspaces))
	}
	if len(v.WorkspaceNames) > max(v.DefaultWorkspaceCount, 1) {
		issues = append(issues, "more workspace names provided than defaultWorkspaceCount")
	}
	if v.DefaultWorkspace < 0 || v.DefaultWorkspace >= max(v.DefaultWorkspaceCount, 1) {
		issues = append(issues, fmt.Sprintf("defaultWorkspace %d is out of range", v.DefaultWorkspace))
	}

	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	for i, rule := range v.AppRules {
		if rule.AppID == "" && rule.AppName == "" {
			issues = append(issues, fmt.Sprintf("appRule %d: no appId or appName specified", i))
		}
		if ws := rule.Workspace; ws != nil && !ws.ByName && ws.Index >= v.DefaultWorkspaceCount {
			issues = append(issues, fmt.Sprintf("appRule %d: references workspace %d but only %d workspaces will be created",
				i, ws.Index, v.DefaultWorkspaceCount))
		}
		if rule.AppID != "" {
			if !strings.Contains(rule.AppID, ".") {
				issues = append(issues, fmt.Sprintf("appRule %d: suspicious appId %q (expected a bundle identifier like com.example.app)", i, rule.AppID))
			}
			if seenIDs[rule.AppID] && rule.TitleRegex == "" && rule.TitleSubstring == "" {
				issues = append(issues, fmt.Sprintf("appRule %d: duplicate appId %q", i, rule.AppID))
			}
			seenIDs[rule.AppID] = true
		}
		if rule.AppName != "" {
			if seenNames[rule.AppName] && rule.TitleRegex == "" && rule.TitleSubstring == "" {
				issues = append(issues, fmt.Sprintf("appRule %d: duplicate appName %q", i, rule.AppName))
			}
			seenNames[rule.AppName] = true
		}
		if rule.TitleRegex != "" {
			if _, err := regexp.Compile(rule.TitleRegex); err != nil {
				issues = append(issues, fmt.Sprintf("appRule %d: invalid titleRegex: %v", i, err))
			}
		}
	}
	return issues
}

// AutoFix repairs the problems Validate reports that have an obvious fix
// and returns how many values it changed. Advisory issues such as a
// suspicious appId are left alone.
func (c *Config) AutoFix() int {
	fixes := 0
	s := &c.Settings
	def := DefaultConfig()

	if s.AnimationDuration < 0 {
		s.AnimationDuration = def.Settings.AnimationDuration
		fixes++
	}
	if s.AnimationFPS <= 0 {
		s.AnimationFPS = def.Settings.AnimationFPS
		fixes++
	}
	if _, err := animation.ParseEasing(s.AnimationEasing); err != nil {
		s.AnimationEasing = def.Settings.AnimationEasing
		fixes++
	}
	if s.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel)); err != nil {
			s.LogLevel = ""
			fixes++
		}
	}
	if mode, ok := layout.ParseMode(s.Layout.Mode); !ok {
		s.Layout.Mode = def.Settings.Layout.Mode
		fixes++
	} else if string(mode) != s.Layout.Mode {
		s.Layout.Mode = string(mode)
	}
	if s.Layout.Stack.StackOffset < 0 {
		s.Layout.Stack.StackOffset = def.Settings.Layout.Stack.StackOffset
		fixes++
	}
	g := &s.Layout.Gaps
	for _, v := range []*float64{&g.Outer.Top, &g.Outer.Left, &g.Outer.Bottom, &g.Outer.Right, &g.Inner.Horizontal, &g.Inner.Vertical} {
		if *v < 0 {
			*v = 0
			fixes++
		}
	}

	line := &s.UI.StackLine
	if line.Thickness < 0 {
		line.Thickness = def.Settings.UI.StackLine.Thickness
		fixes++
	}
	if p, ok := normalizePlacement(line.HorizPlacement, "top", "bottom"); ok {
		line.HorizPlacement = p
	} else {
		line.HorizPlacement = def.Settings.UI.StackLine.HorizPlacement
		fixes++
	}
	if p, ok := normalizePlacement(line.VertPlacement, "left", "right"); ok {
		line.VertPlacement = p
	} else {
		line.VertPlacement = def.Settings.UI.StackLine.VertPlacement
		fixes++
	}

	v := &c.VirtualWorkspaces
	if v.DefaultWorkspaceCount < 1 {
		v.DefaultWorkspaceCount = 1
		fixes++
	}
	if v.DefaultWorkspaceCount > MaxWorkspaces {
		v.DefaultWorkspaceCount = MaxWorkspaces
		fixes++
	}
	if len(v.WorkspaceNames) > v.DefaultWorkspaceCount {
		v.WorkspaceNames = v.WorkspaceNames[:v.DefaultWorkspaceCount]
		fixes++
	}
	if v.DefaultWorkspace < 0 || v.DefaultWorkspace >= v.DefaultWorkspaceCount {
		v.DefaultWorkspace = 0
		fixes++
	}

	rules := v.AppRules[:0]
	for _, rule := range v.AppRules {
		if rule.AppID == "" && rule.AppName == "" {
			fixes++
			continue
		}
		if ws := rule.Workspace; ws != nil && !ws.ByName && ws.Index >= v.DefaultWorkspaceCount {
			rule.Workspace = nil
			fixes++
		}
		if rule.TitleRegex != "" {
			if _, err := regexp.Compile(rule.TitleRegex); err != nil {
				rule.TitleRegex = ""
				fixes++
			}
		}
		rules = append(rules, rule)
	}
	if len(v.AppRules) > 0 {
		v.AppRules = rules
	}
	return fixes
}
