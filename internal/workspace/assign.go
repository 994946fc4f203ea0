package workspace

import (
	"regexp"
	"strings"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// WindowInfo is what app rules can match a window on. Empty fields never
// satisfy a rule that sets the corresponding matcher.
type WindowInfo struct {
	BundleID string
	AppName  string
	Title    string
	Role     string
	Subrole  string
}

type compiledRule struct {
	config.AppRule
	index    int
	titleRe  *regexp.Regexp
	badRegex bool
}

// SetAppRules replaces the app rules. Rules with an invalid title regex
// are kept but never match.
func (m *Manager) SetAppRules(rules []config.AppRule) {
	m.rules = m.rules[:0]
	for i, r := range rules {
		cr := compiledRule{AppRule: r, index: i}
		if r.TitleRegex != "" {
			re, err := regexp.Compile(r.TitleRegex)
			if err != nil {
				logging.Warn().Err(err).Str("titleRegex", r.TitleRegex).Msg("invalid title regex in app rule")
				cr.badRegex = true
			} else {
				cr.titleRe = re
			}
		}
		m.rules = append(m.rules, cr)
	}
}

func (r *compiledRule) matches(info WindowInfo) bool {
	if r.AppID != "" && r.AppID != info.BundleID {
		return false
	}
	if r.AppName != "" {
		if info.AppName == "" {
			return false
		}
		rule, name := strings.ToLower(r.AppName), strings.ToLower(info.AppName)
		if !strings.Contains(name, rule) && !strings.Contains(rule, name) {
			return false
		}
	}
	if r.TitleRegex != "" {
		if r.badRegex || info.Title == "" || !r.titleRe.MatchString(info.Title) {
			return false
		}
	}
	if r.TitleSubstring != "" && !strings.Contains(info.Title, r.TitleSubstring) {
		return false
	}
	if r.AXRole != "" && r.AXRole != info.Role {
		return false
	}
	if r.AXSubrole != "" && r.AXSubrole != info.Subrole {
		return false
	}
	return true
}

// specificity counts the matchers a rule sets, plus one when it names a
// workspace.
func (r *compiledRule) specificity() int {
	score := 0
	for _, f := range []string{r.AppID, r.AppName, r.TitleRegex, r.TitleSubstring, r.AXRole, r.AXSubrole} {
		if f != "" {
			score++
		}
	}
	if r.Workspace != nil {
		score++
	}
	return score
}

// best returns the highest-scoring rule, ties going to the earliest.
func best(rules []*compiledRule) *compiledRule {
	var out *compiledRule
	for _, r := range rules {
		if out == nil || r.specificity() > out.specificity() {
			out = r
		}
	}
	return out
}

// MatchRule finds the app rule for a window. A single match wins. When
// several matching rules share an appId, the group whose first rule comes
// earliest decides; otherwise the most specific rule overall wins.
func (m *Manager) MatchRule(info WindowInfo) (config.AppRule, bool) {
	r := m.matchRule(info)
	if r == nil {
		return config.AppRule{}, false
	}
	return r.AppRule, true
}

func (m *Manager) matchRule(info WindowInfo) *compiledRule {
	var matched []*compiledRule
	for i := range m.rules {
		if m.rules[i].matches(info) {
			matched = append(matched, &m.rules[i])
		}
	}
	switch len(matched) {
	case 0:
		return nil
	case 1:
		return matched[0]
	}

	groups := make(map[string][]*compiledRule)
	var order []string
	for _, r := range matched {
		if r.AppID == "" {
			continue
		}
		if _, seen := groups[r.AppID]; !seen {
			order = append(order, r.AppID)
		}
		groups[r.AppID] = append(groups[r.AppID], r)
	}
	// matched is in rule order, so the first group with several entries
	// is the one whose first rule appears earliest.
	for _, id := range order {
		if g := groups[id]; len(g) > 1 {
			return best(g)
		}
	}
	return best(matched)
}

// AssignWindowToWorkspace moves wid into ws on space, removing it from any
// workspace it was in before. It reports false when ws does not belong to
// space.
func (m *Manager) AssignWindowToWorkspace(space types.SpaceID, wid types.WindowID, ws types.WorkspaceID) bool {
	target := m.workspaceIn(space, ws)
	if target == nil {
		logging.Error().Uint64("space", uint64(space)).Uint64("ws", uint64(ws)).Stringer("wid", wid).
			Msg("attempted to assign window to a workspace that does not exist on this space")
		return false
	}
	for key, old := range m.windowToWorkspace {
		if key.wid != wid {
			continue
		}
		if key.space == space && old == ws {
			return true
		}
		if w := m.workspaces[old]; w != nil {
			w.remove(wid)
		}
		delete(m.windowToWorkspace, key)
		delete(m.ruleFloating, key)
	}
	target.add(wid)
	m.windowToWorkspace[spaceWindow{space, wid}] = ws
	return true
}

// AutoAssignWindow puts wid on the default workspace of space
func (m *Manager) AutoAssignWindow(wid types.WindowID, space types.SpaceID) (types.WorkspaceID, error) {
	ws, err := m.DefaultWorkspace(space)
	if err != nil {
		return 0, err
	}
	if !m.AssignWindowToWorkspace(space, wid, ws) {
		return 0, ErrAssignmentFailed
	}
	delete(m.ruleFloating, spaceWindow{space, wid})
	return ws, nil
}

// AssignWindowWithAppInfo places a new window using the app rules and
// reports whether the window should float. A window that already has a
// workspace on space keeps it.
func (m *Manager) AssignWindowWithAppInfo(wid types.WindowID, space types.SpaceID, info WindowInfo) (types.WorkspaceID, bool, error) {
	m.ensureSpaceInitialized(space)
	if len(m.bySpace[space]) == 0 {
		return 0, false, ErrNoWorkspaces
	}
	key := spaceWindow{space, wid}
	if ws, ok := m.windowToWorkspace[key]; ok {
		return ws, m.ruleFloating[key], nil
	}

	if rule := m.matchRule(info); rule != nil {
		ws, err := m.resolveRuleWorkspace(space, rule.Workspace)
		if err != nil {
			return 0, false, err
		}
		if m.AssignWindowToWorkspace(space, wid, ws) {
			if rule.Floating {
				m.ruleFloating[key] = true
			} else {
				delete(m.ruleFloating, key)
			}
			return ws, rule.Floating, nil
		}
		logging.Error().Stringer("wid", wid).Msg("failed to assign window to workspace from app rule")
	}

	ws, err := m.AutoAssignWindow(wid, space)
	if err != nil {
		return 0, false, err
	}
	return ws, false, nil
}

// resolveRuleWorkspace maps a rule's selector to a workspace of space,
// falling back to the default workspace when it cannot be resolved.
func (m *Manager) resolveRuleWorkspace(space types.SpaceID, sel *config.WorkspaceSelector) (types.WorkspaceID, error) {
	if sel == nil {
		return m.DefaultWorkspace(space)
	}
	if sel.ByName {
		if id, ok := m.WorkspaceByName(space, sel.Name); ok {
			return id, nil
		}
		logging.Warn().Str("workspace", sel.Name).Uint64("space", uint64(space)).
			Msg("app rule references unknown workspace name, using default workspace")
		return m.DefaultWorkspace(space)
	}
	if id, ok := m.WorkspaceByIndex(space, sel.Index); ok {
		return id, nil
	}
	logging.Warn().Int("workspace", sel.Index).Uint64("space", uint64(space)).
		Msg("app rule references non-existent workspace index, using default workspace")
	return m.DefaultWorkspace(space)
}

// IsRuleFloating reports whether an app rule asked for wid to float
func (m *Manager) IsRuleFloating(space types.SpaceID, wid types.WindowID) bool {
	return m.ruleFloating[spaceWindow{space, wid}]
}

// WorkspaceForWindow returns the workspace holding wid on space
func (m *Manager) WorkspaceForWindow(space types.SpaceID, wid types.WindowID) (types.WorkspaceID, bool) {
	ws, ok := m.windowToWorkspace[spaceWindow{space, wid}]
	return ws, ok
}

// WindowsInWorkspace returns the windows of ws in id order
func (m *Manager) WindowsInWorkspace(space types.SpaceID, ws types.WorkspaceID) []types.WindowID {
	w := m.workspaceIn(space, ws)
	if w == nil {
		return nil
	}
	return w.Windows()
}

// WindowsInActiveWorkspace returns the windows of the active workspace of space
func (m *Manager) WindowsInActiveWorkspace(space types.SpaceID) []types.WindowID {
	ws, ok := m.ActiveWorkspace(space)
	if !ok {
		return nil
	}
	return m.WindowsInWorkspace(space, ws)
}

// WindowsInInactiveWorkspaces returns every window on space that is not in
// its active workspace.
func (m *Manager) WindowsInInactiveWorkspaces(space types.SpaceID) []types.WindowID {
	active, _ := m.ActiveWorkspace(space)
	var out []types.WindowID
	for _, id := range m.bySpace[space] {
		if id == active {
			continue
		}
		if w := m.workspaces[id]; w != nil {
			out = append(out, w.Windows()...)
		}
	}
	return out
}

// IsWindowInActiveWorkspace reports whether wid should be visible on
// space. Windows without a workspace, and spaces without an active one,
// count as visible.
func (m *Manager) IsWindowInActiveWorkspace(space types.SpaceID, wid types.WindowID) bool {
	ws, ok := m.WorkspaceForWindow(space, wid)
	if !ok {
		return true
	}
	active, ok := m.ActiveWorkspace(space)
	if !ok {
		return true
	}
	return ws == active
}

// RemoveWindow forgets wid everywhere, including focus memory and stored
// floating positions.
func (m *Manager) RemoveWindow(wid types.WindowID) {
	for key, ws := range m.windowToWorkspace {
		if key.wid != wid {
			continue
		}
		if w := m.workspaces[ws]; w != nil {
			w.remove(wid)
		}
		delete(m.windowToWorkspace, key)
		delete(m.ruleFloating, key)
	}
	m.RemoveFloatingPosition(wid)
}

// RemoveWindowsForApp forgets every window owned by pid
func (m *Manager) RemoveWindowsForApp(pid types.Pid) {
	for key, ws := range m.windowToWorkspace {
		if key.wid.Pid != pid {
			continue
		}
		if w := m.workspaces[ws]; w != nil {
			w.remove(key.wid)
		}
		delete(m.windowToWorkspace, key)
		delete(m.ruleFloating, key)
	}
	for _, w := range m.workspaces {
		if w.hasFocused && w.lastFocused.Pid == pid {
			w.hasFocused = false
		}
	}
	m.RemoveAppFloatingPositions(pid)
}
