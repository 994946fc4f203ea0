package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseWorkspaceSelector parses a selector: digits select by index, any
// other text selects by name.
//   - "2" - the third workspace
//   - "Code" - the workspace named Code
func ParseWorkspaceSelector(s string) (WorkspaceSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WorkspaceSelector{}, fmt.Errorf("empty workspace selector")
	}
	if i, err := strconv.Atoi(s); err == nil {
		if i < 0 {
			return WorkspaceSelector{}, fmt.Errorf("workspace index cannot be negative: %d", i)
		}
		return WorkspaceSelector{Index: i}, nil
	}
	return WorkspaceSelector{Name: s, ByName: true}, nil
}

// IndexSelector selects a workspace by position
func IndexSelector(i int) *WorkspaceSelector {
	return &WorkspaceSelector{Index: i}
}

// NameSelector selects a workspace by name
func NameSelector(name string) *WorkspaceSelector {
	return &WorkspaceSelector{Name: name, ByName: true}
}

func (w WorkspaceSelector) String() string {
	if w.ByName {
		return w.Name
	}
	return strconv.Itoa(w.Index)
}

// MarshalText is used by TOML, where selectors are always strings.
func (w WorkspaceSelector) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WorkspaceSelector) UnmarshalText(b []byte) error {
	sel, err := ParseWorkspaceSelector(string(b))
	if err != nil {
		return err
	}
	*w = sel
	return nil
}

// MarshalJSON writes an index as a number and a name as a string
func (w WorkspaceSelector) MarshalJSON() ([]byte, error) {
	if w.ByName {
		return json.Marshal(w.Name)
	}
	return json.Marshal(w.Index)
}

func (w *WorkspaceSelector) UnmarshalJSON(b []byte) error {
	var idx int
	if err := json.Unmarshal(b, &idx); err == nil {
		if idx < 0 {
			return fmt.Errorf("workspace index cannot be negative: %d", idx)
		}
		*w = WorkspaceSelector{Index: idx}
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("workspace must be an index or a name: %s", string(b))
	}
	return w.UnmarshalText([]byte(name))
}

func (w WorkspaceSelector) MarshalYAML() (interface{}, error) {
	if w.ByName {
		return w.Name, nil
	}
	return w.Index, nil
}

func (w *WorkspaceSelector) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: workspace must be an index or a name", value.Line)
	}
	return w.UnmarshalText([]byte(value.Value))
}

// normalizePlacement lower-cases a placement and reports whether it is one
// of the allowed values.
func normalizePlacement(p string, allowed ...string) (string, bool) {
	p = strings.ToLower(strings.TrimSpace(p))
	for _, a := range allowed {
		if p == a {
			return p, true
		}
	}
	return p, false
}
