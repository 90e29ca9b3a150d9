package label

import "strings"

// Spec represents a desired label definition
type Spec struct {
	Name        string   `yaml:"name" json:"name"`
	Color       string   `yaml:"color" json:"color"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Remote represents a label as it currently exists on the remote repository
type Remote struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NormalizeColor lowercases a hex color and strips an optional leading '#'
func NormalizeColor(color string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#"))
}

// normalize returns a copy of the spec with its color in canonical form
func (s Spec) normalize() Spec {
	s.Color = NormalizeColor(s.Color)
	return s
}
