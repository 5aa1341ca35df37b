package uischema

import "strings"

// Store keeps the parsed form overlays. It is safe for concurrent readers
// when treated as immutable after construction.
type Store struct {
	forms map[string]Overlay
}

// Overlay holds the presentation overrides for one form id.
type Overlay struct {
	ID       string
	Source   string
	Form     FormConfig
	Sections []SectionConfig
	Fields   map[string]FieldConfig
}

// FormConfig captures form-wide presentation.
type FormConfig struct {
	Title    string            `json:"title" yaml:"title"`
	Subtitle string            `json:"subtitle" yaml:"subtitle"`
	Metadata map[string]string `json:"metadata" yaml:"metadata"`
}

// SectionConfig groups related fields under a heading.
type SectionConfig struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Order       *int   `json:"order,omitempty" yaml:"order,omitempty"`
}

// FieldConfig customises one descriptor. Zero values leave the descriptor
// untouched.
type FieldConfig struct {
	Section     string            `json:"section" yaml:"section"`
	Order       *int              `json:"order,omitempty" yaml:"order,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Help        string            `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Kind        string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Width       int               `json:"width,omitempty" yaml:"width,omitempty"`
	Rows        int               `json:"rows,omitempty" yaml:"rows,omitempty"`
	Inline      *bool             `json:"inline,omitempty" yaml:"inline,omitempty"`
	InputType   string            `json:"inputType,omitempty" yaml:"inputType,omitempty"`
	Icon        string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	RawPath     string            `json:"-" yaml:"-"`
}

// NormalizeFieldPath converts overlay keys written with brackets or slashes
// ("genotypes[I1]", "patient/contact/name") into dotted descriptor paths.
func NormalizeFieldPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	normalised := strings.NewReplacer("[", ".", "]", "", "/", ".").Replace(trimmed)
	for strings.Contains(normalised, "..") {
		normalised = strings.ReplaceAll(normalised, "..", ".")
	}
	return strings.Trim(normalised, ".")
}
