package model

import (
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// Kind selects the display/edit component for a descriptor.
type Kind string

const (
	KindText           Kind = "text"
	KindTextArea       Kind = "textarea"
	KindCheckbox       Kind = "checkbox"
	KindInteger        Kind = "integer"
	KindSelect         Kind = "select"
	KindMultiSelect    Kind = "multiselect"
	KindSelectionTable Kind = "selection-table"
	KindGroup          Kind = "group"
)

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single declarative constraint. Numeric bounds
// and length limits encode their threshold in Params["value"], pattern rules
// keep the expression in Params["pattern"], and any rule may override its
// error text through Params["message"].
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Required is shorthand for a required rule.
func Required() ValidationRule {
	return ValidationRule{Kind: ValidationRuleRequired}
}

// Rule builds a rule carrying a single "value" parameter.
func Rule(kind, value string) ValidationRule {
	return ValidationRule{Kind: kind, Params: map[string]string{"value": value}}
}

// Pattern builds a pattern rule with an optional custom message.
func Pattern(expr, message string) ValidationRule {
	params := map[string]string{"pattern": expr}
	if message != "" {
		params["message"] = message
	}
	return ValidationRule{Kind: ValidationRulePattern, Params: params}
}

// FormatFunc converts a stored value into the value shown to the user.
type FormatFunc func(stored any) any

// ParseFunc converts a user-entered value back into its stored form.
type ParseFunc func(display any) (any, error)

// NormalizeFunc post-processes a parsed value with access to every current
// value in the session.
type NormalizeFunc func(value any, all valuebag.Bag) any

// ValidateFunc returns an error message, or "" when value is acceptable.
type ValidateFunc func(value any, all valuebag.Bag) string

// Option is a choice offered by select and multiselect components.
type Option struct {
	Value       string `json:"value" yaml:"value"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Label returns the display text for the option.
func (o Option) Label() string {
	if o.Text != "" {
		return o.Text
	}
	return o.Value
}

// Layout carries presentation hints. Renderers may ignore any of them.
type Layout struct {
	Width     int    `json:"width,omitempty" yaml:"width,omitempty"`
	Inline    bool   `json:"inline,omitempty" yaml:"inline,omitempty"`
	Rows      int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Order     int    `json:"order,omitempty" yaml:"order,omitempty"`
	Section   string `json:"section,omitempty" yaml:"section,omitempty"`
	InputType string `json:"inputType,omitempty" yaml:"inputType,omitempty"`
}

// FieldDescriptor declares one editable or displayable attribute.
type FieldDescriptor struct {
	// Name is a dotted path into the value bag, relative to the parent for
	// descriptors nested in a group.
	Name        string
	Label       string
	Kind        Kind
	Help        string
	Placeholder string

	Format    FormatFunc
	Parse     ParseFunc
	Normalize NormalizeFunc
	Validate  ValidateFunc
	Rules     []ValidationRule

	Options []Option
	Nested  []FieldDescriptor
	Table   TableInput

	Layout Layout
	// Exclude drops the field from the outgoing submission payload.
	Exclude  bool
	Metadata map[string]string
}

// DisplayLabel returns Label or a label derived from the last path segment.
func (d FieldDescriptor) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	p, err := valuebag.ParsePath(d.Name)
	if err != nil {
		return d.Name
	}
	segments := p.Segments()
	return DefaultLabeler(segments[len(segments)-1])
}

// HasRule reports whether a declarative rule of kind is attached.
func (d FieldDescriptor) HasRule(kind string) bool {
	for _, rule := range d.Rules {
		if rule.Kind == kind {
			return true
		}
	}
	return false
}

// Form groups a descriptor list with identifying metadata so decorators can
// look up overlays by ID.
type Form struct {
	ID          string
	Title       string
	Descriptors Descriptors
	Metadata    map[string]string
}

// Clone copies the form, its descriptors and metadata maps. Function values
// and table inputs are shared.
func (f Form) Clone() Form {
	out := f
	out.Descriptors = f.Descriptors.Clone()
	out.Metadata = cloneStrings(f.Metadata)
	return out
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
