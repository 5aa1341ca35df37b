// Package model defines the declarative field descriptors consumed by the form
// engine and its renderers. A descriptor names a value in the edit session's
// value bag by dotted path, selects how it is displayed and edited through a
// Kind discriminant, and optionally supplies format/parse/normalize transforms
// plus a validator that may read sibling values. Declarative ValidationRule
// entries (required, min/max, minLength/maxLength, pattern) cover the common
// constraints so callers only write Validate for cross-field checks.
//
// Descriptor lists are static configuration: build them once at package scope
// and never mutate them at runtime. Decorators (UI schema overlays, widget
// resolution) return modified copies.
package model
