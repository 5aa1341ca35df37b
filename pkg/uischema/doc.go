// Package uischema loads YAML/JSON overlays that adjust descriptor labels,
// help text and layout without touching the Go descriptor tables. Overlays
// are applied through Decorator, which implements model.Decorator.
package uischema
