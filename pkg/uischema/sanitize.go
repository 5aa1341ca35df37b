package uischema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policiesOnce sync.Once
	iconPolicy   *bluemonday.Policy
	helpPolicy   *bluemonday.Policy
)

// sanitizeIcon keeps inline SVG icon markup and strips everything else.
func sanitizeIcon(raw string) string {
	return sanitizeWith(iconSanitizer(), raw)
}

// sanitizeHelp keeps basic inline formatting and links in help text.
func sanitizeHelp(raw string) string {
	policiesOnce.Do(buildPolicies)
	return sanitizeWith(helpPolicy, raw)
}

func sanitizeWith(policy *bluemonday.Policy, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(trimmed))
}

func iconSanitizer() *bluemonday.Policy {
	policiesOnce.Do(buildPolicies)
	return iconPolicy
}

func buildPolicies() {
	icon := bluemonday.StrictPolicy()
	icon.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "title")
	icon.AllowAttrs("xmlns", "viewBox", "width", "height", "fill", "stroke", "stroke-width", "aria-hidden", "role", "class").OnElements("svg")
	for _, el := range []string{"g", "path", "circle", "rect", "line", "polyline", "polygon"} {
		icon.AllowAttrs("d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2", "points", "fill", "stroke", "stroke-width", "class").OnElements(el)
	}
	iconPolicy = icon

	help := bluemonday.StrictPolicy()
	help.AllowElements("b", "strong", "i", "em", "code", "br")
	help.AllowAttrs("href").OnElements("a")
	help.AllowURLSchemes("https", "mailto")
	help.RequireNoFollowOnLinks(true)
	helpPolicy = help
}
