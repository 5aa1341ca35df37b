package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

var (
	// ErrUnknownField is returned when an operation names a path that has no
	// descriptor.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrInvalid matches any *ValidationError through errors.Is.
	ErrInvalid = errors.New("form: invalid values")
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not resolved.
	ErrSubmitInFlight = errors.New("form: submission already in flight")
)

// ValidationError is returned by Submit when at least one field is invalid.
// The submit function is not called in that case.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := SortedNames(e.Fields)
	return fmt.Sprintf("form: %d invalid field(s): %s", len(names), strings.Join(names, ", "))
}

// Is lets errors.Is(err, ErrInvalid) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// ParseError is returned by Change when a descriptor's parse function
// rejects the displayed value. The stored value is left untouched.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("form: parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RejectionError lets a submit function reject a submission with a message
// for the error panel and optional per-field messages. Field keys may use
// dotted, bracketed or JSON pointer notation.
type RejectionError struct {
	Message string
	Fields  map[string][]string
}

func (e *RejectionError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return "submission rejected"
}

// ErrorMapping splits a server error payload into field-level and
// form-level messages keyed by absolute descriptor paths.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing, trimming blanks and
// duplicates while keeping the first occurrence order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return cleanMessages(combined)
}

// MapErrorPayload resolves each payload key to the deepest descriptor path it
// names. Keys that match no descriptor become form-level messages.
func MapErrorPayload(descriptors model.Descriptors, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	known := set.From(descriptors.Names())

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := cleanMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		target := resolveErrorKey(key, known)
		if target == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[target] = append(mapping.Fields[target], messages...)
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func cleanMessages(messages []string) []string {
	seen := set.New[string](len(messages))
	var out []string
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || !seen.Insert(message) {
			continue
		}
		out = append(out, message)
	}
	return out
}

func resolveErrorKey(raw string, known *set.Set[string]) string {
	if formLevelKey(raw) {
		return ""
	}
	segments := splitErrorKey(raw)
	if len(segments) == 0 {
		return ""
	}

	unwrapped := trimEnvelope(segments)
	best := ""
	for _, candidate := range [][]string{segments, unwrapped, withoutIndexes(segments), withoutIndexes(unwrapped)} {
		match := deepestKnownPrefix(candidate, known)
		if strings.Count(match, ".") > strings.Count(best, ".") || best == "" {
			best = match
		}
	}
	return best
}

// splitErrorKey accepts "a.b", "a[0].b", "/a/0/b" and "#/a/b" notation.
func splitErrorKey(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func trimEnvelope(segments []string) []string {
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "request", "payload", "data", "attributes":
			segments = segments[1:]
			continue
		}
		break
	}
	return segments
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func deepestKnownPrefix(segments []string, known *set.Set[string]) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if known.Contains(candidate) {
			return candidate
		}
	}
	return ""
}

func formLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	}
	return false
}
