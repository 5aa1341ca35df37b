package valuebag

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidPath is returned when a dotted field name cannot address a value.
var ErrInvalidPath = errors.New("valuebag: invalid path")

// Path addresses a value inside a Bag. It is parsed once from a dotted name
// such as "patient.contact.name" so malformed names fail when descriptors are
// registered instead of when a value is read.
type Path struct {
	segments []string
}

// ParsePath validates and splits a dotted name. Segments must be non-empty and
// free of surrounding whitespace.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, errors.Wrap(ErrInvalidPath, "empty path")
	}
	parts := strings.Split(raw, ".")
	for idx, part := range parts {
		if part == "" {
			return Path{}, errors.Wrapf(ErrInvalidPath, "%q has an empty segment at position %d", raw, idx)
		}
		if strings.TrimSpace(part) != part {
			return Path{}, errors.Wrapf(ErrInvalidPath, "%q has whitespace around segment %q", raw, part)
		}
	}
	return Path{segments: parts}, nil
}

// MustPath parses raw and panics on failure. Intended for package-level
// descriptor tables.
func MustPath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the dotted form.
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// IsZero reports whether the path was never parsed.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Segments returns a copy of the individual path segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Root returns the first segment, which is the top-level key in a Bag.
func (p Path) Root() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// Join appends child to p.
func (p Path) Join(child Path) Path {
	out := make([]string, 0, len(p.segments)+len(child.segments))
	out = append(out, p.segments...)
	out = append(out, child.segments...)
	return Path{segments: out}
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for idx, segment := range prefix.segments {
		if p.segments[idx] != segment {
			return false
		}
	}
	return true
}

func isIndex(segment string) (int, bool) {
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
