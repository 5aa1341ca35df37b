package valuebag

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/mohae/deepcopy"
)

// Bag holds field values keyed by name. Nested objects are represented as
// map[string]any and lists as []any or typed slices supplied by callers.
type Bag map[string]any

// New returns an empty bag.
func New() Bag {
	return make(Bag)
}

// FromMap deep copies src into a new bag so later edits never reach the
// caller's data.
func FromMap(src map[string]any) Bag {
	if len(src) == 0 {
		return New()
	}
	return Bag(src).Clone()
}

// Clone returns a deep copy of the bag.
func (b Bag) Clone() Bag {
	if b == nil {
		return New()
	}
	copied, ok := deepcopy.Copy(map[string]any(b)).(map[string]any)
	if !ok || copied == nil {
		return New()
	}
	return Bag(copied)
}

// Get resolves p, walking nested maps and list indices.
func (b Bag) Get(p Path) (any, bool) {
	if b == nil || p.IsZero() {
		return nil, false
	}
	var current any = map[string]any(b)
	for _, segment := range p.segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case Bag:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, ok := isIndex(segment)
			if !ok || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Lookup parses raw and returns the addressed value, or nil when the path is
// malformed or absent. Useful inside validators that read sibling fields.
func (b Bag) Lookup(raw string) any {
	p, err := ParsePath(raw)
	if err != nil {
		return nil
	}
	value, _ := b.Get(p)
	return value
}

// Set writes value at p, creating intermediate maps as needed. Numeric
// segments index into existing []any lists, growing them when required.
func (b Bag) Set(p Path, value any) error {
	if b == nil {
		return errors.New("valuebag: bag is nil")
	}
	if p.IsZero() {
		return errors.Wrap(ErrInvalidPath, "empty path")
	}
	_, err := setIn(map[string]any(b), p.segments, value)
	if err != nil {
		return errors.Wrapf(err, "valuebag: set %s", p)
	}
	return nil
}

// Delete removes the value at p when present.
func (b Bag) Delete(p Path) {
	if b == nil || p.IsZero() {
		return
	}
	parentPath := Path{segments: p.segments[:len(p.segments)-1]}
	last := p.segments[len(p.segments)-1]
	var parent any = map[string]any(b)
	if !parentPath.IsZero() {
		var ok bool
		parent, ok = b.Get(parentPath)
		if !ok {
			return
		}
	}
	if node, ok := parent.(map[string]any); ok {
		delete(node, last)
	}
}

// Merge returns a deep copy of b with other laid on top. Nested maps merge
// recursively; every other value from other replaces the one in b.
func (b Bag) Merge(other Bag) Bag {
	out := b.Clone()
	for key, value := range other.Clone() {
		out[key] = mergeValue(out[key], value)
	}
	return out
}

// Keys returns the top-level keys.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for key := range b {
		keys = append(keys, key)
	}
	return keys
}

func mergeValue(base, overlay any) any {
	baseMap, okBase := base.(map[string]any)
	overlayMap, okOverlay := overlay.(map[string]any)
	if !okBase || !okOverlay {
		return overlay
	}
	for key, value := range overlayMap {
		baseMap[key] = mergeValue(baseMap[key], value)
	}
	return baseMap
}

func setIn(container any, segments []string, value any) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch node := container.(type) {
	case Bag:
		return setIn(map[string]any(node), segments, value)
	case map[string]any:
		if last {
			node[segment] = value
			return node, nil
		}
		child := node[segment]
		if child == nil {
			if _, ok := isIndex(segments[1]); ok {
				child = []any{}
			} else {
				child = make(map[string]any)
			}
		}
		updated, err := setIn(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[segment] = updated
		return node, nil

	case []any:
		idx, ok := isIndex(segment)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidPath, "expected list index, got %q", segment)
		}
		if len(node) <= idx {
			node = append(node, make([]any, idx+1-len(node))...)
		}
		if last {
			node[idx] = value
			return node, nil
		}
		child := node[idx]
		if child == nil {
			child = make(map[string]any)
		}
		updated, err := setIn(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil

	default:
		return nil, errors.Wrapf(ErrInvalidPath, "cannot descend into %T at segment %q", container, segment)
	}
}

// Len reports the length of lists, maps and strings. Nil and scalar values
// report zero.
func Len(value any) int {
	if value == nil {
		return 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return Len(rv.Elem().Interface())
	default:
		return 0
	}
}

// IsEmpty reports whether value should count as "not provided".
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
