package selection

import (
	"sort"

	"github.com/hashicorp/go-set/v2"
)

// Map is the displayed value of a selection-table field: row id to selected
// flag. A missing key means not selected.
type Map map[string]bool

// Toggle returns a copy of m with id flipped. The receiver is never modified.
func (m Map) Toggle(id string) Map {
	return m.With(id, !m[id])
}

// With returns a copy of m with id set to selected.
func (m Map) With(id string, selected bool) Map {
	out := m.clone()
	out[id] = selected
	return out
}

// Equal compares the selected keys only; false entries and missing keys are
// equivalent.
func (m Map) Equal(other Map) bool {
	return set.From(m.Keys()).Equal(set.From(other.Keys()))
}

// Keys returns the selected ids in lexical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for key, selected := range m {
		if selected {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// FromValue converts a stored or displayed value into a Map. It accepts Map,
// map[string]bool and map[string]any holding booleans; anything else yields
// an empty map.
func FromValue(value any) Map {
	switch v := value.(type) {
	case Map:
		return v.clone()
	case map[string]bool:
		return Map(v).clone()
	case map[string]any:
		out := make(Map, len(v))
		for key, raw := range v {
			if flag, ok := raw.(bool); ok {
				out[key] = flag
			}
		}
		return out
	default:
		return Map{}
	}
}

func (m Map) clone() Map {
	out := make(Map, len(m))
	for key, value := range m {
		out[key] = value
	}
	return out
}

// Selected filters rows by m. It walks rows, never the keys of m, so ids with
// no matching row contribute nothing. Row order is preserved.
func Selected[R any](rows []R, id func(R) string, m Map) []R {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if m[id(row)] {
			out = append(out, row)
		}
	}
	return out
}

// Stale reports selected ids that match no row, in lexical order.
func Stale[R any](rows []R, id func(R) string, m Map) []string {
	present := set.New[string](len(rows))
	for _, row := range rows {
		present.Insert(id(row))
	}
	var out []string
	for _, key := range m.Keys() {
		if !present.Contains(key) {
			out = append(out, key)
		}
	}
	return out
}

// DuplicateIDs reports ids produced by more than one row. Selecting such an
// id selects every row that shares it.
func DuplicateIDs[R any](rows []R, id func(R) string) []string {
	seen := set.New[string](len(rows))
	dups := set.New[string](0)
	for _, row := range rows {
		key := id(row)
		if !seen.Insert(key) {
			dups.Insert(key)
		}
	}
	out := dups.Slice()
	sort.Strings(out)
	return out
}
