package model

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"

	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

var (
	// ErrDuplicateField is returned when two descriptors resolve to the same path.
	ErrDuplicateField = errors.New("model: duplicate field name")
	// ErrInvalidDescriptor flags a descriptor whose kind lacks required config.
	ErrInvalidDescriptor = errors.New("model: invalid descriptor")
)

// Descriptors is an ordered descriptor list.
type Descriptors []FieldDescriptor

// Entry is a descriptor resolved to an absolute path. Parent is the zero Path
// for top-level descriptors.
type Entry struct {
	Descriptor FieldDescriptor
	Path       valuebag.Path
	Parent     valuebag.Path
	Depth      int
}

// Flatten resolves every descriptor, including nested group members, to an
// absolute path. It fails on malformed names, duplicate paths and kinds
// missing their configuration.
func (d Descriptors) Flatten() ([]Entry, error) {
	seen := set.New[string](len(d))
	var out []Entry
	if err := flattenInto(d, valuebag.Path{}, 0, seen, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Check validates the list without keeping the flattened result.
func (d Descriptors) Check() error {
	_, err := d.Flatten()
	return err
}

// Names returns the absolute dotted names in declaration order. Malformed
// lists return nil.
func (d Descriptors) Names() []string {
	entries, err := d.Flatten()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Path.String())
	}
	return names
}

// Find returns the descriptor registered under the absolute dotted name.
func (d Descriptors) Find(name string) (FieldDescriptor, bool) {
	entries, err := d.Flatten()
	if err != nil {
		return FieldDescriptor{}, false
	}
	for _, entry := range entries {
		if entry.Path.String() == name {
			return entry.Descriptor, true
		}
	}
	return FieldDescriptor{}, false
}

// Clone copies the list and the slices/maps inside each descriptor.
func (d Descriptors) Clone() Descriptors {
	if d == nil {
		return nil
	}
	out := make(Descriptors, len(d))
	for idx, desc := range d {
		desc.Rules = append([]ValidationRule(nil), desc.Rules...)
		desc.Options = append([]Option(nil), desc.Options...)
		desc.Metadata = cloneStrings(desc.Metadata)
		if desc.Nested != nil {
			desc.Nested = Descriptors(desc.Nested).Clone()
		}
		out[idx] = desc
	}
	return out
}

func flattenInto(list Descriptors, parent valuebag.Path, depth int, seen *set.Set[string], out *[]Entry) error {
	for _, desc := range list {
		rel, err := valuebag.ParsePath(desc.Name)
		if err != nil {
			return errors.Wrapf(err, "model: descriptor %q", desc.Name)
		}
		abs := rel
		if !parent.IsZero() {
			abs = parent.Join(rel)
		}
		if !seen.Insert(abs.String()) {
			return errors.Wrapf(ErrDuplicateField, "%q", abs.String())
		}
		if err := checkKind(desc); err != nil {
			return errors.Wrapf(err, "model: descriptor %q", abs.String())
		}
		*out = append(*out, Entry{Descriptor: desc, Path: abs, Parent: parent, Depth: depth})
		if len(desc.Nested) > 0 {
			if err := flattenInto(desc.Nested, abs, depth+1, seen, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkKind(desc FieldDescriptor) error {
	switch desc.Kind {
	case KindSelectionTable:
		if desc.Table == nil {
			return errors.Wrap(ErrInvalidDescriptor, "selection-table requires a table input")
		}
	case KindSelect, KindMultiSelect:
		if len(desc.Options) == 0 {
			return errors.Wrapf(ErrInvalidDescriptor, "%s requires options", desc.Kind)
		}
	case KindGroup:
		if len(desc.Nested) == 0 {
			return errors.Wrap(ErrInvalidDescriptor, "group requires nested descriptors")
		}
	}
	if len(desc.Nested) > 0 && desc.Kind != "" && desc.Kind != KindGroup {
		return errors.Wrapf(ErrInvalidDescriptor, "only groups may nest descriptors (kind %s)", desc.Kind)
	}
	return nil
}
