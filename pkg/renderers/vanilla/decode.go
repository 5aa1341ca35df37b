package vanilla

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/widgets"
)

// FilterPrefix prefixes the search input posted with each selection table.
const FilterPrefix = "_filter."

// Queries reads the table filters posted alongside a form.
func Queries(values url.Values) map[string]model.TableQuery {
	out := make(map[string]model.TableQuery)
	for key, vals := range values {
		name, ok := strings.CutPrefix(key, FilterPrefix)
		if !ok || name == "" || len(vals) == 0 {
			continue
		}
		out[name] = model.TableQuery{Filter: vals[0]}
	}
	return out
}

// Decode applies posted values to an open session. Checkboxes count as
// unchecked when absent. Selection tables only post the rows that were
// drawn, so rows hidden by the posted filter keep their current selection;
// a table whose rows are still loading, or whose selection did not change,
// is left alone.
// Parse failures stay on the session as field errors; any other failure is
// returned.
func Decode(session *form.Form, values url.Values, registry *widgets.Registry) error {
	if session == nil {
		return fmt.Errorf("vanilla: decode without an open session")
	}
	if registry == nil {
		registry = widgets.NewRegistry()
	}
	queries := Queries(values)

	for _, state := range session.Fields() {
		name := state.Name
		desc := state.Descriptor
		var display any
		switch registry.Resolve(desc) {
		case model.KindGroup:
			continue
		case model.KindCheckbox:
			display = values.Has(name)
		case model.KindMultiSelect:
			display = append([]string{}, values[name]...)
		case model.KindSelectionTable:
			if desc.Table == nil {
				continue
			}
			selected, changed := decodeSelection(desc.Table, state.Display, values[name], queries[name])
			if !changed {
				continue
			}
			display = selected
		default:
			if !values.Has(name) {
				continue
			}
			display = values.Get(name)
		}

		err := session.Change(name, display)
		var perr *form.ParseError
		if err != nil && !errors.As(err, &perr) {
			return fmt.Errorf("vanilla: decode %s: %w", name, err)
		}
	}
	return nil
}

func decodeSelection(input model.TableInput, current any, posted []string, query model.TableQuery) (selection.Map, bool) {
	previous := selection.FromValue(current)
	view := input.Table(previous, query)
	if view.Loading {
		return previous, false
	}

	out := selection.Map{}
	for id, on := range previous {
		if on {
			out[id] = true
		}
	}
	for _, row := range view.Rows {
		delete(out, row.ID)
	}
	for _, id := range posted {
		if id != "" {
			out[id] = true
		}
	}
	return out, !out.Equal(previous)
}
