package selection

import (
	"log/slog"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

// Input binds a caller-owned row source to a selection-table field. It keeps
// no selection state: the field value is the list of selected rows and the
// displayed value is the matching Map.
type Input[R any] struct {
	table   Table[R]
	rows    func() []R
	loading func() bool
	logger  *slog.Logger
}

// InputOption configures an Input.
type InputOption[R any] func(*Input[R])

// WithDefaultSort sets the column and direction used when the query leaves
// them unset.
func WithDefaultSort[R any](column string, descending bool) InputOption[R] {
	return func(in *Input[R]) {
		in.table.DefaultSort = column
		in.table.Descending = descending
	}
}

// WithLoading exposes the row source's loading flag to renderers.
func WithLoading[R any](fn func() bool) InputOption[R] {
	return func(in *Input[R]) {
		in.loading = fn
	}
}

// WithInputLogger sets the logger used to report duplicate row ids.
func WithInputLogger[R any](logger *slog.Logger) InputOption[R] {
	return func(in *Input[R]) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// NewInput builds an Input. id must be total over R; rows is read on every
// call and may change between calls.
func NewInput[R any](id func(R) string, rows func() []R, columns []Column[R], opts ...InputOption[R]) *Input[R] {
	in := &Input[R]{
		table:  Table[R]{Columns: columns, ID: id},
		rows:   rows,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}
	return in
}

// Rows returns the current rows.
func (in *Input[R]) Rows() []R {
	if in.rows == nil {
		return nil
	}
	return in.rows()
}

// ID returns the id of row.
func (in *Input[R]) ID(row R) string {
	return in.table.ID(row)
}

// Table implements model.TableInput.
func (in *Input[R]) Table(selection map[string]bool, query model.TableQuery) model.TableView {
	rows := in.Rows()
	if dups := DuplicateIDs(rows, in.table.ID); len(dups) > 0 {
		in.logger.Warn("selection table rows share ids", "ids", dups)
	}
	view := in.table.View(rows, Map(selection), query)
	if in.loading != nil {
		view.Loading = in.loading()
	}
	return view
}

// Format turns a stored row list into its Map. Elements that are neither R
// nor *R are skipped.
func (in *Input[R]) Format(stored any) any {
	out := Map{}
	for _, row := range in.decode(stored) {
		out[in.table.ID(row)] = true
	}
	return out
}

// Parse turns a Map back into the selected rows of the current row source,
// in row order. Ids with no matching row are dropped.
func (in *Input[R]) Parse(display any) (any, error) {
	return Selected(in.Rows(), in.table.ID, FromValue(display)), nil
}

// Descriptor returns a selection-table descriptor wired to this input.
func (in *Input[R]) Descriptor(name, label string) model.FieldDescriptor {
	return model.FieldDescriptor{
		Name:   name,
		Label:  label,
		Kind:   model.KindSelectionTable,
		Format: in.Format,
		Parse:  in.Parse,
		Table:  in,
	}
}

func (in *Input[R]) decode(stored any) []R {
	switch v := stored.(type) {
	case nil:
		return nil
	case []R:
		return v
	case []*R:
		out := make([]R, 0, len(v))
		for _, row := range v {
			if row != nil {
				out = append(out, *row)
			}
		}
		return out
	case []any:
		out := make([]R, 0, len(v))
		for _, item := range v {
			switch row := item.(type) {
			case R:
				out = append(out, row)
			case *R:
				if row != nil {
					out = append(out, *row)
				}
			}
		}
		return out
	default:
		return nil
	}
}
