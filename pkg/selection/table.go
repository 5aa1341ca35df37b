package selection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

// Column declares one table column. Format receives the whole row so a cell
// may combine several attributes; Value is the sort key and defaults to the
// formatted text.
type Column[R any] struct {
	Name   string
	Header string
	Width  int
	Align  string
	Value  func(R) any
	Format func(R) string
}

func (c Column[R]) text(row R) string {
	if c.Format != nil {
		return c.Format(row)
	}
	if c.Value != nil {
		if v := c.Value(row); v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func (c Column[R]) key(row R) any {
	if c.Value != nil {
		return c.Value(row)
	}
	return c.text(row)
}

// Table projects rows into a sortable, filterable view. Sorting and
// filtering only change the displayed order; they never touch the rows or
// any selection.
type Table[R any] struct {
	Columns     []Column[R]
	ID          func(R) string
	DefaultSort string
	Descending  bool
}

// View renders rows. A nil selection produces a plain table with every row
// unselected.
func (t Table[R]) View(rows []R, selection Map, query model.TableQuery) model.TableView {
	sortColumn := query.SortColumn
	if sortColumn == "" {
		sortColumn = t.DefaultSort
	}
	descending := t.Descending
	if query.Descending != nil {
		descending = *query.Descending
	}

	view := model.TableView{
		Columns:        make([]model.ColumnHeader, 0, len(t.Columns)),
		SortColumn:     sortColumn,
		SortDescending: descending,
		Filter:         query.Filter,
	}
	for _, col := range t.Columns {
		view.Columns = append(view.Columns, model.ColumnHeader{Name: col.Name, Header: col.Header, Width: col.Width, Align: col.Align})
	}

	ordered := slices.Clone(rows)
	if col, ok := t.column(sortColumn); ok {
		slices.SortStableFunc(ordered, func(a, b R) int {
			c := compareKeys(col.key(a), col.key(b))
			if descending {
				return -c
			}
			return c
		})
	}

	needle := strings.ToLower(strings.TrimSpace(query.Filter))
	for _, row := range ordered {
		cells := make([]string, len(t.Columns))
		for idx, col := range t.Columns {
			cells[idx] = col.text(row)
		}
		if needle != "" && !matchesFilter(cells, needle) {
			continue
		}
		id := ""
		if t.ID != nil {
			id = t.ID(row)
		}
		selected := selection[id]
		if selected {
			view.SelectedCount++
		}
		view.Rows = append(view.Rows, model.TableRow{ID: id, Cells: cells, Selected: selected})
	}
	if t.ID != nil {
		view.Stale = Stale(rows, t.ID, selection)
	}
	return view
}

func (t Table[R]) column(name string) (Column[R], bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column[R]{}, false
}

func matchesFilter(cells []string, needle string) bool {
	for _, cell := range cells {
		if strings.Contains(strings.ToLower(cell), needle) {
			return true
		}
	}
	return false
}

// compareKeys orders numbers numerically, times chronologically and
// everything else by its printed form. Nil sorts first.
func compareKeys(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if x, ok := asFloat(a); ok {
		if y, ok := asFloat(b); ok {
			return cmp.Compare(x, y)
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
