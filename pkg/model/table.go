package model

// ColumnHeader describes one table column for renderers.
type ColumnHeader struct {
	Name   string `json:"name"`
	Header string `json:"header"`
	Width  int    `json:"width,omitempty"`
	Align  string `json:"align,omitempty"`
}

// TableRow is one rendered row. Cells hold caller-formatted text and follow
// the column order.
type TableRow struct {
	ID       string   `json:"id"`
	Cells    []string `json:"cells"`
	Selected bool     `json:"selected"`
}

// TableQuery carries presentation-only state: sort column, direction and a
// free-text filter. Zero values fall back to the table defaults.
type TableQuery struct {
	SortColumn string
	Descending *bool
	Filter     string
}

// TableView is the projection a renderer draws for a selection-table field.
type TableView struct {
	Columns        []ColumnHeader `json:"columns"`
	Rows           []TableRow     `json:"rows"`
	SortColumn     string         `json:"sortColumn,omitempty"`
	SortDescending bool           `json:"sortDescending,omitempty"`
	Filter         string         `json:"filter,omitempty"`
	Loading        bool           `json:"loading,omitempty"`
	SelectedCount  int            `json:"selectedCount"`
	// Stale lists selected ids that no longer match a row.
	Stale []string `json:"stale,omitempty"`
}

// TableInput is implemented by selection-table components. The selection
// argument is the displayed value of the field (row id to selected flag).
type TableInput interface {
	Table(selection map[string]bool, query TableQuery) TableView
}
