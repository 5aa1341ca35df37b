package model

// Badge is a short colored label shown in a read-only view.
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Line is one labelled value in a read-only view. Label may be empty for
// free text such as comments.
type Line struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// Display is the read-only projection of a record's current value.
type Display struct {
	Title  string     `json:"title,omitempty"`
	Badges []Badge    `json:"badges,omitempty"`
	Lines  []Line     `json:"lines,omitempty"`
	Table  *TableView `json:"table,omitempty"`
	Empty  bool       `json:"empty,omitempty"`
}
