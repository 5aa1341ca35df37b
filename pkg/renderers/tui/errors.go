package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeclined is returned when the user answers no to a confirmation
	// prompt guarding an edit or a delete.
	ErrDeclined = errors.New("tui: declined")
)
