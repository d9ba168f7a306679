package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeclined is joined with the last submit error when the user chose
	// not to retry.
	ErrDeclined = errors.New("tui: submit declined")
)
