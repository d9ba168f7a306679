package store

import (
	"errors"
	"time"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// Status is the review state of a release request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusError    Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusError:
		return true
	default:
		return false
	}
}

// ErrNotFound is returned when a request or file id is unknown.
var ErrNotFound = errors.New("store: not found")

// Request is one stored release request.
type Request struct {
	ID           string
	Owner        string
	Form         string
	Status       Status
	Record       controller.Record
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// File describes one uploaded payload.
type File struct {
	ID        string
	Name      string
	MediaType string
	Size      int64
	Path      string
	CreatedAt time.Time
}
