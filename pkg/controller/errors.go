package controller

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSection is returned when a section name is not part of the form.
	ErrUnknownSection = errors.New("controller: unknown section")
	// ErrUnknownEntry is returned for entry ids that do not exist (or were removed).
	ErrUnknownEntry = errors.New("controller: unknown entry")
	// ErrUnknownField is returned when a section has no field with the given name.
	ErrUnknownField = errors.New("controller: unknown field")
	// ErrKindMismatch is returned when a value's kind does not fit the field.
	ErrKindMismatch = errors.New("controller: value kind does not match field kind")
	// ErrInvalidOption is returned when a select value is not one of its options.
	ErrInvalidOption = errors.New("controller: value is not a field option")
	// ErrRejectedFile is returned when a file's media type is not accepted. The
	// field reverts to the absent file.
	ErrRejectedFile = errors.New("controller: file type not accepted")
	// ErrInvalidTarget is returned when a reorder target equals its source.
	ErrInvalidTarget = errors.New("controller: invalid reorder target")
	// ErrBusy is returned by mutating calls while a submit is in flight.
	ErrBusy = errors.New("controller: submit in progress")
	// ErrNoSubmitter is returned by Submit when no RecordSubmitter is configured.
	ErrNoSubmitter = errors.New("controller: no record submitter configured")
	// ErrNoFileStore is returned by Submit when files need uploading but no
	// FileStore is configured.
	ErrNoFileStore = errors.New("controller: no file store configured")
)

// FieldRef points at one field of one entry.
type FieldRef struct {
	Section string
	Entry   EntryID
	Field   string
	Label   string
}

// Key returns the invalid-key form of the reference.
func (r FieldRef) Key() string {
	return Key(r.Section, r.Entry, r.Field)
}

func (r FieldRef) String() string {
	return fmt.Sprintf("%s[%d].%s", r.Section, r.Entry, r.Field)
}

// ValidationError reports fields that currently fail their validator.
type ValidationError struct {
	Keys []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("controller: %d field(s) fail validation: %s", len(e.Keys), strings.Join(e.Keys, ", "))
}

// RequiredFieldError reports required fields that are empty.
type RequiredFieldError struct {
	Fields []FieldRef
}

func (e *RequiredFieldError) Error() string {
	return "controller: required fields are empty: " + joinRefs(e.Fields)
}

// MissingFileError reports required file fields with neither a payload nor a
// stored reference.
type MissingFileError struct {
	Fields []FieldRef
}

func (e *MissingFileError) Error() string {
	return "controller: required files are missing: " + joinRefs(e.Fields)
}

// TransportError wraps a collaborator failure during Submit.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("controller: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func joinRefs(refs []FieldRef) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = ref.String()
	}
	return strings.Join(parts, ", ")
}
