package controller

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/goliatone/go-releaseform/pkg/condition"
	"github.com/goliatone/go-releaseform/pkg/model"
)

// FileStore uploads a file payload and returns a stable reference to it.
type FileStore interface {
	Upload(ctx context.Context, name, mediaType string, data []byte) (string, error)
}

// RecordSubmitter persists a finished record for ownerID and returns its id.
type RecordSubmitter interface {
	SubmitRecord(ctx context.Context, ownerID string, rec Record) (string, error)
}

// Record is the plain value tree handed to a RecordSubmitter: section name to
// ordered entries, each a field name to value map. Values are strings,
// booleans, or file references (nil for an absent file).
type Record struct {
	Form     string                      `json:"form"`
	Sections map[string][]map[string]any `json:"sections"`
	Extra    map[string]any              `json:"extra,omitempty"`
}

// Receipt describes a successful submission.
type Receipt struct {
	ID       string
	Record   Record
	Uploaded int
}

type pendingUpload struct {
	section string
	entry   EntryID
	field   int
	name    string
	file    model.File
}

// Submit validates the store, uploads pending files one at a time, and hands
// the resulting record to the RecordSubmitter. On success the controller is
// reset. On failure entries keep their values; files uploaded before the
// failure keep their reference so a retry does not upload them again.
func (c *Controller) Submit(ctx context.Context) (Receipt, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Receipt{}, ErrBusy
	}
	if keys, err := c.checkLocked(); err != nil {
		if len(keys) > 0 {
			c.blink(keys)
		}
		c.mu.Unlock()
		c.logger.Warn("submit blocked", "form", c.form.ID, "error", err)
		return Receipt{}, err
	}
	if c.records == nil {
		c.mu.Unlock()
		return Receipt{}, ErrNoSubmitter
	}
	uploads := c.pendingUploadsLocked()
	if len(uploads) > 0 && c.files == nil {
		c.mu.Unlock()
		return Receipt{}, ErrNoFileStore
	}
	c.busy = true
	owner := c.owner
	c.mu.Unlock()

	for _, up := range uploads {
		ref, err := c.files.Upload(ctx, up.file.Name, up.file.MediaType, up.file.Data)
		if err != nil {
			return Receipt{}, c.fail("upload", fmt.Errorf("%s: %w", Key(up.section, up.entry, up.name), err))
		}
		c.mu.Lock()
		c.commitLocked(up, ref)
		c.mu.Unlock()
	}

	c.mu.Lock()
	rec := c.recordLocked()
	c.mu.Unlock()

	id, err := c.records.SubmitRecord(ctx, owner, rec)
	if err != nil {
		return Receipt{}, c.fail("submit record", err)
	}

	c.mu.Lock()
	c.busy = false
	c.initialize()
	c.mu.Unlock()

	c.logger.Info("record submitted", "form", c.form.ID, "id", id, "uploaded", len(uploads))
	return Receipt{ID: id, Record: rec, Uploaded: len(uploads)}, nil
}

// Check runs the submit-time checks without submitting. Unlike a blocked
// Submit it leaves Highlights untouched.
func (c *Controller) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.checkLocked()
	return err
}

func (c *Controller) fail(op string, err error) error {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.logger.Error("submit failed", "form", c.form.ID, "op", op, "error", err)
	return &TransportError{Op: op, Err: err}
}

// checkLocked enforces validity first, then requiredness. Every empty
// required field is reported, not only the first. keys lists the fields that
// blocked the check.
func (c *Controller) checkLocked() (keys []string, err error) {
	if invalid := c.invalidKeys(); len(invalid) > 0 {
		return invalid, &ValidationError{Keys: invalid}
	}

	rules := c.conditionContextLocked()
	var required, missing []FieldRef
	for _, state := range c.sections {
		for _, e := range state.entries {
			rules.Entry = ruleValues(state.schema, e)
			for idx, field := range state.schema.Fields {
				ok, err := c.isRequired(field, rules)
				if err != nil {
					return nil, fmt.Errorf("controller: requiredWhen on %s.%s: %w", state.schema.Name, field.Name, err)
				}
				if !ok || !e.fields[idx].Value.IsEmpty() {
					continue
				}
				ref := FieldRef{Section: state.schema.Name, Entry: e.id, Field: field.Name, Label: field.DisplayLabel()}
				if field.Kind == model.FieldKindFile {
					missing = append(missing, ref)
				} else {
					required = append(required, ref)
				}
			}
		}
	}
	if len(required) == 0 && len(missing) == 0 {
		return nil, nil
	}

	var errs []error
	if len(required) > 0 {
		errs = append(errs, &RequiredFieldError{Fields: required})
		for _, ref := range required {
			keys = append(keys, ref.Key())
		}
	}
	if len(missing) > 0 {
		errs = append(errs, &MissingFileError{Fields: missing})
		for _, ref := range missing {
			keys = append(keys, ref.Key())
		}
	}
	if len(errs) == 1 {
		return keys, errs[0]
	}
	return keys, errors.Join(errs...)
}

func (c *Controller) isRequired(field model.FieldSchema, rules condition.Context) (bool, error) {
	if !field.Required {
		return false, nil
	}
	if field.RequiredWhen == "" {
		return true, nil
	}
	return c.evaluator.Eval(field.RequiredWhen, rules)
}

// conditionContextLocked exposes the first entry of every section as
// "<section>.<field>". Entry is left for the caller to fill per entry.
func (c *Controller) conditionContextLocked() condition.Context {
	values := make(map[string]any)
	for _, state := range c.sections {
		if len(state.entries) == 0 {
			continue
		}
		for name, value := range ruleValues(state.schema, state.entries[0]) {
			values[state.schema.Name+"."+name] = value
		}
	}
	return condition.Context{Values: values, Extras: maps.Clone(c.extras)}
}

// ruleValues maps an entry's fields to rule inputs. File fields resolve to
// whether a file is present.
func ruleValues(schema model.Section, e *entry) map[string]any {
	values := make(map[string]any, len(schema.Fields))
	for idx, field := range schema.Fields {
		value := e.fields[idx].Value
		if field.Kind == model.FieldKindFile {
			values[field.Name] = !value.IsEmpty()
			continue
		}
		values[field.Name] = value.Plain()
	}
	return values
}

// Required reports whether a field of one entry must be filled before
// submit, evaluating its requiredWhen rule against the current values.
func (c *Controller) Required(sectionName string, id EntryID, fieldName string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, e, err := c.lookup(sectionName, id)
	if err != nil {
		return false, err
	}
	idx := state.schema.FieldIndex(fieldName)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s.%s", ErrUnknownField, sectionName, fieldName)
	}
	rules := c.conditionContextLocked()
	rules.Entry = ruleValues(state.schema, e)
	return c.isRequired(state.schema.Fields[idx], rules)
}

func (c *Controller) pendingUploadsLocked() []pendingUpload {
	var uploads []pendingUpload
	for _, state := range c.sections {
		for _, e := range state.entries {
			for idx, field := range state.schema.Fields {
				file, ok := e.fields[idx].Value.File()
				if !ok || file.Committed() || len(file.Data) == 0 {
					continue
				}
				uploads = append(uploads, pendingUpload{section: state.schema.Name, entry: e.id, field: idx, name: field.Name, file: file})
			}
		}
	}
	return uploads
}

// commitLocked swaps the uploaded payload for its reference.
func (c *Controller) commitLocked(up pendingUpload, ref string) {
	state := c.byName[up.section]
	_, e := state.find(up.entry)
	if e == nil {
		return
	}
	e.fields[up.field].Value = model.Attach(model.File{Name: up.file.Name, MediaType: up.file.MediaType, Ref: ref})
}

func (c *Controller) recordLocked() Record {
	rec := Record{
		Form:     c.form.ID,
		Sections: make(map[string][]map[string]any, len(c.sections)),
	}
	if len(c.extras) > 0 {
		rec.Extra = maps.Clone(c.extras)
	}
	for _, state := range c.sections {
		rows := make([]map[string]any, 0, len(state.entries))
		for _, e := range state.entries {
			row := make(map[string]any, len(state.schema.Fields))
			for idx, field := range state.schema.Fields {
				row[field.Name] = e.fields[idx].Value.Plain()
			}
			rows = append(rows, row)
		}
		rec.Sections[state.schema.Name] = rows
	}
	return rec
}
