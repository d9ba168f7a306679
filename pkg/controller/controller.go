// Package controller implements the dynamic multi-section form controller: an
// in-memory store of repeated entries with per-field validity, a derived set of
// invalid keys, and a submit pipeline that hands a plain value tree to external
// collaborators.
package controller

import (
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-releaseform/pkg/condition"
	"github.com/goliatone/go-releaseform/pkg/condition/expr"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/sanitize"
)

// EntryID is the stable identity of an entry within its section. Ids are
// handed out in increasing order and never reused until the controller resets.
type EntryID int

// FieldState is the value and validity of one field of one entry.
type FieldState struct {
	Value model.Value
	Valid bool
}

type entry struct {
	id     EntryID
	fields []FieldState
}

type sectionState struct {
	schema  model.Section
	entries []*entry
	nextID  EntryID
}

// Controller owns the entry store of one form. It is safe for concurrent use,
// but mutating calls fail with ErrBusy while Submit performs I/O.
type Controller struct {
	mu       sync.Mutex
	form     model.Form
	sections []*sectionState
	byName   map[string]*sectionState
	busy     bool

	owner     string
	extras    map[string]any
	files     FileStore
	records   RecordSubmitter
	logger    *slog.Logger
	sanitize  sanitize.Func
	evaluator condition.Evaluator

	now           func() time.Time
	blinkDuration time.Duration
	blinkKeys     []string
	blinkUntil    time.Time
}

// New validates form and returns a controller initialised with every
// section's start amount of default entries.
func New(form model.Form, opts ...Option) (*Controller, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		form:          form,
		extras:        map[string]any{},
		logger:        discardLogger(),
		sanitize:      sanitize.Text,
		evaluator:     expr.New(),
		now:           time.Now,
		blinkDuration: DefaultBlinkDuration,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.extras == nil {
		c.extras = map[string]any{}
	}
	c.initialize()
	return c, nil
}

// Form returns the schema the controller was built from.
func (c *Controller) Form() model.Form {
	return c.form
}

// Reset discards every entry and restores the initial state.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.initialize()
	return nil
}

func (c *Controller) initialize() {
	c.sections = make([]*sectionState, 0, len(c.form.Sections))
	c.byName = make(map[string]*sectionState, len(c.form.Sections))
	for _, schema := range c.form.Sections {
		state := &sectionState{schema: schema}
		for range schema.StartAmount {
			state.entries = append(state.entries, state.newEntry())
		}
		c.sections = append(c.sections, state)
		c.byName[schema.Name] = state
	}
	c.blinkKeys = nil
	c.blinkUntil = time.Time{}
}

func (s *sectionState) newEntry() *entry {
	e := &entry{id: s.nextID, fields: make([]FieldState, len(s.schema.Fields))}
	s.nextID++
	for i, field := range s.schema.Fields {
		value := model.DefaultValue(field)
		e.fields[i] = FieldState{Value: value, Valid: assess(field, value)}
	}
	return e
}

func (s *sectionState) find(id EntryID) (int, *entry) {
	for pos, e := range s.entries {
		if e.id == id {
			return pos, e
		}
	}
	return -1, nil
}

func (s *sectionState) canAdd() bool {
	return s.schema.Unbounded() || len(s.entries) < s.schema.MaxCount
}

func (s *sectionState) canRemove() bool {
	return len(s.entries) > s.schema.MinCount
}

func (c *Controller) section(name string) (*sectionState, error) {
	state, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return state, nil
}

func (c *Controller) lookup(sectionName string, id EntryID) (*sectionState, *entry, error) {
	state, err := c.section(sectionName)
	if err != nil {
		return nil, nil, err
	}
	_, e := state.find(id)
	if e == nil {
		return nil, nil, fmt.Errorf("%w: %s[%d]", ErrUnknownEntry, sectionName, id)
	}
	return state, e, nil
}

// AddEntry appends an entry with default values. At the section's maximum the
// call is a no-op and reports false. Fields mirrored from another section
// start with that section's current value.
func (c *Controller) AddEntry(sectionName string) (EntryID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return 0, false, ErrBusy
	}
	state, err := c.section(sectionName)
	if err != nil {
		return 0, false, err
	}
	if !state.canAdd() {
		return 0, false, nil
	}

	e := state.newEntry()
	for _, source := range c.sections {
		if source == state || len(source.entries) == 0 {
			continue
		}
		for idx, field := range source.schema.Fields {
			if !cascadesTo(field, sectionName) {
				continue
			}
			targetIdx := state.schema.FieldIndex(field.Name)
			value := source.entries[0].fields[idx].Value
			e.fields[targetIdx] = FieldState{Value: value, Valid: assess(state.schema.Fields[targetIdx], value)}
		}
	}
	state.entries = append(state.entries, e)
	c.logger.Debug("entry added", "section", sectionName, "entry", e.id, "count", len(state.entries))
	return e.id, true, nil
}

// RemoveEntry deletes the entry with the given id. At the section's minimum the
// call is a no-op and reports false. Remaining ids are left untouched.
func (c *Controller) RemoveEntry(sectionName string, id EntryID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false, ErrBusy
	}
	state, err := c.section(sectionName)
	if err != nil {
		return false, err
	}
	pos, e := state.find(id)
	if e == nil {
		return false, fmt.Errorf("%w: %s[%d]", ErrUnknownEntry, sectionName, id)
	}
	if !state.canRemove() {
		return false, nil
	}
	state.entries = append(state.entries[:pos], state.entries[pos+1:]...)
	c.logger.Debug("entry removed", "section", sectionName, "entry", id, "count", len(state.entries))
	return true, nil
}

// SetField edits one field and re-validates it. Text is sanitised first;
// select values must be one of the options (fields without options ignore
// edits); files with an unaccepted media type are replaced by the absent file
// and ErrRejectedFile is returned. Edits to a field with Cascade targets are
// mirrored to every entry of those sections and re-validated there.
func (c *Controller) SetField(sectionName string, id EntryID, fieldName string, value model.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	state, e, err := c.lookup(sectionName, id)
	if err != nil {
		return err
	}
	idx := state.schema.FieldIndex(fieldName)
	if idx < 0 {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, sectionName, fieldName)
	}
	field := state.schema.Fields[idx]

	var rejected error
	switch field.Kind {
	case model.FieldKindCheckbox:
		if value.Kind() != model.FieldKindCheckbox {
			return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrKindMismatch, sectionName, fieldName, field.Kind, value.Kind())
		}
	case model.FieldKindSelect:
		if value.Kind() != model.FieldKindSelect && value.Kind() != model.FieldKindText {
			return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrKindMismatch, sectionName, fieldName, field.Kind, value.Kind())
		}
		if len(field.Options) == 0 {
			return nil
		}
		if !field.HasOption(value.Text()) {
			return fmt.Errorf("%w: %s.%s %q", ErrInvalidOption, sectionName, fieldName, value.Text())
		}
		value = model.Option(value.Text())
	case model.FieldKindFile:
		if value.Kind() != model.FieldKindFile {
			return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrKindMismatch, sectionName, fieldName, field.Kind, value.Kind())
		}
		if file, ok := value.File(); ok && !file.Committed() && !field.Accepts(file.MediaType) {
			rejected = fmt.Errorf("%w: %s.%s %q", ErrRejectedFile, sectionName, fieldName, file.MediaType)
			value = model.NoFile()
		}
	default:
		if value.Kind() != model.FieldKindText {
			return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrKindMismatch, sectionName, fieldName, field.Kind, value.Kind())
		}
		value = model.Text(c.sanitize(value.Text()))
	}

	e.fields[idx] = FieldState{Value: value, Valid: assess(field, value)}
	c.logger.Debug("field set", "key", Key(sectionName, id, fieldName), "valid", e.fields[idx].Valid)

	for _, target := range field.Cascade {
		targetState, ok := c.byName[target]
		if !ok {
			continue
		}
		targetIdx := targetState.schema.FieldIndex(fieldName)
		if targetIdx < 0 {
			continue
		}
		targetField := targetState.schema.Fields[targetIdx]
		for _, te := range targetState.entries {
			te.fields[targetIdx] = FieldState{Value: value, Valid: assess(targetField, value)}
		}
	}
	return rejected
}

// CopyFields copies the named fields of the source entry onto every other
// entry of the same section. Other fields are left alone.
func (c *Controller) CopyFields(sectionName string, source EntryID, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	state, src, err := c.lookup(sectionName, source)
	if err != nil {
		return err
	}
	indexes := make([]int, 0, len(fields))
	for _, name := range fields {
		idx := state.schema.FieldIndex(name)
		if idx < 0 {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, sectionName, name)
		}
		indexes = append(indexes, idx)
	}
	for _, e := range state.entries {
		if e == src {
			continue
		}
		for _, idx := range indexes {
			value := src.fields[idx].Value
			e.fields[idx] = FieldState{Value: value, Valid: assess(state.schema.Fields[idx], value)}
		}
	}
	return nil
}

// ResolveTarget turns free-text reorder input (a 1-based position) into the
// id of the entry at that position. Input must be plain decimal digits (signs
// and spaces are refused) naming an existing entry other than from.
func (c *Controller) ResolveTarget(sectionName string, from EntryID, input string) (EntryID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.byName[sectionName]
	if !ok {
		return 0, false
	}
	if _, e := state.find(from); e == nil {
		return 0, false
	}
	if !isDigits(input) {
		return 0, false
	}
	position, err := strconv.Atoi(input)
	if err != nil || position < 1 || position > len(state.entries) {
		return 0, false
	}
	target := state.entries[position-1].id
	if target == from {
		return 0, false
	}
	return target, true
}

// ReorderEntries swaps the positions of two entries. Only those two entries
// move; their ids, values and validity travel with them.
func (c *Controller) ReorderEntries(sectionName string, from, to EntryID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	state, err := c.section(sectionName)
	if err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: %s[%d] onto itself", ErrInvalidTarget, sectionName, from)
	}
	fromPos, fromEntry := state.find(from)
	if fromEntry == nil {
		return fmt.Errorf("%w: %s[%d]", ErrUnknownEntry, sectionName, from)
	}
	toPos, toEntry := state.find(to)
	if toEntry == nil {
		return fmt.Errorf("%w: %s[%d]", ErrUnknownEntry, sectionName, to)
	}
	state.entries[fromPos], state.entries[toPos] = toEntry, fromEntry
	return nil
}

// SetExtra records an extra value used by requiredWhen rules and attached to
// submitted records.
func (c *Controller) SetExtra(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.extras[key] = value
	return nil
}

// Extras returns a copy of the extra values.
func (c *Controller) Extras() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.extras)
}

// Busy reports whether a submit is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Field returns the state of one field.
func (c *Controller) Field(sectionName string, id EntryID, fieldName string) (FieldState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, e, err := c.lookup(sectionName, id)
	if err != nil {
		return FieldState{}, err
	}
	idx := state.schema.FieldIndex(fieldName)
	if idx < 0 {
		return FieldState{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, sectionName, fieldName)
	}
	return e.fields[idx], nil
}

// EntryIDs returns the ids of a section's entries in display order.
func (c *Controller) EntryIDs(sectionName string) ([]EntryID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.section(sectionName)
	if err != nil {
		return nil, err
	}
	ids := make([]EntryID, len(state.entries))
	for i, e := range state.entries {
		ids[i] = e.id
	}
	return ids, nil
}

// InvalidKeys returns the sorted keys of every field whose validity flag is
// false. The set is computed from the entries on each call.
func (c *Controller) InvalidKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidKeys()
}

func (c *Controller) invalidKeys() []string {
	var keys []string
	for _, state := range c.sections {
		for _, e := range state.entries {
			for idx, fs := range e.fields {
				if !fs.Valid {
					keys = append(keys, Key(state.schema.Name, e.id, state.schema.Fields[idx].Name))
				}
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Highlights returns the keys that blocked the last submit attempt while the
// blink window is open, and nil afterwards.
func (c *Controller) Highlights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlights()
}

func (c *Controller) highlights() []string {
	if len(c.blinkKeys) == 0 || !c.now().Before(c.blinkUntil) {
		return nil
	}
	return append([]string(nil), c.blinkKeys...)
}

func (c *Controller) blink(keys []string) {
	c.blinkKeys = append([]string(nil), keys...)
	c.blinkUntil = c.now().Add(c.blinkDuration)
}

// Key builds the invalid-key identifier "<entryID>-<section>-<field>".
func Key(section string, id EntryID, field string) string {
	return strconv.Itoa(int(id)) + "-" + section + "-" + field
}

// assess computes the validity flag of value under field's rules.
func assess(field model.FieldSchema, value model.Value) bool {
	switch field.Kind {
	case model.FieldKindCheckbox:
		return true
	case model.FieldKindSelect:
		return len(field.Options) == 0 || field.HasOption(value.Text())
	case model.FieldKindFile:
		file, ok := value.File()
		return !ok || file.Committed() || field.Accepts(file.MediaType)
	default:
		return model.CheckText(field, value.Text())
	}
}

func cascadesTo(field model.FieldSchema, section string) bool {
	for _, target := range field.Cascade {
		if target == section {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
