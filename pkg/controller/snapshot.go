package controller

import "github.com/goliatone/go-releaseform/pkg/model"

// Snapshot is a read-only copy of the controller state for renderers.
type Snapshot struct {
	Form       string
	Title      string
	Busy       bool
	Sections   []SectionSnapshot
	Invalid    []string
	Highlights []string
	Extras     map[string]any
}

// SectionSnapshot is one section of a Snapshot.
type SectionSnapshot struct {
	Name      string
	Title     string
	Min       int
	Max       int
	CanAdd    bool
	CanRemove bool
	Entries   []EntrySnapshot
}

// EntrySnapshot is one entry; Position is 1-based.
type EntrySnapshot struct {
	ID       EntryID
	Position int
	Fields   []FieldSnapshot
}

// FieldSnapshot pairs a field schema with its current state.
type FieldSnapshot struct {
	Schema      model.FieldSchema
	Key         string
	Value       model.Value
	Valid       bool
	Highlighted bool
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	highlights := c.highlights()
	blinking := make(map[string]struct{}, len(highlights))
	for _, key := range highlights {
		blinking[key] = struct{}{}
	}

	snap := Snapshot{
		Form:       c.form.ID,
		Title:      c.form.Title,
		Busy:       c.busy,
		Sections:   make([]SectionSnapshot, 0, len(c.sections)),
		Invalid:    c.invalidKeys(),
		Highlights: highlights,
		Extras:     make(map[string]any, len(c.extras)),
	}
	for k, v := range c.extras {
		snap.Extras[k] = v
	}
	for _, state := range c.sections {
		section := SectionSnapshot{
			Name:      state.schema.Name,
			Title:     state.schema.Title,
			Min:       state.schema.MinCount,
			Max:       state.schema.MaxCount,
			CanAdd:    !c.busy && state.canAdd(),
			CanRemove: !c.busy && state.canRemove(),
			Entries:   make([]EntrySnapshot, 0, len(state.entries)),
		}
		for pos, e := range state.entries {
			es := EntrySnapshot{ID: e.id, Position: pos + 1, Fields: make([]FieldSnapshot, len(e.fields))}
			for idx, fs := range e.fields {
				field := state.schema.Fields[idx]
				key := Key(state.schema.Name, e.id, field.Name)
				_, hot := blinking[key]
				es.Fields[idx] = FieldSnapshot{
					Schema:      field,
					Key:         key,
					Value:       fs.Value,
					Valid:       fs.Valid,
					Highlighted: hot,
				}
			}
			section.Entries = append(section.Entries, es)
		}
		snap.Sections = append(snap.Sections, section)
	}
	return snap
}

// Section returns the named section of the snapshot.
func (s Snapshot) Section(name string) (SectionSnapshot, bool) {
	for _, section := range s.Sections {
		if section.Name == name {
			return section, true
		}
	}
	return SectionSnapshot{}, false
}
