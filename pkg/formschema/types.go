package formschema

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-releaseform/pkg/model"
)

// Store holds the forms loaded from one filesystem, keyed by form id.
type Store struct {
	forms   map[string]model.Form
	sources map[string]string
}

type documentFile struct {
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title" yaml:"title"`
	Patterns map[string]string `json:"patterns" yaml:"patterns"`
	Metadata map[string]string `json:"metadata" yaml:"metadata"`
	Sections []sectionFile     `json:"sections" yaml:"sections"`
}

type sectionFile struct {
	Name   string      `json:"name" yaml:"name"`
	Title  string      `json:"title" yaml:"title"`
	Min    int         `json:"min" yaml:"min"`
	Max    int         `json:"max" yaml:"max"`
	Start  *int        `json:"start" yaml:"start"`
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name         string   `json:"name" yaml:"name"`
	Label        string   `json:"label" yaml:"label"`
	Kind         string   `json:"kind" yaml:"kind"`
	Pattern      string   `json:"pattern" yaml:"pattern"`
	Required     bool     `json:"required" yaml:"required"`
	RequiredWhen string   `json:"requiredWhen" yaml:"requiredWhen"`
	Default      any      `json:"default" yaml:"default"`
	Options      []string `json:"options" yaml:"options"`
	Accept       []string `json:"accept" yaml:"accept"`
	Cascade      []string `json:"cascade" yaml:"cascade"`
	Placeholder  string   `json:"placeholder" yaml:"placeholder"`
	ErrorMessage string   `json:"errorMessage" yaml:"errorMessage"`
}

// Form returns the form with the given id.
func (s *Store) Form(id string) (model.Form, bool) {
	if s == nil {
		return model.Form{}, false
	}
	form, ok := s.forms[id]
	return form, ok
}

// Source returns the file a form was loaded from.
func (s *Store) Source(id string) string {
	if s == nil {
		return ""
	}
	return s.sources[id]
}

// IDs returns the loaded form ids in lexical order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

// Merge adds the forms of other. A form id defined in both stores is an error
// unless override is set, in which case other wins.
func (s *Store) Merge(other *Store, override bool) error {
	if other.Empty() {
		return nil
	}
	if s.forms == nil {
		s.forms = make(map[string]model.Form)
		s.sources = make(map[string]string)
	}
	if !override {
		for _, id := range other.IDs() {
			if previous, exists := s.sources[id]; exists {
				return fmt.Errorf("formschema: duplicate form %q (files %s and %s)", id, previous, other.sources[id])
			}
		}
	}
	for id, form := range other.forms {
		s.forms[id] = form
		s.sources[id] = other.sources[id]
	}
	return nil
}
