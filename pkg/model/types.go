package model

import "strings"

// FieldKind enumerates the input kinds a section field can take.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindCheckbox FieldKind = "checkbox"
	FieldKindSelect   FieldKind = "select"
	FieldKindFile     FieldKind = "file"
)

// Valid reports whether k is one of the known kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldKindText, FieldKindCheckbox, FieldKindSelect, FieldKindFile:
		return true
	default:
		return false
	}
}

// ParseFieldKind normalises raw kind names. Empty input maps to text so
// definitions can omit the kind for plain inputs.
func ParseFieldKind(raw string) (FieldKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "string":
		return FieldKindText, true
	case "checkbox", "bool", "boolean":
		return FieldKindCheckbox, true
	case "select", "enum":
		return FieldKindSelect, true
	case "file", "binary":
		return FieldKindFile, true
	default:
		return "", false
	}
}

// FieldSchema describes one field shared by every entry of a section. It is
// never mutated after construction.
type FieldSchema struct {
	Name  string    `json:"name"`
	Label string    `json:"label,omitempty"`
	Kind  FieldKind `json:"kind"`
	// Validator applies to text fields only; nil accepts everything.
	Validator Validator `json:"-"`
	Required  bool      `json:"required"`
	// RequiredWhen narrows Required to the entries/forms where the rule holds.
	RequiredWhen string `json:"requiredWhen,omitempty"`
	// DefaultText seeds text fields. Select fields use it when it names one of
	// Options, otherwise the first option.
	DefaultText string   `json:"default,omitempty"`
	DefaultFlag bool     `json:"defaultFlag,omitempty"`
	Options     []string `json:"options,omitempty"`
	// Accept lists the media types a file field takes.
	Accept []string `json:"accept,omitempty"`
	// Cascade names sibling sections whose identically named field mirrors
	// every edit of this one.
	Cascade      []string `json:"cascade,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// DisplayLabel falls back to the field name when no label is configured.
func (f FieldSchema) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Accepts reports whether mediaType is in the accepted set. Parameters such as
// "; charset=utf-8" are ignored. An empty Accept list takes any type.
func (f FieldSchema) Accepts(mediaType string) bool {
	if len(f.Accept) == 0 {
		return true
	}
	base := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	for _, accepted := range f.Accept {
		if strings.EqualFold(strings.TrimSpace(accepted), base) {
			return true
		}
	}
	return false
}

// HasOption reports whether value is one of the declared select options.
func (f FieldSchema) HasOption(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

// Section is a named, bounded collection of repeated entries.
type Section struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	MinCount    int    `json:"min"`
	StartAmount int    `json:"start"`
	// MaxCount of zero leaves the section unbounded.
	MaxCount int           `json:"max"`
	Fields   []FieldSchema `json:"fields"`
}

// Field looks up a field schema by name.
func (s Section) Field(name string) (FieldSchema, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSchema{}, false
}

// FieldIndex returns the position of the named field or -1.
func (s Section) FieldIndex(name string) int {
	for idx, field := range s.Fields {
		if field.Name == name {
			return idx
		}
	}
	return -1
}

// Unbounded reports whether the section accepts any number of entries.
func (s Section) Unbounded() bool {
	return s.MaxCount <= 0
}

// Form is the top-level schema handed to a controller.
type Form struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Sections []Section         `json:"sections"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Section looks up a section by name.
func (f Form) Section(name string) (Section, bool) {
	for _, section := range f.Sections {
		if section.Name == name {
			return section, true
		}
	}
	return Section{}, false
}

// SectionNames returns the section names in declaration order.
func (f Form) SectionNames() []string {
	names := make([]string, 0, len(f.Sections))
	for _, section := range f.Sections {
		names = append(names, section.Name)
	}
	return names
}
