package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errFormNoSections   = errors.New("model: form declares no sections")
	errSectionNameEmpty = errors.New("model: section name is required")
)

// Validate checks the structural invariants a controller relies on: unique
// names, known kinds, consistent bounds, and resolvable cascade targets.
func (f Form) Validate() error {
	if len(f.Sections) == 0 {
		return errFormNoSections
	}

	seen := make(map[string]struct{}, len(f.Sections))
	for _, section := range f.Sections {
		name := strings.TrimSpace(section.Name)
		if name == "" {
			return errSectionNameEmpty
		}
		if strings.Contains(name, "-") {
			return fmt.Errorf("model: section %q: names cannot contain '-'", name)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("model: duplicate section %q", name)
		}
		seen[name] = struct{}{}
		if err := validateSection(section); err != nil {
			return err
		}
	}

	for _, section := range f.Sections {
		for _, field := range section.Fields {
			for _, target := range field.Cascade {
				targetSection, ok := f.Section(target)
				if !ok {
					return fmt.Errorf("model: field %s.%s cascades to unknown section %q", section.Name, field.Name, target)
				}
				if target == section.Name {
					return fmt.Errorf("model: field %s.%s cascades to its own section", section.Name, field.Name)
				}
				targetField, ok := targetSection.Field(field.Name)
				if !ok {
					return fmt.Errorf("model: section %q has no field %q for cascade from %q", target, field.Name, section.Name)
				}
				if targetField.Kind != field.Kind {
					return fmt.Errorf("model: cascade %s.%s -> %s.%s changes kind", section.Name, field.Name, target, field.Name)
				}
			}
		}
	}
	return nil
}

func validateSection(section Section) error {
	if section.MinCount < 0 {
		return fmt.Errorf("model: section %q: min count is negative", section.Name)
	}
	if section.StartAmount < section.MinCount {
		return fmt.Errorf("model: section %q: start amount %d is below min %d", section.Name, section.StartAmount, section.MinCount)
	}
	if !section.Unbounded() && section.StartAmount > section.MaxCount {
		return fmt.Errorf("model: section %q: start amount %d exceeds max %d", section.Name, section.StartAmount, section.MaxCount)
	}
	if len(section.Fields) == 0 {
		return fmt.Errorf("model: section %q declares no fields", section.Name)
	}

	fields := make(map[string]struct{}, len(section.Fields))
	for _, field := range section.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("model: section %q has a field without a name", section.Name)
		}
		if _, exists := fields[name]; exists {
			return fmt.Errorf("model: section %q: duplicate field %q", section.Name, name)
		}
		fields[name] = struct{}{}

		if !field.Kind.Valid() {
			return fmt.Errorf("model: field %s.%s: unknown kind %q", section.Name, name, field.Kind)
		}
		if field.Kind == FieldKindSelect && field.DefaultText != "" && len(field.Options) > 0 && !field.HasOption(field.DefaultText) {
			return fmt.Errorf("model: field %s.%s: default %q is not an option", section.Name, name, field.DefaultText)
		}
	}
	return nil
}
