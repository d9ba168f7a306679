package formschema

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-releaseform/pkg/condition/expr"
	"github.com/goliatone/go-releaseform/pkg/model"
)

// LoadFS walks the provided filesystem and parses every JSON/YAML form
// definition. When fsys is nil or holds no definitions, the returned store is
// empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]model.Form), sources: make(map[string]string)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formschema: read %s: %w", path, err)
		}
		form, err := Parse(data, path)
		if err != nil {
			return err
		}
		if previous, exists := store.sources[form.ID]; exists {
			return fmt.Errorf("formschema: duplicate form %q (files %s and %s)", form.ID, previous, path)
		}
		store.forms[form.ID] = form
		store.sources[form.ID] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes one definition. source is only used in error messages; when
// the document has no id, the file name without extension is used.
func Parse(data []byte, source string) (model.Form, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return model.Form{}, err
	}

	id := strings.TrimSpace(doc.ID)
	if id == "" {
		base := filepath.Base(source)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if id == "" || id == "." {
		return model.Form{}, fmt.Errorf("formschema: file %s defines no form id", source)
	}

	patterns, err := compilePatterns(doc.Patterns, source)
	if err != nil {
		return model.Form{}, err
	}

	form := model.Form{
		ID:       id,
		Title:    strings.TrimSpace(doc.Title),
		Metadata: doc.Metadata,
		Sections: make([]model.Section, 0, len(doc.Sections)),
	}
	for _, raw := range doc.Sections {
		section, err := buildSection(raw, patterns, source)
		if err != nil {
			return model.Form{}, err
		}
		form.Sections = append(form.Sections, section)
	}

	if err := form.Validate(); err != nil {
		return model.Form{}, fmt.Errorf("formschema: %s: %w", source, err)
	}
	return form, nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("formschema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("formschema: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return doc, nil
}

func compilePatterns(raw map[string]string, source string) (map[string]model.Pattern, error) {
	out := make(map[string]model.Pattern, len(raw))
	for name, expression := range raw {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("formschema: file %s defines a pattern with an empty name", source)
		}
		pattern, err := model.NewPattern(expression)
		if err != nil {
			return nil, fmt.Errorf("formschema: file %s pattern %q: %w", source, trimmed, err)
		}
		out[trimmed] = pattern
	}
	return out, nil
}

func buildSection(raw sectionFile, patterns map[string]model.Pattern, source string) (model.Section, error) {
	name := strings.TrimSpace(raw.Name)
	section := model.Section{
		Name:     name,
		Title:    strings.TrimSpace(raw.Title),
		MinCount: raw.Min,
		MaxCount: raw.Max,
		Fields:   make([]model.FieldSchema, 0, len(raw.Fields)),
	}
	if raw.Start != nil {
		section.StartAmount = *raw.Start
	} else {
		section.StartAmount = max(raw.Min, 1)
		if !section.Unbounded() {
			section.StartAmount = min(section.StartAmount, section.MaxCount)
		}
	}

	for _, rawField := range raw.Fields {
		field, err := buildField(rawField, patterns)
		if err != nil {
			return model.Section{}, fmt.Errorf("formschema: file %s section %q: %w", source, name, err)
		}
		section.Fields = append(section.Fields, field)
	}
	if err := checkEntryRefs(section); err != nil {
		return model.Section{}, fmt.Errorf("formschema: file %s section %q: %w", source, name, err)
	}
	return section, nil
}

// checkEntryRefs rejects requiredWhen rules that read an entry field the
// section does not declare.
func checkEntryRefs(section model.Section) error {
	for _, field := range section.Fields {
		idents, err := expr.Identifiers(field.RequiredWhen)
		if err != nil {
			return fmt.Errorf("field %q: requiredWhen: %w", field.Name, err)
		}
		for _, ident := range idents {
			ref, ok := strings.CutPrefix(ident, "entry.")
			if !ok {
				continue
			}
			if section.FieldIndex(ref) < 0 {
				return fmt.Errorf("field %q: requiredWhen reads unknown field %q", field.Name, ref)
			}
		}
	}
	return nil
}

func buildField(raw fieldFile, patterns map[string]model.Pattern) (model.FieldSchema, error) {
	name := strings.TrimSpace(raw.Name)
	kind, ok := model.ParseFieldKind(raw.Kind)
	if !ok {
		return model.FieldSchema{}, fmt.Errorf("field %q: unknown kind %q", name, raw.Kind)
	}
	field := model.FieldSchema{
		Name:         name,
		Label:        strings.TrimSpace(raw.Label),
		Kind:         kind,
		Required:     raw.Required,
		RequiredWhen: strings.TrimSpace(raw.RequiredWhen),
		Options:      append([]string(nil), raw.Options...),
		Accept:       append([]string(nil), raw.Accept...),
		Cascade:      append([]string(nil), raw.Cascade...),
		Placeholder:  raw.Placeholder,
		ErrorMessage: raw.ErrorMessage,
	}

	if err := expr.Check(field.RequiredWhen); err != nil {
		return model.FieldSchema{}, fmt.Errorf("field %q: requiredWhen: %w", name, err)
	}

	if expression := strings.TrimSpace(raw.Pattern); expression != "" {
		if kind != model.FieldKindText {
			return model.FieldSchema{}, fmt.Errorf("field %q: pattern only applies to text fields", name)
		}
		if ref, isRef := strings.CutPrefix(expression, "@"); isRef {
			pattern, ok := patterns[ref]
			if !ok {
				return model.FieldSchema{}, fmt.Errorf("field %q: unknown pattern %q", name, ref)
			}
			field.Validator = pattern
		} else {
			pattern, err := model.NewPattern(expression)
			if err != nil {
				return model.FieldSchema{}, fmt.Errorf("field %q: %w", name, err)
			}
			field.Validator = pattern
		}
	}

	if err := applyDefault(&field, raw.Default); err != nil {
		return model.FieldSchema{}, fmt.Errorf("field %q: %w", name, err)
	}
	return field, nil
}

func applyDefault(field *model.FieldSchema, raw any) error {
	if raw == nil {
		return nil
	}
	if field.Kind == model.FieldKindCheckbox {
		switch v := raw.(type) {
		case bool:
			field.DefaultFlag = v
		case string:
			flag, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("checkbox default %q is not a boolean", v)
			}
			field.DefaultFlag = flag
		default:
			return fmt.Errorf("checkbox default %v is not a boolean", raw)
		}
		return nil
	}
	if field.Kind == model.FieldKindFile {
		return fmt.Errorf("file fields take no default")
	}
	switch v := raw.(type) {
	case string:
		field.DefaultText = v
	case int:
		field.DefaultText = strconv.Itoa(v)
	case float64:
		field.DefaultText = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		field.DefaultText = strconv.FormatBool(v)
	default:
		return fmt.Errorf("unsupported default %v", raw)
	}
	return nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
