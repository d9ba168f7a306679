package openapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-releaseform/pkg/model"
)

const (
	extensionCascade      = "x-formgen-cascade"
	extensionRequiredWhen = "x-formgen-required-when"
	extensionLabel        = "x-formgen-label"
	extensionOrder        = "x-formgen-order"
	extensionAccept       = "x-accept"

	// DefaultRootSection holds the scalar properties of a request body.
	DefaultRootSection = "release"
)

var (
	integerPattern = model.MustPattern(`^-?\d+$`)
	numberPattern  = model.MustPattern(`^-?\d+(\.\d+)?$`)
)

// Options tunes FormFromDocument.
type Options struct {
	// RootSection names the section holding scalar properties.
	RootSection string
	// FormID overrides the operation id as form id.
	FormID string
}

// Option mutates Options.
type Option func(*Options)

// WithRootSection renames the scalar section.
func WithRootSection(name string) Option {
	return func(o *Options) {
		if strings.TrimSpace(name) != "" {
			o.RootSection = strings.TrimSpace(name)
		}
	}
}

// WithFormID overrides the generated form id.
func WithFormID(id string) Option {
	return func(o *Options) {
		if strings.TrimSpace(id) != "" {
			o.FormID = strings.TrimSpace(id)
		}
	}
}

// Operations lists the ids of operations that declare a request body, sorted.
// Operations without an operationId are reported as "<method>:<path>".
func Operations(ctx context.Context, raw []byte) ([]string, error) {
	doc, err := load(ctx, raw)
	if err != nil {
		return nil, err
	}
	var ids []string
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || requestSchema(op) == nil {
				continue
			}
			ids = append(ids, operationID(method, path, op))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FormFromDocument builds a form from the request body of operationID.
func FormFromDocument(ctx context.Context, raw []byte, operationID string, opts ...Option) (model.Form, error) {
	options := Options{RootSection: DefaultRootSection}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	doc, err := load(ctx, raw)
	if err != nil {
		return model.Form{}, err
	}
	op, err := findOperation(doc, operationID)
	if err != nil {
		return model.Form{}, err
	}
	schema := requestSchema(op)
	if schema == nil {
		return model.Form{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	form := model.Form{
		ID:    operationID,
		Title: strings.TrimSpace(op.Summary),
	}
	if options.FormID != "" {
		form.ID = options.FormID
	}

	root := model.Section{
		Name:        options.RootSection,
		Title:       strings.TrimSpace(schema.Title),
		MinCount:    1,
		StartAmount: 1,
		MaxCount:    1,
	}
	var repeated []model.Section

	for _, name := range orderedProperties(schema) {
		prop := schema.Properties[name].Value
		if prop == nil {
			continue
		}
		if schemaType(prop) == "array" && prop.Items != nil && prop.Items.Value != nil && schemaType(prop.Items.Value) == "object" {
			section, err := buildSection(name, prop)
			if err != nil {
				return model.Form{}, err
			}
			repeated = append(repeated, section)
			continue
		}
		field, ok, err := buildField(name, prop, slices.Contains(schema.Required, name))
		if err != nil {
			return model.Form{}, err
		}
		if ok {
			root.Fields = append(root.Fields, field)
		}
	}

	if len(root.Fields) > 0 {
		form.Sections = append(form.Sections, root)
	}
	form.Sections = append(form.Sections, repeated...)

	if err := form.Validate(); err != nil {
		return model.Form{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}
	return form, nil
}

func load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	return doc, nil
}

func findOperation(doc *openapi3.T, id string) (*openapi3.Operation, error) {
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op != nil && operationID(method, path, op) == id {
				return op, nil
			}
		}
	}
	return nil, fmt.Errorf("openapi: operation %q not found", id)
}

func operationID(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func buildSection(name string, prop *openapi3.Schema) (model.Section, error) {
	items := prop.Items.Value
	section := model.Section{
		Name:     name,
		Title:    firstNonEmpty(stringExtension(prop.Extensions, extensionLabel), prop.Title, name),
		MinCount: int(prop.MinItems),
	}
	if prop.MaxItems != nil {
		section.MaxCount = int(*prop.MaxItems)
	}
	section.StartAmount = max(section.MinCount, 1)
	if !section.Unbounded() {
		section.StartAmount = min(section.StartAmount, section.MaxCount)
	}

	for _, fieldName := range orderedProperties(items) {
		fieldSchema := items.Properties[fieldName].Value
		if fieldSchema == nil {
			continue
		}
		field, ok, err := buildField(fieldName, fieldSchema, slices.Contains(items.Required, fieldName))
		if err != nil {
			return model.Section{}, fmt.Errorf("openapi: section %q: %w", name, err)
		}
		if ok {
			section.Fields = append(section.Fields, field)
		}
	}
	return section, nil
}

// buildField maps one scalar property. Nested objects are skipped.
func buildField(name string, prop *openapi3.Schema, required bool) (model.FieldSchema, bool, error) {
	field := model.FieldSchema{
		Name:         name,
		Label:        firstNonEmpty(stringExtension(prop.Extensions, extensionLabel), prop.Title),
		Required:     required,
		Placeholder:  strings.TrimSpace(prop.Description),
		Cascade:      stringsExtension(prop.Extensions, extensionCascade),
		RequiredWhen: stringExtension(prop.Extensions, extensionRequiredWhen),
	}
	if field.RequiredWhen != "" {
		field.Required = true
	}

	switch schemaType(prop) {
	case "boolean":
		field.Kind = model.FieldKindCheckbox
		if flag, ok := prop.Default.(bool); ok {
			field.DefaultFlag = flag
		}
	case "integer":
		field.Kind = model.FieldKindText
		field.Validator = integerPattern
		field.DefaultText = scalarText(prop.Default)
	case "number":
		field.Kind = model.FieldKindText
		field.Validator = numberPattern
		field.DefaultText = scalarText(prop.Default)
	case "string", "":
		switch {
		case prop.Format == "binary":
			field.Kind = model.FieldKindFile
			field.Accept = stringsExtension(prop.Extensions, extensionAccept)
		case len(prop.Enum) > 0:
			field.Kind = model.FieldKindSelect
			for _, option := range prop.Enum {
				field.Options = append(field.Options, scalarText(option))
			}
			field.DefaultText = scalarText(prop.Default)
		default:
			field.Kind = model.FieldKindText
			field.DefaultText = scalarText(prop.Default)
			if prop.Pattern != "" {
				pattern, err := model.NewPattern(prop.Pattern)
				if err != nil {
					return model.FieldSchema{}, false, fmt.Errorf("field %q: %w", name, err)
				}
				field.Validator = pattern
			}
		}
	default:
		return model.FieldSchema{}, false, nil
	}
	return field, true, nil
}

// orderedProperties sorts by x-formgen-order, then by name, since OpenAPI
// property maps carry no order.
func orderedProperties(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref != nil {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, oki := orderOf(schema.Properties[names[i]])
		oj, okj := orderOf(schema.Properties[names[j]])
		switch {
		case oki && okj && oi != oj:
			return oi < oj
		case oki != okj:
			return oki
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func orderOf(ref *openapi3.SchemaRef) (float64, bool) {
	if ref == nil || ref.Value == nil {
		return 0, false
	}
	switch v := ref.Value.Extensions[extensionOrder].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	values := schema.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func stringExtension(ext map[string]any, key string) string {
	value, ok := ext[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func stringsExtension(ext map[string]any, key string) []string {
	switch v := ext[key].(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	case []string:
		return append([]string(nil), v...)
	}
	return nil
}

func scalarText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
