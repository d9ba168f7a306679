package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
)

// Form-level messages used by MapSubmitError.
const (
	MessageBusy      = "A submission is already in progress."
	MessageTransport = "The request could not be sent. Please try again."
	MessageBlocked   = "Please fix the highlighted fields."
)

// ErrorMapping splits controller errors into field-level messages keyed by
// invalid key ("<entry>-<section>-<field>") and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// For returns the messages of one field key.
func (m ErrorMapping) For(key string) []string {
	return m.Fields[key]
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapSubmitError converts the error returned by Submit (or Check) into an
// ErrorMapping. Joined errors are walked one by one; errors the mapping does
// not recognise are kept as form-level messages so nothing is lost.
func MapSubmitError(form model.Form, err error) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	mapping.collect(form, err)
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func (m *ErrorMapping) collect(form model.Form, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			m.collect(form, inner)
		}
		return
	}

	var (
		validation *controller.ValidationError
		required   *controller.RequiredFieldError
		missing    *controller.MissingFileError
		transport  *controller.TransportError
	)
	switch {
	case errors.As(err, &validation):
		for _, key := range validation.Keys {
			field, ok := fieldForKey(form, key)
			if !ok {
				m.Form = append(m.Form, err.Error())
				continue
			}
			m.add(key, invalidMessage(field))
		}
		m.Form = append(m.Form, MessageBlocked)
	case errors.As(err, &required):
		for _, ref := range required.Fields {
			m.add(ref.Key(), labelOf(ref)+" is required.")
		}
		m.Form = append(m.Form, MessageBlocked)
	case errors.As(err, &missing):
		for _, ref := range missing.Fields {
			m.add(ref.Key(), labelOf(ref)+": please attach a file.")
		}
		m.Form = append(m.Form, MessageBlocked)
	case errors.Is(err, controller.ErrBusy):
		m.Form = append(m.Form, MessageBusy)
	case errors.As(err, &transport):
		m.Form = append(m.Form, MessageTransport, transport.Err.Error())
	default:
		m.Form = append(m.Form, err.Error())
	}
}

func (m *ErrorMapping) add(key, message string) {
	m.Fields[key] = normalizeMessages(append(m.Fields[key], message))
}

// fieldForKey resolves "<entry>-<section>-<field>". Section names carry no
// dashes; field names may.
func fieldForKey(form model.Form, key string) (model.FieldSchema, bool) {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) != 3 {
		return model.FieldSchema{}, false
	}
	section, ok := form.Section(parts[1])
	if !ok {
		return model.FieldSchema{}, false
	}
	return section.Field(parts[2])
}

func invalidMessage(field model.FieldSchema) string {
	if msg := strings.TrimSpace(field.ErrorMessage); msg != "" {
		return msg
	}
	return field.DisplayLabel() + " is not valid."
}

func labelOf(ref controller.FieldRef) string {
	if label := strings.TrimSpace(ref.Label); label != "" {
		return label
	}
	return ref.Field
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
