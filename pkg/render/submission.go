package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// HiddenField represents a hidden input emitted alongside the visible
// sections. The helpers below cover the inputs a release request carries.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// FormField carries the form id so the receiving end knows the release type.
func FormField(id string) HiddenField {
	return Hidden("form", id)
}

// OwnerField carries the account the request is filed for.
func OwnerField(owner string) HiddenField {
	return Hidden("owner", owner)
}

// ExtraField carries one session extra as "extras.<key>".
func ExtraField(key string, value any) HiddenField {
	return Hidden("extras."+strings.TrimSpace(key), value)
}

// SnapshotFields returns the hidden inputs describing a snapshot: the form id
// plus every extra.
func SnapshotFields(snap controller.Snapshot) []HiddenField {
	fields := []HiddenField{FormField(snap.Form)}
	for key, value := range snap.Extras {
		fields = append(fields, ExtraField(key, value))
	}
	return fields
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields normalises and sorts hidden fields for deterministic
// rendering. Empty names are dropped.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}

	clean := make(map[string]string, len(fields))
	for name, value := range fields {
		key := strings.TrimSpace(name)
		if key == "" {
			continue
		}
		clean[key] = value
	}
	if len(clean) == 0 {
		return nil
	}

	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{
			Name:  name,
			Value: clean[name],
		})
	}
	return result
}
