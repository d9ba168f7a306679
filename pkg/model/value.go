package model

// File is the payload of a file field. Data holds bytes not yet uploaded; Ref
// is the storage reference once the payload has been committed.
type File struct {
	Name      string
	MediaType string
	Data      []byte
	Ref       string
}

// Committed reports whether the file already has a storage reference.
func (f File) Committed() bool {
	return f.Ref != ""
}

// Value is the tagged union stored per field. The zero Value is an empty text.
type Value struct {
	kind FieldKind
	text string
	flag bool
	file *File
}

// Text builds a text (or select) value.
func Text(s string) Value {
	return Value{kind: FieldKindText, text: s}
}

// Option builds a select value.
func Option(s string) Value {
	return Value{kind: FieldKindSelect, text: s}
}

// Flag builds a checkbox value.
func Flag(b bool) Value {
	return Value{kind: FieldKindCheckbox, flag: b}
}

// Attach builds a file value holding f.
func Attach(f File) Value {
	clone := f
	if f.Data != nil {
		clone.Data = append([]byte(nil), f.Data...)
	}
	return Value{kind: FieldKindFile, file: &clone}
}

// StoredFile builds a file value pointing at an existing storage reference.
func StoredFile(ref, name string) Value {
	return Value{kind: FieldKindFile, file: &File{Name: name, Ref: ref}}
}

// NoFile is the absent file value.
func NoFile() Value {
	return Value{kind: FieldKindFile}
}

// Kind returns the tag of the value.
func (v Value) Kind() FieldKind {
	if v.kind == "" {
		return FieldKindText
	}
	return v.kind
}

// Text returns the textual payload (text and select values).
func (v Value) Text() string {
	return v.text
}

// Flag returns the checkbox payload.
func (v Value) Flag() bool {
	return v.flag
}

// File returns the attached file, if any.
func (v Value) File() (File, bool) {
	if v.file == nil {
		return File{}, false
	}
	return *v.file, true
}

// IsEmpty reports whether the value counts as "not filled in" for required
// checks: empty text, an unchecked box, or an absent file.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case FieldKindCheckbox:
		return !v.flag
	case FieldKindFile:
		return v.file == nil || (len(v.file.Data) == 0 && v.file.Ref == "")
	default:
		return v.text == ""
	}
}

// Plain converts the value into the JSON-friendly form used by submissions.
// Files become their reference (nil when absent or not yet committed).
func (v Value) Plain() any {
	switch v.Kind() {
	case FieldKindCheckbox:
		return v.flag
	case FieldKindFile:
		if v.file == nil || v.file.Ref == "" {
			return nil
		}
		return v.file.Ref
	default:
		return v.text
	}
}

// Equal compares two values including file payload identity.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() || v.text != other.text || v.flag != other.flag {
		return false
	}
	if (v.file == nil) != (other.file == nil) {
		return false
	}
	if v.file == nil {
		return true
	}
	return v.file.Name == other.file.Name &&
		v.file.MediaType == other.file.MediaType &&
		v.file.Ref == other.file.Ref &&
		string(v.file.Data) == string(other.file.Data)
}

// DefaultValue returns the initial value for a field: the configured default,
// or the kind's zero value (false, first option, empty string, absent file).
func DefaultValue(field FieldSchema) Value {
	switch field.Kind {
	case FieldKindCheckbox:
		return Flag(field.DefaultFlag)
	case FieldKindSelect:
		if field.DefaultText != "" && field.HasOption(field.DefaultText) {
			return Option(field.DefaultText)
		}
		if len(field.Options) > 0 {
			return Option(field.Options[0])
		}
		return Option("")
	case FieldKindFile:
		return NoFile()
	default:
		return Text(field.DefaultText)
	}
}
