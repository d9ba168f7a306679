package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm    ChromeClass = "releaseform-form"
	ClassHeader  ChromeClass = "releaseform-header"
	ClassSection ChromeClass = "releaseform-section"
	ClassEntry   ChromeClass = "releaseform-entry"
	ClassField   ChromeClass = "releaseform-field"
	ClassMessage ChromeClass = "releaseform-message"
	ClassActions ChromeClass = "releaseform-actions"
	ClassErrors  ChromeClass = "releaseform-errors"
)

// State classes added to the field wrapper and the form.
const (
	ClassInvalid ChromeClass = "is-invalid"
	// ClassBlink marks fields that blocked the last submit attempt while the
	// highlight window is open.
	ClassBlink ChromeClass = "is-blinking"
	ClassBusy  ChromeClass = "is-busy"
)

func classList(classes ...ChromeClass) string {
	out := ""
	for _, class := range classes {
		if class == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += string(class)
	}
	return out
}
