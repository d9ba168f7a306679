// Package sanitize strips markup from free-text form input before it reaches
// validators or storage.
package sanitize

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Func transforms raw user text before validation.
type Func func(raw string) string

// maxPasses bounds how many entity layers Text peels off. Each pass removes
// one layer, so only pathological input reaches the bound.
const maxPasses = 8

// Text removes every HTML element from raw and decodes entities, so plain
// punctuation such as O'Brien is preserved. Decoding can surface markup that
// was typed escaped ("&lt;b&gt;"), so the policy runs again until the text
// stops changing; Text(Text(s)) == Text(s). Surrounding whitespace is left
// untouched.
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	policy := textSanitizer()
	current := raw
	for range maxPasses {
		cleaned := policy.Sanitize(current)
		decoded := html.UnescapeString(cleaned)
		if decoded == current {
			return decoded
		}
		current = decoded
	}
	// Still unstable: keep the escaped form rather than decoded markup.
	return policy.Sanitize(current)
}

// None returns raw unchanged.
func None(raw string) string { return raw }

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
