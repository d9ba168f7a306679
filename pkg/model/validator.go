package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator decides whether a non-empty text value is acceptable.
type Validator interface {
	Validate(value string) bool
	String() string
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(value string) bool

// Validate delegates to the underlying function.
func (fn ValidatorFunc) Validate(value string) bool {
	return fn(value)
}

func (fn ValidatorFunc) String() string {
	return "func"
}

// AcceptAll accepts every value.
var AcceptAll Validator = acceptAll{}

type acceptAll struct{}

func (acceptAll) Validate(string) bool { return true }
func (acceptAll) String() string       { return ".*" }

// Pattern is a regular-expression validator. The expression is matched as
// written; anchor it with ^...$ to test the whole value.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// NewPattern compiles expr into a Pattern.
func NewPattern(expr string) (Pattern, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Pattern{}, fmt.Errorf("model: empty pattern")
	}
	re, err := regexp.Compile(trimmed)
	if err != nil {
		return Pattern{}, fmt.Errorf("model: compile pattern %q: %w", trimmed, err)
	}
	return Pattern{raw: trimmed, re: re}, nil
}

// MustPattern panics if expr does not compile. Useful for tests and static
// form definitions.
func MustPattern(expr string) Pattern {
	p, err := NewPattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate reports whether value matches the pattern.
func (p Pattern) Validate(value string) bool {
	if p.re == nil {
		return true
	}
	return p.re.MatchString(value)
}

func (p Pattern) String() string {
	return p.raw
}

// CheckText applies the per-keystroke text rule: empty input is provisionally
// valid, as is the literal default, otherwise the validator decides.
func CheckText(field FieldSchema, value string) bool {
	if value == "" || value == field.DefaultText {
		return true
	}
	if field.Validator == nil {
		return true
	}
	return field.Validator.Validate(value)
}
