package template

import (
	"io"
)

// TemplateRenderer is the engine contract renderers depend on. Callers may
// inject their own implementation in place of the pongo2 engine.
type TemplateRenderer interface {
	// RenderTemplate executes the named template with data, returns the
	// output and also writes it to every writer in out.
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
