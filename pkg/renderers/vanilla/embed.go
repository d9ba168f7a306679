package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// FormTemplate is the entry template rendered by the vanilla renderer.
const FormTemplate = "templates/form.tmpl"

// PartialForm is the theme template key that replaces FormTemplate.
const PartialForm = "form"

// Partials lists the theme template keys the renderer reads, mapped to the
// embedded defaults.
func Partials() map[string]string {
	return map[string]string{PartialForm: FormTemplate}
}

// TemplatesFS exposes the embedded template bundle so callers can copy it as
// a starting point for their own templates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
