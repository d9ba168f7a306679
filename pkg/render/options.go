package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching controller state.
type RenderOptions struct {
	// Action and Method end up on the form element. Method defaults to POST.
	Action string
	Method string
	// Errors surfaces submit feedback keyed by invalid key. See MapSubmitError.
	Errors ErrorMapping
	// Hidden inputs rendered before the first section.
	Hidden map[string]string
	// Theme supplies tokens and CSS variables resolved by go-theme. Nil renders
	// without theme data.
	Theme *theme.RendererConfig
}
