// Package releaseform bundles the release-request forms and wires the
// controller with the built-in renderers.
package releaseform

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/formschema"
	"github.com/goliatone/go-releaseform/pkg/render"
	"github.com/goliatone/go-releaseform/pkg/renderers/summary"
	"github.com/goliatone/go-releaseform/pkg/renderers/vanilla"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// FormsFS exposes the built-in form definitions.
func FormsFS() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		return embeddedForms
	}
	return sub
}

// Forms loads the built-in forms.
func Forms() (*formschema.Store, error) {
	return formschema.LoadFS(FormsFS())
}

// LoadForms loads the built-in forms and, when dir is set, the definitions
// found there. Local definitions replace built-in ones with the same id.
func LoadForms(dir string) (*formschema.Store, error) {
	store, err := Forms()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return store, nil
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("releaseform: forms dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("releaseform: forms dir %s is not a directory", dir)
	}
	local, err := formschema.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	if err := store.Merge(local, true); err != nil {
		return nil, err
	}
	return store, nil
}

// NewController builds a controller for the form id held by store.
func NewController(store *formschema.Store, id string, opts ...controller.Option) (*controller.Controller, error) {
	form, ok := store.Form(id)
	if !ok {
		return nil, fmt.Errorf("releaseform: unknown form %q (available: %s)", id, strings.Join(store.IDs(), ", "))
	}
	return controller.New(form, opts...)
}

// NewRegistry returns a registry holding the vanilla HTML and summary
// renderers.
func NewRegistry(opts ...vanilla.Option) (*render.Registry, error) {
	html, err := vanilla.New(opts...)
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	if err := registry.Register(summary.New()); err != nil {
		return nil, err
	}
	return registry, nil
}
