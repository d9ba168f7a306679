package releaseform

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-releaseform/pkg/renderers/vanilla"
)

// Theme used when a configured name is empty or unknown.
const (
	DefaultTheme   = "default"
	DefaultVariant = "light"
)

//go:embed themes/*/theme.yaml
var embeddedThemes embed.FS

// ThemesFS exposes the built-in theme manifests, one directory per theme.
func ThemesFS() fs.FS {
	sub, err := fs.Sub(embeddedThemes, "themes")
	if err != nil {
		return embeddedThemes
	}
	return sub
}

// LoadThemes registers the built-in manifests and, when dir is set, every
// manifest found in its subdirectories. A local manifest with the same name
// and version replaces the built-in one.
func LoadThemes(dir string) (*theme.MemoryRegistry, error) {
	registry := theme.NewRegistry()
	if err := registerThemes(registry, ThemesFS()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return registry, nil
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("releaseform: themes dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("releaseform: themes dir %s is not a directory", dir)
	}
	if err := registerThemes(registry, os.DirFS(dir)); err != nil {
		return nil, err
	}
	return registry, nil
}

func registerThemes(registry *theme.MemoryRegistry, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("releaseform: read themes: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := theme.LoadDir(fsys, entry.Name())
		if err != nil {
			return fmt.Errorf("releaseform: theme %s: %w", entry.Name(), err)
		}
		if err := registry.Register(manifest); err != nil {
			return fmt.Errorf("releaseform: theme %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// ResolveTheme selects name and variant from provider and returns the
// renderer configuration: tokens, CSS variables and template partials with
// the vanilla templates as fallbacks. Unknown names fall back to
// DefaultTheme; a variant the manifest does not declare is an error.
func ResolveTheme(provider theme.ThemeProvider, name, variant string) (*theme.RendererConfig, error) {
	selector := theme.Selector{Registry: provider, DefaultTheme: DefaultTheme, DefaultVariant: DefaultVariant}
	selection, err := selector.Select(name, strings.TrimSpace(variant))
	if err != nil {
		return nil, fmt.Errorf("releaseform: %w", err)
	}
	manifest := selection.Manifest
	if _, ok := manifest.Variants[selection.Variant]; len(manifest.Variants) > 0 && !ok {
		return nil, fmt.Errorf("releaseform: theme %q has no variant %q", manifest.Name, selection.Variant)
	}
	cfg := selection.RendererTheme(vanilla.Partials())
	cfg.Theme = manifest.Name
	return &cfg, nil
}
