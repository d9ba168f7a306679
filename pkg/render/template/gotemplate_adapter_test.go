package template_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-releaseform/pkg/render/template/gotemplate"
)

var templates = fstest.MapFS{
	"hello.tpl":          {Data: []byte("Hello {{ name|trim }}!")},
	"theme.tpl":          {Data: []byte(`<form style="{{ vars|cssvars }}">`)},
	"entry.tpl":          {Data: []byte("{{ entry.position }}:{{ entry.title }}")},
	"partials/row.tmpl":  {Data: []byte("row {{ n }}")},
	"partials/cell.tmpl": {Data: []byte("{% include \"row.tmpl\" %}/cell")},
}

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(templates)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplateWritesOutput(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, &buf)
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if result != "Hello Ada!" || buf.String() != result {
		t.Fatalf("result %q, written %q", result, buf.String())
	}
}

func TestEngineCSSVarsFilter(t *testing.T) {
	engine := newEngine(t)
	result, err := engine.RenderTemplate("theme", map[string]any{
		"vars": map[string]string{"color-accent": "#f60", "--radius": "4px", "--border-width": "1px"},
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	want := `<form style="--border-width: 1px; --color-accent: #f60; --radius: 4px;">`
	if result != want {
		t.Fatalf("result = %q, want %q", result, want)
	}
}

func TestEngineFlattensStructsThroughJSON(t *testing.T) {
	type entry struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
	}
	engine := newEngine(t)
	result, err := engine.RenderTemplate("entry", map[string]any{"entry": entry{Position: 2, Title: "Intro"}})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if result != "2:Intro" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngineExtensionAndIncludes(t *testing.T) {
	engine := newEngine(t, gotemplate.WithExtension("tmpl"))
	result, err := engine.RenderTemplate("partials/cell", map[string]any{"n": 3})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if result != "row 3/cell" {
		t.Fatalf("result = %q", result)
	}
	// Second call is served from the parsed cache.
	if again, err := engine.RenderTemplate("partials/cell.tmpl", map[string]any{"n": 4}); err != nil || again != "row 4/cell" {
		t.Fatalf("cached render = %q, %v", again, err)
	}
}

func TestEngineErrors(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without a template fs")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil || !strings.Contains(err.Error(), "gotemplate: load") {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, err := engine.RenderTemplate("hello", []string{"not", "an", "object"}); err == nil {
		t.Fatalf("expected error for non-object data")
	}
}
