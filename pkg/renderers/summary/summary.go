// Package summary renders a controller snapshot as a plain-text table, one row
// per field of every entry. The CLI prints it after each interactive session
// and for `render --renderer summary`.
package summary

import (
	"context"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/render"
)

// Name is the registry name of the summary renderer.
const Name = "summary"

// State labels shown in the state column.
const (
	StateOK      = "ok"
	StateInvalid = "invalid"
	StateBlocked = "blocked"
)

// Renderer implements render.Renderer.
type Renderer struct {
	style table.Style
}

var _ render.Renderer = (*Renderer)(nil)

// New returns a summary renderer using the rounded table style.
func New() *Renderer {
	return &Renderer{style: table.StyleRounded}
}

func (r *Renderer) Name() string        { return Name }
func (r *Renderer) ContentType() string { return "text/plain; charset=utf-8" }

func (r *Renderer) Render(_ context.Context, snap controller.Snapshot, options render.RenderOptions) ([]byte, error) {
	var out strings.Builder
	if title := strings.TrimSpace(snap.Title); title != "" {
		out.WriteString(title + " (" + snap.Form + ")\n")
	} else {
		out.WriteString(snap.Form + "\n")
	}

	tw := table.NewWriter()
	tw.SetStyle(r.style)
	tw.AppendHeader(table.Row{"Section", "#", "Field", "Value", "State", "Message"})
	for _, section := range snap.Sections {
		for _, entry := range section.Entries {
			for _, field := range entry.Fields {
				tw.AppendRow(table.Row{
					section.Name,
					strconv.Itoa(entry.Position),
					field.Schema.DisplayLabel(),
					displayValue(field),
					state(field),
					strings.Join(options.Errors.For(field.Key), "; "),
				})
			}
		}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	out.WriteString(tw.Render())
	out.WriteString("\n")

	for _, message := range options.Errors.Form {
		out.WriteString("! " + message + "\n")
	}
	return []byte(out.String()), nil
}

func displayValue(field controller.FieldSnapshot) string {
	switch field.Schema.Kind {
	case model.FieldKindCheckbox:
		if field.Value.Flag() {
			return "yes"
		}
		return "no"
	case model.FieldKindFile:
		file, ok := field.Value.File()
		if !ok {
			return "-"
		}
		if file.Ref != "" {
			return file.Name + " [" + file.Ref + "]"
		}
		return file.Name
	default:
		return field.Value.Text()
	}
}

func state(field controller.FieldSnapshot) string {
	switch {
	case field.Highlighted:
		return StateBlocked
	case !field.Valid:
		return StateInvalid
	default:
		return StateOK
	}
}
