package vanilla

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/render"
)

// The view types are flattened through JSON by the template engine; the json
// names are the names templates use.

type formView struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Action   string               `json:"action"`
	Method   string               `json:"method"`
	Busy     bool                 `json:"busy"`
	Classes  string               `json:"classes"`
	Theme    themeView            `json:"theme"`
	Hidden   []render.HiddenField `json:"hidden"`
	Errors   []string             `json:"errors"`
	Invalid  int                  `json:"invalid"`
	Sections []sectionView        `json:"sections"`
}

type themeView struct {
	Name    string            `json:"name"`
	Variant string            `json:"variant"`
	CSSVars map[string]string `json:"cssVars"`
}

type sectionView struct {
	Name      string      `json:"name"`
	Title     string      `json:"title"`
	CanAdd    bool        `json:"canAdd"`
	CanRemove bool        `json:"canRemove"`
	Entries   []entryView `json:"entries"`
}

type entryView struct {
	ID       int         `json:"id"`
	Position int         `json:"position"`
	Fields   []fieldView `json:"fields"`
}

type fieldView struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	InputName   string       `json:"inputName"`
	Label       string       `json:"label"`
	Kind        string       `json:"kind"`
	Classes     string       `json:"classes"`
	Value       string       `json:"value"`
	Checked     bool         `json:"checked"`
	Options     []optionView `json:"options"`
	Accept      string       `json:"accept"`
	FileName    string       `json:"fileName"`
	FileRef     string       `json:"fileRef"`
	Placeholder string       `json:"placeholder"`
	Required    bool         `json:"required"`
	Invalid     bool         `json:"invalid"`
	Messages    []string     `json:"messages"`
}

type optionView struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func chromeClasses() map[string]string {
	return map[string]string{
		"form":    string(ClassForm),
		"header":  string(ClassHeader),
		"section": string(ClassSection),
		"entry":   string(ClassEntry),
		"message": string(ClassMessage),
		"actions": string(ClassActions),
		"errors":  string(ClassErrors),
	}
}

func buildFormView(snap controller.Snapshot, options render.RenderOptions) formView {
	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = http.MethodPost
	}

	view := formView{
		ID:       snap.Form,
		Title:    snap.Title,
		Action:   options.Action,
		Method:   method,
		Busy:     snap.Busy,
		Classes:  string(ClassForm),
		Errors:   options.Errors.Form,
		Invalid:  len(snap.Invalid),
		Hidden:   render.SortedHiddenFields(render.MergeHiddenFields(options.Hidden, render.SnapshotFields(snap)...)),
		Sections: make([]sectionView, 0, len(snap.Sections)),
	}
	if snap.Busy {
		view.Classes = classList(ClassForm, ClassBusy)
	}
	if cfg := options.Theme; cfg != nil {
		view.Theme = themeView{Name: cfg.Theme, Variant: cfg.Variant, CSSVars: cfg.CSSVars}
	}

	for _, section := range snap.Sections {
		sv := sectionView{
			Name:      section.Name,
			Title:     firstNonEmpty(section.Title, section.Name),
			CanAdd:    section.CanAdd,
			CanRemove: section.CanRemove,
			Entries:   make([]entryView, 0, len(section.Entries)),
		}
		for _, entry := range section.Entries {
			ev := entryView{ID: int(entry.ID), Position: entry.Position, Fields: make([]fieldView, 0, len(entry.Fields))}
			for _, field := range entry.Fields {
				ev.Fields = append(ev.Fields, buildFieldView(section.Name, entry.ID, field, options.Errors.For(field.Key)))
			}
			sv.Entries = append(sv.Entries, ev)
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

func buildFieldView(section string, id controller.EntryID, field controller.FieldSnapshot, messages []string) fieldView {
	schema := field.Schema
	fv := fieldView{
		Key:         field.Key,
		Name:        schema.Name,
		InputName:   fmt.Sprintf("%s[%d][%s]", section, id, schema.Name),
		Label:       schema.DisplayLabel(),
		Kind:        string(schema.Kind),
		Placeholder: schema.Placeholder,
		Required:    schema.Required && schema.RequiredWhen == "",
		Invalid:     !field.Valid,
		Messages:    messages,
	}

	classes := []ChromeClass{ClassField, ChromeClass(string(ClassField) + "--" + string(schema.Kind))}
	if !field.Valid || len(messages) > 0 {
		classes = append(classes, ClassInvalid)
	}
	if field.Highlighted {
		classes = append(classes, ClassBlink)
	}
	fv.Classes = classList(classes...)

	switch schema.Kind {
	case model.FieldKindCheckbox:
		fv.Checked = field.Value.Flag()
	case model.FieldKindSelect:
		fv.Value = field.Value.Text()
		for _, option := range schema.Options {
			fv.Options = append(fv.Options, optionView{Value: option, Selected: option == fv.Value})
		}
	case model.FieldKindFile:
		fv.Accept = strings.Join(schema.Accept, ",")
		if file, ok := field.Value.File(); ok {
			fv.FileName = file.Name
			fv.FileRef = file.Ref
		}
	default:
		fv.Value = field.Value.Text()
	}
	return fv
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
