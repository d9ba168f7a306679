// Package tui drives a controller from the terminal: it prompts every field of
// every entry, offers the section operations (add, copy, reorder) and submits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/render"
)

// Session is one interactive fill-and-submit run.
type Session struct {
	driver   PromptDriver
	readFile FileReader
	theme    Theme
	logger   *slog.Logger
	summary  render.Renderer
}

// New constructs a session with defaults (survey driver, ReadFile).
func New(options ...Option) *Session {
	s := &Session{
		driver:   NewSurveyDriver(nil),
		readFile: ReadFile,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Run prompts every section of c in form order, then submits. Failed checks
// re-prompt the offending fields; transport failures offer a retry.
func (s *Session) Run(ctx context.Context, c *controller.Controller) (controller.Receipt, error) {
	if c == nil {
		return controller.Receipt{}, errors.New("tui: controller is nil")
	}
	form := c.Form()
	if title := strings.TrimSpace(form.Title); title != "" {
		if err := s.info(ctx, title); err != nil {
			return controller.Receipt{}, err
		}
	}

	for _, section := range form.Sections {
		if err := s.fillSection(ctx, c, section); err != nil {
			return controller.Receipt{}, err
		}
	}
	return s.submit(ctx, c)
}

func (s *Session) fillSection(ctx context.Context, c *controller.Controller, section model.Section) error {
	ids, err := c.EntryIDs(section.Name)
	if err != nil {
		return err
	}
	for pos, id := range ids {
		if err := s.fillEntry(ctx, c, section, id, pos+1); err != nil {
			return err
		}
	}

	for {
		snap, _ := c.Snapshot().Section(section.Name)
		if !snap.CanAdd {
			break
		}
		more, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add another %s entry?", sectionTitle(section)),
		})
		if err != nil {
			return translateSurveyErr(err)
		}
		if !more {
			break
		}
		id, added, err := c.AddEntry(section.Name)
		if err != nil {
			return err
		}
		if !added {
			break
		}
		if err := s.fillEntry(ctx, c, section, id, len(snap.Entries)+1); err != nil {
			return err
		}
	}

	ids, err = c.EntryIDs(section.Name)
	if err != nil {
		return err
	}
	if len(ids) < 2 {
		return nil
	}
	if err := s.offerCopy(ctx, c, section, ids); err != nil {
		return err
	}
	return s.offerReorder(ctx, c, section, ids)
}

func (s *Session) fillEntry(ctx context.Context, c *controller.Controller, section model.Section, id controller.EntryID, position int) error {
	if section.MaxCount != 1 {
		if err := s.info(ctx, fmt.Sprintf("%s #%d", sectionTitle(section), position)); err != nil {
			return err
		}
	}
	for _, field := range section.Fields {
		if strings.Contains(field.RequiredWhen, "entry.") {
			// Fields gated on the entry's own answers are only asked when
			// those answers call for them.
			required, err := c.Required(section.Name, id, field.Name)
			if err != nil {
				return err
			}
			if !required {
				continue
			}
		}
		if err := s.promptField(ctx, c, section.Name, id, field); err != nil {
			return err
		}
	}
	return nil
}

// promptField asks until the controller accepts a valid value.
func (s *Session) promptField(ctx context.Context, c *controller.Controller, section string, id controller.EntryID, field model.FieldSchema) error {
	for {
		current, err := c.Field(section, id, field.Name)
		if err != nil {
			return err
		}

		value, skip, err := s.ask(ctx, field, current.Value)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		// Unchanged answers leave the controller alone so cascades do not
		// overwrite entries edited earlier.
		if value.Equal(current.Value) {
			if current.Valid {
				return nil
			}
			if err := s.fail(ctx, invalidMessage(field)); err != nil {
				return err
			}
			continue
		}

		err = c.SetField(section, id, field.Name, value)
		switch {
		case errors.Is(err, controller.ErrRejectedFile):
			if infoErr := s.fail(ctx, fmt.Sprintf("%s: this file type is not accepted (%s).", field.DisplayLabel(), strings.Join(field.Accept, ", "))); infoErr != nil {
				return infoErr
			}
			continue
		case errors.Is(err, controller.ErrInvalidOption):
			if infoErr := s.fail(ctx, fmt.Sprintf("%s: pick one of the listed options.", field.DisplayLabel())); infoErr != nil {
				return infoErr
			}
			continue
		case err != nil:
			return err
		}

		state, err := c.Field(section, id, field.Name)
		if err != nil {
			return err
		}
		if state.Valid {
			return nil
		}
		if err := s.fail(ctx, invalidMessage(field)); err != nil {
			return err
		}
	}
}

// ask returns the value typed for field; skip is set when the field keeps its
// current value without an edit.
func (s *Session) ask(ctx context.Context, field model.FieldSchema, current model.Value) (model.Value, bool, error) {
	label := field.DisplayLabel()
	if field.Required && field.RequiredWhen == "" {
		label += " *"
	}

	switch field.Kind {
	case model.FieldKindCheckbox:
		flag, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current.Flag(), Help: field.Placeholder})
		if err != nil {
			return model.Value{}, false, translateSurveyErr(err)
		}
		return model.Flag(flag), false, nil
	case model.FieldKindSelect:
		if len(field.Options) == 0 {
			return model.Value{}, true, nil
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, current.Text()),
			Help:         field.Placeholder,
		})
		if err != nil {
			return model.Value{}, false, translateSurveyErr(err)
		}
		if idx < 0 || idx >= len(field.Options) {
			return model.Value{}, true, nil
		}
		return model.Option(field.Options[idx]), false, nil
	case model.FieldKindFile:
		help := "Path to the file; leave empty to keep the current one."
		if len(field.Accept) > 0 {
			help += " Accepted: " + strings.Join(field.Accept, ", ")
		}
		if file, ok := current.File(); ok {
			help += " Current: " + file.Name
		}
		path, err := s.driver.Input(ctx, InputConfig{Message: label + " (file)", Help: help})
		if err != nil {
			return model.Value{}, false, translateSurveyErr(err)
		}
		if strings.TrimSpace(path) == "" {
			return model.Value{}, true, nil
		}
		file, err := s.readFile(path)
		if err != nil {
			if infoErr := s.fail(ctx, err.Error()); infoErr != nil {
				return model.Value{}, false, infoErr
			}
			return s.ask(ctx, field, current)
		}
		return model.Attach(file), false, nil
	default:
		text, err := s.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   current.Text(),
			Help:      field.Placeholder,
			Validator: textValidator(field),
		})
		if err != nil {
			return model.Value{}, false, translateSurveyErr(err)
		}
		return model.Text(strings.TrimSpace(text)), false, nil
	}
}

func (s *Session) offerCopy(ctx context.Context, c *controller.Controller, section model.Section, ids []controller.EntryID) error {
	copyable := make([]string, 0, len(section.Fields))
	for _, field := range section.Fields {
		if field.Kind != model.FieldKindFile {
			copyable = append(copyable, field.Name)
		}
	}
	if len(copyable) == 0 {
		return nil
	}

	wants, err := s.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Copy fields from one %s entry to all others?", sectionTitle(section)),
	})
	if err != nil {
		return translateSurveyErr(err)
	}
	if !wants {
		return nil
	}

	positions := make([]string, len(ids))
	for i := range ids {
		positions[i] = strconv.Itoa(i + 1)
	}
	from, err := s.driver.Select(ctx, SelectConfig{Message: "Copy from entry", Options: positions})
	if err != nil {
		return translateSurveyErr(err)
	}
	if from < 0 || from >= len(ids) {
		return nil
	}
	picked, err := s.driver.MultiSelect(ctx, SelectConfig{Message: "Fields to copy", Options: copyable})
	if err != nil {
		return translateSurveyErr(err)
	}
	fields := make([]string, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(copyable) {
			fields = append(fields, copyable[idx])
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return c.CopyFields(section.Name, ids[from], fields...)
}

func (s *Session) offerReorder(ctx context.Context, c *controller.Controller, section model.Section, ids []controller.EntryID) error {
	for {
		wants, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Move a %s entry to another position?", sectionTitle(section)),
		})
		if err != nil {
			return translateSurveyErr(err)
		}
		if !wants {
			return nil
		}

		positions := make([]string, len(ids))
		for i := range ids {
			positions[i] = strconv.Itoa(i + 1)
		}
		from, err := s.driver.Select(ctx, SelectConfig{Message: "Entry to move", Options: positions})
		if err != nil {
			return translateSurveyErr(err)
		}
		if from < 0 || from >= len(ids) {
			continue
		}
		input, err := s.driver.Input(ctx, InputConfig{Message: fmt.Sprintf("New position (1-%d)", len(ids))})
		if err != nil {
			return translateSurveyErr(err)
		}
		to, ok := c.ResolveTarget(section.Name, ids[from], strings.TrimSpace(input))
		if !ok {
			if err := s.fail(ctx, "Not a valid position."); err != nil {
				return err
			}
			continue
		}
		if err := c.ReorderEntries(section.Name, ids[from], to); err != nil {
			return err
		}
		if ids, err = c.EntryIDs(section.Name); err != nil {
			return err
		}
	}
}

func (s *Session) submit(ctx context.Context, c *controller.Controller) (controller.Receipt, error) {
	form := c.Form()
	for {
		filled := c.Snapshot()
		receipt, err := c.Submit(ctx)
		if err == nil {
			s.logger.Info("release request submitted", "form", form.ID, "request", receipt.ID, "uploads", receipt.Uploaded)
			if err := s.info(ctx, "Request submitted: "+receipt.ID); err != nil {
				return receipt, err
			}
			return receipt, s.printSummary(ctx, filled)
		}

		mapping := render.MapSubmitError(form, err)
		for _, message := range mapping.Form {
			if infoErr := s.fail(ctx, message); infoErr != nil {
				return controller.Receipt{}, infoErr
			}
		}

		var transport *controller.TransportError
		if errors.As(err, &transport) {
			retry, confirmErr := s.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
			if confirmErr != nil {
				return controller.Receipt{}, translateSurveyErr(confirmErr)
			}
			if !retry {
				return controller.Receipt{}, errors.Join(ErrDeclined, err)
			}
			continue
		}
		if len(mapping.Fields) == 0 {
			return controller.Receipt{}, err
		}
		if err := s.repair(ctx, c, mapping); err != nil {
			return controller.Receipt{}, err
		}
	}
}

// repair re-prompts every field named in mapping, in form order.
func (s *Session) repair(ctx context.Context, c *controller.Controller, mapping render.ErrorMapping) error {
	form := c.Form()
	for _, section := range form.Sections {
		ids, err := c.EntryIDs(section.Name)
		if err != nil {
			return err
		}
		for _, id := range ids {
			for _, field := range section.Fields {
				messages := mapping.For(controller.Key(section.Name, id, field.Name))
				if len(messages) == 0 {
					continue
				}
				for _, message := range messages {
					if err := s.fail(ctx, message); err != nil {
						return err
					}
				}
				if err := s.promptField(ctx, c, section.Name, id, field); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// printSummary renders the state as it was right before the successful submit;
// the controller is reset afterwards.
func (s *Session) printSummary(ctx context.Context, snap controller.Snapshot) error {
	if s.summary == nil {
		return nil
	}
	out, err := s.summary.Render(ctx, snap, render.RenderOptions{})
	if err != nil {
		return err
	}
	return s.info(ctx, strings.TrimRight(string(out), "\n"))
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) fail(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}

// textValidator rejects answers the field pattern refuses, so survey can keep
// the prompt open. Requiredness is left to submit.
func textValidator(field model.FieldSchema) func(string) error {
	if field.Validator == nil {
		return nil
	}
	return func(answer string) error {
		if model.CheckText(field, strings.TrimSpace(answer)) {
			return nil
		}
		return errors.New(invalidMessage(field))
	}
}

func invalidMessage(field model.FieldSchema) string {
	if msg := strings.TrimSpace(field.ErrorMessage); msg != "" {
		return msg
	}
	return field.DisplayLabel() + " is not valid."
}

func sectionTitle(section model.Section) string {
	if title := strings.TrimSpace(section.Title); title != "" {
		return title
	}
	return section.Name
}
