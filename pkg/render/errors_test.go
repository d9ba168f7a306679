package render_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/render"
)

func catalogForm() model.Form {
	return model.Form{
		ID: "back-catalog",
		Sections: []model.Section{
			{
				Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1,
				Fields: []model.FieldSchema{
					{Name: "title", Label: "Release title", Kind: model.FieldKindText, Required: true},
					{Name: "cover", Label: "Cover", Kind: model.FieldKindFile, Required: true},
				},
			},
			{
				Name: "catalog", MinCount: 1, StartAmount: 1,
				Fields: []model.FieldSchema{
					{
						Name:         "performers",
						Kind:         model.FieldKindText,
						Validator:    model.MustPattern(`^[A-Za-z ,]+$`),
						ErrorMessage: "Use letters, spaces and commas.",
					},
					{Name: "isrc", Label: "ISRC", Kind: model.FieldKindText, Validator: model.MustPattern(`^\d{10}$`)},
				},
			},
		},
	}
}

func TestMapSubmitErrorValidation(t *testing.T) {
	form := catalogForm()
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.SetField("catalog", 0, "performers", model.Text("Ivan1")); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := c.SetField("catalog", 0, "isrc", model.Text("12")); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	got := render.MapSubmitError(form, c.Check())
	want := render.ErrorMapping{
		Fields: map[string][]string{
			"0-catalog-performers": {"Use letters, spaces and commas."},
			"0-catalog-isrc":       {"ISRC is not valid."},
		},
		Form: []string{render.MessageBlocked},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSubmitErrorRequiredAndMissingTogether(t *testing.T) {
	form := catalogForm()
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := render.MapSubmitError(form, c.Check())
	want := render.ErrorMapping{
		Fields: map[string][]string{
			"0-release-title": {"Release title is required."},
			"0-release-cover": {"Cover: please attach a file."},
		},
		Form: []string{render.MessageBlocked},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSubmitErrorFormLevel(t *testing.T) {
	form := catalogForm()
	cases := map[string]struct {
		err  error
		want []string
	}{
		"nil": {},
		"busy": {
			err:  fmt.Errorf("edit: %w", controller.ErrBusy),
			want: []string{render.MessageBusy},
		},
		"transport": {
			err:  &controller.TransportError{Op: "upload", Err: errors.New("status 502")},
			want: []string{render.MessageTransport, "status 502"},
		},
		"unknown": {
			err:  errors.New("boom"),
			want: []string{"boom"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := render.MapSubmitError(form, tc.err)
			if got.Fields != nil {
				t.Fatalf("unexpected field errors: %v", got.Fields)
			}
			if diff := cmp.Diff(tc.want, got.Form); diff != "" {
				t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
			}
			if (tc.err == nil) != (len(got.Form) == 0) {
				t.Fatalf("form messages %v for %v", got.Form, tc.err)
			}
		})
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
