package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	infoMessages []string
	prompts      []InputConfig
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted for " + cfg.Message)
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted for " + cfg.Message)
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted for " + cfg.Message)
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted for " + cfg.Message)
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) saw(fragment string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

type memoryStore struct{ names []string }

func (m *memoryStore) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	m.names = append(m.names, name)
	return "ref-" + name, nil
}

type memorySubmitter struct {
	records []controller.Record
	err     error
}

func (m *memorySubmitter) SubmitRecord(_ context.Context, _ string, rec controller.Record) (string, error) {
	if m.err != nil {
		err := m.err
		m.err = nil
		return "", err
	}
	m.records = append(m.records, rec)
	return "req-9", nil
}

func singleForm() model.Form {
	return model.Form{
		ID:    "single",
		Title: "Single",
		Sections: []model.Section{
			{
				Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1,
				Fields: []model.FieldSchema{
					{Name: "title", Label: "Title", Kind: model.FieldKindText, Required: true},
					{Name: "genre", Label: "Genre", Kind: model.FieldKindSelect, Options: []string{"Rock", "Pop"}},
					{Name: "explicit", Label: "Explicit", Kind: model.FieldKindCheckbox},
					{Name: "cover", Label: "Cover", Kind: model.FieldKindFile, Required: true, Accept: []string{"image/png"}},
				},
			},
			{
				Name: "tracks", Title: "Track", MinCount: 1, StartAmount: 1, MaxCount: 2,
				Fields: []model.FieldSchema{
					{Name: "trackName", Label: "Track name", Kind: model.FieldKindText, Required: true},
					{Name: "isrc", Label: "ISRC", Kind: model.FieldKindText, Validator: model.MustPattern(`^\d{10}$`), ErrorMessage: "ISRC is ten digits."},
				},
			},
		},
	}
}

func fakeFiles(path string) (model.File, error) {
	return model.File{Name: path, MediaType: MediaType(path, nil), Data: []byte("data")}, nil
}

func TestRunFillsReordersAndSubmits(t *testing.T) {
	store := &memoryStore{}
	submitter := &memorySubmitter{}
	c, err := controller.New(singleForm(), controller.WithFileStore(store), controller.WithRecordSubmitter(submitter))
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}

	driver := &stubDriver{
		inputs: []string{
			"Blue",                    // release title
			"cover.gif", "cover.png",  // rejected, then accepted
			"One", "12", "1234567890", // track 1, isrc re-prompted
			"", "0987654321",          // track 2 without a name
			"1",                       // move entry 2 to position 1
			"Two",                     // repair the missing track name
		},
		selectIdx: []int{1, 1},
		confirm:   []bool{true, true, false, true, false},
	}

	receipt, err := New(WithPromptDriver(driver), WithFileReader(fakeFiles)).Run(context.Background(), c)
	if err != nil {
		t.Fatalf("Run: %v (info: %v)", err, driver.infoMessages)
	}
	if receipt.ID != "req-9" || receipt.Uploaded != 1 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if diff := cmp.Diff([]string{"cover.png"}, store.names); diff != "" {
		t.Fatalf("uploads mismatch (-want +got):\n%s", diff)
	}

	want := controller.Record{
		Form: "single",
		Sections: map[string][]map[string]any{
			"release": {{"title": "Blue", "genre": "Pop", "explicit": true, "cover": "ref-cover.png"}},
			"tracks": {
				{"trackName": "Two", "isrc": "0987654321"},
				{"trackName": "One", "isrc": "1234567890"},
			},
		},
	}
	if diff := cmp.Diff([]controller.Record{want}, submitter.records); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	for _, fragment := range []string{"not accepted", "ISRC is ten digits.", "Track name is required.", "Request submitted: req-9"} {
		if !driver.saw(fragment) {
			t.Fatalf("missing message %q in %v", fragment, driver.infoMessages)
		}
	}
	for _, prompt := range driver.prompts {
		if prompt.Message == "ISRC" && prompt.Validator == nil {
			t.Fatalf("ISRC prompt has no validator")
		}
	}
	if driver.inputPos != len(driver.inputs) || driver.confirmPos != len(driver.confirm) || driver.selectPos != len(driver.selectIdx) {
		t.Fatalf("script not fully consumed: input %d confirm %d select %d", driver.inputPos, driver.confirmPos, driver.selectPos)
	}
}

func TestRunRetriesTransportFailures(t *testing.T) {
	form := model.Form{
		ID: "clip",
		Sections: []model.Section{{
			Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1,
			Fields: []model.FieldSchema{{Name: "title", Kind: model.FieldKindText, Required: true}},
		}},
	}
	submitter := &memorySubmitter{err: errors.New("status 503")}
	c, err := controller.New(form, controller.WithRecordSubmitter(submitter))
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	driver := &stubDriver{inputs: []string{"Clip"}, confirm: []bool{true}}

	receipt, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "})).Run(context.Background(), c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if receipt.ID != "req-9" || len(submitter.records) != 1 {
		t.Fatalf("receipt = %+v, records = %d", receipt, len(submitter.records))
	}
	if !driver.saw("! status 503") {
		t.Fatalf("transport error not shown: %v", driver.infoMessages)
	}
}

func TestRunDeclinedRetry(t *testing.T) {
	form := model.Form{
		ID: "clip",
		Sections: []model.Section{{
			Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1,
			Fields: []model.FieldSchema{{Name: "title", Kind: model.FieldKindText}},
		}},
	}
	c, err := controller.New(form, controller.WithRecordSubmitter(&memorySubmitter{err: errors.New("offline")}))
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	driver := &stubDriver{inputs: []string{""}, confirm: []bool{false}}

	_, err = New(WithPromptDriver(driver)).Run(context.Background(), c)
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	var transport *controller.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected the transport error to be kept, got %v", err)
	}
}

func TestMediaType(t *testing.T) {
	cases := map[string]string{
		"mix.WAV":   "audio/wav",
		"cover.png": "image/png",
		"notes.txt": "text/plain",
	}
	for path, want := range cases {
		if got := MediaType(path, nil); got != want {
			t.Fatalf("MediaType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestTextPromptsCarryFieldPattern(t *testing.T) {
	tracks := singleForm().Sections[1]
	isrc, _ := tracks.Field("isrc")
	title, _ := tracks.Field("trackName")

	if textValidator(title) != nil {
		t.Fatalf("fields without a pattern should not get a prompt validator")
	}
	check := surveyValidator(textValidator(isrc))
	for _, answer := range []any{"0123456789", "", " 0123456789 ", nil} {
		if err := check(answer); err != nil {
			t.Fatalf("answer %v rejected: %v", answer, err)
		}
	}
	err := check("12-34")
	if err == nil || err.Error() != "ISRC is ten digits." {
		t.Fatalf("expected pattern error, got %v", err)
	}
}

func TestUnchangedAnswerKeepsCascadedEdits(t *testing.T) {
	form := model.Form{
		ID: "single",
		Sections: []model.Section{
			{Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1, Fields: []model.FieldSchema{
				{Name: "performers", Label: "Performers", Kind: model.FieldKindText, Cascade: []string{"tracks"}},
			}},
			{Name: "tracks", MinCount: 1, StartAmount: 1, MaxCount: 2, Fields: []model.FieldSchema{
				{Name: "performers", Label: "Performers", Kind: model.FieldKindText},
			}},
		},
	}
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	if err := c.SetField("release", 0, "performers", model.Text("Ann")); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := c.SetField("tracks", 0, "performers", model.Text("Ann, Bob")); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	driver := &stubDriver{inputs: []string{"Ann"}}
	session := New(WithPromptDriver(driver))
	release, _ := form.Section("release")
	field, _ := release.Field("performers")
	if err := session.promptField(context.Background(), c, "release", 0, field); err != nil {
		t.Fatalf("promptField: %v", err)
	}

	state, err := c.Field("tracks", 0, "performers")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if got := state.Value.Text(); got != "Ann, Bob" {
		t.Fatalf("track performers = %q, want the track edit kept", got)
	}
}

func TestFillEntrySkipsFieldsGatedOnOtherAnswers(t *testing.T) {
	form := model.Form{
		ID: "authors",
		Sections: []model.Section{
			{Name: "authors", MinCount: 1, StartAmount: 1, MaxCount: 1, Fields: []model.FieldSchema{
				{Name: "passportType", Label: "Passport", Kind: model.FieldKindSelect, Options: []string{"ru", "kz"}},
				{Name: "code", Label: "Department code", Kind: model.FieldKindText, Required: true, RequiredWhen: `entry.passportType == "ru"`},
				{Name: "idNumber", Label: "ID number", Kind: model.FieldKindText, Required: true, RequiredWhen: `entry.passportType == "kz"`},
			}},
		},
	}
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}

	driver := &stubDriver{selectIdx: []int{1}, inputs: []string{"123456789012"}}
	session := New(WithPromptDriver(driver))
	if err := session.fillEntry(context.Background(), c, form.Sections[0], 0, 1); err != nil {
		t.Fatalf("fillEntry: %v", err)
	}

	var asked []string
	for _, prompt := range driver.prompts {
		asked = append(asked, prompt.Message)
	}
	if diff := cmp.Diff([]string{"ID number"}, asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if err := c.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}
