package controller_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/model"
)

var performersPattern = model.MustPattern(`^[A-Za-zА-Яа-я ,'-]+$`)

func releaseForm() model.Form {
	return model.Form{
		ID:    "single",
		Title: "Single",
		Sections: []model.Section{
			{
				Name: "release", MinCount: 1, StartAmount: 1, MaxCount: 1,
				Fields: []model.FieldSchema{
					{Name: "title", Kind: model.FieldKindText, Required: true},
					{Name: "performers", Kind: model.FieldKindText, Validator: performersPattern, Cascade: []string{"tracks"}},
					{Name: "genre", Kind: model.FieldKindSelect, Options: []string{"Rock", "Pop"}},
					{Name: "cover", Kind: model.FieldKindFile, Required: true, RequiredWhen: "!extras.linkUpload", Accept: []string{"image/jpeg", "image/png"}},
					{Name: "cloudLink", Kind: model.FieldKindText, Required: true, RequiredWhen: "extras.linkUpload"},
				},
			},
			{
				Name: "tracks", MinCount: 1, StartAmount: 1, MaxCount: 3,
				Fields: []model.FieldSchema{
					{Name: "performers", Kind: model.FieldKindText, Validator: performersPattern, Required: true},
					{Name: "trackName", Kind: model.FieldKindText, Required: true},
					{Name: "explicit", Kind: model.FieldKindCheckbox},
					{Name: "wav", Kind: model.FieldKindFile, Required: true, Accept: []string{"audio/wav"}},
				},
			},
		},
	}
}

func newController(t *testing.T, opts ...controller.Option) *controller.Controller {
	t.Helper()
	c, err := controller.New(releaseForm(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func mustSet(t *testing.T, c *controller.Controller, section string, id controller.EntryID, field string, value model.Value) {
	t.Helper()
	if err := c.SetField(section, id, field, value); err != nil {
		t.Fatalf("SetField(%s, %d, %s): %v", section, id, field, err)
	}
}

func fieldState(t *testing.T, c *controller.Controller, section string, id controller.EntryID, field string) controller.FieldState {
	t.Helper()
	state, err := c.Field(section, id, field)
	if err != nil {
		t.Fatalf("Field(%s, %d, %s): %v", section, id, field, err)
	}
	return state
}

func entryIDs(t *testing.T, c *controller.Controller, section string) []controller.EntryID {
	t.Helper()
	ids, err := c.EntryIDs(section)
	if err != nil {
		t.Fatalf("EntryIDs(%s): %v", section, err)
	}
	return ids
}

func TestNewRejectsInvalidForm(t *testing.T) {
	form := releaseForm()
	form.Sections[1].StartAmount = 5
	if _, err := controller.New(form); err == nil {
		t.Fatalf("expected error for start amount above max")
	}
}

func TestInitializeUsesStartAmountAndDefaults(t *testing.T) {
	form := releaseForm()
	form.Sections[1].StartAmount = 2
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if diff := cmp.Diff([]controller.EntryID{0, 1}, entryIDs(t, c, "tracks")); diff != "" {
		t.Fatalf("track ids mismatch (-want +got):\n%s", diff)
	}
	if keys := c.InvalidKeys(); len(keys) != 0 {
		t.Fatalf("expected no invalid keys, got %v", keys)
	}
	if got := fieldState(t, c, "release", 0, "genre").Value.Text(); got != "Rock" {
		t.Fatalf("genre default = %q, want first option", got)
	}
	if fieldState(t, c, "tracks", 1, "explicit").Value.Flag() {
		t.Fatalf("checkbox default should be false")
	}
	if _, ok := fieldState(t, c, "tracks", 1, "wav").Value.File(); ok {
		t.Fatalf("file default should be absent")
	}
}

func TestPerformersScenario(t *testing.T) {
	submitter := &recordingSubmitter{}
	c := newController(t, controller.WithRecordSubmitter(submitter), controller.WithFileStore(&recordingStore{}))

	mustSet(t, c, "tracks", 0, "performers", model.Text("Ivan123"))
	if fieldState(t, c, "tracks", 0, "performers").Valid {
		t.Fatalf("expected Ivan123 to be invalid")
	}
	if diff := cmp.Diff([]string{"0-tracks-performers"}, c.InvalidKeys()); diff != "" {
		t.Fatalf("invalid keys mismatch (-want +got):\n%s", diff)
	}

	mustSet(t, c, "tracks", 0, "performers", model.Text("Ivan"))
	if !fieldState(t, c, "tracks", 0, "performers").Valid {
		t.Fatalf("expected Ivan to be valid")
	}
	if keys := c.InvalidKeys(); len(keys) != 0 {
		t.Fatalf("expected no invalid keys, got %v", keys)
	}

	_, err := c.Submit(t.Context())
	var required *controller.RequiredFieldError
	if !errors.As(err, &required) {
		t.Fatalf("expected RequiredFieldError, got %v", err)
	}
	var names []string
	for _, ref := range required.Fields {
		names = append(names, ref.Section+"."+ref.Field)
	}
	if diff := cmp.Diff([]string{"release.title", "tracks.trackName"}, names); diff != "" {
		t.Fatalf("required fields mismatch (-want +got):\n%s", diff)
	}
	if submitter.calls != 0 {
		t.Fatalf("submitter should not be called, got %d calls", submitter.calls)
	}
	if got := fieldState(t, c, "tracks", 0, "performers").Value.Text(); got != "Ivan" {
		t.Fatalf("entry store changed: performers = %q", got)
	}
}

func TestEmptyTextIsAlwaysValid(t *testing.T) {
	c := newController(t)
	for _, field := range []string{"title", "performers", "cloudLink"} {
		mustSet(t, c, "release", 0, field, model.Text(""))
		if !fieldState(t, c, "release", 0, field).Valid {
			t.Fatalf("empty %s should be valid", field)
		}
	}
	if keys := c.InvalidKeys(); len(keys) != 0 {
		t.Fatalf("expected no invalid keys, got %v", keys)
	}
}

func TestTextMatchingDefaultIsValid(t *testing.T) {
	form := releaseForm()
	form.Sections[0].Fields[1].DefaultText = "legacy_value_42"
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustSet(t, c, "release", 0, "performers", model.Text("legacy_value_42"))
	if !fieldState(t, c, "release", 0, "performers").Valid {
		t.Fatalf("default literal should be valid")
	}
	mustSet(t, c, "release", 0, "performers", model.Text("other_42"))
	if fieldState(t, c, "release", 0, "performers").Valid {
		t.Fatalf("non matching value should be invalid")
	}
}

func TestAddEntryStopsAtMax(t *testing.T) {
	c := newController(t)
	for i := 0; i < 3+5; i++ {
		if _, _, err := c.AddEntry("tracks"); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	if got := len(entryIDs(t, c, "tracks")); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}

func TestAddEntryScenarioMaxThree(t *testing.T) {
	c := newController(t)
	for i := 0; i < 3; i++ {
		_, _, err := c.AddEntry("tracks")
		if err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	if got := len(entryIDs(t, c, "tracks")); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
	id, added, err := c.AddEntry("tracks")
	if err != nil || added || id != 0 {
		t.Fatalf("fourth AddEntry = (%d, %v, %v), want no-op", id, added, err)
	}
	if got := len(entryIDs(t, c, "tracks")); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}

func TestRemoveEntryAtMinIsNoop(t *testing.T) {
	c := newController(t)
	removed, err := c.RemoveEntry("tracks", 0)
	if err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if removed {
		t.Fatalf("expected no-op at min")
	}
	if diff := cmp.Diff([]controller.EntryID{0}, entryIDs(t, c, "tracks")); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveEntryPurgesOnlyItsKeys(t *testing.T) {
	c := newController(t)
	first, _, _ := c.AddEntry("tracks")
	second, _, _ := c.AddEntry("tracks")

	mustSet(t, c, "tracks", 0, "performers", model.Text("Bad0"))
	mustSet(t, c, "tracks", first, "performers", model.Text("Bad1"))
	mustSet(t, c, "tracks", second, "performers", model.Text("Bad2"))
	mustSet(t, c, "tracks", second, "trackName", model.Text("Kept"))

	removed, err := c.RemoveEntry("tracks", first)
	if err != nil || !removed {
		t.Fatalf("RemoveEntry = (%v, %v)", removed, err)
	}
	want := []string{"0-tracks-performers", "2-tracks-performers"}
	if diff := cmp.Diff(want, c.InvalidKeys()); diff != "" {
		t.Fatalf("invalid keys mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryIDsAreNotReused(t *testing.T) {
	c := newController(t)
	id1, _, _ := c.AddEntry("tracks")
	if _, err := c.RemoveEntry("tracks", id1); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	id2, added, err := c.AddEntry("tracks")
	if err != nil || !added {
		t.Fatalf("AddEntry = (%v, %v)", added, err)
	}
	if id2 == id1 {
		t.Fatalf("entry id %d was reused", id1)
	}
	if diff := cmp.Diff([]controller.EntryID{0, 2}, entryIDs(t, c, "tracks")); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckboxUsesExplicitValue(t *testing.T) {
	c := newController(t)
	mustSet(t, c, "tracks", 0, "explicit", model.Flag(true))
	mustSet(t, c, "tracks", 0, "explicit", model.Flag(true))
	if !fieldState(t, c, "tracks", 0, "explicit").Value.Flag() {
		t.Fatalf("setting true twice must stay true")
	}
	if err := c.SetField("tracks", 0, "explicit", model.Text("true")); !errors.Is(err, controller.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestSelectRequiresDeclaredOption(t *testing.T) {
	c := newController(t)
	mustSet(t, c, "release", 0, "genre", model.Option("Pop"))
	if got := fieldState(t, c, "release", 0, "genre").Value.Text(); got != "Pop" {
		t.Fatalf("genre = %q, want Pop", got)
	}
	if err := c.SetField("release", 0, "genre", model.Text("Jazz")); !errors.Is(err, controller.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if got := fieldState(t, c, "release", 0, "genre").Value.Text(); got != "Pop" {
		t.Fatalf("rejected option changed value to %q", got)
	}
}

func TestSelectWithoutOptionsIsInert(t *testing.T) {
	form := releaseForm()
	form.Sections[0].Fields[2].Options = nil
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustSet(t, c, "release", 0, "genre", model.Option("Jazz"))
	if got := fieldState(t, c, "release", 0, "genre").Value.Text(); got != "" {
		t.Fatalf("inert select changed to %q", got)
	}
}

func TestFileWithUnacceptedTypeIsRejected(t *testing.T) {
	c := newController(t)
	mustSet(t, c, "tracks", 0, "wav", model.Attach(model.File{Name: "a.wav", MediaType: "audio/wav", Data: []byte("RIFF")}))

	err := c.SetField("tracks", 0, "wav", model.Attach(model.File{Name: "a.mp3", MediaType: "audio/mpeg", Data: []byte("ID3")}))
	if !errors.Is(err, controller.ErrRejectedFile) {
		t.Fatalf("expected ErrRejectedFile, got %v", err)
	}
	state := fieldState(t, c, "tracks", 0, "wav")
	if _, ok := state.Value.File(); ok {
		t.Fatalf("rejected file should revert to absent")
	}
	if !state.Valid {
		t.Fatalf("rejected file must not be stored as invalid")
	}
}

func TestTextIsSanitised(t *testing.T) {
	c := newController(t)
	mustSet(t, c, "tracks", 0, "performers", model.Text("<b>O'Brien</b>"))
	state := fieldState(t, c, "tracks", 0, "performers")
	if state.Value.Text() != "O'Brien" || !state.Valid {
		t.Fatalf("got %+v, want sanitised valid O'Brien", state)
	}
}

func TestEscapedMarkupIsNotRevived(t *testing.T) {
	c := newController(t)
	cases := map[string]string{
		"&lt;script&gt;alert(1)&lt;/script&gt;": "",
		"&lt;b&gt;Blue&lt;/b&gt;":               "Blue",
		"Rock &amp; Roll":                       "Rock & Roll",
	}
	for input, want := range cases {
		mustSet(t, c, "release", 0, "title", model.Text(input))
		if got := fieldState(t, c, "release", 0, "title").Value.Text(); got != want {
			t.Fatalf("title from %q = %q, want %q", input, got, want)
		}
	}
}

func TestCascadeMirrorsReleaseLevelFields(t *testing.T) {
	c := newController(t)
	second, _, _ := c.AddEntry("tracks")

	mustSet(t, c, "release", 0, "performers", model.Text("Ivan"))
	for _, id := range []controller.EntryID{0, second} {
		state := fieldState(t, c, "tracks", id, "performers")
		if state.Value.Text() != "Ivan" || !state.Valid {
			t.Fatalf("track %d performers = %+v", id, state)
		}
	}

	mustSet(t, c, "release", 0, "performers", model.Text("Ivan9"))
	want := []string{"0-release-performers", "0-tracks-performers", "1-tracks-performers"}
	if diff := cmp.Diff(want, c.InvalidKeys()); diff != "" {
		t.Fatalf("invalid keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCascadeUsesTargetValidator(t *testing.T) {
	form := releaseForm()
	form.Sections[1].Fields[0].Validator = model.MustPattern(`^[A-Z]+$`)
	c, err := controller.New(form)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustSet(t, c, "release", 0, "performers", model.Text("Ivan"))
	if !fieldState(t, c, "release", 0, "performers").Valid {
		t.Fatalf("release performers should be valid")
	}
	if fieldState(t, c, "tracks", 0, "performers").Valid {
		t.Fatalf("track copy must be checked with the track validator")
	}
}

func TestAddEntryTakesReleaseLevelValue(t *testing.T) {
	c := newController(t)
	mustSet(t, c, "release", 0, "performers", model.Text("Ivan"))
	id, _, err := c.AddEntry("tracks")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if got := fieldState(t, c, "tracks", id, "performers").Value.Text(); got != "Ivan" {
		t.Fatalf("new track performers = %q, want Ivan", got)
	}
}

func TestCopyFieldsRoundTrip(t *testing.T) {
	c := newController(t)
	second, _, _ := c.AddEntry("tracks")
	third, _, _ := c.AddEntry("tracks")

	mustSet(t, c, "tracks", 0, "performers", model.Text("Anna"))
	mustSet(t, c, "tracks", 0, "trackName", model.Text("Intro"))
	mustSet(t, c, "tracks", 0, "explicit", model.Flag(true))
	mustSet(t, c, "tracks", second, "performers", model.Text("Bad1"))
	mustSet(t, c, "tracks", third, "trackName", model.Text("Outro"))

	if err := c.CopyFields("tracks", 0, "performers", "explicit"); err != nil {
		t.Fatalf("CopyFields: %v", err)
	}

	source := fieldState(t, c, "tracks", 0, "performers")
	flag := fieldState(t, c, "tracks", 0, "explicit")
	for _, id := range []controller.EntryID{second, third} {
		got := fieldState(t, c, "tracks", id, "performers")
		if !got.Value.Equal(source.Value) || got.Valid != source.Valid {
			t.Fatalf("track %d performers = %+v, want %+v", id, got, source)
		}
		if got := fieldState(t, c, "tracks", id, "explicit"); !got.Value.Equal(flag.Value) {
			t.Fatalf("track %d explicit not copied", id)
		}
	}
	if got := fieldState(t, c, "tracks", third, "trackName").Value.Text(); got != "Outro" {
		t.Fatalf("unlisted field changed to %q", got)
	}
	if keys := c.InvalidKeys(); len(keys) != 0 {
		t.Fatalf("copy should clear invalid keys, got %v", keys)
	}

	if err := c.CopyFields("tracks", 0, "nope"); !errors.Is(err, controller.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestResolveTarget(t *testing.T) {
	c := newController(t)
	c.AddEntry("tracks")
	c.AddEntry("tracks")

	cases := []struct {
		input string
		want  controller.EntryID
		ok    bool
	}{
		{"2", 1, true},
		{"3", 2, true},
		{"03", 2, true},
		{" 3 ", 0, false},
		{"+2", 0, false},
		{"1", 0, false},
		{"0", 0, false},
		{"-1", 0, false},
		{"4", 0, false},
		{"two", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := c.ResolveTarget("tracks", 0, tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ResolveTarget(%q) = (%d, %v), want (%d, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestReorderSwapsOnlyTwoEntries(t *testing.T) {
	c := newController(t)
	c.AddEntry("tracks")
	c.AddEntry("tracks")
	mustSet(t, c, "tracks", 0, "trackName", model.Text("First"))
	mustSet(t, c, "tracks", 0, "performers", model.Text("Bad1"))
	mustSet(t, c, "tracks", 2, "trackName", model.Text("Third"))

	target, ok := c.ResolveTarget("tracks", 0, "3")
	if !ok {
		t.Fatalf("expected target to resolve")
	}
	if err := c.ReorderEntries("tracks", 0, target); err != nil {
		t.Fatalf("ReorderEntries: %v", err)
	}
	if diff := cmp.Diff([]controller.EntryID{2, 1, 0}, entryIDs(t, c, "tracks")); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got := fieldState(t, c, "tracks", 0, "trackName").Value.Text(); got != "First" {
		t.Fatalf("entry 0 lost its content: %q", got)
	}
	if diff := cmp.Diff([]string{"0-tracks-performers"}, c.InvalidKeys()); diff != "" {
		t.Fatalf("invalid keys should follow the entry (-want +got):\n%s", diff)
	}

	snap := c.Snapshot()
	tracks, _ := snap.Section("tracks")
	if tracks.Entries[0].ID != 2 || tracks.Entries[0].Position != 1 {
		t.Fatalf("snapshot order = %+v", tracks.Entries[0])
	}

	if err := c.ReorderEntries("tracks", 1, 1); !errors.Is(err, controller.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := c.ReorderEntries("tracks", 1, 9); !errors.Is(err, controller.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry, got %v", err)
	}
}

func TestUnknownTargets(t *testing.T) {
	c := newController(t)
	if err := c.SetField("albums", 0, "title", model.Text("x")); !errors.Is(err, controller.ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if err := c.SetField("tracks", 7, "trackName", model.Text("x")); !errors.Is(err, controller.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry, got %v", err)
	}
	if err := c.SetField("tracks", 0, "isrc", model.Text("x")); !errors.Is(err, controller.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, _, err := c.AddEntry("albums"); !errors.Is(err, controller.ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
}

func TestSnapshotReportsBounds(t *testing.T) {
	c := newController(t)
	snap := c.Snapshot()
	release, ok := snap.Section("release")
	if !ok {
		t.Fatalf("release section missing")
	}
	if release.CanAdd || release.CanRemove {
		t.Fatalf("release is fixed at one entry: %+v", release)
	}
	tracks, _ := snap.Section("tracks")
	if !tracks.CanAdd || tracks.CanRemove {
		t.Fatalf("tracks bounds = add %v remove %v", tracks.CanAdd, tracks.CanRemove)
	}
	if got := tracks.Entries[0].Fields[0].Key; got != "0-tracks-performers" {
		t.Fatalf("field key = %q", got)
	}
}
