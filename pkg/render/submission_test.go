package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.FormField("single"),
		render.OwnerField(" artist-7 "),
		render.ExtraField(" linkUpload ", true),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing":          "keep",
		"form":              "single",
		"owner":             " artist-7 ",
		"extras.linkUpload": "true",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "existing", Value: "keep"},
		{Name: "extras.linkUpload", Value: "true"},
		{Name: "form", Value: "single"},
		{Name: "owner", Value: " artist-7 "},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotFields(t *testing.T) {
	snap := controller.Snapshot{Form: "clip", Extras: map[string]any{"linkUpload": false}}

	got := render.SortedHiddenFields(render.MergeHiddenFields(nil, render.SnapshotFields(snap)...))
	want := []render.HiddenField{
		{Name: "extras.linkUpload", Value: "false"},
		{Name: "form", Value: "clip"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot hidden fields mismatch (-want +got):\n%s", diff)
	}
}
