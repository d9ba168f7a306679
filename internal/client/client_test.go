package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com", "://nope"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("New(%q): expected error", raw)
		}
	}
}

func TestUploadSendsMultipartFile(t *testing.T) {
	var gotName, gotType, gotBody, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "f-1"}`)
	}))
	defer server.Close()

	c, err := New(server.URL + "/api/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := c.Upload(context.Background(), "cover.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "f-1" {
		t.Fatalf("id = %q", id)
	}
	want := []string{"/api/file/upload", "cover.png", "image/png", "png-bytes"}
	if diff := cmp.Diff(want, []string{gotPath, gotName, gotType, gotBody}); diff != "" {
		t.Fatalf("upload mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadAcceptsBareStringID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `"f-2"`)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	id, err := c.Upload(context.Background(), "a.wav", "", []byte("x"))
	if err != nil || id != "f-2" {
		t.Fatalf("Upload = %q, %v", id, err)
	}
}

func TestUploadRequiresID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	if _, err := c.Upload(context.Background(), "a.wav", "", []byte("x")); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestSubmitRecordPostsReleasePayload(t *testing.T) {
	var got ReleasePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/release/request" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"id": 42}`)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	rec := controller.Record{
		Form: "single",
		Sections: map[string][]map[string]any{
			"release": {{"title": "Blue", "cover": "f-1"}},
			"tracks":  {{"title": "One"}},
			"authors": {{"fullName": "Ann Lee"}},
		},
		Extra: map[string]any{"linkUpload": false},
	}
	id, err := c.SubmitRecord(context.Background(), "ann", rec)
	if err != nil {
		t.Fatalf("SubmitRecord: %v", err)
	}
	if id != "42" {
		t.Fatalf("id = %q", id)
	}

	want := ReleasePayload{
		Username: "ann",
		Type:     "new-music",
		Data: map[string]any{
			"title":  "Blue",
			"cover":  "f-1",
			"tracks": []any{map[string]any{"title": "One"}},
			"extras": map[string]any{"linkUpload": false},
		},
		Authors: []map[string]any{{"fullName": "Ann Lee"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitRecordFallsBackToLocalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	c.newID = func() string { return "local-1" }
	id, err := c.SubmitRecord(context.Background(), "ann", controller.Record{Form: "clip"})
	if err != nil || id != "local-1" {
		t.Fatalf("SubmitRecord = %q, %v", id, err)
	}
}

func TestStatusErrorCarriesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "storage offline", http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	_, err := c.SubmitRecord(context.Background(), "ann", controller.Record{Form: "clip"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadGateway || statusErr.Body != "storage offline" {
		t.Fatalf("status error = %+v", statusErr)
	}
	if !strings.Contains(err.Error(), "POST /release/request: status 502") {
		t.Fatalf("error text = %q", err.Error())
	}
}

func TestRequestsRoundTrip(t *testing.T) {
	var putBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/release/requests":
			_, _ = io.WriteString(w, `[{"id":"r1","username":"ann","type":"clip","status":"pending","data":{"title":"Blue"},"authors":[]}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/release/request/":
			_, _ = io.WriteString(w, `{"id":"`+r.URL.Query().Get("id")+`","status":"accepted"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/release/request/":
			if r.URL.Query().Get("id") != "r1" {
				t.Errorf("put id = %q", r.URL.Query().Get("id"))
			}
			_ = json.NewDecoder(r.Body).Decode(&putBody)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c, _ := New(server.URL)
	ctx := context.Background()

	list, err := c.ListRequests(ctx)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	wantList := []RemoteRequest{{
		ID:       "r1",
		Username: "ann",
		Type:     "clip",
		Status:   "pending",
		Data:     map[string]any{"title": "Blue"},
		Authors:  []map[string]any{},
	}}
	if diff := cmp.Diff(wantList, list); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	one, err := c.GetRequest(ctx, "r1")
	if err != nil || one.ID != "r1" || one.Status != "accepted" {
		t.Fatalf("GetRequest = %+v, %v", one, err)
	}

	if err := c.SetStatus(ctx, "r1", "error"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"status": "error"}, putBody); diff != "" {
		t.Fatalf("put body mismatch (-want +got):\n%s", diff)
	}
}

func TestReleaseType(t *testing.T) {
	got := []string{ReleaseType("single"), ReleaseType("album"), ReleaseType("clip"), ReleaseType("back-catalog")}
	want := []string{"new-music", "new-music", "clip", "back-catalog"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}
