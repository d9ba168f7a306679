// Package testsupport holds in-memory controller collaborators shared by
// tests across packages.
package testsupport

import (
	"context"
	"strconv"
	"sync"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// Upload is one payload received by FileStore.
type Upload struct {
	Name      string
	MediaType string
	Size      int
}

// FileStore records uploads and hands out "file-<n>" references.
type FileStore struct {
	mu      sync.Mutex
	Uploads []Upload
	// Err, when set, fails the next upload and is then cleared.
	Err error
}

var _ controller.FileStore = (*FileStore)(nil)

// Upload implements controller.FileStore.
func (s *FileStore) Upload(_ context.Context, name, mediaType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		err := s.Err
		s.Err = nil
		return "", err
	}
	s.Uploads = append(s.Uploads, Upload{Name: name, MediaType: mediaType, Size: len(data)})
	return "file-" + strconv.Itoa(len(s.Uploads)), nil
}

// Submitter records submitted records and returns "request-<n>" ids.
type Submitter struct {
	mu      sync.Mutex
	Owners  []string
	Records []controller.Record
	// Errs fail the next len(Errs) submissions in order.
	Errs []error
}

var _ controller.RecordSubmitter = (*Submitter)(nil)

// SubmitRecord implements controller.RecordSubmitter.
func (s *Submitter) SubmitRecord(_ context.Context, owner string, rec controller.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Errs) > 0 {
		err := s.Errs[0]
		s.Errs = s.Errs[1:]
		return "", err
	}
	s.Owners = append(s.Owners, owner)
	s.Records = append(s.Records, rec)
	return "request-" + strconv.Itoa(len(s.Records)), nil
}
