package tui

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/model"
)

// FileReader loads the file at path into a model.File.
type FileReader func(path string) (model.File, error)

// Media types of the release assets, checked before the system table so the
// result does not depend on the host's mime database.
var releaseMediaTypes = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
}

// ReadFile is the default FileReader.
func ReadFile(path string) (model.File, error) {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return model.File{}, fmt.Errorf("tui: read %s: %w", path, err)
	}
	return model.File{
		Name:      filepath.Base(path),
		MediaType: MediaType(path, data),
		Data:      data,
	}, nil
}

// MediaType guesses the media type of a file from its extension, falling back
// to content sniffing. Parameters are dropped.
func MediaType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if known, ok := releaseMediaTypes[ext]; ok {
		return known
	}
	guess := mime.TypeByExtension(ext)
	if guess == "" {
		guess = http.DetectContentType(data)
	}
	if base, _, found := strings.Cut(guess, ";"); found {
		return strings.TrimSpace(base)
	}
	return guess
}
