package client

import (
	"maps"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// Section names with a fixed place in the API payload.
const (
	RootSection    = "release"
	AuthorsSection = "authors"
)

// ReleasePayload is the body of POST /release/request.
type ReleasePayload struct {
	Username string           `json:"username"`
	Type     string           `json:"type"`
	Data     map[string]any   `json:"data"`
	Authors  []map[string]any `json:"authors"`
}

// RemoteRequest is a release request as the API reports it.
type RemoteRequest struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Date     string           `json:"date"`
	Type     string           `json:"type"`
	Status   string           `json:"status"`
	Data     map[string]any   `json:"data"`
	Authors  []map[string]any `json:"authors"`
}

// ReleaseType maps a form id to the API request type. Singles and albums are
// both "new-music".
func ReleaseType(form string) string {
	switch form {
	case "single", "album":
		return "new-music"
	default:
		return form
	}
}

// NewReleasePayload flattens rec: the first release entry becomes the data
// object, other sections become arrays inside it, and the authors section is
// lifted out. Extras are kept under data.extras.
func NewReleasePayload(owner string, rec controller.Record) ReleasePayload {
	payload := ReleasePayload{
		Username: owner,
		Type:     ReleaseType(rec.Form),
		Data:     make(map[string]any),
		Authors:  []map[string]any{},
	}
	if rows := rec.Sections[RootSection]; len(rows) > 0 {
		maps.Copy(payload.Data, rows[0])
	}
	for name, rows := range rec.Sections {
		switch name {
		case RootSection:
		case AuthorsSection:
			payload.Authors = append(payload.Authors, rows...)
		default:
			payload.Data[name] = rows
		}
	}
	if len(rec.Extra) > 0 {
		payload.Data["extras"] = maps.Clone(rec.Extra)
	}
	return payload
}
