// Package store persists release requests and their uploaded files locally.
// Requests live in SQLite; file payloads are written under <dir>/files and
// indexed in the same database. A Store satisfies both controller
// collaborators, so the CLI can run fully offline.
package store
