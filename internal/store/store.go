package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

const (
	databaseName = "releaseform.db"
	filesDir     = "files"
	lockName     = ".lock"
)

// Store manages request and file persistence backed by SQLite.
type Store struct {
	db    *sql.DB
	dir   string
	lock  *flock.Flock
	now   func() time.Time
	newID func() string
}

var (
	_ controller.FileStore       = (*Store)(nil)
	_ controller.RecordSubmitter = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs overrides the id generator (uuid v4 by default).
func WithIDs(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// Open creates dir if needed and opens (or initialises) the database in it.
func Open(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, filesDir), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directories: %w", err)
	}

	dbPath := filepath.Join(dir, databaseName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:    db,
		dir:   dir,
		lock:  flock.New(filepath.Join(dir, filesDir, lockName)),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Upload writes data to <dir>/files/<id><ext> and indexes it. The directory
// lock is held for the write so concurrent processes never interleave.
func (s *Store) Upload(ctx context.Context, name, mediaType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := s.newID()
	rel := filepath.Join(filesDir, id+strings.ToLower(filepath.Ext(name)))

	if err := s.lock.Lock(); err != nil {
		return "", fmt.Errorf("store: lock files: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	target := filepath.Join(s.dir, rel)
	tmp := target + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store: move %s: %w", name, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, name, media_type, size, path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, mediaType, len(data), rel, s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("store: insert file: %w", err)
	}
	return id, nil
}

// File returns the metadata of an uploaded file. Path is absolute.
func (s *Store) File(ctx context.Context, id string) (File, error) {
	var (
		f       File
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, media_type, size, path, created_at FROM files WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.MediaType, &f.Size, &f.Path, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, fmt.Errorf("%w: file %s", ErrNotFound, id)
	}
	if err != nil {
		return File{}, fmt.Errorf("store: get file: %w", err)
	}
	f.Path = filepath.Join(s.dir, f.Path)
	f.CreatedAt = parseTime(created)
	return f, nil
}

// SubmitRecord stores rec as a pending request filed by owner.
func (s *Store) SubmitRecord(ctx context.Context, owner string, rec controller.Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("store: marshal record: %w", err)
	}
	id := s.newID()
	timestamp := s.now().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO release_requests (id, owner, form, status, data_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, owner, rec.Form, StatusPending, string(payload), timestamp, timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert request: %w", err)
	}
	return id, nil
}

const requestColumns = `id, owner, form, status, data_json, error_message, created_at, updated_at`

// GetRequest fetches a request by id.
func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM release_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	if err != nil {
		return Request{}, fmt.Errorf("store: get request: %w", err)
	}
	return req, nil
}

// ListRequests returns the requests of owner, newest first. An empty owner
// lists every request.
func (s *Store) ListRequests(ctx context.Context, owner string) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM release_requests`
	var args []any
	if owner = strings.TrimSpace(owner); owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// SetStatus moves a request to status. message is kept only for StatusError.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, message string) error {
	if !status.Valid() {
		return fmt.Errorf("store: unknown status %q", status)
	}
	var errMessage any
	if status == StatusError && strings.TrimSpace(message) != "" {
		errMessage = strings.TrimSpace(message)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE release_requests SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errMessage, s.now().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (Request, error) {
	var (
		req              Request
		status, payload  string
		errMessage       sql.NullString
		created, updated string
	)
	if err := row.Scan(&req.ID, &req.Owner, &req.Form, &status, &payload, &errMessage, &created, &updated); err != nil {
		return Request{}, err
	}
	if err := json.Unmarshal([]byte(payload), &req.Record); err != nil {
		return Request{}, fmt.Errorf("decode record %s: %w", req.ID, err)
	}
	req.Status = Status(status)
	req.ErrorMessage = errMessage.String
	req.CreatedAt = parseTime(created)
	req.UpdatedAt = parseTime(updated)
	return req, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
