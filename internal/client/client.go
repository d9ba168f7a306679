// Package client talks to the release-request API over HTTP. A Client
// satisfies both controller collaborators.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 20 * time.Second

const (
	uploadPath   = "/file/upload"
	requestPath  = "/release/request"
	requestsPath = "/release/requests"
	maxErrorBody = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("client: %s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client is an HTTP implementation of controller.FileStore and
// controller.RecordSubmitter.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
	newID  func() string
}

var (
	_ controller.FileStore       = (*Client)(nil)
	_ controller.RecordSubmitter = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", base.Scheme)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Upload posts data as the multipart field "file" and returns the id the API
// assigns. The API answers either {"id": "..."} or a bare JSON string.
func (c *Client) Upload(ctx context.Context, name, mediaType string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if mediaType != "" {
		header.Set("Content-Type", mediaType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("client: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("client: build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("client: build upload: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, uploadPath, nil, writer.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	id, err := decodeID(raw)
	if err != nil {
		return "", fmt.Errorf("client: decode upload response: %w", err)
	}
	if id == "" {
		return "", errors.New("client: upload response carries no id")
	}
	return id, nil
}

// SubmitRecord posts rec as a release request filed by owner. When the API
// does not return an id, a local uuid is returned so callers can still refer
// to the submission.
func (c *Client) SubmitRecord(ctx context.Context, owner string, rec controller.Record) (string, error) {
	payload, err := json.Marshal(NewReleasePayload(owner, rec))
	if err != nil {
		return "", fmt.Errorf("client: marshal request: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, requestPath, nil, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	if id, err := decodeID(raw); err == nil && id != "" {
		return id, nil
	}
	return c.newID(), nil
}

// ListRequests fetches every release request.
func (c *Client) ListRequests(ctx context.Context) ([]RemoteRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, requestsPath, nil, "", nil)
	if err != nil {
		return nil, err
	}
	var out []RemoteRequest
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("client: decode requests: %w", err)
	}
	return out, nil
}

// GetRequest fetches one release request.
func (c *Client) GetRequest(ctx context.Context, id string) (RemoteRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, requestPath+"/", url.Values{"id": {id}}, "", nil)
	if err != nil {
		return RemoteRequest{}, err
	}
	var out RemoteRequest
	if err := json.Unmarshal(raw, &out); err != nil {
		return RemoteRequest{}, fmt.Errorf("client: decode request: %w", err)
	}
	return out, nil
}

// SetStatus updates the review status of a request.
func (c *Client) SetStatus(ctx context.Context, id, status string) error {
	payload, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("client: marshal status: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, requestPath+"/", url.Values{"id": {id}}, "application/json", bytes.NewReader(payload))
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read %s %s: %w", method, path, err)
	}
	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: text}
	}
	return raw, nil
}

func decodeID(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return strings.TrimSpace(id), nil
	}
	var envelope struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", err
	}
	switch v := envelope.ID.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}
