// Package client talks to a remote hotelops backend. It satisfies the same
// interfaces as the gorm store, so a hotelops server configured with
// backend.url serves its board and wizard from another instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hotelops/internal/board"
	"hotelops/internal/common"
	"hotelops/internal/extraction"
	"hotelops/internal/models"
	"hotelops/internal/store"

	"go.uber.org/zap"
)

// Client is a JSON client for the /api/v1 routes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("client")
	return c
}

var (
	_ board.TaskSource      = (*Client)(nil)
	_ board.Roster          = (*Client)(nil)
	_ extraction.RecordSink = (*Client)(nil)
)

func (c *Client) ListTasks(ctx context.Context, f board.Filter) ([]board.Task, error) {
	q := url.Values{}
	for key, value := range map[string]string{
		"status":     f.Status,
		"department": f.Department,
		"priority":   f.Priority,
		"search":     f.Search,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	path := "/api/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Tasks []board.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) AssignTask(ctx context.Context, taskID, staffID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskID)+"/assign",
		map[string]string{"staff_id": staffID}, nil)
}

func (c *Client) CancelTask(ctx context.Context, taskID, reason string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskID)+"/cancel",
		map[string]string{"reason": reason}, nil)
}

func (c *Client) CreateTask(ctx context.Context, t board.NewTask) (board.Task, error) {
	var out struct {
		Task board.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", t, &out); err != nil {
		return board.Task{}, err
	}
	return out.Task, nil
}

func (c *Client) ActiveStaff(ctx context.Context) ([]board.Staff, error) {
	var out struct {
		Staff []board.Staff `json:"staff"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/staff", nil, &out); err != nil {
		return nil, err
	}
	return out.Staff, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, item extraction.Candidate) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/menu/items", item, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ListMenuItems(ctx context.Context) ([]store.MenuItem, error) {
	var out struct {
		Items []store.MenuItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/menu/items", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Events returns the backend's audit trail for a task.
func (c *Client) Events(ctx context.Context, taskID string) ([]models.TaskEvent, error) {
	var out struct {
		Events []models.TaskEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID)+"/events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// ListCategories feeds a local normalizer with the backend's categories.
func (c *Client) ListCategories(ctx context.Context) ([]extraction.CategoryRef, error) {
	var out struct {
		Categories []extraction.CategoryRef `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/menu/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("client.request_failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return common.NewAppError("unavailable", "backend is unreachable", fmt.Errorf("%w: %v", common.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError keeps the server's message verbatim and attaches the sentinel
// matching the status.
func statusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(body, &payload)
	message := strings.TrimSpace(payload.Error)
	if message == "" {
		message = http.StatusText(status)
	}

	var sentinel error
	code := payload.Code
	switch {
	case status == http.StatusNotFound:
		sentinel, code = common.ErrNotFound, defaultCode(code, "not_found")
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		sentinel, code = common.ErrValidation, defaultCode(code, "validation")
	case status == http.StatusConflict:
		sentinel, code = common.ErrConflict, defaultCode(code, "conflict")
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		sentinel, code = common.ErrUnauthorized, defaultCode(code, "unauthorized")
	case status >= http.StatusInternalServerError:
		sentinel, code = common.ErrUnavailable, defaultCode(code, "unavailable")
	default:
		sentinel, code = common.ErrInvalidInput, defaultCode(code, "invalid")
	}
	return common.NewAppError(code, message, sentinel)
}

func defaultCode(code, fallback string) string {
	if code != "" {
		return code
	}
	return fallback
}
