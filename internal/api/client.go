package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"taskboard/pkg/types"
)

// Client is the bearer-token JSON transport for the backend APIs.
// The token is pulled from tokenFn per request so the client always
// sends the current session's token without being rewired on login.
type Client struct {
	baseURL string
	http    *http.Client
	tokenFn func() string
}

// NewClient creates an API client for the given base URL. tokenFn may
// return "" for unauthenticated requests.
func NewClient(baseURL string, tokenFn func() string) *Client {
	if tokenFn == nil {
		tokenFn = func() string { return "" }
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokenFn: tokenFn,
	}
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (types.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds types.Credentials
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &creds); err != nil {
		return types.Credentials{}, err
	}
	if !creds.Valid() {
		return types.Credentials{}, fmt.Errorf("login response missing token or user")
	}
	return creds, nil
}

// Register creates an account. No session is established.
func (c *Client) Register(ctx context.Context, reg types.Registration) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", reg, nil)
}

// ListUsers returns all accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]types.User, error) {
	var out struct {
		Users []types.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// SetUserStatus activates or deactivates an account. Admin only.
func (c *Client) SetUserStatus(ctx context.Context, id string, active bool) error {
	body := map[string]any{"id": id, "active": active}
	return c.do(ctx, http.MethodPut, "/api/users/status", body, nil)
}

// ListTasks returns tasks in server order, optionally filtered to one
// assignee.
func (c *Client) ListTasks(ctx context.Context, assignedTo string) ([]types.Task, error) {
	path := "/api/tasks"
	if assignedTo != "" {
		path += "?assignedTo=" + url.QueryEscape(assignedTo)
	}
	var out struct {
		Tasks []types.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// UpdateTask replaces mutable fields of one task.
func (c *Client) UpdateTask(ctx context.Context, id string, task types.Task) error {
	return c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), task, nil)
}

// BulkUpdateStatus applies one status to many tasks in a single batch
// request. The server applies the batch as a unit; any failure is a
// failure of the whole batch.
func (c *Client) BulkUpdateStatus(ctx context.Context, taskIDs []string, status types.Status) error {
	body := map[string]any{
		"taskIds":    taskIDs,
		"updateData": map[string]any{"status": status},
	}
	return c.do(ctx, http.MethodPut, "/api/tasks/bulk-update", body, nil)
}

// do issues one JSON request and decodes the response into out when
// non-nil. Server errors are decoded from the {error} envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokenFn(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if envelope.Error != "" {
			return fmt.Errorf("%w: %s", types.ErrUnauthorized, envelope.Error)
		}
		return types.ErrUnauthorized
	case http.StatusForbidden:
		if envelope.Error != "" {
			return fmt.Errorf("%w: %s", types.ErrForbidden, envelope.Error)
		}
		return types.ErrForbidden
	}
	if envelope.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
