// Package taskclient is a Go client for the task manager REST API, together
// with the dashboard helpers (filtering, sorting, countdowns) that front ends
// apply to the task list locally.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Status and priority values accepted by the API.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// ErrNoCredential is returned when a call needs a bearer token and none is set.
var ErrNoCredential = errors.New("taskclient: no credential")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("taskclient: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("taskclient: %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Task mirrors the API task resource.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// User mirrors the API user resource.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// TaskDraft is the payload for creating a task. Empty optional fields take
// server defaults.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// TaskPatch is a partial update. Nil fields are not sent. Set ClearDeadline to
// remove a stored deadline.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	Deadline      *time.Time
	ClearDeadline bool
}

// MarshalJSON sends only the fields that are set, and "deadline": null when
// ClearDeadline is true.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	switch {
	case p.ClearDeadline:
		body["deadline"] = nil
	case p.Deadline != nil:
		body["deadline"] = p.Deadline.UTC().Format(time.RFC3339)
	}
	return json.Marshal(body)
}

// LoginResult is the outcome of Login.
type LoginResult struct {
	User  User
	Token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the initial bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client calls the REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// New creates a Client for the API rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer credential. An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) setUnauthorizedHook(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Login exchanges a provider ID token. The client keeps the session token
// when the server issues one and the ID token otherwise.
func (c *Client) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	var resp struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/google", false, map[string]string{"idToken": idToken}, &resp); err != nil {
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = idToken
	}
	c.SetToken(token)

	return &LoginResult{User: resp.User, Token: resp.Token}, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", true, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodGet, taskPath(id), true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// CreateTask creates a task. Drafts are not validated locally; use ValidateDraft first.
func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", true, draft, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// UpdateTask applies patch to the task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, taskPath(id), true, patch, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// DeleteTask permanently deletes the task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), true, nil, nil)
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("taskclient: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("taskclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token := c.Token()
		if token == "" {
			return ErrNoCredential
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("taskclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("taskclient: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook()
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("taskclient: decoding response: %w", err)
	}
	return nil
}
