// Package client is the consuming side of the user-directory API: a
// small REST client, durable token storage, and a session cache that
// applies optimistic mutations and reconciles them against the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	miniusers "github.com/MarxWellB/miniusers"
)

// ErrNotAuthenticated is returned when an operation needs a stored
// session token and none is present.
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// Client talks to the user-directory REST API. Every non-2xx response
// collapses into one generic error per operation: the cache layer never
// looks at status granularity, only ok/not-ok.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  miniusers.Logger
}

func NewClient(baseURL string, tokens TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  tokens,
		logger:  nil,
	}
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) WithLogger(l miniusers.Logger) *Client {
	c.logger = l
	return c
}

// HasToken reports whether a session token is stored. Absence routes
// the caller to the login flow.
func (c *Client) HasToken() bool {
	token, err := c.tokens.Get()
	return err == nil && token != ""
}

// Logout clears the stored token.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// Health probes the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, "health check failed")
}

// Register creates an account through the open registration endpoint.
func (c *Client) Register(ctx context.Context, name, email, password string) (*miniusers.Record, error) {
	payload := miniusers.RegisterRequest{Name: name, Email: email, Password: password}
	out := &miniusers.Record{}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", payload, out, "registration failed"); err != nil {
		return nil, err
	}
	return out, nil
}

// Login exchanges credentials for a session token and persists it under
// the fixed storage key.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := miniusers.LoginRequest{Email: email, Password: password}
	out := struct {
		Token string `json:"token"`
	}{}

	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &out, "invalid credentials"); err != nil {
		return "", err
	}

	if err := c.tokens.Set(out.Token); err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "failed to persist session token")
	}

	return out.Token, nil
}

// ListUsers fetches the full directory.
func (c *Client) ListUsers(ctx context.Context) ([]miniusers.Record, error) {
	var out []miniusers.Record
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out, "failed to list users"); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser creates a directory record; password may be empty, in
// which case the server falls back to its placeholder credential.
func (c *Client) CreateUser(ctx context.Context, name, email, password string) (*miniusers.Record, error) {
	payload := miniusers.CreateUserRequest{Name: name, Email: email, Password: password}
	out := &miniusers.Record{}
	if err := c.do(ctx, http.MethodPost, "/api/users", payload, out, "failed to create user"); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser applies a partial update and returns the authoritative
// server record.
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, patch miniusers.UserPatch) (*miniusers.Record, error) {
	out := &miniusers.Record{}
	path := "/api/users/" + id.String()
	if err := c.do(ctx, http.MethodPut, path, patch, out, "failed to update user"); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes a record.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	path := "/api/users/" + id.String()
	return c.do(ctx, http.MethodDelete, path, nil, nil, "failed to delete user")
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, failMsg string) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, failMsg)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, failMsg)
	}

	req.Header.Set("Content-Type", "application/json")
	if token, terr := c.tokens.Get(); terr == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, failMsg)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger != nil {
			c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode)
		}
		return errors.New(failMsg, errors.CategoryOperation).
			WithMetadata(map[string]any{"status": fmt.Sprintf("HTTP %d", resp.StatusCode)})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, failMsg)
	}

	return nil
}
