package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"meshstudio.org/internal/auth"
)

// APIError is a business failure reported by the server envelope. Msg is the
// display string the server would show a user.
type APIError struct {
	Msg string
}

func (e *APIError) Error() string { return e.Msg }

// Client is a cookie-carrying client for the access-control API, used by
// headless tooling and the smoke test.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL. The client keeps the session
// cookie across calls, so Login followed by role operations just works.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// WithTimeout returns a context with a default timeout useful for CLI tools.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(parent, d)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type listPayload[T any] struct {
	Total int `json:"total"`
	Rows  []T `json:"rows"`
}

// SessionState mirrors the server-side session for the caller.
type SessionState struct {
	Initialized   bool     `json:"initialized"`
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username"`
	Menu          string   `json:"menu"`
	Authorities   []string `json:"authorities"`
}

// ServiceToken is a bearer credential for cookie-less clients.
type ServiceToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Initialize seeds the default administrator. Safe to call repeatedly.
func (c *Client) Initialize(ctx context.Context) (string, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/initialize", nil)
	if err != nil {
		return "", err
	}
	return env.Msg, nil
}

// Login opens a session; the cookie is stored on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	_, err := c.call(ctx, http.MethodPost, "/api/session/login", map[string]string{
		"username": username,
		"password": password,
	})
	return err
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/api/session/logout", nil)
	return err
}

// State returns the server's view of the current session.
func (c *Client) State(ctx context.Context) (SessionState, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/session", nil)
	if err != nil {
		return SessionState{}, err
	}
	var state SessionState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		return SessionState{}, err
	}
	return state, nil
}

// AddRole creates a role and returns the stored record.
func (c *Client) AddRole(ctx context.Context, name string, authorities []string) (*auth.Role, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/roles", map[string]any{
		"name":        name,
		"authorities": authorities,
	})
	if err != nil {
		return nil, err
	}
	var role auth.Role
	if err := json.Unmarshal(env.Data, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// EditRole renames a role and replaces its authority set.
func (c *Client) EditRole(ctx context.Context, id, name string, authorities []string) error {
	_, err := c.call(ctx, http.MethodPost, "/api/roles/"+url.PathEscape(id), map[string]any{
		"name":        name,
		"authorities": authorities,
	})
	return err
}

// DeleteRole soft-deletes a role.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodPost, "/api/roles/"+url.PathEscape(id)+"/delete", nil)
	return err
}

// Roles lists active roles, optionally filtered by keyword.
func (c *Client) Roles(ctx context.Context, keyword string) ([]auth.Role, error) {
	path := "/api/roles"
	if keyword != "" {
		path += "?keyword=" + url.QueryEscape(keyword)
	}
	env, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var list listPayload[auth.Role]
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, err
	}
	return list.Rows, nil
}

// Authorities lists the authority catalog, optionally filtered by keyword.
func (c *Client) Authorities(ctx context.Context, keyword string) ([]auth.Authority, error) {
	path := "/api/authorities"
	if keyword != "" {
		path += "?keyword=" + url.QueryEscape(keyword)
	}
	env, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var list listPayload[auth.Authority]
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, err
	}
	return list.Rows, nil
}

// IssueServiceToken mints a bearer token for the logged-in account.
func (c *Client) IssueServiceToken(ctx context.Context, ttl time.Duration) (ServiceToken, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/session/token", map[string]any{
		"ttl_minutes": int(ttl / time.Minute),
	})
	if err != nil {
		return ServiceToken{}, err
	}
	var token ServiceToken
	if err := json.Unmarshal(env.Data, &token); err != nil {
		return ServiceToken{}, err
	}
	return token, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if env.Code != 200 {
		return nil, &APIError{Msg: env.Msg}
	}
	return &env, nil
}
