// Package client talks to a Shelfside server from a reading device.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shelfside/shelfside/internal/ratelimit"
)

const (
	// At most one access report per book every two seconds, burst of 2.
	defaultRPS   = 0.5
	defaultBurst = 2

	defaultTimeout = 15 * time.Second

	// DeviceHeader identifies the reading device on every request.
	DeviceHeader = "X-Device-ID"
)

// Client is a rate-limited Shelfside API client for one signed-in user.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	baseURL  string
	deviceID string

	mu     sync.RWMutex
	token  string
	userID string
}

// New creates a client for the server at baseURL. deviceID is sent with
// every request.
func New(baseURL, deviceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// SetCredentials signs the client in with an existing access token.
func (c *Client) SetCredentials(userID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.token = token
}

// UserID returns the signed-in user, or "".
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Login exchanges a name and password for an access token and keeps it for
// later calls. It returns the signed-in user's id.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"name": name, "password": password})
	if err != nil {
		return "", &Error{Op: "login", Err: err}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &out); err != nil {
		return "", &Error{Op: "login", Err: err}
	}

	c.SetCredentials(out.User.ID, out.AccessToken)
	c.logger.Debug("signed in", "user_id", out.User.ID)
	return out.User.ID, nil
}

// RecordAccess reports that userID opened bookID. userID must be the
// signed-in user. Reports for the same book are rate limited.
func (c *Client) RecordAccess(ctx context.Context, bookID, userID string) error {
	c.mu.RLock()
	token, current := c.token, c.userID
	c.mu.RUnlock()

	if token == "" || current != userID {
		return &Error{Op: "recordAccess", BookID: bookID, Err: ErrNotSignedIn}
	}

	if err := c.limiter.Wait(ctx, bookID); err != nil {
		return &Error{Op: "recordAccess", BookID: bookID, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	path := "/api/v1/books/" + url.PathEscape(bookID) + "/access"
	if err := c.do(ctx, http.MethodPost, path, token, nil, nil); err != nil {
		return &Error{Op: "recordAccess", BookID: bookID, Err: err}
	}
	return nil
}

// do executes a request and decodes the data member of the response envelope into out.
func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelfside-Reader/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set(DeviceHeader, c.deviceID)
	}

	c.logger.Debug("shelfside request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case resp.StatusCode >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
