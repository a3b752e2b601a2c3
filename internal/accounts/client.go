// apps/go-server/internal/accounts/client.go
//
// HTTP client for the account service, used by the orchestrator.
// Transport failures, timeouts and 5xx replies are reported as
// game.ErrAccountServiceUnavailable; a refused save as
// game.ErrPersistenceFailed.

package accounts

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

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// Client calls a remote account service.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the service at baseURL
// (e.g. http://localhost:5176). timeout bounds each call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Login returns StatusFailed, StatusExisting or StatusCreated.
func (c *Client) Login(ctx context.Context, username string) (int, error) {
	return c.status(ctx, username, "login", nil)
}

// Logout returns StatusExisting when the user was logged in.
func (c *Client) Logout(ctx context.Context, username string) (int, error) {
	return c.status(ctx, username, "logout", nil)
}

// Heartbeat returns StatusExisting when the user is logged in.
func (c *Client) Heartbeat(ctx context.Context, username string) (int, error) {
	return c.status(ctx, username, "heartbeat", nil)
}

// Load returns the user's record.
func (c *Client) Load(ctx context.Context, username string) (string, error) {
	var res dataBody
	if err := c.post(ctx, username, "load", nil, &res); err != nil {
		return "", err
	}
	return res.Data, nil
}

// Save stores the user's record.
func (c *Client) Save(ctx context.Context, username, data string) error {
	status, err := c.status(ctx, username, "save", dataBody{Data: data})
	if err != nil {
		return err
	}
	if status != StatusExisting {
		return fmt.Errorf("%w: account service refused record for %q", game.ErrPersistenceFailed, username)
	}
	return nil
}

func (c *Client) status(ctx context.Context, username, op string, body any) (int, error) {
	var res statusRes
	if err := c.post(ctx, username, op, body, &res); err != nil {
		return StatusFailed, err
	}
	return res.Status, nil
}

func (c *Client) post(ctx context.Context, username, op string, body, out any) error {
	if err := ValidateUsername(username); err != nil {
		return fmt.Errorf("%w: %v", game.ErrInvalidSyntax, err)
	}
	var payload io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}
	u := fmt.Sprintf("%s/accounts/%s/%s", c.base, url.PathEscape(username), op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrAccountServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", game.ErrAccountServiceUnavailable, op, username, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: account service rejected %s for %q", game.ErrInvalidSyntax, op, username)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s %s: HTTP %d", game.ErrAccountServiceUnavailable, op, username, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s reply: %v", game.ErrAccountServiceUnavailable, op, err)
	}
	return nil
}
