// apps/go-server/internal/wordsvc/client.go
//
// Word service client used by the orchestrator.
// Responsibilities:
//   - Share one UDP socket across all sessions and serialise each
//     request/reply exchange on it.
//   - Bound every exchange by the caller's context and a per-exchange timeout.
//   - Drop the socket after any failure so a late reply to an abandoned
//     request can never be read as the answer to the next one.
//
// Every failure is reported as game.ErrWordServiceUnavailable.

package wordsvc

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// DefaultTimeout bounds one exchange when the caller's context has no
// earlier deadline.
const DefaultTimeout = 3 * time.Second

// Client talks to a word service over UDP. Safe for concurrent use.
type Client struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex // serialises exchanges; guards conn
	conn net.Conn
}

// NewClient returns a client for addr (host:port). The socket is opened on
// first use. timeout <= 0 selects DefaultTimeout.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Close releases the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

// AddWord asks the service to add w and returns its confirmation sentence.
func (c *Client) AddWord(ctx context.Context, w string) (string, error) {
	return c.exchange(ctx, OpAdd, w)
}

// RemoveWord asks the service to remove w and returns its confirmation sentence.
func (c *Client) RemoveWord(ctx context.Context, w string) (string, error) {
	return c.exchange(ctx, OpRemove, w)
}

// CheckWord reports whether w is in the word list.
func (c *Client) CheckWord(ctx context.Context, w string) (bool, error) {
	reply, err := c.exchange(ctx, OpContains, w)
	if err != nil {
		return false, err
	}
	switch reply {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: unexpected reply %q", game.ErrWordServiceUnavailable, reply)
}

// RandomWordContaining returns a word containing r, or "".
func (c *Client) RandomWordContaining(ctx context.Context, r rune) (string, error) {
	return c.exchange(ctx, OpContaining, string(r))
}

// RandomWordMinLength returns a word of at least n letters, or "".
func (c *Client) RandomWordMinLength(ctx context.Context, n int) (string, error) {
	return c.exchange(ctx, OpMinLength, strconv.Itoa(n))
}

func (c *Client) exchange(ctx context.Context, op byte, payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", game.ErrWordServiceUnavailable, err)
	}
	if c.conn == nil {
		conn, err := net.Dial("udp", c.addr)
		if err != nil {
			return "", fmt.Errorf("%w: dial %s: %v", game.ErrWordServiceUnavailable, c.addr, err)
		}
		c.conn = conn
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", c.fail(op, err)
	}
	if _, err := c.conn.Write(encodeRequest(op, payload)); err != nil {
		return "", c.fail(op, err)
	}
	buf := make([]byte, MaxDatagram)
	n, err := c.conn.Read(buf)
	if err != nil {
		return "", c.fail(op, err)
	}
	reply := string(buf[:n])
	if reply == ErrorReply {
		return "", fmt.Errorf("%w: service rejected %c request", game.ErrWordServiceUnavailable, op)
	}
	return reply, nil
}

// fail drops the socket and wraps err. Callers hold c.mu.
func (c *Client) fail(op byte, err error) error {
	log.Warn().Err(err).Str("addr", c.addr).Str("op", string(op)).Msg("word service exchange failed")
	_ = c.dropLocked()
	return fmt.Errorf("%w: %v", game.ErrWordServiceUnavailable, err)
}

func (c *Client) dropLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
