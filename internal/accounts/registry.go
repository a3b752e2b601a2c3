// apps/go-server/internal/accounts/registry.go
//
// Account registry: who is logged in, and the records behind them.
// Responsibilities:
//   - Login / logout bookkeeping; a username may be logged in once.
//   - Load a record, creating the default one for first-time users.
//   - Save a record after checking it decodes and belongs to the user.
//   - Heartbeats, and logging out users whose heartbeats stopped.
//
// Every operation runs under one lock, so operations on the same username
// are serialised.

package accounts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// Status codes returned to the orchestrator.
const (
	StatusFailed   = 0 // duplicate login, unknown user, rejected save
	StatusExisting = 1 // login of a known user; success for logout, save, heartbeat
	StatusCreated  = 2 // login of a user with no record yet
)

// Registry owns the logged-in set and the account store.
type Registry struct {
	mu       sync.Mutex
	store    Store
	loggedIn map[string]time.Time // username -> last activity
	now      func() time.Time
}

// NewRegistry returns a registry over store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, loggedIn: make(map[string]time.Time), now: time.Now}
}

// Login marks username as logged in. It returns StatusFailed when the user
// is already logged in, StatusExisting for a known user and StatusCreated
// for a new one.
func (r *Registry) Login(ctx context.Context, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loggedIn[username]; ok {
		return StatusFailed, nil
	}
	exists, err := r.store.Exists(ctx, username)
	if err != nil {
		return StatusFailed, err
	}
	r.loggedIn[username] = r.now()
	if exists {
		return StatusExisting, nil
	}
	return StatusCreated, nil
}

// Logout removes username from the logged-in set.
func (r *Registry) Logout(_ context.Context, username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loggedIn[username]; !ok {
		return StatusFailed
	}
	delete(r.loggedIn, username)
	return StatusExisting
}

// Load returns the stored record, creating and persisting the default
// record for first-time users.
func (r *Registry) Load(ctx context.Context, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := r.store.Get(ctx, username)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	data = game.Marshal(game.NewAccount(username))
	if err := r.store.Put(ctx, username, data); err != nil {
		return "", err
	}
	log.Info().Str("username", username).Msg("created account")
	return data, nil
}

// Save replaces the record. Records that do not decode, or that name a
// different user, are refused with StatusFailed.
func (r *Registry) Save(ctx context.Context, username, data string) int {
	acc, err := game.Unmarshal(data)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("refusing malformed record")
		return StatusFailed
	}
	if acc.Username != username {
		log.Warn().Str("username", username).Str("record", acc.Username).Msg("refusing record for another user")
		return StatusFailed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Put(ctx, username, data); err != nil {
		log.Error().Err(err).Str("username", username).Msg("save account")
		return StatusFailed
	}
	return StatusExisting
}

// Heartbeat refreshes a logged-in user's activity time.
func (r *Registry) Heartbeat(ctx context.Context, username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loggedIn[username]; !ok {
		return StatusFailed
	}
	now := r.now()
	r.loggedIn[username] = now
	if err := r.store.Touch(ctx, username, now); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("touch account")
	}
	return StatusExisting
}

// ExpireIdle logs out every user with no activity for maxIdle and returns
// their names. maxIdle <= 0 disables expiry.
func (r *Registry) ExpireIdle(maxIdle time.Duration) []string {
	if maxIdle <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	var out []string
	for u, seen := range r.loggedIn {
		if seen.Before(cutoff) {
			delete(r.loggedIn, u)
			out = append(out, u)
		}
	}
	return out
}

// LoggedIn returns the number of logged-in users.
func (r *Registry) LoggedIn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loggedIn)
}

// RunExpiry calls ExpireIdle every interval until ctx is done.
func (r *Registry) RunExpiry(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, u := range r.ExpireIdle(maxIdle) {
				log.Info().Str("username", u).Dur("max_idle", maxIdle).Msg("logged out idle user")
			}
		}
	}
}
