// apps/go-server/internal/store/memory.go
//
// In-memory session registry for the orchestrator.
// A session is one client connection: it is created on connect, bound to a
// username at login and dropped at logout. Accounts themselves live in the
// account service; this registry only holds the working copy.
//
// Characteristics:
//   - Sessions keyed by ID in a map guarded by an RWMutex.
//   - Each Session carries its own mutex; callers hold it while they read or
//     mutate the account so commands of one session run one at a time.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one connected client.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	username atomic.Value // string
	account  *game.Account
	lastSeen atomic.Int64 // unix nanos
}

// NewSession returns an anonymous session.
func NewSession(id string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now}
	s.lastSeen.Store(now.UnixNano())
	return s
}

// Lock serialises work on the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Username is the logged-in user, or "" before login. It does not need the lock.
func (s *Session) Username() string {
	u, _ := s.username.Load().(string)
	return u
}

// Account is the working copy of the user's record, nil until loaded.
// Callers hold the lock.
func (s *Session) Account() *game.Account { return s.account }

// Bind attaches a user to the session. Callers hold the lock.
func (s *Session) Bind(username string) {
	if s.Username() != username {
		s.account = nil
	}
	s.username.Store(username)
}

// SetAccount replaces the working copy. Callers hold the lock.
func (s *Session) SetAccount(a *game.Account) { s.account = a }

// Touch records a heartbeat. It does not need the lock.
func (s *Session) Touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen returns the time of the most recent heartbeat or connect.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Store defines the session registry.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
