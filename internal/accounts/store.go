// apps/go-server/internal/accounts/store.go
//
// Persistence for account records.
// Records are the opaque text blobs produced by game.Marshal, one per username.
//
//   - memoryStore: map-backed, used in tests and for throwaway runs.
//   - SQLiteStore: accounts table, migrated on open.

package accounts

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
)

//go:embed sql/*.sql
var migrations embed.FS

// ErrNotFound is returned by Store.Get for unknown usernames.
var ErrNotFound = errors.New("account not found")

// Store persists account records.
type Store interface {
	// Get returns the stored record or ErrNotFound.
	Get(ctx context.Context, username string) (string, error)
	// Put creates or replaces a record.
	Put(ctx context.Context, username, data string) error
	// Exists reports whether a record has ever been stored for username.
	Exists(ctx context.Context, username string) (bool, error)
	// Touch records activity for username. Unknown usernames are ignored.
	Touch(ctx context.Context, username string, at time.Time) error
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]string
	seen map[string]time.Time
}

// NewMemoryStore returns a map-backed Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]string), seen: make(map[string]time.Time)}
}

func (m *memoryStore) Get(_ context.Context, username string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[username]
	if !ok {
		return "", ErrNotFound
	}
	return d, nil
}

func (m *memoryStore) Put(_ context.Context, username, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[username] = data
	return nil
}

func (m *memoryStore) Exists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[username]
	return ok, nil
}

func (m *memoryStore) Touch(_ context.Context, username string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[username]; ok {
		m.seen[username] = at
	}
	return nil
}

// SQLiteStore keeps records in the accounts table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore migrates db and returns a store over it.
func OpenSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := sqlitedb.Migrate(db, migrations); err != nil {
		return nil, fmt.Errorf("accounts: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, username string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM accounts WHERE username = ?`, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("accounts: get %q: %w", username, err)
	}
	return data, nil
}

func (s *SQLiteStore) Put(ctx context.Context, username, data string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO accounts (username, data, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(username) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		username, data, now, now,
	)
	if err != nil {
		return fmt.Errorf("accounts: put %q: %w", username, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, username string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts WHERE username = ?`, username).Scan(&n); err != nil {
		return false, fmt.Errorf("accounts: exists %q: %w", username, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, username string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_seen_at = ? WHERE username = ?`,
		at.UTC().Format(time.RFC3339), username)
	return err
}
