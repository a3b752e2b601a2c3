// apps/go-server/internal/idempotency/store.go
//
// Replay cache for session-mutating calls.
// Responsibilities:
//   - Run a call at most once per (session, sequence number) and hand every
//     retry of it the original value and error.
//   - Make concurrent retries wait for the in-flight call instead of running
//     it again.
//   - Refuse a sequence number reused for a different request.
//   - Bound memory: entries expire after a TTL, and a session's entries are
//     dropped a grace period after the session ends.
//
// Notes:
//   - Locking is per session. The store-wide lock only guards the session
//     map and is never held while a call runs.
//   - A call that panics leaves no entry behind; waiters re-run it.

package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrKeyReused is returned when a key is replayed with a different request.
var ErrKeyReused = errors.New("idempotency key reused for a different request")

// Key scopes a sequence number to the session that issued it.
type Key struct {
	Session string
	Seq     uint64
}

func (k Key) String() string { return fmt.Sprintf("%s#%d", k.Session, k.Seq) }

// Config tunes retention.
type Config struct {
	TTL     time.Duration // 0 keeps entries until their session ends
	Grace   time.Duration // how long a finished session's entries stay replayable
	Cleanup time.Duration // sweep interval; 0 disables the background loop
	Now     func() time.Time
}

// Store caches results of type T.
type Store[T any] struct {
	mu       sync.Mutex
	sessions map[string]*bucket[T]

	ttl   time.Duration
	grace time.Duration
	now   func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

type bucket[T any] struct {
	mu      sync.Mutex
	entries map[uint64]*entry[T]
	endedAt time.Time
}

type entry[T any] struct {
	fingerprint Fingerprint
	done        chan struct{}
	completed   bool
	val         T
	err         error
	expiresAt   time.Time // zero means no expiry
}

// NewStore creates a store and starts its cleanup loop when cfg.Cleanup > 0.
func NewStore[T any](cfg Config) *Store[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Store[T]{
		sessions: make(map[string]*bucket[T]),
		ttl:      cfg.TTL,
		grace:    cfg.Grace,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}
	if cfg.Cleanup > 0 {
		go s.cleanupLoop(cfg.Cleanup)
	}
	return s
}

// Stop ends the cleanup loop. Safe to call more than once.
func (s *Store[T]) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Do runs fn once for key. Later calls with the same key and fingerprint
// return the cached value and error with replayed set; calls that arrive
// while fn is running wait for it. ctx only bounds the wait.
func (s *Store[T]) Do(ctx context.Context, key Key, fp Fingerprint, fn func() (T, error)) (val T, replayed bool, err error) {
	for {
		b := s.lockBucket(key.Session)
		e, ok := b.entries[key.Seq]
		if ok && e.completed && s.expired(e) {
			delete(b.entries, key.Seq)
			ok = false
		}
		if !ok {
			e = &entry[T]{fingerprint: fp, done: make(chan struct{})}
			b.entries[key.Seq] = e
			b.mu.Unlock()
			return s.run(b, key, e, fn)
		}
		if e.fingerprint != fp {
			b.mu.Unlock()
			return val, false, fmt.Errorf("%w: %s", ErrKeyReused, key)
		}
		if e.completed {
			b.mu.Unlock()
			return e.val, true, e.err
		}
		b.mu.Unlock()

		select {
		case <-e.done:
		case <-ctx.Done():
			return val, false, ctx.Err()
		}
		b.mu.Lock()
		completed := e.completed
		b.mu.Unlock()
		if completed {
			return e.val, true, e.err
		}
		// The original call panicked; start over.
	}
}

func (s *Store[T]) run(b *bucket[T], key Key, e *entry[T], fn func() (T, error)) (val T, replayed bool, err error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		b.mu.Lock()
		if b.entries[key.Seq] == e {
			delete(b.entries, key.Seq)
		}
		close(e.done)
		b.mu.Unlock()
	}()

	val, err = fn()

	b.mu.Lock()
	e.val, e.err, e.completed = val, err, true
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	close(e.done)
	b.mu.Unlock()
	finished = true
	return val, false, err
}

// Lookup returns the completed result cached for key without running
// anything. found is false when there is none or fp does not match.
func (s *Store[T]) Lookup(key Key, fp Fingerprint) (val T, found bool, err error) {
	s.mu.Lock()
	b, ok := s.sessions[key.Session]
	s.mu.Unlock()
	if !ok {
		return val, false, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key.Seq]
	if !ok || !e.completed || e.fingerprint != fp || s.expired(e) {
		return val, false, nil
	}
	return e.val, true, e.err
}

// EndSession schedules every entry of session for removal after the grace
// period. A zero grace drops them at once.
func (s *Store[T]) EndSession(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.sessions[session]
	if !ok {
		return
	}
	if s.grace <= 0 {
		delete(s.sessions, session)
		return
	}
	b.mu.Lock()
	b.endedAt = s.now()
	b.mu.Unlock()
}

// Len returns the number of cached or in-flight entries.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.sessions {
		b.mu.Lock()
		n += len(b.entries)
		b.mu.Unlock()
	}
	return n
}

// lockBucket returns the session's bucket, locked. Taking the bucket lock
// before releasing s.mu keeps Sweep from dropping it in between.
func (s *Store[T]) lockBucket(session string) *bucket[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.sessions[session]
	if !ok {
		b = &bucket[T]{entries: make(map[uint64]*entry[T])}
		s.sessions[session] = b
	}
	b.mu.Lock()
	return b
}

func (s *Store[T]) expired(e *entry[T]) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *Store[T]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopChan:
			return
		}
	}
}

// Sweep drops expired entries and the buckets of sessions whose grace
// period has passed. The cleanup loop calls it; tests call it directly.
func (s *Store[T]) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, b := range s.sessions {
		b.mu.Lock()
		if !b.endedAt.IsZero() && !now.Before(b.endedAt.Add(s.grace)) {
			b.mu.Unlock()
			delete(s.sessions, id)
			continue
		}
		for seq, e := range b.entries {
			if e.completed && s.expired(e) {
				delete(b.entries, seq)
			}
		}
		empty := len(b.entries) == 0 && b.endedAt.IsZero()
		b.mu.Unlock()
		if empty {
			delete(s.sessions, id)
		}
	}
}
