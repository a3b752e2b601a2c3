// apps/go-server/internal/words/words.go
//
// Word list owned by the word service.
//
// Responsibilities:
//   - Hold the word list in memory behind a single lock and mirror every
//     change to SQLite so the list survives restarts.
//   - Seed an empty database from a word file (WORDS_FILE) or the embedded
//     default list.
//   - Answer the lookups the puzzle generator needs: random word containing a
//     character, random word of a minimum length.
//
// Constraints:
//   - Words are lowercase ASCII letters (a-z); anything else is rejected.
//   - Random lookups never return one-letter words.

package words

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/assets"
	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
)

//go:embed sql/*.sql
var migrations embed.FS

// ErrInvalidWord is returned for empty or non-alphabetic words.
var ErrInvalidWord = errors.New("words: word must be letters a-z")

// minRandomLength is the shortest word RandomMinLength will return.
const minRandomLength = 2

// Store is the word list. The zero value is not usable; see Open and NewMemory.
type Store struct {
	mu    sync.Mutex
	db    *sql.DB // nil for memory-only stores
	list  []string
	index map[string]int // word -> position in list
}

// NewMemory returns a store without persistence, seeded with words.
// Invalid and duplicate entries are skipped.
func NewMemory(seed []string) *Store {
	s := &Store{index: make(map[string]int)}
	for _, w := range seed {
		if w, err := normalize(w); err == nil {
			s.insert(w)
		}
	}
	return s
}

// Open migrates db, seeds it when empty and loads the list into memory.
// seedFile may be empty, in which case the embedded list is used.
func Open(ctx context.Context, db *sql.DB, seedFile string) (*Store, error) {
	if err := sqlitedb.Migrate(db, migrations); err != nil {
		return nil, fmt.Errorf("words: migrate: %w", err)
	}
	s := &Store{db: db, index: make(map[string]int)}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return nil, fmt.Errorf("words: count: %w", err)
	}
	if n == 0 {
		seed, src, err := loadSeed(seedFile)
		if err != nil {
			return nil, err
		}
		if err := s.seed(ctx, seed); err != nil {
			return nil, err
		}
		log.Info().Str("source", src).Int("words", len(seed)).Msg("seeded word database")
	}

	rows, err := db.QueryContext(ctx, `SELECT word FROM words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("words: load: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		s.insert(w)
	}
	return s, rows.Err()
}

func loadSeed(path string) ([]string, string, error) {
	if path != "" {
		list, err := readWordFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("words: read %s: %w", path, err)
		}
		return list, path, nil
	}
	list, err := assets.DefaultWords()
	if err != nil {
		return nil, "", fmt.Errorf("words: embedded list: %w", err)
	}
	return list, "embedded", nil
}

func (s *Store) seed(ctx context.Context, list []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO words(word, length) VALUES (?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, w := range list {
		w, err := normalize(w)
		if err != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, w, len(w)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("words: seed %q: %w", w, err)
		}
	}
	return tx.Commit()
}

// Add inserts w. It reports false when w is already present.
func (s *Store) Add(ctx context.Context, w string) (bool, error) {
	w, err := normalize(w)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[w]; ok {
		return false, nil
	}
	if s.db != nil {
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO words(word, length) VALUES (?, ?)`, w, len(w)); err != nil {
			return false, fmt.Errorf("words: add %q: %w", w, err)
		}
	}
	s.insert(w)
	return true, nil
}

// Remove deletes w. It reports false when w was not present.
func (s *Store) Remove(ctx context.Context, w string) (bool, error) {
	w, err := normalize(w)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[w]
	if !ok {
		return false, nil
	}
	if s.db != nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE word = ?`, w); err != nil {
			return false, fmt.Errorf("words: remove %q: %w", w, err)
		}
	}
	// swap-remove keeps the list dense
	last := len(s.list) - 1
	s.list[i] = s.list[last]
	s.index[s.list[i]] = i
	s.list = s.list[:last]
	delete(s.index, w)
	return true, nil
}

// Contains reports whether w is in the list.
func (s *Store) Contains(w string) bool {
	w = strings.ToLower(strings.TrimSpace(w))
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[w]
	return ok
}

// RandomContaining returns a random word of at least two letters that
// contains r, or "" if there is none.
func (s *Store) RandomContaining(r rune) string {
	r = toLower(r)
	return s.pick(func(w string) bool { return strings.ContainsRune(w, r) })
}

// RandomMinLength returns a random word of at least n letters (and at least
// two), or "" if there is none.
func (s *Store) RandomMinLength(n int) string {
	n = max(n, minRandomLength)
	return s.pick(func(w string) bool { return len(w) >= n })
}

// Len returns the number of words.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

func (s *Store) pick(match func(string) bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []string
	for _, w := range s.list {
		if len(w) >= minRandomLength && match(w) {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[randIndex(len(candidates))]
}

func (s *Store) insert(w string) {
	if _, ok := s.index[w]; ok {
		return
	}
	s.index[w] = len(s.list)
	s.list = append(s.list, w)
}

// randIndex returns a cryptographically random index in [0, n).
func randIndex(n int) int {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}

// readWordFile loads one word per line, skipping blanks, # comments and
// anything that is not alphabetic.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if w, err := normalize(line); err == nil {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func normalize(w string) (string, error) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" || !isAlpha(w) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWord, w)
	}
	return w, nil
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
