package words

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
)

func TestMemoryStore_AddRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory([]string{"cat", "Dog", "dog", "not-a-word", ""})
	assert.Equal(t, 2, s.Len())

	added, err := s.Add(ctx, "Bird")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.Add(ctx, "bird")
	require.NoError(t, err)
	assert.False(t, added)
	assert.True(t, s.Contains("BIRD"))

	removed, err := s.Remove(ctx, "cat")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Remove(ctx, "cat")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, s.Contains("cat"))
	assert.True(t, s.Contains("dog"))
	assert.True(t, s.Contains("bird"))

	_, err = s.Add(ctx, "c4t")
	assert.ErrorIs(t, err, ErrInvalidWord)
}

func TestRandomContaining(t *testing.T) {
	t.Parallel()
	s := NewMemory([]string{"a", "cat", "dog", "cot"})
	for range 20 {
		w := s.RandomContaining('C')
		assert.Contains(t, []string{"cat", "cot"}, w)
	}
	assert.Equal(t, "", s.RandomContaining('z'))
	// one-letter words are never handed out
	assert.Equal(t, "", NewMemory([]string{"a"}).RandomContaining('a'))
}

func TestRandomMinLength(t *testing.T) {
	t.Parallel()
	s := NewMemory([]string{"a", "ox", "cat", "horse"})
	for range 20 {
		assert.Contains(t, []string{"cat", "horse"}, s.RandomMinLength(3))
		assert.NotEqual(t, "a", s.RandomMinLength(0))
	}
	assert.Equal(t, "horse", s.RandomMinLength(5))
	assert.Equal(t, "", s.RandomMinLength(6))
}

func TestOpen_SeedsFromFileAndPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.txt")
	require.NoError(t, os.WriteFile(seed, []byte("# seed\nCat\n\ndog\nbad word\n"), 0o644))
	dsn := filepath.Join(dir, "words.db")

	db, err := sqlitedb.Open(dsn)
	require.NoError(t, err)
	s, err := Open(ctx, db, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	_, err = s.Add(ctx, "emu")
	require.NoError(t, err)
	_, err = s.Remove(ctx, "cat")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not reseed.
	db, err = sqlitedb.Open(dsn)
	require.NoError(t, err)
	defer db.Close()
	s, err = Open(ctx, db, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("emu"))
	assert.True(t, s.Contains("dog"))
	assert.False(t, s.Contains("cat"))
}

func TestOpen_EmbeddedSeed(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(sqlitedb.Memory)
	require.NoError(t, err)
	defer db.Close()

	s, err := Open(context.Background(), db, "")
	require.NoError(t, err)
	assert.Greater(t, s.Len(), 500)
	assert.GreaterOrEqual(t, len(s.RandomMinLength(14)), 14)
	assert.True(t, strings.ContainsRune(s.RandomContaining('q'), 'q'))
}
