package sqlitedb

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_AppliesOnce(t *testing.T) {
	t.Parallel()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := fstest.MapFS{
		"sql/001_items.sql": {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)},
		"sql/002_seed.sql":  {Data: []byte(`INSERT INTO items(name) VALUES ('first');`)},
		"sql/README.md":     {Data: []byte("not a migration")},
	}
	require.NoError(t, Migrate(db, migrations))
	require.NoError(t, Migrate(db, migrations))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	t.Parallel()
	db, err := Open(Memory)
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(db, fstest.MapFS{
		"001_bad.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;`)},
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}
