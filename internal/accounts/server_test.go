package accounts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
)

func newTestService(t *testing.T) (*Client, *Registry) {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := OpenSQLiteStore(db)
	require.NoError(t, err)

	reg := NewRegistry(st)
	ts := httptest.NewServer(NewServer(reg, 5*time.Second).Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, time.Second), reg
}

func TestClientServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newTestService(t)

	status, err := c.Login(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
	status, err = c.Login(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)

	data, err := c.Load(ctx, "alice")
	require.NoError(t, err)
	acc, err := game.Unmarshal(data)
	require.NoError(t, err)
	acc.Score = 7
	require.NoError(t, c.Save(ctx, "alice", game.Marshal(acc)))

	data, err = c.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, data, "Score;7")

	status, err = c.Heartbeat(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusExisting, status)

	status, err = c.Logout(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusExisting, status)
	status, err = c.Heartbeat(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestClient_RefusedSaveIsPersistenceFailure(t *testing.T) {
	t.Parallel()
	c, _ := newTestService(t)
	err := c.Save(context.Background(), "bob", "not a record")
	assert.ErrorIs(t, err, game.ErrPersistenceFailed)
}

func TestClient_InvalidUsername(t *testing.T) {
	t.Parallel()
	c, _ := newTestService(t)
	for _, u := range []string{"", "has space", "semi;colon", strings.Repeat("x", MaxUsernameLength+1)} {
		_, err := c.Login(context.Background(), u)
		assert.ErrorIs(t, err, game.ErrInvalidSyntax, u)
	}
}

func TestClient_Unavailable(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c := NewClient(ts.URL, time.Second)
	_, err := c.Login(context.Background(), "alice")
	assert.ErrorIs(t, err, game.ErrAccountServiceUnavailable)

	ts.Close()
	_, err = c.Load(context.Background(), "alice")
	assert.ErrorIs(t, err, game.ErrAccountServiceUnavailable)
}

func TestServer_InvalidUsernameStatus(t *testing.T) {
	t.Parallel()
	srv := NewServer(NewRegistry(NewMemoryStore()), time.Second)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/bad%20name/login", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_HealthReportsLoggedIn(t *testing.T) {
	t.Parallel()
	srv := NewServer(NewRegistry(NewMemoryStore()), time.Second)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/alice/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"logged_in":1}`, rec.Body.String())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlitedb.Open(sqlitedb.Memory)
	require.NoError(t, err)
	defer db.Close()
	st, err := OpenSQLiteStore(db)
	require.NoError(t, err)

	_, err = st.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, err := st.Exists(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Put(ctx, "x", "one"))
	require.NoError(t, st.Put(ctx, "x", "two"))
	got, err := st.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
	require.NoError(t, st.Touch(ctx, "x", time.Now()))
}
