package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/apps/go-server/internal/accounts"
	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/generator"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/puzzle"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
	"github.com/robalobadob/crossword/apps/go-server/internal/words"
)

// fakeWords wraps a memory word store and can be switched off.
type fakeWords struct {
	store *words.Store
	down  atomic.Bool
	adds  atomic.Int32
}

func (f *fakeWords) check() error {
	if f.down.Load() {
		return fmt.Errorf("%w: test outage", game.ErrWordServiceUnavailable)
	}
	return nil
}

func (f *fakeWords) AddWord(ctx context.Context, w string) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	f.adds.Add(1)
	if ok, _ := f.store.Add(ctx, w); ok {
		return "added " + w, nil
	}
	return "exists " + w, nil
}

func (f *fakeWords) RemoveWord(ctx context.Context, w string) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	if ok, _ := f.store.Remove(ctx, w); ok {
		return "removed " + w, nil
	}
	return "missing " + w, nil
}

func (f *fakeWords) CheckWord(_ context.Context, w string) (bool, error) {
	if err := f.check(); err != nil {
		return false, err
	}
	return f.store.Contains(w), nil
}

func (f *fakeWords) RandomWordContaining(_ context.Context, r rune) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	return f.store.RandomContaining(r), nil
}

func (f *fakeWords) RandomWordMinLength(_ context.Context, n int) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	return f.store.RandomMinLength(n), nil
}

// fakeAccounts adapts a real registry to the client interface.
type fakeAccounts struct {
	reg        *accounts.Registry
	store      accounts.Store
	down       atomic.Bool
	refuseSave atomic.Bool
	saves      atomic.Int32
}

func newFakeAccounts() *fakeAccounts {
	st := accounts.NewMemoryStore()
	return &fakeAccounts{reg: accounts.NewRegistry(st), store: st}
}

func (f *fakeAccounts) check() error {
	if f.down.Load() {
		return fmt.Errorf("%w: test outage", game.ErrAccountServiceUnavailable)
	}
	return nil
}

func (f *fakeAccounts) Login(ctx context.Context, u string) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.reg.Login(ctx, u)
}

func (f *fakeAccounts) Logout(ctx context.Context, u string) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.reg.Logout(ctx, u), nil
}

func (f *fakeAccounts) Load(ctx context.Context, u string) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	return f.reg.Load(ctx, u)
}

func (f *fakeAccounts) Save(ctx context.Context, u, data string) error {
	f.saves.Add(1)
	if err := f.check(); err != nil {
		return err
	}
	if f.refuseSave.Load() || f.reg.Save(ctx, u, data) != accounts.StatusExisting {
		return fmt.Errorf("%w: refused", game.ErrPersistenceFailed)
	}
	return nil
}

func (f *fakeAccounts) Heartbeat(ctx context.Context, u string) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.reg.Heartbeat(ctx, u), nil
}

func (f *fakeAccounts) stored(t *testing.T, u string) *game.Account {
	t.Helper()
	data, err := f.store.Get(context.Background(), u)
	require.NoError(t, err)
	acc, err := game.Unmarshal(data)
	require.NoError(t, err)
	return acc
}

// fixedGenerator always builds the cat/cut puzzle and counts calls.
type fixedGenerator struct {
	mu    sync.Mutex
	calls int
	words *fakeWords
}

func (g *fixedGenerator) Generate(ctx context.Context, n int) (generator.Result, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if err := g.words.check(); err != nil {
		return generator.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return generator.Result{}, fmt.Errorf("%w: %v", game.ErrWordServiceUnavailable, err)
	}
	ws := []string{"cat", "cut"}
	p, err := puzzle.New(ws, nil)
	if err != nil {
		return generator.Result{}, err
	}
	return generator.Result{Words: ws, Puzzle: p, Attempts: 1}, nil
}

func (g *fixedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type harness struct {
	svc      *Service
	words    *fakeWords
	accounts *fakeAccounts
	gen      *fixedGenerator
	seq      uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	w := &fakeWords{store: words.NewMemory([]string{"cat", "cut", "dog", "god"})}
	a := newFakeAccounts()
	g := &fixedGenerator{words: w}
	svc := New(w, a, g, store.NewMemoryStore(), Options{
		Idempotency: idempotency.Config{Grace: time.Minute},
	})
	t.Cleanup(svc.Close)
	return &harness{svc: svc, words: w, accounts: a, gen: g}
}

func (h *harness) next() uint64 {
	h.seq++
	return h.seq
}

// login opens a session, logs username in and loads the account.
func (h *harness) login(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()
	sid, err := h.svc.Connect(ctx)
	require.NoError(t, err)
	_, err = h.svc.CheckUser(ctx, sid, h.next(), username)
	require.NoError(t, err)
	_, err = h.svc.Load(ctx, sid, h.next())
	require.NoError(t, err)
	return sid
}
