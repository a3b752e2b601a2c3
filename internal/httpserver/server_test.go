package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/apps/go-server/assets"
	"github.com/robalobadob/crossword/apps/go-server/internal/accounts"
	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/generator"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/orchestrator"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
	"github.com/robalobadob/crossword/apps/go-server/internal/words"
	"github.com/robalobadob/crossword/apps/go-server/internal/wordsvc"
)

var testSecret = []byte("test-secret")

// startWordService serves the embedded word list over UDP and returns its
// address.
func startWordService(t *testing.T) string {
	t.Helper()
	list, err := assets.DefaultWords()
	require.NoError(t, err)
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- wordsvc.NewServer(words.NewMemory(list)).Serve(ctx, conn) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return conn.LocalAddr().String()
}

// newTestServer wires the orchestrator to a word service at wordAddr and
// an in-process account service.
func newTestServer(t *testing.T, wordAddr string) *httptest.Server {
	t.Helper()
	acctSrv := httptest.NewServer(accounts.NewServer(accounts.NewRegistry(accounts.NewMemoryStore()), time.Second).Handler())
	t.Cleanup(acctSrv.Close)

	wc := wordsvc.NewClient(wordAddr, 200*time.Millisecond)
	t.Cleanup(func() { _ = wc.Close() })
	svc := orchestrator.New(wc, accounts.NewClient(acctSrv.URL, time.Second), generator.New(wc), store.NewMemoryStore(),
		orchestrator.Options{
			RPCTimeout:  2 * time.Second,
			Idempotency: idempotency.Config{Grace: time.Minute},
		})
	t.Cleanup(svc.Close)

	ts := httptest.NewServer(New(svc, Options{Secret: testSecret, Workers: 4, Backlog: 16}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type result struct {
	status int
	reply  orchestrator.Reply
	err    errorRes
}

func post(t *testing.T, ts *httptest.Server, path, token string, body any) result {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := result{status: res.StatusCode}
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(raw, &out.reply), string(raw))
	} else {
		_ = json.Unmarshal(raw, &out.err)
	}
	return out
}

func connect(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	res, err := ts.Client().Post(ts.URL+"/session", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var c connectRes
	require.NoError(t, json.NewDecoder(res.Body).Decode(&c))
	require.NotEmpty(t, c.Token)
	require.NotEmpty(t, c.SessionID)
	return c.Token
}

func seq(n uint64) *uint64 { return &n }

func TestHealth(t *testing.T) {
	ts := newTestServer(t, startWordService(t))
	res, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/json")
}

func TestSessionTokenRequired(t *testing.T) {
	ts := newTestServer(t, startWordService(t))

	assert.Equal(t, http.StatusUnauthorized, post(t, ts, "/session/load", "", rpcReq{Seq: seq(1)}).status)
	assert.Equal(t, http.StatusUnauthorized, post(t, ts, "/session/load", "garbage", rpcReq{Seq: seq(1)}).status)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "whatever",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, post(t, ts, "/session/load", forged, rpcReq{Seq: seq(1)}).status)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "whatever",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, post(t, ts, "/session/load", expired, rpcReq{Seq: seq(1)}).status)

	unknown, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "no-such-session",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	res := post(t, ts, "/session/load", unknown, rpcReq{Seq: seq(1)})
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, string(game.KindNotLoggedIn), res.err.Error)
}

func TestGameOverHTTP(t *testing.T) {
	ts := newTestServer(t, startWordService(t))
	tok := connect(t, ts)

	res := post(t, ts, "/session/login", tok, rpcReq{Seq: seq(1), Username: "alice"})
	require.Equal(t, http.StatusOK, res.status)
	assert.True(t, res.reply.Created)

	res = post(t, ts, "/session/load", tok, rpcReq{Seq: seq(2)})
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, game.ModeIdle, res.reply.Mode)

	res = post(t, ts, "/session/command", tok, rpcReq{Seq: seq(3), Input: "New Game;two"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, string(game.KindInvalidWordCount), res.err.Error)

	res = post(t, ts, "/session/command", tok, rpcReq{Seq: seq(4), Input: "New Game;2"})
	require.Equal(t, http.StatusOK, res.status, res.err.Message)
	assert.Equal(t, game.ModePlay, res.reply.Mode)
	assert.Equal(t, game.AttemptsFor(2), res.reply.Attempts)
	assert.NotEmpty(t, res.reply.Grid)

	first := post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(5), Input: "zzzzzz"})
	require.Equal(t, http.StatusOK, first.status)
	again := post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(5), Input: "zzzzzz"})
	require.Equal(t, http.StatusOK, again.status)
	assert.Equal(t, first.reply, again.reply)
	assert.Equal(t, game.AttemptsFor(2)-1, again.reply.Attempts)

	res = post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(5), Input: "qqqqqq"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, KindKeyReused, res.err.Error)

	res = post(t, ts, "/session/guess", tok, rpcReq{Input: "a"})
	assert.Equal(t, http.StatusBadRequest, res.status, "seq is required")

	res = post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(6), Input: "zzzzzz"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, string(game.KindDuplicateGuess), res.err.Error)
	require.NotNil(t, res.err.Reply)
	assert.Equal(t, game.AttemptsFor(2)-1, res.err.Reply.Attempts)

	res = post(t, ts, "/session/query", tok, rpcReq{Seq: seq(7), Word: "zzzzzz"})
	require.Equal(t, http.StatusOK, res.status)
	assert.False(t, res.reply.Found)

	res = post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(8), Input: "*Save*"})
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, game.ModeIdle, res.reply.Mode)

	res = post(t, ts, "/session/guess", tok, rpcReq{Seq: seq(9), Input: "a"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, string(game.KindNotPlaying), res.err.Error)

	assert.Equal(t, http.StatusOK, post(t, ts, "/session/heartbeat", tok, struct{}{}).status)

	res = post(t, ts, "/session/logout", tok, rpcReq{Seq: seq(10)})
	require.Equal(t, http.StatusOK, res.status)
	res = post(t, ts, "/session/load", tok, rpcReq{Seq: seq(11)})
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestDuplicateLoginHTTP(t *testing.T) {
	ts := newTestServer(t, startWordService(t))
	a, b := connect(t, ts), connect(t, ts)

	require.Equal(t, http.StatusOK, post(t, ts, "/session/login", a, rpcReq{Seq: seq(1), Username: "bob"}).status)
	res := post(t, ts, "/session/login", b, rpcReq{Seq: seq(1), Username: "bob"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, string(game.KindDuplicateLogin), res.err.Error)
}

func TestWordServiceDownHTTP(t *testing.T) {
	silent, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = silent.Close() })
	ts := newTestServer(t, silent.LocalAddr().String())
	tok := connect(t, ts)

	require.Equal(t, http.StatusOK, post(t, ts, "/session/login", tok, rpcReq{Seq: seq(1), Username: "carol"}).status)
	require.Equal(t, http.StatusOK, post(t, ts, "/session/load", tok, rpcReq{Seq: seq(2)}).status)

	res := post(t, ts, "/session/command", tok, rpcReq{Seq: seq(3), Input: "New Game;2"})
	assert.Equal(t, http.StatusServiceUnavailable, res.status)
	assert.Equal(t, string(game.KindWordServiceUnavailable), res.err.Error)
	require.NotNil(t, res.err.Reply)
	assert.Equal(t, game.ModeIdle, res.err.Reply.Mode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(game.KindInvalidSyntax))
	assert.Equal(t, http.StatusConflict, statusFor(game.KindNoExistingGame))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(game.KindAccountServiceUnavailable))
	assert.Equal(t, http.StatusBadGateway, statusFor(game.KindPersistenceFailed))
	assert.Equal(t, http.StatusInternalServerError, statusFor(game.KindInternal))
}
