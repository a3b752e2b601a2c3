// apps/go-server/internal/orchestrator/service.go
//
// Game orchestrator: the session-level API the transport calls.
// Responsibilities:
//   - Own the session registry and route each operation to the word
//     service, the puzzle generator or the account service.
//   - Wrap every session-mutating operation in the replay cache, keyed by
//     (session ID, sequence number).
//   - Apply the failure policy: when the word or account service cannot be
//     reached the session is forced back to the user menu, a best-effort
//     save is attempted, and the original error is returned.
//
// Notes:
//   - Operations of one session are serialised by the session lock; the
//     replay cache sits outside it so a retry waits for the original call.
//   - Cached operations run detached from the caller's cancellation so a
//     client that hangs up mid-call still gets the real result on retry.
//     Every outbound call is bounded by the RPC timeout instead.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/generator"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
)

// WordService is the word service as the orchestrator uses it.
type WordService interface {
	generator.WordSource
	AddWord(ctx context.Context, w string) (string, error)
	RemoveWord(ctx context.Context, w string) (string, error)
	CheckWord(ctx context.Context, w string) (bool, error)
}

// AccountService is the account service as the orchestrator uses it.
type AccountService interface {
	Login(ctx context.Context, username string) (int, error)
	Logout(ctx context.Context, username string) (int, error)
	Load(ctx context.Context, username string) (string, error)
	Save(ctx context.Context, username, data string) error
	Heartbeat(ctx context.Context, username string) (int, error)
}

// PuzzleGenerator builds puzzles.
type PuzzleGenerator interface {
	Generate(ctx context.Context, wordCount int) (generator.Result, error)
}

// Options tunes a Service.
type Options struct {
	RPCTimeout  time.Duration
	Idempotency idempotency.Config
	Now         func() time.Time
	NewID       func() string
}

// Service implements the session operations.
type Service struct {
	words    WordService
	accounts AccountService
	gen      PuzzleGenerator
	sessions store.Store
	replies  *idempotency.Store[Reply]

	rpcTimeout time.Duration
	now        func() time.Time
	newID      func() string
}

// New builds a Service. Close releases its background cleanup.
func New(words WordService, accounts AccountService, gen PuzzleGenerator, sessions store.Store, opts Options) *Service {
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Idempotency.Now == nil {
		opts.Idempotency.Now = opts.Now
	}
	return &Service{
		words:      words,
		accounts:   accounts,
		gen:        gen,
		sessions:   sessions,
		replies:    idempotency.NewStore[Reply](opts.Idempotency),
		rpcTimeout: opts.RPCTimeout,
		now:        opts.Now,
		newID:      opts.NewID,
	}
}

// Close stops the replay cache's cleanup loop.
func (s *Service) Close() { s.replies.Stop() }

// Sessions returns the number of live sessions.
func (s *Service) Sessions() int { return s.sessions.Len() }

// Connect opens an anonymous session and returns its ID.
func (s *Service) Connect(ctx context.Context) (string, error) {
	id := s.newID()
	if err := s.sessions.Save(ctx, store.NewSession(id, s.now())); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("session", id).Msg("session opened")
	return id, nil
}

// Heartbeat records client liveness. It never touches game state and is
// not cached.
func (s *Service) Heartbeat(ctx context.Context, sid string) error {
	sess, err := s.session(ctx, sid)
	if err != nil {
		return err
	}
	now := s.now()
	gap := now.Sub(sess.LastSeen())
	sess.Touch(now)
	u := sess.Username()
	if u != "" {
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		if _, err := s.accounts.Heartbeat(rctx, u); err != nil {
			log.Debug().Err(err).Str("session", sid).Str("username", u).Msg("heartbeat not forwarded")
		}
	}
	log.Debug().Str("session", sid).Str("username", u).Dur("since_last", gap).Msg("heartbeat")
	return nil
}

// do runs op through the replay cache and under the session lock.
func (s *Service) do(ctx context.Context, sid string, seq uint64, fp idempotency.Fingerprint,
	op func(ctx context.Context, sess *store.Session) (Reply, error)) (Reply, error) {

	key := idempotency.Key{Session: sid, Seq: seq}
	sess, err := s.session(ctx, sid)
	if err != nil {
		// A retried logout arrives after its session is gone.
		if reply, found, cerr := s.replies.Lookup(key, fp); found {
			return reply, cerr
		}
		return Reply{}, err
	}
	detached := context.WithoutCancel(ctx)
	reply, replayed, err := s.replies.Do(ctx, key, fp, func() (Reply, error) {
		sess.Lock()
		defer sess.Unlock()
		return op(detached, sess)
	})
	if replayed {
		log.Info().Str("session", sid).Uint64("seq", seq).Msg("replayed cached reply")
	}
	return reply, err
}

func (s *Service) session(ctx context.Context, sid string) (*store.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown session", game.ErrNotLoggedIn)
	}
	return sess, err
}

func (s *Service) rpc(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.rpcTimeout)
}

// account returns the loaded account or ErrNotLoggedIn. Callers hold the
// session lock.
func account(sess *store.Session) (*game.Account, error) {
	if sess.Username() == "" || sess.Account() == nil {
		return nil, game.ErrNotLoggedIn
	}
	return sess.Account(), nil
}

// persist saves the session's account. Callers hold the session lock.
func (s *Service) persist(ctx context.Context, sess *store.Session) error {
	acc := sess.Account()
	if acc == nil {
		return nil
	}
	rctx, cancel := s.rpc(ctx)
	defer cancel()
	if err := s.accounts.Save(rctx, acc.Username, game.Marshal(acc)); err != nil {
		if game.KindOf(err) == game.KindInternal {
			err = fmt.Errorf("%w: %v", game.ErrAccountServiceUnavailable, err)
		}
		return err
	}
	return nil
}

// fail applies the collaborator-failure policy and returns err unchanged.
// Callers hold the session lock.
func (s *Service) fail(ctx context.Context, sess *store.Session, err error) error {
	if !game.Recoverable(err) {
		return err
	}
	acc := sess.Account()
	if acc == nil {
		return err
	}
	acc.ForceIdle()
	if perr := s.persist(ctx, sess); perr != nil {
		log.Warn().Err(perr).Str("session", sess.ID).Str("username", acc.Username).
			Msg("best-effort save after collaborator failure")
	}
	log.Warn().Err(err).Str("session", sess.ID).Str("username", acc.Username).Msg("session forced to idle")
	return err
}

// failed is fail followed by a snapshot of the resulting state.
func (s *Service) failed(ctx context.Context, sess *store.Session, acc *game.Account, msg string, err error) (Reply, error) {
	err = s.fail(ctx, sess, err)
	return snapshot(acc, msg), err
}
