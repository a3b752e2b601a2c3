package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/accounts"
	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
)

// CheckUser logs username in on the account service and binds it to the
// session.
func (s *Service) CheckUser(ctx context.Context, sid string, seq uint64, username string) (Reply, error) {
	username = strings.TrimSpace(username)
	fp := idempotency.FingerprintOf("login", username)
	return s.do(ctx, sid, seq, fp, func(ctx context.Context, sess *store.Session) (Reply, error) {
		if username == "" {
			return Reply{}, fmt.Errorf("%w: empty username", game.ErrInvalidSyntax)
		}
		if cur := sess.Username(); cur != "" {
			return Reply{}, fmt.Errorf("%w: session already belongs to %q", game.ErrDuplicateLogin, cur)
		}
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		status, err := s.accounts.Login(rctx, username)
		if err != nil {
			return Reply{}, err
		}
		switch status {
		case accounts.StatusExisting, accounts.StatusCreated:
		default:
			return Reply{}, fmt.Errorf("%w: %q", game.ErrDuplicateLogin, username)
		}
		sess.Bind(username)
		log.Info().Str("session", sess.ID).Str("username", username).Int("status", status).Msg("login")

		msg := "Welcome back, " + username + "."
		if status == accounts.StatusCreated {
			msg = "Welcome, " + username + ". A new account has been created."
		}
		return Reply{Message: msg, Username: username, Created: status == accounts.StatusCreated}, nil
	})
}

// Load fetches the user's record. A saved game comes back suspended: the
// session always starts in the user menu.
func (s *Service) Load(ctx context.Context, sid string, seq uint64) (Reply, error) {
	return s.do(ctx, sid, seq, idempotency.FingerprintOf("load"), func(ctx context.Context, sess *store.Session) (Reply, error) {
		u := sess.Username()
		if u == "" {
			return Reply{}, game.ErrNotLoggedIn
		}
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		data, err := s.accounts.Load(rctx, u)
		if err != nil {
			return Reply{}, err
		}
		acc, err := game.Unmarshal(data)
		if err != nil {
			return Reply{}, fmt.Errorf("load %q: %w", u, err)
		}
		acc.Username = u
		acc.Suspend()
		sess.SetAccount(acc)

		msg := "Account loaded."
		if acc.HasGame() {
			msg = "Account loaded. A saved game is waiting; use Continue to resume it."
		}
		return snapshot(acc, msg), nil
	})
}

// Save suspends the current game and persists the account.
func (s *Service) Save(ctx context.Context, sid string, seq uint64) (Reply, error) {
	return s.do(ctx, sid, seq, idempotency.FingerprintOf("save"), func(ctx context.Context, sess *store.Session) (Reply, error) {
		acc, err := account(sess)
		if err != nil {
			return Reply{}, err
		}
		acc.Suspend()
		if err := s.persist(ctx, sess); err != nil {
			return s.failed(ctx, sess, acc, "Save failed.", err)
		}
		return snapshot(acc, "Game saved."), nil
	})
}

// Logout saves what it can, logs the user out and closes the session.
func (s *Service) Logout(ctx context.Context, sid string, seq uint64) (Reply, error) {
	return s.do(ctx, sid, seq, idempotency.FingerprintOf("logout"), func(ctx context.Context, sess *store.Session) (Reply, error) {
		defer s.replies.EndSession(sess.ID)
		defer func() {
			if err := s.sessions.Delete(ctx, sess.ID); err != nil {
				log.Warn().Err(err).Str("session", sess.ID).Msg("delete session")
			}
		}()

		u := sess.Username()
		if u == "" {
			return Reply{Message: "Goodbye."}, nil
		}
		if acc := sess.Account(); acc != nil {
			acc.Suspend()
			if err := s.persist(ctx, sess); err != nil {
				log.Warn().Err(err).Str("session", sess.ID).Str("username", u).Msg("save on logout")
			}
		}
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		if _, err := s.accounts.Logout(rctx, u); err != nil {
			return Reply{Message: "Goodbye."}, err
		}
		log.Info().Str("session", sess.ID).Str("username", u).Msg("logout")
		return Reply{Message: "Goodbye, " + u + "."}, nil
	})
}
