package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/command"
	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
)

// ProcessCommand executes a user-menu command. Every command that runs
// ends with a save; a failed save is reported but the command's effect on
// the session stays.
func (s *Service) ProcessCommand(ctx context.Context, sid string, seq uint64, input string) (Reply, error) {
	fp := idempotency.FingerprintOf("command", input)
	return s.do(ctx, sid, seq, fp, func(ctx context.Context, sess *store.Session) (Reply, error) {
		acc, err := account(sess)
		if err != nil {
			return Reply{}, err
		}
		cmd, err := command.Parse(input)
		if err != nil {
			return Reply{}, err
		}

		msg, err := s.execute(ctx, acc, cmd)
		if err != nil {
			return s.failed(ctx, sess, acc, "", err)
		}
		log.Info().Str("session", sess.ID).Str("username", acc.Username).Stringer("command", cmd.Kind).Msg("command")

		if err := s.persist(ctx, sess); err != nil {
			return s.failed(ctx, sess, acc, msg, err)
		}
		return snapshot(acc, msg), nil
	})
}

func (s *Service) execute(ctx context.Context, acc *game.Account, cmd command.Command) (string, error) {
	switch cmd.Kind {
	case command.Add, command.Remove:
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		call := s.words.AddWord
		if cmd.Kind == command.Remove {
			call = s.words.RemoveWord
		}
		msg, err := call(rctx, cmd.Word)
		if err != nil {
			return "", err
		}
		acc.Suspend()
		return msg, nil

	case command.NewGame:
		rctx, cancel := s.rpc(ctx)
		defer cancel()
		res, err := s.gen.Generate(rctx, cmd.WordCount)
		if err != nil {
			return "", err
		}
		acc.StartGame(res.Words, res.Puzzle)
		return fmt.Sprintf("New game with %d words. You have %d attempts.", len(res.Words), acc.State.Attempts), nil

	case command.Continue:
		if err := acc.Resume(); err != nil {
			return "", err
		}
		return fmt.Sprintf("Game resumed. You have %d attempts left.", acc.State.Attempts), nil

	case command.Exit:
		acc.Suspend()
		return "Progress saved. Goodbye.", nil
	}
	return "", fmt.Errorf("%w: %v", game.ErrInvalidSyntax, cmd.Kind)
}

// ProcessGuess handles a game-menu line: a guess, a ?query, or *Save*.
func (s *Service) ProcessGuess(ctx context.Context, sid string, seq uint64, input string) (Reply, error) {
	fp := idempotency.FingerprintOf("guess", input)
	return s.do(ctx, sid, seq, fp, func(ctx context.Context, sess *store.Session) (Reply, error) {
		acc, err := account(sess)
		if err != nil {
			return Reply{}, err
		}
		if !acc.Playing() {
			return snapshot(acc, ""), game.ErrNotPlaying
		}
		in, err := game.ParseGameInput(input)
		if err != nil {
			return snapshot(acc, ""), err
		}

		switch in.Kind {
		case game.InputSave:
			acc.Suspend()
			if err := s.persist(ctx, sess); err != nil {
				return s.failed(ctx, sess, acc, "Save failed.", err)
			}
			return snapshot(acc, "Game saved."), nil
		case game.InputQuery:
			return s.query(ctx, sess, acc, in.Text)
		}
		return s.guess(ctx, sess, acc, in.Text)
	})
}

func (s *Service) guess(ctx context.Context, sess *store.Session, acc *game.Account, text string) (Reply, error) {
	solution := acc.State.Puzzle.Solution()
	res, err := acc.Guess(text)
	if err != nil {
		return snapshot(acc, ""), err
	}

	reply := snapshot(acc, "")
	reply.Outcome = res.Outcome
	reply.Revealed = res.Revealed
	switch res.Outcome {
	case game.OutcomeWon:
		reply.Message = fmt.Sprintf("You solved it! Your score is now %d.", acc.Score)
		reply.Grid = solution
	case game.OutcomeLost:
		reply.Message = "Out of attempts. Better luck next time."
		reply.Grid = solution
	default:
		if res.Revealed {
			reply.Message = fmt.Sprintf("%q is in the puzzle. %d attempts left.", res.Guess, res.Attempts)
		} else {
			reply.Message = fmt.Sprintf("%q is not in the puzzle. %d attempts left.", res.Guess, res.Attempts)
		}
	}
	log.Info().Str("session", sess.ID).Str("username", acc.Username).Str("guess", res.Guess).
		Bool("revealed", res.Revealed).Str("outcome", string(res.Outcome)).Msg("guess")

	if err := s.persist(ctx, sess); err != nil {
		err = s.fail(ctx, sess, err)
		reply.Mode = acc.State.Mode
		return reply, err
	}
	return reply, nil
}

// ProcessQuery reports whether word exists. The current puzzle's words
// count even if they were removed from the word service after the puzzle
// was built. No attempt is consumed and nothing is saved.
func (s *Service) ProcessQuery(ctx context.Context, sid string, seq uint64, word string) (Reply, error) {
	fp := idempotency.FingerprintOf("query", word)
	return s.do(ctx, sid, seq, fp, func(ctx context.Context, sess *store.Session) (Reply, error) {
		acc, err := account(sess)
		if err != nil {
			return Reply{}, err
		}
		w, err := game.NormalizeGuess(word)
		if err != nil {
			return snapshot(acc, ""), err
		}
		return s.query(ctx, sess, acc, w)
	})
}

func (s *Service) query(ctx context.Context, sess *store.Session, acc *game.Account, word string) (Reply, error) {
	rctx, cancel := s.rpc(ctx)
	defer cancel()
	found, err := s.words.CheckWord(rctx, word)
	if err != nil {
		return s.failed(ctx, sess, acc, "", err)
	}
	if !found && acc.HasGame() {
		found = acc.State.UsesWord(word)
	}

	reply := snapshot(acc, fmt.Sprintf("The word %q is not in the database.", word))
	if found {
		reply.Message = fmt.Sprintf("The word %q is in the database.", word)
	}
	reply.Found = found
	return reply, nil
}
