// apps/go-server/internal/game/engine.go
//
// Session state machine for a single player.
// Responsibilities:
//   - Start, resume and suspend games (Idle ⇄ Play).
//   - Validate and apply guesses: anything but letters, and repeats, are
//     rejected before the grid is touched and cost no attempt.
//   - Track the end of a game: a solved grid scores a point, running out of
//     attempts loses. Either way the puzzle is discarded and the player
//     returns to Idle.
//
// Notes:
//   - Puzzles are built by the generator package; this file only owns
//     the transitions.
//   - Guess history is case-insensitive.

package game

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/robalobadob/crossword/apps/go-server/internal/puzzle"
)

// NewAccount returns the default record for a first-time player.
func NewAccount(username string) *Account {
	return &Account{Username: username, State: State{Mode: ModeIdle}}
}

// AttemptsFor returns the attempt budget for a puzzle of wordCount words.
func AttemptsFor(wordCount int) int {
	return min(2*wordCount, MaxWordCount)
}

// Playing reports whether the account is in the game menu.
func (a *Account) Playing() bool { return a.State.Mode == ModePlay }

// HasGame reports whether a puzzle is retained (active or suspended).
func (a *Account) HasGame() bool { return a.State.Puzzle != nil }

// StartGame replaces any retained game with a fresh puzzle and enters Play.
func (a *Account) StartGame(words []string, p *puzzle.Puzzle) {
	a.State = State{
		Mode:     ModePlay,
		Attempts: AttemptsFor(len(words)),
		Words:    slices.Clone(words),
		Guesses:  []string{},
		Puzzle:   p,
	}
}

// Resume re-enters Play for a suspended game.
func (a *Account) Resume() error {
	if !a.HasGame() {
		return ErrNoExistingGame
	}
	a.State.Mode = ModePlay
	return nil
}

// Suspend returns to Idle and keeps the puzzle for a later Continue.
func (a *Account) Suspend() { a.State.Mode = ModeIdle }

// ForceIdle is used after collaborator failures; the puzzle is kept.
func (a *Account) ForceIdle() { a.State.Mode = ModeIdle }

// Guess validates and applies one guess.
func (a *Account) Guess(input string) (GuessResult, error) {
	if !a.Playing() || !a.HasGame() {
		return GuessResult{}, ErrNotPlaying
	}
	guess, err := NormalizeGuess(input)
	if err != nil {
		return GuessResult{}, err
	}
	st := &a.State
	if st.HasGuessed(guess) {
		return GuessResult{}, fmt.Errorf("%w: %q", ErrDuplicateGuess, guess)
	}

	revealed := st.Puzzle.ApplyGuess(guess)
	st.Attempts--
	st.Guesses = append(st.Guesses, guess)

	res := GuessResult{Guess: guess, Revealed: revealed, Outcome: OutcomeContinue, Attempts: st.Attempts}
	switch {
	case st.Puzzle.Solved():
		a.Score++
		res.Outcome = OutcomeWon
		a.endGame()
	case st.Attempts <= 0:
		res.Outcome = OutcomeLost
		a.endGame()
	}
	return res, nil
}

// endGame discards the finished puzzle; a won or lost game cannot be
// continued or queried.
func (a *Account) endGame() {
	a.State = State{Mode: ModeIdle}
}

// HasGuessed reports whether guess was already submitted this game.
func (s *State) HasGuessed(guess string) bool {
	return slices.Contains(s.Guesses, strings.ToLower(guess))
}

// UsesWord reports whether w is one of the current puzzle's words.
func (s *State) UsesWord(w string) bool {
	return slices.Contains(s.Words, strings.ToLower(strings.TrimSpace(w)))
}

// NormalizeGuess lowercases a guess and rejects empty input or input that
// is not made of letters only. Grid layout characters, the record's list
// separator and line breaks all fall outside that.
func NormalizeGuess(input string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(input))
	if g == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidGuess)
	}
	if strings.IndexFunc(g, notGuessRune) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidGuess, input)
	}
	return g, nil
}

func notGuessRune(r rune) bool {
	return puzzle.IsStructural(r) || !unicode.IsLetter(r)
}
