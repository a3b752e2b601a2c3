// apps/go-server/internal/game/types.go
//
// Core type definitions for player state.
// Defines:
//   - Mode: Idle (user menu) or Play (game menu).
//   - State: the puzzle in progress, attempts left and guess history.
//   - Account: username, score and state; the unit persisted by the
//     account service.
//   - Outcome / GuessResult: what a single guess did.

package game

import "github.com/robalobadob/crossword/apps/go-server/internal/puzzle"

// MaxWordCount bounds both the New Game argument and the attempt budget.
const MaxWordCount = 15

// MinWordCount is the smallest puzzle: a stem and one leaf.
const MinWordCount = 2

// Mode is the session's position in the menu state machine.
type Mode string

const (
	ModeIdle Mode = "Idle"
	ModePlay Mode = "Play"
)

// Outcome reports how a guess left the game.
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeWon      Outcome = "won"
	OutcomeLost     Outcome = "lost"
)

// State holds the game side of an account.
// Words, Attempts and Guesses are only meaningful while Puzzle is non-nil.
type State struct {
	Mode     Mode
	Attempts int
	Words    []string       // index 0 is the stem
	Guesses  []string       // lowercased, in submission order, unique
	Puzzle   *puzzle.Puzzle // nil when no game is retained
}

// Account is a player's persisted record.
type Account struct {
	Username string
	Score    int
	State    State
}

// GuessResult is returned by Account.Guess.
type GuessResult struct {
	Guess    string
	Revealed bool
	Outcome  Outcome
	Attempts int
}
