package orchestrator

import (
	"slices"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// Reply is what every session operation returns. It is a snapshot: nothing
// in it aliases session state, so a cached Reply replays byte for byte.
type Reply struct {
	Message  string       `json:"message"`
	Username string       `json:"username,omitempty"`
	Mode     game.Mode    `json:"mode,omitempty"`
	Score    int          `json:"score"`
	Attempts int          `json:"attempts,omitempty"`
	Grid     string       `json:"grid,omitempty"`
	Guesses  []string     `json:"guesses,omitempty"`
	Outcome  game.Outcome `json:"outcome,omitempty"`
	Revealed bool         `json:"revealed,omitempty"`
	Created  bool         `json:"created,omitempty"`
	Found    bool         `json:"found,omitempty"`
}

// snapshot captures the account's visible state.
func snapshot(acc *game.Account, msg string) Reply {
	r := Reply{Message: msg}
	if acc == nil {
		return r
	}
	r.Username = acc.Username
	r.Mode = acc.State.Mode
	r.Score = acc.Score
	if acc.HasGame() {
		r.Attempts = acc.State.Attempts
		r.Grid = acc.State.Puzzle.Revealed()
		r.Guesses = slices.Clone(acc.State.Guesses)
	}
	return r
}
