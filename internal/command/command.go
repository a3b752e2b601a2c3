// apps/go-server/internal/command/command.go
//
// Parser for user-menu commands.
// Responsibilities:
//   - Split "name;argument" lines and map the name onto a closed set of kinds.
//   - Validate arguments up front so the orchestrator only routes.
//
// Notes:
//   - Command names are case-sensitive ("New Game", not "new game").
//   - Every command except *Exit* needs a non-empty argument.

package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
)

// ExitCode ends the session from the user menu.
const ExitCode = "*Exit*"

// Kind identifies a parsed command.
type Kind int

const (
	Add Kind = iota + 1
	Remove
	NewGame
	Continue
	Exit
)

var names = map[string]Kind{
	"Add":      Add,
	"Remove":   Remove,
	"New Game": NewGame,
	"Continue": Continue,
}

func (k Kind) String() string {
	switch k {
	case Add:
		return "Add"
	case Remove:
		return "Remove"
	case NewGame:
		return "New Game"
	case Continue:
		return "Continue"
	case Exit:
		return "Exit"
	}
	return "Unknown"
}

// Command is a validated user-menu command.
type Command struct {
	Kind Kind
	// Word is set for Add and Remove.
	Word string
	// WordCount is set for NewGame.
	WordCount int
}

// Parse validates a raw user-menu line.
func Parse(input string) (Command, error) {
	line := strings.TrimSpace(input)
	if line == ExitCode {
		return Command{Kind: Exit}, nil
	}
	name, arg, ok := strings.Cut(line, ";")
	arg = strings.TrimSpace(arg)
	if !ok || arg == "" {
		return Command{}, fmt.Errorf("%w: %q", game.ErrInvalidSyntax, input)
	}
	kind, known := names[name]
	if !known {
		return Command{}, fmt.Errorf("%w: unknown command %q", game.ErrInvalidSyntax, name)
	}

	cmd := Command{Kind: kind}
	switch kind {
	case Add, Remove:
		cmd.Word = strings.ToLower(arg)
	case NewGame:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", game.ErrInvalidWordCount, arg)
		}
		if n < game.MinWordCount || n > game.MaxWordCount {
			return Command{}, fmt.Errorf("%w: %d not in %d..%d", game.ErrWordCountOutOfRange, n, game.MinWordCount, game.MaxWordCount)
		}
		cmd.WordCount = n
	}
	return cmd, nil
}
