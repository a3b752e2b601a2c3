package game

import (
	"fmt"
	"strings"
)

const (
	// SaveCode leaves the game menu and keeps the puzzle.
	SaveCode = "*Save*"
	// QueryPrefix marks a word-existence check instead of a guess.
	QueryPrefix = '?'
)

// InputKind classifies a line typed in the game menu.
type InputKind int

const (
	InputGuess InputKind = iota
	InputQuery
	InputSave
)

// Input is a parsed game-menu line.
type Input struct {
	Kind InputKind
	Text string // guess (lowercased) or queried word
}

// ParseGameInput classifies a game-menu line. Only a single leading query
// marker is stripped. Guesses and queries must be letters only.
func ParseGameInput(raw string) (Input, error) {
	s := strings.TrimSpace(raw)
	if s == SaveCode {
		return Input{Kind: InputSave}, nil
	}
	if strings.HasPrefix(s, string(QueryPrefix)) {
		word := strings.TrimSpace(strings.TrimPrefix(s, string(QueryPrefix)))
		if _, err := NormalizeGuess(word); err != nil {
			return Input{}, fmt.Errorf("query: %w", err)
		}
		return Input{Kind: InputQuery, Text: strings.ToLower(word)}, nil
	}
	g, err := NormalizeGuess(s)
	if err != nil {
		return Input{}, err
	}
	return Input{Kind: InputGuess, Text: g}, nil
}
