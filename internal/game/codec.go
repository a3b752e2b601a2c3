// apps/go-server/internal/game/codec.go
//
// Text codec for the record the account service stores.
//
//   Username;<name>
//   Score;<int>
//   State;<Idle|Play>
//   Attempts;<int>            ┐
//   Words;<stem,leaf,...>     │ present while a puzzle is retained
//   Guesses;<guess,...>       │ (State=Play, or a suspended game)
//   <revealed grid rows>      │
//   $                         │
//   <solution grid rows>      ┘
//
// Records written before guess history existed (no Guesses line) are
// accepted and load with an empty history.

package game

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalobadob/crossword/apps/go-server/internal/puzzle"
)

// SolutionDelimiter separates the revealed grid from the solution grid.
const SolutionDelimiter = "$"

// ErrMalformedRecord is returned by Unmarshal for unreadable records.
var ErrMalformedRecord = errors.New("malformed account record")

// Marshal renders an account in the persisted text format.
func Marshal(a *Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Username;%s\n", a.Username)
	fmt.Fprintf(&b, "Score;%d\n", a.Score)
	mode := a.State.Mode
	if mode == "" {
		mode = ModeIdle
	}
	fmt.Fprintf(&b, "State;%s\n", mode)
	if !a.HasGame() {
		return b.String()
	}
	fmt.Fprintf(&b, "Attempts;%d\n", a.State.Attempts)
	fmt.Fprintf(&b, "Words;%s\n", strings.Join(a.State.Words, ","))
	fmt.Fprintf(&b, "Guesses;%s\n", strings.Join(a.State.Guesses, ","))
	b.WriteString(a.State.Puzzle.Revealed())
	b.WriteString(SolutionDelimiter + "\n")
	b.WriteString(a.State.Puzzle.Solution())
	return b.String()
}

// Unmarshal parses a persisted record.
func Unmarshal(data string) (*Account, error) {
	sc := bufio.NewScanner(strings.NewReader(data))
	var lines []string
	for sc.Scan() {
		if l := strings.TrimRight(sc.Text(), "\r"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	r := &lineReader{lines: lines}
	username, err := r.field("Username")
	if err != nil {
		return nil, err
	}
	scoreStr, err := r.field("Score")
	if err != nil {
		return nil, err
	}
	score, err := strconv.Atoi(strings.TrimSpace(scoreStr))
	if err != nil || score < 0 {
		return nil, fmt.Errorf("%w: score %q", ErrMalformedRecord, scoreStr)
	}
	modeStr, err := r.field("State")
	if err != nil {
		return nil, err
	}
	mode := Mode(strings.TrimSpace(modeStr))
	if mode != ModeIdle && mode != ModePlay {
		return nil, fmt.Errorf("%w: state %q", ErrMalformedRecord, modeStr)
	}

	a := &Account{Username: strings.TrimSpace(username), Score: score, State: State{Mode: mode}}
	if r.done() {
		// A Play record without a game cannot be resumed.
		a.State.Mode = ModeIdle
		return a, nil
	}
	if err := r.readGame(&a.State); err != nil {
		return nil, err
	}
	return a, nil
}

type lineReader struct {
	lines []string
	pos   int
}

func (r *lineReader) done() bool { return r.pos >= len(r.lines) }

// field consumes a "<name>;<value>" line.
func (r *lineReader) field(name string) (string, error) {
	if r.done() {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedRecord, name)
	}
	k, v, ok := strings.Cut(r.lines[r.pos], ";")
	if !ok || k != name {
		return "", fmt.Errorf("%w: expected %s, got %q", ErrMalformedRecord, name, r.lines[r.pos])
	}
	r.pos++
	return v, nil
}

func (r *lineReader) peekField(name string) bool {
	return !r.done() && strings.HasPrefix(r.lines[r.pos], name+";")
}

func (r *lineReader) readGame(st *State) error {
	attemptsStr, err := r.field("Attempts")
	if err != nil {
		return err
	}
	attempts, err := strconv.Atoi(strings.TrimSpace(attemptsStr))
	if err != nil || attempts < 0 {
		return fmt.Errorf("%w: attempts %q", ErrMalformedRecord, attemptsStr)
	}
	wordsStr, err := r.field("Words")
	if err != nil {
		return err
	}
	words := splitList(wordsStr)
	if len(words) == 0 {
		return fmt.Errorf("%w: no words", ErrMalformedRecord)
	}
	guesses := []string{}
	if r.peekField("Guesses") {
		g, _ := r.field("Guesses")
		guesses = splitList(g)
	}

	var revealed, solution strings.Builder
	target := &revealed
	seenDelim := false
	for ; !r.done(); r.pos++ {
		line := strings.TrimSpace(r.lines[r.pos])
		if line == SolutionDelimiter && !seenDelim {
			target, seenDelim = &solution, true
			continue
		}
		target.WriteString(line + "\n")
	}
	if !seenDelim {
		return fmt.Errorf("%w: missing solution grid", ErrMalformedRecord)
	}
	p, err := puzzle.Restore(words[0], revealed.String(), solution.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	st.Attempts = attempts
	st.Words = words
	st.Guesses = guesses
	st.Puzzle = p
	return nil
}

// splitList splits a comma list, trimming blanks. Older records joined
// words with ", ".
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
