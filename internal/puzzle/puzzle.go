// apps/go-server/internal/puzzle/puzzle.go
//
// Crossword grid engine.
// Responsibilities:
//   - Build a puzzle from a word list: the stem runs down the centre column,
//     every leaf fills one row and crosses the stem at a shared character.
//   - Restore a puzzle from its serialized grid bodies (save/load).
//   - Apply letter, stem and leaf guesses to the revealed grid.
//   - Report the solved state.
//
// Grid alphabet:
//   '.' fill    : unused cell, shown in both grids
//   '+' end     : terminator, always the last column of every row
//   '-' mask    : hidden word character in the revealed grid
//
// The solution grid never changes after construction. The revealed grid only
// gains characters until Reset is called.

package puzzle

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Fill       = '.'
	Terminator = '+'
	Mask       = '-'
)

// Puzzle is a single crossword: one vertical stem and a set of horizontal leaves.
type Puzzle struct {
	stem     string
	rows     int
	columns  int
	solution [][]rune
	revealed [][]rune
}

// New lays out words ([stem, leaf1, leaf2, ...]) into a fresh puzzle.
// Every leaf must contain at least one stem character on a row that no other
// leaf uses; see layout.go. rng may be nil, in which case the package-level
// source is used.
func New(words []string, rng Rand) (*Puzzle, error) {
	if len(words) == 0 || words[0] == "" {
		return nil, errors.New("puzzle: empty stem")
	}
	if rng == nil {
		rng = defaultRand{}
	}
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(strings.TrimSpace(w))
		if lower[i] == "" || strings.IndexFunc(lower[i], IsStructural) >= 0 {
			return nil, fmt.Errorf("puzzle: invalid word %q", words[i])
		}
	}

	stem := []rune(lower[0])
	p := &Puzzle{
		stem:    lower[0],
		rows:    len(stem),
		columns: columnsFor(lower[1:]),
	}
	p.solution = blankGrid(p.rows, p.columns)

	col := p.stemColumn()
	for i, r := range stem {
		p.solution[i][col] = r
	}
	if err := p.placeLeaves(stem, lower[1:], rng); err != nil {
		return nil, err
	}
	p.revealed = p.maskedCopy()
	return p, nil
}

// Restore rebuilds a puzzle from its stem and serialized grid bodies as
// produced by Revealed and Solution.
func Restore(stem, revealed, solution string) (*Puzzle, error) {
	rev := parseGrid(revealed)
	sol := parseGrid(solution)
	if len(sol) == 0 {
		return nil, errors.New("puzzle: empty solution grid")
	}
	if len(rev) != len(sol) {
		return nil, fmt.Errorf("puzzle: grid row mismatch (%d revealed, %d solution)", len(rev), len(sol))
	}
	columns := len(sol[0])
	for i := range sol {
		if len(sol[i]) != columns || len(rev[i]) != columns {
			return nil, fmt.Errorf("puzzle: row %d has inconsistent width", i)
		}
		if sol[i][columns-1] != Terminator || rev[i][columns-1] != Terminator {
			return nil, fmt.Errorf("puzzle: row %d missing terminator", i)
		}
	}
	stem = strings.ToLower(strings.TrimSpace(stem))
	if utf8.RuneCountInString(stem) != len(sol) {
		return nil, fmt.Errorf("puzzle: stem %q does not span %d rows", stem, len(sol))
	}
	return &Puzzle{
		stem:     stem,
		rows:     len(sol),
		columns:  columns,
		solution: sol,
		revealed: rev,
	}, nil
}

// ApplyGuess updates the revealed grid for a guess and reports whether
// anything was revealed.
//
//   - One character: every matching cell is revealed; true iff at least one
//     cell was newly revealed.
//   - The stem: the whole stem column is revealed; always true.
//   - A leaf: the row whose word equals the guess is revealed; true.
//   - Anything else: false, grid untouched.
func (p *Puzzle) ApplyGuess(input string) bool {
	guess := []rune(strings.ToLower(strings.TrimSpace(input)))
	switch {
	case len(guess) == 0:
		return false
	case len(guess) == 1:
		return p.revealLetter(guess[0])
	case string(guess) == p.stem:
		col := p.stemColumn()
		for i := 0; i < p.rows; i++ {
			p.revealed[i][col] = p.solution[i][col]
		}
		return true
	}
	for i := 0; i < p.rows; i++ {
		if rowWord(p.solution[i]) == string(guess) {
			copy(p.revealed[i], p.solution[i])
			return true
		}
	}
	return false
}

func (p *Puzzle) revealLetter(r rune) bool {
	if IsStructural(r) {
		return false
	}
	updated := false
	for i := 0; i < p.rows; i++ {
		for j := 0; j < p.columns; j++ {
			if p.solution[i][j] == r && p.revealed[i][j] != r {
				p.revealed[i][j] = r
				updated = true
			}
		}
	}
	return updated
}

// Solved reports whether the revealed grid equals the solution grid.
func (p *Puzzle) Solved() bool {
	for i := range p.solution {
		if string(p.revealed[i]) != string(p.solution[i]) {
			return false
		}
	}
	return true
}

// Reset masks every word cell again.
func (p *Puzzle) Reset() { p.revealed = p.maskedCopy() }

// Revealed returns the caller-visible grid, one row per line.
func (p *Puzzle) Revealed() string { return gridString(p.revealed) }

// Solution returns the answer grid, one row per line.
func (p *Puzzle) Solution() string { return gridString(p.solution) }

func (p *Puzzle) Stem() string { return p.stem }
func (p *Puzzle) Rows() int { return p.rows }

// Words returns the stem followed by every leaf, in row order.
func (p *Puzzle) Words() []string {
	out := []string{p.stem}
	for i := 0; i < p.rows; i++ {
		if w := rowWord(p.solution[i]); utf8.RuneCountInString(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// IsStructural reports whether r is one of the grid's layout characters.
// Such characters are never valid guesses.
func IsStructural(r rune) bool {
	return r == Fill || r == Terminator || r == Mask
}

func (p *Puzzle) stemColumn() int { return (p.columns - 2) / 2 }

// columnsFor returns 2L+1 for the longest leaf length L, plus one when L is
// even so the stem column stays centred.
func columnsFor(leaves []string) int {
	longest := 0
	for _, l := range leaves {
		if n := utf8.RuneCountInString(l); n > longest {
			longest = n
		}
	}
	cols := longest*2 + 1
	if longest%2 == 0 {
		cols++
	}
	return cols
}

func blankGrid(rows, columns int) [][]rune {
	g := make([][]rune, rows)
	for i := range g {
		g[i] = make([]rune, columns)
		for j := range g[i] {
			g[i][j] = Fill
		}
		g[i][columns-1] = Terminator
	}
	return g
}

func (p *Puzzle) maskedCopy() [][]rune {
	g := make([][]rune, p.rows)
	for i, row := range p.solution {
		g[i] = make([]rune, len(row))
		for j, r := range row {
			if r == Fill || r == Terminator {
				g[i][j] = r
			} else {
				g[i][j] = Mask
			}
		}
	}
	return g
}

// rowWord strips fill and terminator characters from a solution row.
func rowWord(row []rune) string {
	var b strings.Builder
	for _, r := range row {
		if r != Fill && r != Terminator {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func gridString(g [][]rune) string {
	var b strings.Builder
	for _, row := range g {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func parseGrid(s string) [][]rune {
	var g [][]rune
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		g = append(g, []rune(line))
	}
	return g
}
