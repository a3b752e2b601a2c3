// apps/go-server/internal/generator/generator.go
//
// Puzzle generation against a word source.
// Responsibilities:
//   - Pick a stem long enough to host wordCount-1 leaves.
//   - Pick distinct connecting rows on the stem and fetch one leaf per row.
//   - Hand the word list to the grid engine and retry from scratch when the
//     words cannot be laid out.
//
// Notes:
//   - An attempt is abandoned (and a new stem drawn) when the source has no
//     leaf for a character, when it keeps returning words already in the
//     puzzle, or when the leaves cannot be placed.
//   - Retries are bounded only by ctx. Source errors abort immediately.

package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/puzzle"
)

// MaxLeafRejections is how many unusable leaves one connecting row may
// receive before the attempt is abandoned.
const MaxLeafRejections = 5

// WordSource is the word service as seen by the generator. Both methods
// return "" when no word qualifies.
type WordSource interface {
	// RandomWordMinLength returns a word of at least n characters (and at
	// least 2).
	RandomWordMinLength(ctx context.Context, n int) (string, error)
	// RandomWordContaining returns a word that contains r.
	RandomWordContaining(ctx context.Context, r rune) (string, error)
}

// Result is a generated puzzle and the words it was built from.
type Result struct {
	Words    []string // stem first
	Puzzle   *puzzle.Puzzle
	Attempts int
}

// Generator builds puzzles. It is safe for concurrent use when its WordSource is.
type Generator struct {
	src WordSource
	rng puzzle.Rand
}

// New returns a Generator using the package-level random source.
func New(src WordSource) *Generator {
	return &Generator{src: src, rng: globalRand{}}
}

// NewWithRand is New with an explicit random source, for deterministic tests.
func NewWithRand(src WordSource, rng puzzle.Rand) *Generator {
	return &Generator{src: src, rng: rng}
}

// errRetry marks an attempt that should be started over with a new stem.
var errRetry = errors.New("generator: retry")

// Generate returns a puzzle of wordCount words (stem included).
func (g *Generator) Generate(ctx context.Context, wordCount int) (Result, error) {
	if wordCount < game.MinWordCount || wordCount > game.MaxWordCount {
		return Result{}, fmt.Errorf("%w: %d", game.ErrWordCountOutOfRange, wordCount)
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%w: generation cancelled after %d attempts: %v",
				game.ErrWordServiceUnavailable, attempt-1, err)
		}
		words, p, err := g.attempt(ctx, wordCount)
		if errors.Is(err, errRetry) {
			log.Debug().Int("attempt", attempt).Int("word_count", wordCount).Err(err).Msg("puzzle attempt abandoned")
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return Result{Words: words, Puzzle: p, Attempts: attempt}, nil
	}
}

func (g *Generator) attempt(ctx context.Context, wordCount int) ([]string, *puzzle.Puzzle, error) {
	stem, err := g.src.RandomWordMinLength(ctx, wordCount-1)
	if err != nil {
		return nil, nil, err
	}
	stem = strings.ToLower(strings.TrimSpace(stem))
	if stem == "" {
		// Nothing will ever qualify; retrying cannot help.
		return nil, nil, fmt.Errorf("%w: no stem of length %d", game.ErrWordServiceUnavailable, wordCount-1)
	}
	runes := []rune(stem)
	if len(runes) < wordCount-1 {
		return nil, nil, fmt.Errorf("%w: stem %q too short", errRetry, stem)
	}

	words := []string{stem}
	for _, idx := range g.pickRows(len(runes), wordCount-1) {
		leaf, err := g.fetchLeaf(ctx, runes[idx], words)
		if err != nil {
			return nil, nil, err
		}
		words = append(words, leaf)
	}

	// Layout failures (ErrNoPlacement, or a word the grid cannot hold) are
	// attempt-local.
	p, err := puzzle.New(words, g.rng)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errRetry, err)
	}
	// A single-letter leaf is indistinguishable from the bare stem cell.
	if laid := p.Words(); len(laid) != wordCount {
		return nil, nil, fmt.Errorf("%w: laid out %d of %d words", errRetry, len(laid), wordCount)
	}
	return words, p, nil
}

// fetchLeaf asks the source for a leaf crossing r that is not already used.
func (g *Generator) fetchLeaf(ctx context.Context, r rune, used []string) (string, error) {
	for rejected := 0; rejected < MaxLeafRejections; rejected++ {
		leaf, err := g.src.RandomWordContaining(ctx, r)
		if err != nil {
			return "", err
		}
		leaf = strings.ToLower(strings.TrimSpace(leaf))
		if leaf == "" {
			return "", fmt.Errorf("%w: no leaf containing %q", errRetry, r)
		}
		if !strings.ContainsRune(leaf, r) || slices.Contains(used, leaf) {
			continue
		}
		return leaf, nil
	}
	return "", fmt.Errorf("%w: %d unusable leaves for %q", errRetry, MaxLeafRejections, r)
}

// pickRows returns k distinct random indices in [0, n), in the order drawn.
func (g *Generator) pickRows(n, k int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + g.rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }
