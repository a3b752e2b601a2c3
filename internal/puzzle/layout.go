// apps/go-server/internal/puzzle/layout.go
//
// Leaf placement.
//
// Every leaf can attach to any stem row whose character it contains. Leaves
// are placed one at a time, always taking the leaf with the fewest stem rows
// still open. After a placement the chosen row is closed for every remaining
// leaf and the queue is re-ordered. This is a greedy heuristic, not a full
// solver: when a leaf runs out of rows, New returns ErrNoPlacement and the
// caller is expected to start over with different words.

package puzzle

import (
	"container/heap"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// ErrNoPlacement is returned when a leaf has no free stem row left.
var ErrNoPlacement = errors.New("puzzle: no free stem row for leaf")

// Rand is the randomness the layout needs. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

// candidate is a leaf waiting to be placed together with the stem rows it
// could still attach to.
type candidate struct {
	word []rune
	rows []int
	seq  int // insertion order, keeps ties stable
}

// candidateQueue is a min-heap ordered by number of open rows.
type candidateQueue []*candidate

func (q candidateQueue) Len() int { return len(q) }
func (q candidateQueue) Less(i, j int) bool {
	if len(q[i].rows) != len(q[j].rows) {
		return len(q[i].rows) < len(q[j].rows)
	}
	return q[i].seq < q[j].seq
}
func (q candidateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x any) { *q = append(*q, x.(*candidate)) }
func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// matchingRows lists every stem row whose character appears in leaf.
func matchingRows(stem, leaf []rune) []int {
	var rows []int
	for i, r := range stem {
		if slices.Contains(leaf, r) {
			rows = append(rows, i)
		}
	}
	return rows
}

func (p *Puzzle) placeLeaves(stem []rune, leaves []string, rng Rand) error {
	q := make(candidateQueue, 0, len(leaves))
	for i, l := range leaves {
		w := []rune(l)
		q = append(q, &candidate{word: w, rows: matchingRows(stem, w), seq: i})
	}
	heap.Init(&q)

	col := p.stemColumn()
	for q.Len() > 0 {
		c := heap.Pop(&q).(*candidate)
		if len(c.rows) == 0 {
			return fmt.Errorf("%w: %q", ErrNoPlacement, string(c.word))
		}
		row := c.rows[rng.IntN(len(c.rows))]
		p.insertLeaf(c.word, stem[row], row, col, rng)

		for _, other := range q {
			other.rows = slices.DeleteFunc(other.rows, func(r int) bool { return r == row })
		}
		heap.Init(&q)
	}
	return nil
}

// insertLeaf writes leaf into row so that one of its occurrences of match,
// chosen at random, sits on the stem column.
func (p *Puzzle) insertLeaf(leaf []rune, match rune, row, stemCol int, rng Rand) {
	var at []int
	for i, r := range leaf {
		if r == match {
			at = append(at, i)
		}
	}
	offset := stemCol - at[rng.IntN(len(at))]
	for i, r := range leaf {
		p.solution[row][offset+i] = r
	}
}
