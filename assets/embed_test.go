package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWords(t *testing.T) {
	t.Parallel()
	words, err := DefaultWords()
	require.NoError(t, err)
	assert.Greater(t, len(words), 500)

	longest := 0
	for _, w := range words {
		assert.NotContains(t, w, "#")
		longest = max(longest, len(w))
	}
	// New Game;15 needs a stem of at least 14 letters.
	assert.GreaterOrEqual(t, longest, 14)
}
