package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_IdleAccount(t *testing.T) {
	t.Parallel()
	a := NewAccount("dave")
	a.Score = 3
	assert.Equal(t, "Username;dave\nScore;3\nState;Idle\n", Marshal(a))
}

func TestMarshalUnmarshal_PlayRoundTrip(t *testing.T) {
	t.Parallel()
	a := newPlaying(t, "cat", "soccer", "cute")
	a.Score = 2
	_, err := a.Guess("c")
	require.NoError(t, err)
	_, err = a.Guess("zebra")
	require.NoError(t, err)

	data := Marshal(a)
	assert.True(t, strings.HasPrefix(data, "Username;alice\nScore;2\nState;Play\nAttempts;4\nWords;cat,soccer,cute\nGuesses;c,zebra\n"))

	b, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, a.Username, b.Username)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.State.Mode, b.State.Mode)
	assert.Equal(t, a.State.Attempts, b.State.Attempts)
	assert.Equal(t, a.State.Words, b.State.Words)
	assert.Equal(t, a.State.Guesses, b.State.Guesses)
	assert.Equal(t, a.State.Puzzle.Revealed(), b.State.Puzzle.Revealed())
	assert.Equal(t, a.State.Puzzle.Solution(), b.State.Puzzle.Solution())
	assert.Equal(t, data, Marshal(b))
}

func TestMarshalUnmarshal_SuspendedGameSurvives(t *testing.T) {
	t.Parallel()
	a := newPlaying(t, "cat", "cut")
	a.Suspend()

	b, err := Unmarshal(Marshal(a))
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, b.State.Mode)
	require.True(t, b.HasGame())
	assert.NoError(t, b.Resume())
}

func TestMarshalUnmarshal_GuessHistoryRoundTrips(t *testing.T) {
	t.Parallel()
	a := newPlaying(t, "cat", "cut")
	for _, g := range []string{"x,y", "ab\ncd"} {
		_, err := a.Guess(g)
		require.ErrorIs(t, err, ErrInvalidGuess, "guess %q", g)
	}
	for _, g := range []string{"X", " y ", "Über"} {
		_, err := a.Guess(g)
		require.NoError(t, err, "guess %q", g)
	}

	b, err := Unmarshal(Marshal(a))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "über"}, b.State.Guesses)
	assert.Equal(t, a.State.Puzzle.Revealed(), b.State.Puzzle.Revealed())

	// the reloaded history still blocks repeats
	_, err = b.Guess("y")
	assert.ErrorIs(t, err, ErrDuplicateGuess)
}

func TestUnmarshal_LegacyRecord(t *testing.T) {
	t.Parallel()
	// comma-space word list and no guess history
	a, err := Unmarshal("Username;erin\nScore;1\nState;Play\nAttempts;3\nWords;cat, cut\n" +
		"..-...+\n..-...+\n---...+\n$\n..c...+\n..a...+\ncut...+\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "cut"}, a.State.Words)
	assert.Empty(t, a.State.Guesses)
	assert.Equal(t, 3, a.State.Attempts)
	assert.Equal(t, 3, a.State.Puzzle.Rows())
}

func TestUnmarshal_PlayWithoutGameFallsBackToIdle(t *testing.T) {
	t.Parallel()
	a, err := Unmarshal("Username;fay\nScore;0\nState;Play\n")
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, a.State.Mode)
	assert.False(t, a.HasGame())
}

func TestUnmarshal_Malformed(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":          "",
		"bad score":      "Username;x\nScore;abc\nState;Idle\n",
		"negative score": "Username;x\nScore;-1\nState;Idle\n",
		"bad state":      "Username;x\nScore;0\nState;Paused\n",
		"out of order":   "Score;0\nUsername;x\nState;Idle\n",
		"no delimiter":   "Username;x\nScore;0\nState;Play\nAttempts;2\nWords;ab,ba\nGuesses;\n-+\n-+\n",
		"bad grid":       "Username;x\nScore;0\nState;Play\nAttempts;2\nWords;ab,ba\nGuesses;\n-+\n$\na+\nb+\n",
	}
	for name, data := range cases {
		_, err := Unmarshal(data)
		assert.ErrorIs(t, err, ErrMalformedRecord, name)
	}
}
