package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGameInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want Input
	}{
		{"*Save*", Input{Kind: InputSave}},
		{"  *Save* ", Input{Kind: InputSave}},
		{"?Soccer", Input{Kind: InputQuery, Text: "soccer"}},
		{"? cat", Input{Kind: InputQuery, Text: "cat"}},
		{"A", Input{Kind: InputGuess, Text: "a"}},
		{"Cute", Input{Kind: InputGuess, Text: "cute"}},
	}
	for _, tt := range tests {
		got, err := ParseGameInput(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseGameInput_Rejects(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "?", "?a-b", "c+t", "...", "x,y", "?a,b", "??cat", "ab\ncd"} {
		_, err := ParseGameInput(raw)
		assert.ErrorIs(t, err, ErrInvalidGuess, raw)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindNoExistingGame, KindOf(ErrNoExistingGame))
	assert.Equal(t, KindDuplicateGuess, KindOf(fmt.Errorf("guess: %w", ErrDuplicateGuess)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestRecoverable(t *testing.T) {
	t.Parallel()
	assert.True(t, Recoverable(fmt.Errorf("stem: %w", ErrWordServiceUnavailable)))
	assert.True(t, Recoverable(ErrAccountServiceUnavailable))
	assert.False(t, Recoverable(ErrInvalidGuess))
}
