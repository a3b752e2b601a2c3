// apps/go-server/internal/game/errors.go
//
// Error taxonomy surfaced to clients. Each kind has a sentinel error; callers
// wrap them with fmt.Errorf("...: %w", err) and KindOf recovers the kind for
// the wire.

package game

import "errors"

// Kind is the wire name of an error.
type Kind string

const (
	KindInvalidSyntax             Kind = "InvalidSyntax"
	KindInvalidWordCount          Kind = "InvalidWordCount"
	KindWordCountOutOfRange       Kind = "WordCountOutOfRange"
	KindNoExistingGame            Kind = "NoExistingGame"
	KindDuplicateLogin            Kind = "DuplicateLogin"
	KindWordServiceUnavailable    Kind = "WordServiceUnavailable"
	KindAccountServiceUnavailable Kind = "AccountServiceUnavailable"
	KindPersistenceFailed         Kind = "PersistenceFailed"
	KindInvalidGuess              Kind = "InvalidGuess"
	KindDuplicateGuess            Kind = "DuplicateGuess"
	KindNotPlaying                Kind = "NotPlaying"
	KindNotLoggedIn               Kind = "NotLoggedIn"
	KindInternal                  Kind = "Internal"
)

var (
	ErrInvalidSyntax             = errors.New("invalid command syntax")
	ErrInvalidWordCount          = errors.New("word count argument is not a number")
	ErrWordCountOutOfRange       = errors.New("word count argument exceeds allowed range")
	ErrNoExistingGame            = errors.New("no existing game found")
	ErrDuplicateLogin            = errors.New("user already logged in")
	ErrWordServiceUnavailable    = errors.New("could not contact word service")
	ErrAccountServiceUnavailable = errors.New("could not contact user account service")
	ErrPersistenceFailed         = errors.New("could not save game")
	ErrInvalidGuess              = errors.New("invalid guess")
	ErrDuplicateGuess            = errors.New("already guessed")
	ErrNotPlaying                = errors.New("no game in progress")
	ErrNotLoggedIn               = errors.New("not logged in")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidSyntax, KindInvalidSyntax},
	{ErrInvalidWordCount, KindInvalidWordCount},
	{ErrWordCountOutOfRange, KindWordCountOutOfRange},
	{ErrNoExistingGame, KindNoExistingGame},
	{ErrDuplicateLogin, KindDuplicateLogin},
	{ErrWordServiceUnavailable, KindWordServiceUnavailable},
	{ErrAccountServiceUnavailable, KindAccountServiceUnavailable},
	{ErrPersistenceFailed, KindPersistenceFailed},
	{ErrInvalidGuess, KindInvalidGuess},
	{ErrDuplicateGuess, KindDuplicateGuess},
	{ErrNotPlaying, KindNotPlaying},
	{ErrNotLoggedIn, KindNotLoggedIn},
}

// KindOf maps err to its wire kind. Unknown errors are KindInternal; nil
// maps to the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Recoverable reports whether err comes from a collaborator outage. Those
// errors force the session back to Idle.
func Recoverable(err error) bool {
	return errors.Is(err, ErrWordServiceUnavailable) || errors.Is(err, ErrAccountServiceUnavailable)
}
