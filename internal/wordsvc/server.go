// apps/go-server/internal/wordsvc/server.go
//
// UDP front end for the word list.
// Requests are served one at a time in arrival order; the word store has a
// single lock anyway, and replies are tiny.

package wordsvc

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/words"
)

// WordStore is the subset of *words.Store the server needs.
type WordStore interface {
	Add(ctx context.Context, w string) (bool, error)
	Remove(ctx context.Context, w string) (bool, error)
	Contains(w string) bool
	RandomContaining(r rune) string
	RandomMinLength(n int) string
}

// Server answers word service datagrams.
type Server struct {
	store WordStore
}

// NewServer returns a server over store.
func NewServer(store WordStore) *Server {
	return &Server{store: store}
}

// Serve reads requests from conn until ctx is cancelled or conn fails.
// conn is closed on return.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	buf := make([]byte, MaxDatagram)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		req := string(buf[:n])
		reply := s.Handle(ctx, req)
		log.Debug().Str("from", addr.String()).Str("request", req).Str("reply", reply).Msg("word request")
		if _, err := conn.WriteTo([]byte(reply), addr); err != nil {
			log.Warn().Err(err).Str("to", addr.String()).Msg("word reply failed")
		}
	}
}

// Handle executes one request and returns the reply.
func (s *Server) Handle(ctx context.Context, req string) string {
	opStr, payload, ok := strings.Cut(req, ";")
	if !ok || len(opStr) != 1 {
		return ErrorReply
	}
	switch opStr[0] {
	case OpAdd:
		added, err := s.store.Add(ctx, payload)
		switch {
		case errors.Is(err, words.ErrInvalidWord):
			return invalidWordReply(payload)
		case err != nil:
			log.Error().Err(err).Str("word", payload).Msg("add word")
			return ErrorReply
		case !added:
			return addExistsReply(payload)
		}
		return addedReply(payload)
	case OpRemove:
		removed, err := s.store.Remove(ctx, payload)
		switch {
		case errors.Is(err, words.ErrInvalidWord):
			return invalidWordReply(payload)
		case err != nil:
			log.Error().Err(err).Str("word", payload).Msg("remove word")
			return ErrorReply
		case !removed:
			return removeMissingReply(payload)
		}
		return removedReply(payload)
	case OpContains:
		if s.store.Contains(payload) {
			return "1"
		}
		return "0"
	case OpContaining:
		r, size := utf8.DecodeRuneInString(payload)
		if size == 0 || size != len(payload) {
			return ErrorReply
		}
		return s.store.RandomContaining(r)
	case OpMinLength:
		n, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil {
			return ErrorReply
		}
		return s.store.RandomMinLength(n)
	}
	return ErrorReply
}
