package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/game"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/orchestrator"
)

// rpcReq is the body of every session endpoint. Seq is required on all but
// /session/heartbeat.
type rpcReq struct {
	Seq      *uint64 `json:"seq"`
	Username string  `json:"username,omitempty"`
	Input    string  `json:"input,omitempty"`
	Word     string  `json:"word,omitempty"`
}

type connectRes struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}

type errorRes struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Reply   *orchestrator.Reply `json:"reply,omitempty"`
}

// KindKeyReused is the error kind for a seq reused with a different body.
const KindKeyReused = "IdempotencyKeyReused"

// handleConnect opens a session and returns its token.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sid, err := s.svc.Connect(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("open session")
		writeError(w, err, nil)
		return
	}
	tok, exp, err := s.signToken(sid)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(connectRes{Token: tok, SessionID: sid, ExpiresAt: exp.Unix()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		return s.svc.CheckUser(r.Context(), sessionID(r.Context()), *req.Seq, req.Username)
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		return s.svc.Load(r.Context(), sessionID(r.Context()), *req.Seq)
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		return s.svc.Save(r.Context(), sessionID(r.Context()), *req.Seq)
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		reply, err := s.svc.Logout(r.Context(), sessionID(r.Context()), *req.Seq)
		if err == nil {
			s.clearSessionCookie(w)
		}
		return reply, err
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		return s.svc.ProcessCommand(r.Context(), sessionID(r.Context()), *req.Seq, req.Input)
	})
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		return s.svc.ProcessGuess(r.Context(), sessionID(r.Context()), *req.Seq, req.Input)
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	s.rpc(w, r, func(req rpcReq) (orchestrator.Reply, error) {
		word := req.Word
		if word == "" {
			word = req.Input
		}
		return s.svc.ProcessQuery(r.Context(), sessionID(r.Context()), *req.Seq, word)
	})
}

// handleHeartbeat acknowledges client liveness; it carries no seq.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Heartbeat(r.Context(), sessionID(r.Context())); err != nil {
		writeError(w, err, nil)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// rpc decodes the body, checks seq and writes the reply or the error.
func (s *Server) rpc(w http.ResponseWriter, r *http.Request, call func(rpcReq) (orchestrator.Reply, error)) {
	var req rpcReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Seq == nil {
		http.Error(w, `{"error":"missing_seq"}`, http.StatusBadRequest)
		return
	}
	reply, err := call(req)
	if err != nil {
		writeError(w, err, &reply)
		return
	}
	_ = json.NewEncoder(w).Encode(reply)
}

// writeError maps err onto a status code and the JSON error body. reply is
// included when it carries state.
func writeError(w http.ResponseWriter, err error, reply *orchestrator.Reply) {
	kind := string(game.KindOf(err))
	status := statusFor(game.KindOf(err))
	if errors.Is(err, idempotency.ErrKeyReused) {
		kind, status = KindKeyReused, http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Str("kind", kind).Msg("request failed")
	}
	res := errorRes{Error: kind, Message: err.Error()}
	if reply != nil && reply.Username != "" {
		res.Reply = reply
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func statusFor(k game.Kind) int {
	switch k {
	case game.KindInvalidSyntax, game.KindInvalidWordCount, game.KindWordCountOutOfRange, game.KindInvalidGuess:
		return http.StatusBadRequest
	case game.KindNotLoggedIn:
		return http.StatusUnauthorized
	case game.KindDuplicateLogin, game.KindNoExistingGame, game.KindNotPlaying, game.KindDuplicateGuess:
		return http.StatusConflict
	case game.KindWordServiceUnavailable, game.KindAccountServiceUnavailable:
		return http.StatusServiceUnavailable
	case game.KindPersistenceFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
