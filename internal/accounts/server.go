// apps/go-server/internal/accounts/server.go
//
// HTTP front end for the account registry.
//
//   POST /accounts/{username}/login      -> {"status": 0|1|2}
//   POST /accounts/{username}/logout     -> {"status": 0|1}
//   POST /accounts/{username}/load       -> {"data": "<record>"}
//   POST /accounts/{username}/save       <- {"data": "<record>"} -> {"status": 0|1}
//   POST /accounts/{username}/heartbeat  -> {"status": 0|1}
//   GET  /health                         -> {"ok": true, "logged_in": N}
//
// Usernames are validated here; the registry trusts its callers.

package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// MaxUsernameLength bounds usernames.
const MaxUsernameLength = 24

// ErrInvalidUsername is returned by ValidateUsername.
var ErrInvalidUsername = errors.New("username must be 1-24 letters, digits or underscores")

type statusRes struct {
	Status int `json:"status"`
}

type dataBody struct {
	Data string `json:"data"`
}

// Server serves the registry over HTTP.
type Server struct {
	r   *chi.Mux
	reg *Registry
}

// NewServer wires routes and middleware.
func NewServer(reg *Registry, timeout time.Duration) *Server {
	s := &Server{r: chi.NewRouter(), reg: reg}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "logged_in": s.reg.LoggedIn()})
	})

	s.r.Route("/accounts/{username}", func(r chi.Router) {
		r.Use(validUsername)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/load", s.handleLoad)
		r.Post("/save", s.handleSave)
		r.Post("/heartbeat", s.handleHeartbeat)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	u := chi.URLParam(r, "username")
	status, err := s.reg.Login(r.Context(), u)
	if err != nil {
		log.Error().Err(err).Str("username", u).Msg("login")
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("username", u).Int("status", status).Msg("login")
	_ = json.NewEncoder(w).Encode(statusRes{Status: status})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	u := chi.URLParam(r, "username")
	status := s.reg.Logout(r.Context(), u)
	log.Info().Str("username", u).Int("status", status).Msg("logout")
	_ = json.NewEncoder(w).Encode(statusRes{Status: status})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	u := chi.URLParam(r, "username")
	data, err := s.reg.Load(r.Context(), u)
	if err != nil {
		log.Error().Err(err).Str("username", u).Msg("load")
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(dataBody{Data: data})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var body dataBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	status := s.reg.Save(r.Context(), chi.URLParam(r, "username"), body.Data)
	_ = json.NewEncoder(w).Encode(statusRes{Status: status})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	status := s.reg.Heartbeat(r.Context(), chi.URLParam(r, "username"))
	_ = json.NewEncoder(w).Encode(statusRes{Status: status})
}

// ValidateUsername checks the username rules shared by server and client.
func ValidateUsername(u string) error {
	if u == "" || len(u) > MaxUsernameLength || strings.TrimSpace(u) != u {
		return ErrInvalidUsername
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ErrInvalidUsername
		}
	}
	return nil
}

func validUsername(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateUsername(chi.URLParam(r, "username")); err != nil {
			http.Error(w, `{"error":"invalid_username"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
