// apps/go-server/internal/httpserver/server.go
//
// HTTP transport for the game orchestrator.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     bounded worker pool).
//   - Public endpoints: "/", "/health", POST /session.
//   - Session endpoints (require a session token): /session/login, /load,
//     /save, /logout, /command, /guess, /query, /heartbeat.
//
// Notes:
//   - Every mutating session endpoint takes a client sequence number "seq";
//     a retried request with the same seq gets the original reply.
//   - Errors are {"error": <kind>, "message": ...}, plus the state snapshot
//     when the operation produced one.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/crossword/apps/go-server/internal/orchestrator"
)

// Options tunes the transport.
type Options struct {
	Secret         []byte
	TokenTTL       time.Duration
	Workers        int
	Backlog        int
	RequestTimeout time.Duration
	ClientOrigin   string
	SecureCookies  bool // production: Secure + SameSite=None
	Now            func() time.Time
}

// Server bundles the router and the orchestrator it fronts.
type Server struct {
	r    *chi.Mux
	svc  *orchestrator.Service
	opts Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *orchestrator.Service, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Workers <= 0 {
		opts.Workers = 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{r: chi.NewRouter(), svc: svc, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(opts.RequestTimeout))
	s.r.Use(jsonContentType)
	if opts.ClientOrigin != "" {
		s.r.Use(corsFor(opts.ClientOrigin))
	}

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"crossword-orchestrator","endpoints":["/health","POST /session","POST /session/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.svc.Sessions()})
	})

	// Requests beyond the worker pool wait in the backlog until the
	// request timeout, then get 429.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.ThrottleBacklog(opts.Workers, opts.Backlog, opts.RequestTimeout))
		r.Route("/session", func(r chi.Router) {
			r.Post("/", s.handleConnect)
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession())
				r.Post("/login", s.handleLogin)
				r.Post("/load", s.handleLoad)
				r.Post("/save", s.handleSave)
				r.Post("/logout", s.handleLogout)
				r.Post("/command", s.handleCommand)
				r.Post("/guess", s.handleGuess)
				r.Post("/query", s.handleQuery)
				r.Post("/heartbeat", s.handleHeartbeat)
			})
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})
	return s
}

// Handler exposes the router (used by cmd/orchestrator and tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
