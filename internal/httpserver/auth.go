// apps/go-server/internal/httpserver/auth.go
//
// Session tokens.
// POST /session opens an orchestrator session and hands the client an HS256
// JWT carrying the session ID; every other session endpoint requires it,
// either as "Authorization: Bearer <token>" or in the session cookie.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const cookieName = "crossword_session"

// ctxSessionKey is the context key type for the session ID.
type ctxSessionKey struct{}

// sessionID returns the session ID placed in the context by requireSession.
func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(ctxSessionKey{}).(string)
	return sid
}

// signToken creates an HS256 JWT naming sid.
func (s *Server) signToken(sid string) (string, time.Time, error) {
	now := s.opts.Now()
	exp := now.Add(s.opts.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString(s.opts.Secret)
	return ss, exp, err
}

// parseToken validates a token and returns its session ID.
func (s *Server) parseToken(tokenStr string) (string, bool) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now))
	if err != nil || !token.Valid {
		return "", false
	}
	sid, _ := claims["sid"].(string)
	return sid, sid != ""
}

// requireSession enforces a valid session token and injects the session ID
// into the request context. Whether the session still exists is up to the
// orchestrator.
func (s *Server) requireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			sid, ok := s.parseToken(tokenStr)
			if !ok {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setSessionCookie writes the token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	s.writeCookie(w, &http.Cookie{Name: cookieName, Value: token, Expires: exp})
}

// clearSessionCookie deletes the token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	s.writeCookie(w, &http.Cookie{Name: cookieName, MaxAge: -1})
}

func (s *Server) writeCookie(w http.ResponseWriter, c *http.Cookie) {
	c.Path = "/"
	c.HttpOnly = true
	c.Secure = s.opts.SecureCookies
	c.SameSite = http.SameSiteLaxMode
	if c.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}

// bearerOrCookie extracts a bearer token from the Authorization header or
// the session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
