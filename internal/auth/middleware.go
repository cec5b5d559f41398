package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/JustinTDCT/CineScope/internal/httputil"
)

type contextKey string

const contextSession contextKey = "session"

type Middleware struct {
	verifier *Verifier
	logger   hclog.Logger
}

func NewMiddleware(v *Verifier, logger hclog.Logger) *Middleware {
	return &Middleware{verifier: v, logger: logger.Named("auth")}
}

// Session attaches the caller's session when a token is presented. Requests
// without a token continue anonymously; a bad token is refused.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		s, err := m.verifier.Verify(token)
		if errors.Is(err, ErrTokenExpired) {
			httputil.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}
		if err != nil {
			m.logger.Debug("rejected token", "error", err)
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			httputil.WriteError(w, http.StatusUnauthorized, "AUTH_REQUIRED", ErrAuthRequired.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextSession, s)
}

// SessionFromContext returns nil for anonymous requests.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextSession).(*Session)
	return s
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}
