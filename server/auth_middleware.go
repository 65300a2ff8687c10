package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySubject stores the authenticated caller's username
	ContextKeySubject ContextKey = "subject"
	// ContextKeyScope stores the scope granted to the caller
	ContextKeyScope ContextKey = "scope"
)

// RequireAuth is middleware that validates a Bearer access token
// and exposes the caller's subject and scope on the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, err := s.auth.Validate(r.Header.Get("Authorization"))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				writeInvalidToken(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, identity.Subject)
			ctx = context.WithValue(ctx, ContextKeyScope, identity.Scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// SubjectFromContext returns the subject set by RequireAuth.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(ContextKeySubject).(string)
	return subject, ok && subject != ""
}

// ScopeFromContext returns the scope set by RequireAuth.
func ScopeFromContext(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(ContextKeyScope).(string)
	return scope, ok && scope != ""
}

func writeInvalidToken(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeJSONError(w, oauth2.ErrorInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}
