package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/vinylogger/auth"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated user
const ContextKeyUser ContextKey = "user"

// UserFromContext returns the user put there by RequireUser or RequireUserAPI.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok && user != nil
}

// RequireUser is middleware for HTML routes. Anonymous browsers are sent to the login page,
// which returns them here afterwards.
func (s *Server) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.auth.CurrentUser(r)
		if !ok {
			redirectSuccess(w, r, RouteLogin+"?returnTo="+url.QueryEscape(auth.SafeReturnTo(r.URL.RequestURI())))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user)))
	}
}

// RequireUserAPI is RequireUser for JSON routes: anonymous callers get a 401.
func (s *Server) RequireUserAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.User(r)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("api request without session")
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Login required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user)))
	}
}
