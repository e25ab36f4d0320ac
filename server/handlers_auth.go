package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/vinylogger/auth"
	"github.com/rs/zerolog"
)

// Login page error codes. Only these fixed messages are ever shown.
const (
	errorAuthenticationFailed = "authentication_failed"
	errorInvalidCallback      = "invalid_callback"

	msgAuthenticationFailed = "Authentication failed"
	msgInvalidCallback      = "The login link was invalid or has already been used"
)

var loginErrorMessages = map[string]string{
	errorAuthenticationFailed: msgAuthenticationFailed,
	errorInvalidCallback:      msgInvalidCallback,
}

// loginErrorMessage maps an ?error= code to its message. Unknown codes get the generic failure.
func loginErrorMessage(code string) string {
	if msg, ok := loginErrorMessages[code]; ok {
		return msg
	}
	return msgAuthenticationFailed
}

// LoginHandler starts the Discogs login, or shows the login page when ?error= is present.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if code := r.URL.Query().Get("error"); code != "" {
			s.renderLogin(w, r, http.StatusOK, loginErrorMessage(code))
			return
		}

		redirect, err := s.auth.BeginLogin(r.Context(), r, r.URL.Query().Get("returnTo"))
		if err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("failed to start login")
			redirectWithError(w, r, RouteLogin, errorAuthenticationFailed)
			return
		}
		setCookies(w, redirect.Cookies...)
		redirectSuccess(w, r, redirect.URL)
	}
}

// CallbackHandler completes the login when Discogs sends the browser back.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		result, err := s.auth.CompleteLogin(r.Context(), r)
		if err != nil {
			setCookies(w, s.auth.DiscardPending(r))

			var callbackErr *auth.CallbackValidationError
			if errors.As(err, &callbackErr) {
				logger.Warn().Str("reason", callbackErr.Reason).Str("state", auth.StateAfter(err).String()).Msg("login callback rejected")
				s.renderLogin(w, r, http.StatusBadRequest, msgInvalidCallback)
				return
			}

			logger.Err(err).Str("state", auth.StateAfter(err).String()).Msg("login callback failed")
			redirectWithError(w, r, RouteLogin, errorAuthenticationFailed)
			return
		}

		setCookies(w, result.Cookies...)
		redirectSuccess(w, r, result.RedirectTo)
	}
}

// LogoutHandler drops the session and returns to the landing page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCookies(w, s.auth.Logout(r)...)
		redirectSuccess(w, r, RouteHome)
	}
}
