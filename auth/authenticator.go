package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/rs/zerolog"
)

// Config is what the Authenticator needs from the application configuration.
type Config struct {
	Consumer oauth1.ConsumerCredential
	// CallbackURL is an absolute URL, a path ("/login/callback") resolved against the request
	// origin, or a host and path ("example.com/login/callback") given the request scheme.
	CallbackURL string
}

// Redirect is the outcome of BeginLogin: where to send the browser and the cookies to set first.
type Redirect struct {
	URL     string
	Cookies []*http.Cookie
	// User is set when the browser was already authenticated and no login was started.
	User *users.User
}

// Result is the outcome of a successful CompleteLogin. Cookies holds the session cookie and the
// flash-clearing cookie; both must be set together.
type Result struct {
	User       *users.User
	RedirectTo string
	Cookies    []*http.Cookie
}

// Authenticator drives the three-legged login: redirect out, callback, logout.
type Authenticator struct {
	config  Config
	repos   Repos
	metrics *Metrics
}

// AuthenticatorOption modifies an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithMetrics records login outcomes.
func WithMetrics(metrics *Metrics) AuthenticatorOption {
	return func(a *Authenticator) {
		a.metrics = metrics
	}
}

// NewAuthenticator validates the configuration and dependencies.
func NewAuthenticator(config Config, repos Repos, options ...AuthenticatorOption) (*Authenticator, error) {
	if err := config.Consumer.Validate(); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "[NewAuthenticator] %v", err)
	}
	if config.CallbackURL == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "[NewAuthenticator] callback URL is required")
	}
	if repos.Exchanger == nil {
		return nil, errors.New("[NewAuthenticator] token exchanger is required")
	}
	if repos.Identities == nil {
		return nil, errors.New("[NewAuthenticator] identity fetcher is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthenticator] session store is required")
	}
	if repos.Flashes == nil {
		return nil, errors.New("[NewAuthenticator] flash store is required")
	}

	a := &Authenticator{config: config, repos: repos}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

// CurrentUser returns the authenticated user from the session cookie. No network call is made.
func (a *Authenticator) CurrentUser(r *http.Request) (*users.User, bool) {
	user, err := a.User(r)
	return user, err == nil
}

// User is CurrentUser with the reason: any failure wraps ErrNotAuthenticated.
func (a *Authenticator) User(r *http.Request) (*users.User, error) {
	user, err := a.repos.Sessions.Get(r)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotAuthenticated, "[Authenticator User] %v", err)
	}
	return user, nil
}

// StateOf reports where the request's browser is in the login flow. A flash that was already
// consumed does not count as a pending login.
func (a *Authenticator) StateOf(r *http.Request) State {
	if _, ok := a.CurrentUser(r); ok {
		return Authenticated
	}
	if _, err := a.repos.Flashes.Peek(r); err == nil {
		return RequestTokenIssued
	}
	return Anonymous
}

// BeginLogin starts a login: it obtains a request token, stores its secret in the flash cookie and
// returns the provider's authorize URL. A browser that is already authenticated is sent straight
// to returnTo without contacting the provider. Every call issues a new request token and replaces
// any pending one.
func (a *Authenticator) BeginLogin(ctx context.Context, r *http.Request, returnTo string) (*Redirect, error) {
	returnTo = SafeReturnTo(returnTo)
	if user, ok := a.CurrentUser(r); ok {
		return &Redirect{URL: returnTo, User: user}, nil
	}

	logger := zerolog.Ctx(ctx)
	callbackURL := a.CallbackURL(r)
	requestToken, err := a.repos.Exchanger.GetRequestToken(ctx, callbackURL)
	if err != nil {
		a.metrics.observe(stageRequestToken, err)
		return nil, fmt.Errorf("[Authenticator BeginLogin] %w", err)
	}
	if !requestToken.CallbackConfirmed {
		a.metrics.observe(stageRequestToken, apperrors.ErrCallbackNotConfirmed)
		return nil, apperrors.Wrapf(apperrors.ErrCallbackNotConfirmed, "[Authenticator BeginLogin] callback %s", callbackURL)
	}

	cookie, err := a.repos.Flashes.Flash(r, sessions.FlashEntry{
		RequestToken:       requestToken.Token,
		RequestTokenSecret: requestToken.TokenSecret,
		ReturnTo:           returnTo,
	})
	if err != nil {
		a.metrics.observe(stageRequestToken, err)
		return nil, fmt.Errorf("[Authenticator BeginLogin] %w", err)
	}

	a.metrics.observe(stageRequestToken, nil)
	logger.Debug().Str("callback", callbackURL).Msg("request token issued")
	return &Redirect{
		URL:     a.repos.Exchanger.AuthorizationURL(requestToken.Token),
		Cookies: []*http.Cookie{cookie},
	}, nil
}

// CompleteLogin handles the provider's callback. The query must carry oauth_token and
// oauth_verifier, and a pending login for that token must exist; otherwise a
// *CallbackValidationError is returned before any provider call. The access-token exchange,
// identity and profile calls then run in order. No session cookie is produced on any failure.
func (a *Authenticator) CompleteLogin(ctx context.Context, r *http.Request) (*Result, error) {
	query := r.URL.Query()
	token := query.Get(oauth1.ParamToken)
	verifier := query.Get(oauth1.ParamVerifier)
	if token == "" {
		return nil, a.rejectCallback(&CallbackValidationError{Reason: ReasonMissingToken})
	}
	if verifier == "" {
		return nil, a.rejectCallback(&CallbackValidationError{Reason: ReasonMissingVerifier})
	}

	pending, err := a.repos.Flashes.Consume(ctx, r)
	switch {
	case errors.Is(err, apperrors.ErrFlashNotFound), errors.Is(err, apperrors.ErrFlashConsumed):
		return nil, a.rejectCallback(&CallbackValidationError{Reason: ReasonMissingRequestSecret, Err: err})
	case err != nil:
		a.metrics.observe(stageCallback, err)
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}
	if pending.RequestToken != token {
		return nil, a.rejectCallback(&CallbackValidationError{Reason: ReasonTokenMismatch})
	}

	accessToken, err := a.repos.Exchanger.GetAccessToken(ctx, token, pending.RequestTokenSecret, verifier)
	if err != nil {
		a.metrics.observe(stageAccessToken, err)
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}

	identity, err := a.repos.Identities.FetchIdentity(ctx, accessToken)
	if err != nil {
		a.metrics.observe(stageIdentity, err)
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}

	user := users.New(a.config.Consumer, accessToken, identity)
	sessionCookie, err := a.repos.Sessions.Set(r, user)
	if err != nil {
		a.metrics.observe(stageCallback, err)
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}

	a.metrics.observe(stageCallback, nil)
	zerolog.Ctx(ctx).Info().Str("username", user.Username).Int("userID", user.ID).Msg("login completed")
	return &Result{
		User:       user,
		RedirectTo: SafeReturnTo(pending.ReturnTo),
		Cookies:    []*http.Cookie{sessionCookie, a.repos.Flashes.Clear(r)},
	}, nil
}

// DiscardPending returns the cookie that clears a pending login, for use after a failed callback.
func (a *Authenticator) DiscardPending(r *http.Request) *http.Cookie {
	return a.repos.Flashes.Clear(r)
}

// Logout destroys the session and any pending login. It succeeds whether or not a session exists.
func (a *Authenticator) Logout(r *http.Request) []*http.Cookie {
	return []*http.Cookie{a.repos.Sessions.Destroy(r), a.repos.Flashes.Clear(r)}
}

func (a *Authenticator) rejectCallback(err *CallbackValidationError) error {
	a.metrics.observe(stageCallback, err)
	return err
}
