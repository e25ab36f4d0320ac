package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/vinylogger/auth"
	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/discogs/discogsfake"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testCallbackPath   = "/login/callback"
	testRequestToken   = "tok123"
	testRequestSecret  = "request-secret-xyz"
	testVerifier       = "verify456"
	testAccessToken    = "access789"
	testAccessSecret   = "secretABC"
	testSessionSecret  = "0123456789abcdef0123456789abcdef"
	testConsumerKey    = "consumer-key"
	testConsumerSecret = "consumer-secret"
)

var testConsumer = oauth1.ConsumerCredential{Key: testConsumerKey, Secret: testConsumerSecret}

// testFixture holds all test dependencies
type testFixture struct {
	provider *discogsfake.Provider
	sessions *sessions.CookieStore
	flashes  *sessions.FlashStore
	auth     *auth.Authenticator
	registry *prometheus.Registry
}

// setupTestFixture wires an Authenticator to a fake provider and real cookie stores
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	provider := discogsfake.New(testConsumer)
	t.Cleanup(provider.Close)
	provider.RequestToken = oauth1.RequestToken{Token: testRequestToken, TokenSecret: testRequestSecret, CallbackConfirmed: true}
	provider.AccessToken = oauth1.AccessToken{Token: testAccessToken, TokenSecret: testAccessSecret}
	provider.Verifier = testVerifier

	client, err := discogs.NewClient(testConsumer, discogs.WithEndpoints(provider.Endpoints()))
	require.NoError(t, err)

	codec, err := sessions.NewCodec([]string{testSessionSecret})
	require.NoError(t, err)
	sessionStore := sessions.NewCookieStore(codec)
	flashStore := sessions.NewFlashStore(codec, sessions.NewMemoryReplayGuard())

	registry := prometheus.NewRegistry()
	authenticator, err := auth.NewAuthenticator(
		auth.Config{Consumer: testConsumer, CallbackURL: testCallbackPath},
		auth.Repos{
			Exchanger:  client,
			Identities: client,
			Sessions:   sessionStore,
			Flashes:    flashStore,
		},
		auth.WithMetrics(auth.NewMetrics(registry)),
	)
	require.NoError(t, err)

	return &testFixture{
		provider: provider,
		sessions: sessionStore,
		flashes:  flashStore,
		auth:     authenticator,
		registry: registry,
	}
}

func (f *testFixture) networkCalls() int {
	return f.provider.Calls(discogsfake.RequestToken) +
		f.provider.Calls(discogsfake.AccessToken) +
		f.provider.Calls(discogsfake.Identity) +
		f.provider.Calls(discogsfake.Profile)
}

// beginLogin runs the redirect-out step and returns the flash cookie.
func (f *testFixture) beginLogin(t *testing.T, returnTo string) *http.Cookie {
	t.Helper()
	redirect, err := f.auth.BeginLogin(context.Background(), newRequest("/login"), returnTo)
	require.NoError(t, err)
	require.Len(t, redirect.Cookies, 1)
	return redirect.Cookies[0]
}

// completeLogin runs the callback step.
func (f *testFixture) completeLogin(target string, cookies ...*http.Cookie) (*auth.Result, error) {
	return f.auth.CompleteLogin(context.Background(), newRequest(target, cookies...))
}

func newRequest(target string, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewAuthenticator_Validation(t *testing.T) {
	f := setupTestFixture(t)
	client, err := discogs.NewClient(testConsumer)
	require.NoError(t, err)
	repos := auth.Repos{Exchanger: client, Identities: client, Sessions: f.sessions, Flashes: f.flashes}

	_, err = auth.NewAuthenticator(auth.Config{CallbackURL: testCallbackPath}, repos)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = auth.NewAuthenticator(auth.Config{Consumer: testConsumer}, repos)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	missing := repos
	missing.Flashes = nil
	_, err = auth.NewAuthenticator(auth.Config{Consumer: testConsumer, CallbackURL: testCallbackPath}, missing)
	require.Error(t, err)
}

// Scenario A: a fresh browser is sent to the authorize page with a flash cookie holding the secret.
func TestBeginLogin_RedirectsToProvider(t *testing.T) {
	f := setupTestFixture(t)

	r := newRequest("/login")
	require.Equal(t, auth.Anonymous, f.auth.StateOf(r))

	redirect, err := f.auth.BeginLogin(context.Background(), r, "")
	require.NoError(t, err)
	require.Equal(t, f.provider.URL()+"/oauth/authorize?oauth_token="+testRequestToken, redirect.URL)
	require.NotContains(t, redirect.URL, testRequestSecret)
	require.Nil(t, redirect.User)
	require.Equal(t, "http://example.com/login/callback", f.provider.LastCallback())

	flash := cookieNamed(redirect.Cookies, sessions.FlashCookieName)
	require.NotNil(t, flash)
	require.NotContains(t, flash.Value, testRequestSecret)

	entry, err := f.flashes.Peek(newRequest("/", flash))
	require.NoError(t, err)
	require.Equal(t, testRequestSecret, entry.RequestTokenSecret)
	require.Equal(t, auth.RequestTokenIssued, f.auth.StateOf(newRequest("/", flash)))
}

func TestBeginLogin_CallbackNotConfirmed(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RequestToken.CallbackConfirmed = false

	redirect, err := f.auth.BeginLogin(context.Background(), newRequest("/login"), "")
	require.ErrorIs(t, err, apperrors.ErrCallbackNotConfirmed)
	require.Nil(t, redirect)
}

func TestBeginLogin_UpstreamFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.FailNext(discogsfake.RequestToken, http.StatusInternalServerError, 1)

	_, err := f.auth.BeginLogin(context.Background(), newRequest("/login"), "")
	require.ErrorIs(t, err, apperrors.ErrUpstreamAuth)
}

func TestBeginLogin_RetryIssuesNewToken(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.IssueFreshRequestTokens()

	first, err := f.auth.BeginLogin(context.Background(), newRequest("/login"), "")
	require.NoError(t, err)
	second, err := f.auth.BeginLogin(context.Background(), newRequest("/login", first.Cookies...), "")
	require.NoError(t, err)
	require.NotEqual(t, first.URL, second.URL)
	require.Equal(t, 2, f.provider.Calls(discogsfake.RequestToken))

	// The first tab's callback arrives with the newest flash cookie and fails.
	_, err = f.completeLogin("/login/callback?oauth_token="+testRequestToken+"-1&oauth_verifier="+testVerifier, second.Cookies...)
	var validationErr *auth.CallbackValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, auth.ReasonTokenMismatch, validationErr.Reason)
	require.Zero(t, f.provider.Calls(discogsfake.AccessToken))
}

// Scenario B: a valid callback produces a session cookie carrying the access token.
func TestCompleteLogin_StoresSession(t *testing.T) {
	f := setupTestFixture(t)
	flash := f.beginLogin(t, "/collection")

	result, err := f.completeLogin("/login/callback?oauth_token="+testRequestToken+"&oauth_verifier="+testVerifier, flash)
	require.NoError(t, err)
	require.Equal(t, "/collection", result.RedirectTo)
	require.Equal(t, testAccessToken, result.User.AccessToken)

	session := cookieNamed(result.Cookies, sessions.SessionCookieName)
	require.NotNil(t, session)
	cleared := cookieNamed(result.Cookies, sessions.FlashCookieName)
	require.NotNil(t, cleared)
	require.Equal(t, -1, cleared.MaxAge)

	user, err := f.sessions.Get(newRequest("/", session))
	require.NoError(t, err)
	require.Equal(t, testAccessToken, user.AccessToken)
	require.Equal(t, testAccessSecret, user.AccessTokenSecret)
	require.Equal(t, testConsumerKey, user.ConsumerKey)
	require.Equal(t, "vinylfan", user.Username)
	require.Equal(t, 42, user.ID)
	require.Equal(t, 12, user.ItemsInCollection)
	require.Equal(t, auth.Authenticated, f.auth.StateOf(newRequest("/", session)))

	params := f.provider.LastAuthorization(discogsfake.AccessToken)
	require.Equal(t, testConsumerSecret+"&"+testRequestSecret, params[oauth1.ParamSignature])

	families, err := f.registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "vinylogger_login_steps_total", families[0].GetName())
}

// Scenario C: replaying the callback with the consumed flash is rejected.
func TestCompleteLogin_ReplayRejected(t *testing.T) {
	f := setupTestFixture(t)
	flash := f.beginLogin(t, "")
	target := "/login/callback?oauth_token=" + testRequestToken + "&oauth_verifier=" + testVerifier

	_, err := f.completeLogin(target, flash)
	require.NoError(t, err)

	result, err := f.completeLogin(target, flash)
	require.Nil(t, result)
	require.ErrorIs(t, err, apperrors.ErrCallbackValidation)
	require.ErrorIs(t, err, apperrors.ErrFlashConsumed)
	require.Equal(t, 1, f.provider.Calls(discogsfake.AccessToken))
	require.Equal(t, auth.Anonymous, f.auth.StateOf(newRequest("/", flash)))
}

func TestCompleteLogin_MissingParameters(t *testing.T) {
	tests := []struct {
		name   string
		target string
		reason string
	}{
		{"missing verifier", "/login/callback?oauth_token=" + testRequestToken, auth.ReasonMissingVerifier},
		{"empty verifier", "/login/callback?oauth_token=" + testRequestToken + "&oauth_verifier=", auth.ReasonMissingVerifier},
		{"missing token", "/login/callback?oauth_verifier=" + testVerifier, auth.ReasonMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			flash := f.beginLogin(t, "")
			before := f.networkCalls()

			_, err := f.completeLogin(tt.target, flash)

			var validationErr *auth.CallbackValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Equal(t, tt.reason, validationErr.Reason)
			require.Equal(t, before, f.networkCalls())
			require.Equal(t, auth.Failed, auth.StateAfter(err))
		})
	}
}

func TestCompleteLogin_NoPendingLogin(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.completeLogin("/login/callback?oauth_token=" + testRequestToken + "&oauth_verifier=" + testVerifier)

	var validationErr *auth.CallbackValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, auth.ReasonMissingRequestSecret, validationErr.Reason)
	require.Zero(t, f.networkCalls())
}

func TestCompleteLogin_WrongVerifier(t *testing.T) {
	f := setupTestFixture(t)
	flash := f.beginLogin(t, "")

	result, err := f.completeLogin("/login/callback?oauth_token="+testRequestToken+"&oauth_verifier=wrong", flash)
	require.Nil(t, result)
	require.ErrorIs(t, err, apperrors.ErrUpstreamAuth)
	require.NotErrorIs(t, err, apperrors.ErrCallbackValidation)
	require.Zero(t, f.provider.Calls(discogsfake.Identity))
}

func TestCompleteLogin_IdentityFailurePersistsNothing(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.FailNext(discogsfake.Profile, http.StatusBadGateway, 1)
	flash := f.beginLogin(t, "")

	result, err := f.completeLogin("/login/callback?oauth_token="+testRequestToken+"&oauth_verifier="+testVerifier, flash)
	require.Nil(t, result)
	require.ErrorIs(t, err, apperrors.ErrUpstreamAuth)
	require.Equal(t, 1, f.provider.Calls(discogsfake.AccessToken))
	require.Equal(t, 1, f.provider.Calls(discogsfake.Identity))
	require.Equal(t, 1, f.provider.Calls(discogsfake.Profile))

	cleared := f.auth.DiscardPending(newRequest("/"))
	require.Equal(t, sessions.FlashCookieName, cleared.Name)
	require.Equal(t, -1, cleared.MaxAge)
}

func TestBeginLogin_FastPathIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	flash := f.beginLogin(t, "")
	result, err := f.completeLogin("/login/callback?oauth_token="+testRequestToken+"&oauth_verifier="+testVerifier, flash)
	require.NoError(t, err)
	session := cookieNamed(result.Cookies, sessions.SessionCookieName)
	before := f.networkCalls()

	first, err := f.auth.BeginLogin(context.Background(), newRequest("/login", session), "/wantlist")
	require.NoError(t, err)
	second, err := f.auth.BeginLogin(context.Background(), newRequest("/login", session), "/wantlist")
	require.NoError(t, err)

	require.Equal(t, before, f.networkCalls())
	require.Equal(t, "/wantlist", first.URL)
	require.Empty(t, first.Cookies)
	require.NotNil(t, first.User)
	require.Equal(t, first.User.Identity, second.User.Identity)

	user, ok := f.auth.CurrentUser(newRequest("/", session))
	require.True(t, ok)
	require.Equal(t, first.User.Identity, user.Identity)
}

func TestUser_NotAuthenticated(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.auth.User(newRequest("/"))
	require.Nil(t, user)
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	user, err = f.auth.User(newRequest("/", &http.Cookie{Name: sessions.SessionCookieName, Value: "garbage"}))
	require.Nil(t, user)
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	for i := 0; i < 2; i++ {
		cookies := f.auth.Logout(newRequest("/logout"))
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			require.Equal(t, -1, c.MaxAge)
			require.Empty(t, c.Value)
		}

		_, err := f.sessions.Get(newRequest("/", cookies...))
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		_, ok := f.auth.CurrentUser(newRequest("/", cookies...))
		require.False(t, ok)
	}
}

func TestCallbackURL(t *testing.T) {
	f := setupTestFixture(t)
	client, err := discogs.NewClient(testConsumer)
	require.NoError(t, err)
	repos := auth.Repos{Exchanger: client, Identities: client, Sessions: f.sessions, Flashes: f.flashes}

	tests := []struct {
		name       string
		configured string
		forwarded  string
		want       string
	}{
		{"absolute", "https://vinylogger.example.com/login/callback", "", "https://vinylogger.example.com/login/callback"},
		{"path", "/login/callback", "", "http://example.com/login/callback"},
		{"path behind tls proxy", "/auth", "https", "https://example.com/auth"},
		{"host only", "localhost:3000/login/callback", "", "http://localhost:3000/login/callback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := auth.NewAuthenticator(auth.Config{Consumer: testConsumer, CallbackURL: tt.configured}, repos)
			require.NoError(t, err)
			r := newRequest("/login")
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			require.Equal(t, tt.want, a.CallbackURL(r))
		})
	}
}

func TestSafeReturnTo(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/collection?page=2":   "/collection?page=2",
		"https://evil.example": "/",
		"//evil.example/path":  "/",
		`/\evil.example`:       "/",
		"collection":           "/",
		"/login":               "/",
		"/login/callback?x=1":  "/",
		"/auth":                "/",
		"/wantlist#recent":     "/wantlist#recent",
	}
	for in, want := range tests {
		require.Equal(t, want, auth.SafeReturnTo(in), in)
	}
}

func TestState_String(t *testing.T) {
	require.Equal(t, "anonymous", auth.Anonymous.String())
	require.Equal(t, "request_token_issued", auth.RequestTokenIssued.String())
	require.Equal(t, "authenticated", auth.Authenticated.String())
	require.Equal(t, "failed", auth.Failed.String())
	require.Equal(t, auth.Authenticated, auth.StateAfter(nil))
}
