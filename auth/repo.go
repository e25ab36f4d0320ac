package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/jrsteele09/vinylogger/users"
)

// TokenExchanger runs the request-token and access-token legs against the provider.
type TokenExchanger interface {
	GetRequestToken(ctx context.Context, callbackURL string) (oauth1.RequestToken, error)
	GetAccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (oauth1.AccessToken, error)
	AuthorizationURL(requestToken string) string
}

// IdentityFetcher loads the identity and profile of an access token's owner.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, token oauth1.AccessToken) (users.Identity, error)
}

// SessionStore is the long-lived store of the authenticated user.
type SessionStore interface {
	Get(r *http.Request) (*users.User, error)
	Set(r *http.Request, user *users.User) (*http.Cookie, error)
	Destroy(r *http.Request) *http.Cookie
}

// FlashStore is the single-slot, read-once store of the pending login.
type FlashStore interface {
	Flash(r *http.Request, entry sessions.FlashEntry) (*http.Cookie, error)
	Peek(r *http.Request) (*sessions.FlashEntry, error)
	Consume(ctx context.Context, r *http.Request) (*sessions.FlashEntry, error)
	Clear(r *http.Request) *http.Cookie
}

// Repos holds the dependencies of the Authenticator
type Repos struct {
	Exchanger  TokenExchanger  // Request/access token legs
	Identities IdentityFetcher // Identity + profile after the exchange
	Sessions   SessionStore    // Authenticated user cookie
	Flashes    FlashStore      // Pending login cookie
}

var (
	_ SessionStore = (*sessions.CookieStore)(nil)
	_ FlashStore   = (*sessions.FlashStore)(nil)
)
