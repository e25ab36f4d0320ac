package sessions

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/users"
)

const (
	SessionCookieName = "__vinylogger_session"
	DefaultSessionAge = 365 * 24 * time.Hour
)

type sessionClaims struct {
	jwt.RegisteredClaims
	User users.User `json:"user"`
}

// CookieStore keeps the authenticated user, access token pair included, in a sealed cookie.
// There is no server-side session record.
type CookieStore struct {
	codec   *Codec
	cookies CookieOptions
	maxAge  time.Duration
}

// StoreOption modifies a CookieStore.
type StoreOption func(*CookieStore)

// WithSessionAge sets how long a session cookie stays valid.
func WithSessionAge(maxAge time.Duration) StoreOption {
	return func(s *CookieStore) {
		s.maxAge = maxAge
	}
}

// WithCookieOptions sets the cookie attributes.
func WithCookieOptions(options CookieOptions) StoreOption {
	return func(s *CookieStore) {
		s.cookies = options
	}
}

// NewCookieStore returns a store sealing with codec. Claim timestamps use the codec's clock.
func NewCookieStore(codec *Codec, options ...StoreOption) *CookieStore {
	s := &CookieStore{
		codec:  codec,
		maxAge: DefaultSessionAge,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Get returns the user carried by the request's session cookie. Every failure (no cookie, tampered,
// expired, sealed with an unknown secret, missing fields) is reported as ErrSessionNotFound.
func (s *CookieStore) Get(r *http.Request) (*users.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	var claims sessionClaims
	if err := s.codec.Open(cookie.Value, &claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "[CookieStore Get] %v", err)
	}
	if err := claims.User.Validate(); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "[CookieStore Get] %v", err)
	}
	return &claims.User, nil
}

// Set seals user into a session cookie. Nothing is written; the caller attaches the cookie to the
// response, so a failed login never produces one.
func (s *CookieStore) Set(r *http.Request, user *users.User) (*http.Cookie, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("[CookieStore Set] %w", err)
	}

	now := s.codec.nowTime()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		User: *user,
	}
	value, err := s.codec.Seal(claims)
	if err != nil {
		return nil, fmt.Errorf("[CookieStore Set] %w", err)
	}
	if len(value) > maxCookieSize {
		return nil, fmt.Errorf("[CookieStore Set] session cookie is %d bytes, limit is %d", len(value), maxCookieSize)
	}
	return s.cookies.newCookie(r, SessionCookieName, value, s.maxAge), nil
}

// Destroy returns a cookie that removes the session. Safe to call without a session.
func (s *CookieStore) Destroy(r *http.Request) *http.Cookie {
	return s.cookies.clearCookie(r, SessionCookieName)
}
