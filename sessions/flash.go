package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
)

const (
	FlashCookieName = "__vinylogger_flash"
	DefaultFlashAge = 15 * time.Minute
)

// FlashEntry is the state carried from the redirect to the provider until its callback.
type FlashEntry struct {
	RequestToken       string `json:"requestToken"`
	RequestTokenSecret string `json:"requestTokenSecret"`
	ReturnTo           string `json:"returnTo,omitempty"`
}

type flashClaims struct {
	jwt.RegisteredClaims
	Entry FlashEntry `json:"flash"`
}

// FlashStore holds a single pending login per browser. Writing a new flash replaces the previous one;
// reading it through Consume marks it used so it cannot be read twice.
type FlashStore struct {
	codec   *Codec
	guard   ReplayGuard
	cookies CookieOptions
	maxAge  time.Duration
}

// FlashOption modifies a FlashStore.
type FlashOption func(*FlashStore)

// WithFlashAge sets how long a pending login stays valid.
func WithFlashAge(maxAge time.Duration) FlashOption {
	return func(s *FlashStore) {
		s.maxAge = maxAge
	}
}

// WithFlashCookieOptions sets the cookie attributes.
func WithFlashCookieOptions(options CookieOptions) FlashOption {
	return func(s *FlashStore) {
		s.cookies = options
	}
}

func NewFlashStore(codec *Codec, guard ReplayGuard, options ...FlashOption) *FlashStore {
	s := &FlashStore{
		codec:  codec,
		guard:  guard,
		maxAge: DefaultFlashAge,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Flash seals entry under a fresh ID and returns the cookie carrying it.
func (s *FlashStore) Flash(r *http.Request, entry FlashEntry) (*http.Cookie, error) {
	if entry.RequestToken == "" || entry.RequestTokenSecret == "" {
		return nil, apperrors.Wrapf(apperrors.ErrFlashNotFound, "[FlashStore Flash] request token pair is incomplete")
	}

	now := s.codec.nowTime()
	value, err := s.codec.Seal(flashClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Entry: entry,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FlashStore Flash]")
	}
	return s.cookies.newCookie(r, FlashCookieName, value, s.maxAge), nil
}

// Peek returns the pending entry without consuming it. A flash that was already consumed fails with
// ErrFlashConsumed even though the browser still holds the cookie.
func (s *FlashStore) Peek(r *http.Request) (*FlashEntry, error) {
	claims, err := s.open(r)
	if err != nil {
		return nil, err
	}
	consumed, err := s.guard.IsConsumed(r.Context(), claims.ID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FlashStore Peek]")
	}
	if consumed {
		return nil, apperrors.ErrFlashConsumed
	}
	return &claims.Entry, nil
}

// Consume returns the pending entry and marks it used. A second Consume of the same flash, even from
// a resent cookie, fails with ErrFlashConsumed.
func (s *FlashStore) Consume(ctx context.Context, r *http.Request) (*FlashEntry, error) {
	claims, err := s.open(r)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, apperrors.Wrapf(apperrors.ErrFlashNotFound, "[FlashStore Consume] flash has no id")
	}
	if err := s.guard.MarkConsumed(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, apperrors.Wrapf(err, "[FlashStore Consume]")
	}
	return &claims.Entry, nil
}

// Clear returns a cookie that removes any pending flash.
func (s *FlashStore) Clear(r *http.Request) *http.Cookie {
	return s.cookies.clearCookie(r, FlashCookieName)
}

func (s *FlashStore) open(r *http.Request) (*flashClaims, error) {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrFlashNotFound
	}
	var claims flashClaims
	if err := s.codec.Open(cookie.Value, &claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrFlashNotFound, "[FlashStore] %v", err)
	}
	return &claims, nil
}
