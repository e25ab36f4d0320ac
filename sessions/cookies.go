package sessions

import (
	"net/http"
	"time"
)

// maxCookieSize is the largest cookie value browsers reliably store.
const maxCookieSize = 4096

// CookieOptions are the attributes shared by the session and flash cookies.
type CookieOptions struct {
	Path string
	// Secure forces the Secure attribute. When false it is set only for HTTPS requests.
	Secure bool
}

func (o CookieOptions) newCookie(r *http.Request, name, value string, maxAge time.Duration) *http.Cookie {
	path := o.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   o.Secure || isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func (o CookieOptions) clearCookie(r *http.Request, name string) *http.Cookie {
	c := o.newCookie(r, name, "", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// isHTTPS reports whether the browser reached us over TLS, directly or through a proxy.
func isHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
