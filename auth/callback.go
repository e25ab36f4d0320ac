package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// CallbackURL resolves the configured callback against the request.
func (a *Authenticator) CallbackURL(r *http.Request) string {
	configured := a.config.CallbackURL
	if u, err := url.Parse(configured); err == nil && u.Scheme != "" && u.Host != "" {
		return configured
	}
	if strings.HasPrefix(configured, "/") {
		return getScheme(r) + "://" + r.Host + configured
	}
	return getScheme(r) + "://" + configured
}

// SafeReturnTo keeps only same-site relative paths, falling back to "/".
func SafeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") || strings.Contains(returnTo, `\`) {
		return "/"
	}
	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/login/") || u.Path == "/auth" {
		return "/"
	}
	return returnTo
}

// getScheme determines the scheme the browser used (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme == "https" || scheme == "http" {
		return scheme
	}
	return "http"
}
