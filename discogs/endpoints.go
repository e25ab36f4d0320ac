package discogs

import (
	"net/url"
	"strings"
)

// UserAgent identifies this application on every call, as the provider's terms require.
const UserAgent = "Vinylogger/1.0"

// Endpoints holds the provider URLs. Tests point these at a local fake provider.
type Endpoints struct {
	RequestTokenURL string // GET, returns a form-encoded request token
	AuthorizeURL    string // browser redirect target, takes ?oauth_token=
	AccessTokenURL  string // POST, returns a form-encoded access token
	IdentityURL     string // GET, JSON identity of the token owner
	APIBaseURL      string // base for /users/{username}/... catalog calls
}

// DefaultEndpoints returns the production Discogs endpoints.
func DefaultEndpoints() Endpoints {
	return EndpointsFor("https://api.discogs.com", "https://www.discogs.com")
}

// EndpointsFor builds the endpoint set for an API host and a web host (where the authorize page lives).
func EndpointsFor(apiBase, webBase string) Endpoints {
	apiBase = strings.TrimSuffix(apiBase, "/")
	webBase = strings.TrimSuffix(webBase, "/")
	return Endpoints{
		RequestTokenURL: apiBase + "/oauth/request_token",
		AuthorizeURL:    webBase + "/oauth/authorize",
		AccessTokenURL:  apiBase + "/oauth/access_token",
		IdentityURL:     apiBase + "/oauth/identity",
		APIBaseURL:      apiBase,
	}
}

// AuthorizationURL is where the browser is sent to approve the request token.
func (e Endpoints) AuthorizationURL(requestToken string) string {
	params := url.Values{}
	params.Set("oauth_token", requestToken)
	return e.AuthorizeURL + "?" + params.Encode()
}

// UserURL builds {APIBaseURL}/users/{username}[/elem...], escaping every path element.
func (e Endpoints) UserURL(username string, elem ...string) string {
	var b strings.Builder
	b.WriteString(e.APIBaseURL)
	b.WriteString("/users/")
	b.WriteString(url.PathEscape(username))
	for _, p := range elem {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}
