// Package discogsfake is an in-process Discogs provider for tests. It issues fixed tokens, checks
// PLAINTEXT signatures and verifiers, and counts calls per endpoint.
package discogsfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/oauth1"
)

// Call counter keys.
const (
	RequestToken = "request_token"
	AccessToken  = "access_token"
	Identity     = "identity"
	Profile      = "profile"
	Catalog      = "catalog"
)

type failure struct {
	status    int
	remaining int
}

// Provider is a fake Discogs API plus authorize page.
type Provider struct {
	Consumer           oauth1.ConsumerCredential
	RequestToken       oauth1.RequestToken
	AccessToken        oauth1.AccessToken
	Verifier           string
	UserID             int
	Username           string
	AvatarURL          string
	NumCollection      int
	NumWantlist        int
	RateLimitRemaining int

	server *httptest.Server

	lock          sync.Mutex
	calls         map[string]int
	failures      map[string]failure
	lastCallback  string
	lastHeaders   map[string]map[string]string
	collection    []discogs.CollectionRelease
	wants         []discogs.Want
	nextInstance  int
	requestTokens int
}

// New starts a provider with one user, "vinylfan" (id 42). Close it with t.Cleanup(p.Close).
func New(consumer oauth1.ConsumerCredential) *Provider {
	p := &Provider{
		Consumer: consumer,
		RequestToken: oauth1.RequestToken{
			Token:             "request-token",
			TokenSecret:       "request-secret",
			CallbackConfirmed: true,
		},
		AccessToken: oauth1.AccessToken{
			Token:       "access-token",
			TokenSecret: "access-secret",
		},
		Verifier:           "verifier-123",
		UserID:             42,
		Username:           "vinylfan",
		AvatarURL:          "https://img.discogs.example/vinylfan.png",
		NumCollection:      12,
		NumWantlist:        3,
		RateLimitRemaining: 59,
		calls:              make(map[string]int),
		failures:           make(map[string]failure),
		lastHeaders:        make(map[string]map[string]string),
		nextInstance:       1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/request_token", p.handleRequestToken)
	mux.HandleFunc("POST /oauth/access_token", p.handleAccessToken)
	mux.HandleFunc("GET /oauth/identity", p.handleIdentity)
	mux.HandleFunc("GET /oauth/authorize", p.handleAuthorize)
	mux.HandleFunc("GET /users/{username}", p.handleProfile)
	mux.HandleFunc("GET /users/{username}/collection/folders/{folder}/releases", p.handleListCollection)
	mux.HandleFunc("POST /users/{username}/collection/folders/{folder}/releases/{release}", p.handleAddToCollection)
	mux.HandleFunc("DELETE /users/{username}/collection/folders/{folder}/releases/{release}/instances/{instance}", p.handleRemoveFromCollection)
	mux.HandleFunc("GET /users/{username}/wants", p.handleListWants)
	mux.HandleFunc("PUT /users/{username}/wants/{release}", p.handleAddWant)
	mux.HandleFunc("DELETE /users/{username}/wants/{release}", p.handleRemoveWant)
	p.server = httptest.NewServer(mux)
	return p
}

// URL is the base URL of the fake.
func (p *Provider) URL() string {
	return p.server.URL
}

// Endpoints points a discogs.Client at the fake.
func (p *Provider) Endpoints() discogs.Endpoints {
	return discogs.EndpointsFor(p.server.URL, p.server.URL)
}

// Close shuts the fake down.
func (p *Provider) Close() {
	p.server.Close()
}

// Calls returns how many times an endpoint was hit, failed calls included.
func (p *Provider) Calls(endpoint string) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls[endpoint]
}

// FailNext makes the next n calls to endpoint answer with status.
func (p *Provider) FailNext(endpoint string, status, n int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.failures[endpoint] = failure{status: status, remaining: n}
}

// LastCallback is the oauth_callback sent with the most recent request-token call.
func (p *Provider) LastCallback() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastCallback
}

// LastAuthorization is the parsed Authorization header of the most recent call to endpoint.
func (p *Provider) LastAuthorization(endpoint string) map[string]string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastHeaders[endpoint]
}

// IssueFreshRequestTokens makes every request-token call return a new token, suffixed with a counter.
func (p *Provider) IssueFreshRequestTokens() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.requestTokens = 1
}

// SeedCollection adds releases to the fake collection.
func (p *Provider) SeedCollection(releases ...discogs.CollectionRelease) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.collection = append(p.collection, releases...)
}

// enter counts the call, records its Authorization header and reports whether the request was
// already answered with an error.
func (p *Provider) enter(w http.ResponseWriter, r *http.Request, endpoint string) (map[string]string, bool) {
	params, err := ParseAuthorization(r.Header.Get("Authorization"))

	p.lock.Lock()
	p.calls[endpoint]++
	p.lastHeaders[endpoint] = params
	forced := p.failures[endpoint]
	if forced.remaining > 0 {
		p.failures[endpoint] = failure{status: forced.status, remaining: forced.remaining - 1}
	}
	p.lock.Unlock()

	if forced.remaining > 0 {
		http.Error(w, "forced failure", forced.status)
		return nil, true
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return nil, true
	}
	if r.Header.Get("User-Agent") == "" {
		http.Error(w, "missing user agent", http.StatusForbidden)
		return nil, true
	}
	if params[oauth1.ParamConsumerKey] != p.Consumer.Key || params[oauth1.ParamSignatureMethod] != oauth1.SignatureMethodPlaintext {
		http.Error(w, "invalid consumer", http.StatusUnauthorized)
		return nil, true
	}
	return params, false
}

func (p *Provider) checkSignature(w http.ResponseWriter, params map[string]string, token, tokenSecret string) bool {
	if params[oauth1.ParamToken] != token || params[oauth1.ParamSignature] != oauth1.Signature(p.Consumer.Secret, tokenSecret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return false
	}
	return true
}

func (p *Provider) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	params, failed := p.enter(w, r, RequestToken)
	if failed {
		return
	}
	if !p.checkSignature(w, params, "", "") {
		return
	}

	p.lock.Lock()
	p.lastCallback = params[oauth1.ParamCallback]
	token := p.RequestToken.Token
	if p.requestTokens > 0 {
		token = fmt.Sprintf("%s-%d", token, p.requestTokens)
		p.requestTokens++
	}
	p.lock.Unlock()

	form := url.Values{}
	form.Set(oauth1.ParamToken, token)
	form.Set(oauth1.ParamTokenSecret, p.RequestToken.TokenSecret)
	form.Set(oauth1.ParamCallbackConfirmed, strconv.FormatBool(p.RequestToken.CallbackConfirmed))
	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	_, _ = w.Write([]byte(form.Encode()))
}

func (p *Provider) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	params, failed := p.enter(w, r, AccessToken)
	if failed {
		return
	}
	if !strings.HasPrefix(params[oauth1.ParamToken], p.RequestToken.Token) ||
		params[oauth1.ParamSignature] != oauth1.Signature(p.Consumer.Secret, p.RequestToken.TokenSecret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	if params[oauth1.ParamVerifier] != p.Verifier {
		http.Error(w, "invalid verifier", http.StatusUnauthorized)
		return
	}

	form := url.Values{}
	form.Set(oauth1.ParamToken, p.AccessToken.Token)
	form.Set(oauth1.ParamTokenSecret, p.AccessToken.TokenSecret)
	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	_, _ = w.Write([]byte(form.Encode()))
}

func (p *Provider) handleIdentity(w http.ResponseWriter, r *http.Request) {
	params, failed := p.enter(w, r, Identity)
	if failed || !p.checkSignature(w, params, p.AccessToken.Token, p.AccessToken.TokenSecret) {
		return
	}
	p.writeJSON(w, http.StatusOK, discogs.IdentityResponse{
		ID:           p.UserID,
		Username:     p.Username,
		ResourceURL:  p.server.URL + "/users/" + p.Username,
		ConsumerName: "Vinylogger",
	})
}

// handleAuthorize approves immediately and redirects to the callback with the verifier.
func (p *Provider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	p.lock.Lock()
	callback := p.lastCallback
	p.lock.Unlock()

	target, err := url.Parse(callback)
	if err != nil || callback == "" {
		http.Error(w, "no callback", http.StatusBadRequest)
		return
	}
	q := target.Query()
	q.Set(oauth1.ParamToken, r.URL.Query().Get(oauth1.ParamToken))
	q.Set(oauth1.ParamVerifier, p.Verifier)
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (p *Provider) handleProfile(w http.ResponseWriter, r *http.Request) {
	params, failed := p.enter(w, r, Profile)
	if failed || !p.checkSignature(w, params, p.AccessToken.Token, p.AccessToken.TokenSecret) {
		return
	}
	if r.PathValue("username") != p.Username {
		http.Error(w, `{"message": "User does not exist or may have been deleted."}`, http.StatusNotFound)
		return
	}
	p.writeJSON(w, http.StatusOK, discogs.ProfileResponse{
		AvatarURL:     p.AvatarURL,
		NumCollection: p.NumCollection,
		NumWantlist:   p.NumWantlist,
	})
}

// catalog runs the checks shared by every catalog handler.
func (p *Provider) catalog(w http.ResponseWriter, r *http.Request) bool {
	params, failed := p.enter(w, r, Catalog)
	if failed || !p.checkSignature(w, params, p.AccessToken.Token, p.AccessToken.TokenSecret) {
		return false
	}
	if params[oauth1.ParamVersion] != "1.0" {
		http.Error(w, "missing oauth_version", http.StatusUnauthorized)
		return false
	}
	if r.PathValue("username") != p.Username {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (p *Provider) handleListCollection(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	p.lock.Lock()
	releases := append([]discogs.CollectionRelease(nil), p.collection...)
	p.lock.Unlock()
	p.writeJSON(w, http.StatusOK, discogs.CollectionPage{
		Pagination: pagination(r, len(releases)),
		Releases:   releases,
	})
}

func (p *Provider) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	releaseID, err := strconv.Atoi(r.PathValue("release"))
	if err != nil {
		http.Error(w, "bad release", http.StatusNotFound)
		return
	}
	p.lock.Lock()
	p.nextInstance++
	instance := p.nextInstance
	p.collection = append(p.collection, discogs.CollectionRelease{ID: releaseID, InstanceID: instance})
	p.lock.Unlock()
	p.writeJSON(w, http.StatusCreated, discogs.CollectionInstance{
		InstanceID:  instance,
		ResourceURL: fmt.Sprintf("%s/users/%s/collection/folders/1/releases/%d/instances/%d", p.server.URL, p.Username, releaseID, instance),
	})
}

func (p *Provider) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	instance, _ := strconv.Atoi(r.PathValue("instance"))
	p.lock.Lock()
	defer p.lock.Unlock()
	for i, release := range p.collection {
		if release.InstanceID == instance {
			p.collection = append(p.collection[:i], p.collection[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (p *Provider) handleListWants(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	p.lock.Lock()
	wants := append([]discogs.Want(nil), p.wants...)
	p.lock.Unlock()
	p.writeJSON(w, http.StatusOK, discogs.WantlistPage{
		Pagination: pagination(r, len(wants)),
		Wants:      wants,
	})
}

func (p *Provider) handleAddWant(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	releaseID, err := strconv.Atoi(r.PathValue("release"))
	if err != nil {
		http.Error(w, "bad release", http.StatusNotFound)
		return
	}
	p.lock.Lock()
	p.wants = append(p.wants, discogs.Want{ID: releaseID})
	p.lock.Unlock()
	p.writeJSON(w, http.StatusCreated, discogs.WantAdded{
		ID:          releaseID,
		ResourceURL: fmt.Sprintf("%s/users/%s/wants/%d", p.server.URL, p.Username, releaseID),
	})
}

func (p *Provider) handleRemoveWant(w http.ResponseWriter, r *http.Request) {
	if !p.catalog(w, r) {
		return
	}
	releaseID, _ := strconv.Atoi(r.PathValue("release"))
	p.lock.Lock()
	defer p.lock.Unlock()
	for i, want := range p.wants {
		if want.ID == releaseID {
			p.wants = append(p.wants[:i], p.wants[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (p *Provider) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Discogs-Ratelimit", "60")
	w.Header().Set("X-Discogs-Ratelimit-Remaining", strconv.Itoa(p.RateLimitRemaining))
	w.Header().Set("X-Discogs-Ratelimit-Used", strconv.Itoa(60-p.RateLimitRemaining))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pagination(r *http.Request, items int) discogs.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = discogs.DefaultPerPage
	}
	return discogs.Pagination{
		Page:    page,
		Pages:   (items + perPage - 1) / perPage,
		PerPage: perPage,
		Items:   items,
	}
}

// ParseAuthorization splits an "OAuth k="v", ..." header into its parameters, percent-decoding values.
func ParseAuthorization(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(header, "OAuth ")
	if !ok {
		return nil, fmt.Errorf("not an OAuth header: %q", header)
	}
	params := make(map[string]string)
	for _, field := range strings.Split(rest, ", ") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("malformed field %q", field)
		}
		value = strings.Trim(value, `"`)
		if key != oauth1.ParamSignature {
			decoded, err := url.PathUnescape(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			value = decoded
		}
		params[key] = value
	}
	return params, nil
}
