package discogs

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vinylogger/oauth1"
)

// GetRequestToken is step 1 of the dance: it asks for a request token signed with the consumer
// credential only, announcing callbackURL as oauth_callback.
func (c *Client) GetRequestToken(ctx context.Context, callbackURL string) (oauth1.RequestToken, error) {
	resp, err := c.do(ctx, endpointRequestToken, c.signer, http.MethodGet, c.endpoints.RequestTokenURL, nil, nil,
		oauth1.Callback(callbackURL))
	if err != nil {
		return oauth1.RequestToken{}, &UpstreamAuthError{Endpoint: endpointRequestToken, Err: err}
	}
	if !resp.ok() {
		return oauth1.RequestToken{}, &UpstreamAuthError{Endpoint: endpointRequestToken, Status: resp.status, Body: string(resp.body)}
	}

	token, err := oauth1.ParseRequestToken(resp.body)
	if err != nil {
		return oauth1.RequestToken{}, &UpstreamAuthError{Endpoint: endpointRequestToken, Status: resp.status, Body: string(resp.body), Err: err}
	}
	return token, nil
}

// GetAccessToken is step 3: it exchanges the authorised request token and the verifier for the
// user's access token pair.
func (c *Client) GetAccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (oauth1.AccessToken, error) {
	credential := &oauth1.TokenCredential{Token: requestToken, Secret: requestTokenSecret}
	resp, err := c.do(ctx, endpointAccessToken, c.signer, http.MethodPost, c.endpoints.AccessTokenURL, nil, credential,
		oauth1.Verifier(verifier))
	if err != nil {
		return oauth1.AccessToken{}, &UpstreamAuthError{Endpoint: endpointAccessToken, Err: err}
	}
	if !resp.ok() {
		return oauth1.AccessToken{}, &UpstreamAuthError{Endpoint: endpointAccessToken, Status: resp.status, Body: string(resp.body)}
	}

	token, err := oauth1.ParseAccessToken(resp.body)
	if err != nil {
		return oauth1.AccessToken{}, &UpstreamAuthError{Endpoint: endpointAccessToken, Status: resp.status, Body: string(resp.body), Err: err}
	}
	return token, nil
}
