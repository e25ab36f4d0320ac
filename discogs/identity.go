package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/users"
)

// IdentityResponse is the body of GET /oauth/identity.
type IdentityResponse struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	ResourceURL  string `json:"resource_url"`
	ConsumerName string `json:"consumer_name"`
}

// ProfileResponse holds the fields of GET /users/{username} kept in the session.
type ProfileResponse struct {
	AvatarURL     string `json:"avatar_url"`
	NumCollection int    `json:"num_collection"`
	NumWantlist   int    `json:"num_wantlist"`
}

// GetIdentity returns the identity of the access token's owner.
func (c *Client) GetIdentity(ctx context.Context, token oauth1.AccessToken) (IdentityResponse, error) {
	var identity IdentityResponse
	if err := c.getAuthJSON(ctx, endpointIdentity, c.endpoints.IdentityURL, token, &identity); err != nil {
		return IdentityResponse{}, err
	}
	return identity, nil
}

// GetProfile returns the avatar and collection/wantlist counts of username.
func (c *Client) GetProfile(ctx context.Context, token oauth1.AccessToken, username string) (ProfileResponse, error) {
	var profile ProfileResponse
	if err := c.getAuthJSON(ctx, endpointProfile, c.endpoints.UserURL(username), token, &profile); err != nil {
		return ProfileResponse{}, err
	}
	return profile, nil
}

// FetchIdentity runs the identity call then the profile call and merges them. The profile call
// needs the username from the first, so they are strictly sequential.
func (c *Client) FetchIdentity(ctx context.Context, token oauth1.AccessToken) (users.Identity, error) {
	identity, err := c.GetIdentity(ctx, token)
	if err != nil {
		return users.Identity{}, err
	}
	if identity.Username == "" {
		return users.Identity{}, &UpstreamAuthError{Endpoint: endpointIdentity, Status: http.StatusOK, Err: fmt.Errorf("identity has no username")}
	}

	profile, err := c.GetProfile(ctx, token, identity.Username)
	if err != nil {
		return users.Identity{}, err
	}

	result := users.Identity{
		ID:                identity.ID,
		Username:          identity.Username,
		ResourceURL:       identity.ResourceURL,
		ConsumerName:      identity.ConsumerName,
		Avatar:            profile.AvatarURL,
		ItemsInCollection: profile.NumCollection,
		ItemsInWantlist:   profile.NumWantlist,
	}
	if err := users.ValidateIdentity(result); err != nil {
		return users.Identity{}, &UpstreamAuthError{Endpoint: endpointIdentity, Status: http.StatusOK, Err: err}
	}
	return result, nil
}

func (c *Client) getAuthJSON(ctx context.Context, endpoint, target string, token oauth1.AccessToken, out any) error {
	resp, err := c.do(ctx, endpoint, c.signer, http.MethodGet, target, nil, token.Credential())
	if err != nil {
		return &UpstreamAuthError{Endpoint: endpoint, Err: err}
	}
	if !resp.ok() {
		return &UpstreamAuthError{Endpoint: endpoint, Status: resp.status, Body: string(resp.body)}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &UpstreamAuthError{Endpoint: endpoint, Status: resp.status, Body: string(resp.body), Err: fmt.Errorf("decode %s: %w", endpoint, err)}
	}
	return nil
}
