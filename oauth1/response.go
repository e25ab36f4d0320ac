package oauth1

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMalformedTokenResponse is returned when a token endpoint answers 2xx without a usable token pair.
var ErrMalformedTokenResponse = errors.New("malformed token response")

// ParseRequestToken parses the form-encoded body of the request-token endpoint.
func ParseRequestToken(body []byte) (RequestToken, error) {
	token, secret, values, err := parseTokenPair(body)
	if err != nil {
		return RequestToken{}, fmt.Errorf("[ParseRequestToken] %w", err)
	}
	return RequestToken{
		Token:             token,
		TokenSecret:       secret,
		CallbackConfirmed: values.Get(ParamCallbackConfirmed) == "true",
	}, nil
}

// ParseAccessToken parses the form-encoded body of the access-token endpoint.
func ParseAccessToken(body []byte) (AccessToken, error) {
	token, secret, _, err := parseTokenPair(body)
	if err != nil {
		return AccessToken{}, fmt.Errorf("[ParseAccessToken] %w", err)
	}
	return AccessToken{Token: token, TokenSecret: secret}, nil
}

func parseTokenPair(body []byte) (string, string, url.Values, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrMalformedTokenResponse, err)
	}
	token := values.Get(ParamToken)
	secret := values.Get(ParamTokenSecret)
	if token == "" || secret == "" {
		return "", "", nil, fmt.Errorf("%w: missing %s or %s", ErrMalformedTokenResponse, ParamToken, ParamTokenSecret)
	}
	return token, secret, values, nil
}
