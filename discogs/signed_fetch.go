package discogs

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/users"
)

// RawResponse is a successful catalog response, body fully read.
type RawResponse struct {
	Status    int
	Header    http.Header
	Body      []byte
	RateLimit RateLimit
}

// SignedFetch signs one catalog call with the user's stored consumer and access token pairs and
// sends it. A non-2xx answer is returned as *UpstreamAPIError; nothing is retried.
func (c *Client) SignedFetch(ctx context.Context, user *users.User, method, target string, body io.Reader) (*RawResponse, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("[Client SignedFetch] %w", err)
	}

	signer, err := oauth1.NewSigner(user.Consumer(), c.signerOptions...)
	if err != nil {
		return nil, fmt.Errorf("[Client SignedFetch] %w", err)
	}

	resp, err := c.do(ctx, endpointAPI, signer, method, target, body, user.Token(), oauth1.Version())
	if err != nil {
		return nil, fmt.Errorf("[Client SignedFetch] %w", err)
	}
	if !resp.ok() {
		return nil, &UpstreamAPIError{Method: method, URL: target, Status: resp.status, Body: string(resp.body)}
	}
	return &RawResponse{
		Status:    resp.status,
		Header:    resp.header,
		Body:      resp.body,
		RateLimit: parseRateLimit(resp.header),
	}, nil
}
