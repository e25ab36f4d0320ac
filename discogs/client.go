package discogs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/rs/zerolog"
)

const (
	// maxBodySize caps how much of a provider response is read.
	maxBodySize = 1 << 20

	endpointRequestToken = "request_token"
	endpointAccessToken  = "access_token"
	endpointIdentity     = "identity"
	endpointProfile      = "profile"
	endpointAPI          = "api"
)

// Client talks to the Discogs OAuth endpoints and signs catalog calls.
type Client struct {
	signer        *oauth1.Signer
	signerOptions []oauth1.SignerOption
	endpoints     Endpoints
	httpClient    *http.Client
	userAgent     string
	metrics       *Metrics
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for provider calls.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints points the client at a different provider (a fake provider in tests).
func WithEndpoints(endpoints Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithMetrics records every provider call.
func WithMetrics(metrics *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithSignerOptions passes options to every Signer the client builds (clock, nonce source).
func WithSignerOptions(options ...oauth1.SignerOption) ClientOption {
	return func(c *Client) {
		c.signerOptions = append(c.signerOptions, options...)
	}
}

// NewClient builds a client for the given consumer credential.
func NewClient(consumer oauth1.ConsumerCredential, options ...ClientOption) (*Client, error) {
	c := &Client{
		endpoints:  DefaultEndpoints(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  UserAgent,
	}
	for _, opt := range options {
		opt(c)
	}

	signer, err := oauth1.NewSigner(consumer, c.signerOptions...)
	if err != nil {
		return nil, fmt.Errorf("[NewClient] %w", err)
	}
	c.signer = signer
	return c, nil
}

// Endpoints returns the provider URLs the client uses.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// AuthorizationURL is where the browser is sent to approve requestToken.
func (c *Client) AuthorizationURL(requestToken string) string {
	return c.endpoints.AuthorizationURL(requestToken)
}

// response is a fully read provider response.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do signs and sends one request. Transport failures are returned as errors; HTTP error statuses
// are not, the caller decides which error type they map to.
func (c *Client) do(ctx context.Context, endpoint string, signer *oauth1.Signer, method, target string, body io.Reader, token *oauth1.TokenCredential, extra ...oauth1.Param) (*response, error) {
	authorization, err := signer.AuthorizationHeader(token, extra...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, 0, time.Since(start))
		logger.Debug().Err(err).Str("endpoint", endpoint).Str("method", method).Msg("discogs request failed")
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.observe(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, target, err)
	}

	rl := parseRateLimit(resp.Header)
	c.metrics.observeRateLimit(rl)
	logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Int("status", resp.StatusCode).
		Int("ratelimit", rl.Limit).
		Int("ratelimit_remaining", rl.Remaining).
		Int("ratelimit_used", rl.Used).
		Dur("elapsed", time.Since(start)).
		Msg("discogs request")

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// RateLimit mirrors the X-Discogs-Ratelimit* response headers. Zero values mean the header was absent.
type RateLimit struct {
	Limit     int
	Remaining int
	Used      int
}

func parseRateLimit(h http.Header) RateLimit {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(h.Get(key))
		return n
	}
	return RateLimit{
		Limit:     atoi("X-Discogs-Ratelimit"),
		Remaining: atoi("X-Discogs-Ratelimit-Remaining"),
		Used:      atoi("X-Discogs-Ratelimit-Used"),
	}
}
