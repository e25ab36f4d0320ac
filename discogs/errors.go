package discogs

import (
	"fmt"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
)

// UpstreamAuthError is returned when any call of the login chain (request token, access token,
// identity, profile) fails. Status is 0 when the request never got an HTTP response.
type UpstreamAuthError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamAuthError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("discogs %s: %v", e.Endpoint, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("discogs %s returned status %d: %v", e.Endpoint, e.Status, e.Err)
	default:
		return fmt.Sprintf("discogs %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
	}
}

func (e *UpstreamAuthError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, apperrors.ErrUpstreamAuth) hold for every UpstreamAuthError.
func (e *UpstreamAuthError) Is(target error) bool {
	return target == apperrors.ErrUpstreamAuth
}

// UpstreamAPIError is returned by SignedFetch for a non-2xx catalog response.
// Interpreting the status (revoked credential, rate limit, provider outage) is up to the caller.
type UpstreamAPIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("discogs %s %s returned status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *UpstreamAPIError) Is(target error) bool {
	return target == apperrors.ErrUpstreamAPI
}
