package auth

// State is where a browser is in the login flow.
type State int

const (
	// Anonymous: no valid session cookie.
	Anonymous State = iota
	// RequestTokenIssued: a pending login (flash) exists and the browser was sent to the provider.
	RequestTokenIssued
	// Authenticated: a valid session cookie carries the user and access token.
	Authenticated
	// Failed: the last callback could not be completed. Nothing was persisted.
	Failed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case RequestTokenIssued:
		return "request_token_issued"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateAfter is the state a callback leaves the browser in given CompleteLogin's error.
func StateAfter(err error) State {
	if err != nil {
		return Failed
	}
	return Authenticated
}
