package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Discogs authentication core
var (
	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")

	// Provider errors
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	ErrUpstreamAPI  = errors.New("upstream api call failed")

	// Login flow errors
	ErrCallbackValidation   = errors.New("invalid callback")
	ErrCallbackNotConfirmed = errors.New("callback not confirmed by provider")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrFlashNotFound    = errors.New("request token secret not found")
	ErrFlashConsumed    = errors.New("request token secret already used")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
