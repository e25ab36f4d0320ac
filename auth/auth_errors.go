package auth

import (
	"fmt"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
)

// Reasons a callback is rejected before any call to the provider.
const (
	ReasonMissingToken         = "missing oauth_token"
	ReasonMissingVerifier      = "missing oauth_verifier"
	ReasonMissingRequestSecret = "missing request token secret"
	ReasonTokenMismatch        = "oauth_token does not match the pending login"
)

// CallbackValidationError is a client error on the callback (HTTP 400). No provider call was made.
type CallbackValidationError struct {
	Reason string
	Err    error
}

func (e *CallbackValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid callback: %s: %v", e.Reason, e.Err)
	}
	return "invalid callback: " + e.Reason
}

func (e *CallbackValidationError) Unwrap() error {
	return e.Err
}

func (e *CallbackValidationError) Is(target error) bool {
	return target == apperrors.ErrCallbackValidation
}
