package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the issuer, validator, rate limiter and token client.
var (
	// Issuance errors
	ErrInvalidClient        = errors.New("invalid client")
	ErrInvalidGrant         = errors.New("invalid grant")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrRateLimited          = errors.New("too many requests")

	// Validation errors
	ErrInvalidToken = errors.New("invalid token")

	// Token client / registry errors
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrUnknownRemote     = errors.New("unknown remote")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// WithCause marks cause with a sentinel so both match with Is
func WithCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
