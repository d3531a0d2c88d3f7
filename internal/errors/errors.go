package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the auth/session core. Provider-side detail is logged at
// the boundary that saw it; only these coarse sentinels cross package lines.
var (
	// Login flow errors
	ErrInvalidState        = errors.New("invalid_state")
	ErrTokenExchangeFailed = errors.New("token_exchange_failed")
	ErrIdentityFetchFailed = errors.New("identity_fetch_failed")
	ErrRefreshFailed       = errors.New("refresh_failed")

	// Session errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionNotFound = errors.New("session not found")
	ErrStateNotFound   = errors.New("state not found")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
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
