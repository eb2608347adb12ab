package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin session subsystem
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("account is not an admin account")
	ErrNetworkOrServer    = errors.New("network or server error")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrNotFound       = errors.New("no stored session")
)

// Wrapf adds context to an error, keeping the chain intact
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
