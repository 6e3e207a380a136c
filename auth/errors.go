package auth

import "errors"

// Sentinel errors for session handling.
var (
	ErrNoSession      = errors.New("auth: no session")
	ErrSessionExpired = errors.New("auth: session expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrStorage        = errors.New("auth: session storage failed")

	// ErrForbidden is returned when a role lacks a capability.
	ErrForbidden = errors.New("auth: access denied")
)
