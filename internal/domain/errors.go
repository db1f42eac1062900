package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is matched by every AuthorizationError via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports one invalid field of a write request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthorizationError is returned for a missing or wrong write key.
// Reason is for server logs only; Error() is identical for every reason.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return ErrUnauthorized.Error() }

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

// ConfigurationError means the server is missing something it needs
// to serve the request, e.g. no write key configured.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("server misconfigured: %s is not set", e.Setting)
}
