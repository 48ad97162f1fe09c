package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrUnverifiedEmail    = errors.New("email address has not been confirmed")
	ErrProvider           = errors.New("identity provider rejected the sign-in")

	// ErrUnknownProvider is returned for a federated provider name that is
	// not configured.
	ErrUnknownProvider = errors.New("unknown identity provider")
)

// AuthError records which authentication operation failed. Err is one of the
// sentinel errors above, possibly wrapping a lower-level cause.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func authErr(op string, kind error, cause error) error {
	if cause == nil {
		return &AuthError{Op: op, Err: kind}
	}
	return &AuthError{Op: op, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// Message returns the user-facing text for an authentication failure. Causes
// below the sentinel are never exposed.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrDuplicateAccount):
		return ErrDuplicateAccount.Error()
	case errors.Is(err, ErrUnverifiedEmail):
		return "please verify your e-mail address first"
	case errors.Is(err, ErrProvider):
		return "sign-in with the identity provider failed"
	default:
		return "authentication failed"
	}
}
