package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation indicates a uniqueness or reference constraint rejected a write.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrUnauthorized indicates a missing identity or a denied authorization decision.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream wraps failures of postgres, redis or the job queue.
	ErrUpstream = errors.New("upstream failure")
	// ErrValidation indicates rejected user input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an error to text that may be shown to an administrator.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
		return "The requested resource is not available."
	case errors.Is(err, ErrConstraintViolation):
		return "A record with the same values already exists."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrValidation):
		return "Please check the submitted values."
	default:
		return "Something went wrong, please try again later."
	}
}
