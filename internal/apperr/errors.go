// Package apperr holds the error taxonomy shared by the auth, rate limiting
// and cache layers. Handlers and middleware map these sentinels to HTTP
// status codes with HTTPStatus; everything else wraps them with %w.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials covers every authentication failure: bad or
	// expired token, malformed token, missing subject, unknown user. The
	// caller never learns which check failed.
	ErrInvalidCredentials = errors.New("could not validate credentials")

	// ErrForbidden is returned when an authenticated identity does not
	// satisfy the required role.
	ErrForbidden = errors.New("operation not permitted")

	// ErrRateLimited is returned when the window ceiling is exceeded or the
	// counter store cannot be reached (fail-closed).
	ErrRateLimited = errors.New("too many requests")

	// ErrDependencyUnavailable wraps record store, cache store and broker
	// failures that outlived their timeout.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
