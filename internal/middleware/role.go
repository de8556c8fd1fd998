package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/auth"
	"github.com/iliyamo/notes-api/internal/model"
)

// Authorizer checks an identity against a policy.
type Authorizer interface {
	Authorize(u model.User, p auth.Policy) (model.User, error)
}

// RequireRole returns a middleware that lets the request through only when
// the identity stored by Authenticate satisfies p. It must be mounted after
// Authenticate; a missing identity answers 401, a failed check 403.
func RequireRole(a Authorizer, p auth.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentIdentity(c)
			if !ok {
				return deny(c, apperr.ErrInvalidCredentials)
			}
			if _, err := a.Authorize(u, p); err != nil {
				return deny(c, err)
			}
			return next(c)
		}
	}
}
