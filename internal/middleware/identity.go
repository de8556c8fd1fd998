package middleware

// identity.go holds the accessors for the authenticated identity that
// Authenticate stores on the echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/model"
)

const identityKey = "identity"

// CurrentIdentity returns the identity resolved for this request. ok is
// false on routes that are not behind Authenticate.
func CurrentIdentity(c echo.Context) (model.User, bool) {
	u, ok := c.Get(identityKey).(model.User)
	return u, ok
}

func setIdentity(c echo.Context, u model.User) {
	c.Set(identityKey, u)
}
