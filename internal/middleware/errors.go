package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/apperr"
)

// deny writes the JSON error body for err. Only the sentinel message
// reaches the client; wrapped details stay in the logs.
func deny(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return c.JSON(status, echo.Map{"error": publicMessage(err)})
}

func publicMessage(err error) string {
	for _, s := range []error{
		apperr.ErrInvalidCredentials,
		apperr.ErrForbidden,
		apperr.ErrRateLimited,
		apperr.ErrDependencyUnavailable,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return http.StatusText(http.StatusInternalServerError)
}
