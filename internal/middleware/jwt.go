package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/model"
)

// Authenticator resolves a raw bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// Authenticate returns a middleware that requires a valid Bearer access
// token and stores the resolved identity on the context (see
// CurrentIdentity). Missing, malformed and rejected tokens all answer 401
// with the same body; a record store failure answers 503.
//
// The identity lookup runs detached from the client's cancellation but is
// bounded by timeout. Failures other than rejected credentials are logged
// with their cause; the client only sees the sentinel message.
func Authenticate(a Authenticator, timeout time.Duration, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return deny(c, apperr.ErrInvalidCredentials)
			}

			ctx := context.WithoutCancel(c.Request().Context())
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			u, err := a.Authenticate(ctx, raw)
			if err != nil {
				if !errors.Is(err, apperr.ErrInvalidCredentials) {
					log.WithError(err).WithFields(logrus.Fields{
						"path":       c.Request().URL.Path,
						"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
					}).Error("identity lookup failed")
				}
				return deny(c, err)
			}
			setIdentity(c, u)
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
