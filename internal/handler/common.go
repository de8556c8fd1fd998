package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/model"
)

const defaultStoreTimeout = 5 * time.Second

// storeContext derives the context for record store and cache calls. A
// client hanging up does not abort a write halfway; timeout still bounds it.
func storeContext(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(context.WithoutCancel(c.Request().Context()), timeout)
}

// storeFailure logs err and answers 503.
func storeFailure(c echo.Context, log logrus.FieldLogger, op string, err error) error {
	log.WithError(err).WithFields(logrus.Fields{
		"op":         op,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).Error("record store failure")
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": apperr.ErrDependencyUnavailable.Error()})
}

// badRequest answers 400 with the validation message.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// identity returns the authenticated user. Routes using it are mounted
// behind middleware.Authenticate, so a miss is a wiring bug.
func identity(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentIdentity(c)
	if !ok {
		return model.User{}, errors.New("handler: no identity on context")
	}
	return u, nil
}
