// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/logging"
)

// UseCommon installs the middleware every request goes through. The rate
// limiter sits after logging and recovery so rejected requests are logged,
// and ahead of any route middleware so a blocked client never reaches
// authentication or the stores.
func UseCommon(e *echo.Echo, logger logrus.FieldLogger, rateLimit echo.MiddlewareFunc) {
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logging.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(rateLimit)
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.Health)
}

// RegisterAuth registers registration and login under /v1/auth and the
// authenticated profile endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/users/me", a.Me, authn)
}

// RegisterAdmin registers operator endpoints. admin must reject identities
// that fail the admin policy and runs after authn.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, authn, admin echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", authn, admin)
	g.GET("/users", a.ListUsers)
}

// RegisterEmail registers the background email endpoint.
func RegisterEmail(e *echo.Echo, h *handler.EmailHandler, authn echo.MiddlewareFunc) {
	e.POST("/v1/send-email", h.Send, authn)
}
