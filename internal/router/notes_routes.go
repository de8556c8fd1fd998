package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/handler"
)

// RegisterNotes registers the note endpoints under /v1/notes. Every route
// requires a valid access token; ownership is checked in the handler so a
// foreign note answers 403 and a missing one 404.
func RegisterNotes(e *echo.Echo, h *handler.NoteHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/notes", authn)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
