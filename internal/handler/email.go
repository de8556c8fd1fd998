package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/queue"
)

// EmailPublisher hands email requests to the background worker.
type EmailPublisher interface {
	PublishEmailRequested(ctx context.Context, ev queue.EmailRequestedEvent) error
}

type EmailHandler struct {
	Publisher EmailPublisher
	Timeout   time.Duration
	Log       logrus.FieldLogger
}

func NewEmailHandler(p EmailPublisher, timeout time.Duration, log logrus.FieldLogger) *EmailHandler {
	return &EmailHandler{Publisher: p, Timeout: timeout, Log: log}
}

type sendEmailReq struct {
	Email string `json:"email"`
}

// Send queues an email for the worker and answers 202 with the task id.
func (h *EmailHandler) Send(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	var req sendEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return badRequest(c, "invalid email address")
	}

	ev := queue.EmailRequestedEvent{
		TaskID:      uuid.NewString(),
		Email:       addr.Address,
		RequestedBy: u.ID,
		RequestedAt: time.Now().UTC(),
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	if err := h.Publisher.PublishEmailRequested(ctx, ev); err != nil {
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "email queue unavailable"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"task_id": ev.TaskID, "status": "queued"})
}
