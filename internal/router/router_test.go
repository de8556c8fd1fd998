package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/auth"
	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/model"
)

type staticAuthenticator map[string]model.User

func (a staticAuthenticator) Authenticate(_ context.Context, raw string) (model.User, error) {
	if u, ok := a[raw]; ok {
		return u, nil
	}
	return model.User{}, apperr.ErrInvalidCredentials
}

func newTestServer(t *testing.T, rateLimit echo.MiddlewareFunc) (*echo.Echo, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	users := staticAuthenticator{
		"user-token":  {ID: 1, Username: "alice", Role: model.RoleUser},
		"admin-token": {ID: 2, Username: "root", Role: model.RoleAdmin},
	}
	guard := auth.NewGuard(auth.NewTokenService("router-test", time.Minute), nil)
	authn := middleware.Authenticate(users, time.Second, logger)
	admin := middleware.RequireRole(guard, auth.AdminOnly)

	authH := handler.NewAuthHandler(nil, auth.NewHasher(0), nil, time.Second, logger)
	noteH := handler.NewNoteHandler(nil, nil, time.Second, logger)
	emailH := handler.NewEmailHandler(nil, time.Second, logger)

	e := echo.New()
	UseCommon(e, logger, rateLimit)
	RegisterRoutes(e)
	RegisterAuth(e, authH, authn)
	RegisterAdmin(e, authH, authn, admin)
	RegisterNotes(e, noteH, authn)
	RegisterEmail(e, emailH, authn)
	return e, hook
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRoutesRegistered(t *testing.T) {
	e, _ := newTestServer(t, passThrough)

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"GET /v1/users/me",
		"GET /v1/admin/users",
		"POST /v1/notes",
		"GET /v1/notes",
		"GET /v1/notes/:id",
		"PUT /v1/notes/:id",
		"DELETE /v1/notes/:id",
		"POST /v1/send-email",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestAdminRouteRequiresAdminRole(t *testing.T) {
	e, _ := newTestServer(t, passThrough)

	for token, want := range map[string]int{
		"":           http.StatusUnauthorized,
		"user-token": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "token %q", token)
	}
}

func TestRateLimitRunsBeforeAuthentication(t *testing.T) {
	block := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too_many_requests"})
		}
	}
	e, hook := newTestServer(t, block)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request rejected", entry.Message)
	assert.Equal(t, http.StatusTooManyRequests, entry.Data["status"])
}

func TestHealthThroughMiddleware(t *testing.T) {
	e, _ := newTestServer(t, passThrough)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
