package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/auth"
	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
)

// UserStore is the part of the user repository the auth and admin handlers
// use.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash, role string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users   UserStore
	Hasher  auth.Hasher
	Tokens  *auth.TokenService
	Timeout time.Duration
	Log     logrus.FieldLogger
}

func NewAuthHandler(users UserStore, hasher auth.Hasher, tokens *auth.TokenService, timeout time.Duration, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Users: users, Hasher: hasher, Tokens: tokens, Timeout: timeout, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type userResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

const (
	errBadLogin      = "incorrect username or password"
	maxPasswordBytes = 72
)

func toUserResp(u model.User) userResp {
	return userResp{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

func validateCredentials(req credentialsReq) string {
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		return "username must be 3 to 50 characters"
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	// bcrypt refuses inputs longer than 72 bytes
	if len(req.Password) > maxPasswordBytes {
		return "password must be at most 72 bytes"
	}
	return ""
}

// Register creates a user with role "user".
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if msg := validateCredentials(req); msg != "" {
		return badRequest(c, msg)
	}

	digest, err := h.Hasher.Hash(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("hash password failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Username, digest, model.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already registered"})
		}
		return storeFailure(c, h.Log, "create user", err)
	}
	h.Log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Login verifies credentials and issues an access token. An unknown
// username and a wrong password produce the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username/password required")
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": errBadLogin})
		}
		return storeFailure(c, h.Log, "load user", err)
	}
	if !h.Hasher.Verify(req.Password, u.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": errBadLogin})
	}

	tok, err := h.Tokens.Issue(u.Username, 0)
	if err != nil {
		h.Log.WithError(err).Error("issue access token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: tok.Token, TokenType: "bearer", ExpiresAt: tok.Exp})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// ListUsers returns every account. Mounted behind the admin policy.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return storeFailure(c, h.Log, "list users", err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}
