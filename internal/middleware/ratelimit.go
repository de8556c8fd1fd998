package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/ratelimit"
)

// Limiter counts one request for a client key.
type Limiter interface {
	Allow(ctx context.Context, client string) (ratelimit.Decision, error)
}

// NewFixedWindow returns a middleware that admits at most cfg.Limit
// requests per client per window. When the counter store cannot be reached
// the request is rejected exactly like an over-limit one.
func NewFixedWindow(cfg config.RateLimitConfig, lim Limiter, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || lim == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := clientKey(cfg, c)
			ctx := context.WithoutCancel(c.Request().Context())

			d, err := lim.Allow(ctx, client)
			if err != nil {
				log.WithError(err).WithField("client", client).Warn("rate limiter unavailable, rejecting request")
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.ResetAt.IsZero() {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if err != nil || !d.Allowed {
				secs := retryAfter(d.ResetAt)
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					log.WithFields(logrus.Fields{"client": client, "count": d.Count, "retry_after": secs}).Info("rate limit block")
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func retryAfter(resetAt time.Time) int {
	if resetAt.IsZero() {
		return 1
	}
	secs := int(math.Ceil(time.Until(resetAt).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func clientKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip_route":
		return strings.Join([]string{ip, c.Request().Method, c.Path()}, ":")
	default:
		return ip
	}
}
