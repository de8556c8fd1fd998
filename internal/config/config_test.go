package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "notes")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "notes")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 30, cfg.AccessTTLMin)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, "email.send", cfg.EmailQueue)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.RabbitURL)
}

func TestLoad_InvalidBcryptCostFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "99")

	assert.Equal(t, 10, Load().BcryptCost)
}

func TestLoadRateLimitConfig(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, "ip", cfg.KeyStrategy)

	t.Setenv("RATE_LIMIT_WINDOW", "10ms")
	t.Setenv("RATE_LIMIT_LIMIT", "0")
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	cfg = LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Second, cfg.Window)
	assert.Equal(t, 1, cfg.Limit)
}

func TestLoadRateLimitConfig_RoundsWindowToSeconds(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "1500ms")
	assert.Equal(t, 2*time.Second, LoadRateLimitConfig().Window)

	t.Setenv("RATE_LIMIT_WINDOW", "90400ms")
	assert.Equal(t, 90*time.Second, LoadRateLimitConfig().Window)
}

func TestLoadCacheConfig(t *testing.T) {
	cfg := LoadCacheConfig()
	assert.Equal(t, 60*time.Second, cfg.TTL)
	assert.Equal(t, "notes", cfg.Prefix)
	assert.Equal(t, 3, cfg.InvalidateAttempts)

	t.Setenv("CACHE_INVALIDATE_ATTEMPTS", "-2")
	t.Setenv("CACHE_TTL", "garbage")
	cfg = LoadCacheConfig()
	assert.Equal(t, 1, cfg.InvalidateAttempts)
	assert.Equal(t, 60*time.Second, cfg.TTL)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	opts, err := redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	t.Setenv("REDIS_URL", "redis://:pw@other:6379/3")
	opts, err = redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "other:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	t.Setenv("REDIS_URL", "http://nope")
	_, err = redisOptions()
	assert.Error(t, err)
}

func TestLoadQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "amqp://a:b@rabbit:5672/")
	t.Setenv("AMQP_URL", "amqp://ignored/")
	t.Setenv("EMAIL_SEND_DELAY", "250ms")

	cfg := LoadQueueConfig()

	assert.Equal(t, "amqp://a:b@rabbit:5672/", cfg.RabbitURL)
	assert.Equal(t, "email.send", cfg.EmailQueue)
	assert.Equal(t, 250*time.Millisecond, cfg.EmailSendDelay)
}
