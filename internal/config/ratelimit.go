package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures the fixed-window request governor.
// Window is the bucket length; Limit is the number of requests a client may
// make inside one bucket. Timeout bounds the counter increment; a timeout is
// treated like any other store failure and rejects the request.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	Limit       int
	Timeout     time.Duration
	KeyStrategy string
	Prefix      string
	Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Window:      envDur("RATE_LIMIT_WINDOW", time.Minute),
		Limit:       envInt("RATE_LIMIT_LIMIT", 10),
		Timeout:     envDur("RATE_LIMIT_TIMEOUT", 500*time.Millisecond),
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rate"),
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Limit < 1 {
		def.Limit = 1
	}
	// Buckets are aligned on whole seconds, so the window is rounded to one;
	// anything shorter collapses to 1s.
	def.Window = def.Window.Round(time.Second)
	if def.Window < time.Second {
		def.Window = time.Second
	}
	if def.Timeout <= 0 {
		def.Timeout = 500 * time.Millisecond
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
