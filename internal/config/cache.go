package config

import "time"

// CacheConfig defines settings for the per-owner note listing cache.
// When Enabled is false the listing handler always reads the record store.
// TTL is the lifetime of a cached listing and therefore the upper bound on
// staleness when an invalidation is lost. Prefix namespaces both the
// listing keys and the per-owner key index. InvalidateAttempts and
// InvalidateBackoff bound the retry loop run after every note mutation.
type CacheConfig struct {
	Enabled            bool
	TTL                time.Duration
	Prefix             string
	Timeout            time.Duration
	InvalidateAttempts int
	InvalidateBackoff  time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:            envBool("CACHE_ENABLED", true),
		TTL:                envDur("CACHE_TTL", 60*time.Second),
		Prefix:             envStr("CACHE_PREFIX", "notes"),
		Timeout:            envDur("CACHE_TIMEOUT", 500*time.Millisecond),
		InvalidateAttempts: envInt("CACHE_INVALIDATE_ATTEMPTS", 3),
		InvalidateBackoff:  envDur("CACHE_INVALIDATE_BACKOFF", 50*time.Millisecond),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	if cfg.InvalidateAttempts < 1 {
		cfg.InvalidateAttempts = 1
	}
	return cfg
}
