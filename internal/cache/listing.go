// Package cache holds the read-through cache for per-owner note listings.
//
// Listings are keyed by query shape (offset, limit, search), so one owner
// can have many live entries. Every entry key is also recorded in a Redis
// set owned by that owner; invalidation reads the set and deletes its
// members and the set itself in one Lua script. No key pattern matching is
// involved.
package cache

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/model"
)

var invalidateScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
for i = 1, #members do
    redis.call('DEL', members[i])
end
redis.call('DEL', KEYS[1])
return #members
`)

// Options configure a ListingCache.
type Options struct {
	Prefix             string
	TTL                time.Duration
	Timeout            time.Duration
	InvalidateAttempts int
	InvalidateBackoff  time.Duration
}

// ListingCache stores serialized note listings per owner.
type ListingCache struct {
	rdb  redis.UniversalClient
	opts Options
	log  logrus.FieldLogger
}

func NewListingCache(rdb redis.UniversalClient, opts Options, log logrus.FieldLogger) *ListingCache {
	if opts.Prefix == "" {
		opts.Prefix = "notes"
	}
	if opts.TTL <= 0 {
		opts.TTL = 60 * time.Second
	}
	if opts.InvalidateAttempts < 1 {
		opts.InvalidateAttempts = 1
	}
	return &ListingCache{rdb: rdb, opts: opts, log: log}
}

// Key returns the entry key for one listing shape. The search term is
// hashed so arbitrary user input never ends up inside the key.
func (c *ListingCache) Key(owner uint64, f model.NoteFilter) string {
	sum := sha1.Sum([]byte(f.Search))
	return fmt.Sprintf("%s:%d:%d:%d:%x", c.opts.Prefix, owner, f.Offset, f.Limit, sum[:])
}

// IndexKey returns the key of the set tracking owner's live entries.
func (c *ListingCache) IndexKey(owner uint64) string {
	return fmt.Sprintf("%s:%d:keys", c.opts.Prefix, owner)
}

// Get returns the cached listing. A miss is (nil, false, nil); a store
// failure is reported as an error so the caller can fall back to the
// record store.
func (c *ListingCache) Get(ctx context.Context, owner uint64, f model.NoteFilter) ([]byte, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	bs, err := c.rdb.Get(ctx, c.Key(owner, f)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: cache get: %v", apperr.ErrDependencyUnavailable, err)
	}
	return bs, true, nil
}

// Put stores payload for one listing shape and records the key in the
// owner's index in the same transaction. The index expiry is pushed to the
// entry TTL on every put, so it always outlives its members.
func (c *ListingCache) Put(ctx context.Context, owner uint64, f model.NoteFilter, payload []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key, idx := c.Key(owner, f), c.IndexKey(owner)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, c.opts.TTL)
		pipe.SAdd(ctx, idx, key)
		pipe.PExpire(ctx, idx, c.opts.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: cache put: %v", apperr.ErrDependencyUnavailable, err)
	}
	return nil
}

// InvalidateOwner deletes every cached listing of owner. It retries with a
// linear backoff up to the configured number of attempts and logs each
// failure; the last error is returned. Each attempt gets a fresh timeout,
// so an expired or cancelled ctx does not cut the retries short. Invalidating an owner without
// entries is a no-op.
func (c *ListingCache) InvalidateOwner(ctx context.Context, owner uint64) error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.InvalidateAttempts; attempt++ {
		removed, err := c.invalidateOnce(ctx, owner)
		if err == nil {
			if attempt > 1 {
				c.log.WithFields(logrus.Fields{"owner_id": owner, "attempt": attempt}).Info("listing cache invalidated after retry")
			}
			c.log.WithFields(logrus.Fields{"owner_id": owner, "removed": removed}).Debug("listing cache invalidated")
			return nil
		}
		lastErr = err
		c.log.WithError(err).WithFields(logrus.Fields{"owner_id": owner, "attempt": attempt}).Warn("listing cache invalidation failed")
		if attempt < c.opts.InvalidateAttempts && c.opts.InvalidateBackoff > 0 {
			time.Sleep(time.Duration(attempt) * c.opts.InvalidateBackoff)
		}
	}
	c.log.WithError(lastErr).WithField("owner_id", owner).Error("listing cache invalidation gave up, entries expire with their TTL")
	return fmt.Errorf("%w: invalidate owner %d: %v", apperr.ErrDependencyUnavailable, owner, lastErr)
}

// invalidateOnce runs one attempt on its own deadline. Callers usually pass
// the context of the write that preceded it, whose deadline may be spent.
func (c *ListingCache) invalidateOnce(ctx context.Context, owner uint64) (int64, error) {
	ctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	return invalidateScript.Run(ctx, c.rdb, []string{c.IndexKey(owner)}).Int64()
}

func (c *ListingCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}
