// Package ratelimit implements a fixed-window request counter per client,
// backed by Redis so every API process shares the same budget.
//
// Each client gets one counter per clock-aligned bucket:
//
//	key = <prefix>:<client>:<window_start>   window_start = now - now%window
//
// The counter is incremented and, on first use, given an expiry equal to
// the window in a single Lua script, so concurrent requests never lose an
// increment and a counter never outlives its bucket. A client can get up to
// 2×limit requests through across a bucket boundary.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notes-api/internal/apperr"
)

var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int64
	Limit     int
	Remaining int
	ResetAt   time.Time // end of the current bucket
}

// Governor counts requests per client and bucket.
type Governor struct {
	rdb     redis.Scripter
	prefix  string
	window  time.Duration
	limit   int
	timeout time.Duration
	now     func() time.Time
}

// New returns a Governor allowing limit requests per window per client.
// window is rounded to whole seconds, the granularity of the buckets.
// timeout bounds each counter update.
func New(rdb redis.Scripter, prefix string, window time.Duration, limit int, timeout time.Duration) *Governor {
	window = window.Round(time.Second)
	if window < time.Second {
		window = time.Second
	}
	if limit < 1 {
		limit = 1
	}
	return &Governor{rdb: rdb, prefix: prefix, window: window, limit: limit, timeout: timeout, now: time.Now}
}

// WindowStart returns the bucket boundary t falls into.
func (g *Governor) WindowStart(t time.Time) time.Time {
	sec := int64(g.window / time.Second)
	unix := t.Unix()
	return time.Unix(unix-unix%sec, 0)
}

// Key returns the counter key for client in the bucket containing t.
func (g *Governor) Key(client string, t time.Time) string {
	return g.prefix + ":" + client + ":" + strconv.FormatInt(g.WindowStart(t).Unix(), 10)
}

// Allow counts one request for client. Any store error, including a
// timeout, is returned wrapped in apperr.ErrRateLimited together with a
// rejecting Decision: the governor fails closed.
func (g *Governor) Allow(ctx context.Context, client string) (Decision, error) {
	now := g.now()
	d := Decision{Limit: g.limit, ResetAt: g.WindowStart(now).Add(g.window)}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	count, err := incrScript.Run(ctx, g.rdb, []string{g.Key(client, now)}, g.window.Milliseconds()).Int64()
	if err != nil {
		return d, fmt.Errorf("%w: counter store: %v", apperr.ErrRateLimited, err)
	}

	d.Count = count
	d.Allowed = count <= int64(g.limit)
	if rem := int64(g.limit) - count; rem > 0 {
		d.Remaining = int(rem)
	}
	return d, nil
}
