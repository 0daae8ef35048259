// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package valkey

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// limitKeyPrefix is the Valkey key prefix for rate-limit counters.
const limitKeyPrefix = "ratelimit:"

// Limiter is a fixed-window request counter shared by every server
// instance. Each key may be hit limit times per window.
type Limiter struct {
	client redis.Cmdable
	name   string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a limiter. name namespaces its keys so several
// limiters can share one Valkey database.
func NewLimiter(client redis.Cmdable, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		name:   name,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records one hit for key and reports whether it is within the
// limit. Valkey failures fail open and are logged.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	k := l.key(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate limiter unavailable", "limiter", l.name, "error", err)
		return true
	}
	return incr.Val() <= int64(l.limit)
}

// key buckets hits by window so counters roll over without a sweep.
func (l *Limiter) key(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return limitKeyPrefix + l.name + ":" + key + ":" + strconv.FormatInt(bucket, 10)
}
