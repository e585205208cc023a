package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// CachedCalendar decorates a CalendarSource with a redis read-through cache.
// Entries are keyed by calendar day because the agenda window starts today.
// Redis failures never fail the lookup: the source is queried directly.
type CachedCalendar struct {
	source model.CalendarSource
	rdb    redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewCachedCalendar(source model.CalendarSource, rdb redis.Cmdable, ttl time.Duration) *CachedCalendar {
	return &CachedCalendar{source: source, rdb: rdb, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source used to derive the cache key.
func (c *CachedCalendar) WithClock(now func() time.Time) *CachedCalendar {
	c.now = now
	return c
}

func (c *CachedCalendar) calendarKey(day time.Time) string {
	return fmt.Sprintf("calendar:events:%s", day.Format("2006-01-02"))
}

// Events implements model.CalendarSource.
func (c *CachedCalendar) Events(ctx context.Context) (string, error) {
	if c.rdb == nil || c.ttl <= 0 {
		return c.source.Events(ctx)
	}
	key := c.calendarKey(c.now())

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		logx.Debug().Str("key", key).Msg("Calendar cache hit")
		return cached, nil
	case errors.Is(err, redis.Nil):
		logx.Debug().Str("key", key).Msg("Calendar cache miss")
	default:
		logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("Calendar cache read failed, querying source")
	}

	out, err := c.source.Events(ctx)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("Calendar cache write failed")
	}
	return out, nil
}

var _ model.CalendarSource = (*CachedCalendar)(nil)
