package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls int
	out   string
	err   error
}

func (s *countingSource) Events(ctx context.Context) (string, error) {
	s.calls++
	return s.out, s.err
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

var day = time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)

func TestCachedCalendarReadThrough(t *testing.T) {
	mr, rdb := setupRedis(t)
	src := &countingSource{out: "📌 Modelo 303"}
	c := NewCachedCalendar(src, rdb, time.Hour).WithClock(func() time.Time { return day })

	out, err := c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "📌 Modelo 303", out)

	out, err = c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "📌 Modelo 303", out)
	assert.Equal(t, 1, src.calls)

	got, err := mr.Get("calendar:events:2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, "📌 Modelo 303", got)
	assert.Equal(t, time.Hour, mr.TTL("calendar:events:2025-10-15"))

	mr.FastForward(2 * time.Hour)
	_, err = c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedCalendarDoesNotCacheErrors(t *testing.T) {
	mr, rdb := setupRedis(t)
	src := &countingSource{err: errors.New("agenda down")}
	c := NewCachedCalendar(src, rdb, time.Hour).WithClock(func() time.Time { return day })

	_, err := c.Events(context.Background())
	assert.Error(t, err)
	assert.False(t, mr.Exists("calendar:events:2025-10-15"))
}

func TestCachedCalendarRedisDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()
	src := &countingSource{out: "No hay eventos próximos."}
	c := NewCachedCalendar(src, rdb, time.Hour)

	out, err := c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No hay eventos próximos.", out)
	assert.Equal(t, 1, src.calls)
}

func TestCachedCalendarDisabled(t *testing.T) {
	src := &countingSource{out: "x"}
	c := NewCachedCalendar(src, nil, time.Hour)
	for i := 0; i < 3; i++ {
		_, err := c.Events(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
}
