package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))
	assert.True(t, errors.Is(notFound, redis.Nil))

	boom := errors.New("connection reset")
	wrapped := WrapRedis(boom)
	assert.Equal(t, http.StatusBadGateway, StatusOf(wrapped))
	assert.ErrorIs(t, wrapped, boom)
	assert.Contains(t, wrapped.Error(), RedisErrorMessage)
}

func TestWrapUpstream(t *testing.T) {
	err := WrapUpstream("agenda", ErrNotConfigured)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), "agenda")
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("x")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(New(nil, http.StatusBadRequest, BadRequestMessage)))
}
