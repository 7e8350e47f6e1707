package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:checkout:user:abc").SetVal(1)
	mock.ExpectExpire("ratelimit:checkout:user:abc", time.Minute).SetVal(true)

	allowed, err := limiter.allow(context.Background(), "checkout", "user:abc", 10, time.Minute)

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RejectOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:checkout:user:abc").SetVal(11)

	allowed, err := limiter.allow(context.Background(), "checkout", "user:abc", 10, time.Minute)

	require.NoError(t, err)
	assert.False(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_ExactLimitAllowed(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:checkout:user:abc").SetVal(10)

	allowed, err := limiter.allow(context.Background(), "checkout", "user:abc", 10, time.Minute)

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:checkout:1.2.3.4").SetErr(errors.New("redis down"))

	allowed, err := limiter.allow(context.Background(), "checkout", "1.2.3.4", 10, time.Minute)

	assert.Error(t, err)
	assert.True(t, allowed)
}
