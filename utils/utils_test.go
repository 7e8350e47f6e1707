package utils

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotly/internal/status"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, uint32(5), cb.maxFailures)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	err := cb.Execute(context.Background(), func() error {
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")

	expectedError := errors.New("test error")
	err := cb.Execute(context.Background(), func() error {
		return expectedError
	})

	assert.Equal(t, expectedError, err)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := cb.Execute(ctx, func() error {
			return errors.New("failure")
		})
		assert.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Open breaker rejects without executing
	err := cb.Execute(ctx, func() error {
		t.Fatal("should not be executed when circuit is open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		cb.Execute(ctx, func() error { return errors.New("failure") })
	}
	assert.NoError(t, cb.Execute(ctx, func() error { return nil }))

	// The streak restarted, so four more failures stay under the threshold
	for i := 0; i < 4; i++ {
		cb.Execute(ctx, func() error { return errors.New("failure") })
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.timeout = 50 * time.Millisecond
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() error { return errors.New("failure") })
	}
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(80 * time.Millisecond)

	// First probe after the timeout is allowed; success closes the breaker
	err := cb.Execute(ctx, func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.timeout = 50 * time.Millisecond
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() error { return errors.New("failure") })
	}

	time.Sleep(80 * time.Millisecond)

	err := cb.Execute(ctx, func() error { return errors.New("still failing") })
	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ContextCancelled(t *testing.T) {
	cb := NewCircuitBreaker("test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func() error {
		t.Fatal("should not be executed with a cancelled context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.counts.Requests)
}

func TestCircuitBreaker_PanicRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	assert.Panics(t, func() {
		cb.Execute(ctx, func() error {
			panic("test panic")
		})
	})

	// A panic counts as a failure and the breaker keeps working
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
	assert.NoError(t, cb.Execute(ctx, func() error { return nil }))
}

// Ticket Token Tests

func TestGenerateTicketToken_Roundtrip(t *testing.T) {
	token, err := GenerateTicketToken("secret", "tik123", "evt456", "usr789", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyTicketToken("secret", token)
	require.NoError(t, err)

	assert.Equal(t, "tik123", claims.TicketID)
	assert.Equal(t, "evt456", claims.EventID)
	assert.Equal(t, "usr789", claims.UserID)
}

func TestGenerateTicketToken_EmptySecret(t *testing.T) {
	_, err := GenerateTicketToken("", "tik123", "evt456", "usr789", time.Hour)
	assert.Error(t, err)
}

func TestVerifyTicketToken_Expired(t *testing.T) {
	token, err := GenerateTicketToken("secret", "tik123", "evt456", "usr789", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyTicketToken("secret", token)
	assert.ErrorIs(t, err, status.ErrExpiredToken)
}

func TestVerifyTicketToken_WrongSecret(t *testing.T) {
	token, err := GenerateTicketToken("secret", "tik123", "evt456", "usr789", time.Hour)
	require.NoError(t, err)

	_, err = VerifyTicketToken("other-secret", token)
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

func TestVerifyTicketToken_Garbage(t *testing.T) {
	_, err := VerifyTicketToken("secret", "not.a.token")
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

// QR Code Tests

func TestRenderQRCode(t *testing.T) {
	png, err := RenderQRCode("https://example.com/tickets/abc")
	require.NoError(t, err)

	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

// Random Code Tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, code, string(bytes.ToUpper([]byte(code))))

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetErr(errors.New("connection failed"))

	err := RedisHealthCheck(db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
