package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/platform/logger"
)

func TestCallWithRetry(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
	log := logger.Discard()

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		got, err := CallWithRetry(context.Background(), log, policy, "test",
			func(ctx context.Context) (string, error) {
				calls++
				if calls < 3 {
					return "", errors.New("503 unavailable")
				}
				return "ok", nil
			})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := CallWithRetry(context.Background(), log, policy, "test",
			func(ctx context.Context) (int, error) {
				calls++
				return 0, errors.New("connection reset")
			})
		assert.ErrorIs(t, err, ErrTransientFailure)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := CallWithRetry(context.Background(), log, policy, "test",
			func(ctx context.Context) (int, error) {
				calls++
				return 0, ErrContentBlocked
			})
		assert.ErrorIs(t, err, ErrContentBlocked)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour}
		_, err := CallWithRetry(ctx, log, slow, "test",
			func(ctx context.Context) (int, error) {
				cancel()
				return 0, errors.New("timeout")
			})
		assert.ErrorIs(t, err, ErrTransientFailure)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(-1, 0)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.BaseDelay)
}
