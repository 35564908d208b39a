package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/cizu-api/internal/redact"
)

// RetryPolicy controls transport-level retries of a single provider call.
// It is separate from the sentence attempt loop: a call is retried only when
// the failure looks transient (network, rate limit, server error).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NewRetryPolicy builds a policy from configuration values, substituting
// defaults for out-of-range input.
func NewRetryPolicy(maxRetries, retryDelaySeconds int) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 3
	}
	if retryDelaySeconds < 1 {
		retryDelaySeconds = 2
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Duration(retryDelaySeconds) * time.Second,
	}
}

// IsPermanent reports whether err should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// CallWithRetry invokes call, retrying transient failures with exponential
// backoff and jitter: delay = base * 2^attempt * (0.5 + rand[0, 0.5)).
// Permanent errors are returned immediately.
func CallWithRetry[T any](
	ctx context.Context,
	logger *slog.Logger,
	policy RetryPolicy,
	operation string,
	call func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		logger.DebugContext(ctx, "calling language model",
			slog.String("operation", operation),
			slog.Int("attempt", attemptNum),
			slog.Int("max_attempts", policy.MaxRetries+1))

		result, err := call(ctx)
		if err == nil {
			return result, nil
		}

		if IsPermanent(err) {
			logger.WarnContext(ctx, "language model call failed permanently",
				slog.String("operation", operation),
				slog.Int("attempt", attemptNum),
				redact.ErrorAttr(err))
			return zero, err
		}

		if attempt >= policy.MaxRetries {
			logger.ErrorContext(ctx, "maximum retry attempts reached",
				slog.String("operation", operation),
				slog.Int("max_retries", policy.MaxRetries),
				redact.ErrorAttr(err))
			return zero, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				ErrTransientFailure, policy.MaxRetries, err)
		}

		backoff := float64(policy.BaseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rand.Float64()*0.5))

		logger.InfoContext(ctx, "retrying language model call after delay",
			slog.String("operation", operation),
			slog.Int("attempt", attemptNum),
			slog.Duration("delay", delay),
			redact.ErrorAttr(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w: %w", ErrTransientFailure, ctx.Err())
		}
	}
}
