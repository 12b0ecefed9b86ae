package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/port"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"go.uber.org/zap"
)

const (
	DefaultRetryAttempts = 10
	DefaultRetryDelay    = 5 * time.Second
)

var ErrAttemptsExhausted = errors.New("no correct response was received")

// RetryPolicy retries a call a bounded number of times with a fixed delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *zap.Logger
}

func DefaultRetryPolicy(logger *zap.Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultRetryAttempts,
		Delay:       DefaultRetryDelay,
		Logger:      logger,
	}
}

// Do calls fn until it succeeds, attempts run out or ctx is done. The last
// error is returned wrapped in ErrAttemptsExhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Info("retry: attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.String("kind", ezlogger.ErrorKind(lastErr)),
			zap.Error(lastErr))

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrAttemptsExhausted, errors.Join(lastErr, ctx.Err()))
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}

// Budget bounds a whole retried call when every attempt may take up to
// attemptTimeout and is followed by the retry delay.
func (p RetryPolicy) Budget(attemptTimeout time.Duration) time.Duration {
	attempts := max(p.MaxAttempts, 1)
	return time.Duration(attempts)*(attemptTimeout+p.Delay) + time.Second
}

// PollWithRetry polls under the policy and returns the first frame obtained.
func PollWithRetry(ctx context.Context, policy RetryPolicy, poller port.TelemetryPoller) (*ezlogger.TelemetryFrame, error) {
	var frame *ezlogger.TelemetryFrame
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		frame, err = poller.Poll(ctx)
		return err
	})
	return frame, err
}
