package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {

	assert := assert.New(t)

	calls := 0
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ezlogger.ErrProtocol
		}
		return nil
	})
	assert.NoError(err)
	assert.Equal(3, calls)
}

func TestRetryExhausted(t *testing.T) {

	assert := assert.New(t)

	calls := 0
	policy := RetryPolicy{MaxAttempts: 4, Delay: 10 * time.Millisecond}
	start := time.Now()
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return ezlogger.ErrConnect
	})
	assert.Equal(4, calls)
	assert.ErrorIs(err, ErrAttemptsExhausted)
	assert.ErrorIs(err, ezlogger.ErrConnect, "last error kept")
	assert.GreaterOrEqual(time.Since(start), 30*time.Millisecond, "three delays between four attempts")
}

func TestRetryAtLeastOneAttempt(t *testing.T) {

	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {

	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxAttempts: 10, Delay: time.Hour}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		return ezlogger.ErrTimeout
	})
	assert.Equal(1, calls)
	assert.ErrorIs(err, context.Canceled)
	assert.ErrorIs(err, ezlogger.ErrTimeout)
}

func TestPollWithRetry(t *testing.T) {

	require := require.New(t)

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	reader.QueueError(ezlogger.ErrConnect)
	reader.QueueError(errors.New("reset by peer"))

	srv := NewPollingService(reader, nil, false, nil)
	frame, err := PollWithRetry(context.Background(), RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}, srv)
	require.NoError(err)
	require.NotNil(frame)
	require.Equal(3, reader.Fetches())
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy(nil)
	assert.Equal(t, 10, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.Delay)
}

func TestRetryBudget(t *testing.T) {
	retry := RetryPolicy{MaxAttempts: 10, Delay: 5 * time.Second}
	assert.Equal(t, 151*time.Second, retry.Budget(10*time.Second))
	assert.Equal(t, 2*time.Second, RetryPolicy{}.Budget(time.Second))
}
