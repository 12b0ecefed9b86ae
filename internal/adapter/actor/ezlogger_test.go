package actor

import (
	"testing"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetTelemetryEZLoggerActor(t *testing.T) {

	assert := assert.New(t)

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	reader.QueueError(ezlogger.ErrConnect)
	poller := service.NewPollingService(reader, nil, false, nil)
	retry := service.RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Millisecond}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewEZLoggerActor(poller, retry, time.Second, logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.GetTelemetryRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.GetTelemetryResponse)
	require.True(t, ok)

	assert.False(resp.HasResponseError())
	require.NotNil(t, resp.Frame)
	assert.InDelta(231.0, resp.Frame.V1, 1e-9)
	assert.InDelta(3.738, resp.Frame.InvertersPower, 1e-9)
	assert.False(resp.PolledAt.IsZero())
	assert.Equal(2, reader.Fetches())

	context.Stop(pid)

	as.Shutdown()
}

func TestGetTelemetryEZLoggerActorExhausted(t *testing.T) {

	assert := assert.New(t)

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	reader.QueueError(ezlogger.ErrTimeout)
	reader.QueueError(ezlogger.ErrProtocol)
	poller := service.NewPollingService(reader, nil, false, nil)
	retry := service.RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond}

	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewEZLoggerActor(poller, retry, time.Second, logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.GetTelemetryRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.GetTelemetryResponse)
	assert.True(resp.HasResponseError())
	assert.ErrorIs(resp.GetResponseError(), service.ErrAttemptsExhausted)
	assert.ErrorIs(resp.GetResponseError(), ezlogger.ErrProtocol)
	assert.Nil(resp.Frame)

	// the actor keeps serving after a failed poll
	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health := result.(domain.ActorHealthResponse)
	assert.True(health.Healthy)
	assert.Contains(health.State, "1 failed polls")

	result, err = context.RequestFuture(pid, domain.GetTelemetryRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	assert.False(result.(domain.GetTelemetryResponse).HasResponseError())

	context.Stop(pid)

	as.Shutdown()
}

func TestEZLoggerActorSerializesRequests(t *testing.T) {

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	poller := service.NewPollingService(reader, nil, false, nil)

	logger := zap.NewNop()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewEZLoggerActor(poller, service.RetryPolicy{MaxAttempts: 1}, time.Second, logger)
	})
	pid := context.Spawn(props)

	futures := make([]*actor.Future, 5)
	for i := range futures {
		futures[i] = context.RequestFuture(pid, domain.GetTelemetryRequest{}, 5*time.Second)
	}
	for _, f := range futures {
		result, err := f.Result()
		require.NoError(t, err)
		assert.False(t, result.(domain.GetTelemetryResponse).HasResponseError())
	}
	assert.Equal(t, 5, reader.Fetches())

	context.Stop(pid)
	as.Shutdown()
}
