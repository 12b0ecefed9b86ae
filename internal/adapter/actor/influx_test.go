package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryWriter struct {
	mu     sync.Mutex
	frames []ezlogger.TelemetryFrame
	fail   bool
	closed bool
}

func (w *memoryWriter) Write(ctx context.Context, frame ezlogger.TelemetryFrame, ts time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("influx unavailable")
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *memoryWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func TestInfluxActor(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	rootContext := as.Root

	es := &eventstream.EventStream{}
	writer := &memoryWriter{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewInfluxActor(writer, es, logger) })
	pid := rootContext.Spawn(props)

	time.Sleep(200 * time.Millisecond)

	es.Publish(domain.TelemetryUpdatedEvent{Frame: ezlogger.TestFrame(), PolledAt: time.Now()})
	es.Publish(domain.BinarySensorUpdateEvent{})

	result, err := rootContext.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health := result.(domain.ActorHealthResponse)
	assert.Equal("idle, 1 written, 0 failed", health.State)

	writer.mu.Lock()
	writer.fail = true
	writer.mu.Unlock()
	es.Publish(domain.TelemetryUpdatedEvent{Frame: ezlogger.TestFrame(), PolledAt: time.Now()})

	result, err = rootContext.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.Equal("idle, 1 written, 1 failed", result.(domain.ActorHealthResponse).State)

	require.NoError(t, rootContext.StopFuture(pid).Wait())
	writer.mu.Lock()
	assert.True(writer.closed)
	assert.Len(writer.frames, 1)
	writer.mu.Unlock()

	as.Shutdown()
}
