package actor

import (
	"strings"
	"testing"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/core/events"
	"github.com/berfenger/ezlogger2mqtt/internal/util"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, es, logger) })
	pid := context.Spawn(props)

	time.Sleep(200 * time.Millisecond)

	frame := ezlogger.TestFrame()
	for _, ev := range events.TelemetryToUpdateEvents(&frame) {
		es.Publish(ev)
	}
	es.Publish(events.PollStatusUpdateEvent(true))
	// frame events are not published as sensors
	es.Publish(domain.TelemetryUpdatedEvent{Frame: frame})

	result, err := context.RequestFuture(pid, domain.PublishSensorUpdateRequest{
		Event: domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_METERS_POWER},
			Value:                  -0.245,
			Decimals:               3,
		},
	}, 2*time.Second).Result()
	require.NoError(t, err)
	_, ok := result.(domain.PublishSensorUpdateResponse)
	assert.True(t, ok)

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)
	assert.True(t, strings.HasPrefix(resp.State, "idle, 13 published"), resp.State)

	context.Stop(pid)

	time.Sleep(100 * time.Millisecond)

	as.Shutdown()
}
