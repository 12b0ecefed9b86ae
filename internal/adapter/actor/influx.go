package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// TelemetryWriter stores one corrected frame.
type TelemetryWriter interface {
	Write(ctx context.Context, frame ezlogger.TelemetryFrame, ts time.Time) error
	Close()
}

// InfluxActor writes every TelemetryUpdatedEvent as one point.
type InfluxActor struct {
	behavior       actor.Behavior
	writer         TelemetryWriter
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	written        uint64
	failed         uint64
	logger         *zap.Logger
}

func NewInfluxActor(writer TelemetryWriter, eventStream *eventstream.EventStream, logger *zap.Logger) *InfluxActor {
	act := &InfluxActor{
		writer:      writer,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_INFLUX, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *InfluxActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *InfluxActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("influx@default started")
		self := ctx.Self()
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			if ev, ok := value.(domain.TelemetryUpdatedEvent); ok {
				ctx.Send(self, ev)
			}
		})
	case *actor.Stopping:
		if state.eventStreamSub != nil {
			state.eventStream.Unsubscribe(state.eventStreamSub)
			state.eventStreamSub = nil
		}
		state.writer.Close()
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_INFLUX,
			Healthy: true,
			State:   fmt.Sprintf("idle, %d written, %d failed", state.written, state.failed),
		})
	case domain.TelemetryUpdatedEvent:
		state.logger.Debug("influx@default TelemetryUpdatedEvent")
		ok := true
		actorutil.NewBackgroundTaskErr(ctx, func() error {
			wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return state.writer.Write(wctx, msg.Frame, msg.PolledAt)
		}).WithTimeout(6 * time.Second).OnError(func(err error) {
			ok = false
			state.logger.Error("influx@default could not write point", zap.Error(err))
		}).Run()
		if ok {
			state.written++
		} else {
			state.failed++
		}
	default:
		state.logger.Debug("influx@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
