package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/core/events"
	. "github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// TelemetryActor polls the ezlogger actor on a fixed interval and publishes
// the corrected frames on the event stream. The next tick is scheduled once
// the previous poll has finished, so polls never overlap.
type TelemetryActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	ezloggerActor  *actor.PID
	eventStream    *eventstream.EventStream
	pollInterval   time.Duration
	requestTimeout time.Duration

	lastFrame    *ezlogger.TelemetryFrame
	lastPolledAt time.Time
	lastError    error
	polls        uint64

	logger *zap.Logger
}

type telemetryTick struct {
}

func NewTelemetryActor(ezloggerActor *actor.PID, eventStream *eventstream.EventStream, pollInterval, requestTimeout time.Duration, logger *zap.Logger) *TelemetryActor {
	act := &TelemetryActor{
		ezloggerActor:  ezloggerActor,
		eventStream:    eventStream,
		pollInterval:   pollInterval,
		requestTimeout: requestTimeout,
		behavior:       actor.NewBehavior(),
		stash:          &Stash{},
		logger:         ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *TelemetryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *TelemetryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("telemetry@default started", zap.Duration("interval", state.pollInterval))
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), telemetryTick{})
	case domain.ActorHealthRequest:
		state.logger.Debug("telemetry@default: ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case domain.GetLastTelemetryRequest:
		state.respondLast(ctx, msg)
	case telemetryTick:
		state.logger.Debug("telemetry@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.ezloggerActor, domain.GetTelemetryRequest{}, state.requestTimeout), func(err error) any {
			return domain.GetTelemetryResponse{
				ActorResponseMixIn: domain.ErrorResponse(err),
			}
		})
		state.behavior.BecomeStacked(state.WaitingTelemetryReceive)
	default:
		state.logger.Debug("telemetry@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *TelemetryActor) WaitingTelemetryReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetTelemetryResponse:
		state.polls++
		if msg.HasResponseError() || msg.Frame == nil {
			state.lastError = msg.GetResponseError()
			state.logger.Error("telemetry@waiting GetTelemetryResponse error",
				ErrorKindField(ezlogger.ErrorKind(msg.GetResponseError())),
				zap.Error(msg.GetResponseError()))
			state.eventStream.Publish(events.PollStatusUpdateEvent(false))
		} else {
			state.logger.Debug("telemetry@waiting GetTelemetryResponse")
			state.lastError = nil
			state.lastFrame = msg.Frame
			state.lastPolledAt = msg.PolledAt

			for _, ev := range events.TelemetryToUpdateEvents(msg.Frame) {
				state.eventStream.Publish(ev)
			}
			state.eventStream.Publish(events.PollStatusUpdateEvent(true))
			state.eventStream.Publish(domain.TelemetryUpdatedEvent{
				Frame:    *msg.Frame,
				PolledAt: msg.PolledAt,
			})
		}

		// schedule next tick
		state.scheduler.RequestOnce(state.pollInterval, ctx.Self(), telemetryTick{})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	case domain.GetLastTelemetryRequest:
		state.respondLast(ctx, msg)
	default:
		state.logger.Debug("telemetry@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) respondLast(ctx actor.Context, msg domain.GetLastTelemetryRequest) {
	resp := domain.GetLastTelemetryResponse{
		PolledAt: state.lastPolledAt,
	}
	if state.lastFrame != nil {
		frame := *state.lastFrame
		resp.Frame = &frame
	}
	ForRequest(msg).Respond(ctx, resp)
}

func (state *TelemetryActor) health(status string) domain.ActorHealthResponse {
	if state.lastError != nil {
		status = fmt.Sprintf("%s, last poll failed: %s", status, state.lastError)
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_TELEMETRY,
		Healthy: true,
		State:   fmt.Sprintf("%s, %d polls", status, state.polls),
	}
}
