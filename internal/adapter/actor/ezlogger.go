package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/core/port"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// EZLoggerActor serializes access to the device. Requests received while a
// poll is in flight are stashed and served afterwards.
type EZLoggerActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	poller      port.TelemetryPoller
	retry       service.RetryPolicy
	pollTimeout time.Duration
	failures    uint
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewEZLoggerActor(poller port.TelemetryPoller, retry service.RetryPolicy, readTimeout time.Duration, logger *zap.Logger) *EZLoggerActor {
	act := &EZLoggerActor{
		poller:      poller,
		retry:       retry,
		pollTimeout: retry.Budget(readTimeout),
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_EZLOGGER, logger),
	}
	if act.retry.Logger == nil {
		act.retry.Logger = act.logger
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *EZLoggerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *EZLoggerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("ezlogger@default started", zap.String("address", state.poller.Address()))
	case domain.ActorHealthRequest:
		state.logger.Debug("ezlogger@default: ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case domain.GetTelemetryRequest:
		state.logger.Debug("ezlogger@default: GetTelemetryRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getTelemetry),
			mapTaskResult[domain.GetTelemetryResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetTelemetryResponse{
					ActorResponseMixIn: domain.ErrorResponse(err),
				},
				replyTo: sender,
			}
		}).WithTimeout(state.pollTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingPoll)
	default:
		state.logger.Debug("ezlogger@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *EZLoggerActor) WaitingPoll(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("ezlogger@WaitingPoll backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.GetTelemetryResponse); ok {
			if resp.HasResponseError() {
				state.failures++
			} else {
				state.failures = 0
			}
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	default:
		state.logger.Debug("ezlogger@WaitingPoll stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *EZLoggerActor) health(status string) domain.ActorHealthResponse {
	if state.failures > 0 {
		status = fmt.Sprintf("%s (%d failed polls)", status, state.failures)
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_EZLOGGER,
		Healthy: true,
		State:   status,
	}
}

func (state *EZLoggerActor) getTelemetry() (*domain.GetTelemetryResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), state.pollTimeout)
	defer cancel()

	frame, err := service.PollWithRetry(ctx, state.retry, state.poller)
	if err != nil {
		state.logger.Error("ezlogger: poll failed",
			zap.String("address", state.poller.Address()),
			actorutil.ErrorKindField(ezlogger.ErrorKind(err)),
			zap.Error(err))
		return nil, err
	}
	return &domain.GetTelemetryResponse{
		Frame:    frame,
		PolledAt: time.Now(),
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
