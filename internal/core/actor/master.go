package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/ezlogger2mqtt/internal/adapter/actor"
	"github.com/berfenger/ezlogger2mqtt/internal/config"
	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	. "github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type EZLoggerActorProvider func() *adactor.EZLoggerActor

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type InfluxActorProvider func(*eventstream.EventStream) *adactor.InfluxActor

// MasterOfPuppetsActor spawns and supervises the daemon actors and answers
// aggregated health checks. A nil MQTT or Influx provider disables that sink.
type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck    healthCheckResult
	eventStream           *eventstream.EventStream
	ezloggerActor         *actor.PID
	mqttActor             *actor.PID
	influxActor           *actor.PID
	telemetryActor        *actor.PID
	ezloggerActorProvider EZLoggerActorProvider
	mqttActorProvider     MQTTActorProvider
	influxActorProvider   InfluxActorProvider
	logger                *zap.Logger
}

type healthCheckResult struct {
	expected       map[string]bool
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, ezloggerActorProvider EZLoggerActorProvider, mqttActorProvider MQTTActorProvider,
	influxActorProvider InfluxActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:                config,
		behavior:              actor.NewBehavior(),
		stash:                 &Stash{},
		logger:                ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:           &eventstream.EventStream{},
		ezloggerActorProvider: ezloggerActorProvider,
		mqttActorProvider:     mqttActorProvider,
		influxActorProvider:   influxActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		// start EZLogger child
		ezloggerActorPID, err := state.startEZLoggerActor(ctx)
		if err != nil {
			panic(err)
		}
		state.ezloggerActor = ezloggerActorPID

		// start sinks before the first poll
		if state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}
		if state.influxActorProvider != nil {
			influxActorPID, err := state.startInfluxActor(ctx)
			if err != nil {
				panic(err)
			}
			state.influxActor = influxActorPID
		}

		// start Telemetry child
		telemetryActorPID, err := state.startTelemetryActor(ctx)
		if err != nil {
			panic(err)
		}
		state.telemetryActor = telemetryActorPID

		// start HA Discovery
		if state.mqttActor != nil && state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.currentHealthCheck = healthCheckResult{expected: state.healthCheckTargets()}
		state.currentHealthCheck.reset()

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.children() {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetLastTelemetryRequest:
		ctx.Forward(state.telemetryActor)
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", ctx.Self().Id, domain.ACTOR_ID_EZLOGGER) {
			state.logger.Error("master@default ezlogger error")
			panic(errors.New("ezlogger terminated"))
		}
	default:
		state.logger.Debug("master@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy),
			zap.String("state", msg.State))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) children() map[string]*actor.PID {
	children := map[string]*actor.PID{
		domain.ACTOR_ID_EZLOGGER:  state.ezloggerActor,
		domain.ACTOR_ID_TELEMETRY: state.telemetryActor,
	}
	if state.mqttActor != nil {
		children[domain.ACTOR_ID_MQTT] = state.mqttActor
	}
	if state.influxActor != nil {
		children[domain.ACTOR_ID_INFLUX] = state.influxActor
	}
	return children
}

func (state *MasterOfPuppetsActor) healthCheckTargets() map[string]bool {
	targets := map[string]bool{}
	for id := range state.children() {
		targets[id] = true
	}
	return targets
}

func (state *MasterOfPuppetsActor) startEZLoggerActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	ezloggerProps := actor.PropsFromProducer(func() actor.Actor {
		return state.ezloggerActorProvider()
	}, actor.WithSupervisor(supervisor))
	ezloggerActorPID, err := ctx.SpawnNamed(ezloggerProps, domain.ACTOR_ID_EZLOGGER)
	if err != nil {
		return nil, err
	}

	return ezloggerActorPID, nil
}

func (state *MasterOfPuppetsActor) startTelemetryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewAllForOneStrategy(1, 10*time.Second, decider)

	retry := service.RetryPolicy{
		MaxAttempts: state.config.Retry.MaxAttempts,
		Delay:       state.config.Retry.Delay(),
	}
	requestTimeout := retry.Budget(state.config.EZLogger.Timeout()) + time.Second

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(state.ezloggerActor, state.eventStream, state.config.MonitorConfig.PollInterval(), requestTimeout, state.logger)
	}, actor.WithSupervisor(supervisor))
	telemetryActorPID, err := ctx.SpawnNamed(telemetryProps, domain.ACTOR_ID_TELEMETRY)
	if err != nil {
		return nil, err
	}

	return telemetryActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startInfluxActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	influxProps := actor.PropsFromProducer(func() actor.Actor {
		return state.influxActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	influxActorPID, err := ctx.SpawnNamed(influxProps, domain.ACTOR_ID_INFLUX)
	if err != nil {
		return nil, err
	}

	return influxActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.healthy = map[string]bool{}
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
