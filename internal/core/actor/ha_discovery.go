package actor

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/config"
	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery configs once the
// MQTT actor reports healthy, then idles.
type HADiscoveryActor struct {
	config    *config.Config
	behavior  actor.Behavior
	mqttActor *actor.PID

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:    config,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}

		sensors := DiscoverySensors(state.config)
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		}, 5*time.Second), func(err error) any {
			return domain.PublishDiscoveryResponse{ActorResponseMixIn: domain.ErrorResponse(err)}
		})
		state.behavior.Become(state.WaitingPublishReceive)
	default:
		state.logger.Debug("hadiscovery@healthcheck: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingPublishReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishDiscoveryResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Info("hadiscovery@publish discovery published")
		state.behavior.Become(state.Done)
	default:
		state.logger.Debug("hadiscovery@publish: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	if _, ok := ctx.Message().(domain.ActorHealthRequest); ok {
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	}
}

// DiscoverySensors lists the bridge sensors followed by the EZLogger sensors,
// the latter attached to the bridge as via device.
func DiscoverySensors(cfg *config.Config) []domain.GenericSensor {
	var sensors []domain.GenericSensor

	bridgeDevice := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	address := net.JoinHostPort(cfg.EZLogger.Host, strconv.FormatUint(uint64(cfg.EZLogger.Port), 10))
	device := domain.EZLoggerDevice(cfg.EZLogger.DeviceName, address)
	device.ViaDevice = bridgeDevice.Id
	sensors = append(sensors, domain.EZLoggerSensors(device)...)

	return sensors
}
