package domain

import (
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_EZLOGGER     = "ezlogger"
	ACTOR_ID_TELEMETRY    = "telemetry"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_INFLUX       = "influx"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// GetTelemetryRequest asks the ezlogger actor for one corrected frame,
// retried according to the configured policy.
type GetTelemetryRequest struct {
	ActorRequestMixIn
}

type GetTelemetryResponse struct {
	ActorResponseMixIn
	Frame    *ezlogger.TelemetryFrame
	PolledAt time.Time
}

// GetLastTelemetryRequest asks the telemetry actor for the latest published frame.
type GetLastTelemetryRequest struct {
	ActorRequestMixIn
}

type GetLastTelemetryResponse struct {
	ActorResponseMixIn
	Frame    *ezlogger.TelemetryFrame
	PolledAt time.Time
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
