package domain

import (
	"fmt"
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"
)

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// TelemetryUpdatedEvent carries a whole corrected frame for sinks that store
// frames rather than single sensors.
type TelemetryUpdatedEvent struct {
	Frame    ezlogger.TelemetryFrame
	PolledAt time.Time
}
