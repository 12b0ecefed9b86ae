package events

import (
	. "github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"
)

func TelemetryToUpdateEvents(frame *ezlogger.TelemetryFrame) []any {
	var events []any
	if frame == nil {
		return events
	}

	values := []struct {
		id    string
		value float64
	}{
		{SENSOR_ID_VOLTAGE_L1, frame.V1},
		{SENSOR_ID_VOLTAGE_L2, frame.V2},
		{SENSOR_ID_VOLTAGE_L3, frame.V3},
		{SENSOR_ID_CURRENT_L1, frame.I1},
		{SENSOR_ID_CURRENT_L2, frame.I2},
		{SENSOR_ID_CURRENT_L3, frame.I3},
		{SENSOR_ID_POWER_L1, frame.P1},
		{SENSOR_ID_POWER_L2, frame.P2},
		{SENSOR_ID_POWER_L3, frame.P3},
		{SENSOR_ID_METERS_POWER, frame.MetersPower},
		{SENSOR_ID_INVERTERS_POWER, frame.InvertersPower},
	}

	for _, v := range values {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: v.id,
			},
			Value:    v.value,
			Decimals: SensorDecimals(v.id),
		})
	}

	return events
}

func PollStatusUpdateEvent(ok bool) any {
	return BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_POLL_OK,
		},
		Value: ok,
	}
}

func BridgeStateUpdateEvents(online bool) []any {
	return []any{BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}}
}
