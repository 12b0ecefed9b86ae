package mqtt

import (
	"fmt"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
)

type Message struct {
	Topic   string
	Payload string
	Retain  bool
}

// SensorUpdateMessage maps a sensor event to its state topic and payload. It
// returns nil for events that have no MQTT representation.
func (c *MQTTClient) SensorUpdateMessage(event any) *Message {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return &Message{
			Topic:   c.SensorStateTopic(msg.Id),
			Payload: FormatFloat(msg.Value, msg.Decimals),
		}
	case domain.BinarySensorUpdateEvent:
		return &Message{
			Topic:   c.BinarySensorStateTopic(msg.Id),
			Payload: bool2MQTTPayload(msg.Value, MQTT_PAYLOAD_ON, MQTT_PAYLOAD_OFF),
		}
	case domain.BridgeStateUpdateEvent:
		return &Message{
			Topic:   c.BridgeStateTopic(),
			Payload: bool2MQTTPayload(msg.Value, MQTT_PAYLOAD_ONLINE, MQTT_PAYLOAD_OFFLINE),
			Retain:  true,
		}
	default:
		return nil
	}
}

func FormatFloat(value float64, decimals uint) string {
	return fmt.Sprintf(fmt.Sprintf("%%.%df", decimals), value)
}

func bool2MQTTPayload(value bool, on, off string) string {
	if value {
		return on
	}
	return off
}
