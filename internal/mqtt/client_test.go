package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/ezlogger2mqtt/internal/core/domain"
	"github.com/berfenger/ezlogger2mqtt/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	cfg.MQTT.BaseTopic = "solar"
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestStateTopics(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	assert.Equal("solar/bridge/state", c.BridgeStateTopic())
	assert.Equal("solar/sensor/voltage_l1/state", c.SensorStateTopic(domain.SENSOR_ID_VOLTAGE_L1))
	assert.Equal("solar/binary_sensor/poll_ok/state", c.BinarySensorStateTopic(domain.SENSOR_ID_POLL_OK))
}

func TestOptsFromConfigLastWill(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	opts := OptsFromConfig(&cfg)
	assert.True(opts.WillEnabled)
	assert.True(opts.WillRetained)
	assert.Equal("ezlogger/bridge/state", opts.WillTopic)
	assert.Equal([]byte(MQTT_PAYLOAD_OFFLINE), opts.WillPayload)
	assert.Equal("tcp://localhost:1883", opts.Servers[0].String())
}

func TestSensorUpdateMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()

	msg := c.SensorUpdateMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_INVERTERS_POWER},
		Value:                  3.7381,
		Decimals:               3,
	})
	require.NotNil(t, msg)
	assert.Equal("solar/sensor/inverters_power/state", msg.Topic)
	assert.Equal("3.738", msg.Payload)
	assert.False(msg.Retain)

	msg = c.SensorUpdateMessage(domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_POLL_OK},
		Value:                  false,
	})
	require.NotNil(t, msg)
	assert.Equal("off", msg.Payload)

	msg = c.SensorUpdateMessage(domain.BridgeStateUpdateEvent{Value: true})
	require.NotNil(t, msg)
	assert.Equal("solar/bridge/state", msg.Topic)
	assert.Equal("online", msg.Payload)
	assert.True(msg.Retain)

	assert.Nil(c.SensorUpdateMessage(domain.TelemetryUpdatedEvent{}))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "231.0", FormatFloat(231, 1))
	assert.Equal(t, "-0.245", FormatFloat(-0.245, 3))
	assert.Equal(t, "5", FormatFloat(5.12, 0))
}

func TestHADiscoveryMessages(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	device := domain.EZLoggerDevice("ezlogger", "10.0.0.2:1234")
	sensors := domain.EZLoggerSensors(device)

	voltage := GenericSensorToHADiscoveryMessage(c, sensors[0])
	assert.Equal("solar/sensor/voltage_l1/state", voltage.StateTopic)
	assert.Equal("solar/bridge/state", voltage.AvTopic)
	assert.Equal("V", voltage.UnitOfMeasurement)
	assert.Equal("mqtt", voltage.Platform)
	require.NotNil(t, voltage.Precision)
	assert.Equal(uint(1), *voltage.Precision)
	assert.Equal("homeassistant/sensor/"+device.Id+"/voltage_l1/config", c.HADiscoverySensorTopic(sensors[0]))

	pollOk := GenericSensorToHADiscoveryMessage(c, sensors[len(sensors)-1])
	assert.Equal("solar/binary_sensor/poll_ok/state", pollOk.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ON, pollOk.PayloadOn)
	assert.Nil(pollOk.Precision)

	bridge := GenericSensorToHADiscoveryMessage(c, domain.BridgeSensors(domain.BridgeDevice("solar"))[0])
	assert.Equal("solar/bridge/state", bridge.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, bridge.PayloadOn)
	assert.Empty(bridge.AvTopic)

	payload, err := json.Marshal(voltage)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal("measurement", decoded["state_class"])
	assert.NotContains(decoded, "payload_on")
}
