package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	SENSOR_ID_POLL_OK         = "poll_ok"
	SENSOR_ID_VOLTAGE_L1      = "voltage_l1"
	SENSOR_ID_VOLTAGE_L2      = "voltage_l2"
	SENSOR_ID_VOLTAGE_L3      = "voltage_l3"
	SENSOR_ID_CURRENT_L1      = "current_l1"
	SENSOR_ID_CURRENT_L2      = "current_l2"
	SENSOR_ID_CURRENT_L3      = "current_l3"
	SENSOR_ID_POWER_L1        = "power_l1"
	SENSOR_ID_POWER_L2        = "power_l2"
	SENSOR_ID_POWER_L3        = "power_l3"
	SENSOR_ID_METERS_POWER    = "meters_power"
	SENSOR_ID_INVERTERS_POWER = "inverters_power"
	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_CURRENT      = "current"
	DEVICE_CLASS_POWER        = "power"
	DEVICE_CLASS_VOLTAGE      = "voltage"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_PROBLEM      = "problem"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	UNIT_VOLT                 = "V"
	UNIT_AMPERE               = "A"
	UNIT_KILOWATT             = "kW"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("ezlogger_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ezlogger2mqtt",
		Model:        "EZLogger bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("EZLogger bridge %s", md5HashShort(baseTopic)),
	}
}

// EZLoggerDevice identifies the polled device by its network address.
func EZLoggerDevice(name, address string) Device {
	return Device{
		Id:           fmt.Sprintf("ezlogger_%s", md5HashShort(address)),
		Manufacturer: "GoodWe",
		Model:        "EZLogger",
		Name:         fmt.Sprintf("%s %s", name, md5HashShort(address)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Bridge state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

type telemetrySensorDef struct {
	id          string
	name        string
	deviceClass string
	unit        string
	decimals    uint
}

var telemetrySensorDefs = []telemetrySensorDef{
	{SENSOR_ID_VOLTAGE_L1, "Voltage L1", DEVICE_CLASS_VOLTAGE, UNIT_VOLT, 1},
	{SENSOR_ID_VOLTAGE_L2, "Voltage L2", DEVICE_CLASS_VOLTAGE, UNIT_VOLT, 1},
	{SENSOR_ID_VOLTAGE_L3, "Voltage L3", DEVICE_CLASS_VOLTAGE, UNIT_VOLT, 1},
	{SENSOR_ID_CURRENT_L1, "Current L1", DEVICE_CLASS_CURRENT, UNIT_AMPERE, 2},
	{SENSOR_ID_CURRENT_L2, "Current L2", DEVICE_CLASS_CURRENT, UNIT_AMPERE, 2},
	{SENSOR_ID_CURRENT_L3, "Current L3", DEVICE_CLASS_CURRENT, UNIT_AMPERE, 2},
	{SENSOR_ID_POWER_L1, "Power L1", DEVICE_CLASS_POWER, UNIT_KILOWATT, 3},
	{SENSOR_ID_POWER_L2, "Power L2", DEVICE_CLASS_POWER, UNIT_KILOWATT, 3},
	{SENSOR_ID_POWER_L3, "Power L3", DEVICE_CLASS_POWER, UNIT_KILOWATT, 3},
	{SENSOR_ID_METERS_POWER, "Meters power", DEVICE_CLASS_POWER, UNIT_KILOWATT, 3},
	{SENSOR_ID_INVERTERS_POWER, "Inverters power", DEVICE_CLASS_POWER, UNIT_KILOWATT, 3},
}

// SensorDecimals returns the display precision of a telemetry sensor.
func SensorDecimals(id string) uint {
	for _, def := range telemetrySensorDefs {
		if def.id == id {
			return def.decimals
		}
	}
	return 2
}

// EZLoggerSensors lists the 11 telemetry sensors plus the poll status.
// Only the first sensor carries the full device description.
func EZLoggerSensors(device Device) []GenericSensor {
	var sensors []GenericSensor

	for i, def := range telemetrySensorDefs {
		dev := device
		if i > 0 {
			dev = IdDevice(device)
		}
		sensors = append(sensors, GenericSensor{
			Device:            dev,
			Id:                def.id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              def.name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       def.deviceClass,
			UnitOfMeasurement: def.unit,
			Decimals:          def.decimals,
			UniqueId:          uniqueId(device.Id, def.id),
		})
	}

	// Poll status
	sensors = append(sensors, GenericSensor{
		Device:         IdDevice(device),
		Id:             SENSOR_ID_POLL_OK,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Poll OK",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:lan-connect",
		UniqueId:       uniqueId(device.Id, SENSOR_ID_POLL_OK),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
