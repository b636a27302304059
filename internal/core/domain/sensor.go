package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"

	"broute2mqtt/pkg/broute"
)

const (
	SENSOR_ID_BRIDGE_STATE             = "bridge"
	SENSOR_ID_INSTANT_POWER            = "e7_power"
	SENSOR_ID_INSTANT_CURRENT          = "e8_current"
	SENSOR_ID_INSTANT_VOLTAGE          = "e9_voltage"
	SENSOR_ID_CUMULATIVE_ENERGY_FWD    = "ea_forward"
	SENSOR_ID_CUMULATIVE_ENERGY_REV    = "eb_reverse"
	STATE_CLASS_MEASUREMENT            = "measurement"
	STATE_CLASS_TOTAL_INCREASING       = "total_increasing"
	DEVICE_CLASS_CURRENT               = "current"
	DEVICE_CLASS_ENERGY                = "energy"
	DEVICE_CLASS_POWER                 = "power"
	DEVICE_CLASS_VOLTAGE               = "voltage"
	DEVICE_CLASS_CONNECTIVITY          = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC            = "diagnostic"
	ENTITY_CLASS_CONFIG                = "config"
	SENSOR_TYPE_SENSOR                 = "sensor"
	SENSOR_TYPE_BINARY                 = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("broute_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "broute2mqtt",
		Model:        "B-Route Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Broute2MQTT %s", md5HashShort(baseTopic)),
	}
}

func MeterDevice(info *broute.DeviceInfo, routeBID string) Device {
	return Device{
		Id:           fmt.Sprintf("brt_meter_%s", md5HashShort(routeBID)),
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(routeBID)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func MeterSensors(meterDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Instantaneous power (E7)
	sensors = append(sensors, GenericSensor{
		Device:            meterDevice,
		Id:                SENSOR_ID_INSTANT_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Instantaneous power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		Icon:              "mdi:flash",
		UniqueId:          uniqueId(meterDevice.Id, SENSOR_ID_INSTANT_POWER),
	})

	// Instantaneous current (E8)
	sensors = append(sensors, GenericSensor{
		Device:            meterDevice,
		Id:                SENSOR_ID_INSTANT_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Instantaneous current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		Icon:              "mdi:current-ac",
		UniqueId:          uniqueId(meterDevice.Id, SENSOR_ID_INSTANT_CURRENT),
	})

	// Instantaneous voltage (E9)
	sensors = append(sensors, GenericSensor{
		Device:            meterDevice,
		Id:                SENSOR_ID_INSTANT_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Instantaneous voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		Icon:              "mdi:power-plug",
		UniqueId:          uniqueId(meterDevice.Id, SENSOR_ID_INSTANT_VOLTAGE),
	})

	// Cumulative forward energy (EA)
	sensors = append(sensors, GenericSensor{
		Device:            meterDevice,
		Id:                SENSOR_ID_CUMULATIVE_ENERGY_FWD,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Cumulative forward energy",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		Icon:              "mdi:gauge",
		UniqueId:          uniqueId(meterDevice.Id, SENSOR_ID_CUMULATIVE_ENERGY_FWD),
	})

	// Cumulative reverse energy (EB)
	sensors = append(sensors, GenericSensor{
		Device:            meterDevice,
		Id:                SENSOR_ID_CUMULATIVE_ENERGY_REV,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Cumulative reverse energy",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		Icon:              "mdi:gauge",
		UniqueId:          uniqueId(meterDevice.Id, SENSOR_ID_CUMULATIVE_ENERGY_REV),
	})

	return sensors
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
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
