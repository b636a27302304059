package mqtt

import (
	"testing"

	"broute2mqtt/internal/config"
	"broute2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func testClient(baseTopic string) *MQTTClient {
	return &MQTTClient{
		cfg: config.MQTTConfig{BaseTopic: baseTopic},
	}
}

func TestSensorStateTopic(t *testing.T) {

	assert := assert.New(t)

	client := testClient("loremTopic")

	assert.Equal("loremTopic/sensor/e7_power/state", client.SensorStateTopic("e7_power"))
	assert.Equal("loremTopic/binary_sensor/bridge/state", client.BinarySensorStateTopic("bridge"))
	assert.Equal("loremTopic/bridge/state", client.BridgeStateTopic())
}

func TestHADiscoverySensorTopic(t *testing.T) {

	assert := assert.New(t)

	sensor := domain.GenericSensor{
		Device:     domain.Device{Id: "brt_meter_abcd1234"},
		Id:         domain.SENSOR_ID_INSTANT_POWER,
		SensorType: domain.SENSOR_TYPE_SENSOR,
	}

	topic := HADiscoverySensorTopic("homeassistant", sensor)

	assert.Equal("homeassistant/sensor/brt_meter_abcd1234/e7_power/config", topic)
}

func TestGenericSensorToHADiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	client := testClient("broute")
	sensor := domain.MeterSensors(domain.Device{Id: "brt_meter_abcd1234"})[0]

	msg := GenericSensorToHADiscoveryMessage(client, sensor)

	assert.Equal("broute/sensor/e7_power/state", msg.StateTopic)
	assert.Equal("broute/bridge/state", msg.AvTopic)
	assert.Equal("W", msg.UnitOfMeasurement)
	assert.Equal("measurement", msg.StateClass)
	assert.Equal("power", msg.DeviceClass)
	assert.Equal("mqtt", msg.Platform)
}

func TestBridgeSensorDiscoveryPayloads(t *testing.T) {

	assert := assert.New(t)

	client := testClient("broute")
	sensor := domain.BridgeSensors(domain.BridgeDevice("broute"))[0]

	msg := GenericSensorToHADiscoveryMessage(client, sensor)

	assert.Equal("broute/bridge/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
}
