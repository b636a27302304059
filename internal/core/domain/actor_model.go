package domain

import "broute2mqtt/pkg/broute"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_METER        = "meter"
	ACTOR_ID_METER_POLL   = "meterpoll"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetDeviceInfoRequest struct {
	ActorRequestMixIn
}

type GetDeviceInfoResponse struct {
	ActorResponseMixIn
	Info *broute.DeviceInfo
}

type GetMeterReadingRequest struct {
	ActorRequestMixIn
}

type GetMeterReadingResponse struct {
	ActorResponseMixIn
	Reading *broute.MeterReading
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
