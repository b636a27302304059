package events

import (
	. "broute2mqtt/internal/core/domain"
	"broute2mqtt/pkg/broute"
)

// MeterReadingToUpdateEvents maps a reading to sensor update events. A nil
// field means the meter did not report that property this cycle, so no event
// is emitted for it and the previous published state stands.
func MeterReadingToUpdateEvents(reading *broute.MeterReading) []any {
	var events []any

	// Instantaneous power (E7)
	if reading.InstantPowerWatts != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_INSTANT_POWER,
			},
			Value:    float64(*reading.InstantPowerWatts),
			Decimals: 0,
		})
	}
	// Instantaneous current (E8)
	if reading.InstantCurrentAmps != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_INSTANT_CURRENT,
			},
			Value:    *reading.InstantCurrentAmps,
			Decimals: 1,
		})
	}
	// Instantaneous voltage (E9)
	if reading.InstantVoltageVolts != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_INSTANT_VOLTAGE,
			},
			Value:    *reading.InstantVoltageVolts,
			Decimals: 1,
		})
	}
	// Cumulative forward energy (EA)
	if reading.CumulativeForwardKWh != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CUMULATIVE_ENERGY_FWD,
			},
			Value:    *reading.CumulativeForwardKWh,
			Decimals: 1,
		})
	}
	// Cumulative reverse energy (EB)
	if reading.CumulativeReverseKWh != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CUMULATIVE_ENERGY_REV,
			},
			Value:    *reading.CumulativeReverseKWh,
			Decimals: 1,
		})
	}

	return events
}
