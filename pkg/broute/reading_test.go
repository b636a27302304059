package broute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func extractProps(props ...Property) *MeterReading {
	frame := &Frame{Properties: props}
	return ExtractReading(frame, zap.NewNop())
}

func TestExtractPowerSigned(t *testing.T) {
	reading := extractProps(Property{EPC: EPCInstantPower, PDC: 4, EDT: []byte{0xFF, 0xFF, 0xFF, 0xFF}})

	assert.NotNil(t, reading.InstantPowerWatts)
	assert.Equal(t, int32(-1), *reading.InstantPowerWatts)
}

func TestExtractPowerPositive(t *testing.T) {
	reading := extractProps(Property{EPC: EPCInstantPower, PDC: 4, EDT: []byte{0x00, 0x00, 0x00, 0x64}})

	assert.NotNil(t, reading.InstantPowerWatts)
	assert.Equal(t, int32(100), *reading.InstantPowerWatts)
}

func TestExtractCurrentSumsPhases(t *testing.T) {
	// 0x0064 = 10.0 A, 0x0032 = 5.0 A
	reading := extractProps(Property{EPC: EPCInstantCurrent, PDC: 4, EDT: []byte{0x00, 0x64, 0x00, 0x32}})

	assert.NotNil(t, reading.InstantCurrentAmps)
	assert.Equal(t, 15.0, *reading.InstantCurrentAmps)
}

func TestExtractVoltageAveragedUnscaled(t *testing.T) {
	// 0x08FC = 2300, 0x0904 = 2308; averaged without unit scaling
	reading := extractProps(Property{EPC: EPCInstantVoltage, PDC: 4, EDT: []byte{0x08, 0xFC, 0x09, 0x04}})

	assert.NotNil(t, reading.InstantVoltageVolts)
	assert.Equal(t, 2304.0, *reading.InstantVoltageVolts)
}

func TestExtractVoltageUnsupported(t *testing.T) {
	reading := extractProps(Property{EPC: EPCInstantVoltage, PDC: 0, EDT: []byte{}})

	assert.Nil(t, reading.InstantVoltageVolts)
}

func TestExtractCumulativeEnergy(t *testing.T) {
	edt := []byte{
		0x07, 0xEA, 0x08, 0x18, 0x0C, 0x00, 0x00, // 2026-08-24 12:00:00
		0x00, 0x00, 0x30, 0x39, // 12345 -> 1234.5 kWh
	}
	reading := extractProps(
		Property{EPC: EPCCumulativeForward, PDC: 11, EDT: edt},
		Property{EPC: EPCCumulativeReverse, PDC: 11, EDT: edt},
	)

	assert.NotNil(t, reading.CumulativeForwardKWh)
	assert.Equal(t, 1234.5, *reading.CumulativeForwardKWh)
	assert.NotNil(t, reading.CumulativeReverseKWh)
	assert.Equal(t, 1234.5, *reading.CumulativeReverseKWh)
}

func TestExtractCumulativeEnergyInvalidDate(t *testing.T) {
	// February 31st does not exist; the counter is still extracted
	edt := []byte{
		0x07, 0xEA, 0x02, 0x1F, 0x0C, 0x00, 0x00,
		0x00, 0x00, 0x30, 0x39,
	}
	reading := extractProps(Property{EPC: EPCCumulativeForward, PDC: 11, EDT: edt})

	assert.NotNil(t, reading.CumulativeForwardKWh)
	assert.Equal(t, 1234.5, *reading.CumulativeForwardKWh)
}

func TestExtractCumulativeEnergyShortPayload(t *testing.T) {
	reading := extractProps(Property{EPC: EPCCumulativeForward, PDC: 4, EDT: []byte{0x00, 0x00, 0x30, 0x39}})

	assert.Nil(t, reading.CumulativeForwardKWh)
}

func TestExtractIgnoresUnknownProperty(t *testing.T) {
	reading := extractProps(Property{EPC: 0xD7, PDC: 1, EDT: []byte{0x06}})

	assert.Equal(t, &MeterReading{}, reading)
}
