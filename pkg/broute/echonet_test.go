package broute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildReadRequest(t *testing.T) {
	frame := BuildReadRequest(0x0001,
		EPCInstantPower, EPCInstantCurrent, EPCInstantVoltage,
		EPCCumulativeForward, EPCCumulativeReverse)

	expected := []byte{
		0x10, 0x81, // EHD
		0x00, 0x01, // TID
		0x05, 0xFF, 0x01, // SEOJ controller
		0x02, 0x88, 0x01, // DEOJ meter
		0x62, // ESV Get
		0x05, // OPC
		0xE7, 0x00,
		0xE8, 0x00,
		0xE9, 0x00,
		0xEA, 0x00,
		0xEB, 0x00,
	}
	assert.Equal(t, expected, frame)
}

func TestFrameRoundTrip(t *testing.T) {
	frame := ParseFrame(BuildReadRequest(0x0102, EPCInstantPower, EPCInstantVoltage, EPCCumulativeForward))

	assert.Equal(t, echonetHeader, frame.EHD)
	assert.Equal(t, uint16(0x0102), frame.TID)
	assert.Equal(t, seojController, frame.SEOJ)
	assert.Equal(t, deojMeter, frame.DEOJ)
	assert.Equal(t, esvReadRequest, frame.ESV)
	assert.Equal(t, byte(3), frame.OPC)
	assert.Len(t, frame.Properties, 3)
	for i, epc := range []byte{EPCInstantPower, EPCInstantVoltage, EPCCumulativeForward} {
		assert.Equal(t, epc, frame.Properties[i].EPC)
		assert.Empty(t, frame.Properties[i].EDT)
	}
}

func TestWrapSendTo(t *testing.T) {
	frame := BuildReadRequest(0x0001, EPCInstantPower)

	cmd := WrapSendTo(testIPv6, frame)

	assert.Equal(t, "SKSENDTO 1 "+testIPv6+" 0E1A 1 000E ", string(cmd[:len(cmd)-len(frame)]))
	assert.Equal(t, frame, cmd[len(cmd)-len(frame):])
}

func TestParseFrameResponse(t *testing.T) {
	payload := []byte{
		0x10, 0x81,
		0x00, 0x01,
		0x02, 0x88, 0x01, // SEOJ meter
		0x05, 0xFF, 0x01, // DEOJ controller
		0x72, // ESV Get_Res
		0x02, // OPC
		0xE7, 0x04, 0x00, 0x00, 0x01, 0x5E,
		0xE9, 0x00,
	}

	frame := ParseFrame(payload)

	assert.Equal(t, uint16(0x1081), frame.EHD)
	assert.Equal(t, uint16(0x0001), frame.TID)
	assert.Equal(t, esvReadResponse, frame.ESV)
	assert.Len(t, frame.Properties, 2)

	edt, ok := frame.PropertyData(EPCInstantPower)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x5E}, edt)

	edt, ok = frame.PropertyData(EPCInstantVoltage)
	assert.True(t, ok)
	assert.Empty(t, edt)

	_, ok = frame.PropertyData(EPCCumulativeForward)
	assert.False(t, ok)
}

func TestParseFrameShortPayload(t *testing.T) {
	frame := ParseFrame([]byte{0x10, 0x81, 0x00})

	assert.Equal(t, uint16(0), frame.EHD)
	assert.Empty(t, frame.Properties)
}

func TestParseFramePropertyOverrun(t *testing.T) {
	payload := []byte{
		0x10, 0x81,
		0x00, 0x01,
		0x02, 0x88, 0x01,
		0x05, 0xFF, 0x01,
		0x72,
		0x03, // declares three properties, only one fits
		0xE7, 0x04, 0x00, 0x00, 0x01, 0x5E,
		0xE8, 0x04, 0x00, 0x64, // truncated EDT
	}

	frame := ParseFrame(payload)

	assert.Len(t, frame.Properties, 1)
	assert.Equal(t, EPCInstantPower, frame.Properties[0].EPC)
}
