package broute

import (
	"encoding/binary"
	"fmt"
)

// ECHONET Lite constants for the low-voltage smart meter object.
const (
	echonetHeader    uint16 = 0x1081
	esvReadRequest   byte   = 0x62
	esvReadResponse  byte   = 0x72
	echonetPort             = "0E1A"
	echonetFrameSize        = 12
)

var (
	seojController = [3]byte{0x05, 0xFF, 0x01}
	deojMeter      = [3]byte{0x02, 0x88, 0x01}
)

// Meter property codes.
const (
	EPCInstantPower      byte = 0xE7
	EPCInstantCurrent    byte = 0xE8
	EPCInstantVoltage    byte = 0xE9
	EPCCumulativeForward byte = 0xEA
	EPCCumulativeReverse byte = 0xEB
)

// Property is one (EPC, PDC, EDT) triple of a frame.
type Property struct {
	EPC byte
	PDC byte
	EDT []byte
}

// Frame is a decoded ECHONET Lite frame.
type Frame struct {
	EHD        uint16
	TID        uint16
	SEOJ       [3]byte
	DEOJ       [3]byte
	ESV        byte
	OPC        byte
	Properties []Property
}

// PropertyData returns the EDT of the first property carrying the given EPC.
func (f *Frame) PropertyData(epc byte) ([]byte, bool) {
	for _, p := range f.Properties {
		if p.EPC == epc {
			return p.EDT, true
		}
	}
	return nil, false
}

// BuildReadRequest encodes a Get (ESV 0x62) frame from the controller object
// to the meter object, one zero-length property entry per requested EPC.
func BuildReadRequest(tid uint16, epcs ...byte) []byte {
	frame := make([]byte, 0, echonetFrameSize+2*len(epcs))
	frame = binary.BigEndian.AppendUint16(frame, echonetHeader)
	frame = binary.BigEndian.AppendUint16(frame, tid)
	frame = append(frame, seojController[:]...)
	frame = append(frame, deojMeter[:]...)
	frame = append(frame, esvReadRequest, byte(len(epcs)))
	for _, epc := range epcs {
		frame = append(frame, epc, 0x00)
	}
	return frame
}

// WrapSendTo builds the SKSENDTO command line carrying a raw frame as its
// trailing bytes. The frame length is a 4-digit hex field and the payload
// follows the final space verbatim.
func WrapSendTo(ipv6 string, frame []byte) []byte {
	header := fmt.Sprintf("SKSENDTO 1 %s %s 1 %04X ", ipv6, echonetPort, len(frame))
	cmd := make([]byte, 0, len(header)+len(frame))
	cmd = append(cmd, header...)
	cmd = append(cmd, frame...)
	return cmd
}

// ParseFrame decodes a frame without failing: a payload shorter than the
// fixed header yields an empty frame, and a property list that overruns the
// payload keeps whatever was parsed before the overrun.
func ParseFrame(data []byte) *Frame {
	frame := &Frame{}
	if len(data) < echonetFrameSize {
		return frame
	}
	frame.EHD = binary.BigEndian.Uint16(data[0:2])
	frame.TID = binary.BigEndian.Uint16(data[2:4])
	copy(frame.SEOJ[:], data[4:7])
	copy(frame.DEOJ[:], data[7:10])
	frame.ESV = data[10]
	frame.OPC = data[11]

	offset := echonetFrameSize
	for i := 0; i < int(frame.OPC); i++ {
		if offset+2 > len(data) {
			break
		}
		epc := data[offset]
		pdc := data[offset+1]
		offset += 2
		if offset+int(pdc) > len(data) {
			break
		}
		edt := make([]byte, pdc)
		copy(edt, data[offset:offset+int(pdc)])
		offset += int(pdc)
		frame.Properties = append(frame.Properties, Property{EPC: epc, PDC: pdc, EDT: edt})
	}
	return frame
}
