package broute

import (
	"bytes"

	"go.uber.org/zap"
)

const (
	readRequestTID       uint16 = 0x0001
	snapshotMaxReadLines        = 10
	erxudpTokenCount            = 9
)

// DeviceInfo identifies the wireless module for presentation layers.
type DeviceInfo struct {
	Manufacturer string
	Model        string
}

// MeterReader is the blocking B-route meter client. Operations block for up
// to several seconds and must be serialized by the caller; one instance owns
// one serial handle and performs one exchange at a time.
type MeterReader interface {
	// Connect drives the module through credential setup, channel scan,
	// register configuration, address resolution and PANA authentication.
	Connect() error
	// ReadSnapshot requests the five meter properties and returns whatever
	// values the response carried. Absent fields are not an error.
	ReadSnapshot() (*MeterReading, error)
	// GetInfo returns the static device identity.
	GetInfo() (*DeviceInfo, error)
	// Close releases the serial port. Idempotent.
	Close() error
}

type serialMeterReader struct {
	transport LineTransport
	session   *commandSession
	connected bool
	logger    *zap.Logger
}

// CreateSerialMeterReader builds a MeterReader over the serial device at the
// given path, authenticating with the supplied route B credentials.
func CreateSerialMeterReader(device, routeBID, routeBPassword string, logger *zap.Logger) (MeterReader, error) {
	if device == "" {
		return nil, &PortError{Path: device, Err: ErrNotConnected}
	}
	transport := NewSerialLineTransport(device, logger)
	return newMeterReaderWithTransport(transport, routeBID, routeBPassword, logger), nil
}

func newMeterReaderWithTransport(transport LineTransport, routeBID, routeBPassword string, logger *zap.Logger) *serialMeterReader {
	return &serialMeterReader{
		transport: transport,
		session:   newCommandSession(transport, routeBID, routeBPassword, logger),
		logger:    logger,
	}
}

func (r *serialMeterReader) Connect() error {
	if err := r.session.connect(); err != nil {
		return err
	}
	r.connected = true
	return nil
}

func (r *serialMeterReader) ReadSnapshot() (*MeterReading, error) {
	if !r.connected {
		return nil, ErrNotConnected
	}
	frame := BuildReadRequest(readRequestTID,
		EPCInstantPower, EPCInstantCurrent, EPCInstantVoltage,
		EPCCumulativeForward, EPCCumulativeReverse)
	if err := r.transport.WriteLine(WrapSendTo(r.session.ipv6Addr, frame)); err != nil {
		return nil, err
	}
	for i := 0; i < snapshotMaxReadLines; i++ {
		line, err := r.transport.ReadLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, []byte(prefixInboundData)) {
			continue
		}
		tokens := bytes.SplitN(line, []byte(" "), erxudpTokenCount)
		if len(tokens) < erxudpTokenCount {
			r.logger.Warn("unexpected ERXUDP line format", zap.ByteString("line", line))
			continue
		}
		payload := bytes.TrimRight(tokens[erxudpTokenCount-1], "\r\n")
		reading := ExtractReading(ParseFrame(payload), r.logger)
		r.logger.Debug("meter snapshot", zap.Any("reading", reading))
		return reading, nil
	}
	// no response within the line budget: every field stays absent
	return &MeterReading{}, nil
}

func (r *serialMeterReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "ROHM Co., Ltd.",
		Model:        "BP35A1",
	}, nil
}

func (r *serialMeterReader) Close() error {
	r.connected = false
	return r.transport.Close()
}
