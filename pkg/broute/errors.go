package broute

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportTimeout is returned when an expected acknowledgement or
	// event line is not seen within the empty-read budget.
	ErrTransportTimeout = errors.New("broute: read timeout waiting for response line")

	// ErrScanExhausted is returned when no channel is found after the scan
	// duration has been escalated up to its ceiling.
	ErrScanExhausted = errors.New("broute: could not find valid channel within scan duration")

	// ErrAuthFailed is returned when the module reports PANA authentication
	// failure (EVENT 24).
	ErrAuthFailed = errors.New("broute: PANA authentication failed (EVENT 24)")

	// ErrNotConnected is returned by ReadSnapshot when Connect has not
	// completed successfully.
	ErrNotConnected = errors.New("broute: not connected, call Connect first")
)

// PortError reports a failure to open or close the serial device.
type PortError struct {
	Path string
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("broute: serial port %s: %s", e.Path, e.Err)
}

func (e *PortError) Unwrap() error {
	return e.Err
}

// ConnectionError wraps any failure raised during Connect. The originating
// step failure is available through Unwrap; the port is always closed before
// a ConnectionError is returned.
type ConnectionError struct {
	State ConnectionState
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("broute: connect failed at %s: %s", e.State, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
