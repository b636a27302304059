package broute

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	testPassword = "0123456789AB"
	testRouteBID = "00112233445566778899AABBCCDDEEFF"
	testIPv6     = "FE80:0000:0000:0000:021D:1290:0003:8004"
)

// meterScript emulates a BP35A1 module: OK acks, scan results once the scan
// duration reaches scanReadyAt, command echo + address for SKLL64, and the
// given terminal event after SKJOIN.
func meterScript(joinOutcome string, scanReadyAt int) func(cmd string) []string {
	return func(cmd string) []string {
		switch {
		case strings.HasPrefix(cmd, "SKSETPWD"),
			strings.HasPrefix(cmd, "SKSETRBID"),
			strings.HasPrefix(cmd, "SKSREG"):
			return []string{"OK"}
		case strings.HasPrefix(cmd, "SKSCAN"):
			var duration int
			fmt.Sscanf(cmd, "SKSCAN 2 FFFFFFFF %d", &duration)
			if duration < scanReadyAt {
				return []string{"OK", "EVENT 22 " + testIPv6}
			}
			return []string{
				"OK",
				"EVENT 20 " + testIPv6,
				"EPANDESC",
				"  Channel:21",
				"  Channel Page:09",
				"  Pan ID:8888",
				"  Addr:001D129012345678",
				"  LQI:CA",
				"  PairID:01122334",
				"EVENT 22 " + testIPv6,
			}
		case strings.HasPrefix(cmd, "SKLL64"):
			return []string{cmd, testIPv6}
		case strings.HasPrefix(cmd, "SKJOIN"):
			return []string{"OK", "EVENT 21 " + testIPv6 + " 02", joinOutcome}
		default:
			return nil
		}
	}
}

func TestConnectHappyPath(t *testing.T) {
	transport := &scriptedTransport{respond: meterScript("EVENT 25 "+testIPv6, scanDurationStart)}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	assert.NoError(t, err)
	assert.Equal(t, StateAuthenticated, session.state)
	assert.Equal(t, testIPv6, session.ipv6Addr)
	assert.Equal(t, "21", session.scan[scanKeyChannel])
	assert.Equal(t, "8888", session.scan[scanKeyPanID])
	assert.Equal(t, "001D129012345678", session.scan[scanKeyAddr])
	assert.False(t, transport.closed)
	assert.Contains(t, transport.written, "SKSETPWD C "+testPassword)
	assert.Contains(t, transport.written, "SKSETRBID "+testRouteBID)
	assert.Contains(t, transport.written, "SKSREG S2 21")
	assert.Contains(t, transport.written, "SKSREG S3 8888")
	assert.Contains(t, transport.written, "SKLL64 001D129012345678")
	assert.Contains(t, transport.written, "SKJOIN "+testIPv6)
}

func TestConnectScanDurationEscalation(t *testing.T) {
	transport := &scriptedTransport{respond: meterScript("EVENT 25 "+testIPv6, 9)}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	assert.NoError(t, err)
	assert.Equal(t, StateAuthenticated, session.state)
	for duration := 5; duration <= 9; duration++ {
		assert.Contains(t, transport.written, fmt.Sprintf("SKSCAN 2 FFFFFFFF %d", duration))
	}
	assert.NotContains(t, transport.written, "SKSCAN 2 FFFFFFFF 10")
}

func TestConnectScanExhausted(t *testing.T) {
	transport := &scriptedTransport{respond: meterScript("EVENT 25 "+testIPv6, scanDurationMax+1)}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	assert.ErrorIs(t, err, ErrScanExhausted)
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, StateCredentialsSet, connErr.State)
	assert.Equal(t, StateFailed, session.state)
	assert.True(t, transport.closed)
	assert.Contains(t, transport.written, fmt.Sprintf("SKSCAN 2 FFFFFFFF %d", scanDurationMax))
}

func TestConnectAuthenticationFailure(t *testing.T) {
	transport := &scriptedTransport{respond: meterScript("EVENT 24 "+testIPv6+" 02", scanDurationStart)}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	assert.ErrorIs(t, err, ErrAuthFailed)
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, StateJoining, connErr.State)
	assert.True(t, transport.closed)
}

func TestConnectJoinStallsWithoutOutcomeEvent(t *testing.T) {
	// module acknowledges SKJOIN but never reports EVENT 24/25
	transport := &scriptedTransport{
		respond:       meterScript("", scanDurationStart),
		maxEmptyReads: joinMaxEmptyReads + 10,
	}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	assert.ErrorIs(t, err, ErrTransportTimeout)
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, StateJoining, connErr.State)
	assert.True(t, transport.closed)
}

func TestConnectPortOpenFailure(t *testing.T) {
	openErr := &PortError{Path: "/dev/ttyUSB9", Err: errors.New("no such device")}
	transport := &scriptedTransport{openErr: openErr}
	session := newCommandSession(transport, testRouteBID, testPassword, zap.NewNop())

	err := session.connect()

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, StateDisconnected, connErr.State)
	var portErr *PortError
	assert.True(t, errors.As(err, &portErr))
	assert.Empty(t, transport.written)
}
