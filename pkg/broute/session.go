package broute

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ConnectionState tracks progress through the connect sequence. States only
// move forward; the scan sub-loop repeats with a larger duration before
// reaching StateChannelFound.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StatePortOpen
	StateCredentialsSet
	StateChannelFound
	StateRegistersSet
	StateAddressResolved
	StateJoining
	StateAuthenticated
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StatePortOpen:
		return "port_open"
	case StateCredentialsSet:
		return "credentials_set"
	case StateChannelFound:
		return "channel_found"
	case StateRegistersSet:
		return "registers_set"
	case StateAddressResolved:
		return "address_resolved"
	case StateJoining:
		return "joining"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	// SKSCAN duration escalation bounds
	scanDurationStart = 5
	scanDurationMax   = 14

	// empty-read budget while waiting for an OK acknowledgement
	ackMaxEmptyReads = 5

	// empty-read budget while waiting for the PANA outcome event. At the
	// 2 s per-read timeout this allows five minutes for authentication.
	joinMaxEmptyReads = 150

	// empty-read budget while collecting one scan pass. Must comfortably
	// exceed the longest scan duration.
	scanMaxEmptyReads = 30

	prefixOK          = "OK"
	prefixScanResult  = "  "
	eventScanComplete = "EVENT 22"
	eventPanaFailure  = "EVENT 24"
	eventPanaSuccess  = "EVENT 25"
	prefixInboundData = "ERXUDP"
)

// Scan result keys as labelled by the module.
const (
	scanKeyChannel = "Channel"
	scanKeyPanID   = "Pan ID"
	scanKeyAddr    = "Addr"
)

// ScanResult holds the discovered parameters of one channel scan.
type ScanResult map[string]string

func (s ScanResult) HasChannel() bool {
	_, ok := s[scanKeyChannel]
	return ok
}

// merged returns a copy with one key/value added.
func (s ScanResult) merged(key, value string) ScanResult {
	out := make(ScanResult, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[key] = value
	return out
}

// commandSession drives the module's command set over a LineTransport until
// PANA authentication completes.
type commandSession struct {
	transport LineTransport
	routeBID  string
	password  string

	state    ConnectionState
	scan     ScanResult
	ipv6Addr string

	logger *zap.Logger
}

func newCommandSession(transport LineTransport, routeBID, password string, logger *zap.Logger) *commandSession {
	return &commandSession{
		transport: transport,
		routeBID:  routeBID,
		password:  password,
		state:     StateDisconnected,
		scan:      ScanResult{},
		logger:    logger,
	}
}

// connect runs the full sequence. On any failure the port is closed, the
// state is marked failed, and the step error is wrapped in a ConnectionError.
func (s *commandSession) connect() error {
	if err := s.run(); err != nil {
		failedAt := s.state
		s.state = StateFailed
		if closeErr := s.transport.Close(); closeErr != nil {
			s.logger.Warn("close after failed connect", zap.Error(closeErr))
		}
		return &ConnectionError{State: failedAt, Err: err}
	}
	return nil
}

func (s *commandSession) run() error {
	if err := s.transport.Open(); err != nil {
		return err
	}
	s.state = StatePortOpen

	if err := s.setCredentials(); err != nil {
		return err
	}
	s.state = StateCredentialsSet

	if err := s.scanChannel(); err != nil {
		return err
	}
	s.state = StateChannelFound

	if err := s.setRegisters(); err != nil {
		return err
	}
	s.state = StateRegistersSet

	if err := s.resolveAddress(); err != nil {
		return err
	}
	s.state = StateAddressResolved

	if err := s.join(); err != nil {
		return err
	}
	s.state = StateAuthenticated
	s.logger.Info("B-route connection established",
		zap.String("channel", s.scan[scanKeyChannel]),
		zap.String("panId", s.scan[scanKeyPanID]),
		zap.String("ipv6", s.ipv6Addr))
	return nil
}

func (s *commandSession) setCredentials() error {
	if err := s.command(fmt.Sprintf("SKSETPWD C %s", s.password)); err != nil {
		return err
	}
	return s.command(fmt.Sprintf("SKSETRBID %s", s.routeBID))
}

// command sends one configuration command and waits for its OK line.
func (s *commandSession) command(cmd string) error {
	if err := s.transport.WriteLine([]byte(cmd)); err != nil {
		return err
	}
	_, err := s.transport.WaitForPrefix(ackMaxEmptyReads, prefixOK)
	return err
}

// scanChannel escalates the scan duration from 5 up to 14 until the meter's
// channel shows up. Indented "key: value" lines are merged into the scan
// result; EVENT 22 terminates one scan pass.
func (s *commandSession) scanChannel() error {
	duration := scanDurationStart
	for !s.scan.HasChannel() {
		if err := s.transport.WriteLine([]byte(fmt.Sprintf("SKSCAN 2 FFFFFFFF %d", duration))); err != nil {
			return err
		}
		if err := s.collectScanPass(); err != nil {
			return err
		}
		duration++
		if duration > scanDurationMax && !s.scan.HasChannel() {
			return ErrScanExhausted
		}
	}
	s.logger.Debug("channel scan complete",
		zap.String("channel", s.scan[scanKeyChannel]),
		zap.String("panId", s.scan[scanKeyPanID]))
	return nil
}

func (s *commandSession) collectScanPass() error {
	emptyReads := 0
	for {
		line, err := s.transport.ReadLine()
		if err != nil {
			return err
		}
		if len(line) == 0 {
			emptyReads++
			if emptyReads >= scanMaxEmptyReads {
				return ErrTransportTimeout
			}
			continue
		}
		emptyReads = 0
		text := string(line)
		if strings.HasPrefix(text, eventScanComplete) {
			return nil
		}
		if strings.HasPrefix(text, prefixScanResult) {
			if key, value, ok := splitScanLine(text); ok {
				s.scan = s.scan.merged(key, value)
			}
		}
	}
}

func (s *commandSession) setRegisters() error {
	if err := s.command(fmt.Sprintf("SKSREG S2 %s", s.scan[scanKeyChannel])); err != nil {
		return err
	}
	return s.command(fmt.Sprintf("SKSREG S3 %s", s.scan[scanKeyPanID]))
}

// resolveAddress turns the short address from the scan into the routable
// IPv6 link-local address. The module echoes the command (possibly as an
// empty line) before the address line.
func (s *commandSession) resolveAddress() error {
	if err := s.transport.WriteLine([]byte(fmt.Sprintf("SKLL64 %s", s.scan[scanKeyAddr]))); err != nil {
		return err
	}
	if _, err := s.transport.ReadLine(); err != nil {
		return err
	}
	line, err := s.transport.ReadLine()
	if err != nil {
		return err
	}
	s.ipv6Addr = strings.TrimSpace(string(line))
	s.logger.Debug("resolved meter address", zap.String("ipv6", s.ipv6Addr))
	return nil
}

// join starts PANA authentication and waits for its terminal event. A module
// that never emits either event fails with ErrTransportTimeout once the
// empty-read budget runs out.
func (s *commandSession) join() error {
	if err := s.command(fmt.Sprintf("SKJOIN %s", s.ipv6Addr)); err != nil {
		return err
	}
	s.state = StateJoining
	line, err := s.transport.WaitForPrefix(joinMaxEmptyReads, eventPanaFailure, eventPanaSuccess)
	if err != nil {
		return err
	}
	if strings.HasPrefix(string(line), eventPanaFailure) {
		return ErrAuthFailed
	}
	s.logger.Debug("PANA authentication success (EVENT 25)")
	return nil
}

func splitScanLine(text string) (string, string, bool) {
	cols := strings.SplitN(strings.TrimSpace(text), ":", 2)
	if len(cols) != 2 {
		return "", "", false
	}
	return cols[0], cols[1], true
}
