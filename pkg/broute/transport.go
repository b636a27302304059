package broute

import (
	"bytes"
	"io"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 2 * time.Second
)

// LineTransport is the line-oriented half-duplex link to the wireless module.
// ReadLine returning an empty line means "no data this tick", not an error.
type LineTransport interface {
	Open() error
	WriteLine(cmd []byte) error
	ReadLine() ([]byte, error)
	WaitForPrefix(maxEmptyReads int, prefixes ...string) ([]byte, error)
	Close() error
}

type serialLineTransport struct {
	path        string
	baud        int
	readTimeout time.Duration
	port        *serial.Port
	logger      *zap.Logger
}

func NewSerialLineTransport(path string, logger *zap.Logger) LineTransport {
	return &serialLineTransport{
		path:        path,
		baud:        DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
		logger:      logger,
	}
}

func (t *serialLineTransport) Open() error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        t.path,
		Baud:        t.baud,
		ReadTimeout: t.readTimeout,
		Size:        8,
	})
	if err != nil {
		return &PortError{Path: t.path, Err: err}
	}
	t.port = port
	return nil
}

// WriteLine appends CR-LF and writes the command in a single write call.
func (t *serialLineTransport) WriteLine(cmd []byte) error {
	t.logger.Debug("write to meter", zap.ByteString("cmd", cmd))
	line := make([]byte, 0, len(cmd)+2)
	line = append(line, cmd...)
	line = append(line, '\r', '\n')
	_, err := t.port.Write(line)
	return err
}

// ReadLine reads bytes until CR-LF. A read timeout yields whatever has been
// accumulated so far, usually the empty line.
func (t *serialLineTransport) ReadLine() ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := t.port.Read(buf)
		if err == io.EOF {
			// per-read timeout expired
			return bytes.TrimRight(line, "\r\n"), nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return bytes.TrimRight(line, "\r\n"), nil
		}
		line = append(line, buf[0])
		if len(line) >= 2 && line[len(line)-2] == '\r' && line[len(line)-1] == '\n' {
			return line[:len(line)-2], nil
		}
	}
}

func (t *serialLineTransport) WaitForPrefix(maxEmptyReads int, prefixes ...string) ([]byte, error) {
	return waitForPrefix(t, maxEmptyReads, prefixes...)
}

type lineReader interface {
	ReadLine() ([]byte, error)
}

// waitForPrefix discards lines until one starts with any of the requested
// prefixes. More than maxEmptyReads consecutive empty reads fail with
// ErrTransportTimeout.
func waitForPrefix(rd lineReader, maxEmptyReads int, prefixes ...string) ([]byte, error) {
	emptyCount := 0
	for {
		line, err := rd.ReadLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			emptyCount++
			if emptyCount >= maxEmptyReads {
				return nil, ErrTransportTimeout
			}
			continue
		}
		emptyCount = 0
		for _, prefix := range prefixes {
			if bytes.HasPrefix(line, []byte(prefix)) {
				return line, nil
			}
		}
	}
}

func (t *serialLineTransport) Close() error {
	if t.port == nil {
		return nil
	}
	port := t.port
	t.port = nil
	if err := port.Close(); err != nil {
		return &PortError{Path: t.path, Err: err}
	}
	return nil
}
