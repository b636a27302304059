package broute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedTransport replays canned response lines for each written command.
// An exhausted script turns into a hard error after enough empty reads so a
// broken test cannot spin forever.
type scriptedTransport struct {
	respond       func(cmd string) []string
	queue         [][]byte
	written       []string
	opened        bool
	closed        bool
	openErr       error
	emptyReads    int
	maxEmptyReads int
}

func (t *scriptedTransport) Open() error {
	if t.openErr != nil {
		return t.openErr
	}
	t.opened = true
	return nil
}

func (t *scriptedTransport) WriteLine(cmd []byte) error {
	c := string(cmd)
	t.written = append(t.written, c)
	if t.respond != nil {
		for _, line := range t.respond(c) {
			t.queue = append(t.queue, []byte(line))
		}
	}
	return nil
}

func (t *scriptedTransport) ReadLine() ([]byte, error) {
	if len(t.queue) == 0 {
		limit := t.maxEmptyReads
		if limit == 0 {
			limit = 50
		}
		t.emptyReads++
		if t.emptyReads > limit {
			return nil, errors.New("script exhausted")
		}
		return nil, nil
	}
	t.emptyReads = 0
	line := t.queue[0]
	t.queue = t.queue[1:]
	return line, nil
}

func (t *scriptedTransport) WaitForPrefix(maxEmptyReads int, prefixes ...string) ([]byte, error) {
	return waitForPrefix(t, maxEmptyReads, prefixes...)
}

func (t *scriptedTransport) Close() error {
	t.closed = true
	return nil
}

func TestWaitForPrefixReturnsMatchingLine(t *testing.T) {
	transport := &scriptedTransport{
		queue: [][]byte{[]byte("SKSETPWD C X"), []byte(""), []byte("OK")},
	}

	line, err := transport.WaitForPrefix(5, "OK")

	assert.NoError(t, err)
	assert.Equal(t, "OK", string(line))
}

func TestWaitForPrefixEmptyReadBudget(t *testing.T) {
	transport := &scriptedTransport{}

	_, err := transport.WaitForPrefix(5, "OK")

	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.Equal(t, 5, transport.emptyReads)
}

func TestWaitForPrefixBudgetResetsOnNonEmptyLine(t *testing.T) {
	transport := &scriptedTransport{
		queue: [][]byte{
			[]byte(""), []byte(""), []byte(""), []byte(""),
			[]byte("EVENT 02"),
			[]byte(""), []byte(""), []byte(""), []byte(""),
			[]byte("OK"),
		},
	}

	line, err := transport.WaitForPrefix(5, "OK")

	assert.NoError(t, err)
	assert.Equal(t, "OK", string(line))
}

func TestWaitForPrefixMatchesAnyPrefix(t *testing.T) {
	transport := &scriptedTransport{
		queue: [][]byte{[]byte("EVENT 21 FE80"), []byte("EVENT 25 FE80")},
	}

	line, err := transport.WaitForPrefix(5, "EVENT 24", "EVENT 25")

	assert.NoError(t, err)
	assert.Equal(t, "EVENT 25 FE80", string(line))
}
