package transport

import (
	"io"
	"time"
)

// Mock is an in-memory Transport for tests: writes accumulate in Sent,
// reads drain from Recv (preloaded by the test). Grounded on the
// vendor source's own test harness (mbus-mock.c), which gives a
// session handle a send_buf/recv_buf pair instead of a real file
// descriptor.
type Mock struct {
	Sent []byte
	Recv []byte

	BaudRate int
}

// NewMock returns a Mock with recv preloaded as the bytes a test wants
// the session to read back.
func NewMock(recv []byte) *Mock {
	return &Mock{Recv: append([]byte(nil), recv...), BaudRate: 2400}
}

func (m *Mock) Write(b []byte) error {
	m.Sent = append(m.Sent, b...)
	return nil
}

func (m *Mock) Read(b []byte, deadline time.Duration) (int, error) {
	if len(m.Recv) == 0 {
		return 0, nil // deadline elapsed, no data
	}
	n := copy(b, m.Recv)
	m.Recv = m.Recv[n:]
	return n, nil
}

func (m *Mock) SetBaudRate(baud int) error {
	m.BaudRate = baud
	return nil
}

func (m *Mock) Close() error { return nil }

// Feed appends more bytes to Recv, as if the peer had just sent them.
func (m *Mock) Feed(b []byte) { m.Recv = append(m.Recv, b...) }

var _ io.Closer = (*Mock)(nil)
