package transport

import (
	"fmt"
	"net"
	"time"
)

// TCP carries M-Bus bytes over a gateway connection (spec §4.6
// "external interfaces"), using net.Dial plus per-call read deadlines
// in place of the vendor source's SO_RCVTIMEO/SO_SNDTIMEO socket
// options.
type TCP struct {
	conn net.Conn
}

// DialTCP connects to an M-Bus/TCP gateway at addr ("host:port").
func DialTCP(addr string, timeout time.Duration) (*TCP, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("mbus: dial %s: %w", addr, err)
	}
	return &TCP{conn: conn}, nil
}

func (t *TCP) Write(b []byte) error {
	_, err := t.conn.Write(b)
	return err
}

func (t *TCP) Read(b []byte, deadline time.Duration) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(b)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// SetBaudRate has no meaning over TCP; a gateway bridges its own
// serial line independently of this connection.
func (t *TCP) SetBaudRate(baud int) error { return nil }

func (t *TCP) Close() error { return t.conn.Close() }
