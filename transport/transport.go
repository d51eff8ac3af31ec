// Package transport carries raw M-Bus bytes between a session.Handle
// and a physical bus: a serial line (EN 13757-2, 8E1) or a TCP gateway
// speaking the same byte stream. Grounded on the single-method
// send/receive shape of Daedaluz-goserial's Port, generalized to the
// two concrete carriers the spec names.
package transport

import "time"

// Transport is the minimal I/O surface a session needs: write a frame,
// read whatever arrives until a deadline. Implementations do not frame
// or validate -- that is mbus.Parse's job.
type Transport interface {
	// Write sends b in full or returns an error.
	Write(b []byte) error

	// Read reads up to len(b) bytes, blocking until at least one byte
	// arrives or deadline elapses, and returns the number of bytes read.
	// Returning (0, nil) signals "deadline elapsed, no data".
	Read(b []byte, deadline time.Duration) (int, error)

	// SetBaudRate reconfigures the underlying line speed, where that is
	// meaningful (serial); a no-op returning nil otherwise (TCP).
	SetBaudRate(baud int) error

	Close() error
}
