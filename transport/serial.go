package transport

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Serial is a raw 8E1 serial line, configured the way the vendor
// source's mbus_serial_connect does: CS8|PARENB|CREAD|CLOCAL, VMIN=0
// and VTIME driven by the baud rate (faster lines get a shorter
// timeout, since the per-byte arrival time shrinks with baud). Uses
// golang.org/x/sys/unix directly rather than a helper ioctl package --
// the termios struct shape mirrors Daedaluz-goserial's Termios, but
// that package's ioctl plumbing is its own dependency this module does
// not need.
type Serial struct {
	fd int
}

var baudConstants = map[int]uint32{
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// vtimeDeciseconds mirrors mbus_serial_set_baudrate's per-rate VTIME:
// 12 up to 300 Bd, 4 up to 1200 Bd, 2 up to 2400 Bd and 1 above. A rate
// between two of these steps takes the value of the step above it.
func vtimeDeciseconds(baud int) byte {
	switch {
	case baud <= 300:
		return 12
	case baud <= 1200:
		return 4
	case baud <= 2400:
		return 2
	default:
		return 1
	}
}

// OpenSerial opens device and configures it at baud, 8E1.
func OpenSerial(device string, baud int) (*Serial, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("mbus: open %s: %w", device, err)
	}
	s := &Serial{fd: fd}
	if err := s.SetBaudRate(baud); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return s, nil
}

func (s *Serial) SetBaudRate(baud int) error {
	speed, ok := baudConstants[baud]
	if !ok {
		return fmt.Errorf("mbus: unsupported baud rate %d", baud)
	}
	t, err := unix.IoctlGetTermios(s.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("mbus: tcgetattr: %w", err)
	}
	t.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL | unix.PARENB
	t.Iflag, t.Oflag, t.Lflag = 0, 0, 0
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = vtimeDeciseconds(baud)
	t.Ispeed, t.Ospeed = speed, speed
	if err := unix.IoctlSetTermios(s.fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("mbus: tcsetattr: %w", err)
	}
	return nil
}

func (s *Serial) Write(b []byte) error {
	_, err := unix.Write(s.fd, b)
	return err
}

// Read blocks on the kernel-side VTIME/VMIN timeout configured by
// SetBaudRate rather than its own deadline parameter -- the serial
// line's byte-arrival timing already encodes the link-layer response
// window (spec §5), so deadline here is advisory only and not
// separately enforced.
func (s *Serial) Read(b []byte, deadline time.Duration) (int, error) {
	n, err := unix.Read(s.fd, b)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Serial) Close() error {
	return unix.Close(s.fd)
}
