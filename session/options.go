package session

import (
	"errors"
	"time"
)

// PurgeMode selects which stray frames a Handle discards before
// issuing a new request, per spec §4/I "purge_first_frame∈{none,
// M2S, S2M}".
type PurgeMode int

const (
	PurgeNone PurgeMode = iota
	PurgeMasterToSlave
	PurgeSlaveToMaster
)

// Option ranges, mirroring the teacher's named-constant Valid() style
// (cs104.Config) even though M-Bus's tunables are retry counts and a
// baud rate rather than IEC timing windows.
const (
	MaxDataRetryMin   = 0
	MaxDataRetryMax   = 10
	MaxSearchRetryMin = 0
	MaxSearchRetryMax = 10
	MaxFramesMin      = 1
	MaxFramesMax      = 255
)

// Baudrate is a supported EN 13757-2 serial rate (spec §6 "Serial
// transport").
type Baudrate int

const (
	Baud300   Baudrate = 300
	Baud600   Baudrate = 600
	Baud1200  Baudrate = 1200
	Baud2400  Baudrate = 2400
	Baud4800  Baudrate = 4800
	Baud9600  Baudrate = 9600
	Baud19200 Baudrate = 19200
	Baud38400 Baudrate = 38400
)

// ReadTimeout returns the per-frame read deadline for b, scaling with
// baud rate per spec §6: "1.2s at 300 Bd, 0.4s at 1200 Bd, 0.2s at
// 2400 Bd, 0.1s at ≥9600 Bd".
func (b Baudrate) ReadTimeout() time.Duration {
	switch {
	case b <= 300:
		return 1200 * time.Millisecond
	case b <= 1200:
		return 400 * time.Millisecond
	case b <= 2400:
		return 200 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// baudrateCI maps a Baudrate to its switch-baudrate control-information
// byte, per spec §4.5 "CI ∈ {0xB8..0xBF} mapping to {300, 600, 1200,
// 2400, 4800, 9600, 19200, 38400}".
var baudrateCI = map[Baudrate]byte{
	Baud300: 0xB8, Baud600: 0xB9, Baud1200: 0xBA, Baud2400: 0xBB,
	Baud4800: 0xBC, Baud9600: 0xBD, Baud19200: 0xBE, Baud38400: 0xBF,
}

// Options configures a Handle. The zero value holds no defaults; call
// Valid to fill them in (spec §4/I).
type Options struct {
	MaxDataRetry    int
	MaxSearchRetry  int
	MaxFrames       int // cap on multi-telegram chain length
	PurgeFirstFrame PurgeMode
	Baudrate        Baudrate
}

// Valid fills unset fields with their default and rejects out-of-range
// values, in the style of cs104.Config.Valid.
func (o *Options) Valid() error {
	if o == nil {
		return errors.New("mbus: nil options")
	}
	if o.MaxDataRetry == 0 {
		o.MaxDataRetry = 3
	} else if o.MaxDataRetry < MaxDataRetryMin || o.MaxDataRetry > MaxDataRetryMax {
		return errors.New("mbus: MaxDataRetry out of range")
	}
	if o.MaxSearchRetry == 0 {
		o.MaxSearchRetry = 1
	} else if o.MaxSearchRetry < MaxSearchRetryMin || o.MaxSearchRetry > MaxSearchRetryMax {
		return errors.New("mbus: MaxSearchRetry out of range")
	}
	if o.MaxFrames == 0 {
		o.MaxFrames = 16
	} else if o.MaxFrames < MaxFramesMin || o.MaxFrames > MaxFramesMax {
		return errors.New("mbus: MaxFrames out of range")
	}
	if o.Baudrate == 0 {
		o.Baudrate = Baud2400
	} else if _, ok := baudrateCI[o.Baudrate]; !ok {
		return errors.New("mbus: unsupported baud rate")
	}
	return nil
}

// DefaultOptions returns the spec's default tunables.
func DefaultOptions() Options {
	o := Options{}
	_ = o.Valid()
	return o
}
