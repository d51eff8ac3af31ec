// Package session drives the request/response state machine of spec
// §4.5/§4.6 on top of a transport.Transport: PING, REQ_UD2 readout
// (with FCB toggling and multi-telegram chaining), secondary
// selection and scan, application reset, set-primary-address, and
// baudrate switch. Grounded on the teacher's cs104 connection loop
// (explicit states, options-driven timeouts, synchronous send/recv)
// generalized from IEC 104's APDU exchange to M-Bus's simpler
// send-one-frame/await-one-reply cycle.
package session

import (
	"time"

	"github.com/rob-gra/go-mbus/clog"
	"github.com/rob-gra/go-mbus/mbus"
	"github.com/rob-gra/go-mbus/transport"
)

const (
	addrNetworkLayer = 0xFD
	addrBroadcastAck = 0xFE
	addrBroadcastNak = 0xFF

	ciSelectSlave      = 0x52
	ciSetPrimaryAddr   = 0x51
	ciApplicationReset = 0x50

	difSetAddr = 0x01
	vifSetAddr = 0x7A
)

// Handle is a single bus connection: one transport, its options, its
// FCB state, and an optional tracer. Not safe for concurrent use by
// multiple goroutines (spec §5 "single-threaded cooperative per bus
// handle").
type Handle struct {
	Transport transport.Transport
	Options   Options
	Log       clog.Clog

	fcb bool // current frame-count bit for the next REQ_UD2/select
}

// NewHandle wraps t with opts (validated via Options.Valid) and a
// disabled-by-default tracer.
func NewHandle(t transport.Transport, opts Options) (*Handle, error) {
	if err := opts.Valid(); err != nil {
		return nil, err
	}
	return &Handle{Transport: t, Options: opts, Log: clog.NewLogger("mbus: ")}, nil
}

func (h *Handle) send(f *mbus.Frame) error {
	buf := make([]byte, 300)
	n, err := mbus.Pack(f, buf)
	if err != nil {
		return err
	}
	h.Log.TraceFrame("tx", buf[:n])
	return h.Transport.Write(buf[:n])
}

// recv reads and parses exactly one frame, growing its read buffer as
// Parse demands more bytes (spec §4.1's NeedMore/Invalid/Complete
// contract), until the transport's per-frame deadline elapses.
func (h *Handle) recv() (*mbus.Frame, error) {
	deadline := h.Options.Baudrate.ReadTimeout()
	buf := make([]byte, 0, 300)
	chunk := make([]byte, 300)

	for {
		n, err := h.Transport.Read(chunk, deadline)
		if err != nil {
			return nil, &mbus.Error{Kind: mbus.KindTransport, Message: err.Error()}
		}
		if n == 0 && len(buf) == 0 {
			return nil, mbusTimeout()
		}
		buf = append(buf, chunk[:n]...)

		res := mbus.Parse(buf)
		switch res.Status {
		case mbus.StatusComplete:
			h.Log.TraceFrame("rx", buf[:res.Consumed])
			return res.Frame, nil
		case mbus.StatusInvalid:
			return nil, res.Err
		case mbus.StatusNeedMore:
			if n == 0 {
				return nil, mbusTimeout()
			}
			continue
		}
	}
}

func mbusTimeout() *mbus.Error {
	return &mbus.Error{Kind: mbus.KindTimeout, Message: "no response within deadline"}
}

// purge drains whatever the transport has buffered, per spec §4.5
// "echo purge": used after a receive when purge_first_frame matches
// the direction just seen, and after an Invalid reply before retrying.
func (h *Handle) purge() {
	deadline := 20 * time.Millisecond
	chunk := make([]byte, 300)
	for {
		n, err := h.Transport.Read(chunk, deadline)
		if err != nil || n == 0 {
			return
		}
	}
}

func isM2S(control byte) bool { return control&mbus.DirM2S != 0 }

// maybePurgeEcho implements the purge_first_frame option: on a
// two-wire bus the master hears its own transmission, so after a
// receive whose direction matches the configured echo direction,
// issue one more receive to discard it.
func (h *Handle) maybePurgeEcho(control byte) {
	switch h.Options.PurgeFirstFrame {
	case PurgeMasterToSlave:
		if isM2S(control) {
			h.purge()
		}
	case PurgeSlaveToMaster:
		if !isM2S(control) {
			h.purge()
		}
	}
}

// withRetry runs op up to MaxDataRetry+1 times, purging the bus before
// each retry, per spec §4.5/§7 ("invalid frames trigger a purge before
// retry").
func (h *Handle) withRetry(op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= h.Options.MaxDataRetry; attempt++ {
		if attempt > 0 {
			h.purge()
		}
		if err := op(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Ping sends SND_NKE and waits for the slave's ACK.
func (h *Handle) Ping(address byte) error {
	return h.withRetry(func() error {
		if err := h.send(&mbus.Frame{Type: mbus.TypeShort, Control: mbus.CtrlSndNke | mbus.DirM2S, Address: address}); err != nil {
			return err
		}
		f, err := h.recv()
		if err != nil {
			return err
		}
		h.maybePurgeEcho(f.Control)
		if f.Type != mbus.TypeAck {
			return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected ACK"}
		}
		return nil
	})
}

// ReadData performs a REQ_UD2 readout, following multi-telegram
// chains by toggling FCB until the slave clears the "more records
// follow" marker or MaxFrames is reached (spec §4.5 "REQ_UD2 /
// readout").
func (h *Handle) ReadData(address byte) (*mbus.Frame, error) {
	var head, tail *mbus.Frame

	for i := 0; i < h.Options.MaxFrames; i++ {
		control := mbus.CtrlReqUD2 | mbus.DirM2S | mbus.FCV
		if h.fcb {
			control |= mbus.FCB
		}

		var reply *mbus.Frame
		err := h.withRetry(func() error {
			if err := h.send(&mbus.Frame{Type: mbus.TypeShort, Control: control, Address: address}); err != nil {
				return err
			}
			f, err := h.recv()
			if err != nil {
				return err
			}
			h.maybePurgeEcho(f.Control)
			if f.Type != mbus.TypeLong {
				return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected long frame"}
			}
			reply = f
			return nil
		})
		if err != nil {
			return nil, err
		}

		if head == nil {
			head, tail = reply, reply
		} else {
			tail = tail.Append(reply)
		}

		if mbus.IsFixedCI(reply.ControlInformation) {
			break
		}

		// Only the first frame of a chain carries the 12-byte
		// variable-data header; continuation frames are pure record
		// streams (spec §3 "Lifecycle").
		recordPayload := reply.Data
		if i == 0 {
			_, body, err := mbus.ParseVariableDataHeader(reply.Data)
			if err != nil {
				return nil, err
			}
			recordPayload = body
		}

		more, err := lastRecordMoreFollows(recordPayload)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		h.fcb = !h.fcb
	}
	return head, nil
}

// lastRecordMoreFollows parses payload's records and reports whether
// the final non-filler DIF is 0x1F ("more records follow").
func lastRecordMoreFollows(payload []byte) (bool, error) {
	head, err := mbus.ParseRecords(payload)
	if err != nil {
		return false, err
	}
	if head == nil {
		return false, nil
	}
	last := head
	for c := head; c != nil; c = c.Next() {
		last = c
	}
	return last.MoreFollows, nil
}

// SelectSecondary sends a select (SND_UD, CI=0x52) for the given
// 16-nibble mask and classifies the outcome, per spec §4.5 "secondary
// selection".
func (h *Handle) SelectSecondary(mask string) (mbus.ProbeOutcome, error) {
	data, err := mbus.EncodeSecondaryMask(mask)
	if err != nil {
		return mbus.ProbeNothing, err
	}
	control := mbus.CtrlSndUD | mbus.DirM2S
	if h.fcb {
		control |= mbus.FCB
	}
	h.fcb = !h.fcb

	if err := h.send(&mbus.Frame{Type: mbus.TypeLong, Control: control, Address: addrNetworkLayer, ControlInformation: ciSelectSlave, Data: data}); err != nil {
		return mbus.ProbeNothing, err
	}

	f, err := h.recv()
	if err != nil {
		if e, ok := err.(*mbus.Error); ok && e.Kind == mbus.KindTimeout {
			return mbus.ProbeNothing, nil
		}
		h.purge()
		return mbus.ProbeCollision, nil
	}
	if f.Type != mbus.TypeAck {
		return mbus.ProbeNothing, &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected ACK to select"}
	}
	// bus silent after the ACK -> Single; more data queued -> Collision.
	if hasMoreData(h) {
		return mbus.ProbeCollision, nil
	}
	return mbus.ProbeSingle, nil
}

func hasMoreData(h *Handle) bool {
	chunk := make([]byte, 1)
	n, err := h.Transport.Read(chunk, 20*time.Millisecond)
	return err == nil && n > 0
}

// ProbeSecondaryMask implements mbus.Prober: select by mask, then (if
// a single device answered) read its full address back via the
// network-layer address.
func (h *Handle) ProbeSecondaryMask(mask string) (mbus.ProbeOutcome, *mbus.SecondaryAddress, error) {
	var outcome mbus.ProbeOutcome
	var addr *mbus.SecondaryAddress

	err := h.withRetry(func() error {
		o, err := h.SelectSecondary(mask)
		if err != nil {
			return err
		}
		outcome = o
		if o != mbus.ProbeSingle {
			return nil
		}
		reply, err := h.ReadData(addrNetworkLayer)
		if err != nil {
			return err
		}
		if reply == nil {
			return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "short network-layer reply"}
		}
		header, _, err := mbus.ParseVariableDataHeader(reply.Data)
		if err != nil {
			return err
		}
		addr = &mbus.SecondaryAddress{
			ID:           header.Identification,
			Manufacturer: header.Manufacturer,
			Version:      header.Version,
			Medium:       header.Medium,
		}
		return nil
	})
	if err != nil {
		return mbus.ProbeNothing, nil, err
	}
	return outcome, addr, nil
}

// SetPrimaryAddress sends SND_UD CI=0x51 to reprogram a secondary-
// selected slave's primary address, per spec §4.5. newAddr must not
// be one of the reserved network addresses.
func (h *Handle) SetPrimaryAddress(newAddr byte) error {
	if newAddr == addrNetworkLayer || newAddr == addrBroadcastAck || newAddr == addrBroadcastNak {
		return &mbus.Error{Kind: mbus.KindUsage, Message: "address is reserved"}
	}
	data := []byte{difSetAddr, vifSetAddr, newAddr}
	return h.withRetry(func() error {
		control := mbus.CtrlSndUD | mbus.DirM2S
		if err := h.send(&mbus.Frame{Type: mbus.TypeLong, Control: control, Address: addrNetworkLayer, ControlInformation: ciSetPrimaryAddr, Data: data}); err != nil {
			return err
		}
		f, err := h.recv()
		if err != nil {
			return err
		}
		if f.Type != mbus.TypeAck {
			return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected ACK to set-address"}
		}
		return nil
	})
}

// ApplicationReset sends SND_UD CI=0x50 with an optional subcode
// (-1 for none), per spec §4.5/I "application reset".
func (h *Handle) ApplicationReset(address byte, subcode int) error {
	var data []byte
	if subcode >= 0 {
		data = []byte{byte(subcode)}
	}
	return h.withRetry(func() error {
		control := mbus.CtrlSndUD | mbus.DirM2S
		if err := h.send(&mbus.Frame{Type: mbus.TypeLong, Control: control, Address: address, ControlInformation: ciApplicationReset, Data: data}); err != nil {
			return err
		}
		f, err := h.recv()
		if err != nil {
			return err
		}
		if f.Type != mbus.TypeAck {
			return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected ACK to application reset"}
		}
		return nil
	})
}

// SwitchBaudrate sends a control frame reprogramming the slave's line
// speed, then reconfigures the local transport to match (spec §4.5
// "switch baudrate").
func (h *Handle) SwitchBaudrate(address byte, baud Baudrate) error {
	ci, ok := baudrateCI[baud]
	if !ok {
		return &mbus.Error{Kind: mbus.KindUsage, Message: "unsupported baud rate"}
	}
	control := mbus.CtrlSndUD | mbus.DirM2S
	err := h.withRetry(func() error {
		if err := h.send(&mbus.Frame{Type: mbus.TypeControl, Control: control, Address: address, ControlInformation: ci}); err != nil {
			return err
		}
		f, err := h.recv()
		if err != nil {
			return err
		}
		if f.Type != mbus.TypeAck {
			return &mbus.Error{Kind: mbus.KindInvalidReply, Message: "expected ACK to switch-baudrate"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	h.Options.Baudrate = baud
	return h.Transport.SetBaudRate(int(baud))
}

// Close releases the underlying transport.
func (h *Handle) Close() error { return h.Transport.Close() }
