package session

import (
	"testing"
	"time"

	"github.com/rob-gra/go-mbus/mbus"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidDefaulting(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.Valid())
	assert.Equal(t, 3, opts.MaxDataRetry)
	assert.Equal(t, 1, opts.MaxSearchRetry)
	assert.Equal(t, 16, opts.MaxFrames)
	assert.Equal(t, Baud2400, opts.Baudrate)
}

func TestOptionsValidRejectsOutOfRange(t *testing.T) {
	opts := Options{MaxDataRetry: 99}
	assert.Error(t, opts.Valid())
}

func TestOptionsValidRejectsUnsupportedBaud(t *testing.T) {
	opts := Options{Baudrate: Baudrate(1234)}
	assert.Error(t, opts.Valid())
}

func TestBaudrateReadTimeoutScaling(t *testing.T) {
	assert.Equal(t, 1200*time.Millisecond, Baud300.ReadTimeout())
	assert.Equal(t, 400*time.Millisecond, Baud1200.ReadTimeout())
	assert.Equal(t, 200*time.Millisecond, Baud2400.ReadTimeout())
	assert.Equal(t, 100*time.Millisecond, Baud9600.ReadTimeout())
}

func newMockHandle(t *testing.T, recv []byte) (*Handle, *transport.Mock) {
	t.Helper()
	m := transport.NewMock(recv)
	h, err := NewHandle(m, DefaultOptions())
	require.NoError(t, err)
	return h, m
}

func TestPingSuccess(t *testing.T) {
	h, m := newMockHandle(t, []byte{0xE5})
	require.NoError(t, h.Ping(5))
	assert.NotEmpty(t, m.Sent)
	assert.Equal(t, byte(0x10), m.Sent[0])
}

func TestPingTimeoutExhaustsRetries(t *testing.T) {
	h, _ := newMockHandle(t, nil)
	err := h.Ping(5)
	require.Error(t, err)
	merr, ok := err.(*mbus.Error)
	require.True(t, ok)
	assert.Equal(t, mbus.KindTimeout, merr.Kind)
}

func TestPingWrongReplyTypeIsInvalid(t *testing.T) {
	// Short frame reply where an ACK was expected.
	buf := make([]byte, 8)
	n, err := mbus.Pack(&mbus.Frame{Type: mbus.TypeShort, Control: mbus.CtrlRspUD, Address: 5}, buf)
	require.NoError(t, err)
	h, _ := newMockHandle(t, buf[:n])
	err = h.Ping(5)
	assert.Error(t, err)
}

func packLongFrame(t *testing.T, control byte, ci byte, data []byte) []byte {
	t.Helper()
	buf := make([]byte, 300)
	n, err := mbus.Pack(&mbus.Frame{Type: mbus.TypeLong, Control: control, Address: 5, ControlInformation: ci, Data: data}, buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestReadDataSingleFrame(t *testing.T) {
	header := make([]byte, 12)
	record := []byte{0x04, 0x03, 0x01, 0x00, 0x00, 0x00} // no "more follows" marker
	reply := packLongFrame(t, mbus.CtrlRspUD, mbus.CIRespVariable, append(header, record...))

	h, _ := newMockHandle(t, reply)
	chain, err := h.ReadData(5)
	require.NoError(t, err)
	require.NotNil(t, chain)
	assert.Equal(t, 1, chain.Len())
}

// queuedTransport hands back one pre-packed frame per Read call, used
// to exercise ReadData's multi-telegram loop where each iteration's
// recv() must see exactly one frame.
type queuedTransport struct {
	sent    [][]byte
	replies [][]byte
	idx     int
}

func (q *queuedTransport) Write(b []byte) error {
	cp := append([]byte(nil), b...)
	q.sent = append(q.sent, cp)
	return nil
}

func (q *queuedTransport) Read(b []byte, deadline time.Duration) (int, error) {
	if q.idx >= len(q.replies) {
		return 0, nil
	}
	reply := q.replies[q.idx]
	q.idx++
	n := copy(b, reply)
	return n, nil
}

func (q *queuedTransport) SetBaudRate(baud int) error { return nil }
func (q *queuedTransport) Close() error               { return nil }

func TestReadDataMultiFrameTogglesFCB(t *testing.T) {
	header := make([]byte, 12)
	moreRecord := []byte{0x1F} // "more records follow"
	frame1 := packLongFrame(t, mbus.CtrlRspUD, mbus.CIRespVariable, append(header, moreRecord...))

	lastRecord := []byte{0x04, 0x03, 0x01, 0x00, 0x00, 0x00}
	frame2 := packLongFrame(t, mbus.CtrlRspUD, mbus.CIRespVariable, lastRecord)

	q := &queuedTransport{replies: [][]byte{frame1, frame2}}
	h, err := NewHandle(q, DefaultOptions())
	require.NoError(t, err)

	chain, err := h.ReadData(5)
	require.NoError(t, err)
	require.NotNil(t, chain)
	assert.Equal(t, 2, chain.Len())

	require.Len(t, q.sent, 2)
	firstControl := q.sent[0][1]
	secondControl := q.sent[1][1]
	assert.NotEqual(t, firstControl&mbus.FCB, secondControl&mbus.FCB)
}

func TestReadDataFixedCIStopsImmediately(t *testing.T) {
	body := make([]byte, 16)
	reply := packLongFrame(t, mbus.CtrlRspUD, mbus.CIRespFixed, body)
	h, _ := newMockHandle(t, reply)
	chain, err := h.ReadData(5)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.Len())
}

func TestSelectSecondaryNoResponse(t *testing.T) {
	h, _ := newMockHandle(t, nil)
	outcome, err := h.SelectSecondary("FFFFFFFFFFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, mbus.ProbeNothing, outcome)
}

func TestSelectSecondarySingle(t *testing.T) {
	h, _ := newMockHandle(t, []byte{0xE5})
	outcome, err := h.SelectSecondary("FFFFFFFFFFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, mbus.ProbeSingle, outcome)
}

func TestProbeSecondaryMaskPopulatesManufacturer(t *testing.T) {
	header := make([]byte, 12)
	copy(header[0:4], []byte{0x78, 0x56, 0x34, 0x12}) // BCD id
	copy(header[4:6], []byte{0x77, 0x04})             // manufacturer "ACW"
	header[6] = 1                                     // version
	header[7] = 0x07                                  // medium: Water
	record := []byte{0x04, 0x03, 0x01, 0x00, 0x00, 0x00}
	dataReply := packLongFrame(t, mbus.CtrlRspUD, mbus.CIRespVariable, append(header, record...))

	// The empty reply is the silent bus that SelectSecondary reads after
	// the ACK; the data reply only answers the following REQ_UD2.
	q := &queuedTransport{replies: [][]byte{{0xE5}, {}, dataReply}}
	h, err := NewHandle(q, DefaultOptions())
	require.NoError(t, err)

	outcome, addr, err := h.ProbeSecondaryMask("FFFFFFFFFFFFFFFF")
	require.NoError(t, err)
	require.Equal(t, mbus.ProbeSingle, outcome)
	require.NotNil(t, addr)
	assert.Equal(t, "ACW", addr.Manufacturer)
	assert.Equal(t, "12345678", addr.ID)
	assert.Equal(t, byte(1), addr.Version)
	assert.Equal(t, byte(0x07), addr.Medium)
}

func TestApplicationResetSuccess(t *testing.T) {
	h, m := newMockHandle(t, []byte{0xE5})
	require.NoError(t, h.ApplicationReset(5, -1))
	assert.NotEmpty(t, m.Sent)
}

func TestSetPrimaryAddressRejectsReserved(t *testing.T) {
	h, _ := newMockHandle(t, []byte{0xE5})
	err := h.SetPrimaryAddress(0xFD)
	assert.Error(t, err)
}

func TestSwitchBaudrateUpdatesOptions(t *testing.T) {
	h, _ := newMockHandle(t, []byte{0xE5})
	require.NoError(t, h.SwitchBaudrate(5, Baud9600))
	assert.Equal(t, Baud9600, h.Options.Baudrate)
}

func TestSwitchBaudrateRejectsUnsupported(t *testing.T) {
	h, _ := newMockHandle(t, []byte{0xE5})
	err := h.SwitchBaudrate(5, Baudrate(1234))
	assert.Error(t, err)
}
