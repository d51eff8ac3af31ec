package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseAck(t *testing.T) {
	res := Parse([]byte{ackByte})
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, TypeAck, res.Frame.Type)
	assert.Equal(t, 1, res.Consumed)
}

func TestParseNeedMoreEmpty(t *testing.T) {
	res := Parse(nil)
	assert.Equal(t, StatusNeedMore, res.Status)
	assert.Equal(t, 1, res.Need)
}

func TestParseShortFrame(t *testing.T) {
	control, address := CtrlReqUD2|DirM2S, byte(5)
	chk := checksum(control, address)
	buf := []byte{startShort, control, address, chk, stopByte}
	res := Parse(buf)
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, TypeShort, res.Frame.Type)
	assert.Equal(t, address, res.Frame.Address)
	assert.Equal(t, 5, res.Consumed)
}

func TestParseShortFrameNeedMore(t *testing.T) {
	res := Parse([]byte{startShort, CtrlReqUD2, 5})
	assert.Equal(t, StatusNeedMore, res.Status)
	assert.Equal(t, 2, res.Need)
}

func TestParseShortFrameBadChecksum(t *testing.T) {
	buf := []byte{startShort, CtrlReqUD2 | DirM2S, 5, 0x00, stopByte}
	res := Parse(buf)
	assert.Equal(t, StatusInvalid, res.Status)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindFraming, res.Err.Kind)
}

func TestParseControlFrame(t *testing.T) {
	f := &Frame{Type: TypeControl, Control: CtrlSndUD | DirM2S, Address: 9, ControlInformation: 0xBB}
	buf := make([]byte, 16)
	n, err := Pack(f, buf)
	require.NoError(t, err)
	res := Parse(buf[:n])
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, TypeControl, res.Frame.Type)
	assert.Equal(t, byte(0xBB), res.Frame.ControlInformation)
}

func TestParseLongFrameMismatchedLength(t *testing.T) {
	buf := []byte{startLong, 4, 5, startLong}
	res := Parse(buf)
	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, KindFraming, res.Err.Kind)
}

func TestParseLongFrameNeedMore(t *testing.T) {
	res := Parse([]byte{startLong, 5, 5})
	assert.Equal(t, StatusNeedMore, res.Status)
	assert.Equal(t, 11-3, res.Need)
}

func TestPackParseLongFrameRoundTrip(t *testing.T) {
	f := &Frame{
		Type:               TypeLong,
		Control:            CtrlSndUD | DirM2S,
		Address:            3,
		ControlInformation: CIRespVariable,
		Data:               []byte{0x01, 0x02, 0x03, 0x04, 0x05},
	}
	buf := make([]byte, 32)
	n, err := Pack(f, buf)
	require.NoError(t, err)

	res := Parse(buf[:n])
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, f.Control, res.Frame.Control)
	assert.Equal(t, f.Address, res.Frame.Address)
	assert.Equal(t, f.ControlInformation, res.Frame.ControlInformation)
	assert.Equal(t, f.Data, res.Frame.Data)
	assert.Equal(t, n, res.Consumed)
}

// TestParseNeverConsumesOnNeedMore checks the universal invariant that
// a NeedMore result never reports bytes consumed, across random
// truncations of a well-formed long frame.
func TestParseNeverConsumesOnNeedMore(t *testing.T) {
	f := &Frame{
		Type:               TypeLong,
		Control:            CtrlSndUD | DirM2S,
		Address:            7,
		ControlInformation: CIRespVariable,
		Data:               []byte{0xAA, 0xBB, 0xCC},
	}
	full := make([]byte, 32)
	n, err := Pack(f, full)
	require.NoError(t, err)
	full = full[:n]

	rapid.Check(t, func(rt *rapid.T) {
		cut := rapid.IntRange(0, len(full)-1).Draw(rt, "cut")
		res := Parse(full[:cut])
		if res.Status == StatusNeedMore {
			assert.Equal(rt, 0, res.Consumed)
		}
	})
}

func TestPackParseShortFrameRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		address := byte(rapid.IntRange(0, 255).Draw(rt, "addr"))
		fcb := rapid.Bool().Draw(rt, "fcb")
		control := CtrlReqUD2 | DirM2S
		if fcb {
			control |= FCB
		}
		f := &Frame{Type: TypeShort, Control: control, Address: address}
		buf := make([]byte, 8)
		n, err := Pack(f, buf)
		require.NoError(rt, err)
		res := Parse(buf[:n])
		require.Equal(rt, StatusComplete, res.Status)
		assert.Equal(rt, address, res.Frame.Address)
		assert.Equal(rt, control, res.Frame.Control)
	})
}

func TestFrameChainAppendLen(t *testing.T) {
	head := &Frame{Type: TypeLong}
	assert.Equal(t, 1, head.Len())
	second := head.Append(&Frame{Type: TypeLong})
	third := head.Append(&Frame{Type: TypeLong})
	assert.Equal(t, 3, head.Len())
	assert.Same(t, second, head.Next())
	assert.Same(t, third, second.Next())
}
