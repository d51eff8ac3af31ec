package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordsSimpleInt(t *testing.T) {
	// DIF=0x04 (4-byte int), VIF=0x03 (Energy Wh, n=3), value 12345.
	payload := []byte{0x04, 0x03, 0x39, 0x30, 0x00, 0x00}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, byte(0x04), head.DIB.DIF)
	assert.Equal(t, byte(0x03), head.VIB.VIF)
	assert.Equal(t, []byte{0x39, 0x30, 0x00, 0x00}, head.Data)
	assert.Nil(t, head.Next())
}

func TestParseRecordsTwoRecords(t *testing.T) {
	payload := []byte{
		0x01, 0x03, 0x05, // 1-byte int, Energy Wh n=3, value 5
		0x02, 0x03, 0x07, 0x00, // 2-byte int, Energy Wh n=3, value 7
	}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	count := 0
	for r := head; r != nil; r = r.Next() {
		count++
	}
	assert.Equal(t, 2, count)
	second := head.Next()
	require.NotNil(t, second)
	assert.Nil(t, second.Next())
}

func TestParseRecordsMoreRecordsFollow(t *testing.T) {
	payload := []byte{0x1F}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.True(t, head.MoreFollows)
}

func TestParseRecordsManufacturerSpecific(t *testing.T) {
	payload := []byte{0x0F, 0xAA, 0xBB, 0xCC}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.True(t, head.Manufacturer)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, head.Data)
}

func TestParseRecordsFillerSkipped(t *testing.T) {
	payload := []byte{0x2F, 0x2F, 0x01, 0x03, 0x05}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, byte(0x01), head.DIB.DIF)
}

func TestParseRecordsTruncatedData(t *testing.T) {
	_, err := ParseRecords([]byte{0x04, 0x03, 0x01})
	assert.Error(t, err)
}

func TestParseRecordsLVARAscii(t *testing.T) {
	// DIF=0x0D (LVAR), VIF=0x7C->custom? use a plain VIF 0x13 (Volume).
	payload := []byte{0x0D, 0x13, 0x03, 'a', 'b', 'c'}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, LVARAscii, head.LVAR)
	assert.Equal(t, []byte("abc"), head.Data)
}

func TestParseRecordsDIFEChain(t *testing.T) {
	// DIF=0x84 (extend, 4-byte int), DIFE=0x01 (storage bit), VIF=0x03.
	payload := []byte{0x84, 0x01, 0x03, 0x01, 0x00, 0x00, 0x00}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, 1, head.DIB.NDIFE)
	assert.Equal(t, byte(0x01), head.DIB.DIFE[0])
}

func TestParseRecordsCustomVIF(t *testing.T) {
	// VIF=0x7C (custom text), length 2, text bytes reversed on the wire.
	payload := []byte{0x01, 0x7C, 0x02, 'b', 'a', 0x05}
	head, err := ParseRecords(payload)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "ab", head.VIB.CustomVIF)
}

func TestParseOneLVARDataTruncated(t *testing.T) {
	// DIF code 0xD with an LVAR selecting > 234 bytes: 0xBF = 191, ok;
	// use extension range to exceed 234 isn't directly reachable via a
	// single LVAR byte (cap is 191 for ASCII, 30 for BCD, 15 binary, 10
	// float) -- lvarLen itself caps every branch under the 234 limit,
	// so this exercises the "truncated" branch instead via a short buf.
	_, _, err := parseOne([]byte{0x0D, 0x13, 0xBF})
	assert.Error(t, err)
}
