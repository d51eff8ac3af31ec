package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSecondaryMaskValid(t *testing.T) {
	assert.NoError(t, ParseSecondaryMask("12345678FfFf01F2"))
}

func TestParseSecondaryMaskWrongLength(t *testing.T) {
	assert.Error(t, ParseSecondaryMask("1234"))
}

func TestParseSecondaryMaskInvalidChar(t *testing.T) {
	assert.Error(t, ParseSecondaryMask("1234567890ABCDEG"))
}

func TestEncodeSecondaryMaskWildcard(t *testing.T) {
	b, err := EncodeSecondaryMask("FFFFFFFFFFFFFFFF")
	require.NoError(t, err)
	require.Len(t, b, 8)
	for _, by := range b {
		assert.Equal(t, byte(0xFF), by)
	}
}

func TestEncodeSecondaryMaskNibbleOrder(t *testing.T) {
	// "12" -> hi nibble '1', lo nibble '2' -> byte = lo<<4|hi = 0x21.
	b, err := EncodeSecondaryMask("12FFFFFFFFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, byte(0x21), b[0])
}

func TestSecondaryAddressString(t *testing.T) {
	a := SecondaryAddress{ID: "12345678", Manufacturer: "ACW", Version: 0x01, Medium: 0x07}
	s := a.String()
	assert.Len(t, s, 16)
	assert.Equal(t, "12345678", s[:8])
}

// fakeProber simulates a population of devices addressable by a full
// (non-wildcard) mask, reporting collision for any prefix covering more
// than one of them.
type fakeProber struct {
	devices []string
	calls   int
}

func (p *fakeProber) ProbeSecondaryMask(mask string) (ProbeOutcome, *SecondaryAddress, error) {
	p.calls++
	var matches []string
	for _, d := range p.devices {
		if maskMatches(mask, d) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return ProbeNothing, nil, nil
	case 1:
		return ProbeSingle, &SecondaryAddress{ID: matches[0]}, nil
	default:
		return ProbeCollision, nil, nil
	}
}

func maskMatches(mask, full string) bool {
	for i := range mask {
		if mask[i] == 'F' || mask[i] == 'f' {
			continue
		}
		if mask[i] != full[i] {
			return false
		}
	}
	return true
}

func TestScanSecondaryFindsAllDevices(t *testing.T) {
	p := &fakeProber{devices: []string{
		"1111111111111111",
		"2222222222222222",
		"3333333333333333",
	}}
	var found []SecondaryAddress
	err := ScanSecondary(p, nil, func(a SecondaryAddress) { found = append(found, a) })
	require.NoError(t, err)
	require.Len(t, found, 3)
	ids := map[string]bool{}
	for _, a := range found {
		ids[a.ID] = true
	}
	assert.True(t, ids["1111111111111111"])
	assert.True(t, ids["2222222222222222"])
	assert.True(t, ids["3333333333333333"])
}

func TestScanSecondaryNoDevices(t *testing.T) {
	p := &fakeProber{}
	var found []SecondaryAddress
	err := ScanSecondary(p, nil, func(a SecondaryAddress) { found = append(found, a) })
	require.NoError(t, err)
	assert.Empty(t, found)
}

// TestScanSecondaryTerminationBound checks the scan's probe count never
// exceeds the worst case of 10 probes per nibble position across 16
// positions -- the recursion is bounded even under full collision at
// every level.
func TestScanSecondaryTerminationBound(t *testing.T) {
	p := &fakeProber{devices: []string{
		"1111111111111111",
		"1111111111111112",
	}}
	err := ScanSecondary(p, nil, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.calls, 10*secondaryAddressLen)
}
