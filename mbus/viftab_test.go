package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeVIFEnergyWh(t *testing.T) {
	unit, quantity, exponent, offset, _, _ := normalizeVIF(VIB{VIF: 0x03})
	assert.Equal(t, "Wh", unit)
	assert.Equal(t, "Energy", quantity)
	assert.Equal(t, 1.0, exponent)
	assert.Equal(t, 0.0, offset)
}

func TestNormalizeVIFCustomText(t *testing.T) {
	unit, quantity, exponent, _, _, _ := normalizeVIF(VIB{VIF: 0x7C, CustomVIF: "flow"})
	assert.Equal(t, "-", unit)
	assert.Equal(t, "flow", quantity)
	assert.Equal(t, 1.0, exponent)
}

func TestNormalizeVIFExtensionAMissing(t *testing.T) {
	unit, quantity, _, _, _, _ := normalizeVIF(VIB{VIF: 0xFD})
	assert.Equal(t, "Reserved", unit)
	assert.Equal(t, "Missing VIF extension", quantity)
}

func TestNormalizeVIFExtensionA(t *testing.T) {
	// extAVIF[0x24&0x7F] -> Storage interval in seconds.
	unit, quantity, _, _, _, _ := normalizeVIF(VIB{VIF: 0xFD, VIFE: [maxVIFE]byte{0x24}, NVIFE: 1})
	assert.Equal(t, "s", unit)
	assert.Equal(t, "Storage interval", quantity)
}

func TestNormalizeVIFExtensionB(t *testing.T) {
	unit, _, _, _, _, _ := normalizeVIF(VIB{VIF: 0xFB, VIFE: [maxVIFE]byte{0x01}, NVIFE: 1})
	assert.NotEmpty(t, unit)
}

func TestNormalizeVIFDateMarkers(t *testing.T) {
	_, _, _, _, isDateG, _ := normalizeVIF(VIB{VIF: 0x6C})
	assert.True(t, isDateG)
	_, _, _, _, _, isDateF := normalizeVIF(VIB{VIF: 0x6D})
	assert.True(t, isDateF)
}

func TestVifeCorrectionMultiplicative(t *testing.T) {
	// code 0x70 -> 10^(0-6)
	factor, offset := vifeCorrection(VIB{VIF: 0x83, VIFE: [maxVIFE]byte{0x70}, NVIFE: 1})
	assert.InDelta(t, pow10(-6), factor, 1e-12)
	assert.Equal(t, 0.0, offset)
}

func TestVifeCorrectionAdditive(t *testing.T) {
	// code 0x78 -> offset 10^(0-3), no exponent scaling.
	factor, offset := vifeCorrection(VIB{VIF: 0x83, VIFE: [maxVIFE]byte{0x78}, NVIFE: 1})
	assert.Equal(t, 1.0, factor)
	assert.InDelta(t, pow10(-3), offset, 1e-12)
}

func TestVifeCorrectionNoExtension(t *testing.T) {
	factor, offset := vifeCorrection(VIB{VIF: 0x03})
	assert.Equal(t, 1.0, factor)
	assert.Equal(t, 0.0, offset)
}

// TestVIFTableCompleteness checks every one of the 128 codes in each
// table resolves to some entry (the reserved sentinel counts), i.e. the
// lookup never panics or leaves a hole, across the full code space. A
// hole is a zero entry with an empty quantity; the unit may be empty
// for dimensionless entries such as "Fabrication No".
func TestVIFTableCompleteness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		code := rapid.IntRange(0, 127).Draw(rt, "code")
		assert.NotEqual(rt, vifEntry{}, primaryVIF[code])
		assert.NotEmpty(rt, primaryVIF[code].quantity)
		assert.NotEmpty(rt, extAVIF[code].quantity)
		assert.NotEmpty(rt, extBVIF[code].quantity)
	})
}

func TestFixedUnitVIFCompleteness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		code := rapid.IntRange(0, 63).Draw(rt, "code")
		assert.NotEmpty(rt, fixedUnitVIF[code].quantity)
	})
}
