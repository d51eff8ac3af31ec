package mbus

import (
	"fmt"
	"strings"
)

// Component D: turns a parsed Record (DIB+VIB+payload) into a typed,
// classified Value. The bitfield-parse idiom -- mask off a few bits,
// return a small struct -- mirrors the teacher's
// asdu.ParseStepPosition/ParseQualifierOfCommand (information.go).

// FunctionMedium classifies a record by DIF bits 4-5 (spec §4.3).
type FunctionMedium int

const (
	FunctionInstantaneous FunctionMedium = iota
	FunctionMaximum
	FunctionMinimum
	FunctionValueDuringError
)

func (f FunctionMedium) String() string {
	switch f {
	case FunctionInstantaneous:
		return "Instantaneous value"
	case FunctionMaximum:
		return "Maximum value"
	case FunctionMinimum:
		return "Minimum value"
	case FunctionValueDuringError:
		return "Value during error state"
	}
	return "Unknown"
}

// Value is the normalized, typed measurement produced by decoding a
// Record plus its VIF/VIFE normalization (spec §3 "Record
// (normalized)").
type Value struct {
	IsNumeric bool
	Numeric   float64
	Bytes     []byte // set when !IsNumeric

	Unit     string
	Quantity string

	Function      FunctionMedium
	StorageNumber uint64
	Tariff        int64 // -1 when absent
	Device        int32
}

// storageTariffDevice accumulates the storage/tariff/device counters
// from DIF bit 6 and each DIFE. DIF bit 6 is storage bit 0; each DIFE
// then adds one storage bit (its bit 6), two tariff bits (bits 4-5) and
// four device bits (bits 0-3), each at the next higher positions.
func storageTariffDevice(dib DIB) (storage uint64, tariff int64, device int32) {
	if dib.DIF&difStorage0 != 0 {
		storage |= 1
	}
	tariff = -1
	for n := 0; n < dib.NDIFE; n++ {
		dife := dib.DIFE[n]
		storageBit := uint64(dife&0x40) >> 6
		storage |= storageBit << uint(1+n)

		tariffBits := int64(dife&0x30) >> 4
		if tariff == -1 {
			tariff = 0
		}
		tariff |= tariffBits << uint(2*n)

		deviceBits := int32(dife & 0x0F)
		device |= deviceBits << uint(4*n)
	}
	return storage, tariff, device
}

// Decode turns rec into a normalized Value, applying VIF/VIFE
// normalization (component E) and the data-field/date decode table of
// spec §4.3.
func Decode(rec *Record) (*Value, error) {
	storage, tariff, device := storageTariffDevice(rec.DIB)
	v := &Value{
		Function:      FunctionMedium((rec.DIB.DIF & difFunction) >> 4),
		StorageNumber: storage,
		Tariff:        tariff,
		Device:        device,
	}
	if rec.MoreFollows {
		v.Function = FunctionInstantaneous
		v.Unit, v.Quantity = "", "More records follow"
		v.IsNumeric = false
		v.Bytes = rec.Data
		return v, nil
	}
	if rec.Manufacturer {
		v.Unit, v.Quantity = "-", "Manufacturer specific"
		v.IsNumeric = false
		v.Bytes = rec.Data
		return v, nil
	}

	code := rec.DIB.DIF & difCode
	unit, quantity, exponent, offset, isDateVIF6C, isDateVIF6D := normalizeVIF(rec.VIB)

	switch {
	case isDateVIF6C && code == 0x2:
		v.IsNumeric = false
		v.Bytes = []byte(decodeDateG(rec.Data))
		v.Unit, v.Quantity = "", "Date"
		return v, nil

	case isDateVIF6D && (code == 0x4 || code == 0x6):
		v.IsNumeric = false
		v.Bytes = []byte(decodeDateTimeF(rec.Data))
		v.Unit, v.Quantity = "", "Date/Time"
		return v, nil

	case code == 0x5:
		v.IsNumeric = true
		v.Numeric = float64(floatDecode(rec.Data))*exponent + offset
		v.Unit, v.Quantity = unit, quantity
		return v, nil

	case code == 0xD:
		v.Unit, v.Quantity = unit, quantity
		switch rec.LVAR {
		case LVARAscii:
			v.IsNumeric = false
			v.Bytes = reverseBytes(rec.Data)
		case LVARPositiveBCD:
			v.IsNumeric = true
			v.Numeric = float64(bcdDecode(rec.Data))*exponent + offset
		case LVARNegativeBCD:
			v.IsNumeric = true
			v.Numeric = -float64(bcdDecode(rec.Data))*exponent + offset
		case LVARBinary, LVARFloatArray:
			v.IsNumeric = false
			v.Bytes = []byte(hexDump(rec.Data))
		}
		return v, nil

	case code == 0xF:
		v.IsNumeric = false
		v.Bytes = []byte(hexDump(rec.Data))
		v.Unit, v.Quantity = "-", "Binary"
		return v, nil

	case code == 0x1, code == 0x2, code == 0x3, code == 0x4, code == 0x6, code == 0x7:
		v.IsNumeric = true
		v.Numeric = float64(intDecode(rec.Data))*exponent + offset
		v.Unit, v.Quantity = unit, quantity
		return v, nil

	case code == 0x9, code == 0xA, code == 0xB, code == 0xC, code == 0xE:
		raw := decodeBCDSigned(rec.Data)
		v.IsNumeric = true
		v.Numeric = raw*exponent + offset
		v.Unit, v.Quantity = unit, quantity
		return v, nil

	case code == 0x0, code == 0x8:
		v.IsNumeric = false
		v.Bytes = nil
		v.Unit, v.Quantity = unit, quantity
		return v, nil
	}
	return nil, newErr(KindDecode, fmt.Sprintf("unsupported data-field code 0x%x", code))
}

// decodeBCDSigned decodes a, possibly negative, BCD value per the
// source's bit-level convention noted in spec §9: a high nibble >= 0xA
// in the most-significant byte is a negative sentinel. This is a
// vendor quirk, not a universal BCD rule -- preserved here bit-for-bit
// and nowhere else.
func decodeBCDSigned(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	negative := (b[len(b)-1] >> 4) >= 0xA
	if !negative {
		return float64(bcdDecode(b))
	}
	masked := make([]byte, len(b))
	copy(masked, b)
	masked[len(masked)-1] &= 0x0F
	return -float64(bcdDecode(masked))
}

// hexDump renders b as space-separated upper-case hex pairs, per spec
// §4.3's "binary hex dump" data-field 0xF rule.
func hexDump(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}
