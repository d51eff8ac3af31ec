package mbus

import "fmt"

// Component: fixed-data body decode. Short/Long frames carrying CI
// 0x72/0x76's sibling, the legacy 16-byte fixed body (id_bcd, tx_cnt,
// status, cnt1/2_type, cnt1/2_val), are distinct enough from the
// DIB/VIB variable-data format that the vendor source gives them their
// own struct (mbus-protocol.h: mbus_data_fixed) and decode path -- kept
// separate here for the same reason.

const fixedBodyLen = 16

const (
	fixedStatusFormatMask = 0x80
	fixedStatusFormatBCD  = 0x00
	fixedStatusFormatInt  = 0x80
	fixedStatusDateMask   = 0x40
	fixedStatusDateStored = 0x40
)

// FixedBody is the decoded 16-byte fixed-data body of spec §4.5.
type FixedBody struct {
	Identification string // 8-digit BCD id, as text
	AccessNumber   uint64
	Stored         bool // true: "stored value", false: "actual value"
	Medium         string

	Counter1 Value
	Counter2 Value
}

// fixedMedium derives the 4-bit medium code from the top two bits of each
// counter's type byte, per the vendor source's mbus_data_fixed_medium.
func fixedMedium(cnt1Type, cnt2Type byte) string {
	code := (cnt1Type&0xC0)>>6 | (cnt2Type&0xC0)>>4
	switch code {
	case 0x00:
		return "Other"
	case 0x01:
		return "Oil"
	case 0x02:
		return "Electricity"
	case 0x03:
		return "Gas"
	case 0x04:
		return "Heat"
	case 0x05:
		return "Steam"
	case 0x06:
		return "Hot Water"
	case 0x07:
		return "Water"
	case 0x08:
		return "H.C.A."
	case 0x0A:
		return "Gas Mode 2"
	case 0x0B:
		return "Heat Mode 2"
	case 0x0C:
		return "Hot Water Mode 2"
	case 0x0D:
		return "Water Mode 2"
	case 0x0E:
		return "H.C.A. Mode 2"
	}
	return "Reserved"
}

// fixedCounter decodes one 4-byte counter given its type byte, whose
// low 6 bits index fixedUnitVIF. The top 2 bits are masked off here;
// fixedMedium reads them as part of the medium code.
func fixedCounter(typ byte, val []byte, bcd bool) Value {
	entry := fixedUnitVIF[typ&0x3F]
	v := Value{Unit: entry.unit, Quantity: entry.quantity, IsNumeric: true, Tariff: -1}
	if bcd {
		v.Numeric = float64(bcdDecode(val)) * entry.exponent
	} else {
		v.Numeric = float64(intDecode(val)) * entry.exponent
	}
	return v
}

// DecodeFixed parses a 16-byte fixed-data body, per spec §4.5.
func DecodeFixed(body []byte) (*FixedBody, error) {
	if len(body) != fixedBodyLen {
		return nil, mismatch(KindDecode, "fixed body length", fixedBodyLen, len(body))
	}
	idBCD := body[0:4]
	txCnt := body[4]
	status := body[5]
	cnt1Type := body[6]
	cnt2Type := body[7]
	cnt1Val := body[8:12]
	cnt2Val := body[12:16]

	bcd := (status & fixedStatusFormatMask) == fixedStatusFormatBCD

	fb := &FixedBody{
		Identification: fmt.Sprintf("%08d", bcdDecode(idBCD)),
		AccessNumber:   uint64(txCnt),
		Stored:         (status & fixedStatusDateMask) == fixedStatusDateStored,
		Medium:         fixedMedium(cnt1Type, cnt2Type),
		Counter1:       fixedCounter(cnt1Type, cnt1Val, bcd),
		Counter2:       fixedCounter(cnt2Type, cnt2Val, bcd),
	}
	return fb, nil
}
