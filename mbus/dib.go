package mbus

import "fmt"

// Component C: the DIB/VIB parser. Walks a long-frame payload after
// the 12-byte variable-data header, in the cursor-over-byte-slice
// idiom of the teacher's asdu.ASDU (AppendX/DecodeX advancing
// this.infoObj) -- here the cursor is the remaining payload slice
// threaded explicitly through parseOne rather than a receiver field,
// since M-Bus records (unlike ASDU info objects) have no shared
// envelope to hang a cursor off.

const (
	maxDIFE     = 10
	maxVIFE     = 10
	maxDataLen  = 234
	difExtend   = 0x80
	difStorage0 = 0x40
	difFunction = 0x30
	difCode     = 0x0F

	difSpecialManufacturer = 0x0F
	difSpecialMoreRecords  = 0x1F
	difSpecialFiller       = 0x2F

	vifExtendBit  = 0x80
	vifCustomText = 0x7C
	vifCustomExt  = 0xFC
)

// DIB is the Data Information Block of one record (spec §3).
type DIB struct {
	DIF   byte
	DIFE  [maxDIFE]byte
	NDIFE int
}

// VIB is the Value Information Block of one record (spec §3).
type VIB struct {
	VIF       byte
	VIFE      [maxVIFE]byte
	NVIFE     int
	CustomVIF string // set when VIF (or its extension) is the custom plain-text marker
}

// LVARKind classifies the encoding that a data-field-0xD LVAR byte
// selected, per the table in spec §4.2 step 7. Needed because the
// resulting data_len alone does not disambiguate the encoding (e.g. a
// 4-byte ASCII string and a 4-byte binary blob both have data_len==4).
type LVARKind byte

const (
	LVARAscii LVARKind = iota
	LVARPositiveBCD
	LVARNegativeBCD
	LVARBinary
	LVARFloatArray
)

// Record is a parsed, not-yet-normalized data record: a DIB+VIB pair
// plus its raw payload slice. Records chain singly, owned by the head
// (spec §3 "Lifecycle").
type Record struct {
	DIB          DIB
	VIB          VIB
	Data         []byte
	LVAR         LVARKind // meaningful only when DIB.DIF&difCode == 0xD
	MoreFollows  bool     // DIF == 0x1F: "more records follow in next telegram"
	Manufacturer bool     // DIF == 0x0F: manufacturer-specific, payload runs to end
	next         *Record
}

// Next returns the following record in the chain, or nil.
func (r *Record) Next() *Record { return r.next }

// Append adds next to the end of r's chain and returns next.
func (r *Record) Append(next *Record) *Record {
	tail := r
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = next
	return next
}

// dataFieldLen returns the tentative data length in bytes for a DIF
// data-field code (spec §3 table), or -1 for the variable-length code
// 0xD whose length comes from a trailing LVAR byte (§4.2 step 7), or
// -2 for an unrecognised code.
func dataFieldLen(code byte) int {
	switch code {
	case 0x0:
		return 0
	case 0x1, 0x2, 0x3, 0x4:
		return int(code)
	case 0x5:
		return 4
	case 0x6:
		return 6
	case 0x7:
		return 8
	case 0x8:
		return 0
	case 0x9, 0xA, 0xB, 0xC:
		return int(code) - 0x8
	case 0xD:
		return -1
	case 0xE:
		return 6
	}
	return -2
}

// lvarLen translates an LVAR byte into its payload length and
// encoding kind, per the table in spec §4.2 step 7.
func lvarLen(lvar byte) (int, LVARKind, error) {
	switch {
	case lvar <= 0xBF:
		return int(lvar), LVARAscii, nil
	case lvar <= 0xCF:
		return int(lvar-0xC0) * 2, LVARPositiveBCD, nil
	case lvar <= 0xDF:
		return int(lvar-0xD0) * 2, LVARNegativeBCD, nil
	case lvar <= 0xEF:
		return int(lvar - 0xE0), LVARBinary, nil
	case lvar <= 0xFA:
		return int(lvar - 0xF0), LVARFloatArray, nil
	}
	return 0, 0, newErr(KindDecode, fmt.Sprintf("lvar 0x%02x out of range", lvar))
}

// ParseRecords walks payload (the long-frame data after the 12-byte
// variable-data header) and returns the head of a record chain, per
// spec §4.2.
func ParseRecords(payload []byte) (*Record, error) {
	var head, tail *Record
	i := 0
	for i < len(payload) {
		dif := payload[i]

		if dif == difSpecialFiller {
			i++
			continue
		}
		if dif == difSpecialManufacturer || dif == difSpecialMoreRecords {
			rec := &Record{
				DIB:          DIB{DIF: dif},
				Data:         payload[i+1:],
				MoreFollows:  dif == difSpecialMoreRecords,
				Manufacturer: dif == difSpecialManufacturer,
			}
			if head == nil {
				head, tail = rec, rec
			} else {
				tail = tail.Append(rec)
			}
			break
		}

		rec, consumed, err := parseOne(payload[i:])
		if err != nil {
			return nil, err
		}
		i += consumed
		if head == nil {
			head, tail = rec, rec
		} else {
			tail = tail.Append(rec)
		}
	}
	return head, nil
}

// parseOne parses a single record starting at buf[0] (a DIF byte) and
// returns it plus the number of bytes consumed.
func parseOne(buf []byte) (*Record, int, error) {
	if len(buf) < 1 {
		return nil, 0, newErr(KindDecode, "truncated record: missing DIF")
	}
	i := 0
	dib := DIB{DIF: buf[i]}
	i++
	for dib.DIF&difExtend != 0 {
		if dib.NDIFE >= maxDIFE {
			return nil, 0, newErr(KindDecode, "too many DIFE")
		}
		if i >= len(buf) {
			return nil, 0, newErr(KindDecode, "truncated record: missing DIFE")
		}
		b := buf[i]
		i++
		dib.DIFE[dib.NDIFE] = b
		dib.NDIFE++
		if b&difExtend == 0 {
			break
		}
	}

	if i >= len(buf) {
		return nil, 0, newErr(KindDecode, "truncated record: missing VIF")
	}
	vib := VIB{VIF: buf[i]}
	i++

	if vib.VIF&0x7F == vifCustomText {
		if i >= len(buf) {
			return nil, 0, newErr(KindDecode, "truncated record: missing custom VIF length")
		}
		n := int(buf[i])
		i++
		if i+n > len(buf) {
			return nil, 0, newErr(KindDecode, "truncated record: custom VIF text")
		}
		vib.CustomVIF = string(reverseBytes(buf[i : i+n]))
		i += n
	}

	for vib.VIF&vifExtendBit != 0 {
		if vib.NVIFE >= maxVIFE {
			return nil, 0, newErr(KindDecode, "too many VIFE")
		}
		if i >= len(buf) {
			return nil, 0, newErr(KindDecode, "truncated record: missing VIFE")
		}
		vib.VIFE[vib.NVIFE] = buf[i]
		vife := vib.VIFE[vib.NVIFE]
		vib.NVIFE++
		i++
		if vife&vifExtendBit == 0 {
			break
		}
	}

	code := dib.DIF & difCode
	length := dataFieldLen(code)
	if length == -2 {
		return nil, 0, newErr(KindDecode, fmt.Sprintf("unrecognised data-field code 0x%x", code))
	}
	var lvarKind LVARKind
	if length == -1 {
		if i >= len(buf) {
			return nil, 0, newErr(KindDecode, "truncated record: missing LVAR")
		}
		n, kind, err := lvarLen(buf[i])
		i++
		if err != nil {
			return nil, 0, err
		}
		length = n
		lvarKind = kind
	}
	if length > maxDataLen {
		return nil, 0, newErr(KindDecode, "data_len exceeds 234 bytes")
	}
	if i+length > len(buf) {
		return nil, 0, newErr(KindDecode, "truncated record: data")
	}
	data := make([]byte, length)
	copy(data, buf[i:i+length])
	i += length

	return &Record{DIB: dib, VIB: vib, Data: data, LVAR: lvarKind}, i, nil
}
