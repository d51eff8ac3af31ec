package mbus

import "fmt"

// VariableDataHeader is the 12-byte fixed header preceding a
// variable-data long-frame body (spec §3 "Variable-data header").
type VariableDataHeader struct {
	Identification string
	Manufacturer   string
	Version        byte
	Medium         byte
	AccessNumber   byte
	Status         byte
	Signature      [2]byte
}

const variableDataHeaderLen = 12

// ParseVariableDataHeader reads the 12-byte header from the front of
// data and returns it alongside the remaining payload (the record
// stream consumed by ParseRecords).
func ParseVariableDataHeader(data []byte) (*VariableDataHeader, []byte, error) {
	if len(data) < variableDataHeaderLen {
		return nil, nil, mismatch(KindDecode, "variable-data header length", variableDataHeaderLen, len(data))
	}
	var mfr [2]byte
	copy(mfr[:], data[4:6])
	h := &VariableDataHeader{
		Identification: fmt.Sprintf("%08d", bcdDecode(data[0:4])),
		Manufacturer:   manufacturerDecode(mfr),
		Version:        data[6],
		Medium:         data[7],
		AccessNumber:   data[8],
		Status:         data[9],
	}
	copy(h.Signature[:], data[10:12])
	return h, data[variableDataHeaderLen:], nil
}

// MediumName names the device class byte per the vendor source's
// mbus_data_variable_header "medium" lookup (spec §9 medium table).
func (h *VariableDataHeader) MediumName() string {
	switch h.Medium {
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
	case 0x09:
		return "Reserved"
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
	case 0x0F:
		return "Reserved"
	case 0x15:
		return "Hot Water"
	case 0x16:
		return "Cold Water"
	case 0x28:
		return "Water (Cold+Hot)"
	}
	return "Unknown"
}
