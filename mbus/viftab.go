package mbus

import "math"

// Component E: VIF/VIFE unit normalization. The three tables (primary,
// extension A following VIF=0xFD, extension B following VIF=0xFB) are
// transcribed range-by-range from the vendor's vif_table[], grouped the
// same way the source comments group them (e.g. "E000 0nnn Energy Wh")
// rather than as a flat per-byte listing -- a plain indexed array is
// the teacher's own style for bitfield-keyed lookup tables (cs101's
// control-byte constants), and 256 mostly-"Reserved" entries add
// nothing a range loop doesn't already say.

type vifEntry struct {
	exponent float64
	unit     string
	quantity string
}

var reservedVIF = vifEntry{0, "Reserved", "Reserved"}

func pow10(n int) float64 { return math.Pow(10, float64(n)) }

// primaryVIF covers VIF & 0x7F, i.e. the 128 codes of the main table
// (8.4.3).
var primaryVIF = buildPrimaryVIF()

// extAVIF covers VIFE[0] & 0x7F following VIF==0xFD (8.4.4 a).
var extAVIF = buildExtAVIF()

// extBVIF covers VIFE[0] & 0x7F following VIF==0xFB (8.4.4 b).
var extBVIF = buildExtBVIF()

func fillRange(t []vifEntry, lo, hi int, e vifEntry) {
	for i := lo; i <= hi; i++ {
		t[i] = e
	}
}

func buildPrimaryVIF() [128]vifEntry {
	var t [128]vifEntry
	for i := range t {
		t[i] = reservedVIF
	}

	for n := 0; n <= 7; n++ { // E000 0nnn Energy Wh, 10^(n-3)
		t[0x00+n] = vifEntry{pow10(n - 3), "Wh", "Energy"}
	}
	for n := 0; n <= 7; n++ { // E000 1nnn Energy J, 10^n
		t[0x08+n] = vifEntry{pow10(n), "J", "Energy"}
	}
	for n := 0; n <= 7; n++ { // E001 0nnn Volume m^3, 10^(n-6)
		t[0x10+n] = vifEntry{pow10(n - 6), "m^3", "Volume"}
	}
	for n := 0; n <= 7; n++ { // E001 1nnn Mass kg, 10^(n-3)
		t[0x18+n] = vifEntry{pow10(n - 3), "kg", "Mass"}
	}

	onTimeUnits := [4]float64{1, 60, 3600, 86400}
	for n, u := range onTimeUnits {
		t[0x20+n] = vifEntry{u, "s", "On time"}
		t[0x24+n] = vifEntry{u, "s", "Operating time"}
	}

	for n := 0; n <= 7; n++ { // E010 1nnn Power W, 10^(n-3)
		t[0x28+n] = vifEntry{pow10(n - 3), "W", "Power"}
	}
	for n := 0; n <= 7; n++ { // E011 0nnn Power J/h, 10^n
		t[0x30+n] = vifEntry{pow10(n), "J/h", "Power"}
	}
	for n := 0; n <= 7; n++ { // E011 1nnn Volume flow m^3/h, 10^(n-6)
		t[0x38+n] = vifEntry{pow10(n - 6), "m^3/h", "Volume flow"}
	}
	for n := 0; n <= 7; n++ { // E100 0nnn Volume flow ext. m^3/min, 10^(n-7)
		t[0x40+n] = vifEntry{pow10(n - 7), "m^3/min", "Volume flow"}
	}
	for n := 0; n <= 7; n++ { // E100 1nnn Volume flow ext. m^3/s, 10^(n-9)
		t[0x48+n] = vifEntry{pow10(n - 9), "m^3/s", "Volume flow"}
	}
	for n := 0; n <= 7; n++ { // E101 0nnn Mass flow kg/h, 10^(n-3)
		t[0x50+n] = vifEntry{pow10(n - 3), "kg/h", "Mass flow"}
	}
	for n := 0; n <= 3; n++ { // E101 10nn Flow temperature °C, 10^(n-3)
		t[0x58+n] = vifEntry{pow10(n - 3), "°C", "Flow temperature"}
	}
	for n := 0; n <= 3; n++ { // E101 11nn Return temperature °C, 10^(n-3)
		t[0x5C+n] = vifEntry{pow10(n - 3), "°C", "Return temperature"}
	}
	for n := 0; n <= 3; n++ { // E110 00nn Temperature difference K, 10^(n-3)
		t[0x60+n] = vifEntry{pow10(n - 3), "K", "Temperature difference"}
	}
	for n := 0; n <= 3; n++ { // E110 01nn External temperature °C, 10^(n-3)
		t[0x64+n] = vifEntry{pow10(n - 3), "°C", "External temperature"}
	}
	for n := 0; n <= 3; n++ { // E110 10nn Pressure bar, 10^(n-3)
		t[0x68+n] = vifEntry{pow10(n - 3), "bar", "Pressure"}
	}

	t[0x6C] = vifEntry{1, "-", "Time point (date)"}          // data type G
	t[0x6D] = vifEntry{1, "-", "Time point (date & time)"}   // data type F
	t[0x6E] = vifEntry{1, "Units for H.C.A.", "H.C.A."}
	// 0x6F Reserved

	durationUnits := [4]float64{1, 60, 3600, 86400}
	for n, u := range durationUnits {
		t[0x70+n] = vifEntry{u, "s", "Averaging Duration"}
		t[0x74+n] = vifEntry{u, "s", "Actuality Duration"}
	}

	t[0x78] = vifEntry{1, "", "Fabrication No"}
	t[0x79] = vifEntry{1, "", "(Enhanced) Identification"}
	t[0x7A] = vifEntry{1, "", "Bus Address"}
	// 0x7B-0x7D Reserved in the primary table (0x7C/0x7D are
	// intercepted before lookup -- custom VIF and VIFE extension bit).
	t[0x7E] = vifEntry{1, "", "Any VIF"}
	t[0x7F] = vifEntry{1, "", "Manufacturer specific"}

	return t
}

func buildExtAVIF() [128]vifEntry {
	var t [128]vifEntry
	for i := range t {
		t[i] = reservedVIF
	}

	for n := 0; n <= 3; n++ { // E000 00nn Credit, 10^(n-3)
		t[0x00+n] = vifEntry{pow10(n - 3), "Currency units", "Credit"}
	}
	for n := 0; n <= 3; n++ { // E000 01nn Debit, 10^(n-3)
		t[0x04+n] = vifEntry{pow10(n - 3), "Currency units", "Debit"}
	}
	t[0x08] = vifEntry{1, "", "Access Number (transmission count)"}
	t[0x09] = vifEntry{1, "", "Medium"}
	t[0x0A] = vifEntry{1, "", "Manufacturer"}
	t[0x0B] = vifEntry{1, "", "Parameter set identification"}
	t[0x0C] = vifEntry{1, "", "Model / Version"}
	t[0x0D] = vifEntry{1, "", "Hardware version"}
	t[0x0E] = vifEntry{1, "", "Firmware version"}
	t[0x0F] = vifEntry{1, "", "Software version"}

	t[0x10] = vifEntry{1, "", "Customer location"}
	t[0x11] = vifEntry{1, "", "Customer"}
	t[0x12] = vifEntry{1, "", "Access Code User"}
	t[0x13] = vifEntry{1, "", "Access Code Operator"}
	t[0x14] = vifEntry{1, "", "Access Code System Operator"}
	t[0x15] = vifEntry{1, "", "Access Code Developer"}
	t[0x16] = vifEntry{1, "", "Password"}
	t[0x17] = vifEntry{1, "", "Error flags"}
	t[0x18] = vifEntry{1, "", "Error mask"}
	// 0x19 Reserved
	t[0x1A] = vifEntry{1, "", "Digital Output"}
	t[0x1B] = vifEntry{1, "", "Digital Input"}
	t[0x1C] = vifEntry{1, "Baud", "Baudrate"}
	t[0x1D] = vifEntry{1, "Bittimes", "Response delay time"}
	t[0x1E] = vifEntry{1, "", "Retry"}
	// 0x1F Reserved

	t[0x20] = vifEntry{1, "", "First storage # for cyclic storage"}
	t[0x21] = vifEntry{1, "", "Last storage # for cyclic storage"}
	t[0x22] = vifEntry{1, "", "Size of storage block"}
	// 0x23 Reserved
	storageInterval := [6]float64{1, 60, 3600, 86400, 2629743.83, 31556926.0}
	for n, u := range storageInterval {
		t[0x24+n] = vifEntry{u, "s", "Storage interval"}
	}
	// 0x2A, 0x2B Reserved
	readoutDuration := [4]float64{1, 60, 3600, 86400}
	for n, u := range readoutDuration {
		t[0x2C+n] = vifEntry{u, "s", "Duration since last readout"}
	}

	// 0x30 "Start of tariff" is ambiguous in the source (date type
	// derived from the data field, not the VIF) and left Reserved
	// there; kept Reserved here too.
	tariffDuration := [3]float64{60, 3600, 86400}
	for n, u := range tariffDuration {
		t[0x31+n] = vifEntry{u, "s", "Duration of tariff"}
	}
	tariffPeriod := [6]float64{1, 60, 3600, 86400, 2629743.83, 31556926.0}
	for n, u := range tariffPeriod {
		t[0x34+n] = vifEntry{u, "s", "Period of tariff"}
	}
	t[0x3A] = vifEntry{1, "", "Dimensionless"}
	// 0x3B-0x3F Reserved

	for n := 0; n <= 15; n++ { // E100 nnnn Voltage, 10^(n-9)
		t[0x40+n] = vifEntry{pow10(n - 9), "V", "Voltage"}
	}
	for n := 0; n <= 15; n++ { // E101 nnnn Current, 10^(n-12)
		t[0x50+n] = vifEntry{pow10(n - 12), "A", "Current"}
	}

	t[0x60] = vifEntry{1, "", "Reset counter"}
	t[0x61] = vifEntry{1, "", "Cumulation counter"}
	t[0x62] = vifEntry{1, "", "Control signal"}
	t[0x63] = vifEntry{1, "", "Day of week"}
	t[0x64] = vifEntry{1, "", "Week number"}
	t[0x65] = vifEntry{1, "", "Time point of day change"}
	t[0x66] = vifEntry{1, "", "State of parameter activation"}
	t[0x67] = vifEntry{1, "", "Special supplier information"}
	cumulation := [4]float64{3600, 86400, 2629743.83, 31556926.0}
	for n, u := range cumulation {
		t[0x68+n] = vifEntry{u, "s", "Duration since last cumulation"}
		t[0x6C+n] = vifEntry{u, "s", "Operating time battery"}
	}
	t[0x70] = vifEntry{1, "", "Date and time of battery change"}
	// 0x71-0x7F Reserved

	return t
}

func buildExtBVIF() [128]vifEntry {
	var t [128]vifEntry
	for i := range t {
		t[i] = reservedVIF
	}

	t[0x00] = vifEntry{1e5, "Wh", "Energy"} // E000 000n, 10^(n-1) MWh
	t[0x01] = vifEntry{1e6, "Wh", "Energy"}
	t[0x08] = vifEntry{1e8, "Reserved", "Energy"} // E000 100n, 10^(n-1) GJ -- source names the unit "Reserved" too
	t[0x09] = vifEntry{1e9, "Reserved", "Energy"}
	t[0x10] = vifEntry{1e2, "m^3", "Volume"} // E001 000n, 10^(n+2) m^3
	t[0x11] = vifEntry{1e3, "m^3", "Volume"}
	t[0x18] = vifEntry{1e5, "kg", "Mass"} // E001 100n, 10^(n+2) t
	t[0x19] = vifEntry{1e6, "kg", "Mass"}

	t[0x21] = vifEntry{1e-1, "feet^3", "Volume"}
	t[0x22] = vifEntry{1e-1, "American gallon", "Volume"}
	t[0x23] = vifEntry{1e0, "American gallon", "Volume"}
	t[0x24] = vifEntry{1e-3, "American gallon/min", "Volume flow"}
	t[0x25] = vifEntry{1e0, "American gallon/min", "Volume flow"}
	t[0x26] = vifEntry{1e0, "American gallon/h", "Volume flow"}
	t[0x28] = vifEntry{1e5, "W", "Power"} // E010 100n, 10^(n-1) MW
	t[0x29] = vifEntry{1e6, "W", "Power"}
	t[0x30] = vifEntry{1e8, "J", "Power"} // E011 000n, 10^(n-1) GJ/h
	t[0x31] = vifEntry{1e9, "J", "Power"}

	for n := 0; n <= 3; n++ { // E101 10nn Flow temperature °F, 10^(n-3)
		t[0x58+n] = vifEntry{pow10(n - 3), "°F", "Flow temperature"}
	}
	for n := 0; n <= 3; n++ { // E101 11nn Return temperature °F
		t[0x5C+n] = vifEntry{pow10(n - 3), "°F", "Return temperature"}
	}
	for n := 0; n <= 3; n++ { // E110 00nn Temperature difference °F
		t[0x60+n] = vifEntry{pow10(n - 3), "°F", "Temperature difference"}
	}
	for n := 0; n <= 3; n++ { // E110 01nn External temperature °F
		t[0x64+n] = vifEntry{pow10(n - 3), "°F", "External temperature"}
	}
	for n := 0; n <= 3; n++ { // E111 00nn Cold/Warm temperature limit °F
		t[0x70+n] = vifEntry{pow10(n - 3), "°F", "Cold / Warm Temperature Limit"}
	}
	for n := 0; n <= 3; n++ { // E111 01nn Cold/Warm temperature limit °C
		t[0x74+n] = vifEntry{pow10(n - 3), "°C", "Cold / Warm Temperature Limit"}
	}
	cumulMaxPower := [8]float64{1e-3, 1e-3, 1e-1, 1e0, 1e1, 1e2, 1e3, 1e4}
	for n, e := range cumulMaxPower { // E111 1nnn, spec table has a repeated 10^-3 entry at n=0,1
		t[0x78+n] = vifEntry{e, "W", "Cumul count max power"}
	}

	return t
}

// fixedUnitVIF covers the 6-bit medium_unit field of a fixed-data-body
// counter (spec §4.5), transcribed from fixed_table[].
var fixedUnitVIF = buildFixedUnitVIF()

func buildFixedUnitVIF() [64]vifEntry {
	var t [64]vifEntry
	for i := range t {
		t[i] = reservedVIF
	}
	for n := 0; n <= 8; n++ {
		t[0x02+n] = vifEntry{pow10(n), "Wh", "Energy"}
	}
	for n := 0; n <= 9; n++ {
		t[0x0B+n] = vifEntry{pow10(n + 3), "J", "Energy"}
	}
	for n := 0; n <= 8; n++ {
		t[0x14+n] = vifEntry{1, "W", "Power"}
	}
	for n := 0; n <= 8; n++ {
		t[0x1D+n] = vifEntry{pow10(n + 3), "J/h", "Energy"}
	}
	for n := 0; n <= 8; n++ {
		t[0x26+n] = vifEntry{pow10(n - 6), "m^3", "Volume"}
	}
	flowExp := []float64{1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1e0, 1e1, 1e2}
	for n, e := range flowExp {
		t[0x2F+n] = vifEntry{e, "m^3/h", "Volume flow"}
	}
	t[0x38] = vifEntry{1e-3, "°C", "Temperature"}
	t[0x39] = vifEntry{1, "Units for H.C.A.", "H.C.A."}
	t[0x3E] = vifEntry{1, "", "historic"}
	t[0x3F] = vifEntry{1, "", "No units"}
	return t
}

// vifeCorrection applies the optional VIFE multiplicative/additive
// correction of spec §4.4 and returns the adjusted exponent and an
// additive offset (applied after scaling).
func vifeCorrection(vib VIB) (expFactor, offset float64) {
	expFactor, offset = 1, 0
	if vib.VIF&vifExtendBit == 0 || vib.VIF == 0xFD || vib.VIF == 0xFB {
		return
	}
	if vib.NVIFE == 0 {
		return
	}
	code := vib.VIFE[0] & 0x7F
	switch {
	case code >= 0x70 && code <= 0x77: // 10^(nnn-6)
		expFactor = pow10(int(code&0x07) - 6)
	case code >= 0x78 && code <= 0x7B: // 10^(nn-3), additive
		offset = pow10(int(code&0x03) - 3)
	case code == 0x7D: // 10^3
		expFactor = 1000
	}
	return
}

// normalizeVIF resolves vib to its unit, quantity, effective exponent
// and additive offset (spec §4.4), plus whether the VIF names a Type
// G (date-only) or Type F (date-time) value.
func normalizeVIF(vib VIB) (unit, quantity string, exponent, offset float64, isDateVIF6C, isDateVIF6D bool) {
	switch {
	case vib.VIF == 0x7C || vib.VIF == 0xFC:
		unit, quantity, exponent = "-", vib.CustomVIF, 1
		return

	case vib.VIF == 0xFD:
		if vib.NVIFE == 0 {
			unit, quantity, exponent = "Reserved", "Missing VIF extension", 1
			return
		}
		e := extAVIF[vib.VIFE[0]&0x7F]
		unit, quantity, exponent = e.unit, e.quantity, e.exponent
		return

	case vib.VIF == 0xFB:
		if vib.NVIFE == 0 {
			unit, quantity, exponent = "Reserved", "Missing VIF extension", 1
			return
		}
		e := extBVIF[vib.VIFE[0]&0x7F]
		unit, quantity, exponent = e.unit, e.quantity, e.exponent
		return
	}

	code := vib.VIF & 0x7F
	e := primaryVIF[code]
	unit, quantity, exponent = e.unit, e.quantity, e.exponent
	isDateVIF6C = code == 0x6C
	isDateVIF6D = code == 0x6D

	factor, off := vifeCorrection(vib)
	exponent *= factor
	offset = off
	return
}
