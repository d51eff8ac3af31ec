// Command mbus-inspect-frame parses a hex-encoded link-layer frame
// given on the command line and prints its structure, without touching
// any transport. Useful for replaying a captured telegram offline.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/rob-gra/go-mbus/mbus"
	"github.com/spf13/pflag"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-inspect-frame hexbytes\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	raw := strings.ReplaceAll(pflag.Arg(0), " ", "")
	buf, err := hex.DecodeString(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid hex payload:", err)
		os.Exit(1)
	}

	res := mbus.Parse(buf)
	switch res.Status {
	case mbus.StatusNeedMore:
		fmt.Printf("incomplete frame, need %d more byte(s)\n", res.Need)
		os.Exit(1)
	case mbus.StatusInvalid:
		fmt.Fprintln(os.Stderr, res.Err)
		os.Exit(1)
	}

	f := res.Frame
	fmt.Printf("type: %s\n", f.Type)
	fmt.Printf("consumed: %d byte(s)\n", res.Consumed)
	if f.Type == mbus.TypeAck {
		return
	}
	fmt.Printf("control: 0x%02X\n", f.Control)
	fmt.Printf("address: %d\n", f.Address)
	if f.Type == mbus.TypeControl || f.Type == mbus.TypeLong {
		fmt.Printf("control information: 0x%02X\n", f.ControlInformation)
	}
	if f.Type != mbus.TypeLong || len(f.Data) == 0 {
		return
	}

	if mbus.IsFixedCI(f.ControlInformation) {
		fb, err := mbus.DecodeFixed(f.Data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("fixed body: id=%s medium=%s access=%d stored=%v\n",
			fb.Identification, fb.Medium, fb.AccessNumber, fb.Stored)
		return
	}

	header, body, err := mbus.ParseVariableDataHeader(f.Data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("id: %s manufacturer: %s version: %d medium: %s access: %d status: 0x%02X\n",
		header.Identification, header.Manufacturer, header.Version, header.MediumName(),
		header.AccessNumber, header.Status)

	records, err := mbus.ParseRecords(body)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	i := 0
	for r := records; r != nil; r = r.Next() {
		v, err := mbus.Decode(r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if v.IsNumeric {
			fmt.Printf("record %d: %s %s = %g %s\n", i, v.Function, v.Quantity, v.Numeric, v.Unit)
		} else {
			fmt.Printf("record %d: %s %s = %q\n", i, v.Function, v.Quantity, string(v.Bytes))
		}
		i++
	}
}
