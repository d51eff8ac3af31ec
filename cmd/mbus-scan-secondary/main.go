// Command mbus-scan-secondary runs the recursive binary-search probe
// over secondary addresses and prints every match. The optional mask
// argument is only checked for validity: the scan always starts from
// the all-wildcard mask and is not narrowed by it.
package main

import (
	"fmt"
	"os"

	"github.com/rob-gra/go-mbus/mbus"
	"github.com/rob-gra/go-mbus/session"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/spf13/pflag"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "enable frame tracing")
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-scan-secondary [-d] [-b baudrate] device [mask]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() < 1 || pflag.NArg() > 2 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	mask := "FFFFFFFFFFFFFFFF"
	if pflag.NArg() == 2 {
		mask = pflag.Arg(1)
	}
	if err := mbus.ParseSecondaryMask(mask); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	t, err := transport.OpenSerial(device, *baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer t.Close()

	opts := session.DefaultOptions()
	opts.Baudrate = session.Baudrate(*baud)
	h, err := session.NewHandle(t, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	h.Log.LogMode(*debug)

	err = mbus.ScanSecondary(h,
		func(m string) { fmt.Printf("probing %s\n", m) },
		func(addr mbus.SecondaryAddress) { fmt.Printf("found %s\n", addr.String()) },
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
