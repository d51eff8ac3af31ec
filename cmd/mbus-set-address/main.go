// Command mbus-set-address selects a device by secondary mask and
// assigns it a new primary address.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rob-gra/go-mbus/mbus"
	"github.com/rob-gra/go-mbus/session"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/spf13/pflag"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "enable frame tracing")
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-set-address [-d] [-b baudrate] device mask new-address\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 3 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	mask := pflag.Arg(1)
	newAddr, err := strconv.Atoi(pflag.Arg(2))
	if err != nil || newAddr < 0 || newAddr > 250 {
		fmt.Fprintln(os.Stderr, "invalid new address (must be 0-250)")
		os.Exit(1)
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

	outcome, err := h.SelectSecondary(mask)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if outcome != mbus.ProbeSingle {
		fmt.Fprintln(os.Stderr, "select failed: mask did not resolve to exactly one device")
		os.Exit(1)
	}

	if err := h.SetPrimaryAddress(byte(newAddr)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("address set to %d\n", newAddr)
}
