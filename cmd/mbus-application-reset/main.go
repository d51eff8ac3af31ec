// Command mbus-application-reset sends an application reset to a
// primary address, with an optional reset subcode.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rob-gra/go-mbus/session"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/spf13/pflag"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "enable frame tracing")
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	subcode := pflag.IntP("subcode", "s", -1, "reset subcode (-1 for none)")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-application-reset [-d] [-b baudrate] [-s subcode] device address\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	addr, err := strconv.Atoi(pflag.Arg(1))
	if err != nil || addr < 0 || addr > 255 {
		fmt.Fprintln(os.Stderr, "invalid address")
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

	if err := h.ApplicationReset(byte(addr), *subcode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("device %d reset\n", addr)
}
