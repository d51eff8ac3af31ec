// Command mbus-select-secondary selects a single secondary device by
// its full 16-nibble address mask so subsequent primary-address 0xFD
// requests reach it.
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
		fmt.Fprintf(os.Stderr, "usage: mbus-select-secondary [-d] [-b baudrate] device mask\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	mask := pflag.Arg(1)
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
	switch outcome {
	case mbus.ProbeSingle:
		fmt.Println("selected")
	case mbus.ProbeCollision:
		fmt.Fprintln(os.Stderr, "collision: more than one device matches mask")
		os.Exit(1)
	case mbus.ProbeNothing:
		fmt.Fprintln(os.Stderr, "no device matches mask")
		os.Exit(1)
	}
}
