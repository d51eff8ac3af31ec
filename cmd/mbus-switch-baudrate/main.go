// Command mbus-switch-baudrate tells a device to switch to a new baud
// rate and then reconfigures the open local port to that rate.
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
	baud := pflag.IntP("baudrate", "b", 2400, "current serial baud rate")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-switch-baudrate [-d] [-b baudrate] device address new-baudrate\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 3 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	addr, err := strconv.Atoi(pflag.Arg(1))
	if err != nil || addr < 0 || addr > 255 {
		fmt.Fprintln(os.Stderr, "invalid address")
		os.Exit(1)
	}
	newBaud, err := strconv.Atoi(pflag.Arg(2))
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid new baud rate")
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

	if err := h.SwitchBaudrate(byte(addr), session.Baudrate(newBaud)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := t.SetBaudRate(newBaud); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("device %d switched to %d baud\n", addr, newBaud)
}
