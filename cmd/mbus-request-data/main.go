// Command mbus-request-data sends a REQ_UD2 to a primary address and
// prints the decoded telegram as XML.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rob-gra/go-mbus/mbus"
	"github.com/rob-gra/go-mbus/session"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/rob-gra/go-mbus/xmlrender"
	"github.com/spf13/pflag"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "enable frame tracing")
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	configPath := pflag.StringP("config", "c", "", "YAML file overriding session options")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-request-data [-d] [-b baudrate] [-c config.yaml] device address\n")
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

	var opts session.Options
	if *configPath != "" {
		opts, err = session.LoadOptionsFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		opts = session.DefaultOptions()
		opts.Baudrate = session.Baudrate(*baud)
	}
	h, err := session.NewHandle(t, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	h.Log.LogMode(*debug)

	chain, err := h.ReadData(byte(addr))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if mbus.IsFixedCI(chain.ControlInformation) {
		fb, err := mbus.DecodeFixed(chain.Data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(xmlrender.RenderFixed(nil, fb))
		return
	}

	out, err := xmlrender.RenderVariable(chain)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(out)
}
