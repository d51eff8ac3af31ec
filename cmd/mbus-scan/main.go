// Command mbus-scan pings every primary address 0..250 over a serial
// line and reports which ones answer.
package main

import (
	"fmt"
	"os"

	"github.com/rob-gra/go-mbus/session"
	"github.com/rob-gra/go-mbus/transport"
	"github.com/spf13/pflag"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "enable frame tracing")
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	configPath := pflag.StringP("config", "c", "", "YAML file overriding session options")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-scan [-d] [-b baudrate] [-c config.yaml] device\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)

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

	found := 0
	for addr := 0; addr <= 250; addr++ {
		if err := h.Ping(byte(addr)); err == nil {
			fmt.Printf("found device at address %d\n", addr)
			found++
		}
	}
	fmt.Printf("scan complete: %d device(s) found\n", found)
}
