// Command mbus-raw-send writes a literal hex-encoded byte sequence to
// the serial line and dumps whatever comes back, bypassing the session
// state machine entirely. Meant for protocol debugging.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rob-gra/go-mbus/transport"
	"github.com/spf13/pflag"
)

func main() {
	baud := pflag.IntP("baudrate", "b", 2400, "serial baud rate")
	timeout := pflag.DurationP("timeout", "t", 500*time.Millisecond, "read timeout")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbus-raw-send [-b baudrate] [-t timeout] device hexbytes\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(1)
	}
	device := pflag.Arg(0)
	raw := strings.ReplaceAll(pflag.Arg(1), " ", "")
	payload, err := hex.DecodeString(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid hex payload:", err)
		os.Exit(1)
	}

	t, err := transport.OpenSerial(device, *baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer t.Close()

	if err := t.Write(payload); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	buf := make([]byte, 512)
	n, err := t.Read(buf, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hex.EncodeToString(buf[:n]))
}
