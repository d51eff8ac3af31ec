// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package clog

import (
	"log"
	"os"
	"sync/atomic"
)

// LogProvider is the pluggable sink for a Clog's leveled messages.
type LogProvider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Clog is a handle-local leveled tracer: every session.Handle owns
// one rather than reaching for a package-level logger, so that two
// Handles on two buses in the same process can be enabled/disabled and
// inspected independently (spec §9 "no package-level global state").
type Clog struct {
	provider LogProvider
	has      uint32
}

// NewLogger creates a Clog writing to os.Stdout with prefix, disabled
// by default.
func NewLogger(prefix string) Clog {
	return Clog{
		provider: defaultLogger{log.New(os.Stdout, prefix, log.LstdFlags)},
	}
}

// LogMode enables or disables output.
func (c *Clog) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&c.has, 1)
	} else {
		atomic.StoreUint32(&c.has, 0)
	}
}

// SetLogProvider swaps in a custom sink.
func (c *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		c.provider = p
	}
}

func (c Clog) Critical(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 {
		c.provider.Critical(format, v...)
	}
}

func (c Clog) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 {
		c.provider.Error(format, v...)
	}
}

func (c Clog) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 {
		c.provider.Warn(format, v...)
	}
}

func (c Clog) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 {
		c.provider.Debug(format, v...)
	}
}

// TraceFrame logs one on-wire frame, direction "tx" or "rx", as hex --
// the one piece of domain-specific tracing a bus handle needs beyond
// the four generic levels above.
func (c Clog) TraceFrame(direction string, b []byte) {
	if atomic.LoadUint32(&c.has) != 1 {
		return
	}
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*3)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexDigits[v>>4], hexDigits[v&0x0F])
	}
	c.provider.Debug("%s %s", direction, string(out))
}

type defaultLogger struct {
	*log.Logger
}

var _ LogProvider = (*defaultLogger)(nil)

func (d defaultLogger) Critical(format string, v ...interface{}) { d.Printf("[C]: "+format, v...) }
func (d defaultLogger) Error(format string, v ...interface{})    { d.Printf("[E]: "+format, v...) }
func (d defaultLogger) Warn(format string, v ...interface{})     { d.Printf("[W]: "+format, v...) }
func (d defaultLogger) Debug(format string, v ...interface{})    { d.Printf("[D]: "+format, v...) }
