// go-nrf24
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nrf24.
//
// go-nrf24 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nrf24 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nrf24; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package nrf24

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTraceDepth = 16

// Exchange is one recorded bus transaction.
type Exchange struct {
	Time time.Time
	MOSI []byte
	// MISO is nil when the transaction did not complete.
	MISO []byte
}

// Command returns the mnemonic of the opcode in MOSI[0].
func (x Exchange) Command() string {
	if len(x.MOSI) == 0 {
		return ""
	}
	return commandName(x.MOSI[0])
}

// Failed reports whether the transaction did not complete.
func (x Exchange) Failed() bool {
	return x.MISO == nil
}

func (x Exchange) String() string {
	return x.Time.Format("15:04:05.000") + " " + x.line()
}

func (x Exchange) line() string {
	miso := "failed"
	if !x.Failed() {
		miso = hexBytes(x.MISO)
	}
	return fmt.Sprintf("%-18s > %s < %s", x.Command(), hexBytes(x.MOSI), miso)
}

func hexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		_, _ = fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// TraceBuffer is a ring of the most recent exchanges on one bus. Bus
// implementations record every transaction so that a failure can be
// reported together with the traffic that led to it. It is not safe for
// concurrent use; the Device serializes access to its bus.
type TraceBuffer struct {
	port  string
	ring  []Exchange
	next  int
	count int
}

// NewTraceBuffer creates a buffer holding the last depth exchanges on port.
// A depth of zero or less selects 16.
func NewTraceBuffer(port string, depth int) *TraceBuffer {
	if depth <= 0 {
		depth = defaultTraceDepth
	}
	return &TraceBuffer{port: port, ring: make([]Exchange, depth)}
}

// Record stores a completed transaction. Both slices are copied.
func (tb *TraceBuffer) Record(mosi, miso []byte) {
	tb.add(Exchange{
		Time: time.Now(),
		MOSI: append([]byte{}, mosi...),
		MISO: append([]byte{}, miso...),
	})
}

// Fail stores a transaction that did not complete and returns err with
// the trace attached.
func (tb *TraceBuffer) Fail(mosi []byte, err error) error {
	tb.add(Exchange{Time: time.Now(), MOSI: append([]byte{}, mosi...)})
	return tb.WrapError(err)
}

func (tb *TraceBuffer) add(x Exchange) {
	tb.ring[tb.next] = x
	tb.next = (tb.next + 1) % len(tb.ring)
	if tb.count < len(tb.ring) {
		tb.count++
	}
}

// Exchanges returns the recorded exchanges, oldest first.
func (tb *TraceBuffer) Exchanges() []Exchange {
	out := make([]Exchange, 0, tb.count)
	start := (tb.next - tb.count + len(tb.ring)) % len(tb.ring)
	for i := range tb.count {
		out = append(out, tb.ring[(start+i)%len(tb.ring)])
	}
	return out
}

// Len returns the number of recorded exchanges.
func (tb *TraceBuffer) Len() int {
	return tb.count
}

// Clear drops every recorded exchange.
func (tb *TraceBuffer) Clear() {
	clear(tb.ring)
	tb.next, tb.count = 0, 0
}

// WrapError attaches a snapshot of the buffer to err. It returns nil when
// err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{Err: err, Port: tb.port, Exchanges: tb.Exchanges()}
}

// TraceableError carries the bus traffic preceding a failure. Use
// GetTrace or errors.As to reach it through wrapping:
//
//	if te := nrf24.GetTrace(err); te != nil {
//	    log.Print(te.FormatTrace())
//	}
type TraceableError struct {
	Err       error
	Port      string
	Exchanges []Exchange
}

func (e *TraceableError) Error() string {
	return e.Err.Error()
}

func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace renders the exchanges one per line, oldest first.
func (e *TraceableError) FormatTrace() string {
	if len(e.Exchanges) == 0 {
		return e.Port + ": no exchanges recorded"
	}
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s: last %d exchanges\n", e.Port, len(e.Exchanges))
	for _, x := range e.Exchanges {
		sb.WriteString("  ")
		sb.WriteString(x.line())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// HasTrace reports whether err carries a bus trace.
func HasTrace(err error) bool {
	return GetTrace(err) != nil
}

// GetTrace returns the trace carried by err, or nil.
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
