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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
)

// debugLog fans driver messages out to the console, when enabled, and to
// the session log, when one is open. The poll goroutine and the caller
// both log, so every field is guarded by mu.
type debugLog struct {
	mu      syncutil.Mutex
	console io.Writer
	session *os.File
	path    string
	enabled bool
}

// NRF24_DEBUG or DEBUG turns console output on at startup
var dlog = &debugLog{
	console: os.Stdout,
	enabled: os.Getenv("NRF24_DEBUG") != "" || os.Getenv("DEBUG") != "",
}

// Debugf logs a driver message. It always goes to the session log when one
// is open and to the console only when debugging is enabled.
func Debugf(format string, args ...any) {
	dlog.emit(fmt.Sprintf(format, args...))
}

// Debugln is Debugf with Sprintln-style operands.
func Debugln(args ...any) {
	dlog.emit(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (l *debugLog) emit(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		_, _ = fmt.Fprintf(l.session, "%s nrf24: %s\n", time.Now().Format("15:04:05.000"), message)
	}
	if l.enabled {
		_, _ = fmt.Fprintf(l.console, "nrf24: %s\n", message)
	}
}

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	dlog.mu.Lock()
	dlog.enabled = enabled
	dlog.mu.Unlock()
}

// DebugEnabled reports whether console debug output is on.
func DebugEnabled() bool {
	dlog.mu.Lock()
	defer dlog.mu.Unlock()
	return dlog.enabled
}

// SetDebugOutput redirects console debug output; nil restores stdout.
func SetDebugOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	dlog.mu.Lock()
	dlog.console = w
	dlog.mu.Unlock()
}
