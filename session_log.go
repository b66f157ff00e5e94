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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// OpenSessionLog starts a session log in dir and returns its path. Every
// Debugf message is written there with a timestamp, whether or not console
// debugging is on. An already open session log is closed first.
func OpenSessionLog(dir string) (string, error) {
	if err := CloseSessionLog(); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "nrf24-"+time.Now().Format("20060102-150405")+".log")
	f, err := os.Create(path) //nolint:gosec // name is built here, only dir comes from the caller
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}

	_, _ = fmt.Fprintf(f, "# nrf24 session %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(f, "# pid %d, %s/%s, %s\n", os.Getpid(), runtime.GOOS, runtime.GOARCH, runtime.Version())
	_, _ = fmt.Fprintf(f, "# %s\n\n", strings.Join(os.Args, " "))

	dlog.mu.Lock()
	dlog.session, dlog.path = f, path
	dlog.mu.Unlock()
	return path, nil
}

// CloseSessionLog ends the session log, if any.
func CloseSessionLog() error {
	dlog.mu.Lock()
	f := dlog.session
	dlog.session, dlog.path = nil, ""
	dlog.mu.Unlock()

	if f == nil {
		return nil
	}
	_, werr := fmt.Fprintf(f, "\n# closed %s\n", time.Now().Format(time.RFC3339))
	if err := errors.Join(werr, f.Close()); err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// SessionLogPath returns the path of the open session log, or "".
func SessionLogPath() string {
	dlog.mu.Lock()
	defer dlog.mu.Unlock()
	return dlog.path
}
