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

package polling

import "time"

// RecoveryConfig controls what the runner does after repeated poll errors.
type RecoveryConfig struct {
	// ErrorThreshold is the number of consecutive failed polls that
	// triggers a recovery attempt. 0 disables recovery.
	ErrorThreshold int

	// MaxAttempts is the number of recovery attempts per trigger.
	MaxAttempts int

	// Backoff is the delay between recovery attempts.
	Backoff time.Duration
}

// DefaultRecoveryConfig returns the recovery defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		ErrorThreshold: 5,
		MaxAttempts:    3,
		Backoff:        100 * time.Millisecond,
	}
}

// Config holds the polling cadence.
type Config struct {
	// PollInterval is the delay between polls while traffic is flowing.
	PollInterval time.Duration
	// IdleInterval is the delay used once nothing has happened for
	// IdleThreshold. It is also the longest IRQ wait.
	IdleInterval time.Duration
	// IdleThreshold is how long without events before slowing down.
	IdleThreshold time.Duration
	// Recovery configures automatic re-initialization after bus errors
	Recovery RecoveryConfig
}

// DefaultConfig returns a cadence suited to 1-2Mbps links with auto-ack.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:  2 * time.Millisecond,
		IdleInterval:  20 * time.Millisecond,
		IdleThreshold: 2 * time.Second,
		Recovery:      DefaultRecoveryConfig(),
	}
}
