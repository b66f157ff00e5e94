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

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
)

// DeviceRecoverer brings a failing device back into service.
type DeviceRecoverer interface {
	// AttemptRecovery returns nil once the device works again.
	AttemptRecovery(ctx context.Context) error
	// Device returns the device in service, which changes when the
	// hardware had to be reopened.
	Device() *nrf24.Device
}

// ReopenFunc opens the hardware again and returns a fresh device.
type ReopenFunc func() (*nrf24.Device, error)

// DefaultRecoverer first re-runs Setup and restores the mode the device
// was in, then falls back to reopening the hardware.
type DefaultRecoverer struct {
	device      *nrf24.Device
	reopenFunc  ReopenFunc
	backoff     time.Duration
	maxAttempts int
	mu          syncutil.Mutex
}

// NewDefaultRecoverer creates a recoverer for device. reopenFunc may be nil.
func NewDefaultRecoverer(device *nrf24.Device, reopenFunc ReopenFunc, cfg RecoveryConfig) *DefaultRecoverer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &DefaultRecoverer{
		device:      device,
		reopenFunc:  reopenFunc,
		backoff:     cfg.Backoff,
		maxAttempts: cfg.MaxAttempts,
	}
}

// AttemptRecovery implements DeviceRecoverer. Each attempt re-runs Setup
// and re-enters the mode the radio was in when recovery started; when that
// fails and a ReopenFunc is set, the hardware is reopened and the same mode
// entered on the new device.
func (r *DefaultRecoverer) AttemptRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mode := r.device.Mode()
	errs := make([]error, 0, r.maxAttempts)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff):
			}
		}

		err := r.attempt(mode)
		if err == nil {
			nrf24.Debugf("radio back in %s mode after %d attempt(s)", mode, attempt)
			return nil
		}
		errs = append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
	}

	return fmt.Errorf("recovery failed after %d attempts: %w", r.maxAttempts, errors.Join(errs...))
}

func (r *DefaultRecoverer) attempt(mode nrf24.Mode) error {
	err := enterMode(r.device, mode)
	if err == nil || r.reopenFunc == nil {
		return err
	}

	_ = r.device.Close()
	device, reopenErr := r.reopenFunc()
	if reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	r.device = device
	nrf24.Debugln("reopened radio hardware")
	return enterMode(device, mode)
}

// Device implements DeviceRecoverer.
func (r *DefaultRecoverer) Device() *nrf24.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// enterMode runs Setup and then puts d in mode.
func enterMode(d *nrf24.Device, mode nrf24.Mode) error {
	if err := d.Setup(); err != nil {
		return err
	}
	switch mode {
	case nrf24.ModeRX:
		return d.EnterRX()
	case nrf24.ModeTX:
		return d.EnterTX()
	case nrf24.ModeStandby:
		return d.EnterStandby()
	default:
		return nil
	}
}
