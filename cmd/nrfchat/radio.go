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

package main

import (
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
	"github.com/ZaparooProject/go-nrf24/profile"
)

// radio owns the open hardware and swaps it out when the poll loop gives
// up on a device and asks for a fresh one.
type radio struct {
	cfg     *config
	profile *profile.Profile
	open    func(*config) (*hardware, error)
	hw      *hardware
	mu      syncutil.Mutex
}

func newRadio(cfg *config, p *profile.Profile, open func(*config) (*hardware, error)) *radio {
	return &radio{cfg: cfg, profile: p, open: open}
}

// openDevice opens the hardware and wraps it in a device without touching
// the radio's registers.
func (r *radio) openDevice() (*nrf24.Device, error) {
	hw, err := r.open(r.cfg)
	if err != nil {
		return nil, err
	}
	device, err := nrf24.New(hw.bus, hw.ce, nrf24.WithDelay(nrf24.SleepDelay))
	if err != nil {
		_ = hw.closer.Close()
		return nil, err
	}
	r.mu.Lock()
	r.hw = hw
	r.mu.Unlock()
	return device, nil
}

// reopen implements polling.ReopenFunc. The old hardware is released
// first since both handles would claim the same pins.
func (r *radio) reopen() (*nrf24.Device, error) {
	if err := r.Close(); err != nil {
		nrf24.Debugf("closing old hardware: %v", err)
	}
	device, err := r.openDevice()
	if err != nil {
		return nil, err
	}
	if err := configure(device, r.cfg, r.profile); err != nil {
		return nil, err
	}
	return device, nil
}

func (r *radio) hasIRQ() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hw != nil && r.hw.irq != nil
}

// Wait implements polling.InterruptWaiter on the IRQ line of whichever
// hardware is current. Without one it sleeps for timeout.
func (r *radio) Wait(timeout time.Duration) bool {
	r.mu.Lock()
	hw := r.hw
	r.mu.Unlock()

	if hw == nil || hw.irq == nil {
		time.Sleep(timeout)
		return false
	}
	return hw.irq.Wait(timeout)
}

// Close releases the current hardware.
func (r *radio) Close() error {
	r.mu.Lock()
	hw := r.hw
	r.hw = nil
	r.mu.Unlock()

	if hw == nil {
		return nil
	}
	return hw.closer.Close()
}
