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

import "time"

// Bus is the byte-oriented synchronous link to the nRF24L01.
// It can be implemented by a hardware SPI port or by a simulator.
type Bus interface {
	// Exchange clocks buf out to the chip while clocking the chip's reply
	// into the same positions of buf. Chip select must stay asserted for the
	// whole exchange so that buf is one command transaction.
	Exchange(buf []byte) error
}

// ChipEnable drives the CE line of the transceiver.
type ChipEnable interface {
	// Assert drives CE high
	Assert() error
	// Deassert drives CE low
	Deassert() error
}

// DelayFunc blocks for at least d. It is used for the RX/TX settling
// delays after CE is asserted.
type DelayFunc func(d time.Duration)

// NoDelay is a DelayFunc that returns immediately. It is the default, which
// suits simulated buses where the radio settles instantly.
func NoDelay(time.Duration) {}

// SleepDelay is a DelayFunc backed by time.Sleep for real hardware.
func SleepDelay(d time.Duration) {
	time.Sleep(d)
}
