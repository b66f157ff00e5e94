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

package testing

import (
	"errors"
	"math/rand/v2"
	"time"
)

// ErrInjectedFault is returned by NoisyBus for exchanges it was configured
// to fail.
var ErrInjectedFault = errors.New("injected bus fault")

// Exchanger is the SPI transaction interface shared with the driver's Bus.
type Exchanger interface {
	Exchange(buf []byte) error
}

// NoiseConfig configures NoisyBus.
type NoiseConfig struct {
	// MaxLatency adds a random delay in [0, MaxLatency] before each exchange.
	MaxLatency time.Duration
	// FailEvery fails every Nth exchange with ErrInjectedFault. 0 disables.
	FailEvery int
	// FailAfter fails every exchange once this many have succeeded. 0 disables.
	FailAfter int
	// FlipProbability is the chance, per exchange, that one random bit of the
	// reply after STATUS is inverted.
	FlipProbability float64
	Seed            uint64
}

// DefaultNoiseConfig returns a configuration with a small latency and no
// injected failures.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{MaxLatency: 200 * time.Microsecond}
}

// NoisyBus wraps an Exchanger to simulate a marginal SPI link: added
// latency, failed transactions and corrupted MISO bits.
type NoisyBus struct {
	backend   Exchanger
	rng       *rand.Rand
	config    NoiseConfig
	exchanges int
	failures  int
	flips     int
}

// NewNoisyBus wraps backend with fault simulation.
func NewNoisyBus(backend Exchanger, config NoiseConfig) *NoisyBus {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &NoisyBus{backend: backend, config: config, rng: rng}
}

// Exchange forwards to the backend unless a fault is due.
func (n *NoisyBus) Exchange(buf []byte) error {
	if n.config.MaxLatency > 0 {
		if d := time.Duration(n.rng.Int64N(int64(n.config.MaxLatency) + 1)); d > 0 {
			time.Sleep(d)
		}
	}

	n.exchanges++
	if n.config.FailEvery > 0 && n.exchanges%n.config.FailEvery == 0 {
		n.failures++
		return ErrInjectedFault
	}
	if n.config.FailAfter > 0 && n.exchanges > n.config.FailAfter {
		n.failures++
		return ErrInjectedFault
	}

	if err := n.backend.Exchange(buf); err != nil {
		return err //nolint:wrapcheck // Pass-through wrapper
	}

	if len(buf) > 1 && n.config.FlipProbability > 0 && n.rng.Float64() < n.config.FlipProbability {
		i := 1 + n.rng.IntN(len(buf)-1)
		buf[i] ^= 1 << n.rng.IntN(8)
		n.flips++
	}
	return nil
}

// Failures returns the number of exchanges failed so far.
func (n *NoisyBus) Failures() int {
	return n.failures
}

// Flips returns the number of replies corrupted so far.
func (n *NoisyBus) Flips() int {
	return n.flips
}

// Reset clears the counters so FailAfter and FailEvery start over.
func (n *NoisyBus) Reset() {
	n.exchanges = 0
	n.failures = 0
	n.flips = 0
}
