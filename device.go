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

// Package nrf24 drives the Nordic nRF24L01(+) 2.4GHz transceiver.
//
// The Device type covers three layers: the SPI command protocol (one bus
// exchange per command, STATUS clocked back on every exchange), the mode
// and radio configuration registers, and a polling event loop that moves
// datagrams between the chip's FIFOs and bounded software queues.
package nrf24

import (
	"bytes"
	"fmt"
	"time"
)

// Default settling times after CE goes high (datasheet Tstby2a).
const (
	DefaultRxSettling = 130 * time.Microsecond
	DefaultTxSettling = 130 * time.Microsecond

	// DefaultQueueCapacity is the default depth of each software queue.
	DefaultQueueCapacity = 8
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Delay blocks during the RX/TX settling time. Defaults to NoDelay.
	Delay DelayFunc
	// RxSettling is the wait after entering RX mode
	RxSettling time.Duration
	// TxSettling is the wait after entering TX mode
	TxSettling time.Duration
	// RxQueueCapacity bounds the software RX queue
	RxQueueCapacity int
	// TxQueueCapacity bounds the software TX queue
	TxQueueCapacity int
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Delay:           NoDelay,
		RxSettling:      DefaultRxSettling,
		TxSettling:      DefaultTxSettling,
		RxQueueCapacity: DefaultQueueCapacity,
		TxQueueCapacity: DefaultQueueCapacity,
	}
}

// Option configures a Device at construction time
type Option func(*DeviceConfig) error

// WithDelay sets the settling delay strategy
func WithDelay(delay DelayFunc) Option {
	return func(c *DeviceConfig) error {
		if delay == nil {
			delay = NoDelay
		}
		c.Delay = delay
		return nil
	}
}

// WithSettlingDelays overrides the RX and TX settling times
func WithSettlingDelays(rx, tx time.Duration) Option {
	return func(c *DeviceConfig) error {
		if rx < 0 || tx < 0 {
			return fmt.Errorf("settling delays must not be negative, got rx=%v tx=%v", rx, tx)
		}
		c.RxSettling = rx
		c.TxSettling = tx
		return nil
	}
}

// WithQueueCapacity sets the depth of the software RX and TX queues
func WithQueueCapacity(rx, tx int) Option {
	return func(c *DeviceConfig) error {
		if rx < 1 || tx < 1 {
			return fmt.Errorf("queue capacity must be at least 1, got rx=%d tx=%d", rx, tx)
		}
		c.RxQueueCapacity = rx
		c.TxQueueCapacity = tx
		return nil
	}
}

// RxHandler receives a datagram delivered by Poll.
type RxHandler func(dg Datagram)

// TxHandler is called by Poll when the chip reports a payload as sent.
type TxHandler func()

// Device represents an nRF24L01(+) transceiver
//
// Thread Safety: Device is NOT thread-safe. Poll and all configuration
// methods must be called from a single goroutine or protected with external
// synchronization (see the polling package).
type Device struct {
	bus       Bus
	ce        ChipEnable
	config    *DeviceConfig
	rxQueue   *queue[Datagram]
	txQueue   *queue[Datagram]
	rxHandler RxHandler
	txHandler TxHandler
	mode      Mode
	status    Status
}

// New creates a new device on the given bus and chip-enable line. It does
// not touch the hardware; call Setup before use.
func New(bus Bus, ce ChipEnable, opts ...Option) (*Device, error) {
	if bus == nil {
		return nil, ErrNilBus
	}
	if ce == nil {
		return nil, ErrNilChipEnable
	}

	config := DefaultDeviceConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return &Device{
		bus:     bus,
		ce:      ce,
		config:  config,
		rxQueue: newQueue[Datagram](config.RxQueueCapacity),
		txQueue: newQueue[Datagram](config.TxQueueCapacity),
		mode:    ModeShutDown,
	}, nil
}

// Setup enables dynamic payload length globally, clears pending interrupts
// and flushes both FIFOs.
func (d *Device) Setup() error {
	err := d.updateByte(RegFeature, func(v byte) byte {
		v = featureEnDynAck.assign(v, false)
		v = featureEnAckPay.assign(v, false)
		return featureEnDPL.assign(v, true)
	})
	if err != nil {
		return fmt.Errorf("failed to enable dynamic payload length: %w", err)
	}

	if _, err := d.ClearInterrupts(StatusInterrupts); err != nil {
		return fmt.Errorf("failed to clear interrupts: %w", err)
	}

	if _, err := d.FlushRX(); err != nil {
		return fmt.Errorf("failed to flush RX FIFO: %w", err)
	}
	if _, err := d.FlushTX(); err != nil {
		return fmt.Errorf("failed to flush TX FIFO: %w", err)
	}

	Debugf("setup complete, status %s", d.status)
	return nil
}

// probePattern is written to TX_ADDR by Probe.
var probePattern = Address{0xA5, 0x5A, 0xC3, 0x3C, 0x96}

// Probe checks that a transceiver answers on the bus: SETUP_AW must hold a
// legal address width and a pattern written to TX_ADDR must read back over
// that width (3, 4 or 5 bytes). TX_ADDR is restored afterwards. A
// disconnected MISO line reads as all zeros or all ones and fails both
// checks.
func (d *Device) Probe() error {
	aw, err := d.readByte(RegSetupAW)
	if err != nil {
		return err
	}
	if aw == 0 || aw&^0x03 != 0 {
		return fmt.Errorf("%w: SETUP_AW reads 0x%02X", ErrChipNotFound, aw)
	}

	saved, err := d.TxFullAddress()
	if err != nil {
		return err
	}
	if err := d.SetTxFullAddress(probePattern); err != nil {
		return err
	}
	got, err := d.TxFullAddress()
	restoreErr := d.SetTxFullAddress(saved)
	if err != nil {
		return err
	}
	// SETUP_AW 1..3 selects 3..5 byte addresses; bytes past the width are
	// not stored by the chip
	width := int(aw) + 2
	if !bytes.Equal(got[:width], probePattern[:width]) {
		return fmt.Errorf("%w: TX_ADDR reads back %s", ErrChipNotFound, got)
	}
	return restoreErr
}

// Status returns the STATUS snapshot from the most recent transaction.
func (d *Device) Status() Status {
	return d.status
}

// Config returns a copy of the device configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// Close drops CE and powers the chip down.
func (d *Device) Close() error {
	if err := d.EnterShutdown(); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
