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

package spi

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// ErrPinNotFound is returned when gpioreg has no pin of the given name.
var ErrPinNotFound = errors.New("GPIO pin not found")

// ChipEnable implements nrf24.ChipEnable on a GPIO output.
type ChipEnable struct {
	pin gpio.PinOut
}

// OpenChipEnable looks up name in gpioreg and drives it low.
func OpenChipEnable(name string) (*ChipEnable, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: CE %q", ErrPinNotFound, name)
	}
	return NewChipEnable(p)
}

// NewChipEnable drives pin low and wraps it.
func NewChipEnable(pin gpio.PinOut) (*ChipEnable, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to drive CE %s low: %w", pin, err)
	}
	return &ChipEnable{pin: pin}, nil
}

// Assert drives CE high.
func (c *ChipEnable) Assert() error {
	return c.set(gpio.High)
}

// Deassert drives CE low.
func (c *ChipEnable) Deassert() error {
	return c.set(gpio.Low)
}

func (c *ChipEnable) set(l gpio.Level) error {
	if err := c.pin.Out(l); err != nil {
		return fmt.Errorf("CE %s: %w", c.pin, err)
	}
	return nil
}

var _ nrf24.ChipEnable = (*ChipEnable)(nil)

// IRQ watches the chip's active-low interrupt output.
type IRQ struct {
	pin gpio.PinIn
}

// OpenIRQ looks up name in gpioreg and arms falling edge detection.
func OpenIRQ(name string) (*IRQ, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: IRQ %q", ErrPinNotFound, name)
	}
	return NewIRQ(p)
}

// NewIRQ configures pin as a pulled-up input with falling edge detection.
func NewIRQ(pin gpio.PinIn) (*IRQ, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("failed to configure IRQ %s: %w", pin, err)
	}
	return &IRQ{pin: pin}, nil
}

// Wait blocks until the IRQ line falls or timeout passes. It returns true
// on an edge.
func (i *IRQ) Wait(timeout time.Duration) bool {
	return i.pin.WaitForEdge(timeout)
}

// Active reports whether an interrupt is pending (line low).
func (i *IRQ) Active() bool {
	return i.pin.Read() == gpio.Low
}

// Close disables edge detection.
func (i *IRQ) Close() error {
	if err := i.pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return fmt.Errorf("failed to release IRQ %s: %w", i.pin, err)
	}
	return nil
}
