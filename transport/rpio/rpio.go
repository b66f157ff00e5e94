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

// Package rpio connects an nrf24.Device to a Raspberry Pi through
// go-rpio, which drives the BCM283x SPI0 and GPIO blocks directly via
// /dev/gpiomem without the spidev kernel driver.
package rpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	gorpio "github.com/stianeikeland/go-rpio/v4"
)

const (
	// DefaultSpeed is the SPI clock in Hz.
	DefaultSpeed = 4_000_000

	traceDepth = 16

	// edgePoll is the sampling period of IRQ.Wait; go-rpio only latches edges.
	edgePoll = 100 * time.Microsecond
)

// NoPin disables the optional IRQ line.
const NoPin = -1

// Config selects the hardware lines by BCM GPIO number.
type Config struct {
	// ChipSelect is the SPI0 chip select, 0 or 1.
	ChipSelect uint8
	// Speed is the SPI clock in Hz.
	Speed int
	// CEPin is the BCM number of the CE line.
	CEPin int
	// IRQPin is the BCM number of the IRQ line, or NoPin.
	IRQPin int
}

// DefaultConfig returns CE0 with CE on GPIO25 and no IRQ.
func DefaultConfig() Config {
	return Config{
		ChipSelect: 0,
		Speed:      DefaultSpeed,
		CEPin:      25,
		IRQPin:     NoPin,
	}
}

// Hardware bundles the opened lines.
type Hardware struct {
	Bus *Bus
	CE  *ChipEnable
	IRQ *IRQ // nil unless Config.IRQPin is set
}

// Close drops CE, stops SPI0 and unmaps the GPIO registers.
func (h *Hardware) Close() error {
	errs := []error{h.CE.Deassert()}
	if h.IRQ != nil {
		h.IRQ.Close()
	}
	errs = append(errs, h.Bus.Close())
	if err := gorpio.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close gpiomem: %w", err))
	}
	return errors.Join(errs...)
}

// Open maps the GPIO registers and starts SPI0 in mode 0.
func Open(cfg Config) (*Hardware, error) {
	if err := gorpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to map gpiomem: %w", err)
	}
	if err := gorpio.SpiBegin(gorpio.Spi0); err != nil {
		_ = gorpio.Close()
		return nil, fmt.Errorf("failed to start SPI0: %w", err)
	}
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	gorpio.SpiSpeed(cfg.Speed)
	gorpio.SpiChipSelect(cfg.ChipSelect)
	gorpio.SpiMode(0, 0)

	name := fmt.Sprintf("SPI0.%d", cfg.ChipSelect)
	hw := &Hardware{
		Bus: NewBus(spi0{}, name),
		CE:  NewChipEnable(gorpio.Pin(cfg.CEPin)),
	}
	if cfg.IRQPin != NoPin {
		hw.IRQ = NewIRQ(gorpio.Pin(cfg.IRQPin))
	}

	nrf24.Debugf("opened %s via gpiomem (CE GPIO%d, IRQ %d) at %dHz", name, cfg.CEPin, cfg.IRQPin, cfg.Speed)
	return hw, nil
}

// Port is the part of go-rpio's SPI API the bus needs.
type Port interface {
	Exchange(buf []byte)
	End()
}

type spi0 struct{}

func (spi0) Exchange(buf []byte) { gorpio.SpiExchange(buf) }
func (spi0) End()                { gorpio.SpiEnd(gorpio.Spi0) }

// Bus implements nrf24.Bus on a go-rpio SPI port.
type Bus struct {
	port   Port
	trace  *nrf24.TraceBuffer
	name   string
	closed bool
}

// NewBus wraps port. The Bus ends the port on Close.
func NewBus(port Port, name string) *Bus {
	return &Bus{
		port:  port,
		trace: nrf24.NewTraceBuffer(name, traceDepth),
		name:  name,
	}
}

// Exchange implements nrf24.Bus. go-rpio transfers in place and cannot
// report a failed transfer, so the only error is a closed bus.
func (b *Bus) Exchange(buf []byte) error {
	if b.closed {
		return b.trace.WrapError(nrf24.ErrBusClosed)
	}
	if len(buf) == 0 {
		return nil
	}
	mosi := append([]byte{}, buf...)
	b.port.Exchange(buf)
	b.trace.Record(mosi, buf)
	return nil
}

func (b *Bus) String() string {
	return "rpio " + b.name
}

// Close ends the SPI port. It is safe to call more than once.
func (b *Bus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.port.End()
	return nil
}

// OutputPin is the part of gorpio.Pin used for CE.
type OutputPin interface {
	Output()
	High()
	Low()
}

// ChipEnable drives CE through a GPIO output.
type ChipEnable struct {
	pin OutputPin
}

// NewChipEnable configures pin as an output and drives it low.
func NewChipEnable(pin OutputPin) *ChipEnable {
	pin.Output()
	pin.Low()
	return &ChipEnable{pin: pin}
}

// Assert implements nrf24.ChipEnable.
func (c *ChipEnable) Assert() error {
	c.pin.High()
	return nil
}

// Deassert implements nrf24.ChipEnable.
func (c *ChipEnable) Deassert() error {
	c.pin.Low()
	return nil
}

// InputPin is the part of gorpio.Pin used for IRQ.
type InputPin interface {
	Input()
	PullUp()
	Detect(edge gorpio.Edge)
	EdgeDetected() bool
	Read() gorpio.State
}

// IRQ watches the active-low interrupt output.
type IRQ struct {
	pin InputPin
}

// NewIRQ configures pin as a pulled-up input latching falling edges.
func NewIRQ(pin InputPin) *IRQ {
	pin.Input()
	pin.PullUp()
	pin.Detect(gorpio.FallEdge)
	return &IRQ{pin: pin}
}

// Wait returns true as soon as a falling edge has been latched or the line
// is already low, false once timeout passes.
func (i *IRQ) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if i.pin.EdgeDetected() || i.Active() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(edgePoll)
	}
}

// Active reports whether the chip is holding IRQ low.
func (i *IRQ) Active() bool {
	return i.pin.Read() == gorpio.Low
}

// Close stops edge detection on the line.
func (i *IRQ) Close() {
	i.pin.Detect(gorpio.NoEdge)
}
