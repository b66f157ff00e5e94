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

// Package spi connects an nrf24.Device to hardware through periph.io: an
// SPI port for command transactions and GPIO lines for CE and, optionally,
// the active-low IRQ output.
package spi

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-nrf24"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is well under the chip's 10MHz SPI limit.
	DefaultFrequency = 4 * physic.MegaHertz

	mode       = spi.Mode0 // CPOL=0, CPHA=0, MSB first
	wordBits   = 8
	traceDepth = 16
)

// Config selects the hardware lines.
type Config struct {
	// Port is the spireg name, e.g. "/dev/spidev0.0" or "SPI0.0". Empty
	// selects the first registered port.
	Port string
	// CEPin is the gpioreg name of the CE line, e.g. "GPIO25".
	CEPin string
	// IRQPin is the gpioreg name of the IRQ line. Empty means no IRQ.
	IRQPin string
	// Frequency is the SPI clock.
	Frequency physic.Frequency
}

// DefaultConfig returns the wiring of the common Raspberry Pi breakout.
func DefaultConfig() Config {
	return Config{
		Port:      "",
		CEPin:     "GPIO25",
		Frequency: DefaultFrequency,
	}
}

// Hardware bundles the opened lines.
type Hardware struct {
	Bus *Bus
	CE  *ChipEnable
	IRQ *IRQ // nil unless Config.IRQPin is set
}

// Close drops CE, releases the IRQ line and closes the SPI port.
func (h *Hardware) Close() error {
	errs := []error{h.CE.Deassert()}
	if h.IRQ != nil {
		errs = append(errs, h.IRQ.Close())
	}
	errs = append(errs, h.Bus.Close())
	return errors.Join(errs...)
}

// Open initializes the periph host drivers and opens every line in cfg.
func Open(cfg Config) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.Port, err)
	}

	bus, err := Connect(port, cfg.Frequency)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	ce, err := OpenChipEnable(cfg.CEPin)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	hw := &Hardware{Bus: bus, CE: ce}
	if cfg.IRQPin != "" {
		irq, err := OpenIRQ(cfg.IRQPin)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		hw.IRQ = irq
	}

	nrf24.Debugf("opened %s (CE %s, IRQ %q) at %s", bus.portName, cfg.CEPin, cfg.IRQPin, cfg.Frequency)
	return hw, nil
}

// Bus implements nrf24.Bus over a periph SPI connection. Each Exchange is
// one Tx with chip select held for its whole length.
type Bus struct {
	port     spi.PortCloser
	conn     spi.Conn
	trace    *nrf24.TraceBuffer
	portName string
	closed   bool
}

// Connect opens a connection on port in mode 0 with 8 bit words. The
// returned Bus owns the port.
func Connect(port spi.PortCloser, freq physic.Frequency) (*Bus, error) {
	if freq == 0 {
		freq = DefaultFrequency
	}
	conn, err := port.Connect(freq, mode, wordBits)
	if err != nil {
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}
	bus := NewBus(conn, port.String())
	bus.port = port
	return bus, nil
}

// NewBus wraps an already connected spi.Conn. Close will not close any port.
func NewBus(conn spi.Conn, name string) *Bus {
	return &Bus{
		conn:     conn,
		portName: name,
		trace:    nrf24.NewTraceBuffer(name, traceDepth),
	}
}

// Exchange clocks buf out and replaces it with the bytes clocked in. The
// last exchanges are kept so a failure carries the traffic leading to it.
func (b *Bus) Exchange(buf []byte) error {
	if b.closed {
		return nrf24.ErrBusClosed
	}
	if len(buf) == 0 {
		return nil
	}

	w := make([]byte, len(buf))
	copy(w, buf)
	if err := b.conn.Tx(w, buf); err != nil {
		return b.trace.Fail(w, fmt.Errorf("SPI transaction failed: %w", err))
	}

	b.trace.Record(w, buf)
	return nil
}

// String returns the port name.
func (b *Bus) String() string {
	return b.portName
}

// Close closes the underlying port when the Bus owns one.
func (b *Bus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.port != nil {
		if err := b.port.Close(); err != nil {
			return fmt.Errorf("SPI close failed: %w", err)
		}
	}
	return nil
}

var _ nrf24.Bus = (*Bus)(nil)
