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
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ZaparooProject/go-nrf24"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// ErrNoDevicesFound is returned by Detect when no port has a transceiver.
var ErrNoDevicesFound = errors.New("no nRF24L01 found on any SPI port")

// Candidate is a port Detect may probe.
type Candidate struct {
	Open    func() (spi.PortCloser, error)
	Name    string
	Aliases []string
}

// DetectOptions configures Detect.
type DetectOptions struct {
	// IgnorePorts lists port names or aliases to skip, e.g. a display on SPI0.1.
	IgnorePorts []string
	// Frequency is the probe clock. Zero means DefaultFrequency.
	Frequency physic.Frequency
}

// DeviceInfo describes a port with a responding transceiver.
type DeviceInfo struct {
	Port    string
	Aliases []string
}

func (d DeviceInfo) String() string {
	if len(d.Aliases) == 0 {
		return d.Port
	}
	return fmt.Sprintf("%s %v", d.Port, d.Aliases)
}

// Candidates lists every port registered with spireg.
func Candidates() []Candidate {
	refs := spireg.All()
	candidates := make([]Candidate, 0, len(refs))
	for _, ref := range refs {
		candidates = append(candidates, Candidate{
			Name:    ref.Name,
			Aliases: ref.Aliases,
			Open:    ref.Open,
		})
	}
	return candidates
}

// Detect initializes the periph host drivers and probes every registered
// SPI port for a transceiver.
func Detect(ctx context.Context, opts DetectOptions) ([]DeviceInfo, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return DetectIn(ctx, Candidates(), opts)
}

// DetectIn probes the given candidates in order. CE is left alone; the
// probe only touches registers.
func DetectIn(ctx context.Context, candidates []Candidate, opts DetectOptions) ([]DeviceInfo, error) {
	var found []DeviceInfo

	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return found, fmt.Errorf("detection interrupted: %w", ctx.Err())
		default:
		}

		if isIgnored(c, opts.IgnorePorts) {
			continue
		}
		if err := probe(c, opts.Frequency); err != nil {
			nrf24.Debugf("probe %s: %v", c.Name, err)
			continue
		}
		found = append(found, DeviceInfo{Port: c.Name, Aliases: c.Aliases})
	}

	if len(found) == 0 {
		return nil, ErrNoDevicesFound
	}
	return found, nil
}

func isIgnored(c Candidate, ignore []string) bool {
	if slices.Contains(ignore, c.Name) {
		return true
	}
	for _, alias := range c.Aliases {
		if slices.Contains(ignore, alias) {
			return true
		}
	}
	return false
}

func probe(c Candidate, freq physic.Frequency) error {
	port, err := c.Open()
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	bus, err := Connect(port, freq)
	if err != nil {
		_ = port.Close()
		return err
	}
	defer func() { _ = bus.Close() }()

	device, err := nrf24.New(bus, idleCE{})
	if err != nil {
		return err
	}
	return device.Probe()
}

// idleCE satisfies nrf24.ChipEnable without driving a line.
type idleCE struct{}

func (idleCE) Assert() error   { return nil }
func (idleCE) Deassert() error { return nil }
