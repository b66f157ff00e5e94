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
	"testing"

	"github.com/ZaparooProject/go-nrf24"
	virt "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi"
)

func candidateFor(name string, port *MockSPIPort, aliases ...string) Candidate {
	return Candidate{
		Name:    name,
		Aliases: aliases,
		Open:    func() (spi.PortCloser, error) { return port, nil },
	}
}

func TestDetectIn(t *testing.T) {
	t.Parallel()

	radio := virt.NewVirtualNRF24()
	radioPort := NewMockSPIPort(radio)

	// a port with something else attached: SETUP_AW never reads a legal width
	other := virt.NewVirtualNRF24()
	other.SetRegister(virt.RegSetupAW, 0x00)
	otherPort := NewMockSPIPort(other)

	broken := Candidate{
		Name: "SPI2.0",
		Open: func() (spi.PortCloser, error) { return nil, errors.New("permission denied") },
	}

	found, err := DetectIn(context.Background(), []Candidate{
		candidateFor("SPI0.1", otherPort),
		broken,
		candidateFor("SPI0.0", radioPort, "/dev/spidev0.0"),
	}, DetectOptions{})

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "SPI0.0", found[0].Port)
	assert.Equal(t, "SPI0.0 [/dev/spidev0.0]", found[0].String())
	assert.True(t, radioPort.closed)
	assert.True(t, otherPort.closed)
	assert.Equal(t, DefaultFrequency, radioPort.freq)
	assert.Equal(t, []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}, radio.Register(virt.RegTxAddr))
	assert.False(t, radio.CE())
}

func TestDetectIn_Ignored(t *testing.T) {
	t.Parallel()
	port := NewMockSPIPort(virt.NewVirtualNRF24())

	_, err := DetectIn(context.Background(), []Candidate{
		candidateFor("SPI0.0", port, "/dev/spidev0.0"),
	}, DetectOptions{IgnorePorts: []string{"/dev/spidev0.0"}})

	require.ErrorIs(t, err, ErrNoDevicesFound)
	assert.Zero(t, port.freq)
}

func TestDetectIn_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DetectIn(ctx, []Candidate{
		candidateFor("SPI0.0", NewMockSPIPort(virt.NewVirtualNRF24())),
	}, DetectOptions{})

	require.ErrorIs(t, err, context.Canceled)
}

func TestDetectIn_NoCandidates(t *testing.T) {
	t.Parallel()
	_, err := DetectIn(context.Background(), nil, DetectOptions{})
	require.ErrorIs(t, err, ErrNoDevicesFound)
}

func TestProbe_ChipNotFound(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualNRF24()
	sim.SetRegister(virt.RegSetupAW, 0xFF)

	err := probe(candidateFor("SPI1.0", NewMockSPIPort(sim)), 0)

	require.ErrorIs(t, err, nrf24.ErrChipNotFound)
}
