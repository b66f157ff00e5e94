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
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	testutil "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/ZaparooProject/go-nrf24/polling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIRQ struct {
	waits atomic.Int32
}

func (c *countingIRQ) Wait(time.Duration) bool {
	c.waits.Add(1)
	return true
}

type closeFlag struct {
	closed atomic.Bool
}

func (c *closeFlag) Close() error {
	c.closed.Store(true)
	return nil
}

type simHardware struct {
	sim    *testutil.VirtualNRF24
	irq    *countingIRQ
	closer *closeFlag
}

// simOpener hands out a fresh simulated radio on every call.
func simOpener(opened *[]simHardware) func(*config) (*hardware, error) {
	return func(*config) (*hardware, error) {
		h := simHardware{
			sim:    testutil.NewVirtualNRF24(),
			irq:    &countingIRQ{},
			closer: &closeFlag{},
		}
		*opened = append(*opened, h)
		return &hardware{bus: h.sim, ce: h.sim, irq: h.irq, closer: h.closer}, nil
	}
}

func testRadioConfig() *config {
	return &config{channel: 76, listenPipe: 1, txAddress: "A1B2C3D4E5"}
}

func TestRadio_WaitFollowsCurrentHardware(t *testing.T) {
	t.Parallel()
	var opened []simHardware
	rad := newRadio(testRadioConfig(), nil, simOpener(&opened))

	_, err := rad.openDevice()
	require.NoError(t, err)
	require.True(t, rad.hasIRQ())
	assert.True(t, rad.Wait(time.Millisecond))

	_, err = rad.reopen()
	require.NoError(t, err)
	require.Len(t, opened, 2)
	assert.True(t, rad.Wait(time.Millisecond))

	assert.Equal(t, int32(1), opened[0].irq.waits.Load())
	assert.Equal(t, int32(1), opened[1].irq.waits.Load())
	assert.True(t, opened[0].closer.closed.Load())
	assert.False(t, opened[1].closer.closed.Load())

	require.NoError(t, rad.Close())
	assert.True(t, opened[1].closer.closed.Load())
	assert.False(t, rad.hasIRQ())
}

func TestRadio_WaitWithoutHardware(t *testing.T) {
	t.Parallel()
	rad := newRadio(testRadioConfig(), nil, nil)

	assert.False(t, rad.Wait(time.Millisecond))
	require.NoError(t, rad.Close())
}

func TestRadio_OpenFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("no spidev")
	rad := newRadio(testRadioConfig(), nil, func(*config) (*hardware, error) {
		return nil, boom
	})

	_, err := rad.openDevice()
	require.ErrorIs(t, err, boom)
	assert.False(t, rad.hasIRQ())
}

func TestRadio_RecovererReopensConfigured(t *testing.T) {
	t.Parallel()
	var opened []simHardware
	rad := newRadio(testRadioConfig(), nil, simOpener(&opened))

	device, err := rad.openDevice()
	require.NoError(t, err)
	require.NoError(t, configure(device, rad.cfg, nil))
	require.Equal(t, nrf24.ModeRX, device.Mode())

	rec := polling.NewDefaultRecoverer(device, rad.reopen, polling.RecoveryConfig{
		MaxAttempts: 1,
		Backoff:     time.Millisecond,
	})
	opened[0].sim.FailNextExchange(errors.New("bus stuck"))

	require.NoError(t, rec.AttemptRecovery(context.Background()))

	require.Len(t, opened, 2)
	assert.NotSame(t, device, rec.Device())
	assert.True(t, opened[0].closer.closed.Load())

	fresh := opened[1].sim
	assert.Equal(t, nrf24.ModeRX, rec.Device().Mode())
	assert.True(t, fresh.CE())
	assert.Equal(t, []byte{76}, fresh.Register(testutil.RegRFChannel))
	assert.Equal(t, []byte{0xE5, 0xD4, 0xC3, 0xB2, 0xA1}, fresh.Register(testutil.RegTxAddr))
}
