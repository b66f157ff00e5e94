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

import (
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		enter  func(d *Device) error
		name   string
		mode   Mode
		config byte
		ceHigh bool
	}{
		{name: "rx", enter: (*Device).EnterRX, mode: ModeRX, config: 0x0B, ceHigh: true},
		{name: "tx", enter: (*Device).EnterTX, mode: ModeTX, config: 0x0A, ceHigh: true},
		{name: "standby", enter: (*Device).EnterStandby, mode: ModeStandby, config: 0x0A},
		{name: "shutdown", enter: (*Device).EnterShutdown, mode: ModeShutDown, config: 0x08},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, sim := newTestDevice(t)

			require.NoError(t, tt.enter(device))

			assert.Equal(t, tt.mode, device.Mode())
			assert.Equal(t, tt.ceHigh, sim.CE())
			assert.Equal(t, []byte{tt.config}, sim.Register(testutil.RegConfig))
		})
	}
}

func TestEnterStandby_KeepsPrimRx(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.EnterRX())

	require.NoError(t, device.EnterStandby())

	cfg, err := device.ConfigRegister()
	require.NoError(t, err)
	assert.True(t, cfg.PoweredUp())
	assert.True(t, cfg.PrimaryRx())
	assert.False(t, sim.CE())
}

// orderRecorder records bus and CE activity in a single timeline.
type orderRecorder struct {
	sim    *testutil.VirtualNRF24
	events []string
}

func (p *orderRecorder) Exchange(buf []byte) error {
	p.events = append(p.events, commandName(buf[0]))
	return p.sim.Exchange(buf)
}

func (p *orderRecorder) Assert() error {
	p.events = append(p.events, "CE=1")
	return p.sim.Assert()
}

func (p *orderRecorder) Deassert() error {
	p.events = append(p.events, "CE=0")
	return p.sim.Deassert()
}

func TestModeTransitions_Ordering(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	rec := &orderRecorder{sim: testutil.NewVirtualNRF24()}
	device, err := New(rec, rec, WithDelay(func(d time.Duration) {
		delays = append(delays, d)
		rec.events = append(rec.events, "delay")
	}))
	require.NoError(t, err)

	require.NoError(t, device.EnterRX())
	assert.Equal(t, []string{"R_REGISTER", "W_REGISTER", "CE=1", "delay"}, rec.events)

	rec.events = nil
	require.NoError(t, device.EnterShutdown())
	assert.Equal(t, []string{"CE=0", "R_REGISTER", "W_REGISTER"}, rec.events)

	rec.events = nil
	require.NoError(t, device.EnterTX())
	assert.Equal(t, []string{"R_REGISTER", "W_REGISTER", "CE=1", "delay"}, rec.events)

	rec.events = nil
	require.NoError(t, device.EnterStandby())
	assert.Equal(t, []string{"CE=0", "R_REGISTER", "W_REGISTER"}, rec.events)

	assert.Equal(t, []time.Duration{DefaultRxSettling, DefaultTxSettling}, delays)
}

func TestEnterRX_ChipEnableFailure(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	sim.FailNextCE(assert.AnError)

	err := device.EnterRX()

	require.ErrorIs(t, err, ErrChipEnable)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, ModeShutDown, device.Mode())
	// CONFIG is back at its reset value, matching the reported mode
	assert.Equal(t, []byte{0x08}, sim.Register(testutil.RegConfig))
	assert.False(t, sim.CE())
}

func TestEnterTX_ChipEnableFailureFromStandby(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.EnterRX())
	require.NoError(t, device.EnterStandby())
	sim.FailNextCE(assert.AnError)

	err := device.EnterTX()

	require.ErrorIs(t, err, ErrChipEnable)
	assert.Equal(t, ModeStandby, device.Mode())
	cfg, err := device.ConfigRegister()
	require.NoError(t, err)
	assert.True(t, cfg.PoweredUp())
	assert.True(t, cfg.PrimaryRx(), "PRIM_RX restored")
	assert.False(t, sim.CE())
}

func TestEnterStandby_ConfigFailureAfterCE(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.EnterRX())
	sim.FailNextExchange(assert.AnError)

	err := device.EnterStandby()

	require.ErrorIs(t, err, assert.AnError)
	// CE is low with PWR_UP still set: the chip is in standby
	assert.False(t, sim.CE())
	assert.Equal(t, ModeStandby, device.Mode())
}

func TestEnterTX_BusFailure(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.EnterStandby())
	sim.FailNextExchange(assert.AnError)

	err := device.EnterTX()

	require.ErrorIs(t, err, ErrBusFailure)
	assert.Equal(t, ModeStandby, device.Mode())
	assert.False(t, sim.CE())
}

func TestClearInterrupts_OnlyInterruptBits(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	sim.SetFlags(testutil.StatusRxDR | testutil.StatusTxDS)

	_, err := device.ClearInterrupts(StatusTxDataSent | 0x0F)

	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x20}}, sim.Writes(testutil.RegStatus))
	assert.Equal(t, byte(testutil.StatusRxDR), sim.Flags())
}

func TestMode_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "shutdown", ModeShutDown.String())
	assert.Equal(t, "rx", ModeRX.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
