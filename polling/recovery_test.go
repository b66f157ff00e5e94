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

package polling

import (
	"context"
	"testing"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	testutil "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultRecoverer(t *testing.T) {
	t.Parallel()
	sim := testutil.NewVirtualNRF24()
	device, err := nrf24.New(sim, sim)
	require.NoError(t, err)

	t.Run("WithDefaults", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(device, nil, RecoveryConfig{})
		assert.Equal(t, 3, r.maxAttempts)
		assert.Equal(t, 100*time.Millisecond, r.backoff)
		assert.Same(t, device, r.Device())
	})

	t.Run("WithCustomValues", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(device, nil, RecoveryConfig{MaxAttempts: 5, Backoff: time.Second})
		assert.Equal(t, 5, r.maxAttempts)
		assert.Equal(t, time.Second, r.backoff)
	})
}

func TestDefaultRecoverer_RestoresMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		enter func(*nrf24.Device) error
		name  string
		want  nrf24.Mode
		ce    bool
	}{
		{name: "RX", enter: (*nrf24.Device).EnterRX, want: nrf24.ModeRX, ce: true},
		{name: "TX", enter: (*nrf24.Device).EnterTX, want: nrf24.ModeTX, ce: true},
		{name: "Standby", enter: (*nrf24.Device).EnterStandby, want: nrf24.ModeStandby},
		{name: "Shutdown", enter: (*nrf24.Device).EnterShutdown, want: nrf24.ModeShutDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sim := testutil.NewVirtualNRF24()
			device, err := nrf24.New(sim, sim)
			require.NoError(t, err)
			require.NoError(t, tt.enter(device))
			sim.SetFlags(testutil.StatusMaxRT)

			r := NewDefaultRecoverer(device, nil, RecoveryConfig{MaxAttempts: 1})
			require.NoError(t, r.AttemptRecovery(context.Background()))

			assert.Equal(t, tt.want, device.Mode())
			assert.Equal(t, tt.ce, sim.CE())
			assert.Zero(t, sim.Flags())
		})
	}
}

func TestDefaultRecoverer_AllAttemptsFail(t *testing.T) {
	t.Parallel()
	sim := testutil.NewVirtualNRF24()
	bus := testutil.NewNoisyBus(sim, testutil.NoiseConfig{FailEvery: 1, Seed: 7})
	device, err := nrf24.New(bus, sim)
	require.NoError(t, err)

	reopens := 0
	reopen := func() (*nrf24.Device, error) {
		reopens++
		return nil, testutil.ErrInjectedFault
	}
	r := NewDefaultRecoverer(device, reopen, RecoveryConfig{MaxAttempts: 2, Backoff: time.Millisecond})

	err = r.AttemptRecovery(context.Background())

	require.ErrorIs(t, err, testutil.ErrInjectedFault)
	assert.Contains(t, err.Error(), "recovery failed after 2 attempts")
	assert.Contains(t, err.Error(), "attempt 2: ")
	assert.Equal(t, 2, reopens)
	assert.Same(t, device, r.Device())
}

func TestDefaultRecoverer_ReopenRestoresMode(t *testing.T) {
	t.Parallel()
	deadSim := testutil.NewVirtualNRF24()
	// enough exchanges to enter RX, then the link dies
	bus := testutil.NewNoisyBus(deadSim, testutil.NoiseConfig{FailAfter: 2, Seed: 3})
	device, err := nrf24.New(bus, deadSim)
	require.NoError(t, err)
	require.NoError(t, device.EnterRX())

	freshSim := testutil.NewVirtualNRF24()
	reopen := func() (*nrf24.Device, error) {
		return nrf24.New(freshSim, freshSim)
	}
	r := NewDefaultRecoverer(device, reopen, RecoveryConfig{MaxAttempts: 1})

	require.NoError(t, r.AttemptRecovery(context.Background()))

	fresh := r.Device()
	assert.NotSame(t, device, fresh)
	assert.Equal(t, nrf24.ModeRX, fresh.Mode())
	assert.True(t, freshSim.CE())
	assert.False(t, deadSim.CE())
}

func TestDefaultRecoverer_ContextCancellation(t *testing.T) {
	t.Parallel()
	sim := testutil.NewVirtualNRF24()
	bus := testutil.NewNoisyBus(sim, testutil.NoiseConfig{FailEvery: 1, Seed: 7})
	device, err := nrf24.New(bus, sim)
	require.NoError(t, err)

	r := NewDefaultRecoverer(device, nil, RecoveryConfig{MaxAttempts: 5, Backoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = r.AttemptRecovery(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
