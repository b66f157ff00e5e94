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

package profile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/go-nrf24"
	testutil "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `{
	// sensor network on channel 76
	channel: 76,
	data_rate: "250kbps",
	power_dbm: -6,
	crc_bytes: 2,
	retry_count: 15,
	retry_delay: 5,
	tx_address: "A1B2C3D4E5",
	pipes: [
		{pipe: 0, address: "A1B2C3D4E5", listen: true},
		{pipe: 1, address: "0102030405", listen: true},
		{pipe: 2, address: "0x42", listen: true},
		{pipe: 3, listen: false},
	],
}`

func newSim(t *testing.T) (*nrf24.Device, *testutil.VirtualNRF24) {
	t.Helper()
	sim := testutil.NewVirtualNRF24()
	device, err := nrf24.New(sim, sim)
	require.NoError(t, err)
	return device, sim
}

func TestParse_JSON5(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(sampleProfile))

	require.NoError(t, err)
	require.NotNil(t, p.Channel)
	assert.Equal(t, uint8(76), *p.Channel)
	assert.Equal(t, "250kbps", p.DataRate)
	assert.Equal(t, -6, *p.PowerDBm)
	assert.Equal(t, 2, *p.CRCBytes)
	assert.Equal(t, uint8(15), *p.RetryCount)
	assert.Equal(t, uint8(5), *p.RetryDelay)
	require.Len(t, p.Pipes, 4)
	assert.Equal(t, Pipe{Pipe: 2, Address: "0x42", Listen: true}, p.Pipes[2])
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want  error
		name  string
		input string
	}{
		{name: "Syntax", input: `{channel: }`},
		{name: "DataRate", input: `{data_rate: "3Mbps"}`, want: nrf24.ErrInvalidDataRate},
		{name: "Power", input: `{power_dbm: 4}`, want: nrf24.ErrInvalidPower},
		{name: "CRC", input: `{crc_bytes: 3}`, want: nrf24.ErrInvalidCRCMode},
		{name: "TxAddress", input: `{tx_address: "A1B2"}`, want: nrf24.ErrInvalidAddress},
		{name: "PipeNumber", input: `{pipes: [{pipe: 6}]}`, want: nrf24.ErrInvalidPipe},
		{name: "DuplicatePipe", input: `{pipes: [{pipe: 1}, {pipe: 1}]}`, want: nrf24.ErrInvalidPipe},
		{name: "SharedPipeFullAddress", input: `{pipes: [{pipe: 4, address: "A1B2C3D4E5"}]}`, want: nrf24.ErrInvalidAddress},
		{name: "UniqueNotHex", input: `{pipes: [{pipe: 4, address: "ZZ"}]}`, want: nrf24.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	channel := uint8(200)
	power := 3
	p := &Profile{Channel: &channel, PowerDBm: &power, DataRate: "fast"}

	err := p.Validate()

	require.ErrorIs(t, err, nrf24.ErrInvalidPower)
	require.ErrorIs(t, err, nrf24.ErrInvalidDataRate)
	assert.Contains(t, err.Error(), "channel 200 above 127")
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "radio.json5")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4E5", p.TxAddress)

	_, err = Load(filepath.Join(dir, "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json5")
	require.NoError(t, os.WriteFile(bad, []byte(`{power_dbm: 1}`), 0o600))
	_, err = Load(bad)
	require.ErrorIs(t, err, nrf24.ErrInvalidPower)
	assert.Contains(t, err.Error(), bad)
}

//nolint:paralleltest // modifies the environment
func TestFind_EnvironmentFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	t.Setenv(EnvVar, path)

	assert.Equal(t, path, SearchPaths()[0])
	found, err := Find()
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

//nolint:paralleltest // modifies the environment
func TestSearchPaths_WithoutEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "")

	paths := SearchPaths()

	assert.Equal(t, "nrf24.json5", paths[0])
	assert.Equal(t, "/etc/nrf24/profile.json5", paths[len(paths)-1])
}

func TestApply(t *testing.T) {
	t.Parallel()
	device, sim := newSim(t)
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)

	require.NoError(t, p.Apply(device))

	assert.Equal(t, []byte{76}, sim.Register(testutil.RegRFChannel))
	// RF_DR_LOW set, RF_DR_HIGH clear, RF_PWR=2
	assert.Equal(t, byte(0x24), sim.Register(testutil.RegRFSetup)[0]&0x2E)
	assert.Equal(t, byte(0x0C), sim.Register(testutil.RegConfig)[0]&0x0C)
	assert.Equal(t, []byte{0x5F}, sim.Register(testutil.RegSetupRetr))
	assert.Equal(t, []byte{0xE5, 0xD4, 0xC3, 0xB2, 0xA1}, sim.Register(testutil.RegTxAddr))
	assert.Equal(t, []byte{0xE5, 0xD4, 0xC3, 0xB2, 0xA1}, sim.Register(testutil.RegRxAddrP0))
	assert.Equal(t, []byte{0x05, 0x04, 0x03, 0x02, 0x01}, sim.Register(testutil.RegRxAddrP1))
	assert.Equal(t, []byte{0x42}, sim.Register(testutil.RegRxAddrP1+1))
	assert.Equal(t, []byte{0x07}, sim.Register(testutil.RegEnRxAddr))
	assert.Equal(t, []byte{0x07}, sim.Register(testutil.RegDynPD))
	assert.Equal(t, []byte{0x37}, sim.Register(testutil.RegEnAA))
}

func TestApply_InvalidTouchesNothing(t *testing.T) {
	t.Parallel()
	device, sim := newSim(t)
	power := 7

	err := (&Profile{PowerDBm: &power}).Apply(device)

	require.ErrorIs(t, err, nrf24.ErrInvalidPower)
	assert.Empty(t, sim.Log())
}

func TestApply_BusFailure(t *testing.T) {
	t.Parallel()
	device, sim := newSim(t)
	channel := uint8(10)
	boom := errors.New("spi down")
	sim.FailNextExchange(boom)

	err := (&Profile{Channel: &channel}).Apply(device)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to set channel")
}

func TestCapture_Defaults(t *testing.T) {
	t.Parallel()
	device, _ := newSim(t)

	p, err := Capture(device)

	require.NoError(t, err)
	assert.Equal(t, uint8(2), *p.Channel)
	assert.Equal(t, "2Mbps", p.DataRate)
	assert.Equal(t, 0, *p.PowerDBm)
	assert.Equal(t, 1, *p.CRCBytes)
	assert.Equal(t, uint8(3), *p.RetryCount)
	assert.Equal(t, uint8(0), *p.RetryDelay)
	assert.Equal(t, "E7E7E7E7E7", p.TxAddress)
	assert.Equal(t, []Pipe{
		{Pipe: 0, Address: "E7E7E7E7E7", Listen: true},
		{Pipe: 1, Address: "C2C2C2C2C2", Listen: true},
		{Pipe: 2, Address: "C3"},
		{Pipe: 3, Address: "C4"},
		{Pipe: 4, Address: "C5"},
		{Pipe: 5, Address: "C6"},
	}, p.Pipes)
}

func TestCapture_AppliesToAnotherRadio(t *testing.T) {
	t.Parallel()
	src, srcSim := newSim(t)
	p, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)
	require.NoError(t, p.Apply(src))

	captured, err := Capture(src)
	require.NoError(t, err)
	data, err := json.Marshal(captured)
	require.NoError(t, err)
	reloaded, err := Parse(data)
	require.NoError(t, err)

	dst, dstSim := newSim(t)
	require.NoError(t, reloaded.Apply(dst))

	for _, reg := range []byte{
		testutil.RegRFChannel, testutil.RegRFSetup, testutil.RegConfig, testutil.RegSetupRetr,
		testutil.RegTxAddr, testutil.RegRxAddrP0, testutil.RegRxAddrP1, testutil.RegRxAddrP1 + 1,
		testutil.RegEnRxAddr,
	} {
		assert.Equal(t, srcSim.Register(reg), dstSim.Register(reg), "register 0x%02X", reg)
	}
}
