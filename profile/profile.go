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

// Package profile loads radio settings from JSON5 files and applies them
// to a device, or captures a device's current settings as a profile.
package profile

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/flynn/json5"
)

// EnvVar names the environment variable checked first by Find.
const EnvVar = "NRF24_PROFILE"

// ErrNotFound is returned by Find when no profile file exists.
var ErrNotFound = errors.New("no radio profile found")

// Pipe describes one RX pipe. Address is ten hex digits for pipes 0 and 1
// and a single byte (two hex digits) for pipes 2..5, which share the pipe 1
// base.
type Pipe struct {
	Address string `json:"address,omitempty"`
	Pipe    uint8  `json:"pipe"`
	Listen  bool   `json:"listen"`
}

// Profile is a set of radio settings. Unset fields leave the device as it is.
type Profile struct {
	Channel    *uint8 `json:"channel,omitempty"`
	PowerDBm   *int   `json:"power_dbm,omitempty"`
	CRCBytes   *int   `json:"crc_bytes,omitempty"`
	RetryCount *uint8 `json:"retry_count,omitempty"`
	RetryDelay *uint8 `json:"retry_delay,omitempty"`
	DataRate   string `json:"data_rate,omitempty"`
	TxAddress  string `json:"tx_address,omitempty"`
	Pipes      []Pipe `json:"pipes,omitempty"`
}

// Parse decodes a JSON5 profile and validates it.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := json5.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses the profile at path.
func Load(path string) (*Profile, error) {
	// #nosec G304 -- path comes from the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SearchPaths returns the locations Find checks, in order.
func SearchPaths() []string {
	var paths []string
	if env := os.Getenv(EnvVar); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths, "nrf24.json5", ".nrf24.json5")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nrf24", "profile.json5"))
	}
	return append(paths, "/etc/nrf24/profile.json5")
}

// Find returns the first existing path from SearchPaths.
func Find() (string, error) {
	for _, path := range SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Validate checks every set field without touching hardware.
func (p *Profile) Validate() error {
	var errs []error
	if p.Channel != nil && *p.Channel > nrf24.MaxChannel {
		errs = append(errs, fmt.Errorf("channel %d above %d", *p.Channel, nrf24.MaxChannel))
	}
	if p.DataRate != "" {
		if _, err := ParseDataRate(p.DataRate); err != nil {
			errs = append(errs, err)
		}
	}
	if p.PowerDBm != nil {
		if _, err := PowerFromDBm(*p.PowerDBm); err != nil {
			errs = append(errs, err)
		}
	}
	if p.CRCBytes != nil {
		if _, err := CRCFromBytes(*p.CRCBytes); err != nil {
			errs = append(errs, err)
		}
	}
	if p.TxAddress != "" {
		if _, err := nrf24.ParseAddress(p.TxAddress); err != nil {
			errs = append(errs, fmt.Errorf("tx_address: %w", err))
		}
	}
	seen := make(map[uint8]bool)
	for _, pipe := range p.Pipes {
		if seen[pipe.Pipe] {
			errs = append(errs, fmt.Errorf("%w: pipe %d listed twice", nrf24.ErrInvalidPipe, pipe.Pipe))
		}
		seen[pipe.Pipe] = true
		if err := pipe.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (pp Pipe) validate() error {
	if pp.Pipe >= nrf24.NumPipes {
		return fmt.Errorf("%w: %d", nrf24.ErrInvalidPipe, pp.Pipe)
	}
	if pp.Address == "" {
		return nil
	}
	if pp.Pipe <= 1 {
		if _, err := nrf24.ParseAddress(pp.Address); err != nil {
			return fmt.Errorf("pipe %d: %w", pp.Pipe, err)
		}
		return nil
	}
	if _, err := parseUnique(pp.Address); err != nil {
		return fmt.Errorf("pipe %d: %w", pp.Pipe, err)
	}
	return nil
}

func parseUnique(s string) (byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", nrf24.ErrInvalidAddress, s, err)
	}
	if len(raw) != 1 {
		return 0, fmt.Errorf("%w: %q is not a single byte", nrf24.ErrInvalidAddress, s)
	}
	return raw[0], nil
}

// ParseDataRate accepts "250kbps", "1Mbps" and "2Mbps", case-insensitively.
func ParseDataRate(s string) (nrf24.DataRate, error) {
	switch strings.ToLower(s) {
	case "250kbps":
		return nrf24.DataRate250Kbps, nil
	case "1mbps":
		return nrf24.DataRate1Mbps, nil
	case "2mbps":
		return nrf24.DataRate2Mbps, nil
	default:
		return 0, fmt.Errorf("%w: %q", nrf24.ErrInvalidDataRate, s)
	}
}

// PowerFromDBm maps -18, -12, -6 and 0 to the RF_PWR settings.
func PowerFromDBm(dbm int) (nrf24.OutputPower, error) {
	for _, p := range []nrf24.OutputPower{
		nrf24.PowerMinus18dBm, nrf24.PowerMinus12dBm, nrf24.PowerMinus6dBm, nrf24.Power0dBm,
	} {
		if p.DBm() == dbm {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %ddBm", nrf24.ErrInvalidPower, dbm)
}

// CRCFromBytes maps a CRC length of 0, 1 or 2 bytes to a CRC mode.
func CRCFromBytes(n int) (nrf24.CRCMode, error) {
	switch n {
	case 0:
		return nrf24.CRCDisabled, nil
	case 1:
		return nrf24.CRC1Byte, nil
	case 2:
		return nrf24.CRC2Byte, nil
	default:
		return 0, fmt.Errorf("%w: %d bytes", nrf24.ErrInvalidCRCMode, n)
	}
}
