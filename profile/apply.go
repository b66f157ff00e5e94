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
	"fmt"

	"github.com/ZaparooProject/go-nrf24"
)

// Apply writes every set field of p to d. Pipe addresses are written
// before listening is changed so a pipe never opens on a stale address.
//
//nolint:gocyclo,cyclop // one block per setting
func (p *Profile) Apply(d *nrf24.Device) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.Channel != nil {
		if err := d.SetChannel(*p.Channel); err != nil {
			return fmt.Errorf("failed to set channel: %w", err)
		}
	}
	if p.DataRate != "" {
		rate, _ := ParseDataRate(p.DataRate)
		if err := d.SetDataRate(rate); err != nil {
			return fmt.Errorf("failed to set data rate: %w", err)
		}
	}
	if p.PowerDBm != nil {
		power, _ := PowerFromDBm(*p.PowerDBm)
		if err := d.SetOutputPower(power); err != nil {
			return fmt.Errorf("failed to set output power: %w", err)
		}
	}
	if p.CRCBytes != nil {
		crc, _ := CRCFromBytes(*p.CRCBytes)
		if err := d.SetCRCMode(crc); err != nil {
			return fmt.Errorf("failed to set CRC: %w", err)
		}
	}
	if p.RetryCount != nil {
		if err := d.SetRetryCount(*p.RetryCount); err != nil {
			return fmt.Errorf("failed to set retry count: %w", err)
		}
	}
	if p.RetryDelay != nil {
		if err := d.SetRetryDelay(*p.RetryDelay); err != nil {
			return fmt.Errorf("failed to set retry delay: %w", err)
		}
	}
	if p.TxAddress != "" {
		a, _ := nrf24.ParseAddress(p.TxAddress)
		if err := d.SetTxFullAddress(a); err != nil {
			return fmt.Errorf("failed to set TX address: %w", err)
		}
	}

	for _, pipe := range p.Pipes {
		if err := applyPipe(d, pipe); err != nil {
			return fmt.Errorf("pipe %d: %w", pipe.Pipe, err)
		}
	}

	nrf24.Debugf("applied profile with %d pipes", len(p.Pipes))
	return nil
}

func applyPipe(d *nrf24.Device, pipe Pipe) error {
	if pipe.Address != "" {
		var err error
		if pipe.Pipe <= 1 {
			a, _ := nrf24.ParseAddress(pipe.Address)
			err = d.SetRxFullAddress(pipe.Pipe, a)
		} else {
			unique, _ := parseUnique(pipe.Address)
			err = d.SetRxAddress(pipe.Pipe, unique)
		}
		if err != nil {
			return err
		}
	}
	if pipe.Listen {
		return d.StartListening(pipe.Pipe)
	}
	return d.StopListening(pipe.Pipe)
}

// Capture reads the device's current settings into a profile. Every pipe
// is listed; Listen reflects EN_RXADDR.
func Capture(d *nrf24.Device) (*Profile, error) {
	var p Profile

	channel, err := d.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to read channel: %w", err)
	}
	p.Channel = &channel

	rate, err := d.DataRate()
	if err != nil {
		return nil, fmt.Errorf("failed to read data rate: %w", err)
	}
	p.DataRate = rate.String()

	power, err := d.OutputPower()
	if err != nil {
		return nil, fmt.Errorf("failed to read output power: %w", err)
	}
	dbm := power.DBm()
	p.PowerDBm = &dbm

	crc, err := d.CRCMode()
	if err != nil {
		return nil, fmt.Errorf("failed to read CRC: %w", err)
	}
	crcBytes := int(crc)
	p.CRCBytes = &crcBytes

	count, err := d.RetryCount()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry count: %w", err)
	}
	p.RetryCount = &count

	delay, err := d.RetryDelay()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry delay: %w", err)
	}
	p.RetryDelay = &delay

	tx, err := d.TxFullAddress()
	if err != nil {
		return nil, err
	}
	p.TxAddress = tx.String()

	enabled, err := d.EnabledPipes()
	if err != nil {
		return nil, fmt.Errorf("failed to read enabled pipes: %w", err)
	}

	for pipe := uint8(0); pipe < nrf24.NumPipes; pipe++ {
		entry := Pipe{Pipe: pipe, Listen: enabled.Has(pipe)}
		if pipe <= 1 {
			a, err := d.RxFullAddress(pipe)
			if err != nil {
				return nil, err
			}
			entry.Address = a.String()
		} else {
			unique, err := d.RxAddress(pipe)
			if err != nil {
				return nil, err
			}
			entry.Address = fmt.Sprintf("%02X", unique)
		}
		p.Pipes = append(p.Pipes, entry)
	}

	return &p, nil
}
