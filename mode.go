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
	"errors"
	"fmt"
	"time"
)

// Mode is the operating state of the transceiver
type Mode int

const (
	// ModeShutDown is power down: CE low, PWR_UP clear
	ModeShutDown Mode = iota
	// ModeStandby is standby-I: CE low, PWR_UP set
	ModeStandby
	// ModeRX is primary receiver: CE high, PWR_UP and PRIM_RX set
	ModeRX
	// ModeTX is primary transmitter: CE high, PWR_UP set, PRIM_RX clear
	ModeTX
)

func (m Mode) String() string {
	switch m {
	case ModeShutDown:
		return "shutdown"
	case ModeStandby:
		return "standby"
	case ModeRX:
		return "rx"
	case ModeTX:
		return "tx"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Mode returns the mode entered by the last successful transition.
func (d *Device) Mode() Mode {
	return d.mode
}

func (d *Device) setCE(high bool) error {
	var err error
	if high {
		err = d.ce.Assert()
	} else {
		err = d.ce.Deassert()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChipEnable, err)
	}
	return nil
}

// EnterShutdown drops CE and then clears PWR_UP.
func (d *Device) EnterShutdown() error {
	return d.enterIdle(ModeShutDown, false)
}

// EnterStandby drops CE and then sets PWR_UP, leaving PRIM_RX as it is.
func (d *Device) EnterStandby() error {
	return d.enterIdle(ModeStandby, true)
}

// enterIdle drops CE and then writes PWR_UP. If the CONFIG write fails
// after CE went low, an RX or TX radio has fallen back to standby and the
// tracked mode follows it.
func (d *Device) enterIdle(mode Mode, pwrUp bool) error {
	if err := d.setCE(false); err != nil {
		return err
	}
	err := d.updateByte(RegConfig, func(v byte) byte {
		return configPwrUp.assign(v, pwrUp)
	})
	if err != nil {
		if d.mode == ModeRX || d.mode == ModeTX {
			d.mode = ModeStandby
		}
		return fmt.Errorf("failed to enter %s: %w", mode, err)
	}
	d.mode = mode
	Debugf("mode: %s", mode)
	return nil
}

// EnterRX sets PWR_UP and PRIM_RX, raises CE and waits for the receiver
// to settle.
func (d *Device) EnterRX() error {
	return d.enterActive(ModeRX, true, d.config.RxSettling)
}

// EnterTX sets PWR_UP, clears PRIM_RX, raises CE and waits for the
// transmitter to settle.
func (d *Device) EnterTX() error {
	return d.enterActive(ModeTX, false, d.config.TxSettling)
}

// enterActive writes CONFIG and then raises CE. When CE cannot be raised
// the previous CONFIG is written back, so the chip never sits powered up
// in a mode Mode does not report.
func (d *Device) enterActive(mode Mode, primRx bool, settle time.Duration) error {
	prev, err := d.readByte(RegConfig)
	if err != nil {
		return fmt.Errorf("failed to enter %s mode: failed to read %s: %w", mode, RegConfig, err)
	}
	next := configPrimRx.assign(configPwrUp.assign(prev, true), primRx)
	if err := d.writeByte(RegConfig, next); err != nil {
		return fmt.Errorf("failed to enter %s mode: failed to write %s: %w", mode, RegConfig, err)
	}

	if err := d.setCE(true); err != nil {
		if rerr := d.writeByte(RegConfig, prev); rerr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore %s: %w", RegConfig, rerr))
		}
		return err
	}

	d.config.Delay(settle)
	d.mode = mode
	Debugf("mode: %s", mode)
	return nil
}

// ClearInterrupts writes flags back to STATUS. The interrupt bits are
// write-one-to-clear, so only the bits set in flags are affected.
func (d *Device) ClearInterrupts(flags Status) (Status, error) {
	return d.WriteRegister(RegStatus, byte(flags&StatusInterrupts))
}

// ConfigRegister reads CONFIG.
func (d *Device) ConfigRegister() (Config, error) {
	v, err := d.readByte(RegConfig)
	return Config(v), err
}
