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
	"encoding/binary"
	"fmt"
)

// StartListening enables dynamic payload length, auto acknowledgment and
// the RX address of pipe, in that order.
func (d *Device) StartListening(pipe uint8) error {
	return d.setListening(pipe, true)
}

// StopListening disables the same three pipe features in the same order.
func (d *Device) StopListening(pipe uint8) error {
	return d.setListening(pipe, false)
}

func (d *Device) setListening(pipe uint8, enable bool) error {
	if err := d.EnableDynamicPayloadLength(pipe, enable); err != nil {
		return err
	}
	if err := d.EnableAutoAck(pipe, enable); err != nil {
		return err
	}
	if err := d.EnableDataPipe(pipe, enable); err != nil {
		return err
	}
	Debugf("pipe %d listening=%v", pipe, enable)
	return nil
}

// EnableDynamicPayloadLength sets or clears the pipe's DYNPD bit.
func (d *Device) EnableDynamicPayloadLength(pipe uint8, enable bool) error {
	return d.setPipeBit(RegDynPD, pipe, enable)
}

// EnableAutoAck sets or clears the pipe's EN_AA bit.
func (d *Device) EnableAutoAck(pipe uint8, enable bool) error {
	return d.setPipeBit(RegEnAA, pipe, enable)
}

// EnableDataPipe sets or clears the pipe's EN_RXADDR bit.
func (d *Device) EnableDataPipe(pipe uint8, enable bool) error {
	return d.setPipeBit(RegEnRxAddr, pipe, enable)
}

// DynamicPayloadPipes reads DYNPD.
func (d *Device) DynamicPayloadPipes() (Pipes, error) {
	v, err := d.readByte(RegDynPD)
	return Pipes(v), err
}

// AutoAckPipes reads EN_AA.
func (d *Device) AutoAckPipes() (Pipes, error) {
	v, err := d.readByte(RegEnAA)
	return Pipes(v), err
}

// EnabledPipes reads EN_RXADDR.
func (d *Device) EnabledPipes() (Pipes, error) {
	v, err := d.readByte(RegEnRxAddr)
	return Pipes(v), err
}

func (d *Device) setPipeBit(reg Register, pipe uint8, enable bool) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	return d.updateByte(reg, func(v byte) byte {
		return bit(pipe).assign(v, enable)
	})
}

func (d *Device) readAddress(reg Register) (Address, error) {
	var a Address
	data, _, err := d.ReadRegister(reg, AddressLength)
	if err != nil {
		return a, fmt.Errorf("failed to read %s: %w", reg, err)
	}
	copy(a[:], data)
	return a, nil
}

func (d *Device) writeAddress(reg Register, a Address) error {
	if _, err := d.WriteRegister(reg, a[:]...); err != nil {
		return fmt.Errorf("failed to write %s: %w", reg, err)
	}
	return nil
}

// replaceBase rewrites bytes 1..4 of a 5 byte address register, keeping
// the unique byte.
func (d *Device) replaceBase(reg Register, base uint32) error {
	a, err := d.readAddress(reg)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a[1:], base)
	return d.writeAddress(reg, a)
}

// baseRegister returns the register holding the base for pipe: pipe 0 has
// its own, every other pipe shares the one of pipe 1.
func baseRegister(pipe uint8) Register {
	if pipe == 0 {
		return RegRxAddrP0
	}
	return RegRxAddrP1
}

// RxBaseAddress returns the 32 bit base address used by pipe.
func (d *Device) RxBaseAddress(pipe uint8) (uint32, error) {
	if err := checkPipe(pipe); err != nil {
		return 0, err
	}
	a, err := d.readAddress(baseRegister(pipe))
	if err != nil {
		return 0, err
	}
	return a.Base(), nil
}

// SetRxBaseAddress writes the base address used by pipe. For pipes 1..5
// this is the shared pipe 1 base.
func (d *Device) SetRxBaseAddress(pipe uint8, base uint32) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	return d.replaceBase(baseRegister(pipe), base)
}

// RxAddress returns the unique least significant address byte of pipe.
func (d *Device) RxAddress(pipe uint8) (byte, error) {
	if err := checkPipe(pipe); err != nil {
		return 0, err
	}
	return d.readByte(rxAddrRegister(pipe))
}

// SetRxAddress writes the unique least significant address byte of pipe.
func (d *Device) SetRxAddress(pipe uint8, unique byte) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	return d.writeByte(rxAddrRegister(pipe), unique)
}

// RxFullAddress returns the 40 bit address of pipe. For pipes 2..5 it is
// the pipe 1 base combined with the pipe's own byte.
func (d *Device) RxFullAddress(pipe uint8) (Address, error) {
	if err := checkPipe(pipe); err != nil {
		return Address{}, err
	}
	if pipe <= 1 {
		return d.readAddress(rxAddrRegister(pipe))
	}
	base, err := d.RxBaseAddress(pipe)
	if err != nil {
		return Address{}, err
	}
	unique, err := d.RxAddress(pipe)
	if err != nil {
		return Address{}, err
	}
	return NewAddress(base, unique), nil
}

// SetRxFullAddress writes all 40 bits of the address of pipe 0 or 1 in a
// single transaction. Pipes 2..5 only own their unique byte; use
// SetRxAddress for them.
func (d *Device) SetRxFullAddress(pipe uint8, a Address) error {
	if pipe > 1 {
		return fmt.Errorf("%w: pipe %d shares the pipe 1 base", ErrInvalidPipe, pipe)
	}
	return d.writeAddress(rxAddrRegister(pipe), a)
}

// TxBaseAddress returns the 32 bit base of TX_ADDR.
func (d *Device) TxBaseAddress() (uint32, error) {
	a, err := d.readAddress(RegTxAddr)
	if err != nil {
		return 0, err
	}
	return a.Base(), nil
}

// SetTxBaseAddress writes the 32 bit base of TX_ADDR, keeping its unique byte.
func (d *Device) SetTxBaseAddress(base uint32) error {
	return d.replaceBase(RegTxAddr, base)
}

// TxAddress returns the least significant byte of TX_ADDR.
func (d *Device) TxAddress() (byte, error) {
	return d.readByte(RegTxAddr)
}

// SetTxAddress writes the least significant byte of TX_ADDR.
func (d *Device) SetTxAddress(unique byte) error {
	return d.writeByte(RegTxAddr, unique)
}

// TxFullAddress returns all 40 bits of TX_ADDR.
func (d *Device) TxFullAddress() (Address, error) {
	return d.readAddress(RegTxAddr)
}

// SetTxFullAddress writes all 40 bits of TX_ADDR in a single transaction.
func (d *Device) SetTxFullAddress(a Address) error {
	return d.writeAddress(RegTxAddr, a)
}
