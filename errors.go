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
)

// Error categories
var (
	// Bus errors
	ErrBusFailure    = errors.New("bus exchange failed")
	ErrBusClosed     = errors.New("bus is closed")
	ErrChipEnable    = errors.New("chip enable line failed")
	ErrNilBus        = errors.New("bus is nil")
	ErrNilChipEnable = errors.New("chip enable is nil")
	ErrChipNotFound  = errors.New("no nRF24L01 responding")

	// Parameter errors
	ErrInvalidPipe     = errors.New("invalid pipe number")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidCRCMode  = errors.New("invalid CRC mode")
	ErrInvalidDataRate = errors.New("invalid data rate")
	ErrInvalidPower    = errors.New("invalid output power")
	ErrPayloadTooLarge = errors.New("payload too large")

	// Queue errors
	ErrQueueFull = errors.New("software TX queue full")
)

// BusError wraps a failed bus exchange with the command that was running.
type BusError struct {
	Err    error  // Underlying error
	Op     string // Command mnemonic
	Port   string // Bus identifier, if known
	Opcode byte
}

func (e *BusError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s (0x%02X) %s: %v", e.Op, e.Opcode, e.Port, e.Err)
	}
	return fmt.Sprintf("%s (0x%02X): %v", e.Op, e.Opcode, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBusFailure) match any BusError.
func (*BusError) Is(target error) bool {
	return target == ErrBusFailure
}

// NewBusError creates a bus error for the given opcode.
func NewBusError(opcode byte, port string, err error) *BusError {
	return &BusError{
		Op:     commandName(opcode),
		Opcode: opcode,
		Port:   port,
		Err:    err,
	}
}
