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

import "fmt"

const (
	// MaxPayloadSize is the largest payload the chip's FIFOs can hold.
	MaxPayloadSize = 32
	// NumPipes is the number of RX data pipes.
	NumPipes = 6
)

// Datagram is one payload moving between the application and the radio.
// On receive Pipe is the data pipe it arrived on; on transmit it is
// ignored by the chip.
type Datagram struct {
	Pipe   uint8
	Length uint8
	Bytes  [MaxPayloadSize]byte
}

// NewDatagram copies payload into a datagram for pipe.
func NewDatagram(pipe uint8, payload []byte) (Datagram, error) {
	var dg Datagram
	if err := checkPipe(pipe); err != nil {
		return dg, err
	}
	if err := checkPayload(payload); err != nil {
		return dg, err
	}
	dg.Pipe = pipe
	dg.Length = uint8(copy(dg.Bytes[:], payload))
	return dg, nil
}

// Payload returns the used part of the buffer. It is taken from a copy of
// the datagram, so writing to it does not change dg.
func (dg Datagram) Payload() []byte {
	n := int(dg.Length)
	if n > MaxPayloadSize {
		n = MaxPayloadSize
	}
	return dg.Bytes[:n]
}

func (dg Datagram) String() string {
	return fmt.Sprintf("pipe %d, %d bytes: %s", dg.Pipe, dg.Length, hexBytes(dg.Payload()))
}
