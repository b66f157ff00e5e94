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
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the address width used by the driver (SETUP_AW reset value).
const AddressLength = 5

// Address is a 40 bit pipe address in wire order: byte 0 is the least
// significant byte and is unique per pipe, bytes 1..4 are the 32 bit base.
type Address [AddressLength]byte

// NewAddress builds an address from a base and a unique byte.
func NewAddress(base uint32, unique byte) Address {
	var a Address
	a[0] = unique
	binary.LittleEndian.PutUint32(a[1:], base)
	return a
}

// ParseAddress parses ten hex digits, most significant byte first, as
// printed by Address.String. Colons are ignored.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("%w: %q has %d bytes, want %d", ErrInvalidAddress, s, len(raw), AddressLength)
	}
	for i, b := range raw {
		a[AddressLength-1-i] = b
	}
	return a, nil
}

// Base returns the upper 32 bits.
func (a Address) Base() uint32 {
	return binary.LittleEndian.Uint32(a[1:])
}

// Unique returns the least significant byte.
func (a Address) Unique() byte {
	return a[0]
}

// String prints the address most significant byte first.
func (a Address) String() string {
	var sb strings.Builder
	for i := AddressLength - 1; i >= 0; i-- {
		_, _ = fmt.Fprintf(&sb, "%02X", a[i])
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
