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

// SPI command words (nRF24L01+ Product Specification, Table 20)
const (
	cmdReadRegister     = 0x00 // R_REGISTER, OR'd with a 5 bit register address
	cmdWriteRegister    = 0x20 // W_REGISTER, OR'd with a 5 bit register address
	cmdReadRxPayload    = 0x61 // R_RX_PAYLOAD
	cmdWriteTxPayload   = 0xA0 // W_TX_PAYLOAD
	cmdFlushTx          = 0xE1 // FLUSH_TX
	cmdFlushRx          = 0xE2 // FLUSH_RX
	cmdReuseTxPayload   = 0xE3 // REUSE_TX_PL
	cmdReadRxPayloadWid = 0x60 // R_RX_PL_WID
	cmdWriteAckPayload  = 0xA8 // W_ACK_PAYLOAD, OR'd with a 3 bit pipe number
	cmdWriteNoAckTx     = 0xB0 // W_TX_PAYLOAD_NOACK
	cmdNOP              = 0xFF // NOP
)

const (
	registerAddressMask = 0x1F
	pipeNumberMask      = 0x07

	// dummyByte is clocked out for every byte the host only wants to read.
	dummyByte = 0xFF
)

// registerCommand builds the opcode for a register read or write.
func registerCommand(base byte, reg Register) byte {
	return base | (byte(reg) & registerAddressMask)
}

// pipeCommand builds the opcode for a per-pipe command.
func pipeCommand(base byte, pipe uint8) byte {
	return base | (pipe & pipeNumberMask)
}

// commandName returns the datasheet mnemonic for an opcode, used in
// debug output and error context.
func commandName(opcode byte) string {
	switch {
	case opcode == cmdNOP:
		return "NOP"
	case opcode == cmdReadRxPayload:
		return "R_RX_PAYLOAD"
	case opcode == cmdReadRxPayloadWid:
		return "R_RX_PL_WID"
	case opcode == cmdWriteTxPayload:
		return "W_TX_PAYLOAD"
	case opcode == cmdWriteNoAckTx:
		return "W_TX_PAYLOAD_NOACK"
	case opcode == cmdFlushTx:
		return "FLUSH_TX"
	case opcode == cmdFlushRx:
		return "FLUSH_RX"
	case opcode == cmdReuseTxPayload:
		return "REUSE_TX_PL"
	case opcode&^pipeNumberMask == cmdWriteAckPayload:
		return "W_ACK_PAYLOAD"
	case opcode&^registerAddressMask == cmdWriteRegister:
		return "W_REGISTER"
	case opcode&^registerAddressMask == cmdReadRegister:
		return "R_REGISTER"
	default:
		return "UNKNOWN"
	}
}
