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

// transmit runs one command transaction: the opcode followed by n data
// bytes. When tx is nil the data bytes are filled with dummyByte. The
// first byte clocked back is the STATUS register, which is cached on the
// device and returned with the n reply bytes.
func (d *Device) transmit(opcode byte, tx []byte, n int) ([]byte, Status, error) {
	buf := make([]byte, n+1)
	buf[0] = opcode
	if tx != nil {
		copy(buf[1:], tx)
	} else {
		for i := 1; i < len(buf); i++ {
			buf[i] = dummyByte
		}
	}

	if err := d.bus.Exchange(buf); err != nil {
		return nil, d.status, NewBusError(opcode, "", err)
	}

	d.status = Status(buf[0])
	return buf[1:], d.status, nil
}

// command runs a transaction that carries no data bytes.
func (d *Device) command(opcode byte) (Status, error) {
	_, status, err := d.transmit(opcode, nil, 0)
	return status, err
}

// write runs a transaction that only sends data; reply bytes are dropped.
func (d *Device) write(opcode byte, data []byte) (Status, error) {
	_, status, err := d.transmit(opcode, data, len(data))
	return status, err
}

// ReadRegister invokes R_REGISTER and returns n bytes of reg, least
// significant byte first.
func (d *Device) ReadRegister(reg Register, n int) ([]byte, Status, error) {
	if n < 0 {
		n = 0
	}
	return d.transmit(registerCommand(cmdReadRegister, reg), nil, n)
}

// WriteRegister invokes W_REGISTER with data, least significant byte first.
func (d *Device) WriteRegister(reg Register, data ...byte) (Status, error) {
	return d.write(registerCommand(cmdWriteRegister, reg), data)
}

// ReadPayload invokes R_RX_PAYLOAD and returns n bytes from the head of the
// RX FIFO.
func (d *Device) ReadPayload(n int) ([]byte, Status, error) {
	if n > MaxPayloadSize {
		return nil, d.status, fmt.Errorf("%w: read of %d bytes", ErrPayloadTooLarge, n)
	}
	if n < 0 {
		n = 0
	}
	return d.transmit(cmdReadRxPayload, nil, n)
}

// WritePayload invokes W_TX_PAYLOAD.
func (d *Device) WritePayload(data []byte) (Status, error) {
	if err := checkPayload(data); err != nil {
		return d.status, err
	}
	return d.write(cmdWriteTxPayload, data)
}

// FlushRX invokes FLUSH_RX.
func (d *Device) FlushRX() (Status, error) {
	return d.command(cmdFlushRx)
}

// FlushTX invokes FLUSH_TX.
func (d *Device) FlushTX() (Status, error) {
	return d.command(cmdFlushTx)
}

// ReuseTxPayload invokes REUSE_TX_PL. The last transmitted payload is sent
// again for as long as CE is high.
func (d *Device) ReuseTxPayload() (Status, error) {
	return d.command(cmdReuseTxPayload)
}

// ReadPayloadWidth invokes R_RX_PL_WID and returns the width of the payload
// at the head of the RX FIFO.
func (d *Device) ReadPayloadWidth() (int, Status, error) {
	data, status, err := d.transmit(cmdReadRxPayloadWid, nil, 1)
	if err != nil {
		return 0, status, err
	}
	return int(data[0]), status, nil
}

// WriteAckPayload invokes W_ACK_PAYLOAD for pipe. The payload is sent back
// with the next acknowledgment on that pipe.
func (d *Device) WriteAckPayload(pipe uint8, data []byte) (Status, error) {
	if err := checkPipe(pipe); err != nil {
		return d.status, err
	}
	if err := checkPayload(data); err != nil {
		return d.status, err
	}
	return d.write(pipeCommand(cmdWriteAckPayload, pipe), data)
}

// WriteNoAckPayload invokes W_TX_PAYLOAD_NOACK.
func (d *Device) WriteNoAckPayload(data []byte) (Status, error) {
	if err := checkPayload(data); err != nil {
		return d.status, err
	}
	return d.write(cmdWriteNoAckTx, data)
}

// NOP invokes NOP, which only returns STATUS.
func (d *Device) NOP() (Status, error) {
	return d.command(cmdNOP)
}

// readByte reads a single byte register.
func (d *Device) readByte(reg Register) (byte, error) {
	data, _, err := d.ReadRegister(reg, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// writeByte writes a single byte register.
func (d *Device) writeByte(reg Register, v byte) error {
	_, err := d.WriteRegister(reg, v)
	return err
}

// updateByte applies fn to the current value of reg and writes it back.
func (d *Device) updateByte(reg Register, fn func(byte) byte) error {
	v, err := d.readByte(reg)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", reg, err)
	}
	if err := d.writeByte(reg, fn(v)); err != nil {
		return fmt.Errorf("failed to write %s: %w", reg, err)
	}
	return nil
}

func checkPipe(pipe uint8) error {
	if pipe >= NumPipes {
		return fmt.Errorf("%w: %d", ErrInvalidPipe, pipe)
	}
	return nil
}

func checkPayload(data []byte) error {
	if len(data) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	return nil
}
