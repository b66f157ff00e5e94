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

// Package testing provides a register-level nRF24L01 simulator and bus
// fault injection for driver tests.
//
// VirtualNRF24 answers SPI command transactions the way the chip does:
// STATUS is clocked out first on every exchange, registers keep their
// datasheet widths, and the RX and TX FIFOs are three levels deep. It
// implements the driver's Bus and ChipEnable interfaces structurally so
// this package does not import the driver.
package testing

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
)

// Command opcodes (datasheet table 16)
const (
	OpReadRegister     = 0x00
	OpWriteRegister    = 0x20
	OpReadRxPayloadWid = 0x60
	OpReadRxPayload    = 0x61
	OpWriteTxPayload   = 0xA0
	OpWriteAckPayload  = 0xA8
	OpWriteTxNoAck     = 0xB0
	OpFlushTx          = 0xE1
	OpFlushRx          = 0xE2
	OpReuseTxPayload   = 0xE3
	OpNOP              = 0xFF
)

// Register addresses used by the simulator
const (
	RegConfig     = 0x00
	RegEnAA       = 0x01
	RegEnRxAddr   = 0x02
	RegSetupAW    = 0x03
	RegSetupRetr  = 0x04
	RegRFChannel  = 0x05
	RegRFSetup    = 0x06
	RegStatus     = 0x07
	RegObserveTx  = 0x08
	RegRPD        = 0x09
	RegRxAddrP0   = 0x0A
	RegRxAddrP1   = 0x0B
	RegTxAddr     = 0x10
	RegRxPwP0     = 0x11
	RegFIFOStatus = 0x17
	RegDynPD      = 0x1C
	RegFeature    = 0x1D

	numRegisters = 0x20
)

// STATUS bits
const (
	StatusTxFull  = 0x01
	StatusMaxRT   = 0x10
	StatusTxDS    = 0x20
	StatusRxDR    = 0x40
	statusIRQMask = StatusMaxRT | StatusTxDS | StatusRxDR

	rxPipeEmpty = 0x07
)

// FIFODepth is the number of levels in each hardware FIFO.
const FIFODepth = 3

const maxPayload = 32

// ErrFIFOFull is returned by InjectRX when the RX FIFO already holds three
// payloads.
var ErrFIFOFull = errors.New("simulated FIFO full")

// Transaction is one recorded bus exchange.
type Transaction struct {
	MOSI []byte
	MISO []byte
}

// Opcode returns the command byte of the transaction.
func (t Transaction) Opcode() byte {
	if len(t.MOSI) == 0 {
		return 0
	}
	return t.MOSI[0]
}

type rxEntry struct {
	payload []byte
	pipe    byte
	width   int
}

type txEntry struct {
	payload []byte
	pipe    byte
	noAck   bool
	ack     bool
}

// VirtualNRF24 simulates an nRF24L01+ at the SPI command level.
type VirtualNRF24 struct {
	exchangeErr error
	ceErr       error
	regs        [numRegisters][]byte
	rxFIFO      []rxEntry
	txFIFO      []txEntry
	log         []Transaction
	ceHistory   []bool
	mu          syncutil.Mutex
	flags       byte
	ce          bool
	reuse       bool
	rpd         bool
}

// NewVirtualNRF24 returns a simulator holding the power-on reset values.
func NewVirtualNRF24() *VirtualNRF24 {
	v := &VirtualNRF24{}
	v.reset()
	return v
}

// Reset restores power-on register values, empties both FIFOs and clears
// the transaction log.
func (v *VirtualNRF24) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
}

func (v *VirtualNRF24) reset() {
	for i := range v.regs {
		v.regs[i] = []byte{0x00}
	}
	v.regs[RegConfig][0] = 0x08
	v.regs[RegEnAA][0] = 0x3F
	v.regs[RegEnRxAddr][0] = 0x03
	v.regs[RegSetupAW][0] = 0x03
	v.regs[RegSetupRetr][0] = 0x03
	v.regs[RegRFChannel][0] = 0x02
	v.regs[RegRFSetup][0] = 0x0E
	v.regs[RegRxAddrP0] = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	v.regs[RegRxAddrP1] = []byte{0xC2, 0xC2, 0xC2, 0xC2, 0xC2}
	v.regs[RegRxAddrP1+1][0] = 0xC3
	v.regs[RegRxAddrP1+2][0] = 0xC4
	v.regs[RegRxAddrP1+3][0] = 0xC5
	v.regs[RegRxAddrP1+4][0] = 0xC6
	v.regs[RegTxAddr] = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}

	v.rxFIFO = nil
	v.txFIFO = nil
	v.log = nil
	v.ceHistory = nil
	v.flags = 0
	v.ce = false
	v.reuse = false
	v.rpd = false
	v.exchangeErr = nil
	v.ceErr = nil
}

// Exchange performs one SPI transaction. buf[0] is the command byte; the
// reply overwrites buf, starting with STATUS.
func (v *VirtualNRF24) Exchange(buf []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.exchangeErr != nil {
		err := v.exchangeErr
		v.exchangeErr = nil
		return err
	}
	if len(buf) == 0 {
		return errors.New("empty SPI transaction")
	}

	mosi := append([]byte(nil), buf...)
	status := v.status()
	reply := make([]byte, len(buf))
	reply[0] = status

	v.execute(mosi, reply)

	copy(buf, reply)
	v.log = append(v.log, Transaction{MOSI: mosi, MISO: append([]byte(nil), reply...)})
	return nil
}

//nolint:gocyclo,cyclop // one case per opcode
func (v *VirtualNRF24) execute(mosi, reply []byte) {
	opcode := mosi[0]
	data := mosi[1:]
	out := reply[1:]

	switch {
	case opcode&0xE0 == OpReadRegister:
		copy(out, v.readRegister(opcode&0x1F))
	case opcode&0xE0 == OpWriteRegister:
		v.writeRegister(opcode&0x1F, data)
	case opcode == OpReadRxPayloadWid:
		if len(v.rxFIFO) > 0 && len(out) > 0 {
			out[0] = byte(v.rxFIFO[0].width)
		}
	case opcode == OpReadRxPayload:
		if len(v.rxFIFO) > 0 {
			copy(out, v.rxFIFO[0].payload)
			v.rxFIFO = v.rxFIFO[1:]
		}
	case opcode == OpWriteTxPayload:
		v.pushTX(txEntry{payload: data})
	case opcode == OpWriteTxNoAck:
		v.pushTX(txEntry{payload: data, noAck: true})
	case opcode&0xF8 == OpWriteAckPayload:
		v.pushTX(txEntry{payload: data, pipe: opcode & 0x07, ack: true})
	case opcode == OpFlushTx:
		v.txFIFO = nil
		v.reuse = false
	case opcode == OpFlushRx:
		v.rxFIFO = nil
	case opcode == OpReuseTxPayload:
		v.reuse = true
	case opcode == OpNOP:
	}
}

func (v *VirtualNRF24) pushTX(e txEntry) {
	if len(v.txFIFO) >= FIFODepth {
		return
	}
	if len(e.payload) > maxPayload {
		e.payload = e.payload[:maxPayload]
	}
	e.payload = append([]byte(nil), e.payload...)
	v.txFIFO = append(v.txFIFO, e)
}

func (v *VirtualNRF24) readRegister(reg byte) []byte {
	switch reg {
	case RegStatus:
		return []byte{v.status()}
	case RegFIFOStatus:
		return []byte{v.fifoStatus()}
	case RegRPD:
		if v.rpd {
			return []byte{0x01}
		}
		return []byte{0x00}
	default:
		return v.regs[reg]
	}
}

func (v *VirtualNRF24) writeRegister(reg byte, data []byte) {
	if len(data) == 0 {
		return
	}
	switch reg {
	case RegStatus:
		v.flags &^= data[0] & statusIRQMask
	case RegObserveTx, RegRPD, RegFIFOStatus:
		// read only
	case RegRFChannel:
		v.regs[reg][0] = data[0] & 0x7F
		v.regs[RegObserveTx][0] &= 0x0F
	default:
		copy(v.regs[reg], data)
	}
}

func (v *VirtualNRF24) status() byte {
	s := v.flags
	pipe := byte(rxPipeEmpty)
	if len(v.rxFIFO) > 0 {
		pipe = v.rxFIFO[0].pipe
	}
	s |= pipe << 1
	if len(v.txFIFO) >= FIFODepth {
		s |= StatusTxFull
	}
	return s
}

func (v *VirtualNRF24) fifoStatus() byte {
	var s byte
	switch len(v.rxFIFO) {
	case 0:
		s |= 0x01
	case FIFODepth:
		s |= 0x02
	}
	switch len(v.txFIFO) {
	case 0:
		s |= 0x10
	case FIFODepth:
		s |= 0x20
	}
	if v.reuse {
		s |= 0x40
	}
	return s
}

// Assert drives CE high.
func (v *VirtualNRF24) Assert() error {
	return v.setCE(true)
}

// Deassert drives CE low.
func (v *VirtualNRF24) Deassert() error {
	return v.setCE(false)
}

func (v *VirtualNRF24) setCE(high bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ceErr != nil {
		err := v.ceErr
		v.ceErr = nil
		return err
	}
	v.ce = high
	v.ceHistory = append(v.ceHistory, high)
	return nil
}

// CE reports the current chip-enable level.
func (v *VirtualNRF24) CE() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ce
}

// CEHistory returns every CE level driven since the last reset.
func (v *VirtualNRF24) CEHistory() []bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]bool(nil), v.ceHistory...)
}

// InjectRX places a received payload for pipe in the RX FIFO and raises RX_DR.
func (v *VirtualNRF24) InjectRX(pipe byte, payload []byte) error {
	if len(payload) > maxPayload {
		return fmt.Errorf("payload of %d bytes exceeds %d", len(payload), maxPayload)
	}
	return v.injectRX(rxEntry{pipe: pipe & 0x07, payload: append([]byte(nil), payload...), width: len(payload)})
}

// InjectCorruptRX places an entry whose reported width is width, which may
// exceed 32, and raises RX_DR.
func (v *VirtualNRF24) InjectCorruptRX(pipe byte, width int) error {
	return v.injectRX(rxEntry{pipe: pipe & 0x07, width: width})
}

func (v *VirtualNRF24) injectRX(e rxEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.rxFIFO) >= FIFODepth {
		return ErrFIFOFull
	}
	v.rxFIFO = append(v.rxFIFO, e)
	v.flags |= StatusRxDR
	return nil
}

// CompleteTX simulates an acknowledged transmission of the TX FIFO head:
// the payload leaves the FIFO, unless reuse is active, and TX_DS is raised.
// It returns the payload, or nil when the FIFO is empty.
func (v *VirtualNRF24) CompleteTX() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.txFIFO) == 0 {
		return nil
	}
	head := v.txFIFO[0]
	if !v.reuse {
		v.txFIFO = v.txFIFO[1:]
	}
	v.regs[RegObserveTx][0] &= 0xF0
	v.flags |= StatusTxDS
	return head.payload
}

// FailTX simulates exhausting the auto retransmissions of the TX FIFO head.
// The payload stays in the FIFO, MAX_RT is raised and both OBSERVE_TX
// counters are updated.
func (v *VirtualNRF24) FailTX() {
	v.mu.Lock()
	defer v.mu.Unlock()
	arc := v.regs[RegSetupRetr][0] & 0x0F
	plos := v.regs[RegObserveTx][0] >> 4
	if plos < 0x0F {
		plos++
	}
	v.regs[RegObserveTx][0] = plos<<4 | arc
	v.flags |= StatusMaxRT
}

// SetFlags raises the STATUS interrupt bits in flags.
func (v *VirtualNRF24) SetFlags(flags byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flags |= flags & statusIRQMask
}

// Flags returns the pending STATUS interrupt bits.
func (v *VirtualNRF24) Flags() byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flags
}

// SetRPD sets the received power detector bit.
func (v *VirtualNRF24) SetRPD(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rpd = on
}

// SetRegister overwrites a register without going through the bus.
func (v *VirtualNRF24) SetRegister(reg byte, data ...byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.regs[reg&0x1F], data)
}

// Register returns a copy of a register's stored value.
func (v *VirtualNRF24) Register(reg byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.readRegister(reg&0x1F)...)
}

// TxFIFO returns the payloads waiting in the TX FIFO, head first.
func (v *VirtualNRF24) TxFIFO() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.txFIFO))
	for i, e := range v.txFIFO {
		out[i] = append([]byte(nil), e.payload...)
	}
	return out
}

// TxNoAck reports whether the TX FIFO entry at i was written with
// W_TX_PAYLOAD_NOACK.
func (v *VirtualNRF24) TxNoAck(i int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return i < len(v.txFIFO) && v.txFIFO[i].noAck
}

// AckPayloadPipe returns the pipe of the TX FIFO entry at i and whether it
// was written as an ACK payload.
func (v *VirtualNRF24) AckPayloadPipe(i int) (byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i >= len(v.txFIFO) || !v.txFIFO[i].ack {
		return 0, false
	}
	return v.txFIFO[i].pipe, true
}

// RxFIFOLen returns the number of entries in the RX FIFO.
func (v *VirtualNRF24) RxFIFOLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.rxFIFO)
}

// Log returns the recorded transactions.
func (v *VirtualNRF24) Log() []Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Transaction(nil), v.log...)
}

// Opcodes returns the command byte of each recorded transaction.
func (v *VirtualNRF24) Opcodes() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]byte, len(v.log))
	for i, t := range v.log {
		out[i] = t.Opcode()
	}
	return out
}

// Count returns how many recorded transactions used opcode.
func (v *VirtualNRF24) Count(opcode byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.log {
		if t.Opcode() == opcode {
			n++
		}
	}
	return n
}

// Writes returns the data bytes of every W_REGISTER transaction to reg.
func (v *VirtualNRF24) Writes(reg byte) [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out [][]byte
	for _, t := range v.log {
		if t.Opcode() == OpWriteRegister|reg {
			out = append(out, append([]byte(nil), t.MOSI[1:]...))
		}
	}
	return out
}

// ClearLog drops the recorded transactions and CE history.
func (v *VirtualNRF24) ClearLog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log = nil
	v.ceHistory = nil
}

// FailNextExchange makes the next Exchange return err without touching
// the simulated chip.
func (v *VirtualNRF24) FailNextExchange(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exchangeErr = err
}

// FailNextCE makes the next Assert or Deassert return err.
func (v *VirtualNRF24) FailNextCE(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ceErr = err
}
