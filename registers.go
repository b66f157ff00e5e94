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
	"fmt"
	"strconv"
	"strings"
)

// Register is a 5 bit register address in the nRF24L01+ register map.
type Register byte

// Register map (nRF24L01+ Product Specification, section 9)
const (
	RegConfig     Register = 0x00 // CONFIG
	RegEnAA       Register = 0x01 // EN_AA
	RegEnRxAddr   Register = 0x02 // EN_RXADDR
	RegSetupAW    Register = 0x03 // SETUP_AW
	RegSetupRetr  Register = 0x04 // SETUP_RETR
	RegRFChannel  Register = 0x05 // RF_CH
	RegRFSetup    Register = 0x06 // RF_SETUP
	RegStatus     Register = 0x07 // STATUS
	RegObserveTx  Register = 0x08 // OBSERVE_TX
	RegRPD        Register = 0x09 // RPD
	RegRxAddrP0   Register = 0x0A // RX_ADDR_P0, 5 bytes
	RegRxAddrP1   Register = 0x0B // RX_ADDR_P1, 5 bytes
	RegRxAddrP2   Register = 0x0C // RX_ADDR_P2, LSB only
	RegRxAddrP3   Register = 0x0D // RX_ADDR_P3, LSB only
	RegRxAddrP4   Register = 0x0E // RX_ADDR_P4, LSB only
	RegRxAddrP5   Register = 0x0F // RX_ADDR_P5, LSB only
	RegTxAddr     Register = 0x10 // TX_ADDR, 5 bytes
	RegRxPwP0     Register = 0x11 // RX_PW_P0
	RegFIFOStatus Register = 0x17 // FIFO_STATUS
	RegDynPD      Register = 0x1C // DYNPD
	RegFeature    Register = 0x1D // FEATURE
)

var registerNames = map[Register]string{
	RegConfig:     "CONFIG",
	RegEnAA:       "EN_AA",
	RegEnRxAddr:   "EN_RXADDR",
	RegSetupAW:    "SETUP_AW",
	RegSetupRetr:  "SETUP_RETR",
	RegRFChannel:  "RF_CH",
	RegRFSetup:    "RF_SETUP",
	RegStatus:     "STATUS",
	RegObserveTx:  "OBSERVE_TX",
	RegRPD:        "RPD",
	RegRxAddrP0:   "RX_ADDR_P0",
	RegRxAddrP1:   "RX_ADDR_P1",
	RegRxAddrP2:   "RX_ADDR_P2",
	RegRxAddrP3:   "RX_ADDR_P3",
	RegRxAddrP4:   "RX_ADDR_P4",
	RegRxAddrP5:   "RX_ADDR_P5",
	RegTxAddr:     "TX_ADDR",
	RegFIFOStatus: "FIFO_STATUS",
	RegDynPD:      "DYNPD",
	RegFeature:    "FEATURE",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	if r >= RegRxPwP0 && r < RegRxPwP0+NumPipes {
		return "RX_PW_P" + strconv.Itoa(int(r-RegRxPwP0))
	}
	return fmt.Sprintf("REG_0x%02X", byte(r))
}

// rxAddrRegister returns the RX_ADDR_Pn register of a pipe.
func rxAddrRegister(pipe uint8) Register {
	return RegRxAddrP0 + Register(pipe)
}

// bitfield names a run of bits inside an 8 bit register value.
type bitfield struct {
	shift uint8
	width uint8
}

func bit(n uint8) bitfield {
	return bitfield{shift: n, width: 1}
}

// max is the largest value the field can hold.
func (f bitfield) max() byte {
	return byte(1<<f.width) - 1
}

// mask is the field's bits in register position.
func (f bitfield) mask() byte {
	return f.max() << f.shift
}

func (f bitfield) get(reg byte) byte {
	return (reg & f.mask()) >> f.shift
}

// set replaces the field in reg with v, truncated to the field width.
func (f bitfield) set(reg, v byte) byte {
	return (reg &^ f.mask()) | ((v << f.shift) & f.mask())
}

// clip saturates v at the field maximum.
func (f bitfield) clip(v byte) byte {
	if v > f.max() {
		return f.max()
	}
	return v
}

func (f bitfield) isSet(reg byte) bool {
	return reg&f.mask() != 0
}

func (f bitfield) assign(reg byte, on bool) byte {
	if on {
		return reg | f.mask()
	}
	return reg &^ f.mask()
}

// CONFIG fields
var (
	configPrimRx = bit(0)
	configPwrUp  = bit(1)
	configCRCO   = bit(2)
	configEnCRC  = bit(3)
)

// SETUP_RETR fields
var (
	setupRetrARC = bitfield{shift: 0, width: 4}
	setupRetrARD = bitfield{shift: 4, width: 4}
)

// RF_CH field
var rfChannel = bitfield{shift: 0, width: 7}

// RF_SETUP fields
var (
	rfSetupPower  = bitfield{shift: 1, width: 2}
	rfSetupDRHigh = bit(3)
	rfSetupDRLow  = bit(5)
)

// STATUS fields
var (
	statusTxFull = bit(0)
	statusRxPNo  = bitfield{shift: 1, width: 3}
	statusMaxRT  = bit(4)
	statusTxDS   = bit(5)
	statusRxDR   = bit(6)
)

// OBSERVE_TX fields
var (
	observeTxARCCnt  = bitfield{shift: 0, width: 4}
	observeTxPLOSCnt = bitfield{shift: 4, width: 4}
)

// FEATURE fields
var (
	featureEnDynAck = bit(0)
	featureEnAckPay = bit(1)
	featureEnDPL    = bit(2)
)

// flags renders the bits selected by mask as '+' or '-' in the places
// marked with '+' in f, highest bit first.
func flags(f string, mask, b byte) string {
	buf := []byte(f)
	m := byte(0x80)
	for i := range buf {
		if buf[i] != '+' {
			continue
		}
		for mask&m == 0 {
			m >>= 1
		}
		if b&m == 0 {
			buf[i] = '-'
		}
		m >>= 1
	}
	return string(buf)
}

// Status is the STATUS register, clocked out as the first byte of every
// SPI transaction.
type Status byte

// STATUS bits that can be written back to clear the matching interrupt.
const (
	StatusMaxRetransmit Status = 1 << 4 // MAX_RT
	StatusTxDataSent    Status = 1 << 5 // TX_DS
	StatusRxDataReady   Status = 1 << 6 // RX_DR

	StatusInterrupts = StatusMaxRetransmit | StatusTxDataSent | StatusRxDataReady
)

// rxFIFOEmpty is the RX_P_NO value reported when the RX FIFO holds nothing.
const rxFIFOEmpty = 0x07

// RxDataReady reports the RX_DR interrupt flag.
func (s Status) RxDataReady() bool { return statusRxDR.isSet(byte(s)) }

// TxDataSent reports the TX_DS interrupt flag.
func (s Status) TxDataSent() bool { return statusTxDS.isSet(byte(s)) }

// MaxRetransmit reports the MAX_RT interrupt flag.
func (s Status) MaxRetransmit() bool { return statusMaxRT.isSet(byte(s)) }

// TxFull reports that the TX FIFO has no free slot.
func (s Status) TxFull() bool { return statusTxFull.isSet(byte(s)) }

// RxPipe returns the pipe of the payload at the head of the RX FIFO, or -1
// when the RX FIFO is empty.
func (s Status) RxPipe() int {
	p := statusRxPNo.get(byte(s))
	if p == rxFIFOEmpty {
		return -1
	}
	return int(p)
}

func (s Status) String() string {
	return flags("RX_DR+ TX_DS+ MAX_RT+ TX_FULL+ RX_P_NO:", 0x71, byte(s)) +
		strconv.Itoa(s.RxPipe())
}

// Config is the CONFIG register.
type Config byte

// PoweredUp reports PWR_UP.
func (c Config) PoweredUp() bool { return configPwrUp.isSet(byte(c)) }

// PrimaryRx reports PRIM_RX.
func (c Config) PrimaryRx() bool { return configPrimRx.isSet(byte(c)) }

func (c Config) String() string {
	return flags("MASK(RX_DR+ TX_DS+ MAX_RT+) EN_CRC+ CRCO+ PWR_UP+ PRIM_RX+", 0x7f, byte(c))
}

// RFSetup is the RF_SETUP register.
type RFSetup byte

func (rf RFSetup) String() string {
	return flags("CONT_WAVE+ RF_DR_LOW+ PLL_LOCK+ RF_DR_HIGH+", 0xb8, byte(rf)) +
		" RF_PWR:" + strconv.Itoa(int(rfSetupPower.get(byte(rf))))
}

// FIFOStatus is the FIFO_STATUS register.
type FIFOStatus byte

// FIFO_STATUS bits
const (
	FIFORxEmpty FIFOStatus = 1 << 0
	FIFORxFull  FIFOStatus = 1 << 1
	FIFOTxEmpty FIFOStatus = 1 << 4
	FIFOTxFull  FIFOStatus = 1 << 5
	FIFOTxReuse FIFOStatus = 1 << 6
)

func (f FIFOStatus) String() string {
	return flags("TX_REUSE+ TX_FULL+ TX_EMPTY+ RX_FULL+ RX_EMPTY+", 0x73, byte(f))
}

// Feature is the FEATURE register.
type Feature byte

func (f Feature) String() string {
	return flags("EN_DPL+ EN_ACK_PAY+ EN_DYN_ACK+", 0x07, byte(f))
}

// Pipes is a per-pipe bit set as held by EN_AA, EN_RXADDR and DYNPD.
type Pipes byte

// Has reports whether pipe is in the set.
func (p Pipes) Has(pipe uint8) bool {
	return pipe < NumPipes && p&(1<<pipe) != 0
}

func (p Pipes) String() string {
	var parts []string
	for pipe := uint8(0); pipe < NumPipes; pipe++ {
		if p.Has(pipe) {
			parts = append(parts, "P"+strconv.Itoa(int(pipe)))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
