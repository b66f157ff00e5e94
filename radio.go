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

// MaxChannel is the highest RF channel (2400 + 127 MHz).
const MaxChannel = 127

// CRCMode selects the CRC encoding scheme
type CRCMode int

const (
	CRCDisabled CRCMode = iota
	CRC1Byte
	CRC2Byte
)

func (c CRCMode) String() string {
	switch c {
	case CRCDisabled:
		return "disabled"
	case CRC1Byte:
		return "1 byte"
	case CRC2Byte:
		return "2 bytes"
	default:
		return fmt.Sprintf("CRCMode(%d)", int(c))
	}
}

// DataRate is the air data rate
type DataRate int

const (
	DataRate1Mbps DataRate = iota
	DataRate2Mbps
	DataRate250Kbps
)

func (r DataRate) String() string {
	switch r {
	case DataRate1Mbps:
		return "1Mbps"
	case DataRate2Mbps:
		return "2Mbps"
	case DataRate250Kbps:
		return "250kbps"
	default:
		return fmt.Sprintf("DataRate(%d)", int(r))
	}
}

// OutputPower is the TX output power. The values are the RF_PWR field
// encodings.
type OutputPower byte

const (
	PowerMinus18dBm OutputPower = 0
	PowerMinus12dBm OutputPower = 1
	PowerMinus6dBm  OutputPower = 2
	Power0dBm       OutputPower = 3
)

// DBm returns the output power in dBm.
func (p OutputPower) DBm() int {
	return 6*int(p) - 18
}

func (p OutputPower) String() string {
	return fmt.Sprintf("%ddBm", p.DBm())
}

// CRCMode reads EN_CRC and CRCO from CONFIG.
func (d *Device) CRCMode() (CRCMode, error) {
	v, err := d.readByte(RegConfig)
	if err != nil {
		return CRCDisabled, err
	}
	switch {
	case !configEnCRC.isSet(v):
		return CRCDisabled, nil
	case configCRCO.isSet(v):
		return CRC2Byte, nil
	default:
		return CRC1Byte, nil
	}
}

// SetCRCMode writes EN_CRC and CRCO in CONFIG.
func (d *Device) SetCRCMode(mode CRCMode) error {
	if mode < CRCDisabled || mode > CRC2Byte {
		return fmt.Errorf("%w: %d", ErrInvalidCRCMode, int(mode))
	}
	return d.updateByte(RegConfig, func(v byte) byte {
		switch mode {
		case CRCDisabled:
			return configEnCRC.assign(v, false)
		case CRC1Byte:
			v = configEnCRC.assign(v, true)
			return configCRCO.assign(v, false)
		default:
			v = configEnCRC.assign(v, true)
			return configCRCO.assign(v, true)
		}
	})
}

// Channel reads RF_CH.
func (d *Device) Channel() (uint8, error) {
	v, err := d.readByte(RegRFChannel)
	if err != nil {
		return 0, err
	}
	return rfChannel.get(v), nil
}

// SetChannel writes RF_CH. Channels above MaxChannel are ignored and the
// register is left unchanged.
func (d *Device) SetChannel(channel uint8) error {
	if channel > MaxChannel {
		Debugf("ignoring channel %d above %d", channel, MaxChannel)
		return nil
	}
	return d.writeByte(RegRFChannel, channel)
}

// DataRate reads RF_DR_LOW and RF_DR_HIGH from RF_SETUP. RF_DR_LOW wins
// when both are set.
func (d *Device) DataRate() (DataRate, error) {
	v, err := d.readByte(RegRFSetup)
	if err != nil {
		return DataRate1Mbps, err
	}
	switch {
	case rfSetupDRLow.isSet(v):
		return DataRate250Kbps, nil
	case rfSetupDRHigh.isSet(v):
		return DataRate2Mbps, nil
	default:
		return DataRate1Mbps, nil
	}
}

// SetDataRate writes RF_DR_LOW and RF_DR_HIGH in RF_SETUP.
func (d *Device) SetDataRate(rate DataRate) error {
	var low, high bool
	switch rate {
	case DataRate1Mbps:
	case DataRate2Mbps:
		high = true
	case DataRate250Kbps:
		low = true
	default:
		return fmt.Errorf("%w: %d", ErrInvalidDataRate, int(rate))
	}
	return d.updateByte(RegRFSetup, func(v byte) byte {
		v = rfSetupDRLow.assign(v, low)
		return rfSetupDRHigh.assign(v, high)
	})
}

// OutputPower reads RF_PWR from RF_SETUP.
func (d *Device) OutputPower() (OutputPower, error) {
	v, err := d.readByte(RegRFSetup)
	if err != nil {
		return Power0dBm, err
	}
	return OutputPower(rfSetupPower.get(v)), nil
}

// SetOutputPower writes RF_PWR in RF_SETUP.
func (d *Device) SetOutputPower(power OutputPower) error {
	if byte(power) > rfSetupPower.max() {
		return fmt.Errorf("%w: %d", ErrInvalidPower, power)
	}
	return d.updateByte(RegRFSetup, func(v byte) byte {
		return rfSetupPower.set(v, byte(power))
	})
}

// RetryCount reads ARC, the auto retransmit count, from SETUP_RETR.
func (d *Device) RetryCount() (uint8, error) {
	v, err := d.readByte(RegSetupRetr)
	if err != nil {
		return 0, err
	}
	return setupRetrARC.get(v), nil
}

// SetRetryCount writes ARC. Counts above 15 are clipped to 15.
func (d *Device) SetRetryCount(count uint8) error {
	count = setupRetrARC.clip(count)
	return d.updateByte(RegSetupRetr, func(v byte) byte {
		return setupRetrARC.set(v, count)
	})
}

// RetryDelay reads ARD, the auto retransmit delay, from SETUP_RETR. The
// delay is (ARD+1)*250µs.
func (d *Device) RetryDelay() (uint8, error) {
	v, err := d.readByte(RegSetupRetr)
	if err != nil {
		return 0, err
	}
	return setupRetrARD.get(v), nil
}

// SetRetryDelay writes ARD. Delays above 15 are clipped to 15.
func (d *Device) SetRetryDelay(delay uint8) error {
	delay = setupRetrARD.clip(delay)
	return d.updateByte(RegSetupRetr, func(v byte) byte {
		return setupRetrARD.set(v, delay)
	})
}

// PacketLossCount reads PLOS_CNT from OBSERVE_TX. It counts lost packets
// and is reset by writing RF_CH.
func (d *Device) PacketLossCount() (uint8, error) {
	v, err := d.readByte(RegObserveTx)
	if err != nil {
		return 0, err
	}
	return observeTxPLOSCnt.get(v), nil
}

// RetransmitCount reads ARC_CNT from OBSERVE_TX, the retransmissions of the
// current packet.
func (d *Device) RetransmitCount() (uint8, error) {
	v, err := d.readByte(RegObserveTx)
	if err != nil {
		return 0, err
	}
	return observeTxARCCnt.get(v), nil
}

// ReceivedPowerDetected reads RPD, set when the received power is above
// -64dBm.
func (d *Device) ReceivedPowerDetected() (bool, error) {
	v, err := d.readByte(RegRPD)
	if err != nil {
		return false, err
	}
	return v&0x01 != 0, nil
}

// FIFOStatus reads FIFO_STATUS.
func (d *Device) FIFOStatus() (FIFOStatus, error) {
	v, err := d.readByte(RegFIFOStatus)
	return FIFOStatus(v), err
}
