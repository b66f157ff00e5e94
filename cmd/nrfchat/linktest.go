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

package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/sirupsen/logrus"
)

// seqBytes is the big-endian sequence number at the start of each packet.
const seqBytes = 4

// LinkTestResult summarizes a link test.
type LinkTestResult struct {
	Started   time.Time     `json:"started"`
	Failures  []PacketLog   `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	LossRate  float64       `json:"loss_rate"`
	Sent      int           `json:"sent"`
	Acked     int           `json:"acked"`
	Lost      int           `json:"lost"`
	TimedOut  int           `json:"timed_out"`
	Size      int           `json:"payload_size"`
	PLOSCount uint8         `json:"plos_cnt"`
}

// PacketLog records one packet that was not acknowledged.
type PacketLog struct {
	Timestamp time.Time `json:"timestamp"`
	DataHex   string    `json:"data_hex"`
	Error     string    `json:"error,omitempty"`
	Seq       uint32    `json:"seq"`
}

func linkTestPayload(seq uint32, size int) ([]byte, error) {
	if size < seqBytes || size > nrf24.MaxPayloadSize {
		return nil, fmt.Errorf("payload size must be %d-%d, got %d", seqBytes, nrf24.MaxPayloadSize, size)
	}
	payload := make([]byte, size)
	binary.BigEndian.PutUint32(payload, seq)
	if _, err := rand.Read(payload[seqBytes:]); err != nil {
		return nil, fmt.Errorf("failed to generate payload: %w", err)
	}
	return payload, nil
}

// linkTest sends count numbered packets one at a time and tallies the
// radio's TX_DS and MAX_RT verdicts.
func (a *app) linkTest(ctx context.Context, count, size int) (*LinkTestResult, error) {
	result := &LinkTestResult{Started: time.Now(), Size: size}

	for seq := range uint32(count) {
		payload, err := linkTestPayload(seq, size)
		if err != nil {
			return nil, err
		}
		dg, err := nrf24.NewDatagram(0, payload)
		if err != nil {
			return nil, err
		}

		result.Sent++
		acked, err := a.transmit(ctx, dg)
		switch {
		case err == nil && acked:
			result.Acked++
			continue
		case err == nil:
			result.Lost++
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			result.TimedOut++
		}

		entry := PacketLog{Timestamp: time.Now(), Seq: seq, DataHex: hex.EncodeToString(payload)}
		if err != nil {
			entry.Error = err.Error()
		}
		result.Failures = append(result.Failures, entry)
		a.log.WithFields(logrus.Fields{"seq": seq, "acked": false}).Debug("packet lost")
	}

	result.Duration = time.Since(result.Started)
	if result.Sent > 0 {
		result.LossRate = float64(result.Sent-result.Acked) / float64(result.Sent)
	}
	_ = a.runner.Do(func(d *nrf24.Device) error {
		plos, err := d.PacketLossCount()
		result.PLOSCount = plos
		return err
	})

	a.log.WithFields(logrus.Fields{
		"sent":  result.Sent,
		"acked": result.Acked,
		"lost":  result.Lost + result.TimedOut,
	}).Info("link test finished")
	return result, nil
}
