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
	"strings"
)

// Events reports what a single Poll did.
type Events struct {
	// Received is set when a payload was read from the RX FIFO into the RX queue.
	Received bool
	// Corrupted is set when the chip reported a width above MaxPayloadSize
	// and the RX FIFO was flushed.
	Corrupted bool
	// Dropped is set when a received payload was discarded because the RX
	// queue was full.
	Dropped bool
	// Sent is set when TX_DS was handled.
	Sent bool
	// MaxRetransmit is set when MAX_RT was handled and the TX FIFO flushed.
	MaxRetransmit bool
	// Delivered is set when a datagram was popped from the RX queue.
	Delivered bool
	// Drained is set when a datagram moved from the TX queue into the TX FIFO.
	Drained bool
	// Deferred is set when the TX FIFO was full and the TX queue head stayed
	// queued.
	Deferred bool
}

// Any reports whether the poll did any work.
func (e Events) Any() bool {
	return e.Received || e.Corrupted || e.Dropped || e.Sent || e.MaxRetransmit ||
		e.Delivered || e.Drained || e.Deferred
}

func (e Events) String() string {
	var parts []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"received", e.Received},
		{"corrupted", e.Corrupted},
		{"dropped", e.Dropped},
		{"sent", e.Sent},
		{"max-retransmit", e.MaxRetransmit},
		{"delivered", e.Delivered},
		{"drained", e.Drained},
		{"deferred", e.Deferred},
	} {
		if f.set {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "idle"
	}
	return strings.Join(parts, ",")
}

// SetRxCallback registers the handler that receives delivered datagrams,
// replacing any previous one. A nil handler clears the registration.
func (d *Device) SetRxCallback(h RxHandler) {
	d.rxHandler = h
}

// SetTxCallback registers the handler called when the chip reports a
// payload as sent, replacing any previous one. A nil handler clears the
// registration.
func (d *Device) SetTxCallback(h TxHandler) {
	d.txHandler = h
}

// EnqueueData appends dg to the software TX queue. Datagrams with a pipe
// above 5 or a length above MaxPayloadSize are rejected. The queue is left
// untouched and ErrQueueFull returned when it is at capacity.
func (d *Device) EnqueueData(dg Datagram) error {
	if err := checkPipe(dg.Pipe); err != nil {
		return err
	}
	if dg.Length > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, dg.Length)
	}
	if !d.txQueue.push(dg) {
		return fmt.Errorf("%w: %d datagrams pending", ErrQueueFull, d.txQueue.len())
	}
	return nil
}

// RxQueueLen returns the number of received datagrams awaiting delivery.
func (d *Device) RxQueueLen() int {
	return d.rxQueue.len()
}

// TxQueueLen returns the number of datagrams awaiting the TX FIFO.
func (d *Device) TxQueueLen() int {
	return d.txQueue.len()
}

// PendingTx returns a copy of the TX queue, head first.
func (d *Device) PendingTx() []Datagram {
	return d.txQueue.snapshot()
}

// Poll runs one iteration of the event loop. It reads STATUS with a NOP,
// handles RX_DR, TX_DS and MAX_RT in that order clearing each flag on its
// own, then delivers at most one queued datagram to the RX callback and
// moves at most one queued datagram into the TX FIFO.
//
// A MAX_RT event flushes the TX FIFO and does not invoke the TX callback.
//
// Poll never blocks; the caller decides the cadence.
func (d *Device) Poll() (Events, error) {
	var ev Events

	status, err := d.NOP()
	if err != nil {
		return ev, fmt.Errorf("failed to read status: %w", err)
	}

	if status.RxDataReady() {
		if err := d.handleDataReady(status, &ev); err != nil {
			return ev, err
		}
		if _, err := d.ClearInterrupts(StatusRxDataReady); err != nil {
			return ev, fmt.Errorf("failed to clear RX_DR: %w", err)
		}
	}

	if status.TxDataSent() {
		ev.Sent = true
		if d.txHandler != nil {
			d.txHandler()
		}
		if _, err := d.ClearInterrupts(StatusTxDataSent); err != nil {
			return ev, fmt.Errorf("failed to clear TX_DS: %w", err)
		}
	}

	if status.MaxRetransmit() {
		if _, err := d.FlushTX(); err != nil {
			return ev, fmt.Errorf("failed to flush TX FIFO after MAX_RT: %w", err)
		}
		ev.MaxRetransmit = true
		Debugln("max retransmissions reached, TX FIFO flushed")
		if _, err := d.ClearInterrupts(StatusMaxRetransmit); err != nil {
			return ev, fmt.Errorf("failed to clear MAX_RT: %w", err)
		}
	}

	if dg, ok := d.rxQueue.pop(); ok {
		ev.Delivered = true
		if d.rxHandler != nil {
			d.rxHandler(dg)
		}
	}

	if err := d.drainTx(&ev); err != nil {
		return ev, err
	}

	return ev, nil
}

func (d *Device) handleDataReady(status Status, ev *Events) error {
	pipe := status.RxPipe()
	if pipe < 0 {
		Debugln("RX_DR set with empty RX FIFO")
		return nil
	}

	width, _, err := d.ReadPayloadWidth()
	if err != nil {
		return fmt.Errorf("failed to read payload width: %w", err)
	}

	if width > MaxPayloadSize {
		Debugf("corrupted payload width %d on pipe %d, flushing RX FIFO", width, pipe)
		if _, err := d.FlushRX(); err != nil {
			return fmt.Errorf("failed to flush RX FIFO: %w", err)
		}
		ev.Corrupted = true
		return nil
	}

	data, _, err := d.ReadPayload(width)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	var dg Datagram
	dg.Pipe = uint8(pipe)
	dg.Length = uint8(copy(dg.Bytes[:], data))

	if !d.rxQueue.push(dg) {
		Debugf("RX queue full, dropping %s", dg)
		ev.Dropped = true
		return nil
	}
	ev.Received = true
	return nil
}

// drainTx writes the TX queue head into the TX FIFO unless the most recent
// STATUS reports the FIFO full.
func (d *Device) drainTx(ev *Events) error {
	dg, ok := d.txQueue.front()
	if !ok {
		return nil
	}
	// The STATUS checked here is the latest one, not the NOP of step one: a
	// MAX_RT flush earlier in this poll frees the FIFO and lets the head
	// drain now instead of on the next poll.
	if d.status.TxFull() {
		ev.Deferred = true
		return nil
	}
	if _, err := d.WritePayload(dg.Payload()); err != nil {
		return fmt.Errorf("failed to write TX payload: %w", err)
	}
	d.txQueue.pop()
	ev.Drained = true
	return nil
}
