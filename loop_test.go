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
	"testing"

	testutil "github.com/ZaparooProject/go-nrf24/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDatagram(t *testing.T, pipe uint8, payload string) Datagram {
	t.Helper()
	dg, err := NewDatagram(pipe, []byte(payload))
	require.NoError(t, err)
	return dg
}

func TestPoll_Idle(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.False(t, ev.Any())
	assert.Equal(t, "idle", ev.String())
	assert.Equal(t, []byte{testutil.OpNOP}, sim.Opcodes())
}

func TestPoll_ReceiveAndDeliver(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, sim.InjectRX(2, []byte("ping")))

	var got []Datagram
	device.SetRxCallback(func(dg Datagram) { got = append(got, dg) })

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Received)
	assert.True(t, ev.Delivered)
	require.Len(t, got, 1)
	assert.Equal(t, uint8(2), got[0].Pipe)
	assert.Equal(t, []byte("ping"), got[0].Payload())
	assert.Zero(t, sim.Flags())
	assert.Zero(t, device.RxQueueLen())
	assert.Equal(t, []byte{
		testutil.OpNOP,
		testutil.OpReadRxPayloadWid,
		testutil.OpReadRxPayload,
		testutil.OpWriteRegister | testutil.RegStatus,
	}, sim.Opcodes())
	assert.Equal(t, [][]byte{{0x40}}, sim.Writes(testutil.RegStatus))
}

func TestPoll_OneDeliveryPerPoll(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t)
	for _, p := range []string{"a", "b", "c"} {
		require.True(t, device.rxQueue.push(mustDatagram(t, 0, p)))
	}

	var got []string
	device.SetRxCallback(func(dg Datagram) { got = append(got, string(dg.Payload())) })

	for i := range 3 {
		_, err := device.Poll()
		require.NoError(t, err)
		assert.Len(t, got, i+1)
		assert.Equal(t, 2-i, device.RxQueueLen())
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPoll_NoRxCallbackStillPops(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, sim.InjectRX(1, []byte{1}))

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Delivered)
	assert.Zero(t, device.RxQueueLen())
}

func TestPoll_CorruptedWidthFlushes(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, sim.InjectCorruptRX(0, 40))

	called := false
	device.SetRxCallback(func(Datagram) { called = true })

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Corrupted)
	assert.False(t, ev.Received)
	assert.False(t, called)
	assert.Zero(t, device.RxQueueLen())
	assert.Equal(t, 1, sim.Count(testutil.OpFlushRx))
	assert.Zero(t, sim.Count(testutil.OpReadRxPayload))
	assert.Zero(t, sim.RxFIFOLen())
	assert.Zero(t, sim.Flags())
}

func TestPoll_RxReadyWithEmptyPipe(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	sim.SetFlags(testutil.StatusRxDR)

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.False(t, ev.Received)
	assert.Zero(t, sim.Count(testutil.OpReadRxPayloadWid))
	assert.Zero(t, sim.Flags())
}

func TestPoll_RxQueueFullDrops(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t, WithQueueCapacity(1, 1))

	require.True(t, device.rxQueue.push(mustDatagram(t, 0, "old")))
	require.NoError(t, sim.InjectRX(0, []byte("new")))

	var got []string
	device.SetRxCallback(func(dg Datagram) { got = append(got, string(dg.Payload())) })

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Dropped)
	assert.Equal(t, []string{"old"}, got)
}

func TestPoll_TxDataSent(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	sim.SetFlags(testutil.StatusTxDS)

	calls := 0
	device.SetTxCallback(func() { calls++ })

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Sent)
	assert.Equal(t, 1, calls)
	assert.Equal(t, [][]byte{{0x20}}, sim.Writes(testutil.RegStatus))
	assert.Zero(t, sim.Flags())

	_, err = device.Poll()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPoll_MaxRetransmitFlushesWithoutCallback(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	_, err := device.WritePayload([]byte("lost"))
	require.NoError(t, err)
	sim.FailTX()
	sim.ClearLog()

	calls := 0
	device.SetTxCallback(func() { calls++ })

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.MaxRetransmit)
	assert.False(t, ev.Sent)
	assert.Zero(t, calls)
	assert.Equal(t, 1, sim.Count(testutil.OpFlushTx))
	assert.Empty(t, sim.TxFIFO())
	assert.Equal(t, [][]byte{{0x10}}, sim.Writes(testutil.RegStatus))
}

func TestPoll_FlagsClearedIndependently(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, sim.InjectRX(0, []byte{1}))
	sim.SetFlags(testutil.StatusTxDS | testutil.StatusMaxRT)

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Received)
	assert.True(t, ev.Sent)
	assert.True(t, ev.MaxRetransmit)
	assert.Equal(t, [][]byte{{0x40}, {0x20}, {0x10}}, sim.Writes(testutil.RegStatus))
}

func TestPoll_DrainsOnePerPoll(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.EnqueueData(mustDatagram(t, 0, "one")))
	require.NoError(t, device.EnqueueData(mustDatagram(t, 0, "two")))

	ev, err := device.Poll()
	require.NoError(t, err)
	assert.True(t, ev.Drained)
	assert.Equal(t, 1, device.TxQueueLen())
	assert.Equal(t, [][]byte{[]byte("one")}, sim.TxFIFO())

	_, err = device.Poll()
	require.NoError(t, err)
	assert.Zero(t, device.TxQueueLen())
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, sim.TxFIFO())
}

func TestPoll_TxFIFOFullDefers(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	for i := range testutil.FIFODepth {
		_, err := device.WritePayload([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, device.EnqueueData(mustDatagram(t, 0, "wait")))
	sim.ClearLog()

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.Deferred)
	assert.False(t, ev.Drained)
	assert.Equal(t, 1, device.TxQueueLen())
	assert.Zero(t, sim.Count(testutil.OpWriteTxPayload))

	// a sent payload frees a slot; the next poll drains
	sim.CompleteTX()
	ev, err = device.Poll()
	require.NoError(t, err)
	assert.True(t, ev.Sent)
	assert.True(t, ev.Drained)
	assert.Zero(t, device.TxQueueLen())
}

func TestEnqueueData_FullQueueUnchanged(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, WithQueueCapacity(1, 3))

	for i := range 3 {
		require.NoError(t, device.EnqueueData(mustDatagram(t, 0, fmt.Sprint(i))))
	}
	before := device.PendingTx()

	err := device.EnqueueData(mustDatagram(t, 0, "overflow"))

	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, before, device.PendingTx())
}

func TestEnqueueData_RejectsOversizedLength(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t)

	err := device.EnqueueData(Datagram{Length: MaxPayloadSize + 1})

	require.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, device.TxQueueLen())
}

func TestEnqueueData_RejectsInvalidPipe(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)

	err := device.EnqueueData(Datagram{Pipe: 9, Length: 1})

	require.ErrorIs(t, err, ErrInvalidPipe)
	assert.Zero(t, device.TxQueueLen())
	assert.Empty(t, sim.Log())
}

func TestPoll_MaxRetransmitFreesFullFIFO(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	for _, p := range []string{"a", "b", "c"} {
		_, err := device.WritePayload([]byte(p))
		require.NoError(t, err)
	}
	require.NoError(t, device.EnqueueData(mustDatagram(t, 0, "next")))
	sim.SetFlags(testutil.StatusMaxRT)

	ev, err := device.Poll()

	require.NoError(t, err)
	assert.True(t, ev.MaxRetransmit)
	// the flush cleared TX_FULL, so the head goes out in the same poll
	assert.True(t, ev.Drained)
	assert.False(t, ev.Deferred)
	assert.Zero(t, device.TxQueueLen())
	assert.Equal(t, [][]byte{[]byte("next")}, sim.TxFIFO())
}

func TestCallbacks_ReplaceAndClear(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)

	first, second := 0, 0
	device.SetTxCallback(func() { first++ })
	device.SetTxCallback(func() { second++ })

	sim.SetFlags(testutil.StatusTxDS)
	_, err := device.Poll()
	require.NoError(t, err)
	assert.Zero(t, first)
	assert.Equal(t, 1, second)

	device.SetTxCallback(nil)
	sim.SetFlags(testutil.StatusTxDS)
	_, err = device.Poll()
	require.NoError(t, err)
	assert.Equal(t, 1, second)
}

func TestPoll_BusFailure(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	sim.FailNextExchange(assert.AnError)

	_, err := device.Poll()

	require.ErrorIs(t, err, ErrBusFailure)
}

func TestPoll_LoopbackThroughSimulator(t *testing.T) {
	t.Parallel()
	device, sim := newTestDevice(t)
	require.NoError(t, device.Setup())
	require.NoError(t, device.StartListening(1))
	require.NoError(t, device.EnterRX())

	var echoed []Datagram
	device.SetRxCallback(func(dg Datagram) {
		echoed = append(echoed, dg)
		require.NoError(t, device.EnqueueData(dg))
	})

	require.NoError(t, sim.InjectRX(1, []byte("hello")))
	_, err := device.Poll()
	require.NoError(t, err)

	// the echo was queued during delivery and drained in the same poll
	assert.Len(t, echoed, 1)
	assert.Equal(t, [][]byte{[]byte("hello")}, sim.TxFIFO())
}

func TestEvents_String(t *testing.T) {
	t.Parallel()
	ev := Events{Received: true, MaxRetransmit: true, Drained: true}
	assert.Equal(t, "received,max-retransmit,drained", ev.String())
}
