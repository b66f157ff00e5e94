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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/ZaparooProject/go-nrf24/polling"
	"github.com/sirupsen/logrus"
)

// txTimeout bounds the wait for TX_DS or MAX_RT. The longest auto
// retransmit cycle is 15 retries of 4ms.
const txTimeout = 100 * time.Millisecond

var errTxTimeout = errors.New("no TX_DS or MAX_RT from radio")

// txOutcome is the radio's verdict on transmission seq.
type txOutcome struct {
	seq   uint64
	acked bool
}

type app struct {
	log      *logrus.Logger
	out      io.Writer
	runner   *polling.Runner
	outcomes chan txOutcome
	inflight atomic.Uint64 // seq awaiting TX_DS or MAX_RT, zero when none
	seq      uint64        // owned by transmit
}

func newApp(device *nrf24.Device, cfg *polling.Config, log *logrus.Logger, out io.Writer,
	opts ...polling.Option,
) *app {
	a := &app{
		log:      log,
		out:      out,
		outcomes: make(chan txOutcome, 4),
	}
	a.runner = polling.NewRunner(device, cfg, polling.Callbacks{
		OnReceive:       a.onReceive,
		OnSent:          func() { a.onTxDone(true) },
		OnMaxRetransmit: func() { a.onTxDone(false) },
		OnError:         a.onError,
	}, opts...)
	return a
}

func (a *app) onReceive(dg nrf24.Datagram) {
	a.log.WithFields(logrus.Fields{
		"pipe":  dg.Pipe,
		"bytes": dg.Length,
	}).Debug("received")
	_, _ = fmt.Fprintf(a.out, "[pipe %d] %s\n", dg.Pipe, printable(dg.Payload()))
}

func (a *app) onTxDone(acked bool) {
	seq := a.inflight.Swap(0)
	if seq == 0 {
		a.log.WithField("acked", acked).Debug("ignoring TX event with nothing in flight")
		return
	}
	if err := a.runner.Do((*nrf24.Device).EnterRX); err != nil {
		a.log.WithError(err).Warn("failed to return to RX")
	}
	select {
	case a.outcomes <- txOutcome{seq: seq, acked: acked}:
	default:
	}
}

func (a *app) onError(err error) {
	entry := a.log.WithError(err)
	if te := nrf24.GetTrace(err); te != nil {
		entry = entry.WithField("trace", te.FormatTrace())
	}
	entry.Warn("poll failed")
}

// transmit sends dg and waits for the radio's verdict. It returns true
// when the peer acknowledged. Verdicts belonging to an earlier,
// abandoned transmission are discarded.
func (a *app) transmit(ctx context.Context, dg nrf24.Datagram) (bool, error) {
	for drained := false; !drained; {
		select {
		case <-a.outcomes:
		default:
			drained = true
		}
	}

	a.seq++
	seq := a.seq
	if err := a.runner.Send(dg); err != nil {
		return false, err
	}
	err := a.runner.Do(func(d *nrf24.Device) error {
		a.inflight.Store(seq)
		if err := d.EnterTX(); err != nil {
			a.inflight.Store(0)
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	timer := time.NewTimer(txTimeout)
	defer timer.Stop()
	for {
		select {
		case o := <-a.outcomes:
			if o.seq != seq {
				continue
			}
			return o.acked, nil
		case <-timer.C:
			_ = a.runner.Do(func(d *nrf24.Device) error {
				a.inflight.Store(0)
				if _, err := d.FlushTX(); err != nil {
					return err
				}
				if _, err := d.ClearInterrupts(nrf24.StatusTxDataSent | nrf24.StatusMaxRetransmit); err != nil {
					return err
				}
				return d.EnterRX()
			})
			return false, errTxTimeout
		case <-ctx.Done():
			a.inflight.CompareAndSwap(seq, 0)
			return false, ctx.Err()
		}
	}
}

// chat sends every line of in, split into datagrams, until in ends or ctx
// is done.
func (a *app) chat(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := a.sendLine(ctx, line); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				a.log.WithError(err).Warn("send failed")
			}
		}
	}
}

func (a *app) sendLine(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	for _, chunk := range split([]byte(line), nrf24.MaxPayloadSize) {
		dg, err := nrf24.NewDatagram(0, chunk)
		if err != nil {
			return err
		}
		acked, err := a.transmit(ctx, dg)
		if err != nil {
			return err
		}
		if !acked {
			return fmt.Errorf("%q not acknowledged", chunk)
		}
	}
	a.log.WithField("bytes", len(line)).Debug("sent")
	return nil
}

func split(data []byte, size int) [][]byte {
	var chunks [][]byte
	for len(data) > size {
		chunks = append(chunks, data[:size])
		data = data[size:]
	}
	if len(data) > 0 {
		chunks = append(chunks, data)
	}
	return chunks
}

func printable(data []byte) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return '.'
	}, string(data))
}
