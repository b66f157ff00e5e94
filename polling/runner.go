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

// Package polling runs the nrf24 event loop on its own goroutine.
//
// A Runner owns the cadence of Device.Poll, serializes every other access
// to the device behind one mutex and dispatches received datagrams to user
// callbacks after the lock is released, so callbacks may call back into
// the runner.
package polling

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
)

// Callbacks defines callback functions for radio events. They run on the
// goroutine that polled: the loop, or the caller of PollOnce.
type Callbacks struct {
	OnReceive       func(dg nrf24.Datagram)
	OnSent          func()
	OnMaxRetransmit func()
	OnError         func(err error)
}

// InterruptWaiter blocks until the IRQ line falls or timeout elapses.
// transport/spi.IRQ implements it.
type InterruptWaiter interface {
	Wait(timeout time.Duration) bool
}

// Metrics tracks operational metrics for a Runner
type Metrics struct {
	PollCycles      int64         // Total number of polling cycles
	PollErrors      int64         // Number of failed polls
	Received        int64         // Datagrams delivered to OnReceive
	Sent            int64         // TX_DS events
	MaxRetransmits  int64         // MAX_RT events
	Corrupted       int64         // RX FIFO flushes after a bad width
	Dropped         int64         // Datagrams lost to a full RX queue
	Drained         int64         // Datagrams moved into the TX FIFO
	Recoveries      int64         // Successful recoveries
	LastPollLatency time.Duration // Duration of last poll
}

// Option configures a Runner
type Option func(*Runner)

// WithInterrupt makes the runner sleep on the IRQ line between polls
// instead of a timer. The current interval still bounds each wait.
func WithInterrupt(w InterruptWaiter) Option {
	return func(r *Runner) {
		r.irq = w
	}
}

// WithRecoverer enables recovery after Recovery.ErrorThreshold
// consecutive poll errors.
func WithRecoverer(rec DeviceRecoverer) Option {
	return func(r *Runner) {
		r.recoverer = rec
	}
}

// Runner polls a device in the background.
type Runner struct {
	device    *nrf24.Device
	config    *Config
	callbacks Callbacks
	irq       InterruptWaiter
	recoverer DeviceRecoverer
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        syncutil.Mutex

	// collected by the device handlers while mu is held
	pendingRx   []nrf24.Datagram
	pendingSent int

	pollCycles      int64
	pollErrors      int64
	received        int64
	sent            int64
	maxRetransmits  int64
	corrupted       int64
	dropped         int64
	drained         int64
	recoveries      int64
	lastPollLatency int64
	currentInterval int64
	lastActivity    int64
	running         int64

	consecutiveErrors int64
}

// NewRunner creates a runner for device. It installs its own RX and TX
// handlers on the device; use Callbacks instead of Device.SetRxCallback.
func NewRunner(device *nrf24.Device, config *Config, callbacks Callbacks, opts ...Option) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	r := &Runner{
		device:          device,
		config:          config,
		callbacks:       callbacks,
		stopChan:        make(chan struct{}, 1),
		currentInterval: config.PollInterval.Nanoseconds(),
		lastActivity:    time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.installHandlers(device)
	return r
}

func (r *Runner) installHandlers(device *nrf24.Device) {
	device.SetRxCallback(func(dg nrf24.Datagram) {
		r.pendingRx = append(r.pendingRx, dg)
	})
	device.SetTxCallback(func() {
		r.pendingSent++
	})
}

// Start launches the polling goroutine. Calling Start on a running
// runner does nothing. The loop also ends when ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt64(&r.running, 0, 1) {
		return nil
	}
	// drop a stop signal left over from a loop that already exited
	select {
	case <-r.stopChan:
	default:
	}
	r.wg.Add(1)
	go r.pollLoop(ctx)
	return nil
}

// Stop signals the polling goroutine and waits for it to exit or for ctx
// to be done.
func (r *Runner) Stop(ctx context.Context) error {
	select {
	case r.stopChan <- struct{}{}:
	default:
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the polling goroutine is active.
func (r *Runner) Running() bool {
	return atomic.LoadInt64(&r.running) == 1
}

func (r *Runner) pollLoop(ctx context.Context) {
	defer r.wg.Done()
	defer atomic.StoreInt64(&r.running, 0)

	r.performPoll(ctx)

	for r.wait(ctx) {
		r.performPoll(ctx)
		r.adjustInterval()
	}
}

// wait sleeps for the current interval, or until the IRQ line falls when a
// waiter is configured. It returns false once the runner should stop.
func (r *Runner) wait(ctx context.Context) bool {
	interval := r.CurrentInterval()

	if r.irq != nil {
		r.irq.Wait(interval)
		select {
		case <-r.stopChan:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.stopChan:
		return false
	case <-ctx.Done():
		return false
	}
}

// PollOnce runs a single poll synchronously and dispatches its callbacks.
func (r *Runner) PollOnce(ctx context.Context) (nrf24.Events, error) {
	return r.performPoll(ctx)
}

func (r *Runner) performPoll(ctx context.Context) (nrf24.Events, error) {
	start := time.Now()

	r.mu.Lock()
	ev, err := r.device.Poll()
	rx := r.pendingRx
	sent := r.pendingSent
	r.pendingRx = nil
	r.pendingSent = 0
	r.mu.Unlock()

	atomic.AddInt64(&r.pollCycles, 1)
	atomic.StoreInt64(&r.lastPollLatency, time.Since(start).Nanoseconds())

	if ev.Any() {
		atomic.StoreInt64(&r.lastActivity, start.UnixNano())
	}
	r.count(ev)
	r.dispatch(ev, rx, sent)

	if err != nil {
		atomic.AddInt64(&r.pollErrors, 1)
		nrf24.Debugf("poll failed: %v", err)
		if r.callbacks.OnError != nil {
			r.callbacks.OnError(err)
		}
		atomic.AddInt64(&r.consecutiveErrors, 1)
		r.maybeRecover(ctx)
		return ev, err
	}
	atomic.StoreInt64(&r.consecutiveErrors, 0)
	return ev, nil
}

func (r *Runner) count(ev nrf24.Events) {
	if ev.MaxRetransmit {
		atomic.AddInt64(&r.maxRetransmits, 1)
	}
	if ev.Corrupted {
		atomic.AddInt64(&r.corrupted, 1)
	}
	if ev.Dropped {
		atomic.AddInt64(&r.dropped, 1)
	}
	if ev.Drained {
		atomic.AddInt64(&r.drained, 1)
	}
}

func (r *Runner) dispatch(ev nrf24.Events, rx []nrf24.Datagram, sent int) {
	for _, dg := range rx {
		atomic.AddInt64(&r.received, 1)
		if r.callbacks.OnReceive != nil {
			r.callbacks.OnReceive(dg)
		}
	}
	for range sent {
		atomic.AddInt64(&r.sent, 1)
		if r.callbacks.OnSent != nil {
			r.callbacks.OnSent()
		}
	}
	if ev.MaxRetransmit && r.callbacks.OnMaxRetransmit != nil {
		r.callbacks.OnMaxRetransmit()
	}
}

func (r *Runner) maybeRecover(ctx context.Context) {
	threshold := r.config.Recovery.ErrorThreshold
	if r.recoverer == nil || threshold <= 0 ||
		atomic.LoadInt64(&r.consecutiveErrors) < int64(threshold) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.recoverer.AttemptRecovery(ctx); err != nil {
		nrf24.Debugf("recovery failed: %v", err)
		return
	}
	if device := r.recoverer.Device(); device != r.device {
		r.device = device
		r.installHandlers(device)
	}
	atomic.StoreInt64(&r.consecutiveErrors, 0)
	atomic.AddInt64(&r.recoveries, 1)
}

func (r *Runner) adjustInterval() {
	since := time.Duration(time.Now().UnixNano() - atomic.LoadInt64(&r.lastActivity))
	interval := r.config.PollInterval
	if since > r.config.IdleThreshold && r.config.IdleInterval > interval {
		interval = r.config.IdleInterval
	}
	atomic.StoreInt64(&r.currentInterval, interval.Nanoseconds())
}

// Do runs fn with exclusive access to the device. Use it for every
// configuration or mode change while the runner is active.
func (r *Runner) Do(fn func(d *nrf24.Device) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.device)
}

// Send queues dg for transmission and resets the idle timer so the TX
// queue drains at full cadence.
func (r *Runner) Send(dg nrf24.Datagram) error {
	err := r.Do(func(d *nrf24.Device) error {
		return d.EnqueueData(dg)
	})
	if err == nil {
		atomic.StoreInt64(&r.lastActivity, time.Now().UnixNano())
		atomic.StoreInt64(&r.currentInterval, r.config.PollInterval.Nanoseconds())
	}
	return err
}

// Device returns the device currently being polled. It changes when a
// recoverer reopens the hardware.
func (r *Runner) Device() *nrf24.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// Metrics returns current operational metrics
func (r *Runner) Metrics() Metrics {
	return Metrics{
		PollCycles:      atomic.LoadInt64(&r.pollCycles),
		PollErrors:      atomic.LoadInt64(&r.pollErrors),
		Received:        atomic.LoadInt64(&r.received),
		Sent:            atomic.LoadInt64(&r.sent),
		MaxRetransmits:  atomic.LoadInt64(&r.maxRetransmits),
		Corrupted:       atomic.LoadInt64(&r.corrupted),
		Dropped:         atomic.LoadInt64(&r.dropped),
		Drained:         atomic.LoadInt64(&r.drained),
		Recoveries:      atomic.LoadInt64(&r.recoveries),
		LastPollLatency: time.Duration(atomic.LoadInt64(&r.lastPollLatency)),
	}
}

// CurrentInterval returns the current adaptive polling interval
func (r *Runner) CurrentInterval() time.Duration {
	return time.Duration(atomic.LoadInt64(&r.currentInterval))
}
