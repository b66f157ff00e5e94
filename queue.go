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

// queue is a bounded FIFO ring. Unlike a trace ring it never evicts: push
// fails when the queue is full.
type queue[T any] struct {
	data  []T
	head  int // next pop
	tail  int // next push
	count int
}

func newQueue[T any](capacity int) *queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &queue[T]{data: make([]T, capacity)}
}

func (q *queue[T]) push(v T) bool {
	if q.full() {
		return false
	}
	q.data[q.tail] = v
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	return true
}

func (q *queue[T]) front() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	return q.data[q.head], true
}

func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	v := q.data[q.head]
	q.data[q.head] = zero
	q.head = (q.head + 1) % len(q.data)
	q.count--
	return v, true
}

func (q *queue[T]) len() int { return q.count }

func (q *queue[T]) capacity() int { return len(q.data) }

func (q *queue[T]) empty() bool { return q.count == 0 }

func (q *queue[T]) full() bool { return q.count == len(q.data) }

// snapshot copies the queued items in FIFO order.
func (q *queue[T]) snapshot() []T {
	out := make([]T, q.count)
	i := q.head
	for n := range q.count {
		out[n] = q.data[i]
		i = (i + 1) % len(q.data)
	}
	return out
}
