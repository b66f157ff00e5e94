//go:build !deadlock

// Package syncutil switches the driver's mutexes to go-deadlock when
// built with -tags=deadlock.
package syncutil

import "sync"

// DeadlockDetection reports whether lock ordering is being checked.
const DeadlockDetection = false

// Mutex is a plain sync.Mutex unless built with -tags=deadlock.
//
//nolint:gocritic // embedded to expose Lock and Unlock
type Mutex struct {
	sync.Mutex
}
