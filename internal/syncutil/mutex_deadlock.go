//go:build deadlock

// Package syncutil switches the driver's mutexes to go-deadlock when
// built with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// DeadlockDetection reports whether lock ordering is being checked.
const DeadlockDetection = true

// Mutex is a deadlock.Mutex in this build.
type Mutex struct {
	deadlock.Mutex
}
