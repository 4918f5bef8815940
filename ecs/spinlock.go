package ecs

import "sync/atomic"

// SpinLock is a single-word busy-wait lock. It guards short bookkeeping
// sections only; it must never be held across component access or a user
// callback.
type SpinLock struct {
	state atomic.Int32
}

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
	}
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.state.Store(0)
}
