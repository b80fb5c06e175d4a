// SPDX-License-Identifier: EPL-2.0

package request

import (
	"runtime"
	"sync/atomic"
)

// spinLock guards the request queue. Critical sections are a handful of
// slot writes or one chunk copy, never I/O, so the render goroutine can
// take it without parking.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) Lock() {
	for spins := 0; !l.held.CompareAndSwap(false, true); spins++ {
		if spins >= 64 {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (l *spinLock) Unlock() {
	l.held.Store(false)
}
