package kernel

import (
	"runtime"
	"sync/atomic"
)

// Spinlock is a test-and-set mutual exclusion lock. It is not fair and
// must never be held across a context switch.
type Spinlock struct {
	locked uint32
	name   string // for debugging
}

func initlock(lk *Spinlock, name string) {
	lk.name = name
	atomic.StoreUint32(&lk.locked, 0)
}

// Acquire spins until the lock is observed free, then takes it.
func (lk *Spinlock) Acquire() {
	for atomic.SwapUint32(&lk.locked, 1) == 1 {
		runtime.Gosched()
	}
}

// Release clears the lock. Releasing a lock nobody holds is a kernel bug.
func (lk *Spinlock) Release() {
	if atomic.SwapUint32(&lk.locked, 0) == 0 {
		panic("release: " + lk.name + " not held")
	}
}

// Holding reports whether the lock is currently taken.
func (lk *Spinlock) Holding() bool {
	return atomic.LoadUint32(&lk.locked) == 1
}
