package kernel

import "runtime"

// Context is the saved execution state of one kernel thread. On hardware it
// would hold ra, sp and s0-s11; here every context is backed by a goroutine
// and the CPU is a baton that exactly one context holds at a time.
type Context struct {
	ra func()  // entry, run on the first switch into this context
	sp uintptr // top of the kernel stack, bookkeeping only

	baton   chan struct{}
	started bool
}

// initContext prepares c so that the first switch into it calls entry.
func initContext(c *Context, entry func(), sp uintptr) {
	c.ra = entry
	c.sp = sp
	c.baton = make(chan struct{}, 1)
	c.started = false
}

// bootContext marks c as the context of the calling goroutine, which
// already owns the CPU.
func bootContext(c *Context) {
	initContext(c, nil, 0)
	c.started = true
}

// resume hands the CPU to c.
func (c *Context) resume() {
	if c.baton == nil {
		panic("swtch: uninitialized context")
	}
	if !c.started {
		c.started = true
		if c.ra == nil {
			panic("swtch: context has no entry")
		}
		go c.ra()
		return
	}
	select {
	case c.baton <- struct{}{}:
	default:
		panic("swtch: context already running")
	}
}

// Swtch saves the current execution into old and continues new. It returns
// when some other context switches back into old.
func Swtch(old, new *Context) {
	if old == new {
		panic("swtch: switch to self")
	}
	if old.baton == nil {
		panic("swtch: uninitialized context")
	}
	new.resume()
	<-old.baton
}

// swtchExit transfers the CPU to new and never comes back: the goroutine
// behind old is torn down.
func swtchExit(old, new *Context) {
	old.started = false
	new.resume()
	runtime.Goexit()
}
