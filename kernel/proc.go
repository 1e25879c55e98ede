package kernel

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type ProcState int

const (
	UNUSED ProcState = iota
	USED
	RUNNABLE
	RUNNING
	SLEEPING
	ZOMBIE
)

func (s ProcState) String() string {
	switch s {
	case UNUSED:
		return "unused"
	case USED:
		return "used"
	case RUNNABLE:
		return "runnable"
	case RUNNING:
		return "running"
	case SLEEPING:
		return "sleeping"
	case ZOMBIE:
		return "zombie"
	}
	return fmt.Sprintf("procstate(%d)", int(s))
}

// Proc is one slot of the process table.
type Proc struct {
	// k.lock must be held when using these:
	state     ProcState
	pid       int
	parent    *Proc
	sleepChan Chan // channel slept on, if SLEEPING
	killed    bool
	xstate    int // exit status returned to the parent's wait

	// MLFQ accounting, also under k.lock
	priority   int
	ticks      int // times dispatched
	waitTime   int // scheduler passes since last dispatched
	queueLevel int
	queueTicks int // yields spent in the current level

	// private to the process
	kstack  uintptr
	context Context
	name    [16]byte
}

func (p *Proc) Name() string { return cstring(p.name[:]) }

// Kernel owns the process table and the single logical CPU.
//
// Everything except Interrupt must be called either from the goroutine
// that runs the scheduler or from inside a process. Other goroutines
// reach the kernel only through Interrupt.
type Kernel struct {
	lock    Spinlock
	proc    [NPROC]Proc
	nproc   int // usable slots
	nextpid int
	nextch  uint64

	curr     *Proc   // process holding the CPU, nil in the scheduler
	schedCtx Context // the scheduler itself, switched back into by sched()

	policy      Policy
	ageSleepers bool
	kmem        PageAllocator
	irq         irqGate

	log *log.Entry
}

type Option func(*Kernel)

func WithPolicy(p Policy) Option { return func(k *Kernel) { k.policy = p } }

func WithAllocator(a PageAllocator) Option { return func(k *Kernel) { k.kmem = a } }

func WithLogger(l *log.Logger) Option {
	return func(k *Kernel) { k.log = l.WithField("subsys", "kernel") }
}

// WithNProc limits the table to the first n slots.
func WithNProc(n int) Option {
	return func(k *Kernel) {
		if n < 1 || n > NPROC {
			panic("procinit: bad nproc")
		}
		k.nproc = n
	}
}

// WithAgeSleepers lets SLEEPING processes accrue aging credit as well.
func WithAgeSleepers(on bool) Option { return func(k *Kernel) { k.ageSleepers = on } }

// WithConfig applies a validated boot configuration.
func WithConfig(cfg Config) Option {
	return func(k *Kernel) {
		pol, err := ParsePolicy(cfg.Policy)
		if err != nil {
			panic(err)
		}
		k.policy = pol
		WithNProc(cfg.NProc)(k)
		k.ageSleepers = cfg.AgeSleepers
		k.kmem = NewKmem(cfg.Pages)
	}
}

// New runs procinit: every slot starts UNUSED and the calling goroutine
// becomes the scheduler context.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		nproc:   NPROC,
		nextpid: 1,
		nextch:  1,
		policy:  PolicyMLFQ,
		log:     log.StandardLogger().WithField("subsys", "kernel"),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.kmem == nil {
		k.kmem = NewKmem(NPAGES)
	}

	initlock(&k.lock, "proc")
	for i := range k.proc {
		p := &k.proc[i]
		p.state = UNUSED
		p.priority = PRIORITY_DEFAULT
		p.applyLevel()
	}
	bootContext(&k.schedCtx)
	k.irq.init()

	k.log.WithFields(log.Fields{"nproc": k.nproc, "policy": k.policy}).Info("procinit")
	return k
}

// acquire takes the table lock. There is only one hart, so finding the
// lock already taken means this hart took it and forgot to let go.
func (k *Kernel) acquire() {
	if k.lock.Holding() {
		panic("acquire: proc lock already held")
	}
	k.lock.Acquire()
}

func (k *Kernel) release() { k.lock.Release() }

// MyProc returns the running process, or nil in the scheduler context.
func (k *Kernel) MyProc() *Proc { return k.curr }

// GetPID returns the running process's pid, 0 in the scheduler context.
func (k *Kernel) GetPID() int {
	if k.curr == nil {
		return 0
	}
	return k.curr.pid
}

// allocproc looks for an UNUSED slot and gives it a pid and a kernel
// stack. On failure the table is left untouched.
func (k *Kernel) allocproc() (*Proc, error) {
	var p *Proc
	var kstack uintptr

	k.acquire()
	for i := 0; i < k.nproc; i++ {
		p = &k.proc[i]
		if p.state == UNUSED {
			goto found
		}
	}
	k.release()
	k.log.Warn("allocproc: process table full")
	return nil, ErrTableFull

found:
	kstack = k.kmem.Kalloc()
	if kstack == 0 {
		k.release()
		k.log.Warn("allocproc: no page for kernel stack")
		return nil, ErrOutOfMemory
	}

	p.state = USED
	p.pid = k.nextpid
	k.nextpid++
	p.kstack = kstack
	p.parent = k.curr
	p.sleepChan = 0
	p.killed = false
	p.xstate = 0
	p.ticks = 0
	p.waitTime = 0
	p.queueTicks = 0
	p.queueLevel = 0
	p.applyLevel()
	safestrcpy(p.name[:], fmt.Sprintf("proc%d", p.pid))

	parent := "none"
	if p.parent != nil {
		parent = p.parent.Name()
	}
	k.log.WithFields(procFields(p)).WithField("parent", parent).Debug("allocproc")
	k.release()
	return p, nil
}

// freeproc returns p's slot to the table. k.lock must be held.
func (k *Kernel) freeproc(p *Proc) {
	if p.kstack != 0 {
		k.kmem.Kfree(p.kstack)
	}
	p.kstack = 0
	p.context = Context{}
	p.pid = 0
	p.parent = nil
	p.sleepChan = 0
	p.killed = false
	p.xstate = 0
	p.name = [16]byte{}
	p.state = UNUSED
}

// CreateProcess makes a RUNNABLE process that starts in entry. Returning
// from entry is the same as calling Exit(0). Call it from the scheduler
// goroutine or from a process, never from another goroutine.
func (k *Kernel) CreateProcess(entry func()) (int, error) {
	return k.CreateNamed("", entry)
}

// CreateNamed is CreateProcess with a diagnostic name.
func (k *Kernel) CreateNamed(name string, entry func()) (int, error) {
	if entry == nil {
		return -1, fmt.Errorf("create: nil entry: %w", ErrInvalidArgument)
	}
	p, err := k.allocproc()
	if err != nil {
		return -1, err
	}

	k.acquire()
	if name != "" {
		safestrcpy(p.name[:], name)
	}
	initContext(&p.context, func() { k.forkret(); entry(); k.Exit(0) }, p.kstack+PGSIZE)
	p.state = RUNNABLE
	p.resetAccounting()
	pid := p.pid
	k.log.WithFields(procFields(p)).WithField("sp", fmt.Sprintf("%#x", p.context.sp)).Debug("create")
	k.release()
	return pid, nil
}

// forkret is the first thing a new process runs.
func (k *Kernel) forkret() {
	k.log.WithFields(procFields(k.curr)).Debug("forkret")
}

// Exit terminates the running process. It does not return: the process
// stays a ZOMBIE, keeping its stack and status, until its parent's Wait
// reaps it.
func (k *Kernel) Exit(status int) {
	p := k.curr
	if p == nil {
		panic("exit: no current process")
	}

	k.acquire()
	p.xstate = status
	p.killed = false
	p.state = ZOMBIE

	// Children become orphans, reaped from the scheduler context.
	for i := 0; i < k.nproc; i++ {
		if k.proc[i].parent == p {
			k.proc[i].parent = nil
		}
	}
	parent := p.parent
	k.log.WithFields(procFields(p)).WithField("status", status).Debug("exit")
	k.release()

	if parent != nil {
		k.Wakeup(ProcChan(parent.pid))
	}

	k.acquire()
	k.sched()
	panic("zombie exit")
}

// Wait reaps an exited child and returns its pid and exit status.
//
// From a process, Wait sleeps until a child exits and fails with
// ErrNoChildren right away if the caller has none. From the scheduler
// context there is nobody to put to sleep: any zombie, whatever its
// parent, is reaped, and ErrNoChildren or ErrNoZombie is returned
// instead of blocking. Like CreateProcess, it must not be called from
// other goroutines.
func (k *Kernel) Wait() (pid, status int, err error) {
	p := k.curr
	if p == nil {
		return k.reapAny()
	}

	k.acquire()
	for {
		havekids := false
		for i := 0; i < k.nproc; i++ {
			c := &k.proc[i]
			if c.parent != p {
				continue
			}
			havekids = true
			if c.state == ZOMBIE {
				pid, status = c.pid, c.xstate
				k.freeproc(c)
				k.release()
				k.log.WithFields(log.Fields{"pid": pid, "status": status, "parent": p.pid}).Debug("wait: reaped")
				return pid, status, nil
			}
		}

		if !havekids {
			k.release()
			return -1, 0, ErrNoChildren
		}
		if p.killed {
			k.release()
			return -1, 0, ErrKilled
		}

		k.release()
		k.Sleep(ProcChan(p.pid))
		k.acquire()
	}
}

func (k *Kernel) reapAny() (int, int, error) {
	k.acquire()
	defer k.release()

	live := false
	for i := 0; i < k.nproc; i++ {
		c := &k.proc[i]
		switch c.state {
		case UNUSED:
			continue
		case ZOMBIE:
			pid, status := c.pid, c.xstate
			k.freeproc(c)
			k.log.WithFields(log.Fields{"pid": pid, "status": status}).Debug("wait: reaped")
			return pid, status, nil
		default:
			live = true
		}
	}
	if live {
		return -1, 0, ErrNoZombie
	}
	return -1, 0, ErrNoChildren
}
