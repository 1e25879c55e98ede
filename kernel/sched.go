package kernel

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Policy int

const (
	PolicyRoundRobin Policy = iota
	PolicyMLFQ
)

func (p Policy) String() string {
	switch p {
	case PolicyRoundRobin:
		return "rr"
	case PolicyMLFQ:
		return "mlfq"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "rr", "round-robin", "roundrobin":
		return PolicyRoundRobin, nil
	case "mlfq", "priority":
		return PolicyMLFQ, nil
	}
	return 0, fmt.Errorf("unknown policy %q: %w", s, ErrInvalidArgument)
}

// Policy reports which scheduling policy the kernel was booted with.
func (k *Kernel) Policy() Policy { return k.policy }

// Scheduler runs one scheduling pass from the scheduler context and
// returns how many processes it dispatched. Zero means nothing was
// RUNNABLE and the CPU is idle.
//
// Round robin sweeps the table once, giving every RUNNABLE slot a turn in
// table order. MLFQ ages the waiting processes and dispatches the single
// best candidate.
func (k *Kernel) Scheduler() int {
	if k.curr != nil {
		panic("scheduler: called from process " + k.curr.Name())
	}
	k.handleInterrupts()

	if k.policy == PolicyRoundRobin {
		return k.roundRobin()
	}
	return k.mlfqPass()
}

func (k *Kernel) roundRobin() int {
	n := 0
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		k.acquire()
		if p.state != RUNNABLE {
			k.release()
			continue
		}
		k.dispatch(p)
		n++
	}
	if n == 0 {
		k.idle()
	}
	return n
}

func (k *Kernel) mlfqPass() int {
	k.acquire()
	k.ageProcs()
	p := k.selectHighestPriority()
	if p == nil {
		k.release()
		k.idle()
		return 0
	}
	k.dispatch(p)
	return 1
}

// dispatch runs p until it gives the CPU back. Called with k.lock held;
// returns with it released.
func (k *Kernel) dispatch(p *Proc) {
	p.state = RUNNING
	p.waitTime = 0
	p.ticks++
	k.curr = p
	k.log.WithFields(procFields(p)).WithField("ticks", p.ticks).Debug("dispatch")
	k.release()

	Swtch(&k.schedCtx, &p.context)

	k.curr = nil
	if k.lock.Holding() {
		panic("scheduler: proc lock held after switch")
	}
}

func (k *Kernel) idle() {
	if !k.log.Logger.IsLevelEnabled(log.DebugLevel) {
		return
	}
	zombies := 0
	k.acquire()
	for i := 0; i < k.nproc; i++ {
		if k.proc[i].state == ZOMBIE {
			zombies++
		}
	}
	k.release()
	k.log.WithField("zombies", zombies).Debug("scheduler: no runnable process")
}

// sched gives the CPU back to the scheduler. k.lock must be held and the
// running process must already have left RUNNING; the lock is released
// before the switch. A ZOMBIE never comes back.
func (k *Kernel) sched() {
	p := k.curr
	if p == nil {
		panic("sched: no current process")
	}
	if !k.lock.Holding() {
		panic("sched: proc lock not held")
	}
	if p.state == RUNNING {
		panic("sched: running")
	}
	exiting := p.state == ZOMBIE
	k.release()

	if exiting {
		swtchExit(&p.context, &k.schedCtx)
	}
	Swtch(&p.context, &k.schedCtx)
}

// Yield gives up the CPU for one scheduling round. From the scheduler
// context it simply runs one pass of the scheduler.
func (k *Kernel) Yield() {
	p := k.curr
	if p == nil {
		k.Scheduler()
		return
	}

	k.acquire()
	if p.state == RUNNING {
		if k.policy == PolicyMLFQ {
			k.chargeSlice(p)
		}
		p.state = RUNNABLE
	}
	k.sched()
}

// Runnable reports whether any process is waiting for the CPU.
func (k *Kernel) Runnable() bool {
	k.acquire()
	defer k.release()
	for i := 0; i < k.nproc; i++ {
		if k.proc[i].state == RUNNABLE {
			return true
		}
	}
	return false
}

// RunUntilIdle keeps scheduling until nothing is RUNNABLE and returns the
// number of dispatches made.
func (k *Kernel) RunUntilIdle() int {
	total := 0
	for {
		n := k.Scheduler()
		if n == 0 {
			return total
		}
		total += n
	}
}
