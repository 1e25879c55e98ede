package kernel

import log "github.com/sirupsen/logrus"

// Chan is an opaque sleep channel. Channels are only ever compared for
// equality; the zero Chan means "not sleeping".
type Chan uint64

const procChanBit = Chan(1) << 63

// NewChan mints a channel no other caller will get.
func (k *Kernel) NewChan() Chan {
	k.acquire()
	defer k.release()
	ch := Chan(k.nextch)
	k.nextch++
	return ch
}

// ProcChan is the channel a process waits on for its children. Pids are
// never reused, so neither is the channel.
func ProcChan(pid int) Chan {
	return procChanBit | Chan(pid)
}

// Sleep blocks the running process on ch until a Wakeup(ch). Callers must
// re-check their condition after it returns.
func (k *Kernel) Sleep(ch Chan) {
	p := k.curr
	if p == nil {
		panic("sleep: no current process")
	}
	if ch == 0 {
		panic("sleep: zero channel")
	}

	k.acquire()
	p.sleepChan = ch
	p.state = SLEEPING
	p.queueTicks = 0
	p.waitTime = 0
	k.log.WithFields(procFields(p)).WithField("chan", uint64(ch)).Debug("sleep")
	k.sched()

	// Tidy up.
	k.acquire()
	p.sleepChan = 0
	k.release()
}

// Wakeup makes every process sleeping on ch RUNNABLE and returns how many
// it woke.
func (k *Kernel) Wakeup(ch Chan) int {
	n := 0
	k.acquire()
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		if p.state == SLEEPING && p.sleepChan == ch {
			p.state = RUNNABLE
			p.sleepChan = 0
			p.waitTime = 0
			p.queueTicks = 0
			n++
		}
	}
	k.release()
	if n > 0 {
		k.log.WithFields(log.Fields{"chan": uint64(ch), "woken": n}).Debug("wakeup")
	}
	return n
}

// Kill flags pid for termination. The victim is not unwound: it has to
// notice Killed() itself. A sleeping victim is woken so it can.
func (k *Kernel) Kill(pid int) error {
	k.acquire()
	defer k.release()
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		if p.state == UNUSED || p.pid != pid {
			continue
		}
		p.killed = true
		if p.state == SLEEPING {
			p.state = RUNNABLE
			p.sleepChan = 0
			p.waitTime = 0
			p.queueTicks = 0
		}
		k.log.WithFields(procFields(p)).Debug("kill")
		return nil
	}
	return ErrNoSuchProcess
}

// Killed reports whether the running process has been killed.
func (k *Kernel) Killed() bool {
	p := k.curr
	if p == nil {
		return false
	}
	k.acquire()
	defer k.release()
	return p.killed
}
