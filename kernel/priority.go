package kernel

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// ProcInfo is a snapshot of one process table slot.
type ProcInfo struct {
	PID        int
	Name       string
	State      ProcState
	ParentPID  int
	Killed     bool
	XState     int
	KStack     uintptr
	Priority   int
	Ticks      int
	WaitTime   int
	QueueLevel int
	QueueTicks int
}

func (p *Proc) info() ProcInfo {
	pi := ProcInfo{
		PID:        p.pid,
		Name:       p.Name(),
		State:      p.state,
		Killed:     p.killed,
		XState:     p.xstate,
		KStack:     p.kstack,
		Priority:   p.priority,
		Ticks:      p.ticks,
		WaitTime:   p.waitTime,
		QueueLevel: p.queueLevel,
		QueueTicks: p.queueTicks,
	}
	if p.parent != nil {
		pi.ParentPID = p.parent.pid
	}
	return pi
}

// lookup finds the live slot holding pid. k.lock must be held.
func (k *Kernel) lookup(pid int) *Proc {
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		if p.state != UNUSED && p.pid == pid {
			return p
		}
	}
	return nil
}

// SetPriority moves pid to the MLFQ level matching priority and clears its
// aging and slice accounting. The stored priority is the level's table
// value, so a request of PRIORITY_MAX-1 reads back as PRIORITY_MAX.
//
// Like CreateProcess and Wait, it must run on the scheduler goroutine or
// inside a process.
func (k *Kernel) SetPriority(pid, priority int) error {
	if priority < PRIORITY_MIN || priority > PRIORITY_MAX {
		return ErrInvalidPriority
	}

	k.acquire()
	defer k.release()
	p := k.lookup(pid)
	if p == nil {
		return fmt.Errorf("set priority %d: %w", pid, ErrNoSuchProcess)
	}
	p.queueLevel = priorityToLevel(priority)
	p.applyLevel()
	p.queueTicks = 0
	p.waitTime = 0
	k.log.WithFields(procFields(p)).Debug("set priority")
	return nil
}

func (k *Kernel) GetPriority(pid int) (int, error) {
	k.acquire()
	defer k.release()
	p := k.lookup(pid)
	if p == nil {
		return -1, fmt.Errorf("get priority %d: %w", pid, ErrNoSuchProcess)
	}
	return p.priority, nil
}

// GetDynamicPriority is the priority the scheduler currently uses for pid.
// Aging and demotion rewrite priority in place, so it equals GetPriority.
func (k *Kernel) GetDynamicPriority(pid int) (int, error) {
	return k.GetPriority(pid)
}

// SetNice maps a unix nice value onto the priority range.
func (k *Kernel) SetNice(pid, nice int) error {
	if nice < NICE_MIN || nice > NICE_MAX {
		return ErrInvalidNice
	}
	return k.SetPriority(pid, clampPriority(PRIORITY_DEFAULT+nice/2))
}

// Lookup returns a snapshot of pid's slot.
func (k *Kernel) Lookup(pid int) (ProcInfo, bool) {
	k.acquire()
	defer k.release()
	p := k.lookup(pid)
	if p == nil {
		return ProcInfo{}, false
	}
	return p.info(), true
}

// Procs returns a snapshot of every slot in use, in table order.
func (k *Kernel) Procs() []ProcInfo {
	k.acquire()
	defer k.release()
	var out []ProcInfo
	for i := 0; i < k.nproc; i++ {
		if k.proc[i].state != UNUSED {
			out = append(out, k.proc[i].info())
		}
	}
	return out
}

// DumpProcs prints the process table, like ^P on a console.
func (k *Kernel) DumpProcs(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tNAME\tSTATE\tPRIO\tLEVEL\tSLICE\tTICKS\tWAIT")
	for _, p := range k.Procs() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			p.PID, p.Name, p.State, p.Priority, p.QueueLevel, p.QueueTicks, p.Ticks, p.WaitTime)
	}
	return tw.Flush()
}
