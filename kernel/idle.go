package kernel

import (
	"context"

	"gvisor.dev/gvisor/pkg/sync"
)

// irqGate is where the outside world talks to the kernel. Device code
// running on other goroutines never touches the process table; it queues
// the channel it wants woken and the scheduler delivers it at the start of
// its next pass.
type irqGate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Chan
	kicked  bool
}

func (g *irqGate) init() {
	g.cond = sync.NewCond(&g.mu)
}

// kick wakes a parked Run loop.
func (g *irqGate) kick() {
	g.mu.Lock()
	g.kicked = true
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Interrupt queues a wakeup on ch. Safe to call from any goroutine.
func (k *Kernel) Interrupt(ch Chan) {
	k.irq.mu.Lock()
	k.irq.pending = append(k.irq.pending, ch)
	k.irq.cond.Broadcast()
	k.irq.mu.Unlock()
}

func (k *Kernel) handleInterrupts() {
	k.irq.mu.Lock()
	pending := k.irq.pending
	k.irq.pending = nil
	k.irq.kicked = false
	k.irq.mu.Unlock()

	for _, ch := range pending {
		k.Wakeup(ch)
	}
}

// Run is the scheduler loop that never ends on its own: it schedules until
// idle, then parks until an Interrupt arrives. It returns only when ctx is
// done.
func (k *Kernel) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, k.irq.kick)
	defer stop()

	k.log.Info("scheduler: entered scheduler loop")
	for {
		for ctx.Err() == nil && k.Scheduler() > 0 {
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		k.irq.mu.Lock()
		for len(k.irq.pending) == 0 && !k.irq.kicked && ctx.Err() == nil {
			k.irq.cond.Wait()
		}
		k.irq.kicked = false
		k.irq.mu.Unlock()
	}
}
