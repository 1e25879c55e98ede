package kernel

import log "github.com/sirupsen/logrus"

// Time slice per level, in yields. Level 0 is the shortest.
var mlfqTimeSlices = [MLFQ_LEVELS]int{1, 2, 4}

// Priority each level runs at.
var mlfqLevelPriorities = [MLFQ_LEVELS]int{
	PRIORITY_MAX,
	PRIORITY_DEFAULT,
	PRIORITY_MIN + 2,
}

func clampPriority(v int) int {
	if v < PRIORITY_MIN {
		return PRIORITY_MIN
	}
	if v > PRIORITY_MAX {
		return PRIORITY_MAX
	}
	return v
}

// priorityToLevel is the inverse of mlfqLevelPriorities.
func priorityToLevel(priority int) int {
	if priority >= PRIORITY_MAX-1 {
		return 0
	}
	if priority >= PRIORITY_DEFAULT {
		return 1
	}
	return 2
}

// applyLevel clamps queueLevel and derives priority from it.
func (p *Proc) applyLevel() {
	if p.queueLevel < 0 {
		p.queueLevel = 0
	}
	if p.queueLevel >= MLFQ_LEVELS {
		p.queueLevel = MLFQ_LEVELS - 1
	}
	p.priority = clampPriority(mlfqLevelPriorities[p.queueLevel])
}

func (p *Proc) resetAccounting() {
	p.waitTime = 0
}

func (k *Kernel) promote(p *Proc) {
	if p.queueLevel == 0 {
		return
	}
	old := p.queueLevel
	p.queueLevel--
	p.queueTicks = 0
	p.applyLevel()
	k.log.WithFields(procFields(p)).WithField("from", old).Debug("mlfq: promote")
}

func (k *Kernel) demote(p *Proc) {
	if p.queueLevel == MLFQ_LEVELS-1 {
		return
	}
	old := p.queueLevel
	p.queueLevel++
	p.queueTicks = 0
	p.applyLevel()
	k.log.WithFields(procFields(p)).WithField("from", old).Debug("mlfq: demote")
}

// chargeSlice bills one yield against p's time slice and demotes it once
// the slice for its level is used up. k.lock must be held.
func (k *Kernel) chargeSlice(p *Proc) {
	p.queueTicks++
	if p.queueTicks >= mlfqTimeSlices[p.queueLevel] {
		p.queueTicks = 0
		k.demote(p)
	}
}

// ageProcs credits every waiting process with one pass and promotes those
// that reached AGING_THRESHOLD. k.lock must be held.
func (k *Kernel) ageProcs() {
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		if p.state != RUNNABLE && !(k.ageSleepers && p.state == SLEEPING) {
			continue
		}
		p.waitTime++
		if p.waitTime >= AGING_THRESHOLD {
			k.log.WithFields(procFields(p)).WithField("wait", p.waitTime).Debug("aging: threshold reached")
			p.waitTime = 0
			k.promote(p)
		}
	}
}

// selectHighestPriority picks the RUNNABLE process with the highest
// priority, then the longest wait, then the fewest dispatches, then the
// lowest pid. k.lock must be held.
func (k *Kernel) selectHighestPriority() *Proc {
	var best *Proc
	for i := 0; i < k.nproc; i++ {
		p := &k.proc[i]
		if p.state != RUNNABLE {
			continue
		}
		if best == nil || better(p, best) {
			best = p
		}
	}
	if best != nil {
		k.log.WithFields(log.Fields{"pid": best.pid, "priority": best.priority, "wait": best.waitTime}).Debug("mlfq: selected")
	}
	return best
}

func better(p, q *Proc) bool {
	if p.priority != q.priority {
		return p.priority > q.priority
	}
	if p.waitTime != q.waitTime {
		return p.waitTime > q.waitTime
	}
	if p.ticks != q.ticks {
		return p.ticks < q.ticks
	}
	return p.pid < q.pid
}
