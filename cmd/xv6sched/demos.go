package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"xv6-sched/kernel"
)

var errSkipped = errors.New("needs the mlfq policy")

type demoCase struct {
	name string
	run  func(k *kernel.Kernel) error
}

var demos = []demoCase{
	{"counter", spinlockDemo},
	{"yield", yieldDemo},
	{"pingpong", pingpongDemo},
	{"prodcons", prodconsDemo},
	{"priority", priorityDemo},
	{"aging", agingDemo},
}

func demoNames() string {
	names := []string{"all"}
	for _, d := range demos {
		names = append(names, d.name)
	}
	return strings.Join(names, " | ")
}

func lookupDemo(name string) (demoCase, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demoCase{}, false
}

// spinlockDemo has two processes bump a shared counter under a spinlock,
// yielding every hundred increments.
func spinlockDemo(k *kernel.Kernel) error {
	var count struct {
		lock kernel.Spinlock
		num  int
	}
	for i := 0; i < 2; i++ {
		if _, err := k.CreateNamed(fmt.Sprintf("adder%d", i), func() {
			for j := 0; j < 1000; j++ {
				count.lock.Acquire()
				count.num++
				count.lock.Release()
				if j%100 == 0 {
					k.Yield()
				}
			}
			k.Exit(0)
		}); err != nil {
			return err
		}
	}
	k.RunUntilIdle()
	if count.num != 2000 {
		return fmt.Errorf("expected count 2000, got %d", count.num)
	}
	return nil
}

func yieldDemo(k *kernel.Kernel) error {
	yields := map[int]int{}
	for i := 0; i < 3; i++ {
		if _, err := k.CreateProcess(func() {
			me := k.GetPID()
			for j := 0; j < 5; j++ {
				yields[me]++
				k.Yield()
			}
			k.Exit(0)
		}); err != nil {
			return err
		}
	}
	k.RunUntilIdle()
	pids, err := collect(k, 3)
	if err != nil {
		return err
	}
	for _, pid := range pids {
		if yields[pid] != 5 {
			return fmt.Errorf("pid %d yielded %d times", pid, yields[pid])
		}
	}
	return nil
}

func pingpongDemo(k *kernel.Kernel) error {
	ch := k.NewChan()
	flag := 0
	seen := 0
	if _, err := k.CreateNamed("ping", func() {
		for flag == 0 {
			k.Sleep(ch)
		}
		seen = flag
		k.Exit(0)
	}); err != nil {
		return err
	}
	if _, err := k.CreateNamed("pong", func() {
		flag = 1
		k.Wakeup(ch)
		k.Exit(0)
	}); err != nil {
		return err
	}
	k.Yield()
	k.RunUntilIdle()
	if seen != 1 {
		return fmt.Errorf("sleeper saw flag=%d", seen)
	}
	return nil
}

// prodconsDemo moves five items through a ten-slot ring.
func prodconsDemo(k *kernel.Kernel) error {
	const size = 10
	ch := k.NewChan()
	var buf [size]int
	count, in, out := 0, 0, 0
	var got []int

	if _, err := k.CreateNamed("producer", func() {
		for i := 0; i < 5; i++ {
			for count == size {
				k.Sleep(ch)
			}
			buf[in] = i
			in = (in + 1) % size
			count++
			k.Wakeup(ch)
		}
		k.Exit(0)
	}); err != nil {
		return err
	}
	if _, err := k.CreateNamed("consumer", func() {
		for i := 0; i < 5; i++ {
			for count == 0 {
				k.Sleep(ch)
			}
			got = append(got, buf[out])
			out = (out + 1) % size
			count--
			k.Wakeup(ch)
		}
		k.Exit(0)
	}); err != nil {
		return err
	}
	k.RunUntilIdle()
	for i, v := range got {
		if v != i {
			return fmt.Errorf("consumed %v", got)
		}
	}
	if len(got) != 5 {
		return fmt.Errorf("consumed %d items", len(got))
	}
	return nil
}

func priorityDemo(k *kernel.Kernel) error {
	if k.Policy() != kernel.PolicyMLFQ {
		return errSkipped
	}
	var done []int
	worker := func() {
		for i := 0; i < 5; i++ {
			k.Yield()
		}
		done = append(done, k.GetPID())
		k.Exit(0)
	}
	high, err := k.CreateNamed("high", worker)
	if err != nil {
		return err
	}
	low, err := k.CreateNamed("low", worker)
	if err != nil {
		return err
	}
	if err := k.SetPriority(high, kernel.PRIORITY_MAX); err != nil {
		return err
	}
	if err := k.SetPriority(low, kernel.PRIORITY_MIN+1); err != nil {
		return err
	}
	k.RunUntilIdle()
	if len(done) != 2 || done[0] != high {
		return fmt.Errorf("completion order %v, want %d before %d", done, high, low)
	}
	return nil
}

func agingDemo(k *kernel.Kernel) error {
	if k.Policy() != kernel.PolicyMLFQ {
		return errSkipped
	}
	stop := false
	var hogErr error
	hog, err := k.CreateNamed("hog", func() {
		hogErr = hogLoop(k, kernel.PRIORITY_MAX, &stop)
	})
	if err != nil {
		return err
	}
	if err := k.SetPriority(hog, kernel.PRIORITY_MAX); err != nil {
		return err
	}

	var lows []int
	for i := 0; i < 2; i++ {
		pid, err := k.CreateNamed(fmt.Sprintf("low%d", i), func() { k.Exit(0) })
		if err != nil {
			return err
		}
		if err := k.SetPriority(pid, kernel.PRIORITY_MIN); err != nil {
			return err
		}
		lows = append(lows, pid)
	}

	for i := 0; i < kernel.AGING_THRESHOLD+2; i++ {
		k.Scheduler()
	}
	for _, pid := range lows {
		info, ok := k.Lookup(pid)
		if !ok || info.QueueLevel >= kernel.MLFQ_LEVELS-1 {
			stop = true
			k.RunUntilIdle()
			return errors.Join(hogErr, fmt.Errorf("pid %d was not promoted", pid))
		}
	}
	stop = true
	k.RunUntilIdle()
	if hogErr != nil {
		return fmt.Errorf("hog: %w", hogErr)
	}
	return nil
}

// hogLoop yields until *stop, re-pinning the caller at priority after every
// slice so demotion never sticks.
func hogLoop(k *kernel.Kernel, priority int, stop *bool) error {
	me := k.GetPID()
	for !*stop {
		k.Yield()
		if err := k.SetPriority(me, priority); err != nil {
			return err
		}
	}
	return nil
}

func collect(k *kernel.Kernel, n int) ([]int, error) {
	var pids []int
	for i := 0; i < n; i++ {
		pid, _, err := k.Wait()
		if err != nil {
			return pids, err
		}
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids, nil
}
