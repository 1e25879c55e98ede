package kernel

import (
	"encoding/binary"
	"fmt"
)

// PageAllocator hands out PGSIZE frames. A zero address means out of memory.
type PageAllocator interface {
	Kalloc() uintptr
	Kfree(pa uintptr)
}

// Kmem is a free-list page allocator over a simulated physical arena. As in
// xv6, each free page stores the address of the next free page in its first
// word.
type Kmem struct {
	lock     Spinlock
	freelist uintptr
	nfree    int

	mem   []byte
	start uintptr
	end   uintptr
}

// NewKmem builds an arena of npages pages starting at KERNBASE and puts
// every page on the free list.
func NewKmem(npages int) *Kmem {
	if npages < 0 {
		panic("kinit: negative arena")
	}
	km := &Kmem{
		mem:   make([]byte, uintptr(npages)*PGSIZE),
		start: KERNBASE,
		end:   PHYSTOP(npages),
	}
	initlock(&km.lock, "kmem")
	km.freerange(km.start, km.end)
	return km
}

func (km *Kmem) freerange(paStart, paEnd uintptr) {
	for p := PGROUNDUP(paStart); p+PGSIZE <= paEnd; p += PGSIZE {
		km.Kfree(p)
	}
}

func (km *Kmem) page(pa uintptr) []byte {
	off := pa - km.start
	return km.mem[off : off+PGSIZE]
}

// Kfree returns the page at pa to the free list.
func (km *Kmem) Kfree(pa uintptr) {
	if PGROUNDDOWN(pa) != pa || pa < km.start || pa >= km.end {
		panic(fmt.Sprintf("kfree: bad address %#x", pa))
	}

	// Fill with junk to catch dangling refs.
	pg := km.page(pa)
	memset(pg, 1, uint(PGSIZE))

	km.lock.Acquire()
	binary.LittleEndian.PutUint64(pg, uint64(km.freelist))
	km.freelist = pa
	km.nfree++
	km.lock.Release()
}

// Kalloc takes one zeroed page off the free list, or returns 0.
func (km *Kmem) Kalloc() uintptr {
	km.lock.Acquire()
	pa := km.freelist
	if pa != 0 {
		km.freelist = uintptr(binary.LittleEndian.Uint64(km.page(pa)))
		km.nfree--
	}
	km.lock.Release()

	if pa != 0 {
		memset(km.page(pa), 0, uint(PGSIZE))
	}
	return pa
}

// FreePages reports how many pages are on the free list.
func (km *Kmem) FreePages() int {
	km.lock.Acquire()
	defer km.lock.Release()
	return km.nfree
}
