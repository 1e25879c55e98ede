package kernel

// Physical memory layout
//
// qemu -machine virt jumps to 0x80000000 and the kernel used to hand out
// pages from the end of its bss up to PHYSTOP. Here the page area is a
// simulated arena that starts at KERNBASE and is sized at boot:
//
// KERNBASE              -- first allocatable page
// KERNBASE + n*PGSIZE   -- PHYSTOP for an arena of n pages
const KERNBASE = uintptr(0x80000000)

func PHYSTOP(npages int) uintptr { return KERNBASE + uintptr(npages)*PGSIZE }
