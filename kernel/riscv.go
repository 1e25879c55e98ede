package kernel

const PGSIZE = uintptr(4096)

func PGROUNDUP(a uintptr) uintptr   { return (a + PGSIZE - 1) & ^(PGSIZE - 1) }
func PGROUNDDOWN(a uintptr) uintptr { return a & ^(PGSIZE - 1) }
