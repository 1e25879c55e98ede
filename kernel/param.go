package kernel

// Scheduler tunables, a go version of param.h + proc.h.
const (
	NPROC = 32 // maximum number of processes

	PRIORITY_MIN     = 0  // lowest static priority
	PRIORITY_MAX     = 10 // highest static priority
	PRIORITY_DEFAULT = 5

	AGING_THRESHOLD = 10 // scheduler passes a waiting process tolerates before promotion
	MLFQ_LEVELS     = 3  // level 0 is the highest

	NICE_MIN = -20
	NICE_MAX = 19

	NPAGES = 128 // default size of the physical arena, in pages
)
