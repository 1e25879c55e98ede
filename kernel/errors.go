package kernel

import (
	"errors"
	"fmt"
)

var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrTableFull         = fmt.Errorf("process table full: %w", ErrResourceExhausted)
	ErrOutOfMemory       = fmt.Errorf("out of physical pages: %w", ErrResourceExhausted)

	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidPriority = fmt.Errorf("priority out of range [%d, %d]: %w", PRIORITY_MIN, PRIORITY_MAX, ErrInvalidArgument)
	ErrInvalidNice     = fmt.Errorf("nice out of range [%d, %d]: %w", NICE_MIN, NICE_MAX, ErrInvalidArgument)

	ErrNoSuchProcess = errors.New("no such process")
	ErrNoChildren    = errors.New("no children")
	ErrNoZombie      = errors.New("no exited process to reap")
	ErrKilled        = errors.New("process killed")
)

// Errno maps an error onto the return codes the syscall layer hands back
// to callers: 0 on success, -2 for an unknown pid, -1 otherwise.
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoSuchProcess):
		return -2
	default:
		return -1
	}
}
