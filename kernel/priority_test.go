package kernel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPriorityErrors(t *testing.T) {
	k := newTestKernel(t)
	pid, err := k.CreateProcess(func() {})
	require.NoError(t, err)

	for _, bad := range []int{PRIORITY_MIN - 1, PRIORITY_MAX + 1} {
		err := k.SetPriority(pid, bad)
		assert.ErrorIs(t, err, ErrInvalidPriority)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, -1, Errno(err))
	}

	err = k.SetPriority(pid+100, PRIORITY_DEFAULT)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
	assert.Equal(t, -2, Errno(err))

	_, err = k.GetPriority(pid + 100)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestSetPriorityMapsToLevel(t *testing.T) {
	k := newTestKernel(t)
	pid, err := k.CreateProcess(func() {})
	require.NoError(t, err)

	tests := []struct {
		priority, level, want int
	}{
		{PRIORITY_MAX, 0, PRIORITY_MAX},
		{PRIORITY_MAX - 1, 0, PRIORITY_MAX},
		{PRIORITY_MAX - 2, 1, PRIORITY_DEFAULT},
		{PRIORITY_DEFAULT, 1, PRIORITY_DEFAULT},
		{PRIORITY_DEFAULT - 1, 2, PRIORITY_MIN + 2},
		{PRIORITY_MIN, 2, PRIORITY_MIN + 2},
	}
	for _, tt := range tests {
		require.NoError(t, k.SetPriority(pid, tt.priority))
		got, err := k.GetPriority(pid)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "priority %d", tt.priority)
		dyn, err := k.GetDynamicPriority(pid)
		require.NoError(t, err)
		assert.Equal(t, got, dyn)

		info, _ := k.Lookup(pid)
		assert.Equal(t, tt.level, info.QueueLevel, "priority %d", tt.priority)
		assert.Equal(t, mlfqLevelPriorities[info.QueueLevel], info.Priority)
		assert.Zero(t, info.WaitTime)
		assert.Zero(t, info.QueueTicks)
	}
}

// Same level means same priority, so the wait time decides.
func TestSetPriorityTiesWithinLevel(t *testing.T) {
	k := newTestKernel(t)
	a, err := k.CreateProcess(func() {})
	require.NoError(t, err)
	b, err := k.CreateProcess(func() {})
	require.NoError(t, err)
	require.NoError(t, k.SetPriority(b, PRIORITY_MAX-1))

	k.acquire()
	pa, pb := k.lookup(a), k.lookup(b)
	assert.Equal(t, pa.priority, pb.priority)
	pb.waitTime = 3
	assert.Same(t, pb, k.selectHighestPriority())
	k.release()

	k.RunUntilIdle()
	assert.Len(t, drain(t, k), 2)
}

func TestPromotionUsesLevelTable(t *testing.T) {
	k := newTestKernel(t)
	p := &Proc{pid: 1, queueLevel: MLFQ_LEVELS - 1}
	p.applyLevel()
	assert.Equal(t, PRIORITY_MIN+2, p.priority)

	k.promote(p)
	assert.Equal(t, 1, p.queueLevel)
	assert.Equal(t, PRIORITY_DEFAULT, p.priority)
	k.promote(p)
	k.promote(p)
	assert.Equal(t, 0, p.queueLevel)
	assert.Equal(t, PRIORITY_MAX, p.priority)

	k.demote(p)
	k.demote(p)
	k.demote(p)
	assert.Equal(t, MLFQ_LEVELS-1, p.queueLevel)
}

func TestSetNice(t *testing.T) {
	k := newTestKernel(t)
	pid, err := k.CreateProcess(func() {})
	require.NoError(t, err)

	tests := []struct {
		nice, priority int
	}{
		{0, PRIORITY_DEFAULT},
		{-3, PRIORITY_MIN + 2},
		{4, PRIORITY_DEFAULT},
		{16, PRIORITY_MAX},
		{NICE_MIN, PRIORITY_MIN + 2},
		{NICE_MAX, PRIORITY_MAX},
	}
	for _, tt := range tests {
		require.NoError(t, k.SetNice(pid, tt.nice))
		got, _ := k.GetPriority(pid)
		assert.Equal(t, tt.priority, got, "nice %d", tt.nice)
	}

	assert.ErrorIs(t, k.SetNice(pid, NICE_MAX+1), ErrInvalidNice)
	assert.ErrorIs(t, k.SetNice(pid, NICE_MIN-1), ErrInvalidArgument)
}

func TestDumpProcs(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateNamed("init", func() {})
	require.NoError(t, err)
	_, err = k.CreateNamed("a-name-that-is-far-too-long", func() {})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, k.DumpProcs(&buf))
	out := buf.String()
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "init")
	assert.Contains(t, out, "runnable")
	assert.Contains(t, out, "a-name-that-is-")
	assert.NotContains(t, out, "far-too-long")
}
