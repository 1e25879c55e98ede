package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKallocExhaustsArena(t *testing.T) {
	km := NewKmem(8)
	require.Equal(t, 8, km.FreePages())

	seen := map[uintptr]bool{}
	for i := 0; i < 8; i++ {
		pa := km.Kalloc()
		require.NotZero(t, pa)
		assert.Zero(t, pa%PGSIZE)
		assert.GreaterOrEqual(t, pa, KERNBASE)
		assert.Less(t, pa, PHYSTOP(8))
		assert.False(t, seen[pa])
		seen[pa] = true
	}
	assert.Zero(t, km.Kalloc())
	assert.Zero(t, km.FreePages())

	for pa := range seen {
		km.Kfree(pa)
	}
	assert.Equal(t, 8, km.FreePages())
}

func TestKallocReturnsZeroedPage(t *testing.T) {
	km := NewKmem(2)
	pa := km.Kalloc()
	pg := km.page(pa)
	for i := range pg {
		pg[i] = 0xAA
	}
	km.Kfree(pa)

	again := km.Kalloc()
	assert.Equal(t, pa, again, "free list is LIFO")
	for _, b := range km.page(again) {
		if !assert.Zero(t, b) {
			break
		}
	}
}

func TestKfreeRejectsBadAddresses(t *testing.T) {
	km := NewKmem(2)
	assert.Panics(t, func() { km.Kfree(KERNBASE + 1) })
	assert.Panics(t, func() { km.Kfree(KERNBASE - PGSIZE) })
	assert.Panics(t, func() { km.Kfree(PHYSTOP(2)) })
}

func TestEmptyArena(t *testing.T) {
	km := NewKmem(0)
	assert.Zero(t, km.Kalloc())

	k := newTestKernel(t, WithAllocator(km))
	_, err := k.CreateProcess(func() {})
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
