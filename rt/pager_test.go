package rt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pagerPayload struct {
	a, b int64
}

func TestPagerAllocFreeNoOverlap(t *testing.T) {
	p := NewPager[pagerPayload](4)
	var ptrs []*pagerPayload
	for i := 0; i < 4; i++ {
		ptrs = append(ptrs, p.Alloc())
	}
	assert.Equal(t, 1, p.PageCount())

	set := make(map[*pagerPayload]bool)
	for _, ptr := range ptrs {
		assert.False(t, set[ptr])
		set[ptr] = true
	}

	// A fifth alloc must grow a new page rather than reuse a live slot.
	fifth := p.Alloc()
	assert.False(t, set[fifth])
	assert.Equal(t, 2, p.PageCount())

	for _, ptr := range ptrs {
		p.Free(ptr)
	}
	p.Free(fifth)
}

func TestPagerConcurrentAllocFreeExactCount(t *testing.T) {
	const perGoroutine = 16
	const goroutines = 4
	capacity := perGoroutine * goroutines

	p := NewPager[pagerPayload](capacity)
	var wg sync.WaitGroup
	wg.Add(goroutines)

	allOK := true
	var mu sync.Mutex

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			var mine []*pagerPayload
			for i := 0; i < perGoroutine; i++ {
				mine = append(mine, p.Alloc())
			}
			for _, ptr := range mine {
				ptr.a = 1 // exercise the memory, not just the pointer
			}
			for _, ptr := range mine {
				if ptr.a != 1 {
					mu.Lock()
					allOK = false
					mu.Unlock()
				}
			}
			for _, ptr := range mine {
				p.Free(ptr)
			}
		}()
	}
	wg.Wait()
	assert.True(t, allOK, "a live allocation was overwritten by another allocator")
}

func TestPagerFreeUnknownPointerPanics(t *testing.T) {
	p := NewPager[pagerPayload](4)
	var stray pagerPayload
	assert.Panics(t, func() { p.Free(&stray) })
}

func TestRegistrySeparatesTypesIntoDifferentPagers(t *testing.T) {
	r := NewRegistry()
	ints := PagerFor[int](r, 4)
	strs := PagerFor[string](r, 4)
	assert.NotSame(t, any(ints), any(strs))

	again := PagerFor[int](r, 4)
	assert.Same(t, ints, again)
}
