package rt

import (
	"fmt"
	"sync/atomic"
)

// maxPoolCapacity matches the spec's u16::MAX-1 bound: slot indices are
// encoded as 1+i in a 32-bit half-word, but the pool is deliberately kept
// small so a packed (index, generation) CAS word stays cheap to reason
// about.
const maxPoolCapacity = 1<<16 - 2

// IndexPool is a fixed-capacity, lock-free MPMC stack of slot indices. It
// hands out and reclaims integer indices (into whatever elements array the
// caller keeps alongside it) without ever blocking. A single 64-bit atomic
// "head" packs a 32-bit slot pointer (0 = empty, 1+i = slot i) with a
// 32-bit generation, so a pop that races a push-then-pop-again of the same
// slot (the classic ABA hazard for a Treiber stack) is detected: the
// generation will have moved on and the racing CAS fails.
type IndexPool struct {
	capacity int
	next     []atomic.Uint32 // next[i]: encoded next-free pointer, same encoding as head
	head     atomic.Uint64
}

func encodeHead(slotPtr, gen uint32) uint64 {
	return uint64(slotPtr)<<32 | uint64(gen)
}

func decodeHead(word uint64) (slotPtr, gen uint32) {
	return uint32(word >> 32), uint32(word)
}

// NewIndexPool creates a pool with the given capacity, all slots initially
// free.
func NewIndexPool(capacity int) *IndexPool {
	if capacity < 0 || capacity > maxPoolCapacity {
		panic(fmt.Sprintf("rt: pool capacity %d exceeds maximum %d", capacity, maxPoolCapacity))
	}
	p := &IndexPool{
		capacity: capacity,
		next:     make([]atomic.Uint32, capacity),
	}
	for i := 0; i < capacity; i++ {
		if i == capacity-1 {
			p.next[i].Store(0)
		} else {
			p.next[i].Store(uint32(i + 2)) // slot i+1, encoded as 1+(i+1)
		}
	}
	if capacity > 0 {
		p.head.Store(encodeHead(1, 0))
	}
	return p
}

// Capacity returns the number of slots the pool was built with.
func (p *IndexPool) Capacity() int { return p.capacity }

// Alloc pops a free slot index. ok is false if the pool is exhausted.
func (p *IndexPool) Alloc() (index int, ok bool) {
	for {
		old := p.head.Load()
		slotPtr, gen := decodeHead(old)
		if slotPtr == 0 {
			return 0, false
		}
		slot := slotPtr - 1
		nextPtr := p.next[slot].Load()
		newWord := encodeHead(nextPtr, gen+1)
		if p.head.CompareAndSwap(old, newWord) {
			return int(slot), true
		}
	}
}

// Free returns index to the pool. Freeing an index not currently allocated
// from this pool, or freeing it twice, corrupts the free list; like the
// source this primitive trades that check for wait-freedom.
func (p *IndexPool) Free(index int) {
	if index < 0 || index >= p.capacity {
		panic("rt: Free index out of range")
	}
	slotPtr := uint32(index + 1)
	for {
		old := p.head.Load()
		headPtr, gen := decodeHead(old)
		p.next[index].Store(headPtr)
		newWord := encodeHead(slotPtr, gen+1)
		if p.head.CompareAndSwap(old, newWord) {
			return
		}
	}
}
