package driver

import "github.com/archtone/archtone/signal"

// ScratchBus is a reusable per-block mono accumulation buffer: every
// mount contributing to a block adds its samples here instead of each
// allocating its own buffer, mirroring the reference design's
// output-buffer splitting, minus its per-call-site generics since Go
// mounts only ever produce mono.
type ScratchBus struct {
	mono   []float64
	mono32 []float32
}

// NewScratchBus allocates a bus sized for exactly one block.
func NewScratchBus() *ScratchBus {
	return &ScratchBus{
		mono:   make([]float64, signal.BlockSize),
		mono32: make([]float32, signal.BlockSize),
	}
}

// Reset zeros the bus ahead of mixing a new block.
func (b *ScratchBus) Reset() {
	for i := range b.mono {
		b.mono[i] = 0
	}
}

// Add mixes one mount's block-sized contribution into the bus.
// contribution must have length signal.BlockSize.
func (b *ScratchBus) Add(contribution []float64) {
	for i, v := range contribution {
		b.mono[i] += v
	}
}

// Mono32 downconverts the accumulated block to float32, the sample
// width chanfmt's converters operate on, and returns it. The returned
// slice is only valid until the next Reset.
func (b *ScratchBus) Mono32() []float32 {
	for i, v := range b.mono {
		b.mono32[i] = float32(v)
	}
	return b.mono32
}
