package synth

import (
	"sync/atomic"

	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/tracer"
)

// Mount is one signal tree accepted into the graph: a root signal, the
// slot map built for it at mount time, and the resource graph the
// tracer produced when it was accepted. It materializes once per block
// and runs the block, rather than being re-traced on every tick.
type Mount struct {
	ID    archid.ID
	Graph *tracer.Graph

	root  signal.Signal
	slots *slot.Map

	// slabIndex is this mount's handle into its Synthesizer's
	// mountIndices, released back to the pool when the mount is
	// dropped.
	slabIndex int

	running     atomic.Bool
	pendingDrop atomic.Bool
}

// newMount allocates a Mount from s's mount pager rather than the
// plain heap, and claims a stable slab index for it from s's index
// pool. The slab index is released back to s in Batch.dropPending once
// this mount is actually removed from published state; the pager
// allocation itself is not (see dropPending's doc comment).
func newMount(s *Synthesizer, id archid.ID, root signal.Signal, slots *slot.Map, graph *tracer.Graph) *Mount {
	idx, ok := s.mountIndices.Alloc()
	if !ok {
		panic("synth: mount slab exhausted")
	}

	m := s.mountPager().Alloc()
	m.ID = id
	m.Graph = graph
	m.root = root
	m.slots = slots
	m.slabIndex = idx
	m.running.Store(false)
	m.pendingDrop.Store(false)
	return m
}

// Recursive reports whether this mount contains a delay line that is
// both read and written, meaning it was traced as a feedback mount.
func (m *Mount) Recursive() bool { return m.Graph.Recursive }

// Run advances the mount by exactly signal.BlockSize ticks, writing one
// block's worth of mono samples into out, and returns the context's
// final Fixed.BlockTime (blockTime+1) for the caller to pass to the
// next Run call. len(out) must equal signal.BlockSize.
func (m *Mount) Run(blockTime uint64, out []float64) uint64 {
	if len(out) != signal.BlockSize {
		panic("synth: Mount.Run requires a buffer of exactly signal.BlockSize samples")
	}
	if !m.running.CompareAndSwap(false, true) {
		panic("synth: Mount.Run reentered; a mount's state cell must not be borrowed twice at once")
	}
	defer m.running.Store(false)

	ctx := signal.NewContext(m.slots)
	ctx.Fixed.BlockTime = blockTime

	m.root.OnBlockStart(ctx)
	for i := range out {
		out[i] = m.root.Tick(ctx, 0)
	}

	return blockTime + 1
}

// MarkPendingDrop flags this mount for removal on the next batch,
// mirroring the reference design's pending_drop flag: a mount handle
// going out of scope doesn't remove the mount mid-batch, only queues
// its removal for the next time a batch starts or commits.
func (m *Mount) MarkPendingDrop() { m.pendingDrop.Store(true) }

// IsPendingDrop reports whether MarkPendingDrop has been called.
func (m *Mount) IsPendingDrop() bool { return m.pendingDrop.Load() }
