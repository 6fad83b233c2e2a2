// Package synth is the control-plane heart of archtone: published,
// versioned graph state the audio thread reads, and the Batch API user
// threads use to build it up one change at a time.
package synth

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/rt"
)

// State is one immutable snapshot of the mount graph, safe to read
// concurrently from any number of goroutines including the audio
// thread.
//
// The reference design additionally chains an older_state pointer
// through every State so that when the audio thread swaps to a new
// published state, the old one's (potentially expensive, recursive)
// Arc-driven destructor is deferred to the next batch rather than run
// synchronously on the audio thread. Go has no destructors: a State
// that becomes unreachable is reclaimed by the garbage collector in
// its own time, on its own goroutine, never by blocking whichever
// thread dropped the last reference. archtone therefore carries no
// older_state chain at all — a resolved Open Question, since the
// problem the chain solves does not exist in Go's memory model.
type State struct {
	mounts pmap[archid.ID, *Mount]
}

func newState() State {
	return State{mounts: newPmap[archid.ID, *Mount]()}
}

// Mount returns the mount bound to id in this snapshot, if any.
func (s State) Mount(id archid.ID) (*Mount, bool) {
	return s.mounts.get(id)
}

// MountCount returns how many mounts this snapshot holds.
func (s State) MountCount() int { return s.mounts.len() }

// EachMount calls fn once per mount in this snapshot, in an
// unspecified order, skipping any already flagged pending-drop — the
// same filter the reference design's audio-thread iteration applies.
func (s State) EachMount(fn func(*Mount)) {
	s.mounts.each(func(_ archid.ID, m *Mount) {
		if !m.IsPendingDrop() {
			fn(m)
		}
	})
}

// mountSlabPageSize is how many Mount slots rt.Pager carves out per
// page as Synthesizer's mount storage grows.
const mountSlabPageSize = 256

// mountSlabCapacity bounds the parallel rt.IndexPool that hands out
// each live mount's stable slab index, mirroring the reference
// design's concurrent_slab.rs, whose FixedSizePool entries are
// themselves u16-indexed (POOL_CAP_LIMIT = u16::MAX-1).
const mountSlabCapacity = 1<<16 - 2

// Synthesizer owns the published graph state and the registry of
// slots created against it. Exactly one Batch may be open at a time;
// Batch() blocks until any other open batch commits or rolls back.
//
// Mount storage itself is backed by the rt.Pager[Mount] reachable
// through pagers (see mountPager), handing out *Mount from a grow-only
// set of fixed pages, and mountIndices, a rt.IndexPool assigning each
// live mount a stable small integer slot — the Go analogue of
// concurrent_slab.rs's SlabState/FixedSizePool pair backing the
// reference design's node and mount storage.
type Synthesizer struct {
	published atomic.Pointer[State]

	batchMu sync.Mutex

	registryMu   sync.Mutex
	slotRegistry map[archid.ID]unsafe.Pointer
	slotOwner    map[archid.ID]archid.ID

	pagers       *rt.Registry
	mountIndices *rt.IndexPool
}

// NewSynthesizer creates a synthesizer with an empty published state.
func NewSynthesizer() *Synthesizer {
	s := &Synthesizer{
		slotRegistry: make(map[archid.ID]unsafe.Pointer),
		slotOwner:    make(map[archid.ID]archid.ID),
		pagers:       rt.NewRegistry(),
		mountIndices: rt.NewIndexPool(mountSlabCapacity),
	}
	st := newState()
	s.published.Store(&st)
	return s
}

// mountPager returns this synthesizer's *rt.Pager[Mount], created on
// first use through the type-keyed registry. Routing Mount's own
// storage through a Registry rather than a dedicated field leaves room
// for a later resource kind (delay line buffers, node state) to share
// the same registry without growing Synthesizer's field list.
func (s *Synthesizer) mountPager() *rt.Pager[Mount] {
	return rt.PagerFor[Mount](s.pagers, mountSlabPageSize)
}

// Load returns the currently published state. Safe to call from the
// audio thread.
func (s *Synthesizer) Load() *State { return s.published.Load() }
