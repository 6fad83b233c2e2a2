package synth

import (
	"fmt"
	"unsafe"

	"github.com/archtone/archtone/archerr"
	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/tracer"
)

// Batch is an exclusive session of control-plane changes: create or
// update slots, mount or drop signal trees. Nothing is visible to the
// audio thread until Commit publishes the accumulated State; Rollback
// discards it instead. The reference design publishes implicitly when
// a Batch value drops; Go has no destructors, so archtone makes that
// step an explicit method instead — a resolved Open Question.
type Batch struct {
	synth *Synthesizer
	state State
	done  bool
}

// Batch opens an exclusive batch, blocking until any batch already
// open on s commits or rolls back.
func (s *Synthesizer) Batch() *Batch {
	s.batchMu.Lock()
	b := &Batch{synth: s, state: *s.published.Load()}
	b.dropPending()
	return b
}

// dropPending removes every mount flagged pending-drop from the
// batch's working state, releases the slots it had claimed, and
// returns its slab index to the synthesizer's index pool, the way the
// reference design's handle_pending_drops runs both when a batch opens
// (catching drops queued since the last batch) and again just before
// it commits (catching drops made during the batch).
//
// The mount's own backing memory, allocated from the synthesizer's
// mount pager, is deliberately never returned to that pager here: Go
// has no Arc-style refcount to tell us the last *Mount handle has gone
// away, and reusing the bitset slot immediately would let a later
// Mount call hand back the very same pointer a caller might still be
// holding from before the drop, silently aliasing two logically
// distinct mounts. Only the lightweight integer slab index is recycled
// through mountIndices; the pager trades unbounded page growth over a
// long-running process for never aliasing a stale handle, a resolved
// Open Question recorded in DESIGN.md.
func (b *Batch) dropPending() {
	var dead []*Mount
	b.state.mounts.each(func(_ archid.ID, m *Mount) {
		if m.IsPendingDrop() {
			dead = append(dead, m)
		}
	})
	if len(dead) == 0 {
		return
	}

	b.synth.registryMu.Lock()
	defer b.synth.registryMu.Unlock()
	for _, m := range dead {
		b.state.mounts = b.state.mounts.without(m.ID)
		for slotID, owner := range b.synth.slotOwner {
			if owner == m.ID {
				delete(b.synth.slotOwner, slotID)
			}
		}
		b.synth.mountIndices.Free(m.slabIndex)
	}
}

// Commit publishes the batch's accumulated state and releases the
// synthesizer for the next Batch call. A Batch must not be used again
// after Commit.
func (b *Batch) Commit() {
	if b.done {
		panic("synth: batch already committed or rolled back")
	}
	b.dropPending()
	st := b.state
	b.synth.published.Store(&st)
	b.done = true
	b.synth.batchMu.Unlock()
}

// Rollback discards the batch's accumulated state without publishing
// it and releases the synthesizer for the next Batch call.
func (b *Batch) Rollback() {
	if b.done {
		panic("synth: batch already committed or rolled back")
	}
	b.done = true
	b.synth.batchMu.Unlock()
}

// CreateSlot allocates a fresh slot holding initial, usable by any
// signal tree mounted later through this synthesizer. It is a free
// function, not a Batch method, because Go methods cannot introduce
// their own type parameters.
func CreateSlot[T any](b *Batch, initial T) slot.Slot[T] {
	c := slot.NewContainer(initial)
	id := archid.New()

	b.synth.registryMu.Lock()
	b.synth.slotRegistry[id] = unsafe.Pointer(c)
	b.synth.registryMu.Unlock()

	return slot.Slot[T]{ID: id}
}

func containerFor[T any](b *Batch, id archid.ID) *slot.Container[T] {
	b.synth.registryMu.Lock()
	defer b.synth.registryMu.Unlock()
	p, ok := b.synth.slotRegistry[id]
	if !ok {
		panic("synth: slot was not created through this synthesizer")
	}
	return (*slot.Container[T])(p)
}

// ReplaceSlot installs v as s's new value outright. Routed through
// Batch for call-site symmetry with CreateSlot/Mount, though the
// underlying Container swap needs no batch exclusivity of its own.
func ReplaceSlot[T any](b *Batch, s slot.Slot[T], v T) {
	containerFor[T](b, s.ID).Replace(v)
}

// MutateSlot applies fn to a copy of s's current value and installs
// the result.
func MutateSlot[T any](b *Batch, s slot.Slot[T], fn func(*T)) {
	containerFor[T](b, s.ID).Mutate(fn)
}

// Mount traces root, validates its resource usage, and adds it to the
// batch's working state. Every slot root's tree references must have
// been created through this synthesizer and must not already be
// claimed by a different, still-live mount — reusing a slot across two
// mounts is a validation error, not a data race, since each mount
// binds its own private slot.Map at mount time.
func Mount(b *Batch, root signal.Signal) (*Mount, error) {
	graph, err := tracer.Trace(root, nil)
	if err != nil {
		return nil, err
	}

	id := archid.New()

	b.synth.registryMu.Lock()
	defer b.synth.registryMu.Unlock()

	mountSlots := slot.NewMap()
	for _, use := range graph.Slots() {
		ptr, ok := b.synth.slotRegistry[use.ID]
		if !ok {
			return nil, fmt.Errorf("synth: slot %d was not created through this synthesizer: %w", use.ID, archerr.Validation)
		}
		if owner, claimed := b.synth.slotOwner[use.ID]; claimed && owner != id {
			return nil, fmt.Errorf("synth: slot %d is already owned by another mount: %w", use.ID, archerr.Validation)
		}
		slot.BindErased(mountSlots, use.ID, ptr)
	}
	for _, use := range graph.Slots() {
		b.synth.slotOwner[use.ID] = id
	}

	m := newMount(b.synth, id, root, mountSlots, graph)
	b.state.mounts = b.state.mounts.with(m.ID, m)
	return m, nil
}
