// Package slot implements the control-plane value cells that let user
// threads push new parameter values into a running audio graph without
// locks: a Slot is an identity, a Container holds the current value
// behind an atomic pointer swap, and a Map lets a mount's signals look
// their container up by id.
package slot

import (
	"sync/atomic"
	"unsafe"

	"github.com/archtone/archtone/archid"
)

// Slot is a typed handle to a value a mounted signal tree can read.
// Slot itself carries no data; Batch.Slot creates the backing Container
// and returns the handle that signals close over.
type Slot[T any] struct {
	ID archid.ID
}

// Container is the control-plane side of a slot: the current value
// plus the update id that changed when it was last written. Reads and
// writes never block each other; a write swaps in a new immutable
// value behind an unsafe.Pointer, and a read loads the pointer.
type Container[T any] struct {
	value    atomic.Pointer[T]
	updateID atomic.Uint64
}

// NewContainer creates a container holding initial.
func NewContainer[T any](initial T) *Container[T] {
	c := &Container[T]{}
	v := initial
	c.value.Store(&v)
	c.updateID.Store(1)
	return c
}

// Replace installs a new value outright, regenerating the update id.
func (c *Container[T]) Replace(v T) {
	val := v
	c.value.Store(&val)
	c.updateID.Add(1)
}

// Mutate reads the current value, applies fn to a copy, and installs the
// result, regenerating the update id. The reference design uses
// Arc::make_mut to decide between an in-place mutation and a clone
// depending on the arc's unique count; Go has no refcount to inspect, so
// Mutate always copies — simpler, and correct, at the cost of always
// paying the copy even when nothing else holds a reference.
func (c *Container[T]) Mutate(fn func(*T)) {
	cur := *c.value.Load()
	fn(&cur)
	c.value.Store(&cur)
	c.updateID.Add(1)
}

// Load returns the current value and its update id.
func (c *Container[T]) Load() (T, uint64) {
	return *c.value.Load(), c.updateID.Load()
}

// UpdateID returns the current update id without loading the value.
func (c *Container[T]) UpdateID() uint64 { return c.updateID.Load() }

// Map is the per-mount lookup table from slot id to its Container,
// handed to signals through Fixed. It is built once at mount time and
// never mutated afterwards (new slots require a new mount), so lookups
// need no locking.
type Map struct {
	entries map[archid.ID]unsafe.Pointer
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[archid.ID]unsafe.Pointer)}
}

// Bind registers c under id. Panics if id is already bound, matching the
// spec's "a slot used with a different mount than the one that owns it
// yields an error at mount time" — binding happens once, at mount
// validation, not on the audio thread.
func Bind[T any](m *Map, id archid.ID, c *Container[T]) {
	if _, ok := m.entries[id]; ok {
		panic("slot: id already bound in this mount's slot map")
	}
	m.entries[id] = unsafe.Pointer(c)
}

// Lookup returns the container bound to id, or nil and false if this
// mount never bound it (the "slot from a different mount" error case,
// which callers should surface as archerr.Validation rather than panic).
func Lookup[T any](m *Map, id archid.ID) (*Container[T], bool) {
	p, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return (*Container[T])(p), true
}

// Contains reports whether id is bound in m, without needing its value
// type. The tracer uses this to catch a slot from a different mount
// before the graph is accepted, since Lookup's generic parameter isn't
// known at trace time.
func (m *Map) Contains(id archid.ID) bool {
	_, ok := m.entries[id]
	return ok
}

// BindErased registers the container behind ptr under id without
// needing its value type statically. Package synth tracks slot
// containers as type-erased pointers across slot creation and
// mount-time binding, since the tracer only reports a slot's id, not
// its T; ptr must have been produced by unsafe.Pointer(c) for some
// *Container[T] whose T matches what callers will later Lookup[T] with.
func BindErased(m *Map, id archid.ID, ptr unsafe.Pointer) {
	if _, ok := m.entries[id]; ok {
		panic("slot: id already bound in this mount's slot map")
	}
	m.entries[id] = ptr
}
