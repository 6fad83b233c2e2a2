package signal

import (
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/traced"
)

// slotSignal reads a float64 slot's current value once per block and
// hands it out unchanged on every tick of that block, ignoring its own
// input. The reference design additionally tracks whether the value
// changed this block via an update-id comparison; archtone exposes the
// same flag through Changed.
//
// Signal.Tick only ever produces float64, so only float64-valued slots
// can be read as a Signal directly; a slot holding some other control
// value (a loop spec, a channel count) is read through
// slot.Lookup/Load from outside the graph instead, the same way the
// reference design's non-audio-rate slots are read from plain
// synthesizer code rather than ticked.
type slotSignal struct {
	id           slot.Slot[float64]
	cached       float64
	lastUpdateID uint64
	changedBlock bool
}

// Slot reads id's current value from ctx.Fixed.Slots once per block.
// It panics if the mount was never given a slot map containing id —
// the tracer is expected to catch a missing or foreign slot before a
// mount is accepted, so reaching Tick without one is a should-never-
// happen invariant, not a recoverable runtime condition.
func Slot(id slot.Slot[float64]) Signal {
	return &slotSignal{id: id}
}

func (s *slotSignal) OnBlockStart(ctx *Context) {
	c, ok := slot.Lookup[float64](ctx.Fixed.Slots, s.id.ID)
	if !ok {
		panic("signal: slot not bound in this mount's slot map")
	}
	v, updateID := c.Load()
	s.changedBlock = updateID != s.lastUpdateID
	s.lastUpdateID = updateID
	s.cached = v
}

func (s *slotSignal) Tick(ctx *Context, in float64) float64 { return s.cached }

func (s *slotSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.id.ID, Kind: traced.KindSlot, Mode: traced.ModeRead, Resource: s.id})
}

// Changed reports whether the slot's value changed on the most recently
// started block.
func (s *slotSignal) Changed() bool { return s.changedBlock }
