package signal

import "github.com/archtone/archtone/slot"

// Fixed holds the parts of a tick's context that do not reborrow per
// child signal: the current block's slot map and the running
// time-in-blocks counter. It is shared, by pointer, across an entire
// mount's signal tree for the duration of one Tick call.
type Fixed struct {
	Slots     *slot.Map
	BlockTime uint64
}

// Context is threaded down through a signal tree on every call.
// Rust's version carries a separately-reborrowed &mut State and &mut
// Parameters per signal, which Go's type system cannot express without
// either full interface erasure of every intermediate reborrow or a
// second, awkward set of type parameters per combinator. archtone
// resolves this (a recorded Open Question) by having each concrete
// Signal keep its own state and parameters as private struct fields
// instead of values threaded through Context; Context carries only
// what is genuinely shared: Fixed, plus whatever ambient per-call data
// a combinator needs to pass its children (none, currently).
type Context struct {
	Fixed *Fixed
}

// Wrap returns a Context sharing the same Fixed, for handing down to a
// child signal. Since archtone's Context carries no other reborrowed
// state, Wrap is an identity today; it exists so call sites read the
// same way the reference design's ctx.wrap(...) does, and so a future
// per-child field can be added here without touching every combinator.
func (c *Context) Wrap() *Context {
	return &Context{Fixed: c.Fixed}
}

// NewContext creates a root context for a mount's first block.
func NewContext(slots *slot.Map) *Context {
	return &Context{Fixed: &Fixed{Slots: slots}}
}
