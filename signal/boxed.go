package signal

import "github.com/archtone/archtone/traced"

// Boxed erases a concrete signal's type. In the reference design this
// matters: BoxedSignal<I, O> exists specifically to let recursive graphs
// and heterogeneous children compile at all under a trait-based generic
// system. A Go interface value is already a fat pointer (type + data)
// with no monomorphization step to escape, so Signal values are boxed
// by nature — Boxed here is a thin, explicit wrapper kept only so
// mount-building code can mark "this subtree's concrete type no longer
// matters past this point" the same way the reference design's call
// sites do, and so a future non-trivial erasure concern (e.g. pooling)
// has somewhere to live.
type Boxed struct {
	inner Signal
}

// Box wraps sig for storage in a heterogeneous collection.
func Box(sig Signal) Boxed { return Boxed{inner: sig} }

func (b Boxed) OnBlockStart(ctx *Context) { b.inner.OnBlockStart(ctx) }

func (b Boxed) Tick(ctx *Context, in float64) float64 { return b.inner.Tick(ctx, in) }

func (b Boxed) TraceSlots(insert traced.Inserter) { b.inner.TraceSlots(insert) }

// Unwrap returns the underlying concrete signal.
func (b Boxed) Unwrap() Signal { return b.inner }
