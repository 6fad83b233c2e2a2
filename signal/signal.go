// Package signal is the audio graph's unit of computation: stateful
// generators, filters, and combinators composed into trees that a mount
// ticks one sample at a time.
//
// The reference design this is ported from gives Signal::tick a
// compile-time block count N, so the compiler can unroll per-block inner
// loops while recursive (feedback-bearing) subtrees fall back to N=1.
// Go has no const generics, and the Go compiler does not reward manual
// loop unrolling the way a monomorphizing Rust compiler does (escape
// analysis and inlining already make a tight single-sample loop cheap).
// archtone therefore always ticks one sample at a time; mounts simply
// call Tick BlockSize times per block regardless of whether the mount is
// recursive. This is recorded as a resolved Open Question in DESIGN.md.
package signal

import "github.com/archtone/archtone/traced"

// BlockSize is the number of samples a mount advances between
// OnBlockStart calls.
const BlockSize = 256

// SR is the engine's internal sample rate in Hz.
const SR = 48000

// Signal is a single-input, single-output node in the audio graph.
// Concrete signal types keep their own state as fields (often behind a
// pointer so Tick can mutate it) rather than threading a separate state
// type through the interface; see Context for why no state is
// reborrowed through it.
type Signal interface {
	// OnBlockStart runs once every BlockSize ticks, before the first
	// tick of the block. Signals that read slots refresh their cached
	// value here.
	OnBlockStart(ctx *Context)

	// Tick consumes one input sample and produces one output sample.
	Tick(ctx *Context, in float64) float64

	// TraceSlots reports every slot, delay line, or media resource this
	// signal (and its children) touches, by calling insert once per
	// resource. The tracer uses this to build the dependency graph
	// before a mount is accepted.
	TraceSlots(insert traced.Inserter)
}

// Source is a Signal that ignores its input; the common case for
// generators (oscillators, noise, constants).
type Source interface {
	Signal
}

// Frame2 is a two-channel (typically stereo) sample pair, the output of
// Zip2 and the input of Split2.
type Frame2 [2]float64
