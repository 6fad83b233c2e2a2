// Package delayline implements shared ring-buffer storage for feedback
// and echo effects. A Handle owns the backing slice; independent
// Reader/Writer/ReadWriter connections each keep their own running
// offset into it, exactly like the reference design keeps offset in the
// per-signal state rather than on the shared line itself.
package delayline

import (
	"sync"
	"sync/atomic"

	"github.com/archtone/archtone/archid"
)

// Handle is a delay line's shared storage. It is intended to be driven
// by exactly one chain (or one matched read/write pair) at a time; used
// elsewhere concurrently it does not corrupt memory but the audio
// becomes meaningless, same as the reference design's documented
// contract. A debug guard panics on provably-concurrent access from two
// goroutines at once, which is the failure mode Go can detect cheaply
// that Rust's ExclusiveThreadCell also targets.
type Handle[T any] struct {
	ID archid.ID

	mu    sync.Mutex
	inUse atomic.Bool
	data  []T
}

// New creates a line of the given length, filling each slot from
// factory.
func New[T any](length int, factory func() T) *Handle[T] {
	if length <= 0 {
		panic("delayline: length must be positive")
	}
	data := make([]T, length)
	for i := range data {
		data[i] = factory()
	}
	return &Handle[T]{ID: archid.New(), data: data}
}

// NewDefaulting creates a line filled with T's zero value.
func NewDefaulting[T any](length int) *Handle[T] {
	var zero T
	return New(length, func() T { return zero })
}

// NewCloning creates a line with every slot initialized to value.
func NewCloning[T any](length int, value T) *Handle[T] {
	return New(length, func() T { return value })
}

// Len returns the line's length in frames.
func (h *Handle[T]) Len() int { return len(h.data) }

func (h *Handle[T]) enter() {
	if !h.inUse.CompareAndSwap(false, true) {
		panic("delayline: concurrent access to the same line from two goroutines")
	}
	h.mu.Lock()
}

func (h *Handle[T]) leave() {
	h.mu.Unlock()
	h.inUse.Store(false)
}

// Reader is a read-only connection to a line, tracking its own running
// offset (advances by one every Read call).
type Reader[T any] struct {
	line   *Handle[T]
	offset int
}

// NewReader opens a fresh read connection to line, starting at offset 0.
func NewReader[T any](line *Handle[T]) *Reader[T] { return &Reader[T]{line: line} }

// Line returns the underlying handle, for TraceSlots reporting.
func (r *Reader[T]) Line() any { return r.line }

// Read returns the sample delay frames behind the current write
// position and advances the reader's offset by one. Delay is taken
// modulo the line length, matching the reference design's wraparound
// behaviour instead of bounds-checking.
func (r *Reader[T]) Read(delay int) T {
	line := r.line
	line.enter()
	defer line.leave()

	n := len(line.data)
	d := delay % n
	if d < 0 {
		d += n
	}
	idx := (n + r.offset - d) % n
	val := line.data[idx]
	r.offset = (r.offset + 1) % n
	return val
}

// Merger combines a newly-arriving value into the slot it is written
// to. The default, Overwrite, simply replaces the slot; recursive
// feedback networks often want an additive merger instead.
type Merger[T any] func(dst *T, incoming T)

// Overwrite is the default Merger: dst = incoming.
func Overwrite[T any](dst *T, incoming T) { *dst = incoming }

// Writer is a write-only connection to a line.
type Writer[T any] struct {
	line   *Handle[T]
	merger Merger[T]
	offset int
}

// NewWriter opens a write connection using merger to combine incoming
// values into existing slots (Overwrite for plain replacement).
func NewWriter[T any](line *Handle[T], merger Merger[T]) *Writer[T] {
	if merger == nil {
		merger = Overwrite[T]
	}
	return &Writer[T]{line: line, merger: merger}
}

// Line returns the underlying handle, for TraceSlots reporting.
func (w *Writer[T]) Line() any { return w.line }

// Write merges value into the current write slot and advances.
func (w *Writer[T]) Write(value T) {
	line := w.line
	line.enter()
	defer line.leave()

	n := len(line.data)
	w.merger(&line.data[w.offset], value)
	w.offset = (w.offset + 1) % n
}

// ReadWriter is a combined read-then-write connection used for feedback
// recursion: reading happens before the write lands, so a delay of 0
// returns the slot's previous contents, not the value written in the
// same call.
type ReadWriter[T any] struct {
	line   *Handle[T]
	merger Merger[T]
	offset int
}

// NewReadWriter opens a combined connection to line.
func NewReadWriter[T any](line *Handle[T], merger Merger[T]) *ReadWriter[T] {
	if merger == nil {
		merger = Overwrite[T]
	}
	return &ReadWriter[T]{line: line, merger: merger}
}

// Line returns the underlying handle, for TraceSlots reporting.
func (rw *ReadWriter[T]) Line() any { return rw.line }

// ReadThenWrite reads at offset-delay first, then merges value into the
// current write slot, then advances — in that order, so delay == 0
// observes the slot as it was before this call's write.
func (rw *ReadWriter[T]) ReadThenWrite(delay int, value T) T {
	line := rw.line
	line.enter()
	defer line.leave()

	n := len(line.data)
	d := delay % n
	if d < 0 {
		d += n
	}
	readIdx := (n + rw.offset - d) % n
	result := line.data[readIdx]
	rw.merger(&line.data[rw.offset], value)
	rw.offset = (rw.offset + 1) % n
	return result
}
