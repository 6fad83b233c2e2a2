// Package archid allocates the 64-bit unique identifiers used throughout
// archtone to address mounts, slots, delay lines, media handles, and graph
// nodes.
package archid

import "sync/atomic"

var counter atomic.Uint64

// ID is a non-zero, monotonically increasing identifier. The zero value is
// never allocated, so it can double as an "unset" sentinel.
type ID uint64

// New allocates the next ID. Exhausting the 64-bit space is not something
// any realistic process will do in one run; if it ever happens the process
// is in a state nothing downstream can reason about, so this panics rather
// than silently wrapping into reuse.
func New() ID {
	v := counter.Add(1)
	if v == 0 {
		panic("archid: identifier space exhausted")
	}
	return ID(v)
}

// Valid reports whether id was produced by New.
func (id ID) Valid() bool {
	return id != 0
}
