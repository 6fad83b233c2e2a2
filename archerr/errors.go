// Package archerr defines the error taxonomy shared across archtone:
// validation errors from a mis-composed graph, resource-acquisition
// failures, streaming-runtime faults, and internal "should never happen"
// invariants.
package archerr

import "errors"

// Sentinel kinds. Wrap one with fmt.Errorf("...: %w", Validation) and
// callers can test with errors.Is.
var (
	// Validation marks an error raised by the user composing an invalid
	// graph: duplicate media use, a slot used on the wrong mount, or an
	// invalid loop specification.
	Validation = errors.New("archtone: validation error")

	// ResourceAcquisition marks a failure opening an external resource:
	// a media source, or the output device.
	ResourceAcquisition = errors.New("archtone: resource acquisition error")

	// StreamingRuntime marks a decode error surfacing mid-stream on a
	// background media task. It never reaches the audio thread as an
	// error value; the affected signal goes silent instead.
	StreamingRuntime = errors.New("archtone: streaming runtime error")

	// Internal marks a should-never-happen invariant violation. Code
	// that detects one of these on the audio thread panics rather than
	// trying to continue in an unknown state.
	Internal = errors.New("archtone: internal invariant violation")
)

// Is reports whether err is, or wraps, sentinel.
func Is(err, sentinel error) bool {
	return errors.Is(err, sentinel)
}
