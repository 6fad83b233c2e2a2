// Package loopspec validates and resolves loop specifications: what
// range of a source to repeat, given either as inclusive sample
// offsets or as inclusive timestamps that get rounded to the source's
// sample rate.
package loopspec

import (
	"errors"
	"fmt"
	"time"

	"github.com/archtone/archtone/archerr"
)

// Sentinel reasons a Spec can fail Validate, wrapped with
// archerr.Validation so callers can test either with errors.Is.
var (
	ErrEmptyLoop      = errors.New("loopspec: loop is empty")
	ErrEndBeforeStart = errors.New("loopspec: loop endpoint is before its start")
	ErrStartAfterEOF  = errors.New("loopspec: loop start is after the end of the audio")
	ErrEndAfterEOF    = errors.New("loopspec: loop endpoint is after the end of the audio")
)

type kind int

const (
	kindNone kind = iota
	kindAll
	kindSamples
	kindTimestamps
)

// Spec tells a source how to loop. The zero value is None: no
// looping. Build one with None, All, Samples, or Timestamps, and
// optionally chain AllowRounding.
//
// Endpoints are inclusive in every variant. For the Timestamps
// variant this matters because the endpoint is effectively a real
// number: an exclusive range needs to be expressed by the caller,
// typically by switching to Samples and subtracting from the
// endpoint.
type Spec struct {
	kind kind

	sampleStart  uint64
	sampleEnd    uint64
	hasSampleEnd bool

	tsStart  time.Duration
	tsEnd    time.Duration
	hasTSEnd bool

	allowRounding bool
}

// None disables looping. It is also the zero value of Spec.
func None() Spec { return Spec{kind: kindNone} }

// All loops over the entire source, start to finish.
func All() Spec { return Spec{kind: kindAll} }

// Samples loops over [start, end] of the source, in samples at the
// source's own rate. hasEnd false means "to the end of the source".
func Samples(start, end uint64, hasEnd bool) Spec {
	return Spec{kind: kindSamples, sampleStart: start, sampleEnd: end, hasSampleEnd: hasEnd}
}

// Timestamps loops over [start, end] of the source, given as
// durations from its beginning. hasEnd false means "to the end of the
// source". Timestamps are rounded down to the nearest sample when
// resolved against a sample rate; see AllowRounding.
func Timestamps(start, end time.Duration, hasEnd bool) Spec {
	return Spec{kind: kindTimestamps, tsStart: start, tsEnd: end, hasTSEnd: hasEnd}
}

// AllowRounding returns a copy of s that tells archtone it may round a
// Timestamps loop off to samples ahead of time if doing so lets it
// skip interpolation. This is a hint, not a guarantee: archtone may
// ignore it, and when honored the rounding is only ever off by a
// couple of samples.
func (s Spec) AllowRounding() Spec {
	s.allowRounding = true
	return s
}

// point represents one loop endpoint once resolved to a sample rate:
// either a specific sample, or "the end of the source", which compares
// greater than every specific sample.
type point struct {
	isEnd  bool
	sample uint64
}

func samplePoint(x uint64) point { return point{sample: x} }

var endPoint = point{isEnd: true}

func comparePoints(a, b point) int {
	switch {
	case a.isEnd && b.isEnd:
		return 0
	case a.isEnd:
		return 1
	case b.isEnd:
		return -1
	case a.sample < b.sample:
		return -1
	case a.sample > b.sample:
		return 1
	default:
		return 0
	}
}

// forceRoundOff returns a copy of s with any Timestamps kind
// converted to Samples by flooring each endpoint's duration to a
// sample count at rate sr. None, All, and Samples pass through
// unchanged.
func (s Spec) forceRoundOff(sr uint64) Spec {
	if s.kind != kindTimestamps {
		return s
	}
	start := uint64(s.tsStart.Seconds() * float64(sr))
	out := Spec{kind: kindSamples, sampleStart: start}
	if s.hasTSEnd {
		out.sampleEnd = uint64(s.tsEnd.Seconds() * float64(sr))
		out.hasSampleEnd = true
	}
	return out
}

// endpointsSamples resolves s to a (start, end) pair of inclusive
// sample points at rate sr, or reports ok=false for None. It returns
// an error if the resolved range is empty or inverted; validating
// that a loop has at least one sample of length is done here rather
// than at construction time so that timestamp rounding has already
// happened.
func (s Spec) endpointsSamples(sr uint64) (start, end point, ok bool, err error) {
	rounded := s.forceRoundOff(sr)

	switch rounded.kind {
	case kindNone:
		return point{}, point{}, false, nil
	case kindAll:
		start, end = samplePoint(0), endPoint
	case kindSamples:
		start = samplePoint(rounded.sampleStart)
		if rounded.hasSampleEnd {
			end = samplePoint(rounded.sampleEnd)
		} else {
			end = endPoint
		}
	default:
		panic("loopspec: forceRoundOff left a Timestamps kind unrounded")
	}

	switch comparePoints(start, end) {
	case 0:
		return point{}, point{}, false, fmt.Errorf("loopspec: %v against rate %d: %w: %w", s, sr, ErrEmptyLoop, archerr.Validation)
	case 1:
		return point{}, point{}, false, fmt.Errorf("loopspec: %v against rate %d: %w: %w", s, sr, ErrEndBeforeStart, archerr.Validation)
	}
	return start, end, true, nil
}

// Endpoints resolves s to inclusive sample offsets at rate sr, for
// callers that need the actual numbers rather than just a validation
// verdict (Validate calls endpointsSamples internally for the same
// checks). ok is false when s is None. end is nil when the loop runs
// to the end of the source rather than a specific sample.
func (s Spec) Endpoints(sr uint64) (start uint64, end *uint64, ok bool, err error) {
	st, en, ok, err := s.endpointsSamples(sr)
	if err != nil || !ok {
		return 0, nil, ok, err
	}
	if en.isEnd {
		return st.sample, nil, true, nil
	}
	e := en.sample
	return st.sample, &e, true, nil
}

// Validate checks s against a source sampled at sr, optionally also
// against a known duration in samples. It rejects empty loops,
// inverted loops, and (when durationSamples is known) loops whose
// start or end point falls past the end of the audio.
func Validate(s Spec, sr uint64, durationSamples *uint64) error {
	// Regardless of anything else, a loop must resolve to at least one
	// sample; this also forces any Timestamps kind to round.
	if _, _, ok, err := s.endpointsSamples(sr); err != nil {
		return err
	} else if !ok {
		return nil
	}

	if durationSamples == nil {
		return nil
	}
	dur := *durationSamples

	switch s.kind {
	case kindNone, kindAll:
		return nil

	case kindSamples:
		end := s.sampleEnd
		if !s.hasSampleEnd {
			end = 0
		} else if end > 0 {
			end--
		}
		if dur == 0 || s.sampleStart >= dur-1 {
			return fmt.Errorf("loopspec: start past end of audio: %w: %w", ErrStartAfterEOF, archerr.Validation)
		}
		if end >= dur {
			return fmt.Errorf("loopspec: endpoint past end of audio: %w: %w", ErrEndAfterEOF, archerr.Validation)
		}
		return nil

	case kindTimestamps:
		gotDur := samplesToDuration(dur, sr)
		end := s.tsEnd
		if !s.hasTSEnd {
			end = 0
		}
		if s.tsStart >= gotDur {
			return fmt.Errorf("loopspec: start past end of audio: %w: %w", ErrStartAfterEOF, archerr.Validation)
		}
		if end >= gotDur {
			return fmt.Errorf("loopspec: endpoint past end of audio: %w: %w", ErrEndAfterEOF, archerr.Validation)
		}
		return nil
	}

	return nil
}

// samplesToDuration converts a sample count at rate sr to a Duration,
// rounding the sub-second remainder up rather than down or to
// nearest: a loop endpoint that lands exactly on the last sample of
// an odd sample rate should still compare as "at or before" the
// source's duration instead of narrowly missing it to a rounding
// error.
func samplesToDuration(samples, sr uint64) time.Duration {
	secs := samples / sr
	rem := samples % sr
	nanos := (rem*uint64(time.Second) + sr - 1) / sr
	return time.Duration(secs)*time.Second + time.Duration(nanos)
}
