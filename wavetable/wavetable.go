// Package wavetable stores a fixed, interleaved multichannel sample
// buffer and reads it back at an arbitrary floating-point position with
// truncation, linear, or cubic interpolation, looping or clamping past
// the ends.
package wavetable

import (
	"math"

	"github.com/archtone/archtone/chanfmt"
)

// Table is an immutable, in-memory sample buffer.
type Table struct {
	data       []float32
	format     chanfmt.Format
	sampleRate uint32
	frameCount int
}

// New builds a table from interleaved data already at sampleRate, shaped
// per format. len(data) must be a multiple of format.Channels().
func New(data []float32, format chanfmt.Format, sampleRate uint32) *Table {
	ch := format.Channels()
	if ch <= 0 || len(data)%ch != 0 {
		panic("wavetable: data length is not a multiple of the channel count")
	}
	return &Table{
		data:       data,
		format:     format,
		sampleRate: sampleRate,
		frameCount: len(data) / ch,
	}
}

// ChannelCount reports the table's channel count.
func (t *Table) ChannelCount() int { return t.format.Channels() }

// FrameCount reports how many frames the table holds.
func (t *Table) FrameCount() int { return t.frameCount }

// SampleRate reports the rate the table was authored at.
func (t *Table) SampleRate() uint32 { return t.sampleRate }

// constrainIndex wraps (looping) or clamps (non-looping) a signed frame
// index into [0, frameCount). Looping uses Euclidean modulo so negative
// indices wrap forward instead of truncating toward zero.
func (t *Table) constrainIndex(index int, looping bool) int {
	n := t.frameCount
	if looping {
		r := index % n
		if r < 0 {
			r += n
		}
		return r
	}
	if index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

func (t *Table) sample(frameIndex, channel int) float64 {
	return float64(t.data[frameIndex*t.ChannelCount()+channel])
}

// fillFrame copies frameIndex's samples into dst, zeroing any channels
// dst has beyond the table's own channel count and ignoring any the
// table has beyond len(dst).
func (t *Table) fillFrame(frameIndex int, dst []float64) {
	ch := t.ChannelCount()
	for i := range dst {
		if i < ch {
			dst[i] = t.sample(frameIndex, i)
		} else {
			dst[i] = 0
		}
	}
}

func zero(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
}

// ReadTruncated fills dst with the frame at floor(position), wrapping
// or clamping per looping.
func (t *Table) ReadTruncated(position float64, looping bool, dst []float64) {
	if t.frameCount == 0 {
		zero(dst)
		return
	}
	idx := t.constrainIndex(int(math.Floor(position)), looping)
	t.fillFrame(idx, dst)
}

// ReadLinear fills dst with a linear interpolation between the two
// frames surrounding position. Out-of-range, non-looping positions
// yield silence (the zero frame), matching the reference design.
func (t *Table) ReadLinear(position float64, looping bool, dst []float64) {
	if t.frameCount == 0 {
		zero(dst)
		return
	}
	if !looping && (position < 0.0 || position >= float64(t.frameCount)) {
		zero(dst)
		return
	}

	base := position
	if looping {
		base = euclidModF(position, float64(t.frameCount))
	}
	index := int(math.Floor(base))
	frac := base - float64(index)

	idx0 := t.constrainIndex(index, looping)
	idx1 := t.constrainIndex(index+1, looping)

	ch := t.ChannelCount()
	for i := range dst {
		if i >= ch {
			dst[i] = 0
			continue
		}
		s0 := t.sample(idx0, i)
		s1 := t.sample(idx1, i)
		dst[i] = s0 + (s1-s0)*frac
	}
}

// ReadCubic fills dst with a 4-point Catmull-Rom-style interpolation
// around position. Out-of-range, non-looping positions yield silence.
func (t *Table) ReadCubic(position float64, looping bool, dst []float64) {
	if t.frameCount == 0 {
		zero(dst)
		return
	}
	if !looping && (position < 0.0 || position >= float64(t.frameCount)) {
		zero(dst)
		return
	}

	base := position
	if looping {
		base = euclidModF(position, float64(t.frameCount))
	}
	index := int(math.Floor(base))
	tt := base - float64(index)

	idx0 := t.constrainIndex(index-1, looping)
	idx1 := t.constrainIndex(index, looping)
	idx2 := t.constrainIndex(index+1, looping)
	idx3 := t.constrainIndex(index+2, looping)

	t2 := tt * tt
	t3 := t2 * tt

	ch := t.ChannelCount()
	for i := range dst {
		if i >= ch {
			dst[i] = 0
			continue
		}
		s0 := t.sample(idx0, i)
		s1 := t.sample(idx1, i)
		s2 := t.sample(idx2, i)
		s3 := t.sample(idx3, i)

		a0 := s3 - s2 - s0 + s1
		a1 := s0 - s1 - a0
		a2 := s2 - s0
		a3 := s1

		dst[i] = a0*t3 + a1*t2 + a2*tt + a3
	}
}

// euclidModF is floating-point Euclidean modulo: the result always has
// the same sign as m, matching Rust's f64::rem_euclid.
func euclidModF(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
