package signal

import (
	"math"

	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/traced"
)

// DefaultQ is the Q that makes the lowpass/highpass Audio EQ Cookbook
// filters second-order Butterworth sections.
const DefaultQ = 0.7071135624381276

// AlphaKind selects which of the Audio EQ Cookbook's three ways of
// specifying a filter's width is in use.
type AlphaKind int

const (
	AlphaQ AlphaKind = iota
	AlphaBandwidth
	AlphaShelfSlope
)

// Alpha is a tagged union of the cookbook's Q/BW/S width parameters.
// Only lowshelf, highshelf, and peaking accept AlphaShelfSlope; using it
// with another filter kind panics, matching the reference design's
// "expect" on a missing gain parameter.
type Alpha struct {
	Kind  AlphaKind
	Value float64
}

// BandwidthFromHz builds an Alpha{Kind: AlphaBandwidth} spanning
// [midpoint-interval, midpoint+interval], expressed in octaves as the
// cookbook requires.
func BandwidthFromHz(midpoint, interval float64) Alpha {
	min := midpoint - interval
	octaves := interval * 2.0 / min
	return Alpha{Kind: AlphaBandwidth, Value: octaves}
}

func bqOmega0(freq float64) float64 { return 2.0 * math.Pi * freq / float64(SR) }

func bqA(dbGain float64) float64 { return math.Pow(10.0, dbGain/40.0) }

func (a Alpha) compute(omega0 float64, shelfA float64, haveShelfA bool) float64 {
	switch a.Kind {
	case AlphaQ:
		return math.Sin(omega0) / (2.0 * a.Value)
	case AlphaBandwidth:
		return math.Sin(omega0) * math.Sinh(math.Log2(2)*a.Value*omega0/(2.0*math.Sin(omega0)))
	case AlphaShelfSlope:
		if !haveShelfA {
			panic("signal: this filter kind does not support AlphaShelfSlope")
		}
		mul1 := shelfA + 1.0/shelfA
		mul2 := 1.0/a.Value - 1.0
		return math.Sin(omega0) / 2.0 * math.Sqrt(mul1*mul2+2.0)
	default:
		panic("signal: invalid Alpha kind")
	}
}

// BiquadDef is a resolved set of biquad coefficients, factored so a0 and
// b0 are folded into a single gain multiplier the way the reference
// design does to share history between numerator and denominator.
type BiquadDef struct {
	gain, b1, b2, a1, a2 float64
}

func newBiquadDefRaw(b, a [3]float64) BiquadDef {
	return BiquadDef{
		gain: b[0] / a[0],
		b1:   b[1] / b[0],
		b2:   b[2] / b[0],
		a1:   a[1] / a[0],
		a2:   a[2] / a[0],
	}
}

// LowpassDef builds an Audio EQ Cookbook lowpass.
func LowpassDef(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	b1 := 1.0 - math.Cos(omega0)
	b0 := b1 / 2.0
	b2 := b0
	a := alpha.compute(omega0, 0, false)
	a0 := 1.0 + a
	a1 := -2.0 * math.Cos(omega0)
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// HighpassDef builds an Audio EQ Cookbook highpass.
func HighpassDef(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	shared := 1.0 + math.Cos(omega0)
	b0 := shared / 2.0
	b1 := -shared
	b2 := b0
	a := alpha.compute(omega0, 0, false)
	a0 := 1.0 + a
	a1 := -2.0 * math.Cos(omega0)
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// BandpassConstantSkirtDef builds a constant-skirt-gain bandpass; peak
// gain is Q.
func BandpassConstantSkirtDef(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	a := alpha.compute(omega0, 0, false)
	b0 := math.Sin(omega0) / 2.0
	b1 := 0.0
	b2 := -b0
	a0 := 1.0 + a
	a1 := -2.0 * math.Cos(omega0)
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// BandpassPeak0Def builds a bandpass with 0dB peak gain.
func BandpassPeak0Def(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	a := alpha.compute(omega0, 0, false)
	b0 := a
	b1 := 0.0
	b2 := -a
	a0 := 1.0 + a
	a1 := -2.0 * math.Cos(omega0)
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// NotchDef builds the cookbook's notch filter.
func NotchDef(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	a := alpha.compute(omega0, 0, false)
	b0 := 1.0
	b1 := -2.0 * math.Cos(omega0)
	b2 := 1.0
	a0 := 1.0 + a
	a1 := b1
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// AllpassDef builds the cookbook's allpass filter.
func AllpassDef(frequency float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	a := alpha.compute(omega0, 0, false)
	b0 := 1.0 - a
	b1 := -2.0 * math.Cos(omega0)
	b2 := 1.0 + a
	a0 := b2
	a1 := b1
	a2 := 1.0 - a
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// PeakingDef builds the cookbook's peaking EQ; alpha may use
// AlphaShelfSlope.
func PeakingDef(frequency, dbGain float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	shelfA := bqA(dbGain)
	a := alpha.compute(omega0, shelfA, true)
	b0 := 1.0 + a*shelfA
	b1 := -2.0 * math.Cos(omega0)
	b2 := 1.0 - a*shelfA
	a0 := 1.0 + a/shelfA
	a1 := b1
	a2 := 1.0 - a/shelfA
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// LowshelfDef builds the cookbook's lowshelf; alpha may use
// AlphaShelfSlope.
func LowshelfDef(frequency, dbGain float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	shelfA := bqA(dbGain)
	a := alpha.compute(omega0, shelfA, true)
	cos := math.Cos(omega0)
	sq := 2.0 * math.Sqrt(shelfA) * a
	b0 := shelfA * ((shelfA + 1.0) - (shelfA-1.0)*cos + sq)
	b1 := 2.0 * shelfA * ((shelfA - 1.0) - (shelfA+1.0)*cos)
	b2 := shelfA * ((shelfA + 1.0) - (shelfA-1.0)*cos - sq)
	a0 := (shelfA + 1.0) + (shelfA-1.0)*cos + sq
	a1 := -2.0 * ((shelfA - 1.0) + (shelfA+1.0)*cos)
	a2 := (shelfA + 1.0) + (shelfA-1.0)*cos - sq
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// HighshelfDef builds the cookbook's highshelf; alpha may use
// AlphaShelfSlope.
func HighshelfDef(frequency, dbGain float64, alpha Alpha) BiquadDef {
	omega0 := bqOmega0(frequency)
	shelfA := bqA(dbGain)
	a := alpha.compute(omega0, shelfA, true)
	cos := math.Cos(omega0)
	sq := 2.0 * math.Sqrt(shelfA) * a
	b0 := shelfA * ((shelfA + 1.0) + (shelfA-1.0)*cos + sq)
	b1 := -2.0 * shelfA * ((shelfA - 1.0) + (shelfA+1.0)*cos)
	b2 := shelfA * ((shelfA + 1.0) + (shelfA-1.0)*cos - sq)
	a0 := (shelfA + 1.0) - (shelfA-1.0)*cos + sq
	a1 := 2.0 * ((shelfA - 1.0) - (shelfA+1.0)*cos)
	a2 := (shelfA + 1.0) - (shelfA-1.0)*cos - sq
	return newBiquadDefRaw([3]float64{b0, b1, b2}, [3]float64{a0, a1, a2})
}

// FrequencyResponse returns the filter's complex gain at frequency, in
// Hz, useful for testing filter shape without running full audio.
func (d BiquadDef) FrequencyResponse(frequency float64) complex128 {
	omega := bqOmega0(frequency)
	zInv := cmplxExpInv(omega)
	num := complex(d.gain, 0) * (1 + complex(d.b1, 0)*zInv + complex(d.b2, 0)*zInv*zInv)
	den := 1 + complex(d.a1, 0)*zInv + complex(d.a2, 0)*zInv*zInv
	return num / den
}

func cmplxExpInv(omega float64) complex128 {
	// 1 / exp(i*omega) == exp(-i*omega) == cos(omega) - i*sin(omega)
	return complex(math.Cos(-omega), math.Sin(-omega))
}

// biquadSignal is a mono biquad filter section, direct form 2 with a
// single two-sample history shared between the numerator and
// denominator convolutions.
type biquadSignal struct {
	def     BiquadDef
	history [2]float64
}

// Biquad returns a Signal applying def to its input stream.
func Biquad(def BiquadDef) Signal {
	return &biquadSignal{def: def}
}

func (s *biquadSignal) OnBlockStart(ctx *Context) {}

func (s *biquadSignal) Tick(ctx *Context, in float64) float64 {
	d := s.def
	withGain := in * d.gain
	recursive := withGain - d.a1*s.history[0] - d.a2*s.history[1]
	out := recursive + d.b1*s.history[0] + d.b2*s.history[1]
	s.history[1] = s.history[0]
	s.history[0] = recursive
	return out
}

func (s *biquadSignal) TraceSlots(insert traced.Inserter) {}

// biquadSlotLowpassSignal is a lowpass biquad whose cutoff and Q are
// read from slots and recomputed into fresh coefficients once per
// block, rather than fixed at construction time the way biquadSignal's
// def is. A slot read that yields a non-positive Q falls back to
// DefaultQ instead of producing an unstable filter.
type biquadSlotLowpassSignal struct {
	cutoff  slot.Slot[float64]
	q       slot.Slot[float64]
	def     BiquadDef
	history [2]float64
}

// BiquadSlotLowpass returns a lowpass biquad that recomputes its
// BiquadDef from cutoff and q's current values at the start of every
// block, the slot-driven counterpart to Biquad's fixed BiquadDef.
func BiquadSlotLowpass(cutoff, q slot.Slot[float64]) Signal {
	return &biquadSlotLowpassSignal{cutoff: cutoff, q: q}
}

func (s *biquadSlotLowpassSignal) OnBlockStart(ctx *Context) {
	s.def = LowpassDef(s.loadSlot(ctx, s.cutoff), s.loadQ(ctx))
}

func (s *biquadSlotLowpassSignal) loadSlot(ctx *Context, id slot.Slot[float64]) float64 {
	c, ok := slot.Lookup[float64](ctx.Fixed.Slots, id.ID)
	if !ok {
		panic("signal: slot not bound in this mount's slot map")
	}
	v, _ := c.Load()
	return v
}

func (s *biquadSlotLowpassSignal) loadQ(ctx *Context) Alpha {
	q := s.loadSlot(ctx, s.q)
	if q <= 0 {
		q = DefaultQ
	}
	return Alpha{Kind: AlphaQ, Value: q}
}

func (s *biquadSlotLowpassSignal) Tick(ctx *Context, in float64) float64 {
	d := s.def
	withGain := in * d.gain
	recursive := withGain - d.a1*s.history[0] - d.a2*s.history[1]
	out := recursive + d.b1*s.history[0] + d.b2*s.history[1]
	s.history[1] = s.history[0]
	s.history[0] = recursive
	return out
}

func (s *biquadSlotLowpassSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.cutoff.ID, Kind: traced.KindSlot, Mode: traced.ModeRead, Resource: s.cutoff})
	insert(traced.Use{ID: s.q.ID, Kind: traced.KindSlot, Mode: traced.ModeRead, Resource: s.q})
}
