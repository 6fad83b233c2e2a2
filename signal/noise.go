package signal

import "github.com/archtone/archtone/traced"

// splitMix64 seeds the xoroshiro state, matching how the reference
// design seeds FastXoroshiro128PlusPlus from a single u64 via
// rand_xoshiro::SplitMix64.
type splitMix64 struct{ state uint64 }

func (s *splitMix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func rotl(x uint64, k uint) uint64 { return (x << k) | (x >> (64 - k)) }

// xoroshiro128PlusPlus is a scalar port of the reference design's
// FastXoroshiro128PlusPlus. The original is generic over a lane count N
// and unrolls N independent generators for throughput; Go has no const
// generics to express that, and a single scalar generator is plenty
// fast for one noise signal ticking one sample at a time, so archtone
// keeps only the N=1 case (a resolved Open Question).
type xoroshiro128PlusPlus struct {
	s0, s1 uint64
}

func newXoroshiro128PlusPlus(seed uint64) *xoroshiro128PlusPlus {
	sm := &splitMix64{state: seed}
	return &xoroshiro128PlusPlus{s0: sm.next(), s1: sm.next()}
}

func (g *xoroshiro128PlusPlus) nextU64() uint64 {
	s0 := g.s0
	s1 := g.s1
	result := rotl(s0+s1, 17) + s0
	s1 ^= s0
	g.s0 = rotl(s0, 49) ^ s1 ^ (s1 << 21)
	g.s1 = rotl(s1, 28)
	return result
}

// nextFloat produces a value uniformly distributed in [-1.0, 1.0),
// using the top 53 bits of the generator for a double's worth of
// precision.
func (g *xoroshiro128PlusPlus) nextFloat() float64 {
	bits := g.nextU64() >> 11
	return (float64(bits)/float64(uint64(1)<<53))*2.0 - 1.0
}

type noiseSignal struct {
	gen *xoroshiro128PlusPlus
}

// NoiseSource returns a Signal that ignores its input and emits
// uniformly distributed samples in [-1.0, 1.0), seeded from seed. It
// exists so noise generation does not contend on math/rand's global
// lock on the audio thread; each NoiseSource owns its own generator
// state, consistent with the rest of the graph's lock-free discipline.
func NoiseSource(seed uint64) Signal {
	return &noiseSignal{gen: newXoroshiro128PlusPlus(seed)}
}

func (s *noiseSignal) OnBlockStart(ctx *Context) {}

func (s *noiseSignal) Tick(ctx *Context, in float64) float64 { return s.gen.nextFloat() }

func (s *noiseSignal) TraceSlots(insert traced.Inserter) {}
