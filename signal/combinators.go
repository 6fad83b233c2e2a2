package signal

import "github.com/archtone/archtone/traced"

// constSignal always outputs a fixed value, ignoring its input.
type constSignal struct{ value float64 }

// Const returns a signal that outputs value every tick.
func Const(value float64) Signal { return &constSignal{value: value} }

func (s *constSignal) OnBlockStart(ctx *Context)              {}
func (s *constSignal) Tick(ctx *Context, in float64) float64  { return s.value }
func (s *constSignal) TraceSlots(insert traced.Inserter)      {}

// scaleSignal multiplies its upstream's output by a fixed factor.
type scaleSignal struct {
	upstream Signal
	factor   float64
}

// Scale multiplies upstream's output by factor every tick.
func Scale(upstream Signal, factor float64) Signal {
	return &scaleSignal{upstream: upstream, factor: factor}
}

func (s *scaleSignal) OnBlockStart(ctx *Context) { s.upstream.OnBlockStart(ctx) }

func (s *scaleSignal) Tick(ctx *Context, in float64) float64 {
	return s.upstream.Tick(ctx, in) * s.factor
}

func (s *scaleSignal) TraceSlots(insert traced.Inserter) { s.upstream.TraceSlots(insert) }

// andThenSignal feeds in through first, then feeds first's output into
// second as second's input.
type andThenSignal struct {
	first, second Signal
}

// AndThen composes two signals so first's output becomes second's input.
func AndThen(first, second Signal) Signal {
	return &andThenSignal{first: first, second: second}
}

func (s *andThenSignal) OnBlockStart(ctx *Context) {
	s.first.OnBlockStart(ctx)
	s.second.OnBlockStart(ctx)
}

func (s *andThenSignal) Tick(ctx *Context, in float64) float64 {
	mid := s.first.Tick(ctx, in)
	return s.second.Tick(ctx, mid)
}

func (s *andThenSignal) TraceSlots(insert traced.Inserter) {
	s.first.TraceSlots(insert)
	s.second.TraceSlots(insert)
}

// mapSignal applies a plain function to upstream's output.
type mapSignal struct {
	upstream Signal
	f        func(float64) float64
}

// Map applies f to upstream's output every tick.
func Map(upstream Signal, f func(float64) float64) Signal {
	return &mapSignal{upstream: upstream, f: f}
}

func (s *mapSignal) OnBlockStart(ctx *Context) { s.upstream.OnBlockStart(ctx) }

func (s *mapSignal) Tick(ctx *Context, in float64) float64 {
	return s.f(s.upstream.Tick(ctx, in))
}

func (s *mapSignal) TraceSlots(insert traced.Inserter) { s.upstream.TraceSlots(insert) }

// Signal2 is a two-channel analogue of Signal, used by Zip2/Split2 to
// move a stereo pair through the graph as a single node instead of two
// independently-clocked mono signals.
type Signal2 interface {
	OnBlockStart(ctx *Context)
	Tick(ctx *Context, in Frame2) Frame2
	TraceSlots(insert traced.Inserter)
}

type zip2Signal struct {
	left, right Signal
}

// Zip2 combines two mono signals into one signal producing stereo
// pairs, each side fed the corresponding channel of the shared input.
func Zip2(left, right Signal) Signal2 { return &zip2Signal{left: left, right: right} }

func (s *zip2Signal) OnBlockStart(ctx *Context) {
	s.left.OnBlockStart(ctx)
	s.right.OnBlockStart(ctx)
}

func (s *zip2Signal) Tick(ctx *Context, in Frame2) Frame2 {
	return Frame2{s.left.Tick(ctx, in[0]), s.right.Tick(ctx, in[1])}
}

func (s *zip2Signal) TraceSlots(insert traced.Inserter) {
	s.left.TraceSlots(insert)
	s.right.TraceSlots(insert)
}

type splitChannel struct {
	upstream Signal2
	channel  int
	cached   Frame2
	stale    bool
}

// Split2 fans a stereo signal out into two independently-tickable mono
// signals. Both must be ticked once per sample for correct behaviour:
// whichever is ticked first for a given sample advances the shared
// upstream and caches the result; the other reads the cache.
func Split2(upstream Signal2) (left, right Signal) {
	shared := &splitChannel{upstream: upstream, stale: true}
	l := &splitView{shared: shared, channel: 0}
	r := &splitView{shared: shared, channel: 1}
	return l, r
}

type splitView struct {
	shared  *splitChannel
	channel int
}

func (v *splitView) OnBlockStart(ctx *Context) {
	if v.channel == 0 {
		v.shared.upstream.OnBlockStart(ctx)
	}
}

func (v *splitView) Tick(ctx *Context, in float64) float64 {
	s := v.shared
	if s.stale {
		s.cached = s.upstream.Tick(ctx, Frame2{in, in})
		s.stale = false
	}
	out := s.cached[v.channel]
	if v.channel == 1 {
		s.stale = true // both channels have now been read for this sample
	}
	return out
}

func (v *splitView) TraceSlots(insert traced.Inserter) {
	if v.channel == 0 {
		v.shared.upstream.TraceSlots(insert)
	}
}
