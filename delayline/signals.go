package delayline

import (
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/traced"
)

// readSignal reads a float64 delay line, driven by an upstream signal
// producing the delay (in samples) for each tick.
type readSignal struct {
	reader *Reader[float64]
	delay  signal.Signal
}

// Read builds a signal emitting reader's line sampled at whatever delay
// the delay signal produces each tick.
func Read(reader *Reader[float64], delay signal.Signal) signal.Signal {
	return &readSignal{reader: reader, delay: delay}
}

func (s *readSignal) OnBlockStart(ctx *signal.Context) { s.delay.OnBlockStart(ctx) }

func (s *readSignal) Tick(ctx *signal.Context, in float64) float64 {
	d := int(s.delay.Tick(ctx, in))
	return s.reader.Read(d)
}

func (s *readSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.reader.line.ID, Kind: traced.KindDelayLine, Mode: traced.ModeRead, Resource: s.reader.Line()})
	s.delay.TraceSlots(insert)
}

// writeSignal merges an upstream signal's output into a float64 delay
// line every tick and outputs the value unchanged, so it can be chained
// without breaking signal flow (the reference design's write returns
// unit; archtone's Signal always needs an output, so write is
// transparent instead).
type writeSignal struct {
	writer   *Writer[float64]
	upstream signal.Signal
}

// Write builds a signal that writes upstream's output into writer's
// line and passes the value through unchanged.
func Write(writer *Writer[float64], upstream signal.Signal) signal.Signal {
	return &writeSignal{writer: writer, upstream: upstream}
}

func (s *writeSignal) OnBlockStart(ctx *signal.Context) { s.upstream.OnBlockStart(ctx) }

func (s *writeSignal) Tick(ctx *signal.Context, in float64) float64 {
	v := s.upstream.Tick(ctx, in)
	s.writer.Write(v)
	return v
}

func (s *writeSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.writer.line.ID, Kind: traced.KindDelayLine, Mode: traced.ModeWrite, Resource: s.writer.Line()})
	s.upstream.TraceSlots(insert)
}

// readWriteSignal implements feedback recursion: each tick it reads the
// line at a delay from delaySig, then writes valueSig's output into the
// line, in that order, so a delay of 0 observes the slot before this
// tick's write.
type readWriteSignal struct {
	rw       *ReadWriter[float64]
	delaySig signal.Signal
	valueSig signal.Signal
}

// ReadWrite builds a combined read-then-write feedback signal.
func ReadWrite(rw *ReadWriter[float64], delaySig, valueSig signal.Signal) signal.Signal {
	return &readWriteSignal{rw: rw, delaySig: delaySig, valueSig: valueSig}
}

func (s *readWriteSignal) OnBlockStart(ctx *signal.Context) {
	s.delaySig.OnBlockStart(ctx)
	s.valueSig.OnBlockStart(ctx)
}

func (s *readWriteSignal) Tick(ctx *signal.Context, in float64) float64 {
	d := int(s.delaySig.Tick(ctx, in))
	v := s.valueSig.Tick(ctx, in)
	return s.rw.ReadThenWrite(d, v)
}

func (s *readWriteSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.rw.line.ID, Kind: traced.KindDelayLine, Mode: traced.ModeRead, Resource: s.rw.Line()})
	insert(traced.Use{ID: s.rw.line.ID, Kind: traced.KindDelayLine, Mode: traced.ModeWrite, Resource: s.rw.Line()})
	s.delaySig.TraceSlots(insert)
	s.valueSig.TraceSlots(insert)
}
