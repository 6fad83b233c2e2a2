// Package driver is the audio thread's front end: it owns the render
// callback handed to whichever output backend is in play, pulls one
// block at a time from a synth.Synthesizer's mounts, mixes them into a
// mono scratch bus, converts that to the device's channel format, and
// serves arbitrarily sized device reads out of an accumulator sized to
// smooth over the mismatch between archtone's fixed block size and
// whatever chunk size the backend actually asks for.
package driver

import (
	"fmt"

	"github.com/archtone/archtone/archlog"
	"github.com/archtone/archtone/chanfmt"
	"github.com/archtone/archtone/rt"
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/synth"
	"github.com/archtone/archtone/worker"
)

// accumulatorBlocks is how many blocks of headroom the device-side
// accumulator carries. Render refills it one block at a time whenever
// it runs empty, so one Render call renders as many blocks as its
// request needs.
const accumulatorBlocks = 4

// Driver renders blocks on demand and reformats them for one device
// channel layout. It is not safe for concurrent use: exactly one
// goroutine (the audio callback) should call Render.
type Driver struct {
	synth *synth.Synthesizer
	work  *worker.Threaded

	toDevice       *chanfmt.Converter
	deviceChannels int

	bus       *ScratchBus
	acc       *refillable
	blockTime uint64

	logRing *rt.Logger
	logStop chan struct{}
	logDone chan struct{}
}

// New builds a Driver rendering into deviceFormat. work may be nil, in
// which case Render never notifies a threaded worker pool of block
// boundaries, matching a headless or offline render where nothing is
// waiting on that signal. When withLogging is true, Render pushes
// should-never-happen conditions (e.g. an underrun) onto a realtime
// log ring drained by a dedicated background goroutine into archlog,
// the only path the audio thread ever uses to reach that sink; Close
// stops that goroutine.
func New(s *synth.Synthesizer, work *worker.Threaded, deviceFormat chanfmt.Format, withLogging bool) (*Driver, error) {
	toDevice, err := chanfmt.NewConverter(chanfmt.FormatMono, deviceFormat)
	if err != nil {
		return nil, fmt.Errorf("driver: building device converter: %w", err)
	}

	channels := deviceFormat.Channels()
	d := &Driver{
		synth:          s,
		work:           work,
		toDevice:       toDevice,
		deviceChannels: channels,
		bus:            NewScratchBus(),
		acc:            newRefillable(signal.BlockSize * channels * accumulatorBlocks),
	}

	if withLogging {
		d.logRing = rt.NewLogger(256)
		d.logStop = make(chan struct{})
		d.logDone = make(chan struct{})
		go func() {
			defer close(d.logDone)
			archlog.DrainRealtime(d.logRing, d.logStop)
		}()
	}

	return d, nil
}

// Close stops the background log-drain goroutine started by New when
// withLogging was true, waiting for it to flush whatever was already
// queued. A no-op when logging wasn't enabled.
func (d *Driver) Close() {
	if d.logStop == nil {
		return
	}
	close(d.logStop)
	<-d.logDone
}

// Render fills out, whose length must be a multiple of the device
// channel count, with freshly rendered and channel-converted audio,
// rendering as many additional blocks as are needed to satisfy it.
func (d *Driver) Render(out []float32) {
	filled := 0
	for filled < len(out) {
		if d.acc.available() == 0 {
			d.renderOneBlock()
		}
		n := d.acc.consume(out[filled:])
		filled += n
		if n == 0 {
			if d.logRing != nil {
				d.logRing.Push(rt.LogWarn, "archtone/driver", "render underrun: accumulator produced no samples, emitting silence")
			}
			for i := filled; i < len(out); i++ {
				out[i] = 0
			}
			break
		}
	}

	if d.work != nil {
		d.work.NotifyEndOfBlock()
	}
}

func (d *Driver) renderOneBlock() {
	d.bus.Reset()

	startTime := d.blockTime
	var contribution [signal.BlockSize]float64

	if d.synth != nil {
		state := d.synth.Load()
		state.EachMount(func(m *synth.Mount) {
			m.Run(startTime, contribution[:])
			d.bus.Add(contribution[:])
		})
	}
	d.blockTime = startTime + 1

	mono := d.bus.Mono32()
	d.acc.refill(func(dst []float32) int {
		frames := len(dst) / d.deviceChannels
		if frames > signal.BlockSize {
			frames = signal.BlockSize
		}
		d.toDevice.Block(dst, mono[:frames], frames)
		return frames * d.deviceChannels
	})
}

// Reset drops any accumulated, not-yet-delivered audio and the block
// time counter, used after a transport-level discontinuity such as a
// headless test harness rewinding.
func (d *Driver) Reset() {
	d.acc.reset()
	d.blockTime = 0
}
