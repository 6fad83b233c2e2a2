// Package media streams decoded audio from an abstract Source through
// a resampler and a loop driver into a fixed-size ring buffer, so the
// audio thread can read a continuous mono stream without ever
// blocking on decode I/O. A background goroutine owns the decoder,
// resampler, and loop driver; the audio-thread-facing Signal only ever
// touches the ring.
package media

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/archtone/archtone/archerr"
	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/chanfmt"
	"github.com/archtone/archtone/loopspec"
	"github.com/archtone/archtone/resample"
	"github.com/archtone/archtone/rt"
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/traced"
	"github.com/archtone/archtone/worker"
)

// Descriptor is a source's static shape: its channel count, its
// native sample rate, and its length in samples at that rate, when
// known (some streams, e.g. internet radio, have no fixed duration).
type Descriptor struct {
	Channels        int
	SampleRate      uint64
	DurationSamples *uint64
}

// Source is the abstracted decoder archtone streams audio from.
// Implementations wrap a specific codec; archtone treats the decoder
// itself as an external collaborator.
type Source interface {
	// Descriptor reports this source's static shape. Called once,
	// before the background task starts.
	Descriptor() Descriptor

	// ReadSamples decodes up to len(dst)/Descriptor().Channels frames
	// of interleaved samples into dst and returns the frame count
	// actually read. A short read that is not EOF is permitted; a
	// read of zero frames with a nil error is treated as EOF.
	ReadSamples(dst []float32) (int, error)

	// Seek moves the read position to the given frame offset and
	// returns the position actually landed on, which for many codecs
	// is only approximate.
	Seek(frames int64) (int64, error)

	// IsPermanentlyFinished reports whether this source can never
	// produce more data regardless of seeking, e.g. a closed file
	// handle.
	IsPermanentlyFinished() bool
}

// Only mono and stereo sources are supported directly: chanfmt's
// Raw<->non-raw conversion is rejected by construction (see
// chanfmt.NewConverter), and real-world streaming sources are
// overwhelmingly mono or stereo. A source with any other channel
// count is rejected at Media construction with archerr.Validation.

const decodeChunkFrames = 1024

// ringMillis is how much audio the hand-off ring buffers, chosen to
// absorb scheduling jitter in the background task without adding
// perceptible latency to seeks (a seek resets the ring, so a bigger
// ring means a longer silence right after a seek).
const ringMillis = 100

func ringCapacityFrames() int {
	frames := signal.SR * ringMillis / 1000
	blocks := (frames + signal.BlockSize - 1) / signal.BlockSize
	return blocks * signal.BlockSize
}

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdSeek
	cmdSetLoop
)

type command struct {
	kind       commandKind
	seekFrames int64
	loop       loopspec.Spec
}

// Media is the user-visible handle to one streaming source. It owns
// the hand-off ring and the command channel, and is itself the
// worker.Task that drains both: registered with a worker.Threaded (or
// worker.Inline, for tests and headless rendering), it is scheduled
// off the audio thread the same way the reference design's decode task
// registers with its own worker pool (cross_thread.rs's
// impl wp::Task for Task), rather than owning a dedicated goroutine.
type Media struct {
	ID         archid.ID
	descriptor Descriptor

	ring     *rt.SliceRing[float32]
	commands chan command

	src       Source
	toMono    *chanfmt.Converter
	resampler *resample.Resampler
	logger    *log.Logger

	driver    *loopDriver
	decodeBuf []float32
	monoBuf   []float32
	playing   bool

	closed atomic.Bool
}

// maxDecodeStepsPerExecute bounds how many loop-driver chunks one
// Execute call decodes, so a single scheduling slice can't run
// unboundedly long trying to keep the ring topped up.
const maxDecodeStepsPerExecute = 8

// New builds a handle streaming src, registering it with work so it
// gets scheduled as decoding progresses. work may be nil, in which
// case New registers it nowhere and it decodes only when the caller
// runs Execute or registers it with a pool itself. The
// returned Media is not yet playing; send Play to start it.
func New(src Source, work *worker.Threaded, logger *log.Logger) (*Media, error) {
	desc := src.Descriptor()
	format, err := formatFor(desc.Channels)
	if err != nil {
		return nil, fmt.Errorf("media: %w: %w", err, archerr.Validation)
	}
	toMono, err := chanfmt.NewConverter(format, chanfmt.FormatMono)
	if err != nil {
		return nil, fmt.Errorf("media: %w: %w", err, archerr.Validation)
	}
	resampler, err := resample.NewFixedInput(int(desc.SampleRate), signal.SR, desc.Channels, decodeChunkFrames)
	if err != nil {
		return nil, fmt.Errorf("media: building resampler: %w", err)
	}

	m := &Media{
		ID:         archid.New(),
		descriptor: desc,
		ring:       rt.NewSliceRing[float32](ringCapacityFrames()),
		commands:   make(chan command, 16),
		src:        src,
		toMono:     toMono,
		resampler:  resampler,
		logger:     logger,
		driver:     newLoopDriver(desc.SampleRate),
		decodeBuf:  make([]float32, decodeChunkFrames*desc.Channels),
		monoBuf:    make([]float32, decodeChunkFrames),
	}

	if work != nil {
		work.Register(m)
	}
	return m, nil
}

func formatFor(channels int) (chanfmt.Format, error) {
	switch channels {
	case 1:
		return chanfmt.FormatMono, nil
	case 2:
		return chanfmt.FormatStereo, nil
	default:
		return chanfmt.Format{}, fmt.Errorf("media: source reports %d channels, only mono and stereo sources are supported", channels)
	}
}

// Descriptor returns the source's static shape, as reported at
// construction time.
func (m *Media) Descriptor() Descriptor { return m.descriptor }

// Play resumes filling the ring from the source.
func (m *Media) Play() { m.send(command{kind: cmdPlay}) }

// Pause stops filling the ring without losing the current position.
func (m *Media) Pause() { m.send(command{kind: cmdPause}) }

// Seek moves the source to frames, measured at the source's native
// sample rate, and clears whatever is already queued in the ring.
func (m *Media) Seek(frames int64) { m.send(command{kind: cmdSeek, seekFrames: frames}) }

// SetLoop installs a new loop configuration, validated and applied by
// the background task on its next iteration.
func (m *Media) SetLoop(spec loopspec.Spec) { m.send(command{kind: cmdSetLoop, loop: spec}) }

// send queues c for the next Execute to drain. The channel is sized
// generously for how rarely transport commands arrive; a full buffer
// drops the command rather than blocking the caller, the same
// best-effort posture Write takes when the hand-off ring itself is
// full.
func (m *Media) send(c command) {
	select {
	case m.commands <- c:
	default:
	}
}

// Close stops this Media's task from doing further work. Once closed,
// Execute returns false so whatever pool it was registered with drops
// it on its next pass. Signal trees reading from this Media must be
// unmounted first; Close does not block on the audio thread.
func (m *Media) Close() {
	m.closed.Store(true)
	m.ring.CloseProducer()
}

// Signal returns a mono signal.Signal reading this Media's output.
// Each Media supports being mounted by at most one live Signal at a
// time in practice, since the underlying ring has exactly one
// consumer; the tracer enforces this across an entire graph via its
// duplicate-media-use check.
func (m *Media) Signal() signal.Signal {
	return &mediaSignal{id: m.ID, ring: m.ring}
}

// Priority places this Media's decode work in worker.Decoding, ordered
// by the handle's own id so two Media tasks registered with the same
// pool get a stable, deterministic schedule.
func (m *Media) Priority() worker.Priority {
	return worker.Priority{Class: worker.Decoding, Order: uint64(m.ID)}
}

// Execute is one scheduling slice of this Media's background work:
// drain whatever commands arrived since the last call, then, if
// playing, decode up to maxDecodeStepsPerExecute chunks through the
// loop driver and resampler into the ring. It always returns true
// until Close has been called, at which point it returns false so the
// pool drops this task; pausing playback never drops it from the
// schedule, only Close does.
func (m *Media) Execute() bool {
	if m.closed.Load() {
		return false
	}

	m.drainCommands()

	for i := 0; i < maxDecodeStepsPerExecute; i++ {
		if !m.playing || m.ring.Free() < 1 {
			break
		}
		if !m.decodeOneChunk() {
			break
		}
	}

	return true
}

func (m *Media) drainCommands() {
	for {
		select {
		case c := <-m.commands:
			m.applyCommand(c)
		default:
			return
		}
	}
}

func (m *Media) applyCommand(c command) {
	switch c.kind {
	case cmdPlay:
		m.playing = true
	case cmdPause:
		m.playing = false
	case cmdSeek:
		landed, err := m.src.Seek(c.seekFrames)
		if err != nil {
			logErr(m.logger, "media: seek failed", err)
			return
		}
		m.driver.observeSeek(uint64(landed))
		m.resampler.Reset()
		m.ring.Reset()
	case cmdSetLoop:
		if err := m.driver.configureLooping(c.loop); err != nil {
			logErr(m.logger, "media: rejected loop configuration", err)
		}
	}
}

// decodeOneChunk pulls one loop-driver-sized chunk from the source,
// resamples it to mono at the engine's sample rate, and writes it into
// the ring. It returns false when this Execute call has nothing more
// to do right now (EOF, a seek, or a decode/resample failure), true if
// it made progress and the caller should try another chunk.
func (m *Media) decodeOneChunk() bool {
	op := m.driver.preRead(uint64(decodeChunkFrames))
	switch {
	case op.IsReachedEOF():
		m.playing = false
		return false
	case op.IsSeek():
		landed, err := m.src.Seek(int64(op.Amount()))
		if err != nil {
			logErr(m.logger, "media: loop seek failed", err)
			m.playing = false
			return false
		}
		m.driver.observeSeek(uint64(landed))
		m.resampler.Reset()
		return false
	}

	frames := int(op.Amount())
	n, err := m.src.ReadSamples(m.decodeBuf[:frames*m.descriptor.Channels])
	if err != nil {
		logErr(m.logger, "media: decode failed", err)
		m.playing = false
		return false
	}
	if n == 0 {
		m.driver.observeEOF()
		if m.src.IsPermanentlyFinished() {
			m.playing = false
		}
		return false
	}
	m.driver.observeRead(uint64(n))

	for f := 0; f < n; f++ {
		frame := m.decodeBuf[f*m.descriptor.Channels : (f+1)*m.descriptor.Channels]
		m.toMono.Frame(m.monoBuf[f:f+1], frame)
	}

	resampled, err := m.resampler.Process(m.monoBuf[:n])
	if err != nil {
		logErr(m.logger, "media: resample failed", err)
		m.playing = false
		return false
	}

	written := m.ring.Write(resampled)
	_ = written // best-effort; a full ring simply drops the tail until the audio thread catches up
	return true
}

func logErr(logger *log.Logger, msg string, err error) {
	if logger == nil {
		return
	}
	logger.Error(msg, "error", err)
}

// mediaSignal is the audio-thread-side half of a Media: it reads one
// mono sample per tick from the ring, reporting silence when the
// ring has underrun.
type mediaSignal struct {
	id   archid.ID
	ring *rt.SliceRing[float32]
}

func (s *mediaSignal) OnBlockStart(ctx *signal.Context) {}

func (s *mediaSignal) Tick(ctx *signal.Context, in float64) float64 {
	var buf [1]float32
	if s.ring.Read(buf[:]) == 0 {
		return 0
	}
	return float64(buf[0])
}

func (s *mediaSignal) TraceSlots(insert traced.Inserter) {
	insert(traced.Use{ID: s.id, Kind: traced.KindMedia, Mode: traced.ModeRead, Resource: s.ring})
}
