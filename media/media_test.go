package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archtone/archtone/archerr"
	"github.com/archtone/archtone/rt"
	sig "github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/worker"
)

type fakeSource struct {
	desc     Descriptor
	pcm      []float32 // interleaved
	pos      int64     // frames
	finished bool
	seekErr  error
	readErr  error
}

func (f *fakeSource) Descriptor() Descriptor { return f.desc }

func (f *fakeSource) ReadSamples(dst []float32) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	frameLen := f.desc.Channels
	totalFrames := int64(len(f.pcm) / frameLen)
	if f.pos >= totalFrames {
		return 0, nil
	}
	wantFrames := len(dst) / frameLen
	avail := int(totalFrames - f.pos)
	if wantFrames > avail {
		wantFrames = avail
	}
	n := copy(dst[:wantFrames*frameLen], f.pcm[int(f.pos)*frameLen:])
	f.pos += int64(wantFrames)
	return wantFrames, nil
}

func (f *fakeSource) Seek(frames int64) (int64, error) {
	if f.seekErr != nil {
		return 0, f.seekErr
	}
	f.pos = frames
	return frames, nil
}

func (f *fakeSource) IsPermanentlyFinished() bool { return f.finished }

func TestFormatForRejectsUnsupportedChannelCounts(t *testing.T) {
	_, err := formatFor(3)
	require.Error(t, err)

	f, err := formatFor(1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Channels())

	f, err = formatFor(2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Channels())
}

func TestRingCapacityFramesIsAWholeNumberOfBlocks(t *testing.T) {
	frames := ringCapacityFrames()
	assert.Equal(t, 0, frames%sig.BlockSize)
	assert.GreaterOrEqual(t, frames, sig.SR*ringMillis/1000)
}

func TestNewRejectsUnsupportedSourceChannelCount(t *testing.T) {
	src := &fakeSource{desc: Descriptor{Channels: 5, SampleRate: sig.SR}}
	_, err := New(src, nil, nil)
	require.Error(t, err)
}

func TestNewRejectsSourceWhoseRateResamplerCannotBuild(t *testing.T) {
	src := &fakeSource{desc: Descriptor{Channels: 1, SampleRate: 0}}
	_, err := New(src, nil, nil)
	require.Error(t, err)
}

func TestMediaSignalReadsQueuedMonoSamplesFromTheRing(t *testing.T) {
	ring := rt.NewSliceRing[float32](sig.BlockSize * 2)
	ring.Write([]float32{0.25, 0.5, -0.25})

	s := &mediaSignal{ring: ring}
	ctx := &sig.Context{Fixed: &sig.Fixed{}}

	assert.InDelta(t, 0.25, s.Tick(ctx, 0), 1e-9)
	assert.InDelta(t, 0.5, s.Tick(ctx, 0), 1e-9)
	assert.InDelta(t, -0.25, s.Tick(ctx, 0), 1e-9)
}

func TestMediaSignalReportsSilenceOnUnderrun(t *testing.T) {
	ring := rt.NewSliceRing[float32](sig.BlockSize)
	s := &mediaSignal{ring: ring}
	ctx := &sig.Context{Fixed: &sig.Fixed{}}

	assert.Equal(t, 0.0, s.Tick(ctx, 0))
}

func TestNewWrapsUnsupportedChannelCountAsValidation(t *testing.T) {
	src := &fakeSource{desc: Descriptor{Channels: 7, SampleRate: sig.SR}}
	_, err := New(src, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, archerr.Validation)
}

func TestMediaStartsUnplayingAndCloseDropsItFromTheSchedule(t *testing.T) {
	src := &fakeSource{
		desc: Descriptor{Channels: 1, SampleRate: sig.SR},
		pcm:  make([]float32, 4096),
	}

	work := worker.NewInline()
	m, err := New(src, nil, nil)
	require.NoError(t, err)
	work.Register(m)

	// Closing immediately, before Play, must make Execute report the
	// task finished rather than decode anything.
	m.Close()
	work.TickWork()
	assert.Equal(t, 0, work.Len())
}

func TestMediaRegisteredWithInlineDecodesOnTickWork(t *testing.T) {
	src := &fakeSource{
		desc: Descriptor{Channels: 1, SampleRate: sig.SR},
		pcm:  make([]float32, decodeChunkFrames*4),
	}
	for i := range src.pcm {
		src.pcm[i] = 0.5
	}

	work := worker.NewInline()
	m, err := New(src, nil, nil)
	require.NoError(t, err)
	work.Register(m)

	m.Play()
	work.TickWork()

	assert.Greater(t, m.ring.Len(), 0)
	assert.Equal(t, 1, work.Len(), "task stays registered until Close")
}

func TestMediaPriorityUsesDecodingClass(t *testing.T) {
	src := &fakeSource{desc: Descriptor{Channels: 1, SampleRate: sig.SR}}
	m, err := New(src, nil, nil)
	require.NoError(t, err)

	p := m.Priority()
	assert.Equal(t, worker.Decoding, p.Class)
	assert.Equal(t, uint64(m.ID), p.Order)
}
