//go:build !headless

package driver

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend drives audio output through ebitengine/oto/v3, the
// reference design's own cross-platform output path. It owns the oto
// context and player; a Driver attached to it supplies the samples.
type OtoBackend struct {
	ctx    *oto.Context
	player *oto.Player
	driver atomic.Pointer[Driver] // atomic: Read runs on oto's own callback goroutine

	started bool
	mutex   sync.Mutex // guards setup/control, not the Read hot path
}

// NewOtoBackend opens an oto context at sampleRate for channels output
// channels. The backend has no driver attached yet; call Attach before
// Start.
func NewOtoBackend(sampleRate, channels int) (*OtoBackend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoBackend{ctx: ctx}, nil
}

// Attach wires d as the source this backend's Read pulls rendered
// audio from and creates the underlying oto player.
func (b *OtoBackend) Attach(d *Driver) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.driver.Store(d)
	b.player = b.ctx.NewPlayer(b)
}

// Read implements io.Reader for oto.Player: it has the attached Driver
// render directly into p, reinterpreted as float32 samples, so no
// intermediate copy is needed on the hot path.
func (b *OtoBackend) Read(p []byte) (n int, err error) {
	d := b.driver.Load()
	if d == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	d.Render(bytesToFloat32(p))
	return len(p), nil
}

func bytesToFloat32(p []byte) []float32 {
	if len(p) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&p[0])), len(p)/4)
}

// Start begins playback. A no-op if Attach was never called or
// playback is already underway.
func (b *OtoBackend) Start() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
}

// Stop pauses playback without releasing the player.
func (b *OtoBackend) Stop() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
}

// Close stops playback and releases the player.
func (b *OtoBackend) Close() {
	b.Stop()

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player != nil {
		b.player.Close()
		b.player = nil
	}
}

// IsStarted reports whether playback is currently underway.
func (b *OtoBackend) IsStarted() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.started
}
