// Package resample wraps a fixed-ratio SINC resampler behind the two
// calling conventions archtone's media pipeline needs: a fixed number
// of input frames per call, or a fixed number of output frames per
// call.
package resample

import (
	"fmt"

	resamplerlib "github.com/tphakala/go-audio-resampler"
)

// Mode selects which side of a Resampler's Process call is held
// fixed.
type Mode int

const (
	// FixedInput accepts up to InputFrames() frames each call (fewer
	// is fine, letting callers whose upstream batch size varies, such
	// as a loop-driver-clamped read, reuse one pre-sized resampler
	// rather than building a new one per call); the number of output
	// frames varies call to call.
	FixedInput Mode = iota
	// FixedOutput sizes each call's output buffer to OutputFrames()
	// and accepts any number of input frames. Each call returns the
	// frames produced from that call's input (a plain copy when
	// bypassing); that count is not padded or trimmed to
	// OutputFrames().
	FixedOutput
)

// Resampler converts interleaved float32 frames from sourceRate to
// targetRate for a fixed channel count. When the rates match it
// bypasses the SINC backend entirely and just copies, per spec: a
// fixed-ratio resampler has nothing to do at ratio 1.
type Resampler struct {
	mode     Mode
	channels int
	bypass   bool

	inputFrames  int // meaningful in FixedInput
	outputFrames int // meaningful in FixedOutput

	backends []*resamplerlib.Resampler // one per channel, planar

	inPlanar  [][]float32
	outPlanar [][]float32
}

// NewFixedInput builds a Resampler that accepts up to inputFrames
// frames of channels-channel audio per Process call, pre-sizing its
// scratch buffers to that bound.
func NewFixedInput(sourceRate, targetRate, channels, inputFrames int) (*Resampler, error) {
	r, err := newResampler(sourceRate, targetRate, channels)
	if err != nil {
		return nil, err
	}
	r.mode = FixedInput
	r.inputFrames = inputFrames
	if r.bypass {
		r.outputFrames = inputFrames
	}
	return r, nil
}

// NewFixedOutput builds a Resampler for channels-channel audio whose
// per-call output buffer holds outputFrames frames; see FixedOutput for
// how many frames Process actually returns.
func NewFixedOutput(sourceRate, targetRate, channels, outputFrames int) (*Resampler, error) {
	r, err := newResampler(sourceRate, targetRate, channels)
	if err != nil {
		return nil, err
	}
	r.mode = FixedOutput
	r.outputFrames = outputFrames
	if r.bypass {
		r.inputFrames = outputFrames
	}
	return r, nil
}

func newResampler(sourceRate, targetRate, channels int) (*Resampler, error) {
	if channels < 1 {
		return nil, fmt.Errorf("resample: channel count %d must be at least 1", channels)
	}
	if sourceRate <= 0 || targetRate <= 0 {
		return nil, fmt.Errorf("resample: sample rates must be positive, got %d -> %d", sourceRate, targetRate)
	}

	r := &Resampler{channels: channels}
	if sourceRate == targetRate {
		r.bypass = true
		return r, nil
	}

	ratio := float64(targetRate) / float64(sourceRate)
	r.backends = make([]*resamplerlib.Resampler, channels)
	for ch := range r.backends {
		b, err := resamplerlib.New(ratio, resamplerlib.QualityHigh)
		if err != nil {
			return nil, fmt.Errorf("resample: building channel %d backend: %w", ch, err)
		}
		r.backends[ch] = b
	}
	return r, nil
}

// Channels reports the channel count this resampler was built for.
func (r *Resampler) Channels() int { return r.channels }

// Mode reports whether this resampler holds its input or output side
// fixed.
func (r *Resampler) Mode() Mode { return r.mode }

// InputFrames reports the per-call input frame bound of a FixedInput
// resampler; for FixedOutput it reports the input
// frame count from the most recent Process call, or 0 before the
// first one.
func (r *Resampler) InputFrames() int { return r.inputFrames }

// OutputFrames reports the output buffer size a FixedOutput resampler
// was built with; for FixedInput it reports
// the output frame count from the most recent Process call, or 0
// before the first one.
func (r *Resampler) OutputFrames() int { return r.outputFrames }

func (r *Resampler) ensurePlanarCapacity(inFrames, outFrames int) {
	if cap(r.inPlanar) < r.channels {
		r.inPlanar = make([][]float32, r.channels)
		r.outPlanar = make([][]float32, r.channels)
	}
	for ch := 0; ch < r.channels; ch++ {
		if cap(r.inPlanar[ch]) < inFrames {
			r.inPlanar[ch] = make([]float32, inFrames)
		}
		r.inPlanar[ch] = r.inPlanar[ch][:inFrames]
		if cap(r.outPlanar[ch]) < outFrames {
			r.outPlanar[ch] = make([]float32, outFrames)
		}
		r.outPlanar[ch] = r.outPlanar[ch][:outFrames]
	}
}

func deinterleave(planar [][]float32, interleaved []float32, channels, frames int) {
	for f := 0; f < frames; f++ {
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			planar[ch][f] = interleaved[base+ch]
		}
	}
}

func interleave(dst []float32, planar [][]float32, channels, frames int) {
	for f := 0; f < frames; f++ {
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			dst[base+ch] = planar[ch][f]
		}
	}
}

// Process converts in, an interleaved block of channels()-channel
// frames, and returns an interleaved block of the resampled result.
// In FixedInput mode len(in) must be at most InputFrames()*Channels();
// in FixedOutput mode in may be any length, and the returned slice
// holds however many frames were produced from it, which need not be
// OutputFrames(). The returned slice is only valid until the next call
// to Process.
func (r *Resampler) Process(in []float32) ([]float32, error) {
	inFrames := len(in) / r.channels
	if r.mode == FixedInput && inFrames > r.inputFrames {
		return nil, fmt.Errorf("resample: FixedInput resampler accepts at most %d frames per call, got %d", r.inputFrames, inFrames)
	}

	if r.bypass {
		out := make([]float32, len(in))
		copy(out, in)
		if r.mode == FixedInput {
			r.outputFrames = inFrames
		} else {
			r.inputFrames = inFrames
		}
		return out, nil
	}

	estimatedOut := r.outputFrames
	if r.mode == FixedInput {
		estimatedOut = int(float64(inFrames)*float64(r.backends[0].Ratio())) + 1
	}
	r.ensurePlanarCapacity(inFrames, estimatedOut)
	deinterleave(r.inPlanar, in, r.channels, inFrames)

	outFrames := -1
	for ch := 0; ch < r.channels; ch++ {
		produced, err := r.backends[ch].Process(r.inPlanar[ch], r.outPlanar[ch])
		if err != nil {
			return nil, fmt.Errorf("resample: channel %d: %w", ch, err)
		}
		if outFrames == -1 {
			outFrames = produced
		} else if produced != outFrames {
			return nil, fmt.Errorf("resample: channels produced mismatched frame counts (%d vs %d)", outFrames, produced)
		}
	}

	out := make([]float32, outFrames*r.channels)
	interleave(out, r.outPlanar, r.channels, outFrames)
	if r.mode == FixedInput {
		r.outputFrames = outFrames
	} else {
		r.inputFrames = inFrames
	}
	return out, nil
}

// Reset clears any internal resampler state, used after a seek so
// stale filter history does not bleed into audio from the new
// position.
func (r *Resampler) Reset() {
	if r.bypass {
		return
	}
	for _, b := range r.backends {
		b.Reset()
	}
}
