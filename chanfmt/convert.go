package chanfmt

import "fmt"

// Converter converts individual frames between two fixed channel formats.
// Building one validates the format pair once so the per-frame hot path
// never has to branch on an error case.
type Converter struct {
	in, out Format
	kind    convKind
}

type convKind int

const (
	convIdentity convKind = iota
	convMonoToStereo
	convStereoToMono
	convRawToRaw
)

// NewConverter validates (in, out) and returns a Converter for it. Any raw
// format paired with a non-raw format is rejected: the spec treats that
// combination as a construction-time error rather than a silent fallback.
func NewConverter(in, out Format) (*Converter, error) {
	if in.Kind() == Raw && out.Kind() != Raw {
		return nil, fmt.Errorf("chanfmt: cannot convert raw(%d) to %s", in.Channels(), out)
	}
	if out.Kind() == Raw && in.Kind() != Raw {
		return nil, fmt.Errorf("chanfmt: cannot convert %s to raw(%d)", in, out.Channels())
	}

	c := &Converter{in: in, out: out}
	switch {
	case in == out:
		c.kind = convIdentity
	case in.Kind() == Mono && out.Kind() == Stereo:
		c.kind = convMonoToStereo
	case in.Kind() == Stereo && out.Kind() == Mono:
		c.kind = convStereoToMono
	case in.Kind() == Raw && out.Kind() == Raw:
		c.kind = convRawToRaw
	default:
		return nil, fmt.Errorf("chanfmt: unsupported conversion %s -> %s", in, out)
	}
	return c, nil
}

// InChannels and OutChannels report the frame widths this converter expects.
func (c *Converter) InChannels() int  { return c.in.Channels() }
func (c *Converter) OutChannels() int { return c.out.Channels() }

// Frame converts one input frame into dst, which must have length
// OutChannels(). src must have length InChannels().
func (c *Converter) Frame(dst, src []float32) {
	switch c.kind {
	case convIdentity:
		copy(dst, src)
	case convMonoToStereo:
		dst[0] = src[0]
		dst[1] = src[0]
	case convStereoToMono:
		dst[0] = (src[0] + src[1]) * 0.5
	case convRawToRaw:
		n := copy(dst, src)
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
	}
}

// Block converts an interleaved block of frames. dst and src are both
// interleaved; dst must hold frames*OutChannels() samples and src
// frames*InChannels() samples.
func (c *Converter) Block(dst, src []float32, frames int) {
	inCh, outCh := c.InChannels(), c.OutChannels()
	for f := 0; f < frames; f++ {
		c.Frame(dst[f*outCh:f*outCh+outCh], src[f*inCh:f*inCh+inCh])
	}
}
