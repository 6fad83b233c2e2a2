// Package chanfmt describes channel layouts (mono, stereo, or an arbitrary
// raw channel count) and converts frames between them.
package chanfmt

import "fmt"

// MaxChannels bounds Raw formats; it exists so fixed-size scratch arrays can
// be sized at compile time on the audio-thread hot path.
const MaxChannels = 16

// Kind tags which shape a Format takes.
type Kind int

const (
	Mono Kind = iota
	Stereo
	Raw
)

func (k Kind) String() string {
	switch k {
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// Format is a tagged union: Mono, Stereo, or Raw(n).
type Format struct {
	kind    Kind
	channel int // only meaningful for Raw
}

var (
	// FormatMono is the single-channel format.
	FormatMono = Format{kind: Mono, channel: 1}
	// FormatStereo is the two-channel format.
	FormatStereo = Format{kind: Stereo, channel: 2}
)

// NewRaw builds a Raw(n) format. n must be in [1, MaxChannels].
func NewRaw(n int) (Format, error) {
	if n < 1 || n > MaxChannels {
		return Format{}, fmt.Errorf("chanfmt: raw channel count %d out of range [1,%d]", n, MaxChannels)
	}
	return Format{kind: Raw, channel: n}, nil
}

// Kind reports the tag of the format.
func (f Format) Kind() Kind { return f.kind }

// Channels reports the channel count implied by the format.
func (f Format) Channels() int {
	switch f.kind {
	case Mono:
		return 1
	case Stereo:
		return 2
	default:
		return f.channel
	}
}

func (f Format) String() string {
	if f.kind == Raw {
		return fmt.Sprintf("raw(%d)", f.channel)
	}
	return f.kind.String()
}
