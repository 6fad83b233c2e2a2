// Command archtone-bench renders a synthetic mix of mounts through
// driver.Driver in a tight loop and reports throughput. It is a
// developer benchmark, not an end-user synthesis tool: there is no
// file format to read, no audio device is ever opened, and nothing
// here is meant to be scripted against.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/archtone/archtone/archlog"
	"github.com/archtone/archtone/chanfmt"
	"github.com/archtone/archtone/driver"
	sig "github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/synth"
)

func main() {
	mounts := flag.Int("mounts", 16, "number of mounted signal chains to mix")
	blocks := flag.Int("blocks", 20000, "number of signal.BlockSize blocks to render")
	stereo := flag.Bool("stereo", true, "render to a stereo device format instead of mono")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: archtone-bench [options]\n\nRenders a synthetic mount graph through the audio-thread render path and reports blocks/sec and samples/sec.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := archlog.For("archtone/bench")

	s := synth.NewSynthesizer()
	if err := mountBenchGraph(s, *mounts); err != nil {
		log.Error("failed to build benchmark graph", "error", err)
		os.Exit(1)
	}

	format := chanfmt.FormatMono
	if *stereo {
		format = chanfmt.FormatStereo
	}

	d, err := driver.New(s, nil, format, true)
	if err != nil {
		log.Error("failed to build driver", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	out := make([]float32, sig.BlockSize*format.Channels())

	start := time.Now()
	for i := 0; i < *blocks; i++ {
		d.Render(out)
	}
	elapsed := time.Since(start)

	renderedSamples := int64(*blocks) * int64(sig.BlockSize)
	fmt.Printf("mounts:          %d\n", *mounts)
	fmt.Printf("blocks rendered: %d (%d samples each)\n", *blocks, sig.BlockSize)
	fmt.Printf("wall time:       %s\n", elapsed)
	fmt.Printf("blocks/sec:      %.1f\n", float64(*blocks)/elapsed.Seconds())
	fmt.Printf("samples/sec:     %.1f (%.2fx real time at %d Hz)\n",
		float64(renderedSamples)/elapsed.Seconds(),
		float64(renderedSamples)/elapsed.Seconds()/float64(sig.SR),
		sig.SR)
}

// mountBenchGraph mounts n chains, alternating a plain tone-ish const
// signal with a noise source run through a lowpass biquad whose
// cutoff and Q are driven by slots rather than fixed at construction,
// so the benchmark exercises both the cheap and the per-sample-
// recursive, slot-reading signal paths rather than just one.
func mountBenchGraph(s *synth.Synthesizer, n int) error {
	b := s.Batch()
	for i := 0; i < n; i++ {
		var root sig.Signal
		if i%2 == 0 {
			root = sig.Const(0.1)
		} else {
			cutoff := synth.CreateSlot(b, 1000.0)
			q := synth.CreateSlot(b, sig.DefaultQ)
			root = sig.AndThen(sig.NoiseSource(uint64(i)+1), sig.BiquadSlotLowpass(cutoff, q))
		}
		if _, err := synth.Mount(b, root); err != nil {
			b.Rollback()
			return err
		}
	}
	b.Commit()
	return nil
}
