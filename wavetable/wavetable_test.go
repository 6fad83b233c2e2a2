package wavetable

import (
	"math"
	"testing"

	"github.com/archtone/archtone/chanfmt"
	"github.com/stretchr/testify/assert"
)

func mono(data []float32) *Table {
	return New(data, chanfmt.FormatMono, 44100)
}

func stereo(data []float32) *Table {
	return New(data, chanfmt.FormatStereo, 44100)
}

func raw(data []float32, channels int) *Table {
	f, err := chanfmt.NewRaw(channels)
	if err != nil {
		panic(err)
	}
	return New(data, f, 44100)
}

func readTruncated1(t *Table, pos float64, looping bool) float64 {
	dst := make([]float64, 1)
	t.ReadTruncated(pos, looping, dst)
	return dst[0]
}

func readLinear1(t *Table, pos float64, looping bool) float64 {
	dst := make([]float64, 1)
	t.ReadLinear(pos, looping, dst)
	return dst[0]
}

func readCubic1(t *Table, pos float64, looping bool) float64 {
	dst := make([]float64, 1)
	t.ReadCubic(pos, looping, dst)
	return dst[0]
}

func TestReadTruncatedMono(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4, 5})
	assert.Equal(t, 1.0, readTruncated1(wt, 0.4, false))
	assert.Equal(t, 1.0, readTruncated1(wt, 0.5, false))
	assert.Equal(t, 2.0, readTruncated1(wt, 1.6, false))
	assert.Equal(t, 5.0, readTruncated1(wt, 4.9, false))
	assert.Equal(t, 5.0, readTruncated1(wt, 100.0, false))
}

func TestReadTruncatedStereo(t *testing.T) {
	wt := stereo([]float32{1, 2, 3, 4, 5, 6})
	dst := make([]float64, 2)

	wt.ReadTruncated(0.4, false, dst)
	assert.Equal(t, []float64{1, 2}, dst)

	wt.ReadTruncated(1.6, false, dst)
	assert.Equal(t, []float64{3, 4}, dst)

	wt.ReadTruncated(100.0, false, dst)
	assert.Equal(t, []float64{5, 6}, dst)
}

func TestReadLinearMono(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4, 5})
	assert.Equal(t, 1.0, readLinear1(wt, 0.0, false))
	assert.Equal(t, 1.5, readLinear1(wt, 0.5, false))
	assert.Equal(t, 2.0, readLinear1(wt, 1.0, false))
	assert.Equal(t, 2.25, readLinear1(wt, 1.25, false))
	assert.Equal(t, 5.0, readLinear1(wt, 4.0, false))
	assert.Equal(t, 0.0, readLinear1(wt, 100.0, false))
	assert.Equal(t, 0.0, readLinear1(wt, -1.0, false))
}

func TestReadLinearStereo(t *testing.T) {
	wt := stereo([]float32{1, 2, 3, 4, 5, 6})
	dst := make([]float64, 2)

	wt.ReadLinear(0.0, false, dst)
	assert.Equal(t, []float64{1, 2}, dst)

	wt.ReadLinear(0.5, false, dst)
	assert.Equal(t, []float64{2, 3}, dst)

	wt.ReadLinear(1.0, false, dst)
	assert.Equal(t, []float64{3, 4}, dst)

	wt.ReadLinear(1.5, false, dst)
	assert.Equal(t, []float64{4, 5}, dst)

	wt.ReadLinear(2.0, false, dst)
	assert.Equal(t, []float64{5, 6}, dst)
}

func TestReadCubicMono(t *testing.T) {
	wt := mono([]float32{0, 1, 4, 9, 16})
	assert.Equal(t, 0.0, readCubic1(wt, 0.0, false))
	assert.Equal(t, 1.0, readCubic1(wt, 1.0, false))
	assert.Equal(t, 4.0, readCubic1(wt, 2.0, false))

	mid := readCubic1(wt, 1.5, false)
	assert.Greater(t, mid, 1.0)
	assert.Less(t, mid, 4.0)
}

func TestReadCubicEdgeCases(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4})
	assert.Equal(t, 0.0, readCubic1(wt, -1.0, false))
	assert.Equal(t, 1.0, readCubic1(wt, 0.0, false))
	assert.Equal(t, 4.0, readCubic1(wt, 3.0, false))
	assert.True(t, !math.IsNaN(readCubic1(wt, 3.5, false)) && !math.IsInf(readCubic1(wt, 3.5, false), 0))
}

func TestDifferentChannelCounts(t *testing.T) {
	wt := raw([]float32{1, 2, 3, 4, 5, 6}, 3)
	assert.Equal(t, 3, wt.ChannelCount())
	assert.Equal(t, 2, wt.FrameCount())

	dst3 := make([]float64, 3)
	wt.ReadTruncated(0.0, false, dst3)
	assert.Equal(t, []float64{1, 2, 3}, dst3)

	wt.ReadTruncated(1.0, false, dst3)
	assert.Equal(t, []float64{4, 5, 6}, dst3)

	dst2 := make([]float64, 2)
	wt.ReadTruncated(0.0, false, dst2)
	assert.Equal(t, []float64{1, 2}, dst2)

	dst4 := make([]float64, 4)
	wt.ReadTruncated(0.0, false, dst4)
	assert.Equal(t, []float64{1, 2, 3, 0}, dst4)
}

func TestLoopingTruncated(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4})
	assert.Equal(t, 4.0, readTruncated1(wt, -1.0, true))
	assert.Equal(t, 4.0, readTruncated1(wt, -0.5, true))
	assert.Equal(t, 1.0, readTruncated1(wt, 4.0, true))
	assert.Equal(t, 2.0, readTruncated1(wt, 5.5, true))
}

func TestLoopingLinear(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4})
	assert.Equal(t, 2.5, readLinear1(wt, -0.5, true))
	assert.Equal(t, 2.5, readLinear1(wt, 3.5, true))
	assert.Equal(t, 1.0, readLinear1(wt, 4.0, true))
	assert.Equal(t, 1.5, readLinear1(wt, 4.5, true))
}

func TestLoopingCubic(t *testing.T) {
	wt := mono([]float32{1, 2, 3, 4, 5})
	assert.False(t, math.IsNaN(readCubic1(wt, -0.5, true)))
	assert.Equal(t, 1.0, readCubic1(wt, 0.0, true))
	assert.False(t, math.IsNaN(readCubic1(wt, 4.5, true)))
	assert.Equal(t, 1.0, readCubic1(wt, 5.0, true))
}
