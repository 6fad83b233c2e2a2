package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedInputBypassesWhenRatesMatch(t *testing.T) {
	r, err := NewFixedInput(48000, 48000, 2, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, r.InputFrames())
	assert.Equal(t, 16, r.OutputFrames())

	in := []float32{0.1, 0.2, 0.3, 0.4}
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewFixedOutputBypassesWhenRatesMatch(t *testing.T) {
	r, err := NewFixedOutput(44100, 44100, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, r.OutputFrames())

	in := []float32{1, 2, 3}
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewRejectsInvalidChannelsOrRates(t *testing.T) {
	_, err := NewFixedInput(48000, 44100, 0, 16)
	require.Error(t, err)

	_, err = NewFixedInput(0, 44100, 2, 16)
	require.Error(t, err)

	_, err = NewFixedInput(48000, 0, 2, 16)
	require.Error(t, err)
}

func TestFixedInputRejectsMoreFramesThanItsBound(t *testing.T) {
	r, err := NewFixedInput(8000, 16000, 1, 4)
	require.NoError(t, err)

	_, err = r.Process(make([]float32, 10))
	require.Error(t, err)
}

func TestBypassResetIsANoop(t *testing.T) {
	r, err := NewFixedInput(48000, 48000, 1, 4)
	require.NoError(t, err)
	r.Reset()
}
