package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefillableRefillsAndConsumesInOrder(t *testing.T) {
	r := newRefillable(8)

	next := float32(0)
	r.refill(func(dst []float32) int {
		for i := range dst {
			dst[i] = next
			next++
		}
		return len(dst)
	})
	assert.Equal(t, 8, r.available())

	got := make([]float32, 3)
	n := r.consume(got)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{0, 1, 2}, got)
	assert.Equal(t, 5, r.available())
}

func TestRefillableCompactsBeforeRefillingWhenTailIsExhausted(t *testing.T) {
	r := newRefillable(4)

	fill := func(v float32) func([]float32) int {
		return func(dst []float32) int {
			for i := range dst {
				dst[i] = v
			}
			return len(dst)
		}
	}

	r.refill(fill(1))
	got := make([]float32, 4)
	r.consume(got)
	assert.Equal(t, 0, r.available())

	// The backing buffer is now fully consumed; a second refill must
	// not panic trying to write past its end.
	r.refill(fill(2))
	assert.Equal(t, 4, r.available())
	r.consume(got)
	assert.Equal(t, []float32{2, 2, 2, 2}, got)
}

func TestRefillableConsumeReturnsZeroWhenEmpty(t *testing.T) {
	r := newRefillable(4)
	got := make([]float32, 4)
	n := r.consume(got)
	assert.Equal(t, 0, n)
}

func TestRefillableResetDropsValidData(t *testing.T) {
	r := newRefillable(4)
	r.refill(func(dst []float32) int { return len(dst) })
	r.reset()
	assert.Equal(t, 0, r.available())
}
