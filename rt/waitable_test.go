package rt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitableSingleProducerIncreasingSequence(t *testing.T) {
	w := NewWaitable()
	const n = 50

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			w.Increment(1)
			time.Sleep(time.Microsecond)
		}
	}()

	prev := uint64(0)
	for prev < n {
		next := w.Wait(prev)
		assert.Greater(t, next, prev)
		prev = next
	}
	<-done
	assert.Equal(t, uint64(n), prev)
}

func TestWaitableTimeoutOnUnchangingCounter(t *testing.T) {
	w := NewWaitable()
	start := time.Now()
	_, ok := w.WaitTimeout(0, 30*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestWaitableIncrementZeroPanics(t *testing.T) {
	w := NewWaitable()
	assert.Panics(t, func() { w.Increment(0) })
}

func TestWaitableSecondConcurrentConsumerPanics(t *testing.T) {
	w := NewWaitable()
	w.enterConsumer()
	defer w.leaveConsumer()
	assert.Panics(t, func() { w.enterConsumer() })
}

func TestWaitableMultipleProducers(t *testing.T) {
	w := NewWaitable()
	const producers = 8
	const perProducer = 100

	for p := 0; p < producers; p++ {
		go func() {
			for i := 0; i < perProducer; i++ {
				w.Increment(1)
			}
		}()
	}

	prev := uint64(0)
	for prev < producers*perProducer {
		prev, _ = w.WaitTimeout(prev, 2*time.Second)
	}
	assert.Equal(t, uint64(producers*perProducer), prev)
}
