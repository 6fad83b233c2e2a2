package rt

import (
	"sync/atomic"
	"time"
)

// parkedBit marks, in the high bit of the packed word, that the single
// consumer has parked and wants a wakeup on the next increment.
const parkedBit = uint64(1) << 63

// counterMask isolates the low 63 bits actually counting increments.
const counterMask = parkedBit - 1

// overflowGuard aborts increments once the counter passes half of its
// range, matching the spec's "overflow above u64::MAX/2 aborts" rule; this
// is enormously larger than any realistic run will reach.
const overflowGuard = counterMask / 2

// Waitable is a waitable MPSC counter: any number of producers may
// increment it, but only one consumer goroutine may ever wait on it at a
// time. Go has no public thread-parking primitive, so the consumer parks
// by blocking on a private channel instead of an OS park token; producers
// that observe the parked bit send a non-blocking wakeup.
type Waitable struct {
	word   atomic.Uint64
	wake   chan struct{}
	parked atomic.Bool // guards against a second concurrent consumer
}

// NewWaitable creates a counter starting at 0.
func NewWaitable() *Waitable {
	return &Waitable{wake: make(chan struct{}, 1)}
}

// Increment adds delta (which must be > 0) to the counter. If a consumer is
// parked, it is woken.
func (w *Waitable) Increment(delta uint64) {
	if delta == 0 {
		panic("rt: Waitable.Increment called with delta == 0")
	}
	for {
		old := w.word.Load()
		count := old & counterMask
		if count+delta > overflowGuard {
			panic("rt: Waitable counter overflow guard tripped")
		}
		next := (old &^ counterMask) | (count + delta)
		if w.word.CompareAndSwap(old, next) {
			if old&parkedBit != 0 {
				select {
				case w.wake <- struct{}{}:
				default:
				}
			}
			return
		}
	}
}

// Count returns the current counter value (ignoring the parked bit).
func (w *Waitable) Count() uint64 {
	return w.word.Load() & counterMask
}

func (w *Waitable) markParked() {
	for {
		old := w.word.Load()
		if old&parkedBit != 0 {
			return
		}
		if w.word.CompareAndSwap(old, old|parkedBit) {
			return
		}
	}
}

func (w *Waitable) clearParked() {
	for {
		old := w.word.Load()
		if old&parkedBit == 0 {
			return
		}
		if w.word.CompareAndSwap(old, old&^parkedBit) {
			return
		}
	}
}

func (w *Waitable) enterConsumer() {
	if !w.parked.CompareAndSwap(false, true) {
		panic("rt: Waitable supports only one concurrent consumer")
	}
}

func (w *Waitable) leaveConsumer() {
	w.parked.Store(false)
}

// Wait blocks until the counter differs from previous, returning the new
// count. Only one goroutine may call any of the Wait* methods at a time.
func (w *Waitable) Wait(previous uint64) uint64 {
	w.enterConsumer()
	defer w.leaveConsumer()

	for {
		if c := w.Count(); c != previous {
			return c
		}
		w.markParked()
		if c := w.Count(); c != previous {
			w.clearParked()
			return c
		}
		<-w.wake
		w.clearParked()
	}
}

// WaitSpinning is like Wait but never parks; it busy-waits instead. It is
// appropriate only for very short, bounded waits, matching the spec's
// "no parking" variant.
func (w *Waitable) WaitSpinning(previous uint64) uint64 {
	w.enterConsumer()
	defer w.leaveConsumer()

	for {
		if c := w.Count(); c != previous {
			return c
		}
	}
}

// WaitTimeout blocks until the counter differs from previous or delta
// elapses, whichever comes first. It returns (count, true) on a real
// change, or (previous, false) on timeout. Spurious wakeups are possible;
// callers should loop comparing counters, which this implementation
// already does internally up to the deadline.
func (w *Waitable) WaitTimeout(previous uint64, delta time.Duration) (uint64, bool) {
	return w.WaitDeadline(previous, time.Now().Add(delta))
}

// WaitDeadline is WaitTimeout expressed as an absolute deadline, with a
// short busy-spin before falling back to parking (cheap for the very
// common case where the producer increments within microseconds).
func (w *Waitable) WaitDeadline(previous uint64, deadline time.Time) (uint64, bool) {
	w.enterConsumer()
	defer w.leaveConsumer()

	const preSpin = 256
	for i := 0; i < preSpin; i++ {
		if c := w.Count(); c != previous {
			return c, true
		}
	}

	for {
		if c := w.Count(); c != previous {
			return c, true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return previous, false
		}

		w.markParked()
		if c := w.Count(); c != previous {
			w.clearParked()
			return c, true
		}

		timer := time.NewTimer(remaining)
		select {
		case <-w.wake:
			timer.Stop()
			w.clearParked()
		case <-timer.C:
			w.clearParked()
			if c := w.Count(); c != previous {
				return c, true
			}
			return previous, false
		}
	}
}
