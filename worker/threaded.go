package worker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/archtone/archtone/rt"
)

// Threaded runs registered tasks on a fixed-size pool of goroutines,
// woken by the audio callback at the end of every block rather than
// polling. NotifyEndOfBlock is what the driver calls from the audio
// callback; everything else runs off the audio thread.
type Threaded struct {
	wake *rt.Waitable
	sem  *semaphore.Weighted

	registerMu sync.Mutex
	pending    []Task

	outstanding []Task // owned solely by run, no lock needed

	closing atomic.Bool
	done    chan struct{}
}

// NewThreaded starts a scheduling goroutine backed by up to maxWorkers
// concurrently executing tasks.
func NewThreaded(maxWorkers int) *Threaded {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	p := &Threaded{
		wake: rt.NewWaitable(),
		sem:  semaphore.NewWeighted(int64(maxWorkers)),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

// Register queues t to run on the scheduling goroutine's next wake.
// Safe to call from any goroutine, including from within a task's own
// Execute.
func (p *Threaded) Register(t Task) {
	p.registerMu.Lock()
	p.pending = append(p.pending, t)
	p.registerMu.Unlock()
}

// NotifyEndOfBlock wakes the scheduling goroutine to drain
// registrations and run one scheduling pass. The audio driver calls
// this once per callback; it never blocks the caller.
func (p *Threaded) NotifyEndOfBlock() {
	p.wake.Increment(1)
}

// Close stops the scheduling goroutine and waits for any
// already-running tasks to finish their current Execute call. Tasks
// still outstanding when Close runs are simply dropped.
func (p *Threaded) Close() {
	p.closing.Store(true)
	p.wake.Increment(1)
	<-p.done
}

func (p *Threaded) run() {
	defer close(p.done)

	var seen uint64
	for {
		next := p.wake.Wait(seen)
		for ; seen < next; seen++ {
			if p.closing.Load() {
				return
			}
			p.drainPending()
			p.runOnePass()
		}
	}
}

func (p *Threaded) drainPending() {
	p.registerMu.Lock()
	if len(p.pending) > 0 {
		p.outstanding = append(p.outstanding, p.pending...)
		p.pending = p.pending[:0]
	}
	p.registerMu.Unlock()
}

func (p *Threaded) runOnePass() {
	if len(p.outstanding) == 0 {
		return
	}

	sort.SliceStable(p.outstanding, func(i, j int) bool {
		return p.outstanding[i].Priority().Less(p.outstanding[j].Priority())
	})

	var wg sync.WaitGroup
	var survivorsMu sync.Mutex
	survivors := make([]Task, 0, len(p.outstanding))

	for _, t := range p.outstanding {
		t := t
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.sem.Release(1)
			if t.Execute() {
				survivorsMu.Lock()
				survivors = append(survivors, t)
				survivorsMu.Unlock()
			}
		}()
	}
	wg.Wait()

	p.outstanding = survivors
}
