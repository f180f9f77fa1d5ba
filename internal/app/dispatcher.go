package app

import (
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// poolDispatcher runs background work, such as chat persistence and mail
// delivery, on a bounded goroutine pool. Go blocks while all workers are busy.
type poolDispatcher struct {
	mu     sync.RWMutex
	p      *pool.Pool
	closed bool
}

func newPoolDispatcher(workers int) *poolDispatcher {
	return &poolDispatcher{p: pool.New().WithMaxGoroutines(max(workers, 1))}
}

// Go schedules task. Tasks submitted after Wait are dropped.
func (d *poolDispatcher) Go(task func()) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	d.p.Go(task)
}

// Wait blocks until all scheduled tasks finished.
func (d *poolDispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.p.Wait()
}
