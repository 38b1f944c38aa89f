package scheduler

import (
	"runtime"

	"github.com/getsentry/sentry-go"
)

// workerPool is a fixed set of goroutines draining a task queue. Frame solves
// are CPU bound, so the pool is sized to the machine unless configured
// otherwise.
type workerPool struct {
	queue chan func()
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &workerPool{queue: make(chan func(), size)}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer sentry.Recover()

	for f := range p.queue {
		f()
	}
}

// Submit queues a task. Blocks when the queue is full.
func (p *workerPool) Submit(f func()) {
	p.queue <- f
}

// Close stops the workers once the queue drains.
func (p *workerPool) Close() {
	close(p.queue)
}
