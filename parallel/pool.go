package parallel

import (
	"runtime"
	"sync"

	apperrors "github.com/greyfold/jxl-decoder/errors"
)

const jobQueueSize = 256

type poolJob struct {
	task RunTask
	unit int
	done *sync.WaitGroup
}

// Pool is a persistent bounded worker pool satisfying Runner. Workers start
// lazily on the first Run and live until Close. A Pool may serve many runs
// over its lifetime, but runs must not overlap with Close.
type Pool struct {
	workers int

	jobs     chan poolJob
	wg       sync.WaitGroup
	initOnce sync.Once
	stopOnce sync.Once
	shutdown chan struct{}
}

// NewPool creates a pool with the given worker count. Zero or negative
// selects runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers:  workers,
		jobs:     make(chan poolJob, jobQueueSize),
		shutdown: make(chan struct{}),
	}
}

// Workers returns the number of worker slots.
func (p *Pool) Workers() int { return p.workers }

// Run dispatches one task per unit in [start, end) across the pool and
// blocks until all have executed.
func (p *Pool) Run(init RunInit, task RunTask, start, end int) error {
	select {
	case <-p.shutdown:
		return apperrors.New(apperrors.CategorySetup, "parallel.run", apperrors.ErrClosed)
	default:
	}
	p.start()

	if init != nil {
		if err := init(p.workers); err != nil {
			return err
		}
	}
	if start >= end {
		return nil
	}

	var done sync.WaitGroup
	done.Add(end - start)
	for unit := start; unit < end; unit++ {
		p.jobs <- poolJob{task: task, unit: unit, done: &done}
	}
	done.Wait()
	return nil
}

// Close stops all workers and waits for them to exit. It is idempotent and
// must not be called while a Run is in flight.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.shutdown)
		p.wg.Wait()
	})
}

// ── worker pool internals ──────────────────────────────────────────────────────

func (p *Pool) start() {
	p.initOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job.task(id, job.unit)
			job.done.Done()
		}
	}
}

var _ Runner = (*Pool)(nil)
