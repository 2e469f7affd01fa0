// Package worker provides the concurrency primitives for batch query
// processing: a bounded worker pool and per-resource rate limiting.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job
type Result interface {
	GetError() error
}

// Pool executes jobs on a fixed number of workers
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeQueue sync.Once
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. No-op after Shutdown.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Close marks the end of submissions. Workers exit once the queue drains,
// after which the results channel closes. Safe to call more than once.
func (p *Pool) Close() {
	p.closeQueue.Do(func() {
		close(p.jobQueue)
		go func() {
			p.wg.Wait()
			p.closeResults()
		}()
	})
}

// Wait drains the results channel and returns everything the workers
// produced. It returns once Close (or Shutdown) has been called and the
// in-flight jobs finish. Submitting and waiting must happen on separate
// goroutines when the batch can exceed the queue buffer, otherwise the
// full queue blocks Submit while nothing drains results.
func (p *Pool) Wait() []Result {
	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown stops the pool immediately, abandoning queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
