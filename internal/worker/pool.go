package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs across a fixed number of workers. Results are collected
// as they arrive, so workers never block on a slow consumer and Submit
// stays safe for arbitrarily large batches.
type Pool struct {
	workers   int
	jobQueue  chan Job
	collector *resultCollector
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPool creates a worker pool with the given parallelism
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	pctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:   workers,
		jobQueue:  make(chan Job, workers*2),
		collector: newResultCollector(),
		ctx:       pctx,
		cancel:    cancel,
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
			p.collector.Add(job.Execute(p.ctx))
		}
	}
}

// Submit queues a job for execution
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job:
	}
}

// Wait closes the queue, waits for the workers, and returns all results
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	return p.collector.Results()
}

// Shutdown stops the pool immediately, abandoning queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// resultCollector accumulates results from concurrent workers
type resultCollector struct {
	mu      sync.Mutex
	results []Result
}

func newResultCollector() *resultCollector {
	return &resultCollector{results: make([]Result, 0)}
}

// Add appends a result (safe for concurrent use)
func (c *resultCollector) Add(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns all collected results
func (c *resultCollector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}
