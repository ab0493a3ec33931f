// Package async runs a handler over submitted jobs on a fixed set of worker goroutines.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("pool is closed")

// Handler processes one job. It must not panic; the pool does not recover.
type Handler[T, R any] func(ctx context.Context, job T) R

// Pool feeds jobs to a fixed number of workers and publishes each result as soon
// as its handler returns, so Results yields completion order.
type Pool[T, R any] struct {
	handler Handler[T, R]
	logger  *slog.Logger
	workers int

	ch  chan T
	out chan R
	wg  sync.WaitGroup

	once sync.Once
	mu   sync.Mutex
	done bool
}

type options struct {
	workers   int
	queueSize int
}

type Option func(*options)

func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// NewPool starts the workers. ctx is handed to every handler call.
func NewPool[T, R any](ctx context.Context, handler Handler[T, R], logger *slog.Logger, opts ...Option) *Pool[T, R] {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{workers: 4, queueSize: 256}
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pool[T, R]{
		handler: handler,
		logger:  logger,
		workers: o.workers,
		ch:      make(chan T, o.queueSize),
		out:     make(chan R, o.workers),
	}
	p.start(ctx)
	return p
}

func (p *Pool[T, R]) start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			p.logger.Debug("worker started", "worker_id", workerID)

			for job := range p.ch {
				p.out <- p.handler(ctx, job)
			}

			p.logger.Debug("worker stopped", "worker_id", workerID)
		}(i + 1)
	}

	go func() {
		p.wg.Wait()
		close(p.out)
	}()
}

// Workers returns the number of worker goroutines.
func (p *Pool[T, R]) Workers() int {
	return p.workers
}

// Enqueue submits a job, blocking while the queue is full.
func (p *Pool[T, R]) Enqueue(job T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrClosed
	}
	select {
	case p.ch <- job:
	default:
		p.logger.Debug("queue full, applying backpressure")
		p.ch <- job
	}
	return nil
}

// Close stops accepting jobs. Workers drain the queue, then Results is closed.
func (p *Pool[T, R]) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.done = true
		close(p.ch)
		p.mu.Unlock()
	})
}

// Results yields handler results in completion order until all jobs are done and Close was called.
func (p *Pool[T, R]) Results() <-chan R {
	return p.out
}
