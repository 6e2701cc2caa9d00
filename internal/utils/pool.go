// Package utils holds small pieces of ambient infrastructure shared by
// the network gateway — currently just the worker pool. Adapted from the
// teacher's internal/worker.go (which the teacher's own net/server.go
// imported as "fenrir/internal/utils" but never actually provided).
package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultTaskChanSize = 100

// WorkerFunction processes one task. It should return promptly — long
// blocking calls starve the pool.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs up to n WorkerFunction invocations concurrently over
// tasks pulled from an internal channel. It exists purely to keep I/O
// (reading bytes off client connections) off the single goroutine that
// owns a Book — matching engine mutations never happen inside a worker.
// Concurrency is bounded by a buffered semaphore rather than the teacher's
// poll-and-count loop, which raced on its active-worker counter and spun
// on an empty default case whenever the pool was already full.
type WorkerPool struct {
	n      int
	tasks  chan any
	sem    chan struct{}
	active prometheus.Gauge // nil unless WithActiveGauge is supplied
}

// Option configures a WorkerPool at construction time.
type Option func(*WorkerPool)

// WithActiveGauge registers a gauge tracking the pool's current in-flight
// worker count against reg. Purely observational, mirroring how
// engine.WithMetrics instruments the Book.
func WithActiveGauge(reg prometheus.Registerer) Option {
	return func(pool *WorkerPool) {
		pool.active = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ticklob",
			Subsystem: "gateway",
			Name:      "worker_pool_active",
			Help:      "Number of worker pool goroutines currently processing a task.",
		})
		reg.MustRegister(pool.active)
	}
}

// NewWorkerPool constructs a pool sized for size concurrent workers.
func NewWorkerPool(size int, opts ...Option) WorkerPool {
	pool := WorkerPool{
		tasks: make(chan any, defaultTaskChanSize),
		sem:   make(chan struct{}, size),
		n:     size,
	}
	for _, opt := range opts {
		opt(&pool)
	}
	return pool
}

// AddTask enqueues a task for the next free worker.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup drives tasks through at most n concurrent WorkerFunction calls
// until t dies. Each task acquires a semaphore slot before its worker is
// spawned, so the pool never exceeds n in-flight workers and never busy-
// polls waiting for one to free up.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for {
		select {
		case <-t.Dying():
			return
		case task := <-pool.tasks:
			select {
			case pool.sem <- struct{}{}:
			case <-t.Dying():
				return
			}
			pool.incActive()
			t.Go(func() error {
				defer func() {
					<-pool.sem
					pool.decActive()
				}()
				if err := work(t, task); err != nil {
					log.Error().Err(err).Msg("worker exiting on error")
					return err
				}
				return nil
			})
		}
	}
}

func (pool *WorkerPool) incActive() {
	if pool.active != nil {
		pool.active.Inc()
	}
}

func (pool *WorkerPool) decActive() {
	if pool.active != nil {
		pool.active.Dec()
	}
}
