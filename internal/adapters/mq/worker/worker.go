// Package worker defines worker contracts for asynchronous person
// enrichment and state derivation.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/ivasko/courtline/internal/adapters/mq/queue"
	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Default worker configuration constants.
const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Enricher fills in geocoding and gender fields on a person.
// Enrichment failures degrade: the person comes back with the fields
// left unknown and the error reported for accounting, never fatal.
type Enricher interface {
	Enrich(ctx context.Context, p model.Person) (model.Person, error)
}

// Deriver replays a reservation history into a state entry.
type Deriver interface {
	Derive(personID string, history []model.Reservation) repository.StateEntry
}

// Sink is where finished people and states land.
type Sink interface {
	UpsertPerson(ctx context.Context, p model.Person) error
	SetState(ctx context.Context, entry repository.StateEntry) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes enrichment tasks until its queue drains.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	enricher Enricher
	deriver  Deriver
	sink     Sink
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, enricher Enricher, deriver Deriver, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		enricher: enricher,
		deriver:  deriver,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.process(ctx, task); err != nil {
				w.logger.Error(ctx, "task failed",
					logger.String("personID", task.Person.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process enriches one person and derives their state. An enrichment
// failure is logged and counted but the person is still stored, so an
// unreachable geocoding service costs coordinates, not the dataset.
func (w *InMemoryWorker) process(ctx context.Context, task queue.Task) error {
	start := time.Now()
	defer func() { metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds())) }()

	person, err := w.enricher.Enrich(ctx, task.Person)
	if err != nil {
		metrics.RecordEnrichmentError()
		w.logger.Warn(ctx, "enrichment degraded",
			logger.String("personID", task.Person.ID),
			logger.Error(err),
		)
	}
	metrics.RecordGenderLabel(string(person.Gender))

	if err := w.sink.UpsertPerson(ctx, person); err != nil {
		return fmt.Errorf("store person %s: %w", person.ID, err)
	}
	if err := w.sink.SetState(ctx, w.deriver.Derive(person.ID, task.History)); err != nil {
		return fmt.Errorf("store state %s: %w", person.ID, err)
	}
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to
// a multiple of the CPU count.
func NewPool(workerCount int, q Queue, enricher Enricher, deriver Deriver, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, enricher, deriver, sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "pool started", logger.Int("workers", len(p.workers)))
}

// Wait blocks until every worker has drained and stopped.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("pool drain: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
