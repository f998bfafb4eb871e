package routing

import (
	"sync"
	"sync/atomic"
)

// AsyncRouter decouples port-value ingestion from routed delivery.
//
// Ingestion always returns immediately: the transport receive loop that
// feeds it is shared with message classification and connection
// liveness, so it must never block. When the bounded queue is full the
// newest job is dropped and counted — the drop-newest policy keeps the
// already-queued (older) values flowing in order rather than churning
// the queue under overload.
//
// A fixed pool of workers drains the queue in FIFO order. Each worker
// executes jobs sequentially, but no ordering holds across workers.
type AsyncRouter struct {
	router *Router
	jobs   chan Job

	workers int
	wg      sync.WaitGroup

	mu     sync.RWMutex // guards closed against concurrent Ingest/Close
	closed bool

	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	logger Logger
}

// NewAsyncRouter creates the asynchronous wrapper around router with a
// bounded queue of queueSize jobs drained by workers goroutines.
func NewAsyncRouter(router *Router, workers, queueSize int) *AsyncRouter {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &AsyncRouter{
		router:  router,
		jobs:    make(chan Job, queueSize),
		workers: workers,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the async router.
func (a *AsyncRouter) SetLogger(logger Logger) {
	a.logger = logger
}

// Start launches the worker pool.
func (a *AsyncRouter) Start() {
	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go a.work()
	}
	a.logger.Info("routing workers started", "workers", a.workers, "queue_size", cap(a.jobs))
}

// Ingest offers one job to the queue without blocking.
// It reports whether the job was accepted; a full queue drops the job
// and increments the drop counter.
func (a *AsyncRouter) Ingest(job Job) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		return false
	}

	select {
	case a.jobs <- job:
		a.enqueued.Add(1)
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// Stats returns a snapshot of the routing counters.
func (a *AsyncRouter) Stats() Stats {
	return Stats{
		Enqueued:   a.enqueued.Load(),
		Processed:  a.processed.Load(),
		Dropped:    a.dropped.Load(),
		Failed:     a.failed.Load(),
		QueueDepth: len(a.jobs),
	}
}

// Close stops ingestion, drains the queue, and waits for the workers.
func (a *AsyncRouter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.jobs)
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("routing workers stopped", "processed", a.processed.Load(), "dropped", a.dropped.Load())
}

// work is one worker: pull, route, count. A failed job is isolated —
// counted and logged, never fatal to the worker.
func (a *AsyncRouter) work() {
	defer a.wg.Done()
	for job := range a.jobs {
		if err := a.router.Route(job); err != nil {
			a.failed.Add(1)
		}
		a.processed.Add(1)
	}
}
