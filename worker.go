package vgrid

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Request is the input of one off-thread pipeline run.
type Request[T any] struct {
	Records   []T
	Sort      SortState
	Grouping  GroupingState
	Expansion ExpansionState

	fingerprint uint64 // set by Grid.PendingRequest
}

// Result is the output of one pipeline run.
type Result[T any] struct {
	ID      uint64
	Request Request[T]
	Model   *RowModel[T]
	Took    time.Duration
	Err     error // context errors only; accessor failures are in Model.Err
}

// Worker runs the row model pipeline off the host's event loop. Requests
// are numbered; dispatching a new one cancels the one before it, and only
// the latest request's result is ever delivered.
type Worker[T any] struct {
	pipeline Pipeline[T]
	sem      *semaphore.Weighted
	log      *slog.Logger

	mu      sync.Mutex
	latest  uint64
	cancel  context.CancelFunc
	closed  bool
	results chan Result[T]
	wg      sync.WaitGroup
}

// NewWorker creates a worker for a pipeline. logger may be nil.
func NewWorker[T any](p Pipeline[T], logger *slog.Logger) *Worker[T] {
	if logger == nil {
		logger = discardLogger()
	}
	return &Worker[T]{
		pipeline: p,
		sem:      semaphore.NewWeighted(1),
		log:      logger,
		results:  make(chan Result[T], 1),
	}
}

// Results delivers the result of the latest request. A result that is not
// read before the next one arrives is replaced. The channel is closed by Close.
func (w *Worker[T]) Results() <-chan Result[T] { return w.results }

// Dispatch starts a pipeline run and returns its id, or 0 once the worker
// is closed.
func (w *Worker[T]) Dispatch(ctx context.Context, req Request[T]) uint64 {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return 0
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.latest++
	id := w.latest
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		defer cancel()
		res := w.Compute(ctx, req)
		res.ID = id
		if res.Err != nil {
			w.log.Debug("recompute abandoned", "id", id, "err", res.Err)
			return
		}
		w.deliver(res)
	}()
	return id
}

// Compute runs the pipeline synchronously. Runs never overlap: a call waits
// for the one in progress, and gives up if ctx ends first.
func (w *Worker[T]) Compute(ctx context.Context, req Request[T]) Result[T] {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return Result[T]{Request: req, Err: err}
	}
	defer w.sem.Release(1)
	if err := ctx.Err(); err != nil {
		return Result[T]{Request: req, Err: err}
	}

	start := time.Now()
	m := w.pipeline.Compute(req.Records, req.Sort, req.Grouping, req.Expansion)
	res := Result[T]{Request: req, Model: m, Took: time.Since(start)}
	if err := ctx.Err(); err != nil {
		res.Err = err
	}
	return res
}

// IsLatest reports whether id belongs to the most recent request.
func (w *Worker[T]) IsLatest(id uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return id != 0 && id == w.latest
}

func (w *Worker[T]) deliver(res Result[T]) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || res.ID != w.latest {
		w.log.Debug("stale result dropped", "id", res.ID, "latest", w.latest)
		return
	}
	select {
	case w.results <- res:
	default:
		// replace an unread result; senders hold mu so there is room after the drain
		select {
		case <-w.results:
		default:
		}
		w.results <- res
	}
}

// Close cancels the running request, waits for every run to finish and
// closes the results channel.
func (w *Worker[T]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()
	close(w.results)
}

// Wait blocks until the result for id, or for a newer request, arrives or
// ctx ends. It is meant for hosts without an event loop.
func (w *Worker[T]) Wait(ctx context.Context, id uint64) (Result[T], error) {
	for {
		select {
		case <-ctx.Done():
			return Result[T]{}, ctx.Err()
		case res, ok := <-w.results:
			if !ok {
				return Result[T]{}, ErrWorkerClosed
			}
			if res.ID >= id {
				return res, nil
			}
		}
	}
}
