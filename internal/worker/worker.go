// Package worker runs the background indexer: it drains index tasks from the
// task queue and mirrors the corresponding documents into the search index.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

// Worker processes index tasks from the task queue.
type Worker struct {
	taskQueue driven.TaskQueue
	documents driving.DocumentService
	index     driven.DocumentIndex
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue driven.TaskQueue
	Documents driving.DocumentService
	Index     driven.DocumentIndex
	Logger    *slog.Logger

	// Concurrency is the number of concurrent task processors
	Concurrency int

	// DequeueTimeout is how long to wait for a task before checking again
	DequeueTimeout time.Duration
}

// NewWorker creates a new indexer worker.
func NewWorker(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		documents:      cfg.Documents,
		index:          cfg.Index,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("indexer starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("indexer stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		task, err := w.taskQueue.Dequeue(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask applies a single index task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "document", task.DocumentID)

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskReindex:
		err = w.handleReindex(ctx, task.DocumentID)
	case domain.TaskRemoveFromIndex:
		err = w.index.DeleteDocument(ctx, task.DocumentID)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	if err != nil {
		logger.Error("index task failed", "duration", time.Since(startTime), "error", err)
		return
	}

	logger.Info("index task completed", "duration", time.Since(startTime))
}

// handleReindex assembles the document and writes it to the index. A record
// deleted between enqueue and processing is removed from the index instead.
func (w *Worker) handleReindex(ctx context.Context, documentID string) error {
	doc, err := w.documents.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return w.index.DeleteDocument(ctx, documentID)
	}
	if err != nil {
		return err
	}
	return w.index.IndexDocument(ctx, doc)
}

// Health reports the worker and queue status.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{Running: running}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
