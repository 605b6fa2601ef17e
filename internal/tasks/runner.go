// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
)

// Recorder persists the outcome of finished tasks. *storage.History
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry storage.Entry) error
}

// EventFunc observes every export event of every task. It runs on the task's
// goroutine and must only hand the event off.
type EventFunc func(task *Task, ev export.Event)

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes conversion tasks from a queue.
type Runner struct {
	queue         *Queue
	wg            sync.WaitGroup
	stop          chan struct{}
	stopped       atomic.Bool // prevents new tasks after Stop()
	maxConcurrent int
	semaphore     chan struct{}
	taskTimeout   time.Duration // 0 = no timeout

	mu       sync.Mutex
	recorder Recorder
	onEvent  EventFunc
	logger   *slog.Logger
}

// NewRunner creates a runner with a concurrency limit of 2 and no timeout.
func NewRunner(queue *Queue) *Runner {
	return NewRunnerWithOptions(queue, 2, 0)
}

// NewRunnerWithOptions creates a runner with custom settings.
// maxConcurrent: maximum number of conversions at once (default: 2)
// taskTimeout: timeout for each conversion (0 = none)
func NewRunnerWithOptions(queue *Queue, maxConcurrent int, taskTimeout time.Duration) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Runner{
		queue:         queue,
		stop:          make(chan struct{}),
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		taskTimeout:   taskTimeout,
		logger:        slog.Default(),
	}
}

// SetRecorder installs a history recorder. Nil disables recording.
func (r *Runner) SetRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// OnEvent installs an observer for export events.
func (r *Runner) OnEvent(fn EventFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvent = fn
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

func (r *Runner) hooks() (Recorder, EventFunc, *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorder, r.onEvent, r.logger
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Start begins processing tasks from the queue.
func (r *Runner) Start() {
	go r.processLoop()
}

// Stop cancels running conversions and waits for them to release their
// output.
func (r *Runner) Stop() {
	if r.stopped.Swap(true) {
		return
	}
	close(r.stop)
	r.queue.CancelAll()
	r.wg.Wait()
}

// WaitIdle blocks until the queue has no queued or running task, or ctx is
// done.
func (r *Runner) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if r.queue.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

// processLoop continuously processes tasks from the queue.
func (r *Runner) processLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.stopped.Load() {
				return
			}

			for _, task := range r.queue.Queued() {
				if r.stopped.Load() {
					return
				}

				// Acquire semaphore (blocks if at max concurrency)
				select {
				case r.semaphore <- struct{}{}:
					// The snapshot may be stale: the task can be cancelled
					// while we wait for a slot.
					if !r.queue.MarkRunning(task) {
						<-r.semaphore
						continue
					}
					r.wg.Add(1)
					go r.executeTask(task)
				case <-r.stop:
					return
				}
			}
		}
	}
}

// executeTask runs a single conversion.
func (r *Runner) executeTask(task *Task) {
	defer r.wg.Done()
	defer func() { <-r.semaphore }()

	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	task.SetCancelFunc(cancel)
	defer cancel()

	res := r.run(ctx, task)

	switch res.Status {
	case export.StatusCompleted:
		r.queue.MarkComplete(task, res.Rows)
	case export.StatusCancelled:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			task.SetRows(res.Rows)
			r.queue.MarkFailed(task, fmt.Errorf("conversion timeout after %v: %w", r.taskTimeout, ctx.Err()))
		} else {
			task.SetRows(res.Rows)
			r.queue.MarkCanceled(task)
		}
	default:
		task.SetRows(res.Rows)
		r.queue.MarkFailed(task, res.Err)
	}

	r.record(task, res)
}

// run starts the export and relays its events until the terminal one.
func (r *Runner) run(ctx context.Context, task *Task) export.Result {
	_, onEvent, logger := r.hooks()

	job := task.job
	if job.Logger == nil {
		job.Logger = logger.With("task_id", task.ID)
	}

	run := export.Start(ctx, job)
	task.SetRunID(run.ID())

	for ev := range run.Events() {
		if p, ok := ev.(export.Progress); ok {
			task.SetRows(p.Rows)
		}
		if onEvent != nil {
			onEvent(task.Clone(), ev)
		}
	}
	return run.Wait()
}

// record stores the task outcome if a recorder is installed. Recording
// failures are logged, never surfaced as task failures.
func (r *Runner) record(task *Task, res export.Result) {
	recorder, _, logger := r.hooks()
	if recorder == nil {
		return
	}

	entry := EntryFor(task, res)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Record(ctx, entry); err != nil {
		logger.Warn("failed to record conversion history", "task_id", task.ID, "error", err)
	}
}

// EntryFor builds the history entry describing a finished task.
func EntryFor(task *Task, res export.Result) storage.Entry {
	snap := task.Clone()
	opts := task.Options()

	entry := storage.Entry{
		ID:          res.RunID,
		Source:      snap.Source,
		Sheet:       snap.Sheet,
		Destination: snap.Destination,
		Encoding:    opts.Encoding.String(),
		Separator:   opts.Separator,
		Quoting:     opts.Quoting.String(),
		Rows:        res.Rows,
		Status:      string(res.Status),
		Started:     res.Started,
		Finished:    res.Finished,
	}
	if entry.ID == "" {
		entry.ID = snap.ID
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
		entry.ErrorKind = csvfmt.KindOf(res.Err).String()
	}
	return entry
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// Execute runs a task on the calling goroutine without queuing. Cancelling
// ctx cancels the conversion. It returns the export result.
func Execute(ctx context.Context, task *Task, onEvent EventFunc) export.Result {
	runner := NewRunner(NewQueue(0))
	runner.OnEvent(onEvent)

	if !task.start() {
		return export.Result{
			Destination: task.Destination,
			Status:      export.StatusCancelled,
			Err:         context.Canceled,
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	task.SetCancelFunc(cancel)
	defer cancel()

	res := runner.run(ctx, task)
	switch res.Status {
	case export.StatusCompleted:
		task.MarkComplete(res.Rows)
	case export.StatusCancelled:
		task.SetRows(res.Rows)
		task.MarkCanceled()
	default:
		task.SetRows(res.Rows)
		task.SetError(res.Err)
	}
	return res
}
