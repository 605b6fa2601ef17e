// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/logging"
)

// eventBuffer bounds queued events per run. The last two slots are kept for
// the newest coalesced Progress and the terminal event.
const eventBuffer = 64

// =============================================================================
// JOB
// =============================================================================

// Job describes one sheet-to-file conversion.
type Job struct {
	Sheet       *csvfmt.Sheet
	Options     csvfmt.Options
	Destination string

	// Sink opens the output. Nil means OpenFileSink.
	Sink SinkFactory

	// Locks serialises runs per destination. Nil means DefaultLocks.
	Locks *Locks

	// Logger receives run diagnostics. Nil means slog.Default tagged with
	// the run ID.
	Logger *slog.Logger
}

// =============================================================================
// RESULT
// =============================================================================

// Status is the terminal outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result summarises a finished run.
type Result struct {
	RunID       string
	Destination string
	Status      Status
	Rows        int
	Err         error
	Started     time.Time
	Finished    time.Time
}

// Duration returns how long the run took.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Event returns the terminal event matching r.
func (r Result) Event() Event {
	switch r.Status {
	case StatusCompleted:
		return Completed{RunID: r.RunID, Rows: r.Rows, Destination: r.Destination}
	case StatusCancelled:
		return Cancelled{RunID: r.RunID, Rows: r.Rows}
	default:
		return Failed{RunID: r.RunID, Kind: csvfmt.KindOf(r.Err), Err: r.Err, Rows: r.Rows}
	}
}

// =============================================================================
// RUN
// =============================================================================

// Run is a conversion executing on its own goroutine. The caller consumes
// Events or blocks in Wait; it never shares mutable state with the worker.
type Run struct {
	id     string
	job    Job
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	log    *slog.Logger

	// pending is the newest Progress that found the buffer full. Only the
	// worker touches it.
	pending *Progress

	mu     sync.Mutex
	result Result
}

// Start launches the worker for job and returns immediately.
func Start(ctx context.Context, job Job) *Run {
	if job.Sink == nil {
		job.Sink = OpenFileSink
	}
	if job.Locks == nil {
		job.Locks = DefaultLocks()
	}
	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(logging.WithRunID(ctx, id))
	r := &Run{
		id:     id,
		job:    job,
		events: make(chan Event, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if job.Logger != nil {
		r.log = job.Logger.With("run_id", id, "destination", job.Destination)
	} else {
		r.log = logging.WithFields(runCtx, "destination", job.Destination)
	}

	go r.execute(runCtx)
	return r
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Events delivers progress followed by exactly one terminal event, after
// which the channel is closed.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Cancel asks the worker to stop before the next row.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed once the run has finished and released its sink.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its result.
func (r *Run) Wait() Result {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// emit queues a progress event without blocking the row loop. When the
// consumer lags, the newest count replaces the ones that did not fit. Only
// the worker sends, so the length check cannot race with another sender.
func (r *Run) emit(p Progress) {
	if len(r.events) >= cap(r.events)-2 {
		r.pending = &p
		return
	}
	r.pending = nil
	r.events <- p
}

// flushProgress delivers a coalesced Progress into its reserved slot.
func (r *Run) flushProgress() {
	if r.pending != nil {
		r.events <- *r.pending
		r.pending = nil
	}
}

func (r *Run) execute(ctx context.Context) {
	defer r.cancel()

	res := Result{
		RunID:       r.id,
		Destination: r.job.Destination,
		Started:     time.Now(),
	}
	rows, err := r.convert(ctx)
	res.Rows = rows
	res.Finished = time.Now()

	switch {
	case err == nil:
		res.Status = StatusCompleted
		r.log.Info("conversion completed", "rows", rows, "duration", res.Duration())
	case csvfmt.IsCancelled(err):
		res.Status = StatusCancelled
		r.log.Info("conversion cancelled", "rows", rows)
	default:
		res.Status = StatusFailed
		res.Err = err
		r.log.Error("conversion failed", "rows", rows, "kind", csvfmt.KindOf(err), "error", err)
	}

	r.mu.Lock()
	r.result = res
	r.mu.Unlock()

	r.flushProgress()
	r.events <- res.Event()
	close(r.events)
	close(r.done)
}

// convert owns the sink for the whole run. Output is committed only after
// the writer finished every row; any other outcome aborts it.
func (r *Run) convert(ctx context.Context) (int, error) {
	job := r.job
	if job.Sheet == nil {
		return 0, errors.New("export: job has no sheet")
	}

	w, err := csvfmt.NewWriter(job.Options, func(rows int) {
		r.emit(Progress{RunID: r.id, Rows: rows})
	})
	if err != nil {
		return 0, err
	}

	release, err := job.Locks.Acquire(ctx, job.Destination)
	if err != nil {
		return 0, err
	}
	defer release()

	sink, err := job.Sink(job.Destination)
	if err != nil {
		var sinkErr *csvfmt.SinkWriteError
		if !errors.As(err, &sinkErr) {
			err = &csvfmt.SinkWriteError{Path: job.Destination, Op: "open", Err: err}
		}
		return 0, err
	}

	r.log.Debug("conversion started", "sheet", job.Sheet.Name, "rows", job.Sheet.Len())
	rows, err := w.WriteSheet(ctx, sink, job.Sheet)
	if err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			r.log.Warn("failed to discard partial output", "error", abortErr)
		}
		var sinkErr *csvfmt.SinkWriteError
		if errors.As(err, &sinkErr) && sinkErr.Path == "" {
			sinkErr.Path = sink.Destination()
		}
		return rows, err
	}

	if err := sink.Commit(); err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			r.log.Warn("failed to discard uncommitted output", "error", abortErr)
		}
		return rows, err
	}
	return rows, nil
}

// =============================================================================
// DESTINATION NAMING
// =============================================================================

// DefaultDestination derives an output path from the workbook path. With
// perSheet set the sheet name is appended so several sheets can share a
// directory.
func DefaultDestination(source, sheet string, perSheet bool) string {
	return DestinationIn(filepath.Dir(source), source, sheet, perSheet)
}

// DestinationIn is DefaultDestination with an explicit output directory.
func DestinationIn(dir, source, sheet string, perSheet bool) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if perSheet {
		base = fmt.Sprintf("%s_%s", base, sanitizeFilename(sheet))
	}
	return filepath.Join(dir, base+".csv")
}

// sanitizeFilename replaces characters that are invalid in filenames on
// Windows or Unix.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "sheet"
	}
	return string(result)
}
