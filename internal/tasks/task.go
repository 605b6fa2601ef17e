// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a conversion task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting for a runner slot
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates rows are being written
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the output was committed
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the run ended with an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the user stopped the run
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is one sheet conversion tracked by a Queue.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Description is a human-readable summary of the conversion
	Description string

	// Source is the workbook path the sheet was read from
	Source string

	// Sheet is the worksheet name
	Sheet string

	// Destination is the output path
	Destination string

	// Status is the current state of the task
	Status TaskStatus

	// RunID identifies the export run once started
	RunID string

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task completed or failed
	EndTime time.Time

	// Rows is the number of data rows written so far
	Rows int

	// TotalRows is the number of data rows in the sheet
	TotalRows int

	// Error is the error message if the task failed
	Error string

	// ErrorKind classifies Error
	ErrorKind csvfmt.ErrorKind

	// job is handed to export.Start
	job export.Job

	// cancel is the context cancel function for this task
	cancel context.CancelFunc

	// stopRequested records a Cancel that arrived before cancel was set
	stopRequested bool

	// mu protects concurrent access to the task
	mu sync.RWMutex
}

// =============================================================================
// TASK CREATION
// =============================================================================

// NewTask creates a queued task that converts job.Sheet, read from source,
// into job.Destination.
func NewTask(source string, job export.Job) *Task {
	sheetName, total := "", 0
	if job.Sheet != nil {
		sheetName, total = job.Sheet.Name, job.Sheet.Len()
	}
	return &Task{
		ID:          uuid.New().String(),
		Description: fmt.Sprintf("%s [%s] to %s", source, sheetName, job.Destination),
		Source:      source,
		Sheet:       sheetName,
		Destination: job.Destination,
		Status:      TaskStatusQueued,
		TotalRows:   total,
		job:         job,
	}
}

// Options returns the format options the task runs with.
func (t *Task) Options() csvfmt.Options {
	return t.job.Options
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetStatus updates the task status (thread-safe).
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled
func (t *Task) SetStatus(status TaskStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isValidTransition(t.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, status)
	}

	t.Status = status
	return nil
}

// isValidTransition checks if a status transition is valid (must be called with lock held).
func (t *Task) isValidTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}

	switch from {
	case TaskStatusQueued:
		return to == TaskStatusRunning || to == TaskStatusCanceled
	case TaskStatusRunning:
		return to == TaskStatusComplete || to == TaskStatusFailed || to == TaskStatusCanceled
	default:
		// Terminal states - no transitions allowed
		return false
	}
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// SetRows records the cumulative number of rows written (thread-safe).
func (t *Task) SetRows(rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Rows = rows
}

// GetRows returns the rows written so far (thread-safe).
func (t *Task) GetRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Rows
}

// Percent returns progress as 0-100. A sheet without data rows is 100% once
// complete and 0% before.
func (t *Task) Percent() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.Status == TaskStatusComplete {
		return 100
	}
	if t.TotalRows == 0 {
		return 0
	}
	pct := t.Rows * 100 / t.TotalRows
	return min(max(pct, 0), 100)
}

// SetRunID stores the ID of the export run executing this task.
func (t *Task) SetRunID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.RunID = id
}

// SetError sets the error message and marks the task as failed (thread-safe).
// This bypasses status transition validation for internal use.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.Error = err.Error()
		t.ErrorKind = csvfmt.KindOf(err)
		t.Status = TaskStatusFailed
		t.EndTime = time.Now()
	}
}

// GetError returns the error message (thread-safe).
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// start moves a queued task to Running. It returns false when the task left
// the queue first, for example because it was cancelled.
func (t *Task) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != TaskStatusQueued {
		return false
	}
	t.Status = TaskStatusRunning
	t.StartTime = time.Now()
	return true
}

// MarkStarted marks the task as running (thread-safe).
func (t *Task) MarkStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusRunning
	t.StartTime = time.Now()
}

// MarkComplete marks the task as successfully completed (thread-safe).
func (t *Task) MarkComplete(rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusComplete
	t.EndTime = time.Now()
	t.Rows = rows
}

// MarkCanceled marks the task as canceled (thread-safe).
func (t *Task) MarkCanceled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusCanceled
	if t.EndTime.IsZero() {
		t.EndTime = time.Now()
	}
}

// SetCancelFunc stores the context cancel function for this task.
// It must only be called once, before the run starts.
func (t *Task) SetCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
	if t.stopRequested && cancel != nil {
		cancel()
	}
}

// Cancel asks a queued or running task to stop. A running task reaches its
// final Canceled state once the export run has discarded its output.
// Returns false if the task already finished.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.Status {
	case TaskStatusQueued:
		t.Status = TaskStatusCanceled
		t.EndTime = time.Now()
		return true
	case TaskStatusRunning:
		if t.cancel != nil {
			t.cancel()
		} else {
			t.stopRequested = true
		}
		return true
	default:
		return false
	}
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// IsComplete returns true if the task has finished (success, failure, or canceled).
func (t *Task) IsComplete() bool {
	status := t.GetStatus()
	return status == TaskStatusComplete || status == TaskStatusFailed || status == TaskStatusCanceled
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	status := t.GetStatus()
	duration := t.Duration()

	summary := fmt.Sprintf("[%s] %s - %s (%d rows)", t.ID[:8], t.Description, status, t.GetRows())
	if duration > 0 {
		summary += fmt.Sprintf(" %.1fs", duration.Seconds())
	}
	return summary
}

// Clone creates a copy of the task for reading. The job is not copied.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:          t.ID,
		Description: t.Description,
		Source:      t.Source,
		Sheet:       t.Sheet,
		Destination: t.Destination,
		Status:      t.Status,
		RunID:       t.RunID,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Rows:        t.Rows,
		TotalRows:   t.TotalRows,
		Error:       t.Error,
		ErrorKind:   t.ErrorKind,
	}
}
