// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue holds conversion tasks with thread-safe operations.
type Queue struct {
	// tasks is the list of all tasks (both queued and completed)
	tasks []*Task

	// running tracks currently running tasks by ID
	running map[string]*Task

	// maxHistory is the maximum number of completed tasks to keep
	maxHistory int

	// maxQueueSize is the maximum number of queued tasks allowed (0 = unlimited)
	maxQueueSize int

	// mu protects concurrent access to the queue
	mu sync.RWMutex

	// notifyChan sends notifications when tasks complete
	notifyChan chan TaskNotification
}

// TaskNotification reports that a task reached a terminal state.
type TaskNotification struct {
	TaskID      string
	Description string
	Destination string
	Status      TaskStatus
	Rows        int
	Error       string
	ErrorKind   csvfmt.ErrorKind
	Duration    time.Duration
}

// =============================================================================
// QUEUE CREATION
// =============================================================================

// NewQueue creates a new task queue.
// maxHistory sets the maximum number of completed tasks to keep (0 = unlimited).
func NewQueue(maxHistory int) *Queue {
	return NewQueueWithOptions(maxHistory, 0)
}

// NewQueueWithOptions creates a new task queue with custom settings.
// maxHistory: maximum number of completed tasks to keep (0 = unlimited)
// maxQueueSize: maximum number of queued tasks allowed (0 = unlimited)
func NewQueueWithOptions(maxHistory, maxQueueSize int) *Queue {
	return &Queue{
		tasks:        make([]*Task, 0),
		running:      make(map[string]*Task),
		maxHistory:   maxHistory,
		maxQueueSize: maxQueueSize,
		notifyChan:   make(chan TaskNotification, 100),
	}
}

// =============================================================================
// TASK MANAGEMENT
// =============================================================================

// Add adds a new task to the queue.
// Returns an error if the queue has reached its maximum size.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Check queue size limit if configured
	if q.maxQueueSize > 0 {
		queuedCount := 0
		for _, t := range q.tasks {
			if t.GetStatus() == TaskStatusQueued {
				queuedCount++
			}
		}
		if queuedCount >= q.maxQueueSize {
			return fmt.Errorf("queue is full: %d queued tasks (max: %d)", queuedCount, q.maxQueueSize)
		}
	}

	// Set initial status (ignore error since we're setting to initial state)
	_ = task.SetStatus(TaskStatusQueued)
	q.tasks = append(q.tasks, task)
	return nil
}

// Get retrieves a task by ID.
// Returns nil if the task is not found.
func (q *Queue) Get(id string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, task := range q.tasks {
		if task.ID == id {
			return task.Clone()
		}
	}
	return nil
}

// Cancel cancels a task by ID.
// Returns true if the task was successfully canceled.
// Uses write lock to prevent race conditions with tasks transitioning states.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task, ok := q.running[id]; ok {
		return task.Cancel()
	}

	for _, task := range q.tasks {
		if task.ID == id && task.GetStatus() == TaskStatusQueued {
			task.MarkCanceled()
			return true
		}
	}
	return false
}

// CancelAll cancels every queued and running task and returns how many were
// asked to stop.
func (q *Queue) CancelAll() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, task := range q.tasks {
		if task.Cancel() {
			n++
		}
	}
	return n
}

// MarkRunning marks a queued task as running. It returns false, leaving the
// task untouched, when the task is no longer queued.
func (q *Queue) MarkRunning(task *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !task.start() {
		return false
	}
	q.running[task.ID] = task
	return true
}

// MarkComplete marks a task as complete and removes it from running.
func (q *Queue) MarkComplete(task *Task, rows int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkComplete(rows)
	q.finishLocked(task)
}

// MarkFailed marks a task as failed and removes it from running.
func (q *Queue) MarkFailed(task *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.SetError(err)
	q.finishLocked(task)
}

// MarkCanceled marks a task as canceled and removes it from running.
func (q *Queue) MarkCanceled(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkCanceled()
	q.finishLocked(task)
}

// finishLocked notifies listeners and trims history. Must be called with
// lock held.
func (q *Queue) finishLocked(task *Task) {
	delete(q.running, task.ID)

	snap := task.Clone()
	q.notify(TaskNotification{
		TaskID:      snap.ID,
		Description: snap.Description,
		Destination: snap.Destination,
		Status:      snap.Status,
		Rows:        snap.Rows,
		Error:       snap.Error,
		ErrorKind:   snap.ErrorKind,
		Duration:    task.Duration(),
	})

	q.cleanupLocked()
}

// =============================================================================
// QUEUE QUERIES
// =============================================================================

// All returns a copy of all tasks.
func (q *Queue) All() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, len(q.tasks))
	for i, task := range q.tasks {
		result[i] = task.Clone()
	}
	return result
}

// Running returns a copy of all running tasks.
func (q *Queue) Running() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0, len(q.running))
	for _, task := range q.running {
		result = append(result, task.Clone())
	}
	return result
}

// Queued returns all queued (not yet started) tasks.
// IMPORTANT: Returns original task pointers (not clones) that are atomically
// marked as running to prevent race conditions where the runner would execute
// clones while originals remain in the queued state.
func (q *Queue) Queued() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]*Task, 0)
	for _, task := range q.tasks {
		if task.GetStatus() == TaskStatusQueued {
			// Return original task pointer
			result = append(result, task)
		}
	}
	return result
}

// Completed returns all completed tasks (success, failure, or canceled).
func (q *Queue) Completed() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0)
	for _, task := range q.tasks {
		if task.IsComplete() {
			result = append(result, task.Clone())
		}
	}
	return result
}

// Idle reports whether no task is queued or running.
func (q *Queue) Idle() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.running) > 0 {
		return false
	}
	for _, task := range q.tasks {
		if task.GetStatus() == TaskStatusQueued {
			return false
		}
	}
	return true
}

// Count returns the total number of tasks.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel.
// Consumers can read from this channel to receive task completion notifications.
func (q *Queue) Notifications() <-chan TaskNotification {
	return q.notifyChan
}

// notify sends a notification (must be called with lock held).
func (q *Queue) notify(notification TaskNotification) {
	select {
	case q.notifyChan <- notification:
		// Notification sent successfully
	default:
		slog.Warn("task notification channel full, dropping notification",
			"task_id", notification.TaskID, "status", notification.Status)
	}
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked removes old completed tasks to keep history size manageable.
// Must be called with lock held.
// Note: Uses FIFO removal order based on task slice position, NOT time-based removal.
// Completed tasks are removed in the order they appear in the tasks slice, which may
// not correspond to completion time if tasks finish out of order. The first N completed
// tasks in the slice will be removed, where N = (completedCount - maxHistory).
func (q *Queue) cleanupLocked() {
	if q.maxHistory <= 0 {
		return
	}

	// Count completed tasks
	completedCount := 0
	for _, task := range q.tasks {
		if task.IsComplete() {
			completedCount++
		}
	}

	// If we have too many completed tasks, remove the oldest
	if completedCount > q.maxHistory {
		toRemove := completedCount - q.maxHistory
		newTasks := make([]*Task, 0, len(q.tasks)-toRemove)

		for _, task := range q.tasks {
			if task.IsComplete() && toRemove > 0 {
				toRemove--
				continue
			}
			newTasks = append(newTasks, task)
		}

		q.tasks = newTasks
	}
}

// Clear removes all completed tasks from the history.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Keep only running and queued tasks
	newTasks := make([]*Task, 0)
	for _, task := range q.tasks {
		if !task.IsComplete() {
			newTasks = append(newTasks, task)
		}
	}
	q.tasks = newTasks
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the queue.
func (q *Queue) Summary() string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	running := len(q.running)
	queued := 0
	completed := 0
	failed := 0

	for _, task := range q.tasks {
		status := task.GetStatus()
		switch status {
		case TaskStatusQueued:
			queued++
		case TaskStatusComplete:
			completed++
		case TaskStatusFailed:
			failed++
		}
	}

	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d",
		running, queued, completed, failed)
}
