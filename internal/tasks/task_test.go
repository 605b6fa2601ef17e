// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
)

func testSheet(name string, rows int) *csvfmt.Sheet {
	sheet := &csvfmt.Sheet{Name: name, Header: []string{"n", "label"}}
	for i := 1; i <= rows; i++ {
		sheet.Rows = append(sheet.Rows, csvfmt.Row{i, fmt.Sprintf("row %d", i)})
	}
	return sheet
}

func testTask(name string, rows int) *Task {
	opts := csvfmt.DefaultOptions()
	opts.LineEnding = csvfmt.LineEndingUnix
	return NewTask("book.xlsx", export.Job{
		Sheet:       testSheet(name, rows),
		Options:     opts,
		Destination: name + ".csv",
		Sink:        export.NewBufferSink(name).Factory(),
		Locks:       export.NewLocks(),
	})
}

func TestNewTask(t *testing.T) {
	task := testTask("Orders", 12)

	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Sheet != "Orders" {
		t.Errorf("Expected sheet 'Orders', got '%s'", task.Sheet)
	}
	if task.TotalRows != 12 {
		t.Errorf("Expected 12 total rows, got %d", task.TotalRows)
	}
	if task.GetStatus() != TaskStatusQueued {
		t.Errorf("Expected status Queued, got %s", task.GetStatus())
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	task := testTask("A", 1)

	if err := task.SetStatus(TaskStatusComplete); err == nil {
		t.Error("Queued -> Complete should be rejected")
	}
	if err := task.SetStatus(TaskStatusRunning); err != nil {
		t.Errorf("Queued -> Running should be allowed: %v", err)
	}
	if err := task.SetStatus(TaskStatusFailed); err != nil {
		t.Errorf("Running -> Failed should be allowed: %v", err)
	}
	if err := task.SetStatus(TaskStatusRunning); err == nil {
		t.Error("terminal states must not transition")
	}
}

func TestTaskPercent(t *testing.T) {
	task := testTask("A", 4000)
	task.MarkStarted()

	task.SetRows(1000)
	if got := task.Percent(); got != 25 {
		t.Errorf("Expected 25%%, got %d", got)
	}

	task.MarkComplete(4000)
	if got := task.Percent(); got != 100 {
		t.Errorf("Expected 100%%, got %d", got)
	}

	empty := testTask("B", 0)
	if got := empty.Percent(); got != 0 {
		t.Errorf("Expected 0%% before completion, got %d", got)
	}
}

func TestQueueOperations(t *testing.T) {
	queue := NewQueue(10)

	task1 := testTask("One", 1)
	task2 := testTask("Two", 1)
	queue.Add(task1)
	queue.Add(task2)

	if queue.Count() != 2 {
		t.Errorf("Expected 2 tasks, got %d", queue.Count())
	}

	retrieved := queue.Get(task1.ID)
	if retrieved == nil {
		t.Fatal("Should retrieve task by ID")
	}
	if retrieved.Sheet != "One" {
		t.Errorf("Expected 'One', got '%s'", retrieved.Sheet)
	}
	if queue.Idle() {
		t.Error("Queue with queued tasks is not idle")
	}
}

func TestQueueFiltering(t *testing.T) {
	queue := NewQueue(10)

	task1 := testTask("Running", 1)
	task2 := testTask("Complete", 1)
	task3 := testTask("Failed", 1)
	queue.Add(task1)
	queue.Add(task2)
	queue.Add(task3)

	queue.MarkRunning(task1)
	queue.MarkRunning(task2)
	queue.MarkRunning(task3)
	queue.MarkComplete(task2, 1)
	queue.MarkFailed(task3, &csvfmt.SinkWriteError{Op: "write", Err: errors.New("disk full")})

	if running := queue.Running(); len(running) != 1 {
		t.Errorf("Expected 1 running task, got %d", len(running))
	}
	if completed := queue.Completed(); len(completed) != 2 {
		t.Errorf("Expected 2 completed tasks, got %d", len(completed))
	}

	failed := queue.Get(task3.ID)
	if failed.ErrorKind != csvfmt.ErrorKindSinkWrite {
		t.Errorf("Expected SinkWriteError kind, got %s", failed.ErrorKind)
	}

	n1 := <-queue.Notifications()
	n2 := <-queue.Notifications()
	if n1.Status != TaskStatusComplete || n2.Status != TaskStatusFailed {
		t.Errorf("Unexpected notifications: %s, %s", n1.Status, n2.Status)
	}
}

func TestQueueHistoryTrim(t *testing.T) {
	queue := NewQueue(2)
	for i := 0; i < 5; i++ {
		task := testTask(fmt.Sprintf("T%d", i), 1)
		queue.Add(task)
		queue.MarkRunning(task)
		queue.MarkComplete(task, 1)
	}
	if queue.Count() != 2 {
		t.Errorf("Expected history trimmed to 2, got %d", queue.Count())
	}
}

func TestTaskCancel(t *testing.T) {
	queued := testTask("Queued", 1)
	if !queued.Cancel() {
		t.Error("Cancel should succeed for queued task")
	}
	if queued.GetStatus() != TaskStatusCanceled {
		t.Error("Queued task should be canceled immediately")
	}

	running := testTask("Running", 1)
	running.MarkStarted()
	called := false
	running.SetCancelFunc(func() { called = true })
	if !running.Cancel() {
		t.Error("Cancel should succeed for running task")
	}
	if !called {
		t.Error("Cancel should invoke the run's cancel func")
	}

	running.MarkCanceled()
	if running.Cancel() {
		t.Error("Cancel after the task finished should fail")
	}
}
