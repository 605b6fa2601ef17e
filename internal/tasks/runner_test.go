// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/storage"
)

type memoryRecorder struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (m *memoryRecorder) Record(_ context.Context, e storage.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) all() []storage.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Entry(nil), m.entries...)
}

func waitIdle(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.WaitIdle(ctx); err != nil {
		t.Fatalf("runner did not go idle: %v", err)
	}
}

func TestRunner_CompletesAndRecords(t *testing.T) {
	queue := NewQueue(10)
	runner := NewRunner(queue)
	rec := &memoryRecorder{}
	runner.SetRecorder(rec)

	var mu sync.Mutex
	progress := map[string][]int{}
	runner.OnEvent(func(task *Task, ev export.Event) {
		if p, ok := ev.(export.Progress); ok {
			mu.Lock()
			progress[task.Sheet] = append(progress[task.Sheet], p.Rows)
			mu.Unlock()
		}
	})

	runner.Start()
	defer runner.Stop()

	a := testTask("Alpha", 2500)
	b := testTask("Beta", 10)
	queue.Add(a)
	queue.Add(b)
	waitIdle(t, runner)

	for _, task := range []*Task{a, b} {
		got := queue.Get(task.ID)
		if got.Status != TaskStatusComplete {
			t.Errorf("%s: expected Complete, got %s (%s)", got.Sheet, got.Status, got.Error)
		}
		if got.Rows != got.TotalRows {
			t.Errorf("%s: wrote %d of %d rows", got.Sheet, got.Rows, got.TotalRows)
		}
		if got.RunID == "" {
			t.Errorf("%s: run ID not recorded", got.Sheet)
		}
	}

	mu.Lock()
	if len(progress["Alpha"]) != 2 {
		t.Errorf("Expected 2 progress events for Alpha, got %v", progress["Alpha"])
	}
	mu.Unlock()

	entries := rec.all()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Status != string(export.StatusCompleted) {
			t.Errorf("Expected completed entry, got %s", e.Status)
		}
		if e.Encoding != "utf-8" || e.Separator != "," {
			t.Errorf("Entry lost options: %+v", e)
		}
	}
}

func TestRunner_FailureIsRecordedWithKind(t *testing.T) {
	queue := NewQueue(10)
	runner := NewRunner(queue)
	rec := &memoryRecorder{}
	runner.SetRecorder(rec)
	runner.Start()
	defer runner.Stop()

	opts := csvfmt.DefaultOptions()
	opts.Encoding = csvfmt.ISO8859_1
	task := NewTask("book.xlsx", export.Job{
		Sheet: &csvfmt.Sheet{
			Name:   "Notes",
			Header: []string{"comment"},
			Rows:   []csvfmt.Row{{"café 😊"}},
		},
		Options:     opts,
		Destination: "notes.csv",
		Sink:        export.NewBufferSink("notes").Factory(),
		Locks:       export.NewLocks(),
	})
	queue.Add(task)
	waitIdle(t, runner)

	got := queue.Get(task.ID)
	if got.Status != TaskStatusFailed {
		t.Fatalf("Expected Failed, got %s", got.Status)
	}
	if got.ErrorKind != csvfmt.ErrorKindEncoding {
		t.Errorf("Expected EncodingError kind, got %s", got.ErrorKind)
	}

	entries := rec.all()
	if len(entries) != 1 || entries[0].ErrorKind != "EncodingError" {
		t.Errorf("Expected one EncodingError entry, got %+v", entries)
	}
}

// gatedSink blocks its first write until release is closed.
type gatedSink struct {
	*export.BufferSink
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedSink) Write(p []byte) (int, error) {
	s.once.Do(func() {
		close(s.started)
		<-s.release
	})
	return s.BufferSink.Write(p)
}

func TestRunner_CancelRunningTask(t *testing.T) {
	queue := NewQueue(10)
	runner := NewRunnerWithOptions(queue, 1, 0)
	runner.Start()
	defer runner.Stop()

	sink := &gatedSink{
		BufferSink: export.NewBufferSink("big"),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	task := NewTask("book.xlsx", export.Job{
		Sheet:       testSheet("Big", 100_000),
		Options:     csvfmt.DefaultOptions(),
		Destination: "big.csv",
		Sink:        func(string) (export.Sink, error) { return sink, nil },
		Locks:       export.NewLocks(),
	})
	queue.Add(task)

	select {
	case <-sink.started:
	case <-time.After(10 * time.Second):
		t.Fatal("task never wrote output")
	}
	if !queue.Cancel(task.ID) {
		t.Fatal("Cancel should succeed for running task")
	}
	close(sink.release)
	waitIdle(t, runner)

	got := queue.Get(task.ID)
	if got.Status != TaskStatusCanceled {
		t.Errorf("Expected Canceled, got %s", got.Status)
	}
	if got.Rows >= got.TotalRows {
		t.Errorf("Cancelled run should stop early, wrote %d rows", got.Rows)
	}
	if sink.Len() != 0 {
		t.Errorf("Cancelled run left %d bytes in the sink", sink.Len())
	}
}

func TestRunner_CancelWhileWaitingForSlot(t *testing.T) {
	queue := NewQueue(10)
	runner := NewRunnerWithOptions(queue, 1, 0)
	runner.Start()
	defer runner.Stop()

	gate := &gatedSink{
		BufferSink: export.NewBufferSink("first"),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	first := NewTask("book.xlsx", export.Job{
		Sheet:       testSheet("First", 10),
		Options:     csvfmt.DefaultOptions(),
		Destination: "first.csv",
		Sink:        func(string) (export.Sink, error) { return gate, nil },
		Locks:       export.NewLocks(),
	})
	waiting := export.NewBufferSink("second")
	second := NewTask("book.xlsx", export.Job{
		Sheet:       testSheet("Second", 1),
		Options:     csvfmt.DefaultOptions(),
		Destination: "second.csv",
		Sink:        waiting.Factory(),
		Locks:       export.NewLocks(),
	})
	queue.Add(first)
	queue.Add(second)

	select {
	case <-gate.started:
	case <-time.After(10 * time.Second):
		t.Fatal("first task never wrote output")
	}
	// Let the loop take its snapshot and block on the only slot.
	time.Sleep(200 * time.Millisecond)

	if !queue.Cancel(second.ID) {
		t.Fatal("Cancel should succeed for a queued task")
	}
	close(gate.release)
	waitIdle(t, runner)

	got := queue.Get(second.ID)
	if got.Status != TaskStatusCanceled {
		t.Errorf("Expected Canceled, got %s", got.Status)
	}
	if got.Rows != 0 || got.RunID != "" {
		t.Errorf("Cancelled task should never start, rows=%d run=%q", got.Rows, got.RunID)
	}
	if waiting.Len() != 0 {
		t.Errorf("Cancelled task wrote %d bytes", waiting.Len())
	}
	if queue.Get(first.ID).Status != TaskStatusComplete {
		t.Errorf("First task should still complete, got %s", queue.Get(first.ID).Status)
	}
}

func TestQueue_MarkRunningRejectsCancelled(t *testing.T) {
	queue := NewQueue(10)
	task := testTask("Orders", 3)
	queue.Add(task)

	if !queue.Cancel(task.ID) {
		t.Fatal("Cancel should succeed for a queued task")
	}
	if queue.MarkRunning(task) {
		t.Error("MarkRunning should refuse a cancelled task")
	}
	if task.GetStatus() != TaskStatusCanceled {
		t.Errorf("Expected Canceled, got %s", task.GetStatus())
	}
}

func TestTask_CancelBeforeCancelFuncIsSet(t *testing.T) {
	task := testTask("Orders", 3)
	if !task.start() {
		t.Fatal("start should succeed for a queued task")
	}
	if !task.Cancel() {
		t.Fatal("Cancel should succeed for a running task")
	}

	called := false
	task.SetCancelFunc(func() { called = true })
	if !called {
		t.Error("a cancel requested earlier should fire once the cancel func is set")
	}
}

func TestExecute_CancelledTaskDoesNotRun(t *testing.T) {
	task := testTask("Inline", 5)
	task.Cancel()

	res := Execute(context.Background(), task, nil)
	if res.Status != export.StatusCancelled {
		t.Fatalf("Expected cancelled, got %s", res.Status)
	}
	if task.GetRows() != 0 {
		t.Errorf("Cancelled task wrote %d rows", task.GetRows())
	}
}

func TestExecute_Synchronous(t *testing.T) {
	task := testTask("Inline", 5)
	var events []export.Event
	res := Execute(context.Background(), task, func(_ *Task, ev export.Event) {
		events = append(events, ev)
	})

	if res.Status != export.StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", res.Status, res.Err)
	}
	if task.GetStatus() != TaskStatusComplete || task.GetRows() != 5 {
		t.Errorf("Task not updated: %s %d", task.GetStatus(), task.GetRows())
	}
	if len(events) != 1 || !events[0].Terminal() {
		t.Errorf("Expected a single terminal event, got %v", events)
	}
}

func TestEntryFor(t *testing.T) {
	task := testTask("Orders", 3)
	res := export.Result{
		RunID:  "run-1",
		Status: export.StatusCancelled,
		Rows:   2,
	}
	e := EntryFor(task, res)
	if e.ID != "run-1" || e.Sheet != "Orders" || e.Rows != 2 || e.Status != "cancelled" {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if e.Quoting != "text" {
		t.Errorf("Expected quoting 'text', got %q", e.Quoting)
	}
}
