// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
)

// =============================================================================
// HELPERS
// =============================================================================

func numberedSheet(rows int) *csvfmt.Sheet {
	sheet := &csvfmt.Sheet{Name: "Data", Header: []string{"n", "label"}}
	for i := 1; i <= rows; i++ {
		sheet.Rows = append(sheet.Rows, csvfmt.Row{i, fmt.Sprintf("row %d", i)})
	}
	return sheet
}

func unixOptions() csvfmt.Options {
	opts := csvfmt.DefaultOptions()
	opts.LineEnding = csvfmt.LineEndingUnix
	return opts
}

func collect(t *testing.T, run *Run) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

// blockingSink holds every write until release is closed.
type blockingSink struct {
	*BufferSink
	started chan struct{}
	release chan struct{}
	once    bool
}

func (s *blockingSink) Write(p []byte) (int, error) {
	if !s.once {
		s.once = true
		close(s.started)
		<-s.release
	}
	return s.BufferSink.Write(p)
}

type failingSink struct {
	*BufferSink
	err error
}

func (s *failingSink) Write(p []byte) (int, error) { return 0, s.err }

// =============================================================================
// RUN LIFECYCLE TESTS
// =============================================================================

func TestRun_CompletesIntoBuffer(t *testing.T) {
	sink := NewBufferSink("mem")
	run := Start(context.Background(), Job{
		Sheet:       numberedSheet(2),
		Options:     unixOptions(),
		Destination: "mem",
		Sink:        sink.Factory(),
		Locks:       NewLocks(),
	})

	events := collect(t, run)
	require.Len(t, events, 1)
	done, ok := events[0].(Completed)
	require.True(t, ok, "got %T", events[0])
	assert.Equal(t, 2, done.Rows)
	assert.Equal(t, run.ID(), done.RunID)

	assert.Equal(t, "\"n\",\"label\"\n1,\"row 1\"\n2,\"row 2\"\n", string(sink.Bytes()))

	res := run.Wait()
	assert.Equal(t, StatusCompleted, res.Status)
	assert.NoError(t, res.Err)
}

func TestRun_HeaderOnlyCompletesWithZero(t *testing.T) {
	sink := NewBufferSink("mem")
	run := Start(context.Background(), Job{
		Sheet:   &csvfmt.Sheet{Header: []string{"a"}},
		Options: unixOptions(),
		Sink:    sink.Factory(),
		Locks:   NewLocks(),
	})

	events := collect(t, run)
	require.Len(t, events, 1)
	assert.Equal(t, Completed{RunID: run.ID(), Rows: 0}, events[0])
	assert.Equal(t, "\"a\"\n", string(sink.Bytes()))
}

func TestRun_ProgressThenTerminal(t *testing.T) {
	sink := NewBufferSink("mem")
	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(3500),
		Options: unixOptions(),
		Sink:    sink.Factory(),
		Locks:   NewLocks(),
	})

	events := collect(t, run)
	require.Len(t, events, 4)
	for i, want := range []int{1000, 2000, 3000} {
		assert.Equal(t, Progress{RunID: run.ID(), Rows: want}, events[i])
	}
	last := events[len(events)-1]
	assert.True(t, last.Terminal())
	assert.Equal(t, 3500, last.(Completed).Rows)
}

func TestRun_WaitWithoutReadingEvents(t *testing.T) {
	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(200_000),
		Options: unixOptions(),
		Sink:    NewBufferSink("mem").Factory(),
		Locks:   NewLocks(),
	})

	res := run.Wait()
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 200_000, res.Rows)
}

func TestRun_LaggingConsumerGetsNewestProgress(t *testing.T) {
	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(100_500),
		Options: unixOptions(),
		Sink:    NewBufferSink("mem").Factory(),
		Locks:   NewLocks(),
	})

	// Nobody reads until the run is over, so the buffer fills up.
	res := run.Wait()
	require.Equal(t, StatusCompleted, res.Status)

	events := collect(t, run)
	require.Len(t, events, eventBuffer)
	for i := 0; i < eventBuffer-2; i++ {
		assert.Equal(t, Progress{RunID: run.ID(), Rows: (i + 1) * 1000}, events[i])
	}
	assert.Equal(t, Progress{RunID: run.ID(), Rows: 100_000}, events[eventBuffer-2])
	assert.Equal(t, Completed{RunID: run.ID(), Rows: 100_500}, events[eventBuffer-1])
}

// commitFailSink accepts writes but can neither commit nor abort.
type commitFailSink struct {
	*BufferSink
}

func (s *commitFailSink) Commit() error { return errors.New("disk full") }
func (s *commitFailSink) Abort() error  { return errors.New("temp file busy") }

func TestRun_CommitFailureLogsAbortError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	sink := &commitFailSink{BufferSink: NewBufferSink("mem")}

	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(3),
		Options: unixOptions(),
		Sink:    func(string) (Sink, error) { return sink, nil },
		Locks:   NewLocks(),
		Logger:  logger,
	})
	res := run.Wait()

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, logs.String(), "failed to discard uncommitted output")
	assert.Contains(t, logs.String(), "temp file busy")
}

// =============================================================================
// FAILURE AND CANCELLATION TESTS
// =============================================================================

func TestRun_EncodingErrorCommitsNothing(t *testing.T) {
	opts := unixOptions()
	opts.Encoding = csvfmt.ISO8859_1
	sink := NewBufferSink("mem")

	run := Start(context.Background(), Job{
		Sheet:   &csvfmt.Sheet{Header: []string{"comment"}, Rows: []csvfmt.Row{{"café 😊"}}},
		Options: opts,
		Sink:    sink.Factory(),
		Locks:   NewLocks(),
	})

	events := collect(t, run)
	require.Len(t, events, 1)
	failed, ok := events[0].(Failed)
	require.True(t, ok)
	assert.Equal(t, csvfmt.ErrorKindEncoding, failed.Kind)

	var encErr *csvfmt.EncodingError
	require.True(t, errors.As(failed.Err, &encErr))
	assert.Equal(t, '😊', encErr.Char)

	assert.Zero(t, sink.Len())
	assert.Nil(t, sink.Bytes())
}

func TestRun_InvalidOptionsFailBeforeSink(t *testing.T) {
	opened := false
	opts := unixOptions()
	opts.Separator = ""

	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(1),
		Options: opts,
		Sink: func(string) (Sink, error) {
			opened = true
			return NewBufferSink("mem"), nil
		},
		Locks: NewLocks(),
	})

	res := run.Wait()
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, csvfmt.ErrorKindConfiguration, csvfmt.KindOf(res.Err))
	assert.False(t, opened)
}

func TestRun_SinkWriteFailure(t *testing.T) {
	diskFull := errors.New("no space left on device")
	sink := &failingSink{BufferSink: NewBufferSink("disk"), err: diskFull}

	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(5),
		Options: unixOptions(),
		Sink:    func(string) (Sink, error) { return sink, nil },
		Locks:   NewLocks(),
	})

	res := run.Wait()
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, csvfmt.ErrorKindSinkWrite, csvfmt.KindOf(res.Err))
	assert.ErrorIs(t, res.Err, diskFull)
}

func TestRun_CancelDiscardsOutput(t *testing.T) {
	sink := &blockingSink{
		BufferSink: NewBufferSink("mem"),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	run := Start(context.Background(), Job{
		Sheet:   numberedSheet(100_000),
		Options: unixOptions(),
		Sink:    func(string) (Sink, error) { return sink, nil },
		Locks:   NewLocks(),
	})

	<-sink.started
	run.Cancel()
	close(sink.release)

	events := collect(t, run)
	last := events[len(events)-1]
	cancelled, ok := last.(Cancelled)
	require.True(t, ok, "got %T", last)
	assert.Less(t, cancelled.Rows, 100_000)
	assert.Zero(t, sink.Len())
	assert.Equal(t, StatusCancelled, run.Wait().Status)
}

func TestRun_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := Start(ctx, Job{
		Sheet:   numberedSheet(10),
		Options: unixOptions(),
		Sink:    NewBufferSink("mem").Factory(),
		Locks:   NewLocks(),
	})
	assert.Equal(t, StatusCancelled, run.Wait().Status)
}

// =============================================================================
// FILE SINK TESTS
// =============================================================================

func TestRun_FileSinkWritesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "data.csv")
	run := Start(context.Background(), Job{
		Sheet:       numberedSheet(3),
		Options:     unixOptions(),
		Destination: dest,
		Locks:       NewLocks(),
	})

	res := run.Wait()
	require.NoError(t, res.Err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(content), "3,\"row 3\"\n")
}

func TestRun_FileSinkFailureLeavesExistingFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0644))

	opts := unixOptions()
	opts.Encoding = csvfmt.Windows1252
	sheet := numberedSheet(10)
	sheet.Rows[7] = csvfmt.Row{8, "名前"}

	res := Start(context.Background(), Job{
		Sheet:       sheet,
		Options:     opts,
		Destination: dest,
		Locks:       NewLocks(),
	}).Wait()
	require.Error(t, res.Err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

// =============================================================================
// LOCK TESTS
// =============================================================================

func TestLocks_SecondRunWaitsForFirst(t *testing.T) {
	locks := NewLocks()
	dest := filepath.Join(t.TempDir(), "shared.csv")

	first := &blockingSink{
		BufferSink: NewBufferSink(dest),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	run1 := Start(context.Background(), Job{
		Sheet:       numberedSheet(5),
		Options:     unixOptions(),
		Destination: dest,
		Sink:        func(string) (Sink, error) { return first, nil },
		Locks:       locks,
	})
	<-first.started
	assert.True(t, locks.Busy(dest))

	secondOpened := make(chan struct{})
	run2 := Start(context.Background(), Job{
		Sheet:       numberedSheet(5),
		Options:     unixOptions(),
		Destination: dest,
		Sink: func(string) (Sink, error) {
			close(secondOpened)
			return NewBufferSink(dest), nil
		},
		Locks: locks,
	})

	select {
	case <-secondOpened:
		t.Fatal("second run opened its sink while the first held the destination")
	case <-time.After(50 * time.Millisecond):
	}

	close(first.release)
	assert.Equal(t, StatusCompleted, run1.Wait().Status)
	assert.Equal(t, StatusCompleted, run2.Wait().Status)
	assert.False(t, locks.Busy(dest))
}

func TestLocks_AcquireHonoursContext(t *testing.T) {
	locks := NewLocks()
	release, err := locks.Acquire(context.Background(), "x.csv")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "./x.csv")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// =============================================================================
// DESTINATION TESTS
// =============================================================================

func TestDefaultDestination(t *testing.T) {
	src := filepath.Join("data", "report.xlsx")
	assert.Equal(t, filepath.Join("data", "report.csv"), DefaultDestination(src, "Sheet1", false))
	assert.Equal(t, filepath.Join("data", "report_Q1-Q2_totals.csv"), DefaultDestination(src, "Q1/Q2 totals", true))
	assert.Equal(t, filepath.Join("out", "report_sheet.csv"), DestinationIn("out", src, "", true))
}
