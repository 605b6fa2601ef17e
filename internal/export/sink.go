// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// =============================================================================
// SINK INTERFACE
// =============================================================================

// Sink receives the encoded byte stream of one run. Output becomes visible
// only on Commit; Abort discards everything written so far.
type Sink interface {
	io.Writer

	// Commit makes the output durable and releases the sink.
	Commit() error

	// Abort discards partial output and releases the sink. Calling it after
	// Commit is a no-op.
	Abort() error

	// Destination identifies the sink for locking and reporting.
	Destination() string
}

// SinkFactory opens a sink for a destination.
type SinkFactory func(destination string) (Sink, error)

// =============================================================================
// FILE SINK
// =============================================================================

// FileSink writes to a temporary file beside the destination and renames it
// into place on commit.
type FileSink struct {
	pf *util.PendingFile
}

// OpenFileSink is the default SinkFactory.
func OpenFileSink(path string) (Sink, error) {
	pf, err := util.CreatePending(path, 0644)
	if err != nil {
		return nil, &csvfmt.SinkWriteError{Path: path, Op: "create", Err: err}
	}
	return &FileSink{pf: pf}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.pf.Write(p)
}

// Commit renames the temporary file over the destination.
func (s *FileSink) Commit() error {
	if err := s.pf.Commit(); err != nil {
		return &csvfmt.SinkWriteError{Path: s.pf.Path(), Op: "commit", Err: err}
	}
	return nil
}

// Abort removes the temporary file.
func (s *FileSink) Abort() error {
	return s.pf.Abort()
}

// Destination returns the absolute destination path.
func (s *FileSink) Destination() string {
	return s.pf.Path()
}

// =============================================================================
// BUFFER SINK
// =============================================================================

// ErrSinkClosed is returned when writing to a committed or aborted sink.
var ErrSinkClosed = errors.New("sink already released")

// BufferSink collects output in memory. Bytes are readable only after a
// successful commit; an aborted sink is truncated to zero length.
type BufferSink struct {
	mu        sync.Mutex
	name      string
	buf       bytes.Buffer
	committed bool
	released  bool
}

// NewBufferSink returns an empty in-memory sink.
func NewBufferSink(name string) *BufferSink {
	return &BufferSink{name: name}
}

// Factory returns a SinkFactory that always yields this sink.
func (s *BufferSink) Factory() SinkFactory {
	return func(string) (Sink, error) { return s, nil }
}

func (s *BufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return 0, ErrSinkClosed
	}
	return s.buf.Write(p)
}

func (s *BufferSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSinkClosed
	}
	s.released = true
	s.committed = true
	return nil
}

func (s *BufferSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	s.buf.Reset()
	return nil
}

func (s *BufferSink) Destination() string {
	return s.name
}

// Bytes returns a copy of the committed output, or nil if the sink was not
// committed.
func (s *BufferSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.committed {
		return nil
	}
	return bytes.Clone(s.buf.Bytes())
}

// Len returns the number of bytes currently held.
func (s *BufferSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}
