// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package csvfmt

import (
	"bufio"
	"context"
	"io"
)

// ProgressInterval is how many data rows pass between progress callbacks.
const ProgressInterval = 1000

// ProgressFunc receives the cumulative number of data rows written. It runs
// on the writer's goroutine and must only hand the count off, never touch
// caller-owned state.
type ProgressFunc func(rows int)

// =============================================================================
// STREAMING WRITER
// =============================================================================

// Writer streams a Sheet through the row pipeline into an io.Writer.
type Writer struct {
	opts     Options
	progress ProgressFunc
	interval int
}

// NewWriter validates opts and returns a Writer. progress may be nil.
func NewWriter(opts Options, progress ProgressFunc) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		opts:     opts.Clone(),
		progress: progress,
		interval: ProgressInterval,
	}, nil
}

// WriteSheet writes the header and every data row of sheet in source order
// and returns the number of data rows written.
//
// ctx is checked between rows. On cancellation WriteSheet stops before the
// next row and returns ctx.Err(); the caller discards the partial output.
// Other errors are *EncodingError or *SinkWriteError.
func (w *Writer) WriteSheet(ctx context.Context, dst io.Writer, sheet *Sheet) (int, error) {
	rf, err := NewRowFormatter(w.opts, sheet.Header)
	if err != nil {
		return 0, err
	}
	enc, err := NewEncoder(w.opts.Encoding)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriterSize(dst, 64*1024)
	write := func(p []byte) error {
		if _, err := bw.Write(p); err != nil {
			return &SinkWriteError{Op: "write", Err: err}
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	header, err := enc.Record(0, rf.HeaderFields(), rf)
	if err != nil {
		return 0, err
	}
	if err := write(enc.Prefix()); err != nil {
		return 0, err
	}
	if err := write(header); err != nil {
		return 0, err
	}

	rows := 0
	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		record, err := enc.Record(i+1, rf.Fields(row), rf)
		if err != nil {
			return rows, err
		}
		if err := write(record); err != nil {
			return rows, err
		}
		rows++

		if w.progress != nil && rows%w.interval == 0 {
			w.progress(rows)
		}
	}

	if err := bw.Flush(); err != nil {
		return rows, &SinkWriteError{Op: "flush", Err: err}
	}
	return rows, nil
}
