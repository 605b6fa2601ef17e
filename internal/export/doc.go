// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export runs sheet conversions off the caller's goroutine.
//
// A Run owns its Sink exclusively. The worker streams rows through
// csvfmt.Writer, commits the sink on success and aborts it on failure or
// cancellation, so a destination only ever holds complete output.
//
// # Key Types
//
//   - Job: sheet, options, destination and sink factory for one conversion
//   - Run: handle with Events, Cancel, Wait and ID
//   - Event: Progress, Completed, Failed or Cancelled
//   - Sink: FileSink (temp file + rename) or BufferSink (memory)
//   - Locks: per-destination mutual exclusion
//
// # Usage
//
//	run := export.Start(ctx, export.Job{
//	    Sheet:       sheet,
//	    Options:     opts,
//	    Destination: "out.csv",
//	})
//	for ev := range run.Events() {
//	    switch ev := ev.(type) {
//	    case export.Progress:
//	        fmt.Println(ev.Rows)
//	    case export.Failed:
//	        return ev.Err
//	    }
//	}
package export
