// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the exporter, the CLI and the TUI.
//
// # File Operations
//
//   - PendingFile: a temp file next to its destination that is either
//     committed with an atomic rename or aborted without a trace
//   - AtomicWriteFile: one-shot write built on PendingFile
//
// # Display Width
//
//   - TruncateWidth, PadWidth: cell-width aware truncation for grids
//   - TruncateRunes: rune-safe truncation with ellipsis
//
// # Usage
//
//	pf, err := util.CreatePending(path, 0644)
//	if err != nil {
//		return err
//	}
//	defer pf.Abort()
//	if _, err := pf.Write(data); err != nil {
//		return err
//	}
//	return pf.Commit()
package util
