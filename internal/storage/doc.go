// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps a history of conversion runs in SQLite.
//
// The database lives next to the config file by default and uses the pure
// Go modernc.org/sqlite driver with WAL journaling and a single connection.
//
// # Usage
//
//	path, err := cfg.HistoryPath()
//	if err != nil {
//	    return err
//	}
//	h, err := storage.Open(path, cfg.History.MaxEntries)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	recent, err := h.List(ctx, 20)
package storage
