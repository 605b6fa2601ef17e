// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrPendingClosed is returned by Write and Commit after the file was
// committed or aborted.
var ErrPendingClosed = errors.New("pending file already closed")

// =============================================================================
// PENDING FILE
// =============================================================================

// PendingFile collects output in a temporary file in the destination's
// directory. Nothing is visible at the destination until Commit succeeds;
// Abort removes the temporary file and leaves any existing destination as
// it was.
//
// RELIABILITY: the temp file is fsynced before the rename, so after a crash
// either the old file or the complete new one exists.
type PendingFile struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	tempPath string
	perm     os.FileMode
	done     bool
}

// CreatePending creates the parent directory if needed and opens a temp file
// beside path.
func CreatePending(path string, perm os.FileMode) (*PendingFile, error) {
	return CreatePendingWithDir(path, perm, 0755)
}

// CreatePendingWithDir is CreatePending with an explicit mode for any parent
// directory it has to create.
func CreatePendingWithDir(path string, filePerm, dirPerm os.FileMode) (*PendingFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Same directory keeps the final rename on one filesystem.
	f, err := os.CreateTemp(dir, "."+filepath.Base(absPath)+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &PendingFile{
		f:        f,
		path:     absPath,
		tempPath: f.Name(),
		perm:     filePerm,
	}, nil
}

// Path returns the absolute destination path.
func (p *PendingFile) Path() string {
	return p.path
}

// TempPath returns the path of the temporary file.
func (p *PendingFile) TempPath() string {
	return p.tempPath
}

// Write appends to the temporary file.
func (p *PendingFile) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return 0, ErrPendingClosed
	}
	return p.f.Write(b)
}

// Commit syncs the temporary file and renames it over the destination.
// On failure the temporary file is removed.
func (p *PendingFile) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrPendingClosed
	}
	p.done = true

	if err := p.f.Sync(); err != nil {
		p.discard()
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename - required on Windows
	if err := p.f.Close(); err != nil {
		os.Remove(p.tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(p.tempPath, p.perm); err != nil {
		os.Remove(p.tempPath)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := os.Rename(p.tempPath, p.path); err != nil {
		os.Remove(p.tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit and
// more than once, so callers can defer it unconditionally.
func (p *PendingFile) Abort() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return nil
	}
	p.done = true
	return p.discard()
}

func (p *PendingFile) discard() error {
	p.f.Close()
	if err := os.Remove(p.tempPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// =============================================================================
// ONE-SHOT WRITES
// =============================================================================

// AtomicWriteFile writes data to path so that readers see either the old
// file or the complete new one, never a partial write.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0755)
}

// AtomicWriteFileWithDir is AtomicWriteFile with an explicit mode for any
// parent directory it has to create.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	pf, err := CreatePendingWithDir(path, filePerm, dirPerm)
	if err != nil {
		return err
	}
	defer pf.Abort()

	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return pf.Commit()
}
