// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce absorbs the burst of events a spreadsheet application
// produces when it saves.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called after the watched file settled following a change.
// removed is true when the file no longer exists.
type ChangeFunc func(path string, removed bool)

// =============================================================================
// FILE WATCHER INTERFACE
// =============================================================================

// FileWatcher reports changes to one workbook file.
type FileWatcher interface {
	// Watch starts delivering changes to the callback.
	Watch() error

	// Close stops watching and releases resources.
	Close() error
}

// NewWatcher returns an fsnotify watcher for path, falling back to polling
// when the platform offers no notification support.
func NewWatcher(path string, debounce time.Duration, onChange ChangeFunc) (FileWatcher, error) {
	fw, err := NewFsnotifyWatcher(path, debounce, onChange)
	if err == nil {
		if err = fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}

	slog.Debug("fsnotify unavailable, polling workbook", "path", path, "error", err)
	pw := NewPollingWatcher(path, 2*time.Second, onChange)
	if err := pw.Watch(); err != nil {
		return nil, err
	}
	return pw, nil
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher watches the directory holding the workbook, because
// spreadsheet applications usually save by writing a new file and renaming
// it over the old one.
type FsnotifyWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc

	mu      sync.Mutex
	pending time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFsnotifyWatcher creates a watcher for path. Call Watch to start it.
func NewFsnotifyWatcher(path string, debounce time.Duration, onChange ChangeFunc) (*FsnotifyWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FsnotifyWatcher{
		path:     filepath.Clean(abs),
		watcher:  watcher,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts the event and debounce goroutines.
func (fw *FsnotifyWatcher) Watch() error {
	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}

	fw.wg.Add(2)
	go fw.processEvents()
	go fw.processPending()
	return nil
}

func (fw *FsnotifyWatcher) processEvents() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				fw.mu.Lock()
				fw.pending = time.Now()
				fw.mu.Unlock()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("workbook watcher error", "path", fw.path, "error", err)
		}
	}
}

// processPending fires the callback once no event arrived for the debounce
// period.
func (fw *FsnotifyWatcher) processPending() {
	defer fw.wg.Done()
	ticker := time.NewTicker(fw.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case now := <-ticker.C:
			fw.mu.Lock()
			fire := !fw.pending.IsZero() && now.Sub(fw.pending) >= fw.debounce
			if fire {
				fw.pending = time.Time{}
			}
			fw.mu.Unlock()

			if fire {
				_, err := os.Stat(fw.path)
				fw.onChange(fw.path, os.IsNotExist(err))
			}
		}
	}
}

// Close stops watching and waits for the goroutines to exit.
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher compares the file's modification time and size on an
// interval.
type PollingWatcher struct {
	path     string
	interval time.Duration
	onChange ChangeFunc

	mu     sync.Mutex
	last   os.FileInfo
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPollingWatcher creates a polling watcher for path.
func NewPollingWatcher(path string, interval time.Duration, onChange ChangeFunc) *PollingWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &PollingWatcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch records the current state and starts polling.
func (pw *PollingWatcher) Watch() error {
	info, err := os.Stat(pw.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	pw.last = info

	go pw.poll()
	return nil
}

func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return
		case <-ticker.C:
			pw.checkChanges()
		}
	}
}

func (pw *PollingWatcher) checkChanges() {
	info, err := os.Stat(pw.path)
	if err != nil {
		info = nil
	}

	pw.mu.Lock()
	prev := pw.last
	pw.last = info
	pw.mu.Unlock()

	switch {
	case prev == nil && info == nil:
		return
	case prev != nil && info == nil:
		pw.onChange(pw.path, true)
	case prev == nil || !prev.ModTime().Equal(info.ModTime()) || prev.Size() != info.Size():
		pw.onChange(pw.path, false)
	}
}

// Close stops polling.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}
