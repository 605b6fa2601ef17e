// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"path/filepath"
	"sync"
)

// Locks serialises runs that target the same destination. A run holds the
// lock from opening its sink until the sink is committed or aborted.
type Locks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocks returns an empty lock table.
func NewLocks() *Locks {
	return &Locks{slots: make(map[string]chan struct{})}
}

var defaultLocks = NewLocks()

// DefaultLocks is the process-wide table used when a Job names none.
func DefaultLocks() *Locks {
	return defaultLocks
}

// LockKey normalises a destination so different spellings of one path share
// a lock.
func LockKey(destination string) string {
	if abs, err := filepath.Abs(destination); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(destination)
}

func (l *Locks) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Acquire blocks until destination is free or ctx is done. The returned
// function releases the lock and must be called exactly once.
func (l *Locks) Acquire(ctx context.Context, destination string) (func(), error) {
	ch := l.slot(LockKey(destination))
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Busy reports whether a run currently holds destination.
func (l *Locks) Busy(destination string) bool {
	return len(l.slot(LockKey(destination))) > 0
}
