package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock is a cross-process lock on <location>.lock.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(location string) *fileLock {
	path := filepath.Clean(location) + ".lock"
	return &fileLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to take the exclusive lock without blocking.
// Returns false if another process holds the lock in any mode.
func (l *fileLock) TryLock() (bool, error) {
	return l.try(l.flock.TryLock)
}

// TryRLock attempts to take a shared lock without blocking.
// Returns false if another process holds the lock exclusively.
func (l *fileLock) TryRLock() (bool, error) {
	return l.try(l.flock.TryRLock)
}

func (l *fileLock) try(acquire func() (bool, error)) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := acquire()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked fileLock.
func (l *fileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
