// Package filelock provides a process-local advisory lock keyed by
// resolved file path. It serializes writers within this process only;
// there is no cross-process guarantee (no OS-level flock).
package filelock

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultMaxWait bounds how long Acquire spins before failing loudly.
	DefaultMaxWait = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// Locker tracks held locks keyed by resolved path.
type Locker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]time.Time)}
}

// Acquire blocks until the lock for path is free, polling at a fixed
// 50ms interval. It returns a release function, or an error once
// maxWait elapses. Pass maxWait <= 0 for the default of 5s.
func (l *Locker) Acquire(path string, maxWait time.Duration) (func(), error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}

	deadline := time.Now().Add(maxWait)
	for {
		l.mu.Lock()
		if _, held := l.locks[key]; !held {
			l.locks[key] = time.Now()
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.locks, key)
				l.mu.Unlock()
			}, nil
		}
		l.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout acquiring lock for %s", path)
		}
		time.Sleep(pollInterval)
	}
}

// WithLock runs fn while holding the lock for path, releasing it on all
// paths including panics.
func (l *Locker) WithLock(path string, fn func() error) error {
	release, err := l.Acquire(path, DefaultMaxWait)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// IsLocked reports whether path is currently locked.
func (l *Locker) IsLocked(path string) bool {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.locks[key]
	return held
}
