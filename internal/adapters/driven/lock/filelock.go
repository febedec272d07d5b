// Package lock provides cross-process run locks using gofrs/flock.
package lock

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure FileLocker implements the interface.
var _ driven.RunLocker = (*FileLocker)(nil)

// FileLocker hands out one lock file per namespace under a directory.
// Locks are advisory and held until released or the process exits.
type FileLocker struct {
	dir string

	mu   sync.Mutex
	held map[string]*flock.Flock
}

// NewFileLocker creates a locker storing lock files in dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{
		dir:  dir,
		held: make(map[string]*flock.Flock),
	}
}

// TryLock acquires the namespace lock without blocking.
func (l *FileLocker) TryLock(namespace string) (func() error, error) {
	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[namespace]; ok {
		return nil, fmt.Errorf("%w: namespace %q", domain.ErrRunInProgress, namespace)
	}

	fl := flock.New(l.Path(namespace))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: namespace %q is locked by another process", domain.ErrRunInProgress, namespace)
	}
	l.held[namespace] = fl

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, namespace)
			l.mu.Unlock()
			if unlockErr := fl.Unlock(); unlockErr != nil {
				err = fmt.Errorf("failed to release lock: %w", unlockErr)
			}
		})
		return err
	}
	return release, nil
}

// Path returns the lock file used for namespace.
func (l *FileLocker) Path(namespace string) string {
	return filepath.Join(l.dir, url.PathEscape(namespace)+".lock")
}
