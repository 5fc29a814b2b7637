// Package filelock serialises writes to compiled output files across
// goroutines and processes and makes each write atomic.
package filelock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when a lock cannot be acquired before the deadline
var ErrLockTimeout = errors.New("timed out waiting for lock")

// retryDelay is the polling interval used by LockWithTimeout
const retryDelay = 10 * time.Millisecond

// LockMetrics describes the most recent acquisition attempt
type LockMetrics struct {
	Attempts int
	Waited   time.Duration
	TimedOut bool
}

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string

	mu      sync.Mutex
	metrics LockMetrics
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	start := time.Now()
	err := fl.flock.Lock()
	fl.record(LockMetrics{Attempts: 1, Waited: time.Since(start)})
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// LockWithTimeout polls for the lock until it is acquired or timeout elapses.
// A timeout returns an error wrapping ErrLockTimeout.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fl.LockContext(ctx)
}

// LockContext polls for the lock until it is acquired or ctx is done
func (fl *FileLock) LockContext(ctx context.Context) error {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		ok, err := fl.flock.TryLock()
		if err != nil {
			fl.record(LockMetrics{Attempts: attempts, Waited: time.Since(start)})
			return fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
		}
		if ok {
			fl.record(LockMetrics{Attempts: attempts, Waited: time.Since(start)})
			return nil
		}

		select {
		case <-ctx.Done():
			fl.record(LockMetrics{Attempts: attempts, Waited: time.Since(start), TimedOut: true})
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %d attempts", ErrLockTimeout, fl.path, attempts)
			}
			return fmt.Errorf("lock %s: %w", fl.path, ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held by another process.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// LastMetrics returns the metrics of the most recent Lock or LockWithTimeout call
func (fl *FileLock) LastMetrics() LockMetrics {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.metrics
}

func (fl *FileLock) record(m LockMetrics) {
	fl.mu.Lock()
	fl.metrics = m
	fl.mu.Unlock()
}

// AtomicWrite writes data to path through a temp file in the same directory
// followed by a rename, so readers never see a partial document. Missing
// parent directories are created.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// LockPath returns the lock file guarding path: a hidden sibling named
// ".<base>.lock". Lock files are never removed; unlinking a lock file that
// another process is waiting on would let two writers hold it at once.
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// LockAndWrite acquires the lock for path, writes data atomically and
// releases the lock.
func LockAndWrite(path string, data []byte) error {
	_, err := WriteIfChanged(path, data, 0)
	return err
}

// WriteIfChanged writes data to path under its lock unless the file already
// holds exactly data. It reports whether the file was written. A timeout of
// zero blocks until the lock is available.
func WriteIfChanged(path string, data []byte, timeout time.Duration) (bool, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := NewFileLock(LockPath(path))
	var err error
	if timeout > 0 {
		err = lock.LockWithTimeout(timeout)
	} else {
		err = lock.Lock()
	}
	if err != nil {
		return false, err
	}
	defer lock.Unlock()

	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := AtomicWrite(path, data); err != nil {
		return false, err
	}
	return true, nil
}
