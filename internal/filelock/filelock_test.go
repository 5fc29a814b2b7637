package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<qti-assessment-item identifier="ITEM_1"/>
`

func TestLockPath(t *testing.T) {
	got := LockPath(filepath.Join("out", "qti", "ITEM_1.xml"))
	assert.Equal(t, filepath.Join("out", "qti", ".ITEM_1.xml.lock"), got)
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "ITEM_1.xml.lock")

	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	require.NoError(t, err)
	require.True(t, acquired, "first TryLock should succeed")

	acquired, err = lock2.TryLock()
	require.NoError(t, err)
	if acquired {
		t.Error("second TryLock should fail while the lock is held")
	}

	require.NoError(t, lock1.Unlock())

	acquired, err = lock2.TryLock()
	require.NoError(t, err)
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}
	lock2.Unlock()
}

func TestConcurrentLocking(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "counter.lock")
	counterPath := filepath.Join(tmpDir, "counter.txt")
	require.NoError(t, os.WriteFile(counterPath, []byte("0"), 0644))

	const goroutines = 5
	const iterations = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				lock := NewFileLock(lockPath)
				if err := lock.Lock(); err != nil {
					t.Errorf("Lock() error = %v", err)
					return
				}

				data, _ := os.ReadFile(counterPath)
				var counter int
				fmt.Sscanf(string(data), "%d", &counter)
				time.Sleep(time.Millisecond)
				os.WriteFile(counterPath, []byte(fmt.Sprintf("%d", counter+1)), 0644)

				if err := lock.Unlock(); err != nil {
					t.Errorf("Unlock() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	require.NoError(t, err)
	var final int
	fmt.Sscanf(string(data), "%d", &final)
	if final != goroutines*iterations {
		t.Errorf("counter = %d, want %d (race condition detected)", final, goroutines*iterations)
	}
}

func TestLockWithTimeoutSuccess(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "doc.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())

	released := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		holder.Unlock()
		close(released)
	}()

	contender := NewFileLock(lockPath)
	start := time.Now()
	require.NoError(t, contender.LockWithTimeout(2*time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	metrics := contender.LastMetrics()
	assert.GreaterOrEqual(t, metrics.Attempts, 2)
	assert.False(t, metrics.TimedOut)

	require.NoError(t, contender.Unlock())
	<-released
}

func TestLockWithTimeoutTimeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "doc.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	contender := NewFileLock(lockPath)
	err := contender.LockWithTimeout(50 * time.Millisecond)
	require.Error(t, err)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("error = %v, want ErrLockTimeout", err)
	}

	metrics := contender.LastMetrics()
	assert.True(t, metrics.TimedOut)
	assert.NotZero(t, metrics.Attempts)
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "qti", "ITEM_1.xml")

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0600))
	require.NoError(t, AtomicWrite(target, []byte(sampleDoc)))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(got))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteIfChanged(t *testing.T) {
	target := filepath.Join(t.TempDir(), "qti", "ITEM_1.xml")

	written, err := WriteIfChanged(target, []byte(sampleDoc), time.Second)
	require.NoError(t, err)
	assert.True(t, written, "first write creates the file")

	before, err := os.Stat(target)
	require.NoError(t, err)

	written, err = WriteIfChanged(target, []byte(sampleDoc), time.Second)
	require.NoError(t, err)
	assert.False(t, written, "identical content is not rewritten")

	after, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	written, err = WriteIfChanged(target, []byte(sampleDoc+"<!-- v2 -->\n"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	_, err = os.Stat(LockPath(target))
	assert.NoError(t, err, "lock file is kept next to the output")
}

func TestWriteIfChanged_LockHeld(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ITEM_1.xml")

	holder := NewFileLock(LockPath(target))
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	_, err := WriteIfChanged(target, []byte(sampleDoc), 30*time.Millisecond)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("error = %v, want ErrLockTimeout", err)
	}
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "nothing is written without the lock")
}

func TestConcurrentLockAndWrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ITEM_1.xml")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			if err := LockAndWrite(target, []byte(string(rune('A'+id)))); err != nil {
				t.Errorf("LockAndWrite(%d) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Len(t, content, 1, "exactly one complete write should win")
}
