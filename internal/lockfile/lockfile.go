// Package lockfile provides advisory file locks shared between pmerge
// processes, so that concurrent merge driver runs append to the same files
// without interleaving.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockBusy is returned by the non-blocking lock when another process
// holds the lock.
var ErrLockBusy = errors.New("lock held by another process")

// AppendLocked appends data to path under an exclusive lock, creating the
// file if needed. Concurrent callers, in this process or another, each get
// their data written contiguously.
func AppendLocked(path string, data []byte) error {
	// #nosec G304 - path is built by the caller from the project root
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := FlockExclusiveBlocking(f); err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer func() { _ = FlockUnlock(f) }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
