// Package lock provides the process-level expression of "single writer":
// an advisory file lock on the data directory, so two snapshotd processes
// can't open the same bbolt file concurrently. Within one process the
// UpdateHandle type already prevents more than one writer; this guards
// across processes, which the type system obviously cannot do.
package lock

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrAlreadyLocked indicates another process already holds the lock.
var ErrAlreadyLocked = errors.New("lock: data directory is already locked by another process")

// Lock is a held advisory lock. Call Unlock to release it.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive, non-blocking lock on <dataDir>/LOCK. Returns
// ErrAlreadyLocked if another process holds it.
func Acquire(dataDir string) (*Lock, error) {
	fl := flock.New(filepath.Join(dataDir, "LOCK"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "lock: try lock")
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. Safe to call on a nil *Lock.
func (l *Lock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
