// Package runlock serializes harvest runs against the same data dir.
// The orchestrator's entry point must never run while a previous
// invocation has not returned; holding this lock is how callers keep
// that promise.
package runlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

type Lock struct {
	fl *flock.Flock
}

// Acquire takes the run lock without blocking. A held lock means another
// harvest is in flight, which is a caller error, not something to wait
// out.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("run lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("run lock %s: another harvest run is in progress", path)
	}
	return &Lock{fl: fl}, nil
}

func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
