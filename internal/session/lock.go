package session

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"pmtm/internal/config"
)

// ErrBusy is returned when another pmtm process holds the session lock.
var ErrBusy = errors.New("another pmtm command is modifying the session")

// Lock is an exclusive lock on the session state.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the session lock without waiting.
func AcquireLock(cfg *config.Config) (*Lock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	fl := flock.New(cfg.LockPath())
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBusy, cfg.LockPath())
	}
	return &Lock{flock: fl}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
