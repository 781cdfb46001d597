package entrypoint

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the offline database.
var ErrAlreadyRunning = errors.New("another instance is using the offline database")

// InstanceLock is held for as long as a process has the offline database open. The
// engine deletes and recreates a file it cannot open, which must never happen to a
// file another process is using.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireInstanceLock takes the exclusive lock file next to the database without blocking.
func AcquireInstanceLock(databasePath string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(databasePath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(databasePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held on %s)", ErrAlreadyRunning, lock.Path())
	}
	return &InstanceLock{lock: lock}, nil
}

func (l *InstanceLock) Release() {
	if err := l.lock.Unlock(); err != nil {
		log.Printf("[DB] Error releasing instance lock: %v", err)
	}
}
