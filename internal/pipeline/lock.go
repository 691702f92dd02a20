package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"curator/internal/config"
)

// AcquireLock takes an exclusive advisory lock on the state directory so
// two concurrent runs cannot interleave queue writes. The returned release
// function is safe to call once; a held lock elsewhere fails fast rather
// than blocking.
func AcquireLock(cfg *config.Config) (release func() error, err error) {
	lockPath := filepath.Join(cfg.Paths.StateDir, "curator.lock")
	lock := flock.New(lockPath)

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another curator run holds the lock at %s", lockPath)
	}
	return lock.Unlock, nil
}
