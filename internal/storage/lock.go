package storage

import (
	"github.com/gofrs/flock"
)

// withLock runs fn while holding an exclusive advisory lock on the sidecar
// lock file. The lock is released on every exit path. An error from fn takes
// precedence over a failure to unlock.
func withLock(lockPath string, fn func() error) (err error) {
	fl := flock.New(lockPath)
	if lerr := fl.Lock(); lerr != nil {
		return fileError(ErrLockFile, lockPath, lerr)
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil && err == nil {
			err = fileError(ErrUnlockFile, lockPath, uerr)
		}
	}()
	return fn()
}
