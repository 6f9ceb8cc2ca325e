package fs

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// LockFileName is created in a destination directory while a run downloads into it.
const LockFileName = ".xdl.lock"

var ErrLocked = errors.New("destination is in use by another xdl process")

// EnsureDir creates dir if it does not exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return err
			}

			return nil
		}

		return err
	}

	return nil
}

// LockDir takes an exclusive lock on dir. The returned func releases it.
func LockDir(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "could not lock %s", dir)
	}
	if !locked {
		return nil, errors.Wrap(ErrLocked, dir)
	}

	return func() error {
		if err := lock.Unlock(); err != nil {
			return err
		}
		return os.Remove(lock.Path())
	}, nil
}
