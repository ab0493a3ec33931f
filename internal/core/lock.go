package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LockFileName is created in the output directory for the duration of a run.
const LockFileName = ".bgbatch.lock"

// ErrRunLocked means another run holds the output directory.
var ErrRunLocked = errors.New("output directory is locked by another run")

// AcquireRunLock creates the lock file exclusively. Two runs computing the same
// start number would otherwise collide on output names. A lock left behind by a
// crashed run has to be removed by hand.
func AcquireRunLock(dir, runID string) (release func() error, err error) {
	path := filepath.Join(dir, LockFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: remove %s if no run is active", ErrRunLocked, path)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	_, werr := fmt.Fprintf(f, "run_id=%s\npid=%d\n", runID, os.Getpid())
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", errors.Join(werr, cerr))
	}
	return func() error {
		return os.Remove(path)
	}, nil
}
