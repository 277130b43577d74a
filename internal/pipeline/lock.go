package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockPath maps an output root to a lock file outside the output tree.
func lockPath(outputRoot string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(outputRoot)))
	return filepath.Join(os.TempDir(), "assetprep-"+hex.EncodeToString(sum[:8])+".lock")
}

// acquireRunLock takes the per-output-root lock or fails with ErrRunLocked.
func acquireRunLock(outputRoot string) (*flock.Flock, error) {
	lock := flock.New(lockPath(outputRoot))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (lock %s)", ErrRunLocked, outputRoot, lock.Path())
	}
	return lock, nil
}
