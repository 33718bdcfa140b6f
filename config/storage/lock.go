package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock takes an exclusive advisory lock on path, creating the file and its
// directory if needed. It blocks until the lock is available. The returned
// function releases the lock.
func Lock(path string) (unlock func(), err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFileExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return func() {
		_ = unlockFile(f)
		f.Close()
	}, nil
}
