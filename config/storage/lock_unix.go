//go:build !windows

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFileExclusive acquires an exclusive lock (write lock)
func lockFileExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// unlockFile releases the file lock
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
