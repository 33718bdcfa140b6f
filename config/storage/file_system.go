// Package storage holds the file primitives shared by the settings
// repository and the token store.
//
// Every write goes through AtomicWrite: the new content is written to a
// temporary file in the target's directory, synced, and renamed over the
// target. A concurrent reader sees either the old or the new file, never a
// partial one. This relies on rename being atomic within one local
// filesystem volume; network filesystems may not honor that.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// ResolvePath returns the file a symlinked path points to. A path that does
// not exist, or whose link is dangling, is returned unchanged.
func ResolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// AtomicWrite replaces path with data. perm applies to the new file; an
// existing target keeps its current mode.
func AtomicWrite(path string, data []byte, perm fs.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return atomicWrite(path, data, perm)
}

// AtomicWriteMode replaces path with data and always leaves it with perm,
// whatever the mode of the replaced file. The mode is set before the rename.
func AtomicWriteMode(path string, data []byte, perm fs.FileMode) error {
	return atomicWrite(path, data, perm)
}

func atomicWrite(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmpFile.Name()
	// Clean up on failure; after a successful rename this is a no-op
	defer os.Remove(tmpName)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions on temporary file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
