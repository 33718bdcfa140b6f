package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"switchclaude/config/models"
	"switchclaude/config/storage"
	syncpkg "switchclaude/config/sync"
	"switchclaude/internal/log"
	"switchclaude/internal/providers"
)

// CustomProviderName is reported by Current when the applied base URL
// matches no registered provider.
const CustomProviderName = "custom"

// SettingsOp names the failing side of a settings access.
type SettingsOp string

// Settings operations
const (
	OpRead  SettingsOp = "read"
	OpWrite SettingsOp = "write"
)

// SettingsError reports a failure to read or write the settings file.
type SettingsError struct {
	Op   SettingsOp
	Path string
	Err  error
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("failed to %s settings %s: %v", e.Op, e.Path, e.Err)
}

func (e *SettingsError) Unwrap() error {
	return e.Err
}

// RepositoryOptions configures a Repository.
type RepositoryOptions struct {
	// SettingsPath is the settings file
	SettingsPath string
	// LockPath guards the read-modify-write; empty disables locking
	LockPath string
	// BackupDir receives a copy of the settings file before each write
	BackupDir string
	// BackupRetention is the number of backups kept; 0 disables backups
	BackupRetention int
}

// Repository reads and rewrites the managed keys of the settings file.
type Repository struct {
	path     string
	lockPath string
	backups  *storage.BackupManager
	mu       sync.Mutex // Mutex to protect concurrent access
}

// NewRepository creates a Repository
func NewRepository(opts RepositoryOptions) *Repository {
	backupDir := opts.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(opts.SettingsPath), backupDirName)
	}
	return &Repository{
		path:     opts.SettingsPath,
		lockPath: opts.LockPath,
		backups:  storage.NewBackupManager(backupDir, opts.BackupRetention),
	}
}

// Path returns the settings file path
func (r *Repository) Path() string {
	return r.path
}

// target is the file behind the settings path, so that a symlinked
// settings file keeps its link
func (r *Repository) target() string {
	return storage.ResolvePath(r.path)
}

// read returns the settings content, or "" when the file is missing
func (r *Repository) read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &SettingsError{Op: OpRead, Path: r.path, Err: err}
	}
	return string(data), nil
}

// lock takes the cross-process lock when one is configured
func (r *Repository) lock() (func(), error) {
	if r.lockPath == "" {
		return func() {}, nil
	}
	unlock, err := storage.Lock(r.lockPath)
	if err != nil {
		return nil, &SettingsError{Op: OpWrite, Path: r.path, Err: err}
	}
	return unlock, nil
}

// write backs up the current file and atomically replaces it
func (r *Repository) write(path, content string) error {
	dir := filepath.Dir(path)
	if !storage.FileExists(dir) {
		// Only the settings directory itself is created, never its parents
		if err := os.Mkdir(dir, 0700); err != nil {
			return &SettingsError{Op: OpWrite, Path: r.path, Err: err}
		}
		log.Debug("created settings directory", "dir", dir)
	}

	// Backups are named after the settings path, not the link target
	backup, err := r.backups.CreateBackup(r.path)
	if err != nil {
		// A failed backup never blocks the write itself
		log.Warn("settings backup failed", "error", err)
	} else if backup != "" {
		log.Debug("settings backed up", "backup", backup)
	}

	if err := storage.AtomicWrite(path, []byte(content), 0600); err != nil {
		return &SettingsError{Op: OpWrite, Path: r.path, Err: err}
	}
	return nil
}

// Apply writes sel into the settings file, replacing any previous selection.
// Nothing is written when the merge fails.
func (r *Repository) Apply(sel models.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	path := r.target()
	content, err := r.read(path)
	if err != nil {
		return err
	}

	updated, err := syncpkg.ApplySelection(content, sel)
	if err != nil {
		if errors.Is(err, syncpkg.ErrInvalidDocument) {
			return &SettingsError{Op: OpRead, Path: r.path, Err: err}
		}
		return &SettingsError{Op: OpWrite, Path: r.path, Err: err}
	}

	if updated == content {
		log.Debug("settings already up to date", "path", r.path)
		return nil
	}

	if err := r.write(path, updated); err != nil {
		return err
	}
	log.Debug("selection applied", "provider", sel.Provider, "path", r.path)
	return nil
}

// Clear removes the managed keys. It reports false, and writes nothing, when
// no managed key was present.
func (r *Repository) Clear() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	path := r.target()
	content, err := r.read(path)
	if err != nil {
		return false, err
	}

	updated, changed, err := syncpkg.ClearSelection(content)
	if err != nil {
		if errors.Is(err, syncpkg.ErrInvalidDocument) {
			return false, &SettingsError{Op: OpRead, Path: r.path, Err: err}
		}
		return false, &SettingsError{Op: OpWrite, Path: r.path, Err: err}
	}
	if !changed {
		return false, nil
	}

	if err := r.write(path, updated); err != nil {
		return false, err
	}
	return true, nil
}

// Current returns the applied selection, or nil when none is applied. The
// provider name is derived from the base URL.
func (r *Repository) Current() (*models.Selection, error) {
	content, err := r.read(r.target())
	if err != nil {
		return nil, err
	}

	sel, err := syncpkg.ReadSelection(content)
	if err != nil {
		return nil, &SettingsError{Op: OpRead, Path: r.path, Err: err}
	}
	if sel == nil {
		return nil, nil
	}

	if p, ok := providers.LookupByBaseURL(sel.BaseURL); ok {
		sel.Provider = p.Name
	} else {
		sel.Provider = CustomProviderName
	}
	return sel, nil
}

// Restore replaces the settings file with its newest backup and returns the
// backup used.
func (r *Repository) Restore() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	used, err := r.backups.RestoreFromLatestBackup(r.path)
	if err != nil {
		return "", &SettingsError{Op: OpWrite, Path: r.path, Err: err}
	}
	return used, nil
}

// Backups lists available backups, oldest first
func (r *Repository) Backups() ([]string, error) {
	return r.backups.ListBackups(r.path)
}
