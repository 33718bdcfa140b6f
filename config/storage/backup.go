package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup constants
const (
	// DefaultBackupRetention is the default number of backups to keep
	DefaultBackupRetention = 3

	backupTimeFormat = "20060102150405.000000000"
)

// ErrNoBackup is returned when a restore finds no backup for a file.
var ErrNoBackup = errors.New("no backup found")

// BackupManager keeps timestamped copies of a file in a separate directory.
type BackupManager struct {
	// Dir is where backups are written
	Dir string
	// MaxBackups is the maximum number of backups to retain; 0 disables backups
	MaxBackups int
}

// NewBackupManager creates a BackupManager. A negative maxBackups selects
// DefaultBackupRetention.
func NewBackupManager(dir string, maxBackups int) *BackupManager {
	if maxBackups < 0 {
		maxBackups = DefaultBackupRetention
	}
	return &BackupManager{
		Dir:        dir,
		MaxBackups: maxBackups,
	}
}

// Enabled reports whether backups are kept at all.
func (bm *BackupManager) Enabled() bool {
	return bm.MaxBackups > 0
}

func (bm *BackupManager) prefix(filePath string) string {
	return filepath.Base(filePath) + ".backup-"
}

// CreateBackup copies filePath to Dir/<name>.backup-<timestamp>-<pid> and
// prunes backups beyond MaxBackups. It returns "" when backups are disabled
// or filePath does not exist.
func (bm *BackupManager) CreateBackup(filePath string) (string, error) {
	if !bm.Enabled() {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read file for backup: %w", err)
	}

	if err := os.MkdirAll(bm.Dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().UTC().Format(backupTimeFormat)
	backupPath := filepath.Join(bm.Dir, fmt.Sprintf("%s%s-%d", bm.prefix(filePath), timestamp, os.Getpid()))

	if err := AtomicWrite(backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := bm.CleanupOldBackups(filePath); err != nil {
		return backupPath, err
	}

	return backupPath, nil
}

// ListBackups returns all backups of filePath, oldest first.
func (bm *BackupManager) ListBackups(filePath string) ([]string, error) {
	entries, err := os.ReadDir(bm.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	prefix := bm.prefix(filePath)
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		backups = append(backups, filepath.Join(bm.Dir, entry.Name()))
	}

	// The fixed-width timestamp makes name order chronological
	sort.Strings(backups)
	return backups, nil
}

// CleanupOldBackups removes old backup files, retaining only the most recent MaxBackups
func (bm *BackupManager) CleanupOldBackups(filePath string) error {
	backups, err := bm.ListBackups(filePath)
	if err != nil {
		return err
	}

	numToRemove := len(backups) - bm.MaxBackups
	if numToRemove <= 0 {
		return nil
	}

	for _, old := range backups[:numToRemove] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", old, err)
		}
	}

	return nil
}

// RestoreFromLatestBackup atomically replaces filePath with its newest
// backup and returns the backup used. A symlinked filePath is restored
// through the link.
func (bm *BackupManager) RestoreFromLatestBackup(filePath string) (string, error) {
	backups, err := bm.ListBackups(filePath)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", fmt.Errorf("%w for %s in %s", ErrNoBackup, filePath, bm.Dir)
	}

	latest := backups[len(backups)-1]
	data, err := os.ReadFile(latest)
	if err != nil {
		return "", fmt.Errorf("failed to read backup: %w", err)
	}
	if err := AtomicWrite(ResolvePath(filePath), data, 0600); err != nil {
		return "", fmt.Errorf("failed to restore from backup: %w", err)
	}

	return latest, nil
}
