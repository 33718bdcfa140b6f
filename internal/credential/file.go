package credential

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"switchclaude/config/storage"
	"switchclaude/internal/crypto"
	"switchclaude/internal/log"
)

const (
	tokenFileSuffix = ".token"
	keyNamespace    = "switch-claude"
	dirPerm         = 0700
	filePerm        = 0600
)

// record is the on-disk form of a stored token
type record struct {
	Provider  string    `json:"provider"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileBackend stores each token in <dir>/<provider>.token with the token
// field encrypted.
type FileBackend struct {
	dir  string
	keys *crypto.KeyManager
	now  func() time.Time
}

// NewFileBackend creates a FileBackend rooted at dir. The directory is
// created on first write.
func NewFileBackend(dir string) (*FileBackend, error) {
	keys, err := crypto.NewKeyManager(keyNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryption: %w", err)
	}
	return &FileBackend{dir: dir, keys: keys, now: time.Now}, nil
}

// Name implements Store
func (b *FileBackend) Name() Backend {
	return BackendFile
}

// Dir returns the token directory
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(provider string) string {
	return filepath.Join(b.dir, provider+tokenFileSuffix)
}

func loosePerm(mode fs.FileMode) bool {
	return runtime.GOOS != "windows" && mode.Perm()&0077 != 0
}

// ensureDir creates the token directory or tightens a loose one
func (b *FileBackend) ensureDir() error {
	info, err := os.Stat(b.dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(b.dir, dirPerm)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	if loosePerm(info.Mode()) {
		log.Warn("token directory is accessible by others, tightening permissions",
			"dir", b.dir, "mode", fmt.Sprintf("%04o", info.Mode().Perm()))
		if err := os.Chmod(b.dir, dirPerm); err != nil {
			return fmt.Errorf("failed to tighten permissions on %s: %w", b.dir, err)
		}
	}
	return nil
}

// Set implements Store
func (b *FileBackend) Set(provider, token string) error {
	if err := b.ensureDir(); err != nil {
		return &BackendError{Backend: BackendFile, Op: OpWrite, Err: err}
	}

	encrypted, err := b.keys.Encrypt(token)
	if err != nil {
		return &BackendError{Backend: BackendFile, Op: OpWrite, Err: err}
	}
	data, err := json.MarshalIndent(record{
		Provider:  provider,
		Token:     encrypted,
		UpdatedAt: b.now().UTC(),
	}, "", "  ")
	if err != nil {
		return &BackendError{Backend: BackendFile, Op: OpWrite, Err: err}
	}

	path := b.path(provider)
	// Records are private even when they replace a loose one
	if err := storage.AtomicWriteMode(path, append(data, '\n'), filePerm); err != nil {
		return &BackendError{Backend: BackendFile, Op: OpWrite, Err: err}
	}
	log.Debug("token stored", "backend", BackendFile, "provider", provider, "path", path)
	return nil
}

// Get implements Store
func (b *FileBackend) Get(provider string) (string, error) {
	path := b.path(provider)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", notFound(BackendFile, provider)
	}
	if err != nil {
		return "", &BackendError{Backend: BackendFile, Op: OpRead, Err: err}
	}

	if dirInfo, err := os.Stat(b.dir); err == nil && loosePerm(dirInfo.Mode()) {
		log.Warn("token directory is accessible by others",
			"dir", b.dir, "mode", fmt.Sprintf("%04o", dirInfo.Mode().Perm()))
	}
	if loosePerm(info.Mode()) {
		return "", &BackendError{
			Backend: BackendFile,
			Op:      OpRead,
			Err: fmt.Errorf("%w: %s has mode %04o, run chmod 600 %s",
				ErrInsecurePermissions, path, info.Mode().Perm(), path),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &BackendError{Backend: BackendFile, Op: OpRead, Err: err}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", &BackendError{Backend: BackendFile, Op: OpRead, Err: fmt.Errorf("corrupt token record %s: %w", path, err)}
	}
	if rec.Token == "" {
		return "", notFound(BackendFile, provider)
	}

	token, err := b.keys.Reveal(rec.Token)
	if err != nil {
		return "", &BackendError{Backend: BackendFile, Op: OpRead, Err: fmt.Errorf("failed to decrypt %s: %w", path, err)}
	}
	return token, nil
}

// List implements Store
func (b *FileBackend) List() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &BackendError{Backend: BackendFile, Op: OpRead, Err: err}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, tokenFileSuffix) || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, tokenFileSuffix))
	}
	sort.Strings(names)
	return names, nil
}
