package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"switchclaude/config/models"
	"switchclaude/config/storage"

	"github.com/tidwall/gjson"
)

var glm = models.Selection{
	Provider:       "glm",
	BaseURL:        "https://open.bigmodel.cn/api/anthropic",
	Token:          "sk-abc123",
	Model:          "glm-4.6",
	SmallFastModel: "glm-4.5-air",
}

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo := NewRepository(RepositoryOptions{
		SettingsPath:    filepath.Join(dir, ".claude", "settings.json"),
		LockPath:        filepath.Join(dir, "state", "settings.lock"),
		BackupDir:       filepath.Join(dir, "state", "backups"),
		BackupRetention: 3,
	})
	return repo, dir
}

func TestRepositoryApplyCreatesSettings(t *testing.T) {
	repo, _ := newTestRepository(t)

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	data, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("settings not written: %v", err)
	}
	if gjson.GetBytes(data, "env.ANTHROPIC_AUTH_TOKEN").String() != "sk-abc123" {
		t.Errorf("unexpected settings: %s", data)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(repo.Path())
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("settings permissions = %04o, want 0600", perm)
		}
	}
}

func TestRepositoryApplyIsIdempotent(t *testing.T) {
	repo, _ := newTestRepository(t)

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	first, _ := os.ReadFile(repo.Path())

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	second, _ := os.ReadFile(repo.Path())

	if string(first) != string(second) {
		t.Errorf("second apply changed the file:\n%s\n---\n%s", first, second)
	}
	backups, _ := repo.Backups()
	if len(backups) != 0 {
		t.Errorf("an unchanged apply should not back up, got %v", backups)
	}
}

func TestRepositoryMissingParentIsNotCreated(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(RepositoryOptions{
		SettingsPath: filepath.Join(dir, "a", "b", "settings.json"),
	})

	err := repo.Apply(glm)
	var se *SettingsError
	if !errors.As(err, &se) || se.Op != OpWrite {
		t.Fatalf("Apply() error = %v, want write SettingsError", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(statErr) {
		t.Error("parent directories must not be created")
	}
}

func TestRepositoryMalformedSettings(t *testing.T) {
	repo, _ := newTestRepository(t)
	if err := os.MkdirAll(filepath.Dir(repo.Path()), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	original := []byte(`{"theme": "dark",`)
	if err := os.WriteFile(repo.Path(), original, 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	for name, op := range map[string]func() error{
		"apply":   func() error { return repo.Apply(glm) },
		"clear":   func() error { _, err := repo.Clear(); return err },
		"current": func() error { _, err := repo.Current(); return err },
	} {
		err := op()
		var se *SettingsError
		if !errors.As(err, &se) || se.Op != OpRead {
			t.Errorf("%s: error = %v, want read SettingsError", name, err)
		}
	}

	data, _ := os.ReadFile(repo.Path())
	if string(data) != string(original) {
		t.Error("malformed settings must be left untouched")
	}
}

func TestRepositoryCurrent(t *testing.T) {
	repo, _ := newTestRepository(t)

	sel, err := repo.Current()
	if err != nil || sel != nil {
		t.Fatalf("Current() on missing file = %+v, %v; want nil, nil", sel, err)
	}

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	sel, err = repo.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if sel == nil || *sel != glm {
		t.Errorf("Current() = %+v, want %+v", sel, glm)
	}

	custom := glm
	custom.BaseURL = "https://proxy.example.com/anthropic"
	if err := repo.Apply(custom); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	sel, _ = repo.Current()
	if sel == nil || sel.Provider != CustomProviderName {
		t.Errorf("unknown base URL should report %q, got %+v", CustomProviderName, sel)
	}
}

func TestRepositoryClear(t *testing.T) {
	repo, _ := newTestRepository(t)

	changed, err := repo.Clear()
	if err != nil || changed {
		t.Fatalf("Clear() on missing file = %v, %v; want false, nil", changed, err)
	}
	if _, err := os.Stat(repo.Path()); !os.IsNotExist(err) {
		t.Error("a no-op clear must not create the settings file")
	}

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	changed, err = repo.Clear()
	if err != nil || !changed {
		t.Fatalf("Clear() = %v, %v; want true, nil", changed, err)
	}
	if sel, _ := repo.Current(); sel != nil {
		t.Errorf("Current() after clear = %+v, want nil", sel)
	}

	changed, err = repo.Clear()
	if err != nil || changed {
		t.Errorf("second Clear() = %v, %v; want false, nil", changed, err)
	}
}

func TestRepositoryRestore(t *testing.T) {
	repo, _ := newTestRepository(t)

	if _, err := repo.Restore(); err == nil {
		t.Fatal("Restore without backups should fail")
	}

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	before, _ := os.ReadFile(repo.Path())

	if _, err := repo.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := repo.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	after, _ := os.ReadFile(repo.Path())
	if string(before) != string(after) {
		t.Errorf("restore should bring back the pre-clear file:\n%s\n---\n%s", before, after)
	}
}

func TestRepositoryFollowsSymlinkedSettings(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	repo, dir := newTestRepository(t)
	target := filepath.Join(dir, "dotfiles", "settings.json")
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(repo.Path()), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(target, []byte(`{"theme":"dark"}`), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.Symlink(target, repo.Path()); err != nil {
		t.Fatalf("symlink failed: %v", err)
	}

	assertLink := func(step string) {
		t.Helper()
		info, err := os.Lstat(repo.Path())
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			t.Fatalf("%s: settings symlink was replaced (err %v)", step, err)
		}
	}

	if err := repo.Apply(glm); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	assertLink("apply")
	data, _ := os.ReadFile(target)
	if gjson.GetBytes(data, "env.ANTHROPIC_AUTH_TOKEN").String() != "sk-abc123" ||
		gjson.GetBytes(data, "theme").String() != "dark" {
		t.Errorf("link target not updated: %s", data)
	}

	if sel, err := repo.Current(); err != nil || sel == nil || sel.Provider != "glm" {
		t.Errorf("Current() = %+v, %v", sel, err)
	}

	if _, err := repo.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	assertLink("clear")

	if _, err := repo.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	assertLink("restore")
	data, _ = os.ReadFile(target)
	if gjson.GetBytes(data, "env.ANTHROPIC_AUTH_TOKEN").String() != "sk-abc123" {
		t.Errorf("restore did not reach the link target: %s", data)
	}
}

func TestRepositoryConcurrentWriters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open readers block rename on Windows")
	}
	_, dir := newTestRepository(t)
	opts := RepositoryOptions{
		SettingsPath:    filepath.Join(dir, ".claude", "settings.json"),
		LockPath:        filepath.Join(dir, "state", "settings.lock"),
		BackupDir:       filepath.Join(dir, "state", "backups"),
		BackupRetention: 3,
	}
	if err := os.MkdirAll(filepath.Dir(opts.SettingsPath), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	initial := `{"theme":"dark","permissions":{"allow":["Bash(ls)"]},"env":{"FOO":"bar"}}`
	if err := os.WriteFile(opts.SettingsPath, []byte(initial), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	const writers, rounds = 4, 15
	done := make(chan struct{})
	var readers sync.WaitGroup

	// Readers never observe a partial or merged-away document
	for i := 0; i < 2; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				data, err := os.ReadFile(opts.SettingsPath)
				if err != nil {
					t.Errorf("read failed: %v", err)
					return
				}
				if !gjson.ValidBytes(data) {
					t.Errorf("reader saw invalid JSON: %q", data)
					return
				}
				if gjson.GetBytes(data, "theme").String() != "dark" ||
					gjson.GetBytes(data, "env.FOO").String() != "bar" ||
					!gjson.GetBytes(data, "permissions.allow").IsArray() {
					t.Errorf("reader saw unrelated keys lost: %s", data)
					return
				}
			}
		}()
	}

	// While the lock is held no writer may touch the file
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			unlock, err := storage.Lock(opts.LockPath)
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			before, _ := os.ReadFile(opts.SettingsPath)
			time.Sleep(2 * time.Millisecond)
			after, _ := os.ReadFile(opts.SettingsPath)
			unlock()
			if string(before) != string(after) {
				t.Errorf("settings changed while the lock was held")
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			repo := NewRepository(opts)
			for i := 0; i < rounds; i++ {
				sel := glm
				sel.Token = fmt.Sprintf("sk-writer-%d-%d", w, i)
				if err := repo.Apply(sel); err != nil {
					t.Errorf("writer %d: Apply failed: %v", w, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(done)
	readers.Wait()

	data, err := os.ReadFile(opts.SettingsPath)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	token := gjson.GetBytes(data, "env.ANTHROPIC_AUTH_TOKEN").String()
	var last bool
	for w := 0; w < writers; w++ {
		if token == fmt.Sprintf("sk-writer-%d-%d", w, rounds-1) {
			last = true
		}
	}
	if !last {
		t.Errorf("final token %q is not a writer's last selection", token)
	}
	if backups, _ := NewRepository(opts).Backups(); len(backups) > opts.BackupRetention {
		t.Errorf("kept %d backups, want at most %d", len(backups), opts.BackupRetention)
	}
}
