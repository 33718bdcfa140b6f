package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"switchclaude/config/storage"
	"switchclaude/internal/providers"

	"github.com/spf13/viper"
)

// Environment and naming constants
const (
	// AppName names the state directory and the default keyring service
	AppName = "switch-claude"
	// EnvPrefix prefixes every environment override (SWITCH_CLAUDE_TOKEN_DIR, ...)
	EnvPrefix = "SWITCH_CLAUDE"
	// EnvClaudeConfigDir relocates the Claude Code settings directory
	EnvClaudeConfigDir = "CLAUDE_CONFIG_DIR"

	configFileName = "config.yaml"
	settingsFile   = "settings.json"
	lockFileName   = "settings.lock"
	backupDirName  = "backups"
)

// ErrInvalidConfig is wrapped by every configuration error returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// ProviderSpec is a user-defined provider entry from the config file.
type ProviderSpec struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	SmallFastModel string `mapstructure:"small_fast_model"`
}

// Config holds the tool configuration.
type Config struct {
	// SettingsPath is the Claude Code settings file that selections are written to
	SettingsPath string `mapstructure:"settings_path"`
	// TokenDir holds file-backend token records, the settings lock, and backups
	TokenDir string `mapstructure:"token_dir"`
	// KeyringService is the OS keychain service name
	KeyringService string `mapstructure:"keyring_service"`
	// ClaudeCommand is the executable started by --launch
	ClaudeCommand string `mapstructure:"claude_command"`
	// BackupRetention is how many settings backups to keep; 0 disables them
	BackupRetention int `mapstructure:"backup_retention"`
	// Providers adds providers beyond the built-in ones, keyed by name
	Providers map[string]ProviderSpec `mapstructure:"providers"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// DefaultStateDir returns $XDG_CONFIG_HOME/switch-claude, falling back to
// ~/.config/switch-claude.
func DefaultStateDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// DefaultSettingsPath returns $CLAUDE_CONFIG_DIR/settings.json, falling back
// to ~/.claude/settings.json.
func DefaultSettingsPath() (string, error) {
	if dir := os.Getenv(EnvClaudeConfigDir); dir != "" {
		return filepath.Join(dir, settingsFile), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude", settingsFile), nil
}

// Load reads configuration from defaults, the optional config file, and
// SWITCH_CLAUDE_* environment variables, in increasing precedence. An empty
// path selects <state dir>/config.yaml, which may be absent. An explicit
// path must exist.
func Load(path string) (*Config, error) {
	stateDir, err := DefaultStateDir()
	if err != nil {
		return nil, err
	}
	settingsPath, err := DefaultSettingsPath()
	if err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("settings_path", settingsPath)
	v.SetDefault("token_dir", stateDir)
	v.SetDefault("keyring_service", AppName)
	v.SetDefault("claude_command", "claude")
	v.SetDefault("backup_retention", storage.DefaultBackupRetention)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(stateDir, configFileName)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	file := ""
	if explicit || storage.FileExists(path) {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidConfig, path, err)
		}
		file = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.File = file
	cfg.SettingsPath = expandHome(cfg.SettingsPath)
	cfg.TokenDir = expandHome(cfg.TokenDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values. Provider entries are validated again when
// registered.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("%w: settings_path cannot be empty", ErrInvalidConfig)
	}
	if c.TokenDir == "" {
		return fmt.Errorf("%w: token_dir cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.KeyringService) == "" {
		return fmt.Errorf("%w: keyring_service cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ClaudeCommand) == "" {
		return fmt.Errorf("%w: claude_command cannot be empty", ErrInvalidConfig)
	}
	if c.BackupRetention < 0 {
		return fmt.Errorf("%w: backup_retention must be >= 0, got %d", ErrInvalidConfig, c.BackupRetention)
	}
	for name, spec := range c.Providers {
		if spec.BaseURL == "" || spec.Model == "" {
			return fmt.Errorf("%w: provider %s needs base_url and model", ErrInvalidConfig, name)
		}
	}
	return nil
}

// StateDir is the directory for the settings lock and backups.
func (c *Config) StateDir() string {
	return c.TokenDir
}

// LockPath is the advisory lock guarding settings writes.
func (c *Config) LockPath() string {
	return filepath.Join(c.StateDir(), lockFileName)
}

// BackupDir is where settings backups are kept.
func (c *Config) BackupDir() string {
	return filepath.Join(c.StateDir(), backupDirName)
}

// CustomProviders converts the config file's provider entries, sorted by name.
func (c *Config) CustomProviders() []providers.Provider {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]providers.Provider, 0, len(names))
	for _, name := range names {
		spec := c.Providers[name]
		list = append(list, providers.Provider{
			Name:           name,
			BaseURL:        spec.BaseURL,
			DefaultModel:   spec.Model,
			SmallFastModel: spec.SmallFastModel,
		})
	}
	return list
}

// RepositoryOptions derives the settings repository options.
func (c *Config) RepositoryOptions() RepositoryOptions {
	return RepositoryOptions{
		SettingsPath:    c.SettingsPath,
		LockPath:        c.LockPath(),
		BackupDir:       c.BackupDir(),
		BackupRetention: c.BackupRetention,
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
