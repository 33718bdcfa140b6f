package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"switchclaude/config"
	"switchclaude/internal/apperr"
	"switchclaude/internal/credential"
	"switchclaude/internal/launcher"
	"switchclaude/internal/log"
	"switchclaude/internal/providers"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app carries the per-invocation state shared by all commands
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg      *config.Config
	repo     *config.Repository
	file     *credential.FileBackend
	secure   *credential.SecureBackend
	resolver *credential.Resolver
	launcher *launcher.Launcher
}

// setup loads configuration and builds the components. It is safe to call
// more than once.
func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		subject := a.configPath
		if subject == "" {
			subject = "config"
		}
		return apperr.New(apperr.ConfigInvalid, subject, err).
			WithHint("Fix the config file or the SWITCH_CLAUDE_* environment variables")
	}
	for _, p := range cfg.CustomProviders() {
		if err := providers.Register(p); err != nil {
			return apperr.Wrap(apperr.ConfigInvalid, cfg.File, err)
		}
		log.Debug("custom provider registered", "provider", p.Name)
	}
	log.Debug("configuration loaded",
		"file", cfg.File,
		"settings", cfg.SettingsPath,
		"token_dir", cfg.TokenDir,
		"keyring_service", cfg.KeyringService)

	file, err := credential.NewFileBackend(cfg.TokenDir)
	if err != nil {
		return apperr.New(apperr.Internal, "", err)
	}

	a.cfg = cfg
	a.repo = config.NewRepository(cfg.RepositoryOptions())
	a.file = file
	a.secure = credential.NewSecureBackend(cfg.KeyringService, providers.Names())
	a.resolver = credential.NewResolver(a.secure, a.file)
	a.launcher = launcher.New(cfg.ClaudeCommand)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	var launch bool

	rootCmd := &cobra.Command{
		Use:   "switch-claude <provider> [--launch] [message...]",
		Short: "Switch the model provider used by Claude Code",
		Long: `switch-claude points Claude Code at an Anthropic-compatible provider by
rewriting the env section of its settings file. Tokens are kept per provider
in the OS keychain or in a private token directory.`,
		Example: `  switch-claude set-keychain glm
  switch-claude glm
  switch-claude kimi --launch "explain this repository"
  switch-claude current
  switch-claude clear`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Init(log.Options{Verbose: a.verbose, Stderr: a.stderr})
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError(cmd, "a provider or command is required")
			}
			message := strings.Join(args[1:], " ")
			if message != "" && !launch {
				return usageError(cmd, "a message can only be given together with --launch")
			}
			return a.runSwitch(args[0], launch, message)
		},
	}

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`switch-claude {{.Version}}
Commit: ` + commit + `
Date: ` + date + `
`)

	rootCmd.Flags().BoolVar(&launch, "launch", false, "start claude after switching, passing any remaining arguments as the first message")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/switch-claude/config.yaml)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperr.New(apperr.Usage, cmd.CommandPath(), err).
			WithHint("Run '%s --help' for usage", cmd.CommandPath())
	})

	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.AddCommand(
		newCurrentCmd(a),
		newClearCmd(a),
		newSetTokenCmd(a),
		newSetKeychainCmd(a),
		newShowTokensCmd(a),
		newListCmd(a),
		newRestoreCmd(a),
	)
	installHelp(a, rootCmd)
	return rootCmd
}

func usageError(cmd *cobra.Command, msg string) error {
	return apperr.New(apperr.Usage, cmd.CommandPath(), errors.New(msg)).
		WithHint("Run '%s --help' for usage", cmd.CommandPath())
}

// exactArgs wraps cobra.ExactArgs so that arity mistakes are usage errors
func exactArgs(n int) cobra.PositionalArgs {
	return argsUsage(cobra.ExactArgs(n))
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return argsUsage(cobra.RangeArgs(min, max))
}

func argsUsage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return apperr.New(apperr.Usage, cmd.CommandPath(), err).
				WithHint("Usage: %s", cmd.UseLine())
		}
		return nil
	}
}

// Run executes the command line args and returns the exit status.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := newRootCmd(a)
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	err = classify(err)
	printError(stderr, err)
	log.Debug("command failed", "kind", apperr.KindOf(err).String(), "error", err)
	return apperr.ExitCode(err)
}

// Execute executes the root command against the process arguments and
// standard streams.
func Execute() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func printError(w io.Writer, err error) {
	st := newStyles(w)
	fmt.Fprintln(w, st.errorLabel.Render("Error:")+" "+err.Error())
	if hint := apperr.HintOf(err); hint != "" {
		fmt.Fprintln(w, st.hint.Render(hint))
	}
}
