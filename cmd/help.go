package cmd

import (
	"fmt"
	"strings"

	"switchclaude/internal/apperr"
	"switchclaude/internal/log"
	"switchclaude/internal/providers"

	"github.com/spf13/cobra"
)

// installHelp replaces cobra's help command so that unknown topics are
// reported as unknown subcommands, and appends the provider list to the
// root help
func installHelp(a *app, rootCmd *cobra.Command) {
	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		if cmd != rootCmd {
			return
		}
		// Custom providers come from the config file. --help skips the
		// pre-run hook, so logging is set up here as well.
		log.Init(log.Options{Verbose: a.verbose, Stderr: a.stderr})
		if err := a.setup(); err != nil {
			log.Debug("listing built-in providers only", "error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nProviders:\n  %s\n", strings.Join(providers.Names(), ", "))
	})

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return rootCmd.Help()
			}
			target, rest, err := rootCmd.Find(args)
			if err != nil || target == rootCmd || len(rest) > 0 {
				return apperr.New(apperr.UnknownSubcommand, strings.Join(args, " "), fmt.Errorf("unknown help topic")).
					WithHint("Run 'switch-claude help' for a list of commands")
			}
			return target.Help()
		},
	})
}
