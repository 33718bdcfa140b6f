package cmd

import (
	"errors"
	"fmt"

	"switchclaude/config"
	"switchclaude/config/storage"
	"switchclaude/internal/apperr"

	"github.com/spf13/cobra"
)

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the settings file from its newest backup",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			used, err := a.repo.Restore()
			if err != nil {
				if errors.Is(err, storage.ErrNoBackup) {
					return apperr.New(apperr.SettingsWriteFailure, a.repo.Path(), err).
						WithHint("Backups are kept in %s (backup_retention: %d)", a.cfg.BackupDir(), a.cfg.BackupRetention)
				}
				var se *config.SettingsError
				if errors.As(err, &se) {
					return settingsError(se)
				}
				return classify(err)
			}

			st := newStyles(a.stdout)
			fmt.Fprintf(a.stdout, "%s %s\n", st.success.Render("Restored settings from"), used)
			return nil
		},
	}
}
