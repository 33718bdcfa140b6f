package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the provider settings so Claude Code uses its defaults",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := a.repo.Clear()
			if err != nil {
				return classify(err)
			}

			st := newStyles(a.stdout)
			if !changed {
				fmt.Fprintln(a.stdout, st.muted.Render("No active configuration, nothing to clear"))
				return nil
			}
			fmt.Fprintln(a.stdout, st.success.Render("Provider settings cleared"))
			return nil
		},
	}
}
