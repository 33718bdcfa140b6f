package cmd

import (
	"fmt"

	"switchclaude/internal/utils"

	"github.com/spf13/cobra"
)

func newCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the provider currently applied to Claude Code",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := a.repo.Current()
			if err != nil {
				return classify(err)
			}

			st := newStyles(a.stdout)
			if sel == nil {
				fmt.Fprintln(a.stdout, "No active configuration")
				fmt.Fprintln(a.stdout, st.muted.Render("Run 'switch-claude <provider>' to apply one"))
				return nil
			}

			token := "not set"
			if sel.Token != "" {
				token = utils.MaskToken(sel.Token) + " (present)"
			}
			fmt.Fprintln(a.stdout, st.field("Provider", sel.Provider))
			fmt.Fprintln(a.stdout, st.field("Base URL", sel.BaseURL))
			fmt.Fprintln(a.stdout, st.field("Model", sel.Model))
			if sel.SmallFastModel != "" && sel.SmallFastModel != sel.Model {
				fmt.Fprintln(a.stdout, st.field("Fast model", sel.SmallFastModel))
			}
			fmt.Fprintln(a.stdout, st.field("Token", token))
			fmt.Fprintln(a.stdout, st.field("Settings", a.repo.Path()))
			return nil
		},
	}
}
