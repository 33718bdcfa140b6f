package cmd

import (
	"fmt"

	"switchclaude/internal/log"
	"switchclaude/internal/providers"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available providers",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			active := ""
			if sel, err := a.repo.Current(); err != nil {
				log.Warn("could not read current selection", "error", err)
			} else if sel != nil {
				active = sel.Provider
			}

			st := newStyles(a.stdout)
			rows := [][]string{}
			for _, p := range providers.List() {
				marker := ""
				if p.Name == active {
					marker = "*"
				}
				rows = append(rows, []string{marker, p.Name, p.BaseURL, p.DefaultModel})
			}

			t := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("", "NAME", "BASE URL", "MODEL").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					s := st.renderer.NewStyle().PaddingRight(2)
					if row == table.HeaderRow {
						return s.Bold(true)
					}
					return s
				})
			fmt.Fprintln(a.stdout, t.String())
			return nil
		},
	}
}
