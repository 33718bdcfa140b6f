package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"switchclaude/config/validation"
	"switchclaude/internal/apperr"
	"switchclaude/internal/credential"
	"switchclaude/internal/providers"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newSetTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <provider> [token]",
		Short: "Store a provider token in the token file",
		Long: `Store a provider token in the private token directory. Without the token
argument it is read from the terminal with echo disabled, or as one line from
standard input.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.storeToken(a.file, args)
		},
	}
}

func newSetKeychainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-keychain <provider> [token]",
		Short: "Store a provider token in the OS keychain",
		Long: `Store a provider token in the OS keychain (macOS Keychain, Secret Service,
Windows Credential Manager). Tokens in the keychain take precedence over the
token file.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.storeToken(a.secure, args)
		},
	}
}

// storeToken writes the token to exactly the given backend
func (a *app) storeToken(store credential.Store, args []string) error {
	provider, err := lookupProvider(args[0])
	if err != nil {
		return err
	}

	var token string
	if len(args) == 2 {
		token = args[1]
	} else {
		token, err = a.readToken(provider.Name)
		if err != nil {
			return apperr.New(apperr.Usage, provider.Name, fmt.Errorf("failed to read token: %w", err))
		}
	}

	token = strings.TrimSpace(token)
	if err := validation.ValidateToken(token); err != nil {
		return apperr.New(apperr.Usage, provider.Name, err)
	}

	if err := store.Set(provider.Name, token); err != nil {
		return backendError(store.Name(), provider.Name, err)
	}

	st := newStyles(a.stdout)
	fmt.Fprintf(a.stdout, "%s Token for %s saved to the %s backend\n",
		st.success.Render("✓"), st.title.Render(provider.Name), store.Name())

	// A keychain token would shadow the one just written
	if store.Name() == credential.BackendFile {
		if _, err := a.secure.Get(provider.Name); err == nil {
			fmt.Fprintln(a.stdout, st.warning.Render("A keychain token for "+provider.Name+" exists and takes precedence"))
		}
	}
	return nil
}

// readToken reads a token without echo from a terminal, or one line from
// any other input
func (a *app) readToken(provider string) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(a.stderr, "Token for %s: ", provider)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if a.stdin == nil {
		return "", errors.New("no input available")
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no token on standard input")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newShowTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-tokens",
		Short: "Show which backends hold a token for each provider",
		Long:  "Show which backends hold a token for each provider. Token values are never printed.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := providers.Names()
			statuses := a.resolver.Status(names)

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				used := string(s.Resolved)
				if used == "" {
					used = "-"
				}
				rows = append(rows, []string{s.Provider, s.Secure.String(), s.File.String(), used})
			}

			// Token records left behind for providers that no longer exist
			stored, err := a.file.List()
			if err != nil {
				return backendError(credential.BackendFile, "", err)
			}
			for _, name := range stored {
				if _, err := providers.Get(name); err != nil {
					rows = append(rows, []string{name + " (unknown)", "-", credential.Present.String(), "-"})
				}
			}

			st := newStyles(a.stdout)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(st.muted).
				Headers("PROVIDER", "KEYCHAIN", "FILE", "USED").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return st.renderer.NewStyle().Bold(true).Padding(0, 1)
					}
					return st.renderer.NewStyle().Padding(0, 1)
				})
			fmt.Fprintln(a.stdout, t.String())
			fmt.Fprintln(a.stdout, st.muted.Render("Token directory: "+a.file.Dir()))
			return nil
		},
	}
}
