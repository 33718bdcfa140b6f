package cmd

import (
	"errors"
	"strings"

	"switchclaude/config"
	"switchclaude/internal/apperr"
	"switchclaude/internal/credential"
	"switchclaude/internal/launcher"
	"switchclaude/internal/providers"
)

// classify assigns a kind to errors that reach Run unclassified
func classify(err error) error {
	var (
		ae *apperr.Error
		nf *providers.NotFoundError
		be *credential.BackendError
		se *config.SettingsError
		de *launcher.DependencyError
		le *launcher.LaunchError
	)

	switch {
	case errors.As(err, &ae):
		return err
	case errors.As(err, &nf):
		return providerNotFound(nf)
	case errors.Is(err, credential.ErrNotFound):
		return apperr.New(apperr.MissingToken, "", err)
	case errors.As(err, &be):
		return backendError(be.Backend, "", err)
	case errors.As(err, &se):
		return settingsError(se)
	case errors.Is(err, config.ErrInvalidConfig):
		return apperr.New(apperr.ConfigInvalid, "", err)
	case errors.As(err, &de):
		return dependencyMissing(de)
	case errors.As(err, &le):
		return apperr.New(apperr.LaunchFailure, le.Path, le.Err)
	case strings.HasPrefix(err.Error(), "unknown command"):
		return apperr.New(apperr.UnknownSubcommand, "", err)
	}
	return apperr.New(apperr.Internal, "", err)
}

func providerNotFound(nf *providers.NotFoundError) error {
	return apperr.New(apperr.NotFoundProvider, nf.Name, nf).
		WithHint("Run 'switch-claude list' to see available providers")
}

func missingToken(provider string, err error) error {
	return apperr.New(apperr.MissingToken, provider, err).
		WithHint("Store a token first:\n  switch-claude set-keychain %s   (OS keychain, recommended)\n  switch-claude set-token %s      (token file)", provider, provider)
}

func backendError(backend credential.Backend, provider string, err error) error {
	var be *credential.BackendError
	op := credential.OpRead
	if errors.As(err, &be) {
		op = be.Op
	}

	switch {
	case backend == credential.BackendSecure:
		e := apperr.New(apperr.UnsupportedPlatform, provider, err)
		if credential.IsUnsupported(err) {
			return e.WithHint("No OS keychain is available here; use 'switch-claude set-token %s' instead", orPlaceholder(provider))
		}
		return e.WithHint("Unlock the OS keychain, or use 'switch-claude set-token %s' instead", orPlaceholder(provider))
	case errors.Is(err, credential.ErrInsecurePermissions):
		return apperr.New(apperr.StoreReadFailure, provider, err)
	case op == credential.OpWrite:
		return apperr.New(apperr.StoreWriteFailure, provider, err)
	default:
		return apperr.New(apperr.StoreReadFailure, provider, err)
	}
}

func settingsError(se *config.SettingsError) error {
	if se.Op == config.OpRead {
		return apperr.New(apperr.SettingsReadFailure, se.Path, se.Err).
			WithHint("Fix or remove the settings file, or run 'switch-claude restore'")
	}
	return apperr.New(apperr.SettingsWriteFailure, se.Path, se.Err)
}

func dependencyMissing(de *launcher.DependencyError) error {
	return apperr.New(apperr.DependencyMissing, de.Command, de.Err).
		WithHint("Install Claude Code first: npm install -g @anthropic-ai/claude-code")
}

func orPlaceholder(provider string) string {
	if provider == "" {
		return "<provider>"
	}
	return provider
}
