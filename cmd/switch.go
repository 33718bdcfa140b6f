package cmd

import (
	"errors"
	"fmt"

	"switchclaude/config/models"
	"switchclaude/config/validation"
	"switchclaude/internal/apperr"
	"switchclaude/internal/credential"
	"switchclaude/internal/providers"
	"switchclaude/internal/utils"
)

// runSwitch applies the named provider and optionally launches claude
func (a *app) runSwitch(name string, launch bool, message string) error {
	provider, err := lookupProvider(name)
	if err != nil {
		return err
	}

	token, backend, err := a.resolver.Resolve(provider.Name)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return missingToken(provider.Name, err)
		}
		backend := credential.BackendFile
		var be *credential.BackendError
		if errors.As(err, &be) {
			backend = be.Backend
		}
		return backendError(backend, provider.Name, err)
	}

	sel := models.Selection{
		Provider:       provider.Name,
		BaseURL:        provider.BaseURL,
		Model:          provider.DefaultModel,
		SmallFastModel: provider.FastModel(),
		Token:          token,
	}
	if err := validation.ValidateSelection(sel); err != nil {
		return apperr.New(apperr.StoreReadFailure, provider.Name, err).
			WithHint("Store a valid token with 'switch-claude set-keychain %s' or 'switch-claude set-token %s'", provider.Name, provider.Name)
	}

	if err := a.repo.Apply(sel); err != nil {
		return classify(err)
	}

	st := newStyles(a.stdout)
	fmt.Fprintf(a.stdout, "%s %s\n", st.success.Render("Switched to"), st.title.Render(provider.Name))
	fmt.Fprintln(a.stdout, st.field("Base URL", sel.BaseURL))
	fmt.Fprintln(a.stdout, st.field("Model", sel.Model))
	fmt.Fprintln(a.stdout, st.field("Token", fmt.Sprintf("%s (%s)", utils.MaskToken(token), backend)))

	if !launch {
		return nil
	}

	// Every check happens in Prepare; Exec is the last step
	plan, err := a.launcher.Prepare(sel, message)
	if err != nil {
		return classify(err)
	}
	if err := a.launcher.Exec(plan); err != nil {
		return classify(err)
	}
	return nil
}

func lookupProvider(name string) (providers.Provider, error) {
	p, err := providers.Get(name)
	if err != nil {
		return providers.Provider{}, classify(err)
	}
	return p, nil
}
