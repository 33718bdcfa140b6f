// Package validation checks user-supplied values before they reach a
// credential backend or the settings file.
package validation

import (
	"errors"
	"fmt"
	"unicode"

	"switchclaude/config/models"
	"switchclaude/internal/utils"
)

// ErrEmptyToken is returned for a blank token.
var ErrEmptyToken = errors.New("token cannot be empty")

// maxTokenLength bounds what is accepted from stdin or the command line
const maxTokenLength = 4096

// ValidateToken rejects empty tokens and tokens containing whitespace or
// control characters. Tokens are opaque otherwise.
func ValidateToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if len(token) > maxTokenLength {
		return fmt.Errorf("token exceeds %d bytes", maxTokenLength)
	}
	for i, r := range token {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("token contains whitespace or control character at offset %d", i)
		}
	}
	return nil
}

// ValidateSelection validates a selection before it is applied
func ValidateSelection(sel models.Selection) error {
	if sel.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if !utils.ValidateURL(sel.BaseURL) {
		return fmt.Errorf("invalid URL format: %s", sel.BaseURL)
	}
	if sel.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if err := ValidateToken(sel.Token); err != nil {
		return fmt.Errorf("provider %s: %w", sel.Provider, err)
	}
	return nil
}
