package validation

import (
	"errors"
	"strings"
	"testing"

	"switchclaude/config/models"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"typical", "sk-abc123", false},
		{"jwt-like", "eyJhbGciOi.eyJzdWIi.sig_-", false},
		{"empty", "", true},
		{"inner space", "sk abc", true},
		{"trailing newline", "sk-abc\n", true},
		{"tab", "\tsk-abc", true},
		{"control", "sk-\x00abc", true},
		{"too long", strings.Repeat("a", maxTokenLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}

	if !errors.Is(ValidateToken(""), ErrEmptyToken) {
		t.Error("empty token should return ErrEmptyToken")
	}
}

func TestValidateSelection(t *testing.T) {
	valid := models.Selection{
		Provider: "glm",
		BaseURL:  "https://open.bigmodel.cn/api/anthropic",
		Model:    "glm-4.6",
		Token:    "sk-abc123",
	}
	if err := ValidateSelection(valid); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}

	mutations := map[string]func(*models.Selection){
		"no provider": func(s *models.Selection) { s.Provider = "" },
		"bad url":     func(s *models.Selection) { s.BaseURL = "ftp://x" },
		"no model":    func(s *models.Selection) { s.Model = "" },
		"no token":    func(s *models.Selection) { s.Token = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			sel := valid
			mutate(&sel)
			if err := ValidateSelection(sel); err == nil {
				t.Error("expected error")
			}
		})
	}
}
