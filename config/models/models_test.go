package models

import "testing"

func TestSelectionEnv(t *testing.T) {
	sel := Selection{
		Provider:       "glm",
		BaseURL:        "https://open.bigmodel.cn/api/anthropic",
		Model:          "glm-4.6",
		SmallFastModel: "glm-4.5-air",
		Token:          "sk-abc123",
	}
	env := sel.Env()

	want := map[string]string{
		EnvBaseURL:        "https://open.bigmodel.cn/api/anthropic",
		EnvAuthToken:      "sk-abc123",
		EnvModel:          "glm-4.6",
		EnvSmallFastModel: "glm-4.5-air",
	}
	if len(env) != len(want) {
		t.Fatalf("Env() has %d keys, want %d: %v", len(env), len(want), env)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("Env()[%s] = %q, want %q", k, env[k], v)
		}
	}
	if _, ok := env[EnvAPIKey]; ok {
		t.Errorf("Env() must never set %s", EnvAPIKey)
	}
}

func TestSelectionEnvOmitsEmpty(t *testing.T) {
	env := Selection{BaseURL: "https://x.example.com"}.Env()
	if len(env) != 1 {
		t.Errorf("Env() = %v, want only base URL", env)
	}
}

func TestIsManagedEnvKey(t *testing.T) {
	for _, k := range ManagedEnvKeys {
		if !IsManagedEnvKey(k) {
			t.Errorf("IsManagedEnvKey(%q) = false", k)
		}
	}
	for _, k := range []string{"PATH", "ANTHROPIC_CUSTOM_HEADERS", "anthropic_model", ""} {
		if IsManagedEnvKey(k) {
			t.Errorf("IsManagedEnvKey(%q) = true", k)
		}
	}
}

func TestSelectionEnvKeysMatchEnv(t *testing.T) {
	env := Selection{BaseURL: "u", Token: "t", Model: "m", SmallFastModel: "f"}.Env()
	if len(SelectionEnvKeys) != len(env) {
		t.Fatalf("SelectionEnvKeys = %v, Env() = %v", SelectionEnvKeys, env)
	}
	for _, k := range SelectionEnvKeys {
		if _, ok := env[k]; !ok {
			t.Errorf("%s is not written by a selection", k)
		}
		if !IsManagedEnvKey(k) {
			t.Errorf("%s is not managed", k)
		}
	}
}
