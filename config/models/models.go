package models

// Managed env keys inside the settings file. These are the only keys this
// tool ever writes or removes.
const (
	EnvBaseURL        = "ANTHROPIC_BASE_URL"
	EnvAuthToken      = "ANTHROPIC_AUTH_TOKEN"
	EnvModel          = "ANTHROPIC_MODEL"
	EnvSmallFastModel = "ANTHROPIC_SMALL_FAST_MODEL"
	// EnvAPIKey is removed on apply because it takes precedence over the auth token
	EnvAPIKey = "ANTHROPIC_API_KEY"
)

// ManagedEnvKeys lists every env key owned by this tool, in write order.
var ManagedEnvKeys = []string{
	EnvBaseURL,
	EnvAuthToken,
	EnvModel,
	EnvSmallFastModel,
	EnvAPIKey,
}

// SelectionEnvKeys lists the keys written by an applied selection. Clearing
// removes these and nothing else.
var SelectionEnvKeys = []string{
	EnvBaseURL,
	EnvAuthToken,
	EnvModel,
	EnvSmallFastModel,
}

// IsManagedEnvKey reports whether key belongs to the managed set.
func IsManagedEnvKey(key string) bool {
	for _, k := range ManagedEnvKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Selection is the provider configuration currently applied to the
// settings file.
type Selection struct {
	Provider       string `json:"provider"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	SmallFastModel string `json:"small_fast_model,omitempty"`
	Token          string `json:"-"`
}

// Env returns the managed env values for the selection. Keys with empty
// values are omitted.
func (s Selection) Env() map[string]string {
	env := make(map[string]string, 4)
	if s.BaseURL != "" {
		env[EnvBaseURL] = s.BaseURL
	}
	if s.Token != "" {
		env[EnvAuthToken] = s.Token
	}
	if s.Model != "" {
		env[EnvModel] = s.Model
	}
	if s.SmallFastModel != "" {
		env[EnvSmallFastModel] = s.SmallFastModel
	}
	return env
}
