package providers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"switchclaude/internal/utils"
)

// Provider is an immutable registry entry describing where a provider's
// Anthropic-compatible endpoint lives and which model to ask for.
type Provider struct {
	Name           string
	BaseURL        string
	DefaultModel   string
	SmallFastModel string
}

// FastModel returns the model used for background tasks, falling back to
// the default model.
func (p Provider) FastModel() string {
	if p.SmallFastModel != "" {
		return p.SmallFastModel
	}
	return p.DefaultModel
}

// NotFoundError is returned when a name does not match any registered provider.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown provider: %s (valid: %s)", e.Name, strings.Join(e.Known, ", "))
}

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// reserved names collide with subcommands and can never be switched to.
var reserved = map[string]bool{
	"current":      true,
	"clear":        true,
	"help":         true,
	"list":         true,
	"restore":      true,
	"set-token":    true,
	"set-keychain": true,
	"show-tokens":  true,
	"completion":   true,
}

// registry stores all registered providers
var registry = make(map[string]Provider)

// Register adds a provider or replaces an existing one with the same name.
func Register(p Provider) error {
	if !validName.MatchString(p.Name) {
		return fmt.Errorf("invalid provider name %q: use lowercase letters, digits, '-' or '_'", p.Name)
	}
	if reserved[p.Name] {
		return fmt.Errorf("invalid provider name %q: reserved for a command", p.Name)
	}
	if !utils.ValidateURL(p.BaseURL) {
		return fmt.Errorf("provider %s: invalid base URL: %s", p.Name, p.BaseURL)
	}
	if p.DefaultModel == "" {
		return fmt.Errorf("provider %s: default model cannot be empty", p.Name)
	}
	registry[p.Name] = p
	return nil
}

// Get returns a provider by exact, case-sensitive name.
func Get(name string) (Provider, error) {
	p, ok := registry[name]
	if !ok {
		return Provider{}, &NotFoundError{Name: name, Known: Names()}
	}
	return p, nil
}

// Names returns all registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered providers sorted by name.
func List() []Provider {
	names := Names()
	list := make([]Provider, 0, len(names))
	for _, name := range names {
		list = append(list, registry[name])
	}
	return list
}

// LookupByBaseURL finds the provider whose base URL matches url,
// ignoring a trailing slash on either side.
func LookupByBaseURL(url string) (Provider, bool) {
	for _, p := range List() {
		if utils.SameBaseURL(p.BaseURL, url) {
			return p, true
		}
	}
	return Provider{}, false
}

// Built-in providers. All expose an Anthropic-compatible messages API.
var builtins = []Provider{
	{
		Name:         "glm",
		BaseURL:      "https://open.bigmodel.cn/api/anthropic",
		DefaultModel: "glm-4.6",
		// GLM serves background tasks from its air model
		SmallFastModel: "glm-4.5-air",
	},
	{
		Name:         "kimi",
		BaseURL:      "https://api.moonshot.cn/anthropic",
		DefaultModel: "kimi-k2-turbo-preview",
	},
	{
		Name:         "minimax",
		BaseURL:      "https://api.minimaxi.com/anthropic",
		DefaultModel: "MiniMax-M2",
	},
}

func init() {
	for _, p := range builtins {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}
