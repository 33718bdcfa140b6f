// Package sync edits the managed env keys of a Claude Code settings
// document in place. Edits go through sjson so that every byte outside the
// managed keys is left as it was.
package sync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"switchclaude/config/models"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrInvalidDocument is returned when the settings content is not a JSON object.
var ErrInvalidDocument = errors.New("settings content is not a valid JSON object")

func envPath(key string) string {
	return "env." + key
}

// prepare validates content and reports whether the result should be
// re-indented. Empty content is treated as a new, empty document.
func prepare(content string) (string, bool, error) {
	if strings.TrimSpace(content) == "" {
		return "{}", true, nil
	}
	if !gjson.Valid(content) || !gjson.Parse(content).IsObject() {
		return "", false, ErrInvalidDocument
	}
	if env := gjson.Get(content, "env"); env.Exists() && !env.IsObject() {
		return "", false, fmt.Errorf("%w: env field is not an object", ErrInvalidDocument)
	}
	// A document already in canonical indented form stays in that form
	canonical := bytes.Equal(pretty.Pretty([]byte(content)), []byte(content))
	return content, canonical, nil
}

func finish(content string, canonical bool) string {
	if canonical {
		return string(pretty.Pretty([]byte(content)))
	}
	return content
}

// ApplySelection writes sel into the env object of content, replacing the
// previous selection wholesale. ANTHROPIC_API_KEY is removed because it would
// override the auth token.
func ApplySelection(content string, sel models.Selection) (string, error) {
	doc, canonical, err := prepare(content)
	if err != nil {
		return "", err
	}

	original := doc
	values := sel.Env()
	for _, key := range models.ManagedEnvKeys {
		if value, ok := values[key]; ok {
			doc, err = sjson.Set(doc, envPath(key), value)
			if err != nil {
				return "", fmt.Errorf("failed to set %s: %w", key, err)
			}
			continue
		}
		if gjson.Get(doc, envPath(key)).Exists() {
			doc, err = sjson.Delete(doc, envPath(key))
			if err != nil {
				return "", fmt.Errorf("failed to remove %s: %w", key, err)
			}
		}
	}

	updated := finish(doc, canonical)
	if err := validateJSONUpdate(original, updated); err != nil {
		return "", fmt.Errorf("update validation failed: %w", err)
	}
	return updated, nil
}

// ClearSelection removes the keys of the applied selection from content. It
// reports changed=false and returns content untouched when no selection is
// applied. ANTHROPIC_API_KEY is left alone; it can only be present when the
// user set it.
func ClearSelection(content string) (string, bool, error) {
	if strings.TrimSpace(content) == "" {
		return content, false, nil
	}
	doc, canonical, err := prepare(content)
	if err != nil {
		return "", false, err
	}
	if sel, err := ReadSelection(doc); err != nil || sel == nil {
		return content, false, err
	}

	for _, key := range models.SelectionEnvKeys {
		if !gjson.Get(doc, envPath(key)).Exists() {
			continue
		}
		doc, err = sjson.Delete(doc, envPath(key))
		if err != nil {
			return "", false, fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}

	updated := finish(doc, canonical)
	if err := validateJSONUpdate(content, updated); err != nil {
		return "", false, fmt.Errorf("update validation failed: %w", err)
	}
	return updated, true, nil
}

// ReadSelection extracts the applied selection from content. It returns nil
// when no base URL, token, or model is set. Provider is left empty; the
// caller resolves it from the base URL.
func ReadSelection(content string) (*models.Selection, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	if _, _, err := prepare(content); err != nil {
		return nil, err
	}

	env := gjson.Get(content, "env")
	sel := models.Selection{
		BaseURL:        env.Get(models.EnvBaseURL).String(),
		Token:          env.Get(models.EnvAuthToken).String(),
		Model:          env.Get(models.EnvModel).String(),
		SmallFastModel: env.Get(models.EnvSmallFastModel).String(),
	}
	if sel.BaseURL == "" && sel.Token == "" && sel.Model == "" {
		return nil, nil
	}
	return &sel, nil
}

// validateJSONUpdate validates that nothing outside the managed env keys changed
func validateJSONUpdate(originalContent string, updatedContent string) error {
	if !json.Valid([]byte(updatedContent)) {
		return fmt.Errorf("updated JSON is invalid")
	}

	original, updated, err := parseToMaps(originalContent, updatedContent)
	if err != nil {
		return err
	}

	// Compare all fields except env
	differences := deepCompare(original, updated)
	if len(differences) > 0 {
		sort.Strings(differences)
		return fmt.Errorf("unexpected changes to non-env fields: %s", strings.Join(differences, ", "))
	}

	originalEnv, err := extractEnv(original)
	if err != nil {
		return err
	}
	updatedEnv, err := extractEnv(updated)
	if err != nil {
		return err
	}

	for key, originalVal := range originalEnv {
		if models.IsManagedEnvKey(key) {
			continue
		}
		updatedVal, exists := updatedEnv[key]
		if !exists {
			return fmt.Errorf("unmanaged env field '%s' was deleted", key)
		}
		if !reflect.DeepEqual(originalVal, updatedVal) {
			return fmt.Errorf("unmanaged env field '%s' was modified", key)
		}
	}
	for key := range updatedEnv {
		if _, existed := originalEnv[key]; !existed && !models.IsManagedEnvKey(key) {
			return fmt.Errorf("unmanaged env field '%s' was added", key)
		}
	}

	return nil
}

// parseToMaps parses two JSON strings to maps for deep comparison
func parseToMaps(originalStr, updatedStr string) (map[string]interface{}, map[string]interface{}, error) {
	var original map[string]interface{}
	if err := json.Unmarshal([]byte(originalStr), &original); err != nil {
		return nil, nil, fmt.Errorf("failed to parse original JSON: %w", err)
	}

	var updated map[string]interface{}
	if err := json.Unmarshal([]byte(updatedStr), &updated); err != nil {
		return nil, nil, fmt.Errorf("failed to parse updated JSON: %w", err)
	}

	return original, updated, nil
}

// deepCompare compares two maps and returns a list of differing fields.
// The top-level env field is skipped; it is checked key by key.
func deepCompare(original, updated map[string]interface{}) []string {
	var differences []string

	for key, originalVal := range original {
		if key == "env" {
			continue
		}
		updatedVal, exists := updated[key]
		if !exists {
			differences = append(differences, key+" (missing)")
			continue
		}
		if !reflect.DeepEqual(originalVal, updatedVal) {
			differences = append(differences, key)
		}
	}

	for key := range updated {
		if key == "env" {
			continue
		}
		if _, exists := original[key]; !exists {
			differences = append(differences, key+" (new)")
		}
	}

	return differences
}

// extractEnv returns the env object of a parsed document
func extractEnv(data map[string]interface{}) (map[string]interface{}, error) {
	env, exists := data["env"]
	if !exists {
		return map[string]interface{}{}, nil
	}

	envMap, ok := env.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("env field is not a map")
	}

	return envMap, nil
}
