package config

import (
	"fmt"
	"net/url"
	"unicode"
	"unicode/utf8"

	"github.com/lamim/promptlab/pkg/models"
)

const (
	// MaxIdeaLength is the maximum allowed length for the story idea
	MaxIdeaLength = 2000

	// MaxFieldLength is the maximum allowed length for genre, style, POV and tone
	MaxFieldLength = 200

	// MaxListItems is the maximum number of must-include or avoid elements
	MaxListItems = 50

	// MaxModelNameLength is the maximum allowed length for model names
	MaxModelNameLength = 100

	// MaxSystemPromptSize is the maximum allowed size for a system prompt
	MaxSystemPromptSize = 50 * 1024 // 50KB
)

// ValidateInputs performs additional validation on user-controllable fields.
func (c *Config) ValidateInputs() error {
	endpoints := []struct {
		key string
		mc  ModelConfig
	}{
		{"generation", c.Generation},
		{"judge", c.Judge.ModelConfig},
	}

	for _, m := range endpoints {
		if err := validateModelName(m.mc.ModelName, m.key); err != nil {
			return err
		}
		if err := validateBaseURL(m.mc.BaseURL, m.key); err != nil {
			return err
		}
		if len(m.mc.SystemPrompt) > MaxSystemPromptSize {
			return fmt.Errorf("%s.system_prompt exceeds maximum size of %d bytes (got %d)",
				m.key, MaxSystemPromptSize, len(m.mc.SystemPrompt))
		}
	}

	if err := ValidateStoryInputs(c.Story); err != nil {
		return fmt.Errorf("invalid story: %w", err)
	}

	return nil
}

// ValidateStoryInputs checks free-text brief fields for size and control characters
func ValidateStoryInputs(s models.StoryConfig) error {
	if err := validateText("idea", s.Idea, MaxIdeaLength); err != nil {
		return err
	}

	fields := []struct {
		name  string
		value string
	}{
		{"genre", s.Genre},
		{"style", s.Style},
		{"pov", s.POV},
		{"tone", s.Tone},
	}
	for _, f := range fields {
		if err := validateText(f.name, f.value, MaxFieldLength); err != nil {
			return err
		}
	}

	lists := []struct {
		name  string
		items []string
	}{
		{"includes", s.Includes},
		{"avoids", s.Avoids},
	}
	for _, l := range lists {
		if len(l.items) > MaxListItems {
			return fmt.Errorf("%s has too many elements (max %d, got %d)", l.name, MaxListItems, len(l.items))
		}
		for i, item := range l.items {
			if err := validateText(fmt.Sprintf("%s[%d]", l.name, i), item, MaxFieldLength); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateText(name, value string, maxLen int) error {
	if n := utf8.RuneCountInString(value); n > maxLen {
		return fmt.Errorf("%s exceeds maximum length of %d characters (got %d)", name, maxLen, n)
	}
	if containsControlChars(value) {
		return fmt.Errorf("%s contains invalid control characters", name)
	}
	return nil
}

// validateModelName checks model name for security issues
func validateModelName(modelName, configKey string) error {
	if len(modelName) > MaxModelNameLength {
		return fmt.Errorf("model '%s' name exceeds maximum length of %d (got %d)",
			configKey, MaxModelNameLength, len(modelName))
	}

	if containsControlChars(modelName) {
		return fmt.Errorf("model '%s' name contains invalid control characters", configKey)
	}

	return nil
}

// validateBaseURL checks that the base URL is properly formatted and safe
func validateBaseURL(baseURL, configKey string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("model '%s' has invalid base_url: %w", configKey, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("model '%s' base_url must use http or https scheme (got %s)",
			configKey, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("model '%s' base_url must have a host", configKey)
	}

	return nil
}

// containsControlChars checks if a string contains control characters
// (excluding newlines, tabs, and carriage returns which are acceptable)
func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
