package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lamim/promptlab/pkg/models"
)

// ErrMissingAPIKey is returned when no API credential is present in the environment
var ErrMissingAPIKey = errors.New("API key is missing: set OPENAI_API_KEY or API_KEY in the environment or env file")

// Config represents the complete application configuration
type Config struct {
	Generation ModelConfig        `toml:"generation"`
	Judge      JudgeConfig        `toml:"judge"`
	Retry      RetryConfig        `toml:"retry"`
	Story      models.StoryConfig `toml:"story"` // Default brief used when no overrides are given
	Storage    StorageConfig      `toml:"storage"`
	Server     ServerConfig       `toml:"server"`
}

// ModelConfig represents configuration for a single model endpoint
type ModelConfig struct {
	BaseURL            string `toml:"base_url"`
	ModelName          string `toml:"model_name"`
	SystemPrompt       string `toml:"system_prompt"`
	MaxOutputTokens    int    `toml:"max_output_tokens"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"` // Transport timeout (default 120)
}

// JudgeConfig holds the judge model settings
type JudgeConfig struct {
	ModelConfig
	RecomputeAverage bool `toml:"recompute_average"` // Replace the judge's avg with the local mean of the five metrics
}

// RetryConfig controls the bounded retry wrapper around each model call
type RetryConfig struct {
	MaxRetries  int `toml:"max_retries"`   // Retries after the first attempt (default 2)
	BaseDelayMS int `toml:"base_delay_ms"` // Linear backoff base: delay = base * attempt (default 1500)
}

// StorageDriver selects the key-value backend for persisted runs
type StorageDriver string

const (
	StorageFile   StorageDriver = "file"
	StorageSQLite StorageDriver = "sqlite"
	StorageMemory StorageDriver = "memory"
)

// StorageConfig holds persistence settings
type StorageConfig struct {
	Driver StorageDriver `toml:"driver"`
	Dir    string        `toml:"dir"`
	Key    string        `toml:"key"`
}

// ServerConfig holds the local HTTP API settings
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Secrets holds sensitive credentials loaded from environment variables
type Secrets struct {
	APIKeys map[string]string
}

const (
	// MaxRetries is the highest allowed retry count per call
	MaxRetries = 10
	// MaxStoryLength is the highest allowed target word count
	MaxStoryLength = 20000
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateModelConfig("generation", c.Generation); err != nil {
		return err
	}
	if err := validateModelConfig("judge", c.Judge.ModelConfig); err != nil {
		return err
	}

	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > MaxRetries {
		return fmt.Errorf("retry.max_retries must be between 0 and %d (got %d)", MaxRetries, c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelayMS < 0 {
		return fmt.Errorf("retry.base_delay_ms must not be negative (got %d)", c.Retry.BaseDelayMS)
	}

	switch c.Storage.Driver {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("storage.driver must be one of: file, sqlite, memory (got %s)", c.Storage.Driver)
	}
	if c.Storage.Driver != StorageMemory && c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required for driver %s", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	if err := ValidateStory(c.Story); err != nil {
		return fmt.Errorf("story: %w", err)
	}

	return nil
}

// ValidateStory checks that a story brief can be run
func ValidateStory(s models.StoryConfig) error {
	if strings.TrimSpace(s.Idea) == "" {
		return fmt.Errorf("idea is required")
	}
	if s.Length < 1 {
		return fmt.Errorf("length must be a positive word count (got %d)", s.Length)
	}
	if s.Length > MaxStoryLength {
		return fmt.Errorf("length must not exceed %d (got %d)", MaxStoryLength, s.Length)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2 (got %.2f)", s.Temperature)
	}
	return nil
}

func validateModelConfig(name string, mc ModelConfig) error {
	if mc.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", name)
	}
	if mc.ModelName == "" {
		return fmt.Errorf("%s.model_name is required", name)
	}
	if mc.MaxOutputTokens < 1 {
		return fmt.Errorf("%s.max_output_tokens must be at least 1", name)
	}
	if mc.RateLimitPerMinute < 1 {
		return fmt.Errorf("%s.rate_limit_per_minute must be at least 1", name)
	}
	if mc.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("%s.http_timeout_seconds must not be negative", name)
	}
	return nil
}

// LoadSecrets loads sensitive credentials from environment variables
func LoadSecrets() (*Secrets, error) {
	secrets := &Secrets{
		APIKeys: make(map[string]string),
	}

	// Generic key first, provider-specific key as fallback
	if key := os.Getenv("API_KEY"); key != "" {
		secrets.APIKeys["generic"] = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKeys["openai"] = key
	}

	return secrets, nil
}

// GetAPIKey returns the API key for a given base URL
func (s *Secrets) GetAPIKey(baseURL string) string {
	if s == nil {
		return ""
	}
	if strings.Contains(baseURL, "openai.com") {
		if key := s.APIKeys["openai"]; key != "" {
			return key
		}
	}
	if key := s.APIKeys["generic"]; key != "" {
		return key
	}
	return s.APIKeys["openai"]
}

// RequireAPIKey returns the key for baseURL or ErrMissingAPIKey
func (s *Secrets) RequireAPIKey(baseURL string) (string, error) {
	key := s.GetAPIKey(baseURL)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// GetProviderName names the provider behind baseURL for rate limiting. Every
// OpenAI endpoint maps to "openai"; other URLs name themselves without a
// trailing slash.
func GetProviderName(baseURL string) string {
	if strings.Contains(baseURL, "openai.com") {
		return "openai"
	}
	return strings.TrimRight(baseURL, "/")
}
