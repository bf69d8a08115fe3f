package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables.
// An empty configPath yields the built-in defaults.
func Load(configPath string) (*Config, *Secrets, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ValidateInputs(); err != nil {
		return nil, nil, fmt.Errorf("input validation failed: %w", err)
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &cfg, secrets, nil
}

// Default returns the built-in configuration
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	applyModelDefaults(&cfg.Generation)
	applyModelDefaults(&cfg.Judge.ModelConfig)

	if cfg.Generation.SystemPrompt == "" {
		cfg.Generation.SystemPrompt = GetDefaultGenerationSystemPrompt()
	}
	if cfg.Judge.SystemPrompt == "" {
		cfg.Judge.SystemPrompt = GetDefaultJudgeSystemPrompt()
	}

	// NOTE: In TOML we can't distinguish 0 from unset, so max_retries = 0
	// means "use the default". Set -1 for a single attempt.
	switch {
	case cfg.Retry.MaxRetries == 0:
		cfg.Retry.MaxRetries = 2
	case cfg.Retry.MaxRetries < 0:
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.BaseDelayMS == 0 {
		cfg.Retry.BaseDelayMS = 1500
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageFile
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = DefaultStorageKey
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}

	if cfg.Story.Idea == "" {
		cfg.Story = DefaultStoryConfig()
	}
}

func applyModelDefaults(mc *ModelConfig) {
	if mc.BaseURL == "" {
		mc.BaseURL = "https://api.openai.com/v1"
	}
	if mc.ModelName == "" {
		mc.ModelName = "gpt-4o-mini"
	}
	if mc.MaxOutputTokens == 0 {
		mc.MaxOutputTokens = 2000
	}
	if mc.RateLimitPerMinute == 0 {
		mc.RateLimitPerMinute = 60
	}
	if mc.HTTPTimeoutSeconds == 0 {
		mc.HTTPTimeoutSeconds = 120
	}
}
