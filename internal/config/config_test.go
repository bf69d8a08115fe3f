package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lamim/promptlab/pkg/models"
)

func validConfig() Config {
	cfg := Default()
	return *cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing generation base url",
			mutate:  func(c *Config) { c.Generation.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing judge model name",
			mutate:  func(c *Config) { c.Judge.ModelName = "" },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Retry.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "too many retries",
			mutate:  func(c *Config) { c.Retry.MaxRetries = MaxRetries + 1 },
			wantErr: true,
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "redis" },
			wantErr: true,
		},
		{
			name:    "memory storage needs no dir",
			mutate:  func(c *Config) { c.Storage.Driver = StorageMemory; c.Storage.Dir = "" },
			wantErr: false,
		},
		{
			name:    "file storage needs dir",
			mutate:  func(c *Config) { c.Storage.Dir = "" },
			wantErr: true,
		},
		{
			name:    "zero story length",
			mutate:  func(c *Config) { c.Story.Length = 0 },
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Story.Temperature = 2.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStory(t *testing.T) {
	ok := models.StoryConfig{Idea: "X", Length: 500, Temperature: 1.5, IsDeterministic: true}
	if err := ValidateStory(ok); err != nil {
		t.Errorf("ValidateStory() unexpected error: %v", err)
	}

	blank := ok
	blank.Idea = "   "
	if err := ValidateStory(blank); err == nil {
		t.Error("Expected error for blank idea")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Retry.MaxRetries != 2 {
		t.Errorf("Expected default max_retries 2, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelayMS != 1500 {
		t.Errorf("Expected default base_delay_ms 1500, got %d", cfg.Retry.BaseDelayMS)
	}
	if cfg.Generation.SystemPrompt != "You are a creative fiction writer." {
		t.Errorf("Unexpected generation system prompt %q", cfg.Generation.SystemPrompt)
	}
	if cfg.Generation.MaxOutputTokens != 2000 {
		t.Errorf("Expected max_output_tokens 2000, got %d", cfg.Generation.MaxOutputTokens)
	}
	if cfg.Storage.Key != DefaultStorageKey {
		t.Errorf("Expected storage key %q, got %q", DefaultStorageKey, cfg.Storage.Key)
	}
	if cfg.Story.Length != 900 || cfg.Story.IsDeterministic {
		t.Errorf("Unexpected default story %+v", cfg.Story)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptlab.toml")
	content := `
[generation]
base_url = "http://localhost:11434/v1"
model_name = "llama3"
max_output_tokens = 1500

[judge]
model_name = "judge-model"
recompute_average = true

[retry]
max_retries = -1
base_delay_ms = 10

[story]
idea = "A lighthouse keeper hears the fog speak"
genre = "Gothic"
length = 500
includes = ["a broken lantern"]
temperature = 1.5
is_deterministic = true

[storage]
driver = "sqlite"
dir = "runs"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, secrets, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if secrets == nil {
		t.Fatal("Expected secrets, got nil")
	}

	if cfg.Generation.ModelName != "llama3" || cfg.Generation.MaxOutputTokens != 1500 {
		t.Errorf("Unexpected generation config %+v", cfg.Generation)
	}
	if cfg.Judge.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Expected judge base_url default, got %q", cfg.Judge.BaseURL)
	}
	if !cfg.Judge.RecomputeAverage {
		t.Error("Expected recompute_average to be true")
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("Expected max_retries -1 to mean a single attempt, got %d", cfg.Retry.MaxRetries)
	}
	if !cfg.Story.IsDeterministic || cfg.Story.Temperature != 1.5 {
		t.Errorf("Unexpected story %+v", cfg.Story)
	}
	if len(cfg.Story.Includes) != 1 || cfg.Story.Includes[0] != "a broken lantern" {
		t.Errorf("Unexpected includes %v", cfg.Story.Includes)
	}
	if cfg.Storage.Driver != StorageSQLite || cfg.Storage.Dir != "runs" {
		t.Errorf("Unexpected storage %+v", cfg.Storage)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Generation.ModelName != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %q", cfg.Generation.ModelName)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[generation\nbase_url = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "test-key-123")

	secrets, err := LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets() error = %v", err)
	}

	if secrets.APIKeys["openai"] != "test-key-123" {
		t.Errorf("Expected OpenAI key to be 'test-key-123', got %s", secrets.APIKeys["openai"])
	}
	if _, ok := secrets.APIKeys["generic"]; ok {
		t.Error("Expected no generic key")
	}
}

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		keys    map[string]string
		baseURL string
		want    string
	}{
		{
			name:    "OpenAI URL prefers openai key",
			keys:    map[string]string{"openai": "openai-key", "generic": "generic-key"},
			baseURL: "https://api.openai.com/v1",
			want:    "openai-key",
		},
		{
			name:    "Other URL prefers generic key",
			keys:    map[string]string{"openai": "openai-key", "generic": "generic-key"},
			baseURL: "http://localhost:8000/v1",
			want:    "generic-key",
		},
		{
			name:    "Other URL falls back to openai key",
			keys:    map[string]string{"openai": "openai-key"},
			baseURL: "http://localhost:8000/v1",
			want:    "openai-key",
		},
		{
			name:    "No keys",
			keys:    map[string]string{},
			baseURL: "https://api.openai.com/v1",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secrets := &Secrets{APIKeys: tt.keys}
			if got := secrets.GetAPIKey(tt.baseURL); got != tt.want {
				t.Errorf("GetAPIKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	secrets := &Secrets{APIKeys: map[string]string{}}
	if _, err := secrets.RequireAPIKey("https://api.openai.com/v1"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	var nilSecrets *Secrets
	if _, err := nilSecrets.RequireAPIKey("x"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey for nil secrets, got %v", err)
	}
}

func TestGetProviderName(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://api.openai.com/v1", "openai"},
		{"https://eu.api.openai.com/v1/", "openai"},
		{"http://localhost:8080/v1/", "http://localhost:8080/v1"},
		{"https://openrouter.ai/api/v1", "https://openrouter.ai/api/v1"},
	}
	for _, tt := range tests {
		if got := GetProviderName(tt.baseURL); got != tt.want {
			t.Errorf("GetProviderName(%q) = %q, want %q", tt.baseURL, got, tt.want)
		}
	}
}
