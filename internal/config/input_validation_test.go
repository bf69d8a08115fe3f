package config

import (
	"strings"
	"testing"

	"github.com/lamim/promptlab/pkg/models"
)

func TestValidateStoryInputs_Valid(t *testing.T) {
	tests := []models.StoryConfig{
		DefaultStoryConfig(),
		{Idea: "Two lines\nof idea", Genre: "Noir", Length: 300},
		{Idea: "Tabs\tare fine", Includes: []string{}, Avoids: nil, Length: 1},
		{Idea: strings.Repeat("é", MaxIdeaLength), Genre: strings.Repeat("ß", MaxFieldLength), Length: 1},
	}

	for _, tt := range tests {
		t.Run(tt.Idea, func(t *testing.T) {
			if err := ValidateStoryInputs(tt); err != nil {
				t.Errorf("ValidateStoryInputs() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStoryInputs_Invalid(t *testing.T) {
	tooMany := make([]string, MaxListItems+1)
	for i := range tooMany {
		tooMany[i] = "x"
	}

	tests := []struct {
		name  string
		input models.StoryConfig
		want  string // substring of expected error
	}{
		{
			name:  "idea_too_long",
			input: models.StoryConfig{Idea: strings.Repeat("a", MaxIdeaLength+1)},
			want:  "exceeds maximum length",
		},
		{
			name:  "idea_control_chars",
			input: models.StoryConfig{Idea: "Test\x00Idea"},
			want:  "invalid control characters",
		},
		{
			name:  "genre_too_long",
			input: models.StoryConfig{Idea: "ok", Genre: strings.Repeat("g", MaxFieldLength+1)},
			want:  "genre exceeds",
		},
		{
			name:  "include_bell_char",
			input: models.StoryConfig{Idea: "ok", Includes: []string{"fine", "bad\x07"}},
			want:  "includes[1]",
		},
		{
			name:  "too_many_avoids",
			input: models.StoryConfig{Idea: "ok", Avoids: tooMany},
			want:  "too many elements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStoryInputs(tt.input)
			if err == nil {
				t.Errorf("ValidateStoryInputs() expected error, got nil")
			} else if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ValidateStoryInputs() error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidateModelName_Invalid(t *testing.T) {
	if err := validateModelName(strings.Repeat("m", MaxModelNameLength+1), "generation"); err == nil {
		t.Error("Expected error for long model name")
	}
	if err := validateModelName("gpt\x00", "generation"); err == nil {
		t.Error("Expected error for control characters")
	}
	if err := validateModelName("gpt-4o-mini", "generation"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://api.openai.com/v1", false},
		{"http://localhost:11434/v1", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateBaseURL(tt.url, "judge")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBaseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateInputs_SystemPromptSize(t *testing.T) {
	cfg := Default()
	cfg.Judge.SystemPrompt = strings.Repeat("s", MaxSystemPromptSize+1)
	if err := cfg.ValidateInputs(); err == nil {
		t.Error("Expected error for oversized system prompt")
	}
}
