package config

import "github.com/lamim/promptlab/pkg/models"

// DefaultStorageKey is the key the run collection is stored under
const DefaultStorageKey = "prompt_writer_experiments"

// DefaultStoryConfig returns the brief used when none is configured
func DefaultStoryConfig() models.StoryConfig {
	return models.StoryConfig{
		Idea:        "A time traveler repeatedly returns to the same night in Budapest and realizes the city remembers him even when people do not.",
		Genre:       "Literary science fiction",
		Style:       "Dark, introspective, poetic",
		POV:         "First person",
		Tone:        "Melancholic",
		Length:      900,
		Includes:    []string{"Danube river at night", "morally difficult choice"},
		Avoids:      []string{"technical sci-fi jargon", "happy endings"},
		Temperature: 0.8,
	}
}

// GetDefaultGenerationSystemPrompt returns the system prompt for story generation
func GetDefaultGenerationSystemPrompt() string {
	return "You are a creative fiction writer."
}

// GetDefaultJudgeSystemPrompt returns the system prompt for judge evaluation
func GetDefaultJudgeSystemPrompt() string {
	return "Return only valid JSON matching the scoring schema. No explanations outside JSON."
}
