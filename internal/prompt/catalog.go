// Package prompt holds the fixed catalog of prompting strategies and renders
// the generation and judge prompts for each of them.
package prompt

import "github.com/lamim/promptlab/pkg/models"

var catalog = []models.PromptVariant{
	{ID: models.VariantZeroShot, Label: "Zero-Shot", Description: "Plain instruction with no examples."},
	{ID: models.VariantOneShot, Label: "One-Shot", Description: "Instruction with a single high-quality example."},
	{ID: models.VariantFewShot, Label: "Few-Shot", Description: "Instruction with multiple varied examples."},
	{ID: models.VariantPersona, Label: "Persona", Description: "Assigned role as a master novelist."},
	{ID: models.VariantStructuredOutline, Label: "Structured Outline", Description: "Forces an outline creation before writing."},
	{ID: models.VariantDecomposition, Label: "Decomposition", Description: "Breaks writing into sequential scenes."},
	{ID: models.VariantVisualGrounded, Label: "Visual-Grounded", Description: "Instructional focus on textual visual cues."},
	{ID: models.VariantMultiAgent, Label: "Multi-Agent", Description: "Writer -> Critic -> Rewrite iterative process."},
}

// Catalog returns the variants in run order. The slice is a copy.
func Catalog() []models.PromptVariant {
	out := make([]models.PromptVariant, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a variant by ID
func Lookup(id models.VariantID) (models.PromptVariant, bool) {
	for _, v := range catalog {
		if v.ID == id {
			return v, true
		}
	}
	return models.PromptVariant{}, false
}

// Label returns the display label for id, or the ID itself when unknown
func Label(id models.VariantID) string {
	if v, ok := Lookup(id); ok {
		return v.Label
	}
	return string(id)
}
