package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/internal/util"
	"github.com/lamim/promptlab/pkg/models"
)

const (
	// EmptyStoryText replaces a generation that produced no text
	EmptyStoryText = "Model returned no text output."
	// GenerationFailedPrefix starts the story text of a variant whose story call failed
	GenerationFailedPrefix = "Generation failed: "
	// FailedRationale marks a variant whose story was never generated
	FailedRationale = "N/A - Generation Failed"
	// EvaluationFailedPrefix starts the story text of a variant the judge could not score
	EvaluationFailedPrefix = "Evaluation failed: "
	// EvaluationFailedRationale marks a variant whose judge call failed
	EvaluationFailedRationale = "N/A - Evaluation Failed"
)

// failureStage is the pipeline step a degraded result is reported against
type failureStage struct {
	prefix    string
	rationale string
}

var (
	generationStage = failureStage{prefix: GenerationFailedPrefix, rationale: FailedRationale}
	evaluationStage = failureStage{prefix: EvaluationFailedPrefix, rationale: EvaluationFailedRationale}
)

// variantOutcome is the tagged result of one variant pipeline. err is set
// when the pipeline failed; result is always usable.
type variantOutcome struct {
	result      models.StoryResult
	parseFailed bool
	err         error
}

func (o *Orchestrator) runVariant(
	ctx context.Context,
	apiKey string,
	variant models.PromptVariant,
	story models.StoryConfig,
	onProgress ProgressFunc,
) (out variantOutcome) {
	logger := o.logger.With("variant", variant.ID)
	promptText := prompt.BuildGenerationPrompt(variant.ID, story)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Variant pipeline panicked", "panic", r)
			out = failedOutcome(variant, promptText, generationStage, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	onProgress(models.Progress{VariantID: variant.ID, Status: models.StatusGenerating})

	req := api.Request{
		Messages: []api.Message{
			api.SystemMessage(o.cfg.Generation.SystemPrompt),
			api.UserMessage(promptText),
		},
		Temperature: story.EffectiveTemperature(),
	}

	resp, err := api.Retry(ctx, o.policy, logger, func(ctx context.Context) (*api.ChatCompletionResponse, error) {
		return o.client.ChatCompletion(ctx, o.cfg.Generation, apiKey, req)
	})
	if err != nil {
		return failedOutcome(variant, promptText, generationStage, err)
	}

	storyText := util.StripThinkTags(resp.Text())
	if storyText == "" {
		logger.Warn("Generation returned no text")
		storyText = EmptyStoryText
	}

	onProgress(models.Progress{VariantID: variant.ID, Status: models.StatusEvaluating})

	verdict, err := o.evaluator.Evaluate(ctx, storyText)
	if err != nil {
		return failedOutcome(variant, promptText, evaluationStage, err)
	}

	return variantOutcome{
		result: models.StoryResult{
			VariantID:        variant.ID,
			VariantLabel:     variant.Label,
			PromptUsed:       promptText,
			StoryText:        storyText,
			RawModelResponse: resp.RawJSON(),
			Evaluation:       verdict.Metrics,
			JudgeRationale:   verdict.Rationale,
			JudgeRawResponse: verdict.Raw,
		},
		parseFailed: verdict.ParseFailed,
	}
}

// failedOutcome builds the degraded result recorded for a failed variant
func failedOutcome(variant models.PromptVariant, promptText string, stage failureStage, err error) variantOutcome {
	return variantOutcome{
		result: models.StoryResult{
			VariantID:        variant.ID,
			VariantLabel:     variant.Label,
			PromptUsed:       promptText,
			StoryText:        stage.prefix + err.Error(),
			RawModelResponse: errorJSON(err),
			JudgeRationale:   stage.rationale,
		},
		err: err,
	}
}

func errorJSON(err error) string {
	data, mErr := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	if mErr != nil {
		return ""
	}
	return string(data)
}
