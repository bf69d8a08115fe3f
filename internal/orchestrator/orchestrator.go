package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/config"
	"github.com/lamim/promptlab/internal/judge"
	"github.com/lamim/promptlab/internal/metrics"
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/pkg/models"
)

// ErrInvalidStory wraps validation failures of the story brief
var ErrInvalidStory = errors.New("invalid story config")

// Completer is the chat-completions call used for story generation
type Completer interface {
	ChatCompletion(ctx context.Context, model config.ModelConfig, apiKey string, req api.Request) (*api.ChatCompletionResponse, error)
}

// Evaluator scores a generated story
type Evaluator interface {
	Evaluate(ctx context.Context, story string) (*judge.Verdict, error)
}

// RunStore persists completed runs
type RunStore interface {
	Insert(run models.ExperimentRun) error
}

// ProgressFunc receives per-variant status updates. It is called from the
// goroutine running the experiment.
type ProgressFunc func(models.Progress)

// Orchestrator runs every prompt variant against one story brief
type Orchestrator struct {
	cfg       *config.Config
	secrets   *config.Secrets
	client    Completer
	evaluator Evaluator
	store     RunStore
	logger    *slog.Logger
	metrics   *metrics.Collector
	policy    api.RetryPolicy

	mu    sync.Mutex
	stats models.RunStats
}

// New creates a new orchestrator. The judge shares client with generation.
// store and collector may be nil.
func New(
	cfg *config.Config,
	secrets *config.Secrets,
	client Completer,
	store RunStore,
	logger *slog.Logger,
	collector *metrics.Collector,
) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		secrets: secrets,
		client:  client,
		store:   store,
		logger:  logger,
		metrics: collector,
	}
	o.evaluator = judge.New(cfg, secrets.GetAPIKey(cfg.Judge.BaseURL), client, logger, collector)
	o.policy = api.ConfiguredRetryPolicy("generation", cfg.Retry, func(int) { collector.IncrementRetry("generation") })
	return o
}

// WithEvaluator replaces the judge
func (o *Orchestrator) WithEvaluator(e Evaluator) *Orchestrator {
	o.evaluator = e
	return o
}

// RunExperiment runs all variants in catalog order and returns one result per
// variant. A variant that fails is recorded as a degraded result and the loop
// moves on. An error is returned only when a precondition fails, before any
// variant starts. Cancelling ctx does not stop a run once it has begun.
func (o *Orchestrator) RunExperiment(ctx context.Context, story models.StoryConfig, onProgress ProgressFunc) ([]models.StoryResult, error) {
	genKey, err := o.secrets.RequireAPIKey(o.cfg.Generation.BaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := o.secrets.RequireAPIKey(o.cfg.Judge.BaseURL); err != nil {
		return nil, err
	}
	if err := config.ValidateStory(story); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}
	if err := config.ValidateStoryInputs(story); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}

	if onProgress == nil {
		onProgress = func(models.Progress) {}
	}
	ctx = context.WithoutCancel(ctx)

	variants := prompt.Catalog()
	stats := models.RunStats{StartTime: time.Now()}

	o.logger.Info("Starting experiment",
		"variants", len(variants),
		"generation_model", o.cfg.Generation.ModelName,
		"judge_model", o.cfg.Judge.ModelName,
		"temperature", story.EffectiveTemperature(),
		"deterministic", story.IsDeterministic)

	results := make([]models.StoryResult, 0, len(variants))
	for _, variant := range variants {
		stats.VariantsAttempted++
		start := time.Now()

		out := o.runVariant(ctx, genKey, variant, story, onProgress)
		results = append(results, out.result)

		if out.err != nil {
			stats.FailureCount++
			o.logger.Error("Variant failed",
				"variant", variant.ID,
				"duration", time.Since(start),
				"error", out.err)
			onProgress(models.Progress{VariantID: variant.ID, Status: models.StatusError, Message: out.err.Error()})
		} else {
			stats.SuccessCount++
			if out.parseFailed {
				stats.JudgeParseFailures++
			}
			o.logger.Info("Variant completed",
				"variant", variant.ID,
				"avg", out.result.Evaluation.Avg,
				"duration", time.Since(start))
			onProgress(models.Progress{VariantID: variant.ID, Status: models.StatusCompleted})
		}
		o.metrics.RecordVariant(string(variant.ID), out.err == nil)
	}

	stats.EndTime = time.Now()
	stats.TotalDuration = stats.EndTime.Sub(stats.StartTime)
	o.metrics.RecordRun(stats.TotalDuration)

	o.mu.Lock()
	o.stats = stats
	o.mu.Unlock()

	o.logger.Info("Experiment finished",
		"succeeded", stats.SuccessCount,
		"failed", stats.FailureCount,
		"judge_parse_failures", stats.JudgeParseFailures,
		"duration", stats.TotalDuration)

	return results, nil
}

// Run freezes the brief, runs the experiment and stores the resulting run at
// the front of the history. When saving fails the run is still returned
// together with the error.
func (o *Orchestrator) Run(ctx context.Context, story models.StoryConfig, onProgress ProgressFunc) (*models.ExperimentRun, error) {
	frozen := story.Clone()

	results, err := o.RunExperiment(ctx, frozen, onProgress)
	if err != nil {
		return nil, err
	}

	run := &models.ExperimentRun{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Config:    frozen,
		Results:   results,
	}

	if o.store != nil {
		if err := o.store.Insert(*run); err != nil {
			return run, fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
		o.logger.Info("Saved run", "run_id", run.ID)
	}

	return run, nil
}

// Stats returns the counters of the most recent run
func (o *Orchestrator) Stats() models.RunStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// IsMissingKey reports whether err comes from a missing API credential
func IsMissingKey(err error) bool {
	return errors.Is(err, config.ErrMissingAPIKey)
}
