package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/config"
	"github.com/lamim/promptlab/internal/metrics"
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/internal/util"
	"github.com/lamim/promptlab/pkg/models"
)

const (
	// NoRationale is used when the judge omits its rationale
	NoRationale = "No rationale provided."
	// ParseErrorRationale is used when the judge response is not usable JSON
	ParseErrorRationale = "Error parsing judge response."

	minScore = 0
	maxScore = 10
)

// Completer is the subset of the API client used by the judge
type Completer interface {
	ChatCompletion(ctx context.Context, model config.ModelConfig, apiKey string, req api.Request) (*api.ChatCompletionResponse, error)
}

// Verdict is the parsed outcome of one judge call
type Verdict struct {
	Metrics     models.EvaluationMetrics
	Rationale   string
	Raw         string // Full judge response body, indented
	ParseFailed bool
}

// Judge handles LLM-as-a-Judge evaluations
type Judge struct {
	cfg     config.JudgeConfig
	apiKey  string
	client  Completer
	policy  api.RetryPolicy
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates a new judge. collector may be nil.
func New(cfg *config.Config, apiKey string, client Completer, logger *slog.Logger, collector *metrics.Collector) *Judge {
	j := &Judge{
		cfg:     cfg.Judge,
		apiKey:  apiKey,
		client:  client,
		logger:  logger.With("component", "judge"),
		metrics: collector,
	}
	j.policy = api.ConfiguredRetryPolicy("judge", cfg.Retry, func(int) { collector.IncrementRetry("judge") })
	return j
}

// Evaluate scores a story. Transport errors are returned after retries are
// exhausted; an unusable response is never an error and yields a zeroed
// verdict with ParseFailed set.
func (j *Judge) Evaluate(ctx context.Context, story string) (*Verdict, error) {
	req := api.Request{
		Messages: []api.Message{
			api.SystemMessage(j.cfg.SystemPrompt),
			api.UserMessage(prompt.BuildJudgePrompt(story)),
		},
		Temperature:    0,
		ResponseFormat: api.JSONObjectFormat,
	}

	resp, err := api.Retry(ctx, j.policy, j.logger, func(ctx context.Context) (*api.ChatCompletionResponse, error) {
		return j.client.ChatCompletion(ctx, j.cfg.ModelConfig, j.apiKey, req)
	})
	if err != nil {
		return nil, err
	}

	content := resp.Text()
	j.logger.Debug("Received judge response", "length", len(content), "first_200_chars", util.TruncateString(content, 200))

	verdict := ParseVerdict(content)
	if verdict.ParseFailed {
		j.metrics.IncrementJudgeParseFailure()
		j.logger.Warn("Failed to parse judge response",
			"response_length", len(content),
			"response", util.TruncateString(content, 500))
	}
	if j.cfg.RecomputeAverage {
		verdict.Metrics.Avg = verdict.Metrics.SubMetricMean()
	}
	verdict.Raw = resp.RawJSON()
	j.logger.Debug("Scored story", "verdict", verdict.String())

	return &verdict, nil
}

// ParseVerdict reads the judge's JSON object. Empty content counts as an
// empty object; an object cut off before its closing brace is a parse
// failure. Missing metrics are 0 and scores are clamped to [0,10].
func ParseVerdict(content string) Verdict {
	content = strings.TrimSpace(content)
	if content == "" {
		content = "{}"
	}

	extracted, ok := util.ExtractJSON(content)
	if !ok {
		return Verdict{Rationale: ParseErrorRationale, ParseFailed: true}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(util.SanitizeJSON(extracted)), &raw); err != nil || raw == nil {
		return Verdict{Rationale: ParseErrorRationale, ParseFailed: true}
	}

	var m models.EvaluationMetrics
	m.Coherence = score(raw, string(models.MetricCoherence))
	m.Creativity = score(raw, string(models.MetricCreativity))
	m.CharacterConsistency = score(raw, string(models.MetricCharacterConsistency))
	m.StyleMatch = score(raw, string(models.MetricStyleMatch))
	m.EndingStrength = score(raw, string(models.MetricEndingStrength))
	m.Avg = score(raw, string(models.MetricAvg))

	rationale := stringField(raw, "judgeRationale")
	if rationale == "" {
		rationale = stringField(raw, "rationale")
	}
	if rationale == "" {
		rationale = NoRationale
	}

	return Verdict{Metrics: m, Rationale: rationale}
}

func score(raw map[string]interface{}, key string) float64 {
	var v float64
	switch val := raw[key].(type) {
	case float64:
		v = val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		v = f
	default:
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(minScore, math.Min(maxScore, v))
}

func stringField(raw map[string]interface{}, key string) string {
	s, ok := raw[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// String renders a compact summary for logs
func (v Verdict) String() string {
	return fmt.Sprintf("avg=%.1f parse_failed=%v", v.Metrics.Avg, v.ParseFailed)
}
