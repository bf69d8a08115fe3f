package models

import "time"

// VariantID identifies one of the fixed prompting strategies
type VariantID string

const (
	VariantZeroShot          VariantID = "V0"
	VariantOneShot           VariantID = "V1"
	VariantFewShot           VariantID = "V2"
	VariantPersona           VariantID = "V3"
	VariantStructuredOutline VariantID = "V4"
	VariantDecomposition     VariantID = "V5"
	VariantVisualGrounded    VariantID = "V6"
	VariantMultiAgent        VariantID = "V7"
)

// PromptVariant is a static catalog entry describing a prompting strategy
type PromptVariant struct {
	ID          VariantID `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description" yaml:"description"`
}

// StoryConfig is the experiment brief shared by every variant of a run
type StoryConfig struct {
	Idea            string   `json:"idea" yaml:"idea" toml:"idea"`
	Genre           string   `json:"genre" yaml:"genre" toml:"genre"`
	Style           string   `json:"style" yaml:"style" toml:"style"`
	POV             string   `json:"pov" yaml:"pov" toml:"pov"`
	Tone            string   `json:"tone" yaml:"tone" toml:"tone"`
	Length          int      `json:"length" yaml:"length" toml:"length"`
	Includes        []string `json:"includes" yaml:"includes" toml:"includes"`
	Avoids          []string `json:"avoids" yaml:"avoids" toml:"avoids"`
	Temperature     float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	IsDeterministic bool     `json:"isDeterministic" yaml:"isDeterministic" toml:"is_deterministic"`
}

// EffectiveTemperature returns the sampling temperature used for generation.
// Deterministic mode forces 0 without touching the stored value.
func (c StoryConfig) EffectiveTemperature() float64 {
	if c.IsDeterministic {
		return 0
	}
	return c.Temperature
}

// Clone returns a deep copy of the config
func (c StoryConfig) Clone() StoryConfig {
	out := c
	if c.Includes != nil {
		out.Includes = append([]string{}, c.Includes...)
	}
	if c.Avoids != nil {
		out.Avoids = append([]string{}, c.Avoids...)
	}
	return out
}

// EvaluationMetrics holds the judge scores for one story.
// Avg is supplied by the judge unless local recomputation is configured.
type EvaluationMetrics struct {
	Coherence            float64 `json:"coherence" yaml:"coherence"`
	Creativity           float64 `json:"creativity" yaml:"creativity"`
	CharacterConsistency float64 `json:"characterConsistency" yaml:"characterConsistency"`
	StyleMatch           float64 `json:"styleMatch" yaml:"styleMatch"`
	EndingStrength       float64 `json:"endingStrength" yaml:"endingStrength"`
	Avg                  float64 `json:"avg" yaml:"avg"`
}

// SubMetricMean returns the mean of the five scored metrics
func (m EvaluationMetrics) SubMetricMean() float64 {
	sum := 0.0
	for _, metric := range ScoredMetrics {
		sum += metric.Value(m)
	}
	return sum / float64(len(ScoredMetrics))
}

// StoryResult is the outcome of one variant within a run
type StoryResult struct {
	VariantID        VariantID         `json:"variantId" yaml:"variantId"`
	VariantLabel     string            `json:"variantLabel" yaml:"variantLabel"`
	PromptUsed       string            `json:"promptUsed" yaml:"promptUsed"`
	StoryText        string            `json:"storyText" yaml:"storyText"`
	RawModelResponse string            `json:"rawModelResponse" yaml:"rawModelResponse"`
	Evaluation       EvaluationMetrics `json:"evaluation" yaml:"evaluation"`
	JudgeRationale   string            `json:"judgeRationale" yaml:"judgeRationale"`
	JudgeRawResponse string            `json:"judgeRawResponse" yaml:"judgeRawResponse"`
}

// ExperimentRun is one complete execution of every variant against one config
type ExperimentRun struct {
	ID        string        `json:"id" yaml:"id"`
	Timestamp int64         `json:"timestamp" yaml:"timestamp"` // epoch milliseconds
	Config    StoryConfig   `json:"config" yaml:"config"`
	Results   []StoryResult `json:"results" yaml:"results"`
}

// CreatedAt returns the run timestamp as a time.Time
func (r ExperimentRun) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Result returns the result for a variant, if present
func (r ExperimentRun) Result(id VariantID) (StoryResult, bool) {
	for _, res := range r.Results {
		if res.VariantID == id {
			return res, true
		}
	}
	return StoryResult{}, false
}

// CurrentSchemaVersion is the version written by the run repository
const CurrentSchemaVersion = 1

// RunCollection is the persisted envelope holding every stored run, newest first
type RunCollection struct {
	SchemaVersion int             `json:"schema_version"`
	Runs          []ExperimentRun `json:"runs"`
}

// RunStats tracks counters for a single experiment run
type RunStats struct {
	StartTime          time.Time
	EndTime            time.Time
	VariantsAttempted  int
	SuccessCount       int
	FailureCount       int
	JudgeParseFailures int
	TotalDuration      time.Duration
}
