package report

import (
	"errors"
	"fmt"

	"github.com/lamim/promptlab/pkg/models"
)

// Default side-by-side selection
const (
	DefaultCompareA = models.VariantZeroShot
	DefaultCompareB = models.VariantPersona
)

// ErrUnknownVariant is returned when a run has no result for a variant
var ErrUnknownVariant = errors.New("unknown variant")

// Delta is the difference B - A for one metric
type Delta struct {
	Metric models.Metric `json:"metric"`
	Label  string        `json:"label"`
	A      float64       `json:"a"`
	B      float64       `json:"b"`
	Delta  float64       `json:"delta"`
}

// Comparison is a side-by-side view of two variants of one run
type Comparison struct {
	A      models.StoryResult `json:"a"`
	B      models.StoryResult `json:"b"`
	Deltas []Delta            `json:"deltas"`
}

// Compare diffs variant b against variant a across all six metrics
func Compare(run models.ExperimentRun, a, b models.VariantID) (*Comparison, error) {
	left, ok := run.Result(a)
	if !ok {
		return nil, fmt.Errorf("%w %q in run %s", ErrUnknownVariant, a, run.ID)
	}
	right, ok := run.Result(b)
	if !ok {
		return nil, fmt.Errorf("%w %q in run %s", ErrUnknownVariant, b, run.ID)
	}

	deltas := make([]Delta, 0, len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		va, vb := m.Value(left.Evaluation), m.Value(right.Evaluation)
		deltas = append(deltas, Delta{
			Metric: m,
			Label:  m.Label(),
			A:      va,
			B:      vb,
			Delta:  vb - va,
		})
	}

	return &Comparison{A: left, B: right, Deltas: deltas}, nil
}
