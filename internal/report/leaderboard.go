// Package report ranks, compares and renders the results of experiment runs.
package report

import (
	"sort"

	"github.com/lamim/promptlab/pkg/models"
)

// Ranked is one leaderboard row
type Ranked struct {
	Rank       int                `json:"rank"`
	Result     models.StoryResult `json:"result"`
	BestMetric models.Metric      `json:"bestMetric"`
	BestScore  float64            `json:"bestScore"`
}

// Leaderboard orders results by avg, highest first. Ties keep run order.
func Leaderboard(results []models.StoryResult) []Ranked {
	sorted := make([]models.StoryResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Evaluation.Avg > sorted[j].Evaluation.Avg
	})

	out := make([]Ranked, len(sorted))
	for i, r := range sorted {
		metric, score := BestMetric(r.Evaluation)
		out[i] = Ranked{
			Rank:       i + 1,
			Result:     r,
			BestMetric: metric,
			BestScore:  score,
		}
	}
	return out
}

// BestMetric returns the highest scored sub-metric. The first one wins ties.
func BestMetric(m models.EvaluationMetrics) (models.Metric, float64) {
	best := models.ScoredMetrics[0]
	bestScore := best.Value(m)
	for _, metric := range models.ScoredMetrics[1:] {
		if v := metric.Value(m); v > bestScore {
			best, bestScore = metric, v
		}
	}
	return best, bestScore
}

// RunAverage is the mean of the results' avg scores, 0 for an empty run
func RunAverage(run models.ExperimentRun) float64 {
	if len(run.Results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range run.Results {
		sum += r.Evaluation.Avg
	}
	return sum / float64(len(run.Results))
}
