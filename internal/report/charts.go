package report

import (
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/pkg/models"
)

// MetricRow holds the five sub-metrics of one variant (grouped bar chart)
type MetricRow struct {
	VariantID models.VariantID          `json:"name"`
	Scores    map[models.Metric]float64 `json:"scores"`
}

// SeriesPoint is one bar of the overall-average chart
type SeriesPoint struct {
	VariantID models.VariantID `json:"name"`
	Label     string           `json:"label"`
	Avg       float64          `json:"avg"`
}

// RadarPoint is one axis of a single-variant radar chart
type RadarPoint struct {
	Metric models.Metric `json:"metric"`
	Label  string        `json:"label"`
	Score  float64       `json:"score"`
}

// ChartData bundles everything the charts view needs for a run
type ChartData struct {
	Metrics  []MetricRow   `json:"metrics"`
	Averages []SeriesPoint `json:"averages"`
}

// MetricMatrix returns per-variant rows of the scored metrics, in run order
func MetricMatrix(results []models.StoryResult) []MetricRow {
	rows := make([]MetricRow, 0, len(results))
	for _, r := range results {
		scores := make(map[models.Metric]float64, len(models.ScoredMetrics))
		for _, m := range models.ScoredMetrics {
			scores[m] = m.Value(r.Evaluation)
		}
		rows = append(rows, MetricRow{VariantID: r.VariantID, Scores: scores})
	}
	return rows
}

// AverageSeries returns each variant's avg, in run order
func AverageSeries(results []models.StoryResult) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(results))
	for _, r := range results {
		points = append(points, SeriesPoint{VariantID: r.VariantID, Label: variantLabel(r), Avg: r.Evaluation.Avg})
	}
	return points
}

// Radar returns the five sub-metrics of one result
func Radar(r models.StoryResult) []RadarPoint {
	points := make([]RadarPoint, 0, len(models.ScoredMetrics))
	for _, m := range models.ScoredMetrics {
		points = append(points, RadarPoint{Metric: m, Label: m.Label(), Score: m.Value(r.Evaluation)})
	}
	return points
}

// Charts builds the chart data for a run
func Charts(run models.ExperimentRun) ChartData {
	return ChartData{
		Metrics:  MetricMatrix(run.Results),
		Averages: AverageSeries(run.Results),
	}
}

// variantLabel falls back to the catalog label for results stored without one
func variantLabel(r models.StoryResult) string {
	if r.VariantLabel != "" {
		return r.VariantLabel
	}
	return prompt.Label(r.VariantID)
}
