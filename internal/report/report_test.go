package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lamim/promptlab/pkg/models"
	"gopkg.in/yaml.v3"
)

func result(id models.VariantID, label string, m models.EvaluationMetrics) models.StoryResult {
	return models.StoryResult{
		VariantID:      id,
		VariantLabel:   label,
		StoryText:      "Story of " + label,
		Evaluation:     m,
		JudgeRationale: "Rationale for " + label,
	}
}

func testRun() models.ExperimentRun {
	return models.ExperimentRun{
		ID:        "run-1",
		Timestamp: 1700000000000,
		Config:    models.StoryConfig{Idea: "An idea", Length: 900},
		Results: []models.StoryResult{
			result("V0", "Zero-Shot", models.EvaluationMetrics{Coherence: 6, Creativity: 5, CharacterConsistency: 6, StyleMatch: 4, EndingStrength: 5, Avg: 5.2}),
			result("V1", "One-Shot", models.EvaluationMetrics{Coherence: 7, Creativity: 8, CharacterConsistency: 8, StyleMatch: 7, EndingStrength: 6, Avg: 7.2}),
			result("V2", "Few-Shot", models.EvaluationMetrics{Avg: 5.2}),
			result("V3", "Persona", models.EvaluationMetrics{Coherence: 9, Creativity: 9, CharacterConsistency: 8, StyleMatch: 9, EndingStrength: 8, Avg: 8.6}),
		},
	}
}

func TestLeaderboard(t *testing.T) {
	ranked := Leaderboard(testRun().Results)

	wantOrder := []models.VariantID{"V3", "V1", "V0", "V2"}
	if len(ranked) != len(wantOrder) {
		t.Fatalf("Expected %d rows, got %d", len(wantOrder), len(ranked))
	}
	for i, id := range wantOrder {
		if ranked[i].Result.VariantID != id {
			t.Errorf("rank %d = %s, want %s", i+1, ranked[i].Result.VariantID, id)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", ranked[i].Rank, i+1)
		}
	}

	// V3: coherence and creativity tie at 9, first one wins
	if ranked[0].BestMetric != models.MetricCoherence || ranked[0].BestScore != 9 {
		t.Errorf("Unexpected best metric %s (%v)", ranked[0].BestMetric, ranked[0].BestScore)
	}
	// V1: creativity and consistency tie at 8
	if ranked[1].BestMetric != models.MetricCreativity {
		t.Errorf("Expected creativity, got %s", ranked[1].BestMetric)
	}
	// All-zero result keeps the first metric
	if ranked[3].BestMetric != models.MetricCoherence || ranked[3].BestScore != 0 {
		t.Errorf("Unexpected best metric for zero row: %s", ranked[3].BestMetric)
	}
}

func TestLeaderboard_DoesNotMutateInput(t *testing.T) {
	run := testRun()
	_ = Leaderboard(run.Results)
	if run.Results[0].VariantID != "V0" {
		t.Error("Leaderboard must not reorder its input")
	}
}

func TestRunAverage(t *testing.T) {
	if got := RunAverage(testRun()); math.Abs(got-6.55) > 1e-9 {
		t.Errorf("RunAverage() = %v", got)
	}
	if got := RunAverage(models.ExperimentRun{}); got != 0 {
		t.Errorf("RunAverage(empty) = %v", got)
	}
}

func TestCompare(t *testing.T) {
	c, err := Compare(testRun(), DefaultCompareA, DefaultCompareB)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if c.A.VariantID != "V0" || c.B.VariantID != "V3" {
		t.Errorf("Unexpected pair %s/%s", c.A.VariantID, c.B.VariantID)
	}
	if len(c.Deltas) != 6 {
		t.Fatalf("Expected 6 deltas, got %d", len(c.Deltas))
	}
	if c.Deltas[0].Metric != models.MetricCoherence || c.Deltas[0].Delta != 3 {
		t.Errorf("Unexpected coherence delta %+v", c.Deltas[0])
	}
	last := c.Deltas[5]
	if last.Metric != models.MetricAvg || last.A != 5.2 || last.B != 8.6 {
		t.Errorf("Unexpected avg delta %+v", last)
	}
}

func TestCompare_SameVariant(t *testing.T) {
	c, err := Compare(testRun(), "V1", "V1")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, d := range c.Deltas {
		if d.Delta != 0 {
			t.Errorf("Expected zero delta for %s", d.Metric)
		}
	}
}

func TestCompare_UnknownVariant(t *testing.T) {
	if _, err := Compare(testRun(), "V0", "V7"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestCharts(t *testing.T) {
	data := Charts(testRun())
	if len(data.Metrics) != 4 || len(data.Averages) != 4 {
		t.Fatalf("Unexpected chart sizes %d/%d", len(data.Metrics), len(data.Averages))
	}
	row := data.Metrics[1]
	if row.VariantID != "V1" || len(row.Scores) != 5 || row.Scores[models.MetricCreativity] != 8 {
		t.Errorf("Unexpected row %+v", row)
	}
	if _, ok := row.Scores[models.MetricAvg]; ok {
		t.Error("Metric rows must not include avg")
	}
	if data.Averages[3].Avg != 8.6 || data.Averages[3].Label != "Persona" {
		t.Errorf("Unexpected series point %+v", data.Averages[3])
	}

	radar := Radar(testRun().Results[3])
	if len(radar) != 5 || radar[0].Label != "Coherence" {
		t.Errorf("Unexpected radar %+v", radar)
	}
}

func TestMissingLabelFallsBackToCatalog(t *testing.T) {
	results := []models.StoryResult{
		result("V4", "", models.EvaluationMetrics{Avg: 6}),
		result("V9", "", models.EvaluationMetrics{Avg: 5}),
	}
	series := AverageSeries(results)
	if series[0].Label != "Structured Outline" {
		t.Errorf("Expected catalog label, got %q", series[0].Label)
	}
	if series[1].Label != "V9" {
		t.Errorf("Expected unknown ID as label, got %q", series[1].Label)
	}

	out := RenderLeaderboard(Leaderboard(results))
	if !strings.Contains(out, "V4: Structured Outline") {
		t.Errorf("Leaderboard missing catalog label:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	run := testRun()

	board := RenderLeaderboard(Leaderboard(run.Results))
	for _, want := range []string{"#1", "V3: Persona", "8.60", "Coherence (9)"} {
		if !strings.Contains(board, want) {
			t.Errorf("leaderboard missing %q:\n%s", want, board)
		}
	}

	list := RenderRunList([]models.ExperimentRun{run})
	if !strings.Contains(list, "run-1") || !strings.Contains(list, "6.55") {
		t.Errorf("run list missing fields:\n%s", list)
	}
	if !strings.Contains(RenderRunList(nil), "No experiments") {
		t.Error("Expected empty-state message")
	}

	c, _ := Compare(run, "V0", "V3")
	cmp := RenderComparison(c)
	if !strings.Contains(cmp, "+3.0") || !strings.Contains(cmp, "Story of Persona") {
		t.Errorf("comparison missing fields:\n%s", cmp)
	}

	detail := RenderVariant(run.Results[0], false)
	if strings.Contains(detail, "Experimental Prompt") {
		t.Error("Non-debug view must not include the prompt")
	}
	if !strings.Contains(RenderVariant(run.Results[0], true), "Experimental Prompt") {
		t.Error("Debug view must include the prompt")
	}

	header := RenderRunHeader(run)
	if !strings.Contains(header, "run-1") || !strings.Contains(header, "900 words") || !strings.Contains(header, "6.55") {
		t.Errorf("header missing fields:\n%s", header)
	}

	catalog := RenderVariants([]models.PromptVariant{{ID: "V5", Label: "Decomposition", Description: "Scene by scene"}})
	if !strings.Contains(catalog, "Decomposition") || !strings.Contains(catalog, "Scene by scene") {
		t.Errorf("catalog missing fields:\n%s", catalog)
	}

	bars := RenderAverageBars(AverageSeries(run.Results))
	if !strings.Contains(bars, "V3") || !strings.Contains(bars, "8.60") {
		t.Errorf("bars missing fields:\n%s", bars)
	}
}

func TestFormatDelta(t *testing.T) {
	if !strings.Contains(FormatDelta(1.5), "+1.5") {
		t.Errorf("FormatDelta(1.5) = %q", FormatDelta(1.5))
	}
	if !strings.Contains(FormatDelta(-2), "-2.0") {
		t.Errorf("FormatDelta(-2) = %q", FormatDelta(-2))
	}
	if !strings.Contains(FormatDelta(0), "0.0") {
		t.Errorf("FormatDelta(0) = %q", FormatDelta(0))
	}
}

func TestExport(t *testing.T) {
	run := testRun()

	var buf bytes.Buffer
	if err := Export(&buf, run, FormatJSON); err != nil {
		t.Fatalf("Export json failed: %v", err)
	}
	var decoded models.ExperimentRun
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}
	if decoded.ID != run.ID || len(decoded.Results) != 4 {
		t.Errorf("Unexpected JSON export %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  \"id\"") {
		t.Error("Expected indented JSON")
	}

	buf.Reset()
	if err := Export(&buf, run, FormatYAML); err != nil {
		t.Fatalf("Export yaml failed: %v", err)
	}
	var fromYAML models.ExperimentRun
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("exported YAML invalid: %v", err)
	}
	if fromYAML.Results[3].Evaluation.Avg != 8.6 || !strings.Contains(buf.String(), "variantId: V3") {
		t.Errorf("Unexpected YAML export:\n%s", buf.String())
	}

	if err := Export(&buf, run, "xml"); err == nil {
		t.Error("Expected error for xml")
	}
}
