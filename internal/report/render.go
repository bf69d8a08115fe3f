package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lamim/promptlab/internal/util"
	"github.com/lamim/promptlab/pkg/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

const (
	rationaleSnippet = 60
	barWidth         = 30
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

// RenderRunList renders the history list
func RenderRunList(runs []models.ExperimentRun) string {
	if len(runs) == 0 {
		return mutedStyle.Render("No experiments yet.")
	}

	t := newTable("ID", "Created", "Idea", "Variants", "Avg")
	for _, run := range runs {
		t.Row(
			run.ID,
			run.CreatedAt().Format(time.DateTime),
			util.TruncateString(run.Config.Idea, 40),
			fmt.Sprintf("%d", len(run.Results)),
			fmt.Sprintf("%.2f", RunAverage(run)),
		)
	}
	return titleStyle.Render("Experiment History") + "\n" + t.String()
}

// RenderLeaderboard renders a run's ranked results
func RenderLeaderboard(ranked []Ranked) string {
	t := newTable("Rank", "Variant", "Avg Score", "Best Metric", "Rationale")
	for _, r := range ranked {
		t.Row(
			fmt.Sprintf("#%d", r.Rank),
			fmt.Sprintf("%s: %s", r.Result.VariantID, variantLabel(r.Result)),
			fmt.Sprintf("%.2f", r.Result.Evaluation.Avg),
			fmt.Sprintf("%s (%g)", r.BestMetric.Label(), r.BestScore),
			util.TruncateString(r.Result.JudgeRationale, rationaleSnippet),
		)
	}
	return titleStyle.Render("Performance Leaderboard") + "\n" + t.String()
}

// RenderComparison renders the side-by-side delta table
func RenderComparison(c *Comparison) string {
	t := newTable("Metric", variantLabel(c.A), variantLabel(c.B), "Delta")
	for _, d := range c.Deltas {
		t.Row(d.Label, fmt.Sprintf("%.1f", d.A), fmt.Sprintf("%.1f", d.B), FormatDelta(d.Delta))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s vs %s", c.A.VariantID, c.B.VariantID)))
	sb.WriteString("\n")
	sb.WriteString(t.String())
	sb.WriteString("\n\n")
	sb.WriteString(sectionStyle.Render(fmt.Sprintf("%s: %s", c.A.VariantID, variantLabel(c.A))))
	sb.WriteString("\n")
	sb.WriteString(c.A.StoryText)
	sb.WriteString("\n\n")
	sb.WriteString(sectionStyle.Render(fmt.Sprintf("%s: %s", c.B.VariantID, variantLabel(c.B))))
	sb.WriteString("\n")
	sb.WriteString(c.B.StoryText)
	sb.WriteString("\n")
	return sb.String()
}

// FormatDelta renders a delta with an explicit sign and color
func FormatDelta(d float64) string {
	switch {
	case d > 0:
		return upStyle.Render(fmt.Sprintf("+%.1f", d))
	case d < 0:
		return downStyle.Render(fmt.Sprintf("%.1f", d))
	default:
		return mutedStyle.Render(fmt.Sprintf("%.1f", d))
	}
}

// RenderVariant renders one result. debug adds the prompt and raw responses.
func RenderVariant(r models.StoryResult, debug bool) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s Output", r.VariantID, variantLabel(r))))
	sb.WriteString("\n\n")
	sb.WriteString(r.StoryText)
	sb.WriteString("\n\n")

	t := newTable("Metric", "Score")
	for _, p := range Radar(r) {
		t.Row(p.Label, fmt.Sprintf("%g", p.Score))
	}
	t.Row(models.MetricAvg.Label(), fmt.Sprintf("%.2f", r.Evaluation.Avg))
	sb.WriteString(t.String())
	sb.WriteString("\n\n")

	sb.WriteString(sectionStyle.Render("Critic Feedback"))
	sb.WriteString("\n")
	sb.WriteString(r.JudgeRationale)
	sb.WriteString("\n")

	if debug {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Experimental Prompt"))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(r.PromptUsed))
		sb.WriteString("\n\n")
		sb.WriteString(sectionStyle.Render("Raw Model Response"))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(r.RawModelResponse))
		sb.WriteString("\n\n")
		sb.WriteString(sectionStyle.Render("Raw Judge Response"))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(r.JudgeRawResponse))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderAverageBars draws the overall-average chart as horizontal bars on a
// 0-10 scale
func RenderAverageBars(points []SeriesPoint) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Overall Performance (Avg)"))
	sb.WriteString("\n")
	for _, p := range points {
		filled := int(p.Avg / 10 * barWidth)
		filled = max(0, min(barWidth, filled))
		sb.WriteString(fmt.Sprintf("%-3s %s%s %.2f\n",
			p.VariantID,
			barStyle.Render(strings.Repeat("█", filled)),
			strings.Repeat(" ", barWidth-filled),
			p.Avg))
	}
	return sb.String()
}

// RenderVariants renders the prompt catalog
func RenderVariants(variants []models.PromptVariant) string {
	t := newTable("ID", "Label", "Description")
	for _, v := range variants {
		t.Row(string(v.ID), v.Label, v.Description)
	}
	return titleStyle.Render("Prompt Variants") + "\n" + t.String()
}

// RenderRunHeader summarizes the brief a run was executed with
func RenderRunHeader(run models.ExperimentRun) string {
	c := run.Config
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Run " + run.ID))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(run.CreatedAt().Format(time.DateTime)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Idea:        %s\n", c.Idea)
	fmt.Fprintf(&sb, "Genre:       %s\n", c.Genre)
	fmt.Fprintf(&sb, "Style:       %s\n", c.Style)
	fmt.Fprintf(&sb, "POV / Tone:  %s / %s\n", c.POV, c.Tone)
	fmt.Fprintf(&sb, "Length:      %d words\n", c.Length)
	if len(c.Includes) > 0 {
		fmt.Fprintf(&sb, "Include:     %s\n", strings.Join(c.Includes, ", "))
	}
	if len(c.Avoids) > 0 {
		fmt.Fprintf(&sb, "Avoid:       %s\n", strings.Join(c.Avoids, ", "))
	}
	temp := fmt.Sprintf("%.1f", c.Temperature)
	if c.IsDeterministic {
		temp += " (deterministic, sent as 0)"
	}
	fmt.Fprintf(&sb, "Temperature: %s\n", temp)
	fmt.Fprintf(&sb, "Average:     %.2f\n", RunAverage(run))
	return sb.String()
}
