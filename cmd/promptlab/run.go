package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/metrics"
	"github.com/lamim/promptlab/internal/orchestrator"
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/internal/report"
	"github.com/lamim/promptlab/pkg/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type storyFlags struct {
	idea          string
	genre         string
	style         string
	pov           string
	tone          string
	length        int
	includes      []string
	avoids        []string
	temperature   float64
	deterministic bool
}

func (f *storyFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.idea, "idea", "", "Story idea")
	fs.StringVar(&f.genre, "genre", "", "Genre")
	fs.StringVar(&f.style, "style", "", "Writing style")
	fs.StringVar(&f.pov, "pov", "", "Point of view")
	fs.StringVar(&f.tone, "tone", "", "Tone")
	fs.IntVar(&f.length, "length", 0, "Target length in words")
	fs.StringSliceVar(&f.includes, "include", nil, "Element the story must include (repeatable)")
	fs.StringSliceVar(&f.avoids, "avoid", nil, "Element the story must avoid (repeatable)")
	fs.Float64Var(&f.temperature, "temperature", 0, "Generation temperature")
	fs.BoolVar(&f.deterministic, "deterministic", false, "Send temperature 0 to the generation model")
}

// apply overrides base with every flag set on the command line
func (f *storyFlags) apply(fs *pflag.FlagSet, base models.StoryConfig) models.StoryConfig {
	s := base.Clone()
	if fs.Changed("idea") {
		s.Idea = f.idea
	}
	if fs.Changed("genre") {
		s.Genre = f.genre
	}
	if fs.Changed("style") {
		s.Style = f.style
	}
	if fs.Changed("pov") {
		s.POV = f.pov
	}
	if fs.Changed("tone") {
		s.Tone = f.tone
	}
	if fs.Changed("length") {
		s.Length = f.length
	}
	if fs.Changed("include") {
		s.Includes = f.includes
	}
	if fs.Changed("avoid") {
		s.Avoids = f.avoids
	}
	if fs.Changed("temperature") {
		s.Temperature = f.temperature
	}
	if fs.Changed("deterministic") {
		s.IsDeterministic = f.deterministic
	}
	return s
}

func newRunCmd() *cobra.Command {
	var flags storyFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every prompt variant against one story brief",
		Long: `Run the experiment:
1. Build the prompt for each of the eight variants
2. Generate a story per variant
3. Score each story with the judge model
4. Save the run and print the leaderboard

Flags override the [story] section of the configuration.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return runExperiment(cmd, a, flags.apply(cmd.Flags(), a.cfg.Story))
		}),
	}
	flags.register(cmd.Flags())
	return cmd
}

// missingKeyHelp is printed when no credential is configured
const missingKeyHelp = "No API key found. Set OPENAI_API_KEY (or API_KEY) in your environment or .env file."

func runExperiment(cmd *cobra.Command, a *app, story models.StoryConfig) error {
	for _, baseURL := range []string{a.cfg.Generation.BaseURL, a.cfg.Judge.BaseURL} {
		if _, err := a.secrets.RequireAPIKey(baseURL); err != nil {
			fmt.Fprintln(os.Stderr, missingKeyHelp)
			return err
		}
	}

	collector := metrics.NewCollector()
	client := api.NewClient(a.logger, collector)
	orch := orchestrator.New(a.cfg, a.secrets, client, a.repo, a.logger, collector)

	bar := progressbar.Default(int64(len(prompt.Catalog())), "Starting")
	onProgress := func(p models.Progress) {
		switch p.Status {
		case models.StatusGenerating, models.StatusEvaluating:
			bar.Describe(fmt.Sprintf("%s %s", p.VariantID, p.Status))
		default:
			_ = bar.Add(1)
		}
	}

	run, err := orch.Run(context.Background(), story, onProgress)
	if run == nil {
		_ = bar.Clear()
		return err
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.RenderLeaderboard(report.Leaderboard(run.Results)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.RenderAverageBars(report.AverageSeries(run.Results)))

	stats := orch.Stats()
	fmt.Fprintf(out, "Run %s: %d succeeded, %d failed in %s\n",
		run.ID, stats.SuccessCount, stats.FailureCount, stats.TotalDuration.Round(time.Second))

	// Non-nil when the run finished but could not be saved
	return err
}
